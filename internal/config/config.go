package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrUnknownConnection is returned when a connection name is not configured.
var ErrUnknownConnection = errors.New("database connection")

const (
	DefaultDumpsPath = "storage/dumps"
	DefaultS3Path    = "databases"
	DefaultSlackURL  = "https://hooks.slack.com/services"
	DefaultSlackIcon = "https://s3-ap-northeast-1.amazonaws.com/coreproc/images/icon_database.png"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

type DatabaseConfig struct {
	Default     string                      `mapstructure:"default"`
	Connections map[string]ConnectionConfig `mapstructure:"connections"`
}

// ConnectionConfig holds the parameters of one database connection.
type ConnectionConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`

	// MongoDB specific
	AuthDatabase string `mapstructure:"auth_database"`

	SlackWebhookPath string `mapstructure:"slack_webhook_path"`
}

type BackupConfig struct {
	DumpsPath string `mapstructure:"dumps_path"`
}

type StorageConfig struct {
	Driver        string `mapstructure:"driver"`
	Bucket        string `mapstructure:"bucket"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`

	// AWS S3 / MinIO
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	SessionToken string `mapstructure:"session_token"`
	UseSSL       bool   `mapstructure:"use_ssl"`

	// Google Drive
	CredentialsFile string `mapstructure:"credentials_file"`
	OAuthClientFile string `mapstructure:"oauth_client_file"`
	RefreshToken    string `mapstructure:"refresh_token"`

	// Local directory
	Root string `mapstructure:"root"`
}

type NotifyConfig struct {
	Slack    SlackConfig    `mapstructure:"slack"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type SlackConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Username       string `mapstructure:"username"`
	IconURL        string `mapstructure:"icon_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// Load reads the YAML file at path, applies defaults and DBBACKUP_* environment
// overrides, and validates the result. A .env file in the working directory is
// loaded first when present. An empty path uses defaults and environment only.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("dbbackup")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "dbbackup")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("database.default", "mysql")
	v.SetDefault("backup.dumps_path", DefaultDumpsPath)
	v.SetDefault("storage.driver", "s3")
	v.SetDefault("storage.path", DefaultS3Path)
	v.SetDefault("storage.retention_days", 0)
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("notify.slack.base_url", DefaultSlackURL)
	v.SetDefault("notify.slack.username", "Database Backup")
	v.SetDefault("notify.slack.icon_url", DefaultSlackIcon)
	v.SetDefault("notify.slack.timeout_seconds", 10)

	// Flat keys are bound explicitly so AutomaticEnv can see them on Unmarshal.
	for _, key := range []string{
		"storage.bucket", "storage.region", "storage.endpoint",
		"storage.access_key", "storage.secret_key", "storage.session_token",
		"storage.credentials_file", "storage.oauth_client_file", "storage.refresh_token",
		"storage.root",
		"notify.telegram.enabled", "notify.telegram.bot_token", "notify.telegram.chat_id",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	for name, conn := range c.Database.Connections {
		if conn.Driver == "" {
			return fmt.Errorf("database.connections.%s: driver is required", name)
		}
		if conn.Database == "" {
			return fmt.Errorf("database.connections.%s: database is required", name)
		}
	}

	if c.Backup.DumpsPath == "" {
		return fmt.Errorf("backup.dumps_path is required")
	}

	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("storage.retention_days must not be negative")
	}

	if c.Notify.Telegram.Enabled && (c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == "") {
		return fmt.Errorf("notify.telegram: bot_token and chat_id are required when enabled")
	}

	return nil
}

// Connection returns the named connection, or the default one when name is empty.
func (c *Config) Connection(name string) (ConnectionConfig, error) {
	if name == "" {
		name = c.Database.Default
	}
	// viper lower-cases map keys
	conn, ok := c.Database.Connections[strings.ToLower(name)]
	if !ok {
		return ConnectionConfig{}, fmt.Errorf("%w %q is not configured", ErrUnknownConnection, name)
	}
	return conn, nil
}
