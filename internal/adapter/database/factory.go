package database

import (
	"strings"

	"github.com/semmidev/dbbackup/internal/config"
	"github.com/semmidev/dbbackup/internal/domain"
)

// New selects the driver for the connection's engine kind.
func New(cfg config.ConnectionConfig, runner domain.CommandRunner) (domain.Driver, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "mysql", "mariadb":
		return NewMySQL(cfg, runner), nil
	case "pgsql", "postgres", "postgresql":
		return NewPostgreSQL(cfg, runner), nil
	case "mongo", "mongodb":
		return NewMongoDB(cfg, runner), nil
	default:
		return nil, &domain.UnsupportedDriverError{Kind: cfg.Driver}
	}
}
