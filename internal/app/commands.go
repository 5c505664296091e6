package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/semmidev/dbbackup/internal/adapter/compressor"
	"github.com/semmidev/dbbackup/internal/config"
	"github.com/semmidev/dbbackup/internal/domain"
	"github.com/semmidev/dbbackup/internal/infrastructure/logger"
	"github.com/semmidev/dbbackup/internal/usecase"
)

const defaultConfigPath = "configs/config.yaml"

// fromConfig is the value of an optional-value flag given without "=value".
// It is not a valid bucket name, prefix or number of days.
const fromConfig = "@config"

type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	progress   bool

	args    []string
	options []Option
	app     *App
	started bool
	outcome *domain.Outcome
}

// Run executes the command line and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...Option) int {
	c := &cli{stdout: stdout, stderr: stderr, args: args, options: opts}

	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		defer c.app.Close()
	}

	if err != nil {
		// cobra rejected the arguments before any command ran
		if !c.started {
			err = &UsageError{Err: err}
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return ExitCode(err, c.outcome)
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "dbbackup",
		Short:             "Back up databases to local disk and object storage",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", defaultConfigPath, "path to config file")
	flags.StringVar(&c.logLevel, "log-level", "", "log level (default: app.log_level)")
	flags.BoolVar(&c.progress, "progress", false, "show a progress bar while uploading")

	root.AddCommand(
		c.backupCommand(),
		c.restoreCommand(),
		c.pruneCommand(),
		c.listCommand(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	c.started = true

	path := c.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return &UsageError{Err: err}
	}

	level := cfg.App.LogLevel
	if c.logLevel != "" {
		level = c.logLevel
	}
	log, err := logger.New(logger.Options{Level: level, File: cfg.App.LogFile, Console: c.stderr})
	if err != nil {
		return &UsageError{Err: fmt.Errorf("failed to initialize logger: %w", err)}
	}

	opts := append([]Option{WithProgress(c.progress)}, c.options...)
	c.app = New(cfg, log, opts...)
	return nil
}

type backupFlags struct {
	database     string
	uploadS3     string
	pathS3       string
	retention    string
	archive      string
	disableSlack bool
	s3Only       bool
}

func (c *cli) backupCommand() *cobra.Command {
	f := &backupFlags{}

	cmd := &cobra.Command{
		Use:   "backup [filename]",
		Short: "Dump a database, then optionally archive, upload and prune",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := detachedValue(c.args, args, optionalValueFlags); err != nil {
				return err
			}

			opts, err := f.options(cmd, c.app.Config(), args)
			if err != nil {
				return err
			}

			outcome, err := c.app.Backup(cmd.Context(), opts)
			c.outcome = outcome
			if err != nil {
				return err
			}

			c.reportBackup(opts, outcome)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.database, "database", "", "connection name (default: database.default)")
	flags.StringVar(&f.uploadS3, "upload-s3", "", "upload the backup, --upload-s3=bucket to override storage.bucket")
	flags.StringVar(&f.pathS3, "path-s3", "", "remote folder, --path-s3=prefix to override storage.path")
	flags.StringVar(&f.retention, "data-retention-s3", "", "delete remote backups older than N days, --data-retention-s3=N to override storage.retention_days")
	flags.StringVar(&f.archive, "archive", "", "compress the dump before upload: zip or gzip")
	flags.BoolVar(&f.disableSlack, "disable-slack", false, "do not send notifications")
	flags.BoolVar(&f.s3Only, "s3-only", false, "delete the local copy after a successful upload")

	for _, name := range optionalValueFlags {
		flags.Lookup(name).NoOptDefVal = fromConfig
	}
	flags.Lookup("archive").NoOptDefVal = "zip"

	return cmd
}

func (f *backupFlags) options(cmd *cobra.Command, cfg *config.Config, args []string) (domain.BackupOptions, error) {
	opts := domain.BackupOptions{
		Connection:    f.database,
		RemotePrefix:  resolve(f.pathS3, cfg.Storage.Path),
		S3Only:        f.s3Only,
		DisableNotify: f.disableSlack,
	}
	if len(args) == 1 {
		opts.FileName = args[0]
	}

	flags := cmd.Flags()

	if flags.Changed("archive") {
		if _, err := compressor.New(f.archive); err != nil {
			return opts, &UsageError{Err: err}
		}
		opts.Archive = true
		opts.ArchiveFormat = f.archive
	}

	if flags.Changed("upload-s3") {
		bucket, err := requireBucket(f.uploadS3, cfg)
		if err != nil {
			return opts, err
		}
		opts.Upload = true
		opts.Bucket = bucket
	}

	if flags.Changed("data-retention-s3") {
		days, err := retentionDays(f.retention, cfg.Storage.RetentionDays)
		if err != nil {
			return opts, err
		}
		opts.Prune = true
		opts.RetentionDays = days
	}

	return opts, nil
}

func (c *cli) reportBackup(opts domain.BackupOptions, outcome *domain.Outcome) {
	switch {
	case outcome.FinalLocalPath == "":
		fmt.Fprintln(c.stdout, "Database backup was successful.")
	case opts.FileName != "":
		fmt.Fprintf(c.stdout, "Database backup was successful. Saved to %s\n", outcome.FinalLocalPath)
	default:
		fmt.Fprintf(c.stdout, "%s was saved in the dumps folder.\n", outcome.Artifact.FileName)
	}

	if outcome.Uploaded {
		fmt.Fprintf(c.stdout, "Upload complete. Saved to %s/%s\n", opts.Bucket, outcome.RemoteKey)
	}
	if outcome.Pruned != nil {
		fmt.Fprintf(c.stdout, "%d file(s) were deleted.\n", *outcome.Pruned)
	}

	for _, err := range []error{outcome.ArchiveErr, outcome.UploadErr, outcome.PruneErr} {
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
		}
	}
}

func (c *cli) restoreCommand() *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Load a dump or a zip/gzip archive of one into a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := c.app.Restore(cmd.Context(), usecase.RestoreOptions{
				Connection: database,
				SourcePath: args[0],
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, "Database restore was successful.")
			return nil
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "connection name (default: database.default)")
	return cmd
}

func (c *cli) pruneCommand() *cobra.Command {
	var bucket, prefix, days string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete remote backups older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.app.Config()

			b, err := requireBucket(bucket, cfg)
			if err != nil {
				return err
			}
			d, err := retentionDays(days, cfg.Storage.RetentionDays)
			if err != nil {
				return err
			}

			deleted, err := c.app.Prune(cmd.Context(), b, resolve(prefix, cfg.Storage.Path), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "%d file(s) were deleted.\n", deleted)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&bucket, "bucket", "", "bucket to prune (default: storage.bucket)")
	flags.StringVar(&prefix, "path", "", "remote folder (default: storage.path)")
	flags.StringVar(&days, "days", "", "retention in days (default: storage.retention_days)")
	return cmd
}

func (c *cli) listCommand() *cobra.Command {
	var bucket, prefix string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List remote backups, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.app.Config()

			b, err := requireBucket(bucket, cfg)
			if err != nil {
				return err
			}

			backups, err := c.app.List(cmd.Context(), b, resolve(prefix, cfg.Storage.Path))
			if err != nil {
				return err
			}

			for _, backup := range backups {
				created := "unparsed"
				if !backup.CreatedAt.IsZero() {
					created = backup.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
				}
				fmt.Fprintf(c.stdout, "%s\t%d\t%s\n", created, backup.Size, backup.Key)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&bucket, "bucket", "", "bucket to list (default: storage.bucket)")
	flags.StringVar(&prefix, "path", "", "remote folder (default: storage.path)")
	return cmd
}

// optionalValueFlags only take a value in the --flag=value form.
var optionalValueFlags = []string{"upload-s3", "path-s3", "data-retention-s3"}

// detachedValue rejects "--flag value" for optional-value flags, where the
// value would otherwise be taken as the filename argument.
func detachedValue(raw, positional []string, names []string) error {
	if len(positional) == 0 {
		return nil
	}
	for i := 0; i+1 < len(raw); i++ {
		for _, name := range names {
			if raw[i] == "--"+name && raw[i+1] == positional[0] {
				return &UsageError{Err: fmt.Errorf("ambiguous %q after --%s: use --%s=%s, or put the filename before the flag",
					raw[i+1], name, name, raw[i+1])}
			}
		}
	}
	return nil
}

func resolve(value, configured string) string {
	if value == "" || value == fromConfig {
		return configured
	}
	return value
}

func requireBucket(value string, cfg *config.Config) (string, error) {
	bucket := resolve(value, cfg.Storage.Bucket)
	if bucket == "" {
		return "", &UsageError{Err: errors.New("no bucket given and storage.bucket is not set")}
	}
	return bucket, nil
}

func retentionDays(value string, configured int) (int, error) {
	days := configured
	if value != "" && value != fromConfig {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, &UsageError{Err: fmt.Errorf("%q is not a number of days", value)}
		}
		days = n
	}
	if days <= 0 {
		return 0, &domain.InvalidRetentionError{Days: days}
	}
	return days, nil
}
