package app

import (
	"context"
	"fmt"

	"github.com/semmidev/dbbackup/internal/adapter/compressor"
	"github.com/semmidev/dbbackup/internal/adapter/database"
	"github.com/semmidev/dbbackup/internal/adapter/notifier"
	"github.com/semmidev/dbbackup/internal/adapter/runner"
	"github.com/semmidev/dbbackup/internal/adapter/storage"
	"github.com/semmidev/dbbackup/internal/config"
	"github.com/semmidev/dbbackup/internal/domain"
	"github.com/semmidev/dbbackup/internal/infrastructure/logger"
	"github.com/semmidev/dbbackup/internal/usecase"
)

// App wires configuration to the use cases. Object storage and notifiers are
// only built when a command needs them.
type App struct {
	config   *config.Config
	logger   *logger.Logger
	runner   domain.CommandRunner
	storage  domain.ObjectStorage
	progress bool
}

type Option func(*App)

// WithRunner replaces the process runner used by the database drivers.
func WithRunner(r domain.CommandRunner) Option {
	return func(a *App) { a.runner = r }
}

// WithStorage replaces the object storage built from storage.driver.
func WithStorage(s domain.ObjectStorage) Option {
	return func(a *App) { a.storage = s }
}

func WithProgress(enabled bool) Option {
	return func(a *App) { a.progress = enabled }
}

func New(cfg *config.Config, log *logger.Logger, opts ...Option) *App {
	a := &App{config: cfg, logger: log}
	for _, opt := range opts {
		opt(a)
	}
	if a.runner == nil {
		a.runner = runner.NewExec(log.Named("runner"))
	}
	return a
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) Backup(ctx context.Context, opts domain.BackupOptions) (*domain.Outcome, error) {
	var stor domain.ObjectStorage
	if opts.Upload {
		s, err := a.objectStorage(ctx)
		if err != nil {
			// The dump still runs; upload and prune report this error.
			a.logger.Errorf("%v", err)
			s = unavailableStorage{err: err}
		}
		stor = s
	}

	var notifications *usecase.Notifications
	if !opts.DisableNotify {
		notifications = usecase.NewNotifications(a.notifiers(), a.logger.Named("notify"))
	}

	backup := usecase.NewBackup(
		a.config,
		a.drivers(),
		a.config.Backup.DumpsPath,
		usecase.NewNamer(a.logger),
		usecase.NewArchiver(compressor.New, a.logger),
		usecase.NewUploader(stor, a.logger),
		usecase.NewPruner(stor, a.logger.Named("prune")),
		notifications,
		a.logger,
	)
	return backup.Execute(ctx, opts)
}

func (a *App) Restore(ctx context.Context, opts usecase.RestoreOptions) error {
	restore := usecase.NewRestore(a.config, a.drivers(), compressor.ForPath, a.logger)
	return restore.Execute(ctx, opts)
}

func (a *App) Prune(ctx context.Context, bucket, prefix string, retentionDays int) (int, error) {
	stor, err := a.objectStorage(ctx)
	if err != nil {
		return 0, err
	}
	return usecase.NewPruner(stor, a.logger.Named("prune")).Prune(ctx, bucket, prefix, retentionDays)
}

func (a *App) List(ctx context.Context, bucket, prefix string) ([]usecase.RemoteBackup, error) {
	stor, err := a.objectStorage(ctx)
	if err != nil {
		return nil, err
	}
	return usecase.NewLister(stor).List(ctx, bucket, prefix)
}

func (a *App) Close() {
	a.logger.Close()
}

func (a *App) drivers() usecase.DriverFactory {
	return func(conn config.ConnectionConfig) (domain.Driver, error) {
		return database.New(conn, a.runner)
	}
}

func (a *App) objectStorage(ctx context.Context) (domain.ObjectStorage, error) {
	if a.storage != nil {
		return a.storage, nil
	}

	stor, err := storage.New(ctx, a.config.Storage, storage.Options{Progress: a.progress})
	if err != nil {
		return nil, &UsageError{Err: fmt.Errorf("failed to initialize %s storage: %w", a.config.Storage.Driver, err)}
	}
	a.logger.Debugf("✓ %s storage enabled", a.config.Storage.Driver)

	a.storage = stor
	return stor, nil
}

func (a *App) notifiers() []domain.Notifier {
	notifiers := []domain.Notifier{notifier.NewSlack(a.config.Notify.Slack)}

	if a.config.Notify.Telegram.Enabled {
		tg, err := notifier.NewTelegram(a.config.Notify.Telegram)
		if err != nil {
			a.logger.Errorf("Failed to initialize Telegram: %v", err)
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	return notifiers
}

// unavailableStorage stands in for a storage client that could not be built.
type unavailableStorage struct {
	err error
}

func (u unavailableStorage) Put(ctx context.Context, bucket, key, sourcePath string) error {
	return u.err
}

func (u unavailableStorage) List(ctx context.Context, bucket, prefix string) ([]domain.ObjectInfo, error) {
	return nil, u.err
}

func (u unavailableStorage) Delete(ctx context.Context, bucket, key string) error {
	return u.err
}
