package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/semmidev/dbbackup/internal/config"
	"github.com/semmidev/dbbackup/internal/domain"
)

type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

type ConnectionProvider interface {
	Connection(name string) (config.ConnectionConfig, error)
}

type DriverFactory func(cfg config.ConnectionConfig) (domain.Driver, error)

var _ domain.BackupExecutor = (*Backup)(nil)

// Backup sequences one backup run:
// driver selection, dump, archive, upload, prune, notify.
type Backup struct {
	connections   ConnectionProvider
	drivers       DriverFactory
	dumpsDir      string
	namer         *Namer
	archiver      *Archiver
	uploader      *Uploader
	pruner        *Pruner
	notifications *Notifications
	logger        Logger
}

func NewBackup(
	connections ConnectionProvider,
	drivers DriverFactory,
	dumpsDir string,
	namer *Namer,
	archiver *Archiver,
	uploader *Uploader,
	pruner *Pruner,
	notifications *Notifications,
	logger Logger,
) *Backup {
	return &Backup{
		connections:   connections,
		drivers:       drivers,
		dumpsDir:      dumpsDir,
		namer:         namer,
		archiver:      archiver,
		uploader:      uploader,
		pruner:        pruner,
		notifications: notifications,
		logger:        logger,
	}
}

// Execute returns an error only when no dump was produced. Failures of the
// optional steps are recorded on the outcome and never undo earlier steps.
func (uc *Backup) Execute(ctx context.Context, opts domain.BackupOptions) (*domain.Outcome, error) {
	start := time.Now()
	outcome := &domain.Outcome{}

	conn, err := uc.connections.Connection(opts.Connection)
	if err != nil {
		return outcome, err
	}

	driver, err := uc.drivers(conn)
	if err != nil {
		return outcome, err
	}

	dbName := conn.Database
	dest, err := uc.namer.Destination(opts.FileName, uc.dumpsDir, dbName, driver.FileExtension())
	if err != nil {
		return outcome, &domain.DumpError{Database: dbName, Err: err}
	}

	uc.logger.Infof("[%s] Creating %s backup to: %s", dbName, driver.Kind(), dest.FilePath)
	if err := driver.Dump(ctx, dest.FilePath); err != nil {
		return outcome, err
	}

	artifact := domain.Artifact{
		LocalPath: dest.FilePath,
		FileName:  dest.FileName,
		Database:  dbName,
		CreatedAt: dest.CreatedAt,
	}
	outcome.Dumped = true

	if info, err := os.Stat(artifact.LocalPath); err == nil {
		uc.logger.Infof("[%s] Backup created, size: %.2f MB", dbName, float64(info.Size())/(1024*1024))
	}

	if opts.Archive {
		archived, err := uc.archiver.Archive(artifact, opts.ArchiveFormat)
		if err != nil {
			outcome.ArchiveErr = err
			uc.logger.Errorf("[%s] %v; keeping the uncompressed dump", dbName, err)
		} else {
			artifact = archived
			outcome.Archived = true
		}
	}

	if opts.Upload {
		uc.upload(ctx, opts, &artifact, outcome)
	} else if opts.S3Only || opts.Prune {
		uc.logger.Warnf("[%s] --s3-only and --data-retention-s3 require --upload-s3; ignoring", dbName)
	}

	outcome.Artifact = artifact
	if artifact.LocalPath != "" {
		outcome.FinalLocalPath = artifact.LocalPath
	}

	if !opts.DisableNotify {
		outcome.Notified = uc.notifications.Send(ctx, domain.Notification{
			WebhookPath: conn.SlackWebhookPath,
			Text:        fmt.Sprintf("A backup of the %s database at %s has been created.", dbName, conn.Host),
		})
	}

	uc.logger.Infof("[%s] Backup run finished in %s: %s",
		dbName, time.Since(start).Round(time.Millisecond), artifact.FileName)

	return outcome, nil
}

func (uc *Backup) upload(ctx context.Context, opts domain.BackupOptions, artifact *domain.Artifact, outcome *domain.Outcome) {
	dbName := artifact.Database

	key, err := uc.uploader.Upload(ctx, *artifact, opts.Bucket, opts.RemotePrefix)
	outcome.RemoteKey = key
	if err != nil {
		outcome.UploadErr = err
		uc.logger.Errorf("[%s] %v", dbName, err)
	} else {
		outcome.Uploaded = true
	}

	if opts.Prune {
		deleted, err := uc.pruner.Prune(ctx, opts.Bucket, opts.RemotePrefix, opts.RetentionDays)
		var pruneErr *domain.PruneError
		if err == nil || (errors.As(err, &pruneErr) && !pruneErr.ListFailed()) {
			outcome.Pruned = &deleted
		}
		if err != nil {
			outcome.PruneErr = err
			uc.logger.Errorf("[%s] %v", dbName, err)
		}
	}

	if !opts.S3Only {
		return
	}
	if !outcome.Uploaded {
		uc.logger.Warnf("[%s] Upload failed; keeping local copy %s", dbName, artifact.LocalPath)
		return
	}
	if err := os.Remove(artifact.LocalPath); err != nil {
		uc.logger.Warnf("[%s] Failed to remove local copy after upload: %v", dbName, err)
		return
	}
	uc.logger.Infof("[%s] Removed local copy %s", dbName, artifact.LocalPath)
	artifact.LocalPath = ""
}
