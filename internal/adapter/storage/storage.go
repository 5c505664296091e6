package storage

import (
	"context"
	"fmt"

	appconfig "github.com/semmidev/dbbackup/internal/config"
	"github.com/semmidev/dbbackup/internal/domain"
)

// New builds the object storage client named by cfg.Driver.
func New(ctx context.Context, cfg appconfig.StorageConfig, opts Options) (domain.ObjectStorage, error) {
	var (
		stor domain.ObjectStorage
		err  error
	)

	switch cfg.Driver {
	case "", "s3":
		var s *S3Storage
		s, err = NewS3(ctx, cfg, opts)
		stor = s
	case "minio":
		var m *MinIOStorage
		m, err = NewMinIO(cfg, opts)
		stor = m
	case "gdrive":
		var g *GDriveStorage
		g, err = NewGDrive(ctx, cfg, opts)
		stor = g
	case "local":
		if cfg.Root == "" {
			return nil, fmt.Errorf("storage.root is required for the local driver")
		}
		var l *LocalStorage
		l, err = NewLocal(cfg.Root)
		stor = l
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
	}

	if err != nil {
		return nil, err
	}
	return stor, nil
}
