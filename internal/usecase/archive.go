package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/semmidev/dbbackup/internal/domain"
)

type CompressorFactory func(format string) (domain.Compressor, error)

type Archiver struct {
	compressors CompressorFactory
	logger      Logger
	now         func() time.Time
}

func NewArchiver(compressors CompressorFactory, logger Logger) *Archiver {
	return &Archiver{compressors: compressors, logger: logger, now: time.Now}
}

// Archive compresses the artifact into {dir}/{database}_{epoch}.{ext} and
// deletes the raw file once the archive has been read back successfully. On
// any failure the original artifact is left in place.
func (a *Archiver) Archive(artifact domain.Artifact, format string) (domain.Artifact, error) {
	fail := func(err error) (domain.Artifact, error) {
		return artifact, &domain.ArchiveError{Path: artifact.LocalPath, Err: err}
	}

	compressor, err := a.compressors(format)
	if err != nil {
		return fail(err)
	}

	now := a.now()
	fileName := timestamped(artifact.Database, now) + "." + compressor.Extension()
	archivePath := filepath.Join(filepath.Dir(artifact.LocalPath), fileName)

	if _, err := os.Stat(archivePath); err == nil {
		return fail(fmt.Errorf("%s already exists", archivePath))
	}

	a.logger.Infof("[%s] Compressing %s into %s", artifact.Database, artifact.FileName, fileName)

	if err := compressor.Compress(artifact.LocalPath, archivePath); err != nil {
		_ = os.Remove(archivePath)
		return fail(err)
	}

	if err := compressor.Verify(archivePath); err != nil {
		_ = os.Remove(archivePath)
		return fail(fmt.Errorf("archive verification: %w", err))
	}

	if err := os.Remove(artifact.LocalPath); err != nil {
		_ = os.Remove(archivePath)
		return fail(fmt.Errorf("failed to remove raw dump: %w", err))
	}

	return domain.Artifact{
		LocalPath: archivePath,
		FileName:  fileName,
		Database:  artifact.Database,
		CreatedAt: now,
	}, nil
}
