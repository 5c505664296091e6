package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/semmidev/dbbackup/internal/domain"
)

type RestoreOptions struct {
	Connection string
	SourcePath string
}

// CompressorLookup returns the compressor for an archived file, or nil for a
// plain dump.
type CompressorLookup func(path string) domain.Compressor

type Restore struct {
	connections ConnectionProvider
	drivers     DriverFactory
	compressors CompressorLookup
	logger      Logger
}

func NewRestore(connections ConnectionProvider, drivers DriverFactory, compressors CompressorLookup, logger Logger) *Restore {
	return &Restore{
		connections: connections,
		drivers:     drivers,
		compressors: compressors,
		logger:      logger,
	}
}

// Execute loads a dump, or a zip/gzip archive of one, into the connection's
// database.
func (uc *Restore) Execute(ctx context.Context, opts RestoreOptions) error {
	conn, err := uc.connections.Connection(opts.Connection)
	if err != nil {
		return err
	}

	driver, err := uc.drivers(conn)
	if err != nil {
		return err
	}

	fail := func(err error) error {
		return &domain.RestoreError{Database: conn.Database, Err: err}
	}

	source, err := filepath.Abs(opts.SourcePath)
	if err != nil {
		return fail(err)
	}
	if _, err := os.Stat(source); err != nil {
		return fail(fmt.Errorf("backup file not found: %w", err))
	}

	if compressor := uc.compressors(source); compressor != nil {
		extracted, err := uc.extract(compressor, source)
		if err != nil {
			return fail(err)
		}
		defer os.Remove(extracted)
		source = extracted
	}

	uc.logger.Infof("[%s] Restoring from %s", conn.Database, opts.SourcePath)
	if err := driver.Restore(ctx, source); err != nil {
		return err
	}

	uc.logger.Infof("[%s] Restore completed", conn.Database)
	return nil
}

func (uc *Restore) extract(compressor domain.Compressor, source string) (string, error) {
	tmp, err := os.CreateTemp("", "dbbackup-restore-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp.Close()

	uc.logger.Infof("Extracting %s", filepath.Base(source))
	if err := compressor.Decompress(source, tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to extract archive: %w", err)
	}
	return tmp.Name(), nil
}
