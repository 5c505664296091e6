package compressor

import (
	"fmt"
	"os"
	"strings"

	"github.com/semmidev/dbbackup/internal/domain"
)

// New returns the compressor for an archive format name. Empty means zip.
func New(format string) (domain.Compressor, error) {
	switch format {
	case "", "zip":
		return NewZip(), nil
	case "gz", "gzip":
		return NewGzip(), nil
	default:
		return nil, fmt.Errorf("unsupported archive format: %q", format)
	}
}

// ForPath picks the compressor matching a file's extension, or nil.
func ForPath(path string) domain.Compressor {
	switch {
	case strings.HasSuffix(path, ".zip"):
		return NewZip()
	case strings.HasSuffix(path, ".gz"):
		return NewGzip()
	default:
		return nil
	}
}

// createExclusive refuses to overwrite an existing archive.
func createExclusive(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create dest file: %w", err)
	}
	return file, nil
}

func closeFile(file *os.File) error {
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", file.Name(), err)
	}
	return nil
}
