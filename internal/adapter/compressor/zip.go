package compressor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// ZipCompressor writes single-entry zip archives named after the source file.
type ZipCompressor struct{}

func NewZip() *ZipCompressor {
	return &ZipCompressor{}
}

func (z *ZipCompressor) Extension() string {
	return "zip"
}

func (z *ZipCompressor) Compress(sourcePath, destPath string) error {
	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	info, err := sourceFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}

	destFile, err := createExclusive(destPath)
	if err != nil {
		return err
	}

	zipWriter := zip.NewWriter(destFile)

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		destFile.Close()
		return fmt.Errorf("failed to build zip header: %w", err)
	}
	header.Name = filepath.Base(sourcePath)
	header.Method = zip.Deflate

	entry, err := zipWriter.CreateHeader(header)
	if err != nil {
		destFile.Close()
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	if _, err := io.Copy(entry, sourceFile); err != nil {
		destFile.Close()
		return fmt.Errorf("failed to compress: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		destFile.Close()
		return fmt.Errorf("failed to finish zip archive: %w", err)
	}

	return closeFile(destFile)
}

// Decompress extracts the single entry of the archive to destPath.
func (z *ZipCompressor) Decompress(sourcePath, destPath string) error {
	reader, err := zip.OpenReader(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer reader.Close()

	if len(reader.File) != 1 {
		return fmt.Errorf("expected exactly one entry in archive, found %d", len(reader.File))
	}

	entry, err := reader.File[0].Open()
	if err != nil {
		return fmt.Errorf("failed to open zip entry: %w", err)
	}
	defer entry.Close()

	destFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create dest file: %w", err)
	}

	if _, err := io.Copy(destFile, entry); err != nil {
		destFile.Close()
		return fmt.Errorf("failed to decompress: %w", err)
	}

	return closeFile(destFile)
}

// Verify checks the archive has one entry whose contents match its CRC.
func (z *ZipCompressor) Verify(path string) error {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer reader.Close()

	if len(reader.File) != 1 {
		return fmt.Errorf("expected exactly one entry in archive, found %d", len(reader.File))
	}

	entry, err := reader.File[0].Open()
	if err != nil {
		return fmt.Errorf("failed to open zip entry: %w", err)
	}
	defer entry.Close()

	if _, err := io.Copy(io.Discard, entry); err != nil {
		return fmt.Errorf("archive is corrupt: %w", err)
	}
	return nil
}
