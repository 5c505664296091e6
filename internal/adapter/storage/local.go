package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/semmidev/dbbackup/internal/domain"
)

// LocalStorage keeps objects on the filesystem under {root}/{bucket}/{key}.
// It is used for mounted network shares and for tests.
type LocalStorage struct {
	root string
}

func NewLocal(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

func (l *LocalStorage) Put(ctx context.Context, bucket, key, sourcePath string) error {
	destPath, err := l.objectPath(bucket, key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create dest directory: %w", err)
	}

	source, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer source.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create dest: %w", err)
	}

	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		return fmt.Errorf("failed to copy: %w", err)
	}

	return dest.Close()
}

func (l *LocalStorage) List(ctx context.Context, bucket, prefix string) ([]domain.ObjectInfo, error) {
	bucketPath := filepath.Join(l.root, bucket)
	if _, err := os.Stat(bucketPath); err != nil {
		return nil, fmt.Errorf("bucket %s: %w", bucket, err)
	}

	var objects []domain.ObjectInfo
	err := filepath.WalkDir(bucketPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(bucketPath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info for %s: %w", key, err)
		}
		objects = append(objects, domain.ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk bucket: %w", err)
	}

	return objects, nil
}

func (l *LocalStorage) Delete(ctx context.Context, bucket, key string) error {
	path, err := l.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// objectPath rejects keys that would escape the bucket directory.
func (l *LocalStorage) objectPath(bucket, key string) (string, error) {
	bucketPath := filepath.Join(l.root, bucket)
	path := filepath.Join(bucketPath, filepath.FromSlash(key))
	if !strings.HasPrefix(path, bucketPath+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return path, nil
}
