package usecase

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/semmidev/dbbackup/internal/domain"
)

var errNoStorage = errors.New("no object storage configured")

type Uploader struct {
	storage domain.ObjectStorage
	logger  Logger
}

func NewUploader(storage domain.ObjectStorage, logger Logger) *Uploader {
	return &Uploader{storage: storage, logger: logger}
}

// Upload puts the artifact under {prefix}/{fileName} and returns the key.
// The local file is left in place.
func (u *Uploader) Upload(ctx context.Context, artifact domain.Artifact, bucket, prefix string) (string, error) {
	key := RemoteKey(prefix, artifact.FileName)

	if u.storage == nil {
		return key, &domain.UploadError{Bucket: bucket, Key: key, Err: errNoStorage}
	}

	u.logger.Infof("[%s] Uploading %s to %s/%s", artifact.Database, artifact.LocalPath, bucket, key)
	if err := u.storage.Put(ctx, bucket, key, artifact.LocalPath); err != nil {
		return key, &domain.UploadError{Bucket: bucket, Key: key, Err: err}
	}

	u.logger.Infof("[%s] Upload complete", artifact.Database)
	return key, nil
}

func RemoteKey(prefix, fileName string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return fileName
	}
	return path.Join(prefix, fileName)
}
