package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/semmidev/dbbackup/internal/domain"
)

type RemoteBackup struct {
	Key  string
	Size int64
	// CreatedAt is zero when the key carries no parseable timestamp.
	CreatedAt time.Time
}

type Lister struct {
	storage domain.ObjectStorage
}

func NewLister(storage domain.ObjectStorage) *Lister {
	return &Lister{storage: storage}
}

// List returns the remote backups under prefix, oldest first. Keys without a
// timestamp sort last.
func (l *Lister) List(ctx context.Context, bucket, prefix string) ([]RemoteBackup, error) {
	if l.storage == nil {
		return nil, errNoStorage
	}

	objects, err := l.storage.List(ctx, bucket, listPrefix(prefix))
	if err != nil {
		return nil, err
	}

	backups := make([]RemoteBackup, 0, len(objects))
	for _, obj := range objects {
		b := RemoteBackup{Key: obj.Key, Size: obj.Size}
		if ts, err := ExtractTimestamp(obj.Key); err == nil {
			b.CreatedAt = ts
		}
		backups = append(backups, b)
	}

	sort.SliceStable(backups, func(i, j int) bool {
		a, b := backups[i].CreatedAt, backups[j].CreatedAt
		switch {
		case a.IsZero() != b.IsZero():
			return b.IsZero()
		case !a.Equal(b):
			return a.Before(b)
		default:
			return backups[i].Key < backups[j].Key
		}
	})

	return backups, nil
}
