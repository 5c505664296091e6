package domain

import (
	"context"
	"time"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage is the put/list/delete capability of a remote bucket store.
type ObjectStorage interface {
	Put(ctx context.Context, bucket, key, sourcePath string) error
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	Delete(ctx context.Context, bucket, key string) error
}
