package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/semmidev/dbbackup/internal/domain"
)

const pruneConcurrency = 4

// Pruner removes remote backups whose embedded timestamp is older than the
// retention window. Objects without a parseable timestamp are never deleted.
type Pruner struct {
	storage domain.ObjectStorage
	logger  Logger
	now     func() time.Time
}

func NewPruner(storage domain.ObjectStorage, logger Logger) *Pruner {
	return &Pruner{storage: storage, logger: logger, now: time.Now}
}

// Prune deletes candidates independently; a failed delete does not stop the
// others. The returned count covers successful deletes only, and a
// *domain.PruneError lists the keys that could not be removed.
func (p *Pruner) Prune(ctx context.Context, bucket, prefix string, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, &domain.InvalidRetentionError{Days: retentionDays}
	}
	if p.storage == nil {
		return 0, &domain.PruneError{Err: errNoStorage}
	}

	// UTC keeps the window at exactly N*24h across DST changes.
	cutoff := p.now().UTC().AddDate(0, 0, -retentionDays)
	p.logger.Infof("Retaining data where date is greater than %s", cutoff.Format("2006-01-02"))

	objects, err := p.storage.List(ctx, bucket, listPrefix(prefix))
	if err != nil {
		return 0, &domain.PruneError{Err: err}
	}

	var candidates []string
	for _, obj := range objects {
		ts, err := ExtractTimestamp(obj.Key)
		if err != nil {
			p.logger.Warnf("Skipping %s: %v", obj.Key, err)
			continue
		}
		if ts.Before(cutoff) {
			candidates = append(candidates, obj.Key)
		}
	}

	var (
		mu       sync.Mutex
		deleted  int
		failures []*domain.ObjectError
	)

	g := new(errgroup.Group)
	g.SetLimit(pruneConcurrency)
	for _, key := range candidates {
		g.Go(func() error {
			err := p.storage.Delete(ctx, bucket, key)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Errorf("Failed to delete %s: %v", key, err)
				failures = append(failures, &domain.ObjectError{Key: key, Err: err})
				return nil
			}
			p.logger.Infof("The following file is beyond data retention and was deleted: %s", key)
			deleted++
			return nil
		})
	}
	_ = g.Wait()

	p.logger.Infof("%d file(s) were deleted", deleted)

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].Key < failures[j].Key })
		return deleted, domain.NewPruneError(deleted, failures)
	}
	return deleted, nil
}

// listPrefix scopes a listing to the folder so "databases" does not also
// match "databases-old/...".
func listPrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
