package domain

import (
	"context"
	"time"
)

// Artifact is the backup file currently owned by a pipeline run. Archiving
// replaces it; the previous LocalPath is gone once the replacement exists.
type Artifact struct {
	LocalPath string
	FileName  string
	Database  string
	CreatedAt time.Time
}

// Outcome is the structured report of one backup run.
type Outcome struct {
	Dumped         bool
	Archived       bool
	Uploaded       bool
	Pruned         *int
	Notified       bool
	FinalLocalPath string
	RemoteKey      string
	Artifact       Artifact

	ArchiveErr error
	UploadErr  error
	PruneErr   error
}

// Failed reports whether a requested optional step failed.
func (o *Outcome) Failed() bool {
	return o.ArchiveErr != nil || o.UploadErr != nil || o.PruneErr != nil
}

type BackupExecutor interface {
	Execute(ctx context.Context, opts BackupOptions) (*Outcome, error)
}

// BackupOptions is the typed form of the backup command line.
type BackupOptions struct {
	Connection    string
	FileName      string
	Archive       bool
	ArchiveFormat string
	Upload        bool
	Bucket        string
	RemotePrefix  string
	Prune         bool
	RetentionDays int
	S3Only        bool
	DisableNotify bool
}
