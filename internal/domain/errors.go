package domain

import (
	"fmt"

	"go.uber.org/multierr"
)

type UnsupportedDriverError struct {
	Kind string
}

func (e *UnsupportedDriverError) Error() string {
	return fmt.Sprintf("unsupported database driver: %q", e.Kind)
}

// ExitError is returned by a CommandRunner when the program exits non-zero.
type ExitError struct {
	Program  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with status %d", e.Program, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Program, e.ExitCode, e.Stderr)
}

type DumpError struct {
	Database string
	Err      error
}

func (e *DumpError) Error() string {
	return fmt.Sprintf("dump of %s failed: %v", e.Database, e.Err)
}

func (e *DumpError) Unwrap() error { return e.Err }

type RestoreError struct {
	Database string
	Err      error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore of %s failed: %v", e.Database, e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }

type ArchiveError struct {
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive of %s failed: %v", e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// UploadError wraps the storage client's error unmodified.
type UploadError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload to %s/%s failed: %v", e.Bucket, e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

type InvalidRetentionError struct {
	Days int
}

func (e *InvalidRetentionError) Error() string {
	return fmt.Sprintf("data retention must be a positive number of days, got %d", e.Days)
}

type ObjectError struct {
	Key string
	Err error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e *ObjectError) Unwrap() error { return e.Err }

// PruneError reports a prune that could not list the prefix, or that listed
// it but could not remove every candidate. For delete failures, Err combines
// the per-object errors and Deleted counts the objects that were removed.
type PruneError struct {
	Deleted  int
	Failures []*ObjectError
	Err      error
}

// NewPruneError combines per-object delete failures into one error.
func NewPruneError(deleted int, failures []*ObjectError) *PruneError {
	var combined error
	for _, f := range failures {
		combined = multierr.Append(combined, f)
	}
	return &PruneError{Deleted: deleted, Failures: failures, Err: combined}
}

// ListFailed reports whether the prefix could not be listed, in which case
// nothing was attempted.
func (e *PruneError) ListFailed() bool {
	return len(e.Failures) == 0
}

func (e *PruneError) Error() string {
	if e.ListFailed() {
		return fmt.Sprintf("prune failed: %v", e.Err)
	}
	return fmt.Sprintf("prune deleted %d object(s), %d failed: %v",
		e.Deleted, len(multierr.Errors(e.Err)), e.Err)
}

// Unwrap exposes the listing error or every per-object failure.
func (e *PruneError) Unwrap() []error {
	return multierr.Errors(e.Err)
}

type NotifyError struct {
	Notifier string
	Err      error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("%s notification failed: %v", e.Notifier, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }
