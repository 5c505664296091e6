package app

import (
	"errors"

	"github.com/semmidev/dbbackup/internal/config"
	"github.com/semmidev/dbbackup/internal/domain"
)

const (
	ExitOK = iota
	// ExitFailure: the dump, restore or standalone command failed.
	ExitFailure
	// ExitUsage: bad flags, configuration or an unsupported driver.
	ExitUsage
	// ExitPartial: the dump exists but a requested archive, upload or prune failed.
	ExitPartial
)

// UsageError marks failures caused by the invocation or configuration.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// ExitCode maps a command result to the process exit status. Notification
// failures never reach it.
func ExitCode(err error, outcome *domain.Outcome) int {
	var (
		usage       *UsageError
		unsupported *domain.UnsupportedDriverError
		retention   *domain.InvalidRetentionError
	)

	switch {
	case err == nil:
		if outcome != nil && outcome.Failed() {
			return ExitPartial
		}
		return ExitOK
	case errors.As(err, &usage),
		errors.As(err, &unsupported),
		errors.As(err, &retention),
		errors.Is(err, config.ErrUnknownConnection):
		return ExitUsage
	default:
		return ExitFailure
	}
}
