package domain

import (
	"context"
	"errors"
)

// ErrNotApplicable is returned by a notifier that has nothing to do for a
// notification, such as a webhook notifier given no webhook path.
var ErrNotApplicable = errors.New("notifier not applicable")

type Notification struct {
	WebhookPath string
	Text        string
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}
