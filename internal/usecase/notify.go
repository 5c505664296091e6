package usecase

import (
	"context"
	"errors"

	"github.com/semmidev/dbbackup/internal/domain"
)

// Notifications fans a message out to every configured notifier. Failures
// are logged and never returned.
type Notifications struct {
	notifiers []domain.Notifier
	logger    Logger
}

func NewNotifications(notifiers []domain.Notifier, logger Logger) *Notifications {
	return &Notifications{notifiers: notifiers, logger: logger}
}

// Send reports whether at least one notifier delivered and none failed.
func (n *Notifications) Send(ctx context.Context, msg domain.Notification) bool {
	if n == nil {
		return false
	}

	delivered, failed := 0, 0
	for _, notifier := range n.notifiers {
		n.logger.Infof("Sending %s notification..", notifier.Name())
		err := notifier.Notify(ctx, msg)
		switch {
		case errors.Is(err, domain.ErrNotApplicable):
			n.logger.Debugf("Skipping %s notification: %v", notifier.Name(), err)
		case err != nil:
			failed++
			n.logger.Warnf("%v", &domain.NotifyError{Notifier: notifier.Name(), Err: err})
		default:
			delivered++
			n.logger.Infof("%s notification sent!", notifier.Name())
		}
	}

	return delivered > 0 && failed == 0
}
