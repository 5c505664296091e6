package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/semmidev/dbbackup/internal/config"
	"github.com/semmidev/dbbackup/internal/domain"
)

type slackPayload struct {
	Text     string `json:"text"`
	Username string `json:"username"`
	IconURL  string `json:"icon_url"`
}

// Slack posts messages to an incoming webhook under a fixed base URL.
type Slack struct {
	client   *resty.Client
	baseURL  string
	username string
	iconURL  string
}

func NewSlack(cfg config.SlackConfig) *Slack {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Slack{
		client:   resty.New().SetTimeout(timeout),
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		username: cfg.Username,
		iconURL:  cfg.IconURL,
	}
}

func (s *Slack) Name() string {
	return "slack"
}

func (s *Slack) Notify(ctx context.Context, n domain.Notification) error {
	if n.WebhookPath == "" {
		return fmt.Errorf("connection has no webhook path: %w", domain.ErrNotApplicable)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(slackPayload{Text: n.Text, Username: s.username, IconURL: s.iconURL}).
		Post(s.baseURL + "/" + strings.TrimPrefix(n.WebhookPath, "/"))
	if err != nil {
		return err
	}

	if resp.IsError() {
		return fmt.Errorf("webhook returned %s: %s", resp.Status(), strings.TrimSpace(resp.String()))
	}

	return nil
}
