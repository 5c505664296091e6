package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/dbbackup/internal/config"
	"github.com/semmidev/dbbackup/internal/domain"
)

func TestSlack(t *testing.T) {
	Convey("Given a Slack notifier pointed at a test server", t, func() {
		var (
			gotPath string
			gotBody slackPayload
			status  = http.StatusOK
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(status)
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		slack := NewSlack(config.SlackConfig{
			BaseURL:  server.URL + "/services/",
			Username: "Database Backup",
			IconURL:  "https://example.com/icon.png",
		})
		ctx := context.Background()

		Convey("When notifying", func() {
			err := slack.Notify(ctx, domain.Notification{
				WebhookPath: "T000/B000/XXX",
				Text:        "A backup of the shop database at db.internal has been created.",
			})

			Convey("It should POST the JSON payload to base URL plus path", func() {
				So(err, ShouldBeNil)
				So(gotPath, ShouldEqual, "/services/T000/B000/XXX")
				So(gotBody.Text, ShouldEqual, "A backup of the shop database at db.internal has been created.")
				So(gotBody.Username, ShouldEqual, "Database Backup")
				So(gotBody.IconURL, ShouldEqual, "https://example.com/icon.png")
			})
		})

		Convey("When the webhook rejects the request", func() {
			status = http.StatusNotFound
			err := slack.Notify(ctx, domain.Notification{WebhookPath: "bad", Text: "x"})

			Convey("It should return an error with the status", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "404")
			})
		})

		Convey("When the webhook path is empty", func() {
			err := slack.Notify(ctx, domain.Notification{Text: "x"})

			Convey("It should not send anything", func() {
				So(errors.Is(err, domain.ErrNotApplicable), ShouldBeTrue)
				So(gotPath, ShouldBeEmpty)
			})
		})
	})
}

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestTelegram(t *testing.T) {
	Convey("Given a Telegram notifier", t, func() {
		sender := &fakeSender{}
		tg := &Telegram{bot: sender, chatID: 42}

		Convey("When notifying", func() {
			err := tg.Notify(context.Background(), domain.Notification{Text: "backup done"})

			Convey("It should send one message to the configured chat", func() {
				So(err, ShouldBeNil)
				So(sender.sent, ShouldHaveLength, 1)
				msg := sender.sent[0].(tgbotapi.MessageConfig)
				So(msg.ChatID, ShouldEqual, int64(42))
				So(msg.Text, ShouldContainSubstring, "backup done")
			})
		})

		Convey("When the bot API fails", func() {
			sender.err = errors.New("bad gateway")
			err := tg.Notify(context.Background(), domain.Notification{Text: "x"})

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "bad gateway")
		})

		Convey("NewTelegram should reject a non-numeric chat id", func() {
			_, err := NewTelegram(config.TelegramConfig{BotToken: "t", ChatID: "@channel"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "invalid telegram chat id")
		})
	})
}
