package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/dbbackup/internal/domain"
)

type backupFixture struct {
	driver   *fakeDriver
	store    *memoryStorage
	slack    *fakeNotifier
	dumpsDir string
	backup   *Backup
}

func newBackupFixture(t *testing.T, compressors CompressorFactory) *backupFixture {
	f := &backupFixture{
		driver:   &fakeDriver{},
		store:    newMemoryStorage(),
		slack:    &fakeNotifier{name: "Slack"},
		dumpsDir: filepath.Join(t.TempDir(), "dumps"),
	}

	f.backup = NewBackup(
		testConnections(),
		driverFactory(f.driver),
		f.dumpsDir,
		NewNamer(nopLogger),
		NewArchiver(compressors, nopLogger),
		NewUploader(f.store, nopLogger),
		NewPruner(f.store, nopLogger),
		NewNotifications([]domain.Notifier{f.slack}, nopLogger),
		nopLogger,
	)
	return f
}

func dumpsIn(dir string) []string {
	entries, err := os.ReadDir(dir)
	So(err, ShouldBeNil)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestBackup(t *testing.T) {
	Convey("Given a Backup use case", t, func() {
		ctx := context.Background()
		f := newBackupFixture(t, realCompressors)

		Convey("When running a plain backup", func() {
			outcome, err := f.backup.Execute(ctx, domain.BackupOptions{})

			Convey("It should dump into the dumps directory and notify", func() {
				So(err, ShouldBeNil)
				So(outcome.Dumped, ShouldBeTrue)
				So(outcome.Failed(), ShouldBeFalse)
				So(outcome.Archived, ShouldBeFalse)
				So(outcome.Uploaded, ShouldBeFalse)
				So(outcome.Pruned, ShouldBeNil)
				So(outcome.Notified, ShouldBeTrue)
				So(filepath.Dir(outcome.FinalLocalPath), ShouldEqual, f.dumpsDir)
				So(exists(outcome.FinalLocalPath), ShouldBeTrue)
				So(f.store.puts, ShouldBeEmpty)
			})

			Convey("The notification should name the database and host", func() {
				So(f.slack.got, ShouldHaveLength, 1)
				So(f.slack.got[0].WebhookPath, ShouldEqual, "T000/B000/XXX")
				So(f.slack.got[0].Text, ShouldEqual, "A backup of the shop database at db.internal has been created.")
			})
		})

		Convey("When the connection uses an unsupported driver", func() {
			outcome, err := f.backup.Execute(ctx, domain.BackupOptions{Connection: "legacy", Upload: true})

			Convey("It should stop before any dump is attempted", func() {
				var unsupported *domain.UnsupportedDriverError
				So(errors.As(err, &unsupported), ShouldBeTrue)
				So(unsupported.Kind, ShouldEqual, "sqlsrv")
				So(outcome.Dumped, ShouldBeFalse)
				So(f.driver.dumped, ShouldBeEmpty)
				So(f.store.puts, ShouldBeEmpty)
				So(f.slack.got, ShouldBeEmpty)
			})
		})

		Convey("When the connection is not configured", func() {
			_, err := f.backup.Execute(ctx, domain.BackupOptions{Connection: "missing"})

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "not configured")
		})

		Convey("When the dump fails", func() {
			f.driver.dumpErr = errors.New("Access denied for user")

			outcome, err := f.backup.Execute(ctx, domain.BackupOptions{Archive: true, Upload: true, Bucket: "b"})

			Convey("No later step should run", func() {
				var dumpErr *domain.DumpError
				So(errors.As(err, &dumpErr), ShouldBeTrue)
				So(outcome.Dumped, ShouldBeFalse)
				So(f.store.puts, ShouldBeEmpty)
				So(f.slack.got, ShouldBeEmpty)
			})
		})

		Convey("When archiving and uploading", func() {
			outcome, err := f.backup.Execute(ctx, domain.BackupOptions{
				Archive:      true,
				Upload:       true,
				Bucket:       "nightly",
				RemotePrefix: "databases",
			})

			Convey("The archive should be what gets uploaded", func() {
				So(err, ShouldBeNil)
				So(outcome.Archived, ShouldBeTrue)
				So(outcome.Uploaded, ShouldBeTrue)
				So(outcome.RemoteKey, ShouldEqual, "databases/"+outcome.Artifact.FileName)
				So(outcome.Artifact.FileName, ShouldEndWith, ".zip")
				So(f.store.puts, ShouldResemble, []string{"nightly:" + outcome.RemoteKey})
			})

			Convey("Only the archive should remain locally", func() {
				So(dumpsIn(f.dumpsDir), ShouldResemble, []string{outcome.Artifact.FileName})
				So(outcome.FinalLocalPath, ShouldEqual, outcome.Artifact.LocalPath)
			})
		})

		Convey("When archiving fails", func() {
			f = newBackupFixture(t, func(string) (domain.Compressor, error) {
				return &brokenCompressor{verifyErr: errors.New("corrupt")}, nil
			})

			outcome, err := f.backup.Execute(ctx, domain.BackupOptions{Archive: true, Upload: true, Bucket: "nightly"})

			Convey("The raw dump should be uploaded instead", func() {
				So(err, ShouldBeNil)
				So(outcome.Dumped, ShouldBeTrue)
				So(outcome.Archived, ShouldBeFalse)
				So(outcome.ArchiveErr, ShouldNotBeNil)
				So(outcome.Failed(), ShouldBeTrue)
				So(outcome.Uploaded, ShouldBeTrue)
				So(outcome.Artifact.FileName, ShouldEndWith, ".sql")
				So(dumpsIn(f.dumpsDir), ShouldResemble, []string{outcome.Artifact.FileName})
			})
		})

		Convey("When s3-only upload fails", func() {
			f.store.putErr = errors.New("RequestTimeout")

			outcome, err := f.backup.Execute(ctx, domain.BackupOptions{Upload: true, Bucket: "nightly", S3Only: true})

			Convey("The local artifact should be kept", func() {
				So(err, ShouldBeNil)
				So(outcome.Uploaded, ShouldBeFalse)
				var uploadErr *domain.UploadError
				So(errors.As(outcome.UploadErr, &uploadErr), ShouldBeTrue)
				So(uploadErr.Bucket, ShouldEqual, "nightly")
				So(outcome.Failed(), ShouldBeTrue)
				So(outcome.FinalLocalPath, ShouldNotBeEmpty)
				So(exists(outcome.FinalLocalPath), ShouldBeTrue)
			})
		})

		Convey("When s3-only upload succeeds", func() {
			outcome, err := f.backup.Execute(ctx, domain.BackupOptions{Upload: true, Bucket: "nightly", S3Only: true})

			Convey("The local artifact should be removed", func() {
				So(err, ShouldBeNil)
				So(outcome.Uploaded, ShouldBeTrue)
				So(outcome.FinalLocalPath, ShouldBeEmpty)
				So(dumpsIn(f.dumpsDir), ShouldBeEmpty)
			})
		})

		Convey("When s3-only is given without upload", func() {
			outcome, err := f.backup.Execute(ctx, domain.BackupOptions{S3Only: true, Prune: true, RetentionDays: 7})

			Convey("It should be ignored", func() {
				So(err, ShouldBeNil)
				So(outcome.Uploaded, ShouldBeFalse)
				So(outcome.Pruned, ShouldBeNil)
				So(exists(outcome.FinalLocalPath), ShouldBeTrue)
				So(f.store.listed, ShouldBeEmpty)
			})
		})

		Convey("When uploading with retention", func() {
			now := time.Now()
			old := keyAt("databases", "shop", now.AddDate(0, 0, -10))
			recent := keyAt("databases", "shop", now.AddDate(0, 0, -3))
			f.store.add(old, recent)

			outcome, err := f.backup.Execute(ctx, domain.BackupOptions{
				Upload:        true,
				Bucket:        "nightly",
				RemotePrefix:  "databases",
				Prune:         true,
				RetentionDays: 7,
			})

			Convey("It should prune expired objects and keep the new upload", func() {
				So(err, ShouldBeNil)
				So(outcome.Pruned, ShouldNotBeNil)
				So(*outcome.Pruned, ShouldEqual, 1)
				So(f.store.has(old), ShouldBeFalse)
				So(f.store.has(recent), ShouldBeTrue)
				So(f.store.has(outcome.RemoteKey), ShouldBeTrue)
			})
		})

		Convey("When retention is invalid", func() {
			outcome, err := f.backup.Execute(ctx, domain.BackupOptions{
				Upload: true, Bucket: "nightly", Prune: true, RetentionDays: 0,
			})

			So(err, ShouldBeNil)
			So(outcome.Uploaded, ShouldBeTrue)
			So(outcome.Pruned, ShouldBeNil)
			var invalid *domain.InvalidRetentionError
			So(errors.As(outcome.PruneErr, &invalid), ShouldBeTrue)
		})

		Convey("When the notifier fails", func() {
			f.slack.err = errors.New("500 Internal Server Error")

			outcome, err := f.backup.Execute(ctx, domain.BackupOptions{})

			Convey("The backup should still succeed", func() {
				So(err, ShouldBeNil)
				So(outcome.Dumped, ShouldBeTrue)
				So(outcome.Notified, ShouldBeFalse)
				So(outcome.Failed(), ShouldBeFalse)
			})
		})

		Convey("When notifications are disabled", func() {
			outcome, err := f.backup.Execute(ctx, domain.BackupOptions{DisableNotify: true})

			So(err, ShouldBeNil)
			So(outcome.Notified, ShouldBeFalse)
			So(f.slack.got, ShouldBeEmpty)
		})
	})
}

func TestNotifications(t *testing.T) {
	Convey("Given several notifiers", t, func() {
		ctx := context.Background()
		msg := domain.Notification{Text: "done"}

		Convey("A notifier that does not apply should not count as a failure", func() {
			skipped := &fakeNotifier{name: "Slack", err: domain.ErrNotApplicable}
			telegram := &fakeNotifier{name: "Telegram"}

			sent := NewNotifications([]domain.Notifier{skipped, telegram}, nopLogger).Send(ctx, msg)

			So(sent, ShouldBeTrue)
			So(telegram.got, ShouldHaveLength, 1)
		})

		Convey("A failed notifier should not stop the others", func() {
			broken := &fakeNotifier{name: "Slack", err: errors.New("timeout")}
			telegram := &fakeNotifier{name: "Telegram"}

			sent := NewNotifications([]domain.Notifier{broken, telegram}, nopLogger).Send(ctx, msg)

			So(sent, ShouldBeFalse)
			So(telegram.got, ShouldHaveLength, 1)
		})

		Convey("No notifiers should report nothing sent", func() {
			So(NewNotifications(nil, nopLogger).Send(ctx, msg), ShouldBeFalse)
			var none *Notifications
			So(none.Send(ctx, msg), ShouldBeFalse)
		})
	})
}
