package usecase

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNamer(t *testing.T) {
	Convey("Given a Namer", t, func() {
		namer := NewNamer(nopLogger)
		tempDir := t.TempDir()

		Convey("When no name is supplied", func() {
			before := time.Now().Unix()
			dumpsDir := filepath.Join(tempDir, "storage", "dumps")
			dest, err := namer.Destination("", dumpsDir, "shop", "sql")
			after := time.Now().Unix()

			Convey("It should create {database}_{epoch}.{ext} inside the dumps directory", func() {
				So(err, ShouldBeNil)
				matches := regexp.MustCompile(`^shop_(\d+)\.sql$`).FindStringSubmatch(dest.FileName)
				So(matches, ShouldHaveLength, 2)

				epoch, err := strconv.ParseInt(matches[1], 10, 64)
				So(err, ShouldBeNil)
				So(epoch, ShouldBeBetweenOrEqual, before, after)
				So(dest.CreatedAt.Unix(), ShouldEqual, epoch)

				So(dest.FilePath, ShouldEqual, filepath.Join(dumpsDir, dest.FileName))
				info, err := os.Stat(dumpsDir)
				So(err, ShouldBeNil)
				So(info.IsDir(), ShouldBeTrue)
			})

			Convey("The name should be retention-parseable", func() {
				ts, err := ExtractTimestamp(dest.FileName)
				So(err, ShouldBeNil)
				So(ts.Unix(), ShouldEqual, dest.CreatedAt.Unix())
			})
		})

		Convey("When the dumps directory cannot be created", func() {
			blocker := filepath.Join(tempDir, "file")
			So(os.WriteFile(blocker, nil, 0644), ShouldBeNil)

			_, err := namer.Destination("", filepath.Join(blocker, "dumps"), "shop", "sql")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "failed to create dumps directory")
		})

		Convey("When an absolute name is supplied", func() {
			dest, err := namer.Destination("/tmp/foo.sql", "/unused", "shop", "sql")

			Convey("It should be used verbatim without a timestamp", func() {
				So(err, ShouldBeNil)
				So(dest.FilePath, ShouldEqual, "/tmp/foo.sql")
				So(dest.FileName, ShouldEqual, "foo.sql")
			})

			Convey("It should not create the dumps directory", func() {
				_, err := os.Stat("/unused")
				So(os.IsNotExist(err), ShouldBeTrue)
			})
		})

		Convey("When a relative name is supplied", func() {
			namer.now = fixedClock(time.Unix(1700000000, 0))
			namer.getwd = func() (string, error) { return "/work", nil }

			dest, err := namer.Destination("backup.sql", "/unused", "shop", "sql")

			Convey("It should resolve against the working directory and add a timestamp", func() {
				So(err, ShouldBeNil)
				So(dest.FilePath, ShouldEqual, "/work/backup.sql")
				So(dest.FileName, ShouldEqual, "backup_1700000000")
			})
		})

		Convey("When a relative name has directories", func() {
			namer.now = fixedClock(time.Unix(1700000000, 0))
			namer.getwd = func() (string, error) { return "/work", nil }

			dest, err := namer.Destination("nightly/shop.sql", "/unused", "shop", "sql")

			So(err, ShouldBeNil)
			So(dest.FilePath, ShouldEqual, "/work/nightly/shop.sql")
			So(dest.FileName, ShouldEqual, "shop_1700000000")
		})
	})
}

func TestExtractTimestamp(t *testing.T) {
	Convey("Given backup object keys", t, func() {
		Convey("It should parse the segment after the last underscore", func() {
			for key, want := range map[string]int64{
				"shop_1700000000.sql":                1700000000,
				"databases/shop_1700000000.zip":      1700000000,
				"databases/my_shop_db_1690000000.gz": 1690000000,
				"backup_1700000000":                  1700000000,
				"shop_1700000000.sql.gz":             1700000000,
			} {
				ts, err := ExtractTimestamp(key)
				So(err, ShouldBeNil)
				So(ts.Unix(), ShouldEqual, want)
			}
		})

		Convey("It should reject keys without a numeric timestamp", func() {
			for _, key := range []string{
				"databases/foo.sql",
				"databases/shop_latest.sql",
				"databases/shop_.sql",
				"databases/shop_-5.sql",
				"databases/shop_+17.sql",
				"databases/shop_12ab.sql",
				"databases/shop_99999999999999999999.sql",
				"databases/",
			} {
				_, err := ExtractTimestamp(key)
				So(err, ShouldNotBeNil)
			}
		})
	})
}
