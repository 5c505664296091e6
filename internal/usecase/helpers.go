package usecase

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// ExtractTimestamp reads the epoch seconds embedded in a backup name of the
// form "{anything}_{epoch}[.{ext}...]". Only a run of decimal digits between
// the last underscore and the first following dot is accepted.
func ExtractTimestamp(key string) (time.Time, error) {
	name := path.Base(key)

	idx := strings.LastIndex(name, "_")
	if idx < 0 {
		return time.Time{}, fmt.Errorf("invalid filename format: no timestamp segment in %q", name)
	}

	segment := name[idx+1:]
	if dot := strings.Index(segment, "."); dot >= 0 {
		segment = segment[:dot]
	}

	epoch, err := strconv.ParseUint(segment, 10, 63)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid filename format: %q is not an epoch timestamp", segment)
	}

	return time.Unix(int64(epoch), 0), nil
}

func timestamped(name string, at time.Time) string {
	return fmt.Sprintf("%s_%d", name, at.Unix())
}
