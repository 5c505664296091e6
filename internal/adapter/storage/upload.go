package storage

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/semmidev/dbbackup/pkg/progress"
)

type Options struct {
	// Progress renders a byte progress bar while uploading.
	Progress bool
}

type uploadFile struct {
	file   *os.File
	reader io.Reader
	size   int64
	bar    *progress.Bar
}

func openUpload(localPath, key string, showProgress bool) (*uploadFile, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	u := &uploadFile{file: file, reader: file, size: info.Size()}
	if showProgress {
		u.bar = progress.NewBytesBar(info.Size(), "uploading "+path.Base(key))
		u.reader = u.bar.Reader(file)
	}
	return u, nil
}

func (u *uploadFile) Close() error {
	if u.bar != nil {
		u.bar.Finish()
	}
	return u.file.Close()
}
