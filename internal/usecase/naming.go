package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Destination is where a dump is written and what it will be called remotely.
type Destination struct {
	FilePath  string
	FileName  string
	CreatedAt time.Time
}

type Namer struct {
	logger Logger
	now    func() time.Time
	getwd  func() (string, error)
}

func NewNamer(logger Logger) *Namer {
	return &Namer{
		logger: logger,
		now:    time.Now,
		getwd:  os.Getwd,
	}
}

// Destination resolves the dump location.
//
//   - no name: {dumpsDir}/{database}_{epoch}.{ext}, creating dumpsDir
//   - absolute name: used verbatim, file name is its base name
//   - relative name: {cwd}/{name}, file name is {stem}_{epoch}
//
// Absolute names carry no timestamp, so remote copies are never pruned.
func (n *Namer) Destination(name, dumpsDir, database, ext string) (Destination, error) {
	now := n.now()

	switch {
	case name == "":
		if err := os.MkdirAll(dumpsDir, 0755); err != nil {
			return Destination{}, fmt.Errorf("failed to create dumps directory: %w", err)
		}
		fileName := timestamped(database, now) + "." + ext
		return Destination{
			FilePath:  filepath.Join(dumpsDir, fileName),
			FileName:  fileName,
			CreatedAt: now,
		}, nil

	case filepath.IsAbs(name):
		fileName := filepath.Base(name)
		if _, err := ExtractTimestamp(fileName); err != nil {
			n.logger.Warnf("%s has no embedded timestamp; retention pruning will skip it", fileName)
		}
		return Destination{FilePath: name, FileName: fileName, CreatedAt: now}, nil

	default:
		cwd, err := n.getwd()
		if err != nil {
			return Destination{}, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		base := filepath.Base(name)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		return Destination{
			FilePath:  filepath.Join(cwd, name),
			FileName:  timestamped(stem, now),
			CreatedAt: now,
		}, nil
	}
}
