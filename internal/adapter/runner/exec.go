package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/semmidev/dbbackup/internal/domain"
)

const maxStderr = 2048

type Logger interface {
	Debugf(template string, args ...interface{})
}

// Exec runs commands as child processes and blocks until they exit.
type Exec struct {
	logger     Logger
	openOutput func(path string) (io.WriteCloser, error)
}

func NewExec(logger Logger) *Exec {
	return &Exec{logger: logger, openOutput: createOutput}
}

func createOutput(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
}

func (r *Exec) Run(ctx context.Context, c domain.Command) error {
	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	if c.StdinPath != "" {
		in, err := os.Open(c.StdinPath)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer in.Close()
		cmd.Stdin = in
	}

	var out io.WriteCloser
	if c.StdoutPath != "" {
		f, err := r.openOutput(c.StdoutPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		out = f
		cmd.Stdout = out
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Debugf("executing %s", c.Redacted())

	err := cmd.Run()

	// A dump is only complete once its output file is closed.
	if out != nil {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			return fmt.Errorf("failed to close output file: %w", closeErr)
		}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &domain.ExitError{
				Program:  c.Program,
				ExitCode: exitErr.ExitCode(),
				Stderr:   summarize(stderr.String(), c.Secrets),
			}
		}
		return fmt.Errorf("failed to run %s: %w", c.Program, err)
	}

	return nil
}

func summarize(stderr string, secrets []string) string {
	s := strings.TrimSpace(stderr)
	for _, secret := range secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, "****")
		}
	}
	if len(s) > maxStderr {
		s = s[len(s)-maxStderr:]
	}
	return s
}
