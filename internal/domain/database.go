package domain

import (
	"context"
	"strings"

	"github.com/kballard/go-shellquote"
)

type Driver interface {
	Dump(ctx context.Context, destinationPath string) error
	Restore(ctx context.Context, sourcePath string) error
	FileExtension() string
	Kind() string
}

// Command is a single external program invocation. Arguments are passed to
// the program as an argv vector and never interpreted by a shell.
type Command struct {
	Program    string
	Args       []string
	Env        []string
	StdinPath  string
	StdoutPath string
	// Secrets are replaced by "****" in Redacted.
	Secrets []string
}

// String renders the command as a POSIX shell line with every word quoted.
func (c Command) String() string {
	line := shellquote.Join(append([]string{c.Program}, c.Args...)...)
	if c.StdinPath != "" {
		line += " < " + shellquote.Join(c.StdinPath)
	}
	if c.StdoutPath != "" {
		line += " > " + shellquote.Join(c.StdoutPath)
	}
	return line
}

// Redacted is String with secret values masked, safe for logs.
func (c Command) Redacted() string {
	masked := c
	masked.Args = make([]string, len(c.Args))
	for i, arg := range c.Args {
		for _, secret := range c.Secrets {
			if secret != "" {
				arg = strings.ReplaceAll(arg, secret, "****")
			}
		}
		masked.Args[i] = arg
	}
	return masked.String()
}

type CommandRunner interface {
	Run(ctx context.Context, cmd Command) error
}
