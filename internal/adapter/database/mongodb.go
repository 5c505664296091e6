package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/semmidev/dbbackup/internal/config"
	"github.com/semmidev/dbbackup/internal/domain"
)

type MongoDBDatabase struct {
	config config.ConnectionConfig
	runner domain.CommandRunner
}

func NewMongoDB(cfg config.ConnectionConfig, runner domain.CommandRunner) *MongoDBDatabase {
	return &MongoDBDatabase{config: cfg, runner: runner}
}

func (m *MongoDBDatabase) Dump(ctx context.Context, destinationPath string) error {
	err := m.runner.Run(ctx, domain.Command{
		Program:    "mongodump",
		Args:       []string{fmt.Sprintf("--uri=%s", m.uri()), "--archive"},
		StdoutPath: destinationPath,
		Secrets:    m.secrets(),
	})
	if err != nil {
		return &domain.DumpError{Database: m.config.Database, Err: err}
	}
	return nil
}

func (m *MongoDBDatabase) Restore(ctx context.Context, sourcePath string) error {
	err := m.runner.Run(ctx, domain.Command{
		Program:   "mongorestore",
		Args:      []string{fmt.Sprintf("--uri=%s", m.uri()), "--archive", "--drop"},
		StdinPath: sourcePath,
		Secrets:   m.secrets(),
	})
	if err != nil {
		return &domain.RestoreError{Database: m.config.Database, Err: err}
	}
	return nil
}

func (m *MongoDBDatabase) FileExtension() string {
	return "archive"
}

func (m *MongoDBDatabase) Kind() string {
	return "mongodb"
}

func (m *MongoDBDatabase) uri() string {
	host := m.config.Host
	if host == "" {
		host = "localhost"
	}
	port := m.config.Port
	if port == 0 {
		port = 27017
	}

	u := url.URL{
		Scheme: "mongodb",
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   "/" + strings.TrimSpace(m.config.Database),
	}
	if m.config.Username != "" {
		if m.config.Password != "" {
			u.User = url.UserPassword(m.config.Username, m.config.Password)
		} else {
			u.User = url.User(m.config.Username)
		}
	}
	if m.config.AuthDatabase != "" {
		u.RawQuery = url.Values{"authSource": {m.config.AuthDatabase}}.Encode()
	}
	return u.String()
}

// secrets covers the raw password and its percent-encoded form inside the URI.
func (m *MongoDBDatabase) secrets() []string {
	if m.config.Password == "" {
		return nil
	}
	return []string{m.config.Password, url.UserPassword("", m.config.Password).String()[1:]}
}
