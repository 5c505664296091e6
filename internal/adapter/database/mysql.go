package database

import (
	"context"
	"fmt"

	"github.com/semmidev/dbbackup/internal/config"
	"github.com/semmidev/dbbackup/internal/domain"
)

type MySQLDatabase struct {
	config config.ConnectionConfig
	runner domain.CommandRunner
}

func NewMySQL(cfg config.ConnectionConfig, runner domain.CommandRunner) *MySQLDatabase {
	return &MySQLDatabase{config: cfg, runner: runner}
}

func (m *MySQLDatabase) Dump(ctx context.Context, destinationPath string) error {
	args := append(m.connectionArgs(),
		"--single-transaction",
		"--quick",
		"--routines",
		"--triggers",
		m.config.Database,
	)

	err := m.runner.Run(ctx, domain.Command{
		Program:    "mysqldump",
		Args:       args,
		StdoutPath: destinationPath,
		Secrets:    []string{m.config.Password},
	})
	if err != nil {
		return &domain.DumpError{Database: m.config.Database, Err: err}
	}
	return nil
}

func (m *MySQLDatabase) Restore(ctx context.Context, sourcePath string) error {
	args := append(m.connectionArgs(), m.config.Database)

	err := m.runner.Run(ctx, domain.Command{
		Program:   "mysql",
		Args:      args,
		StdinPath: sourcePath,
		Secrets:   []string{m.config.Password},
	})
	if err != nil {
		return &domain.RestoreError{Database: m.config.Database, Err: err}
	}
	return nil
}

func (m *MySQLDatabase) FileExtension() string {
	return "sql"
}

func (m *MySQLDatabase) Kind() string {
	return "mysql"
}

func (m *MySQLDatabase) connectionArgs() []string {
	args := []string{
		fmt.Sprintf("--user=%s", m.config.Username),
		fmt.Sprintf("--password=%s", m.config.Password),
		fmt.Sprintf("--host=%s", m.config.Host),
	}
	if m.config.Port != 0 {
		args = append(args, fmt.Sprintf("--port=%d", m.config.Port))
	}
	return args
}
