package database

import (
	"context"
	"fmt"

	"github.com/semmidev/dbbackup/internal/config"
	"github.com/semmidev/dbbackup/internal/domain"
)

type PostgreSQLDatabase struct {
	config config.ConnectionConfig
	runner domain.CommandRunner
}

func NewPostgreSQL(cfg config.ConnectionConfig, runner domain.CommandRunner) *PostgreSQLDatabase {
	return &PostgreSQLDatabase{config: cfg, runner: runner}
}

func (p *PostgreSQLDatabase) Dump(ctx context.Context, destinationPath string) error {
	args := append(p.connectionArgs(),
		"--format=plain",
		"--no-owner",
		fmt.Sprintf("--dbname=%s", p.config.Database),
	)

	err := p.runner.Run(ctx, domain.Command{
		Program:    "pg_dump",
		Args:       args,
		Env:        p.env(),
		StdoutPath: destinationPath,
		Secrets:    []string{p.config.Password},
	})
	if err != nil {
		return &domain.DumpError{Database: p.config.Database, Err: err}
	}
	return nil
}

func (p *PostgreSQLDatabase) Restore(ctx context.Context, sourcePath string) error {
	args := append(p.connectionArgs(),
		"--set=ON_ERROR_STOP=1",
		"--single-transaction",
		fmt.Sprintf("--dbname=%s", p.config.Database),
	)

	err := p.runner.Run(ctx, domain.Command{
		Program:   "psql",
		Args:      args,
		Env:       p.env(),
		StdinPath: sourcePath,
		Secrets:   []string{p.config.Password},
	})
	if err != nil {
		return &domain.RestoreError{Database: p.config.Database, Err: err}
	}
	return nil
}

func (p *PostgreSQLDatabase) FileExtension() string {
	return "sql"
}

func (p *PostgreSQLDatabase) Kind() string {
	return "postgresql"
}

func (p *PostgreSQLDatabase) connectionArgs() []string {
	args := []string{
		fmt.Sprintf("--host=%s", p.config.Host),
		fmt.Sprintf("--username=%s", p.config.Username),
		"--no-password",
	}
	if p.config.Port != 0 {
		args = append(args, fmt.Sprintf("--port=%d", p.config.Port))
	}
	return args
}

// env passes the password out of band so it never appears in argv.
func (p *PostgreSQLDatabase) env() []string {
	if p.config.Password == "" {
		return nil
	}
	return []string{fmt.Sprintf("PGPASSWORD=%s", p.config.Password)}
}
