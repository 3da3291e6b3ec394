package database

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/semmidev/argus/internal/config"
)

type PostgreSQL struct {
	spec *config.SourceSpec
}

func NewPostgreSQL(spec *config.SourceSpec) *PostgreSQL {
	return &PostgreSQL{spec: spec}
}

func (p *PostgreSQL) ID() string {
	return p.spec.ID
}

func (p *PostgreSQL) Kind() string {
	return "postgresql"
}

func (p *PostgreSQL) Dump(ctx context.Context, dir string) (string, error) {
	outputPath := filepath.Join(dir, p.spec.Database+".dump")

	cmd := exec.CommandContext(ctx, "pg_dump",
		fmt.Sprintf("--host=%s", p.spec.Host),
		fmt.Sprintf("--port=%d", p.spec.Port),
		fmt.Sprintf("--username=%s", p.spec.Username),
		"--format=custom",
		"--compress=9",
		"--no-password",
		fmt.Sprintf("--file=%s", outputPath),
		p.spec.Database,
	)
	cmd.Env = p.env()

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("pg_dump failed: %w, output: %s", err, string(output))
	}

	return outputPath, nil
}

func (p *PostgreSQL) Restore(ctx context.Context, dumpPath string) error {
	cmd := exec.CommandContext(ctx, "pg_restore",
		fmt.Sprintf("--host=%s", p.spec.Host),
		fmt.Sprintf("--port=%d", p.spec.Port),
		fmt.Sprintf("--username=%s", p.spec.Username),
		fmt.Sprintf("--dbname=%s", p.spec.Database),
		"--clean",
		"--if-exists",
		"--no-owner",
		"--no-password",
		dumpPath,
	)
	cmd.Env = p.env()

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pg_restore failed: %w, output: %s", err, string(output))
	}

	return nil
}

func (p *PostgreSQL) Ping(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "psql",
		fmt.Sprintf("--host=%s", p.spec.Host),
		fmt.Sprintf("--port=%d", p.spec.Port),
		fmt.Sprintf("--username=%s", p.spec.Username),
		"--dbname=postgres",
		"-c", "SELECT 1",
	)
	cmd.Env = p.env()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("postgresql ping failed: %w", err)
	}

	return nil
}

func (p *PostgreSQL) env() []string {
	env := append(os.Environ(), fmt.Sprintf("PGPASSWORD=%s", p.spec.Password))
	if p.spec.SSLMode != "" {
		env = append(env, fmt.Sprintf("PGSSLMODE=%s", p.spec.SSLMode))
	}
	return env
}
