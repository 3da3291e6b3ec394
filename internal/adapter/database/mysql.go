package database

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/semmidev/argus/internal/config"
)

type MySQL struct {
	spec *config.SourceSpec
}

func NewMySQL(spec *config.SourceSpec) *MySQL {
	return &MySQL{spec: spec}
}

func (m *MySQL) ID() string {
	return m.spec.ID
}

func (m *MySQL) Kind() string {
	return "mysql"
}

func (m *MySQL) Dump(ctx context.Context, dir string) (string, error) {
	outputPath := filepath.Join(dir, m.spec.Database+".sql")

	args := append(m.connArgs(),
		"--single-transaction",
		"--quick",
		"--lock-tables=false",
		"--routines",
		"--triggers",
		"--events",
		fmt.Sprintf("--result-file=%s", outputPath),
		m.spec.Database,
	)

	cmd := exec.CommandContext(ctx, "mysqldump", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("mysqldump failed: %w, output: %s", err, string(output))
	}

	return outputPath, nil
}

func (m *MySQL) Restore(ctx context.Context, dumpPath string) error {
	dump, err := os.Open(dumpPath)
	if err != nil {
		return fmt.Errorf("failed to open dump file: %w", err)
	}
	defer dump.Close()

	args := append(m.connArgs(), m.spec.Database)

	cmd := exec.CommandContext(ctx, "mysql", args...)
	cmd.Stdin = dump

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mysql restore failed: %w, output: %s", err, string(output))
	}

	return nil
}

func (m *MySQL) Ping(ctx context.Context) error {
	args := append(m.connArgs(), "-e", "SELECT 1")

	cmd := exec.CommandContext(ctx, "mysql", args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}

	return nil
}

func (m *MySQL) connArgs() []string {
	return []string{
		fmt.Sprintf("--host=%s", m.spec.Host),
		fmt.Sprintf("--port=%d", m.spec.Port),
		fmt.Sprintf("--user=%s", m.spec.Username),
		fmt.Sprintf("--password=%s", m.spec.Password),
	}
}
