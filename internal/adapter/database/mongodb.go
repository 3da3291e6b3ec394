package database

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/semmidev/argus/internal/config"
)

type MongoDB struct {
	spec *config.SourceSpec
}

func NewMongoDB(spec *config.SourceSpec) *MongoDB {
	return &MongoDB{spec: spec}
}

func (m *MongoDB) ID() string {
	return m.spec.ID
}

func (m *MongoDB) Kind() string {
	return "mongodb"
}

func (m *MongoDB) Dump(ctx context.Context, dir string) (string, error) {
	outputPath := filepath.Join(dir, m.spec.Database+".archive")

	args := []string{
		fmt.Sprintf("--uri=%s", m.uri()),
		fmt.Sprintf("--archive=%s", outputPath),
		"--gzip",
	}

	cmd := exec.CommandContext(ctx, "mongodump", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("mongodump failed: %w, output: %s", err, string(output))
	}

	return outputPath, nil
}

func (m *MongoDB) Restore(ctx context.Context, dumpPath string) error {
	args := []string{
		fmt.Sprintf("--uri=%s", m.uri()),
		fmt.Sprintf("--archive=%s", dumpPath),
		"--gzip",
		"--drop",
	}

	cmd := exec.CommandContext(ctx, "mongorestore", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mongorestore failed: %w, output: %s", err, string(output))
	}

	return nil
}

func (m *MongoDB) Ping(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "mongosh", m.uri(), "--eval", "db.runCommand({ ping: 1 })")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mongodb ping failed: %w", err)
	}

	return nil
}

func (m *MongoDB) uri() string {
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d/%s",
		m.spec.Username,
		m.spec.Password,
		m.spec.Host,
		m.spec.Port,
		m.spec.Database,
	)

	if m.spec.AuthDatabase != "" {
		uri += fmt.Sprintf("?authSource=%s", m.spec.AuthDatabase)
	}

	return uri
}
