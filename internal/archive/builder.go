package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/semmidev/argus/internal/domain"
)

// Builder turns a dump (file or directory) into one named artifact and back.
// Compression strategies are tried in order; a later strategy only runs when
// the previous one failed, and the error of an exhausted chain carries every
// cause.
type Builder struct {
	strategies []Strategy
}

func NewBuilder(strategies ...Strategy) *Builder {
	if len(strategies) == 0 {
		strategies = []Strategy{NewTarGzip(), NewTarCommand()}
	}
	return &Builder{strategies: strategies}
}

// Build compresses sourcePath into destDir under the deterministic artifact
// name for sourceID at ts.
func (b *Builder) Build(sourcePath, destDir, sourceID string, ts time.Time) (*domain.Artifact, error) {
	name := domain.ArtifactName(sourceID, ts)
	destPath := filepath.Join(destDir, name)

	var causes []string
	for _, s := range b.strategies {
		if err := s.Compress(sourcePath, destPath); err != nil {
			causes = append(causes, fmt.Sprintf("%s: %v", s.Name(), err))
			os.Remove(destPath)
			continue
		}

		info, err := os.Stat(destPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat artifact: %w", err)
		}

		return &domain.Artifact{
			Name:      name,
			Path:      destPath,
			Size:      info.Size(),
			SourceID:  sourceID,
			CreatedAt: ts.UTC(),
		}, nil
	}

	return nil, fmt.Errorf("all compression strategies failed: %s", strings.Join(causes, "; "))
}

// Extract unpacks an artifact into destDir, reversing Build.
func (b *Builder) Extract(archivePath, destDir string) error {
	var causes []string
	for _, s := range b.strategies {
		if err := s.Extract(archivePath, destDir); err != nil {
			causes = append(causes, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		return nil
	}
	return fmt.Errorf("all extraction strategies failed: %s", strings.Join(causes, "; "))
}
