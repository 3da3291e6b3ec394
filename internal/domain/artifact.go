package domain

import (
	"fmt"
	"strings"
	"time"
)

// Artifact names embed a UTC timestamp with one-second granularity,
// e.g. pgsql-dev_20240101120000.tar.gz.
const (
	ArtifactTimeLayout = "20060102150405"
	ArtifactExt        = ".tar.gz"
)

// Artifact is the single compressed file representing one point-in-time
// backup of one source.
type Artifact struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	SourceID  string    `json:"source_id"`
	CreatedAt time.Time `json:"created_at"`
}

func ArtifactName(sourceID string, ts time.Time) string {
	return sourceID + "_" + ts.UTC().Format(ArtifactTimeLayout) + ArtifactExt
}

// ParseArtifactTime extracts the creation timestamp embedded in an artifact
// name. It fails on names that do not follow the naming scheme.
func ParseArtifactTime(name string) (time.Time, error) {
	base := strings.TrimSuffix(name, ArtifactExt)
	idx := strings.LastIndex(base, "_")
	if idx < 0 {
		return time.Time{}, fmt.Errorf("no timestamp in filename: %s", name)
	}
	ts, err := time.Parse(ArtifactTimeLayout, base[idx+1:])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp in filename %s: %w", name, err)
	}
	return ts, nil
}
