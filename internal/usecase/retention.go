package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/semmidev/argus/internal/domain"
)

// RetentionDecision splits a target's listing into names to delete and
// names to keep. It is computed and applied, never persisted.
type RetentionDecision struct {
	TargetID string
	Delete   []string
	Keep     []string
}

// PlanRetention selects artifacts whose age strictly exceeds maxAgeDays.
// An artifact exactly maxAgeDays old is retained. The timestamp embedded in
// the artifact name is authoritative; names that do not parse fall back to
// the target-reported modification time. Re-planning an already pruned
// listing yields an empty decision.
func PlanRetention(targetID string, listing []domain.RemoteFile, now time.Time, maxAgeDays int) RetentionDecision {
	decision := RetentionDecision{TargetID: targetID}
	cutoff := now.UTC().AddDate(0, 0, -maxAgeDays)

	for _, file := range listing {
		// Only backup artifacts are subject to retention; anything else
		// in the directory is left alone.
		if !strings.HasSuffix(file.Name, domain.ArtifactExt) {
			continue
		}
		created, err := domain.ParseArtifactTime(file.Name)
		if err != nil {
			created = file.ModTime.UTC()
		}

		if created.Before(cutoff) {
			decision.Delete = append(decision.Delete, file.Name)
		} else {
			decision.Keep = append(decision.Keep, file.Name)
		}
	}

	return decision
}

// ApplyRetention deletes the selected artifacts best-effort: one failed
// deletion is logged and the rest are still attempted. Returns the number
// of deleted and failed files.
func ApplyRetention(ctx context.Context, target domain.Target, decision RetentionDecision, logger Logger) (int, int) {
	deleted, failed := 0, 0

	for _, name := range decision.Delete {
		logger.Infof("Deleting expired backup from %s: %s", decision.TargetID, name)

		if err := target.Delete(ctx, name); err != nil {
			failed++
			logger.Errorf("Failed to delete %s from %s: %v", name, decision.TargetID, err)
		} else {
			deleted++
		}
	}

	return deleted, failed
}
