package usecase

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/semmidev/argus/internal/domain"
)

// Process exit codes: the worst status across all jobs wins.
const (
	ExitOK      = 0
	ExitPartial = 1
	ExitFailed  = 2
	ExitConfig  = 3
)

// RunLogName is the machine-readable record of the last run, kept in the
// local backup directory for the report command.
const RunLogName = "last_run.json"

// ExitCode maps a result set to the process exit code.
func ExitCode(results []domain.JobResult) int {
	code := ExitOK
	for _, r := range results {
		switch r.Status {
		case domain.StatusFailed:
			return ExitFailed
		case domain.StatusPartial:
			code = ExitPartial
		}
	}
	return code
}

// Summarize renders one section per source plus aggregate counts, and
// returns the exit code for the result set.
func Summarize(results []domain.JobResult) (string, int) {
	sorted := make([]domain.JobResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SourceID < sorted[j].SourceID })

	var success, partial, failed int
	for _, r := range sorted {
		switch r.Status {
		case domain.StatusSuccess:
			success++
		case domain.StatusPartial:
			partial++
		case domain.StatusFailed:
			failed++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Backup run: %d source(s), %d success, %d partial, %d failed\n",
		len(sorted), success, partial, failed)

	for _, r := range sorted {
		fmt.Fprintf(&b, "\n%s: %s (%s)\n", r.SourceID, r.Status, r.Duration().Round(time.Second))

		if r.Artifact != nil {
			fmt.Fprintf(&b, "  artifact: %s (%.2f MB)\n", r.Artifact.Name, float64(r.Artifact.Size)/(1024*1024))
		}

		for _, stage := range r.Stages {
			if stage.Err != "" {
				fmt.Fprintf(&b, "  %s: failed (%s) - %s\n", stage.Stage, stage.Duration.Round(time.Millisecond), stage.Err)
			} else {
				fmt.Fprintf(&b, "  %s: ok (%s)\n", stage.Stage, stage.Duration.Round(time.Millisecond))
			}
		}

		for _, d := range r.Deliveries {
			if d.Err != "" {
				fmt.Fprintf(&b, "  -> %s: %s (%s)\n", d.TargetID, d.State, d.Err)
			} else {
				fmt.Fprintf(&b, "  -> %s: %s\n", d.TargetID, d.State)
			}
		}
	}

	return b.String(), ExitCode(results)
}

type runLog struct {
	RanAt   time.Time          `json:"ran_at"`
	Results []domain.JobResult `json:"results"`
}

// WriteRunLog persists a result set as JSON so reports can be produced
// after the process exits.
func WriteRunLog(path string, results []domain.JobResult) error {
	data, err := json.MarshalIndent(runLog{RanAt: time.Now().UTC(), Results: results}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}
	return nil
}

// ReadRunLog loads the result set saved by the previous run.
func ReadRunLog(path string) ([]domain.JobResult, time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read run log: %w", err)
	}

	var log runLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse run log: %w", err)
	}

	return log.Results, log.RanAt, nil
}
