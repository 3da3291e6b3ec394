package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/semmidev/argus/internal/archive"
	"github.com/semmidev/argus/internal/config"
	"github.com/semmidev/argus/internal/domain"
)

// Overridable in tests to pin the retention clock.
var timeNow = time.Now

// Manager turns the configured sources and targets into independent jobs,
// runs them with bounded parallelism, and triggers retention and
// notification once every job has reached a terminal state.
type Manager struct {
	sources  []domain.Source
	local    LocalStore
	targets  []TargetBinding
	builder  *archive.Builder
	notifier domain.Notifier
	logger   Logger
	backup   config.BackupConfig
	localRet int
}

func NewManager(
	sources []domain.Source,
	local LocalStore,
	targets []TargetBinding,
	builder *archive.Builder,
	notifier domain.Notifier,
	logger Logger,
	backup config.BackupConfig,
	localRetentionDays int,
) *Manager {
	return &Manager{
		sources:  sources,
		local:    local,
		targets:  targets,
		builder:  builder,
		notifier: notifier,
		logger:   logger,
		backup:   backup,
		localRet: localRetentionDays,
	}
}

// RunAll backs up every configured source.
func (m *Manager) RunAll(ctx context.Context) []domain.JobResult {
	results, _ := m.Run(ctx)
	return results
}

// Run backs up the named sources, or all of them when ids is empty. An
// unknown id is a configuration error and aborts before any job starts.
// Individual job failures never abort the remaining sources.
func (m *Manager) Run(ctx context.Context, ids ...string) ([]domain.JobResult, error) {
	sources, err := m.selectSources(ids)
	if err != nil {
		return nil, err
	}

	results := m.runJobs(ctx, sources)

	// Retention and the summary run strictly after every job is terminal,
	// so artifacts of in-flight jobs are never visible to prune.
	m.PruneAll(ctx)

	if err := WriteRunLog(m.local.Path(RunLogName), results); err != nil {
		m.logger.Warnf("Could not persist run log: %v", err)
	}

	m.notifySummary(ctx, results)

	return results, nil
}

func (m *Manager) selectSources(ids []string) ([]domain.Source, error) {
	if len(ids) == 0 {
		return m.sources, nil
	}

	byID := make(map[string]domain.Source, len(m.sources))
	for _, s := range m.sources {
		byID[s.ID()] = s
	}

	var selected []domain.Source
	for _, id := range ids {
		src, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown source: %s", id)
		}
		selected = append(selected, src)
	}
	return selected, nil
}

func (m *Manager) runJobs(ctx context.Context, sources []domain.Source) []domain.JobResult {
	limit := m.backup.MaxParallel
	if limit < 1 {
		limit = 1
	}

	results := make([]domain.JobResult, 0, len(sources))
	var mu sync.Mutex
	var wg sync.WaitGroup
	var alertOnce sync.Once
	sem := make(chan struct{}, limit)

	for _, src := range sources {
		wg.Add(1)
		go func(src domain.Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			job := NewJob(src, m.local, m.targets, m.builder, m.logger,
				m.backup.DumpTimeout, m.backup.DeliverTimeout)
			result := job.Run(ctx)

			if result.Status != domain.StatusSuccess && m.backup.EagerAlerts {
				alertOnce.Do(func() { m.alertFirstFailure(ctx, result) })
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(src)
	}

	wg.Wait()
	return results
}

func (m *Manager) alertFirstFailure(ctx context.Context, result domain.JobResult) {
	if m.notifier == nil {
		return
	}
	msg := fmt.Sprintf("Backup %s for source %s:\n%s",
		result.Status, result.SourceID, strings.Join(result.Errors, "\n"))
	if err := m.notifier.Notify(ctx, msg); err != nil {
		m.logger.Warnf("First-failure alert failed: %v", err)
	}
}

// RetentionReport is the applied outcome of one target's prune pass.
type RetentionReport struct {
	TargetID string
	Deleted  int
	Kept     int
	Failed   int
}

// PruneAll applies the retention policy to the local directory and every
// enabled target. Failures are logged per target and never abort the pass.
func (m *Manager) PruneAll(ctx context.Context) []RetentionReport {
	var reports []RetentionReport

	reports = append(reports, m.prune(ctx, m.local, m.localRet))

	for _, binding := range m.targets {
		if !binding.Enabled {
			continue
		}
		reports = append(reports, m.prune(ctx, binding.Target, m.backup.RetentionDays))
	}

	return reports
}

func (m *Manager) prune(ctx context.Context, target domain.Target, maxAgeDays int) RetentionReport {
	report := RetentionReport{TargetID: target.ID()}

	listing, err := target.List(ctx)
	if err != nil {
		m.logger.Errorf("Retention listing failed for %s: %v", target.ID(), err)
		report.Failed = 1
		return report
	}

	decision := PlanRetention(target.ID(), listing, timeNow(), maxAgeDays)
	report.Kept = len(decision.Keep)
	report.Deleted, report.Failed = ApplyRetention(ctx, target, decision, m.logger)

	if report.Deleted > 0 {
		m.logger.Infof("Deleted %d expired backup(s) from %s", report.Deleted, target.ID())
	}
	return report
}

func (m *Manager) notifySummary(ctx context.Context, results []domain.JobResult) {
	if m.notifier == nil {
		return
	}

	// One message per run, never one per job.
	text, _ := Summarize(results)
	if err := m.notifier.Notify(ctx, text); err != nil {
		m.logger.Warnf("Summary notification failed: %v", err)
	}
}

// Restore extracts an artifact into a scratch directory and hands the dump
// to the source's restore capability.
func (m *Manager) Restore(ctx context.Context, src domain.Source, artifactPath string) error {
	if _, err := os.Stat(artifactPath); err != nil {
		return fmt.Errorf("artifact not found: %w", err)
	}

	scratch, err := os.MkdirTemp("", "argus-restore-")
	if err != nil {
		return fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	if err := m.builder.Extract(artifactPath, scratch); err != nil {
		return fmt.Errorf("failed to extract artifact: %w", err)
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		return fmt.Errorf("failed to read extracted archive: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("archive is empty: %s", artifactPath)
	}

	rctx := ctx
	if m.backup.DumpTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, m.backup.DumpTimeout)
		defer cancel()
	}

	m.logger.Infof("[%s] Restoring from %s", src.ID(), artifactPath)
	return src.Restore(rctx, filepath.Join(scratch, entries[0].Name()))
}

// ListArtifacts enumerates the local backup directory, optionally filtered
// to one source, newest first.
func (m *Manager) ListArtifacts(ctx context.Context, sourceID string) ([]domain.RemoteFile, error) {
	listing, err := m.local.List(ctx)
	if err != nil {
		return nil, err
	}

	var files []domain.RemoteFile
	for _, f := range listing {
		if !strings.HasSuffix(f.Name, domain.ArtifactExt) {
			continue
		}
		if sourceID != "" && !strings.HasPrefix(f.Name, sourceID+"_") {
			continue
		}
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name > files[j].Name })
	return files, nil
}

// ConnectivityCheck is one probe outcome for the test command.
type ConnectivityCheck struct {
	Name string
	Kind string
	Err  error
}

// CheckConnections pings every source and lists every enabled target.
func (m *Manager) CheckConnections(ctx context.Context) []ConnectivityCheck {
	var checks []ConnectivityCheck

	for _, src := range m.sources {
		checks = append(checks, ConnectivityCheck{
			Name: src.ID(), Kind: src.Kind(), Err: src.Ping(ctx),
		})
	}

	_, err := m.local.List(ctx)
	checks = append(checks, ConnectivityCheck{Name: m.local.ID(), Kind: m.local.Kind(), Err: err})

	for _, binding := range m.targets {
		if !binding.Enabled {
			continue
		}
		_, err := binding.Target.List(ctx)
		checks = append(checks, ConnectivityCheck{
			Name: binding.ID, Kind: binding.Target.Kind(), Err: err,
		})
	}

	return checks
}
