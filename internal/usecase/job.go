package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/semmidev/argus/internal/archive"
	"github.com/semmidev/argus/internal/domain"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

// LocalStore is the backup directory, the implicit always-enabled target.
type LocalStore interface {
	domain.Target
	Path(filename string) string
}

// TargetBinding pairs a configured target id with its adapter. Disabled
// targets keep a nil adapter; their deliveries are recorded as skipped.
type TargetBinding struct {
	ID      string
	Target  domain.Target
	Enabled bool
}

// Job drives one source through dump, archive, delivery and cleanup. Each
// job owns an exclusive scratch directory, so concurrent jobs never collide
// on temp files.
type Job struct {
	source         domain.Source
	local          LocalStore
	targets        []TargetBinding
	builder        *archive.Builder
	logger         Logger
	dumpTimeout    time.Duration
	deliverTimeout time.Duration
}

func NewJob(
	source domain.Source,
	local LocalStore,
	targets []TargetBinding,
	builder *archive.Builder,
	logger Logger,
	dumpTimeout, deliverTimeout time.Duration,
) *Job {
	return &Job{
		source:         source,
		local:          local,
		targets:        targets,
		builder:        builder,
		logger:         logger,
		dumpTimeout:    dumpTimeout,
		deliverTimeout: deliverTimeout,
	}
}

// Run executes the pipeline. Dump and archive failures end the job with
// status failed and no deliveries attempted; a delivery failure is recorded
// per target and downgrades the job to partial.
func (j *Job) Run(ctx context.Context) domain.JobResult {
	sourceID := j.source.ID()
	result := domain.JobResult{SourceID: sourceID, StartedAt: time.Now()}

	j.logger.Infof("[%s] Starting backup...", sourceID)

	scratch, err := os.MkdirTemp("", "argus-"+sourceID+"-")
	if err != nil {
		result.Status = domain.StatusFailed
		result.Errors = append(result.Errors, fmt.Sprintf("[%s] scratch dir: %v", sourceID, err))
		j.recordSkipped(&result, "not attempted")
		result.FinishedAt = time.Now()
		return result
	}
	defer os.RemoveAll(scratch)

	dumpPath, ok := j.dump(ctx, scratch, &result)
	if !ok {
		result.Status = domain.StatusFailed
		j.recordSkipped(&result, "dump failed")
		result.FinishedAt = time.Now()
		return result
	}

	artifact, ok := j.archive(dumpPath, scratch, &result)
	if !ok {
		result.Status = domain.StatusFailed
		j.recordSkipped(&result, "archive failed")
		result.FinishedAt = time.Now()
		return result
	}
	result.Artifact = artifact

	failed := j.deliver(ctx, artifact, &result)
	if failed > 0 {
		result.Status = domain.StatusPartial
	} else {
		result.Status = domain.StatusSuccess
	}
	result.FinishedAt = time.Now()

	j.logger.Infof("[%s] Backup finished in %s: %s (%s)",
		sourceID, result.Duration().Round(time.Second), artifact.Name, result.Status)

	return result
}

func (j *Job) dump(ctx context.Context, scratch string, result *domain.JobResult) (string, bool) {
	sourceID := j.source.ID()
	start := time.Now()

	dumpDir := filepath.Join(scratch, "dump")
	if err := os.MkdirAll(dumpDir, 0755); err != nil {
		result.Stages = append(result.Stages, domain.StageTiming{
			Stage: "dump", Duration: time.Since(start), Err: err.Error(),
		})
		result.Errors = append(result.Errors, fmt.Sprintf("[%s] dump: %v", sourceID, err))
		return "", false
	}

	dctx := ctx
	if j.dumpTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, j.dumpTimeout)
		defer cancel()
	}

	path, err := j.source.Dump(dctx, dumpDir)
	stage := domain.StageTiming{Stage: "dump", Duration: time.Since(start)}
	if err != nil {
		stage.Err = err.Error()
		result.Errors = append(result.Errors, fmt.Sprintf("[%s] dump: %v", sourceID, err))
		j.logger.Errorf("[%s] Dump failed: %v", sourceID, err)
	}
	result.Stages = append(result.Stages, stage)

	return path, err == nil
}

func (j *Job) archive(dumpPath, scratch string, result *domain.JobResult) (*domain.Artifact, bool) {
	sourceID := j.source.ID()
	start := time.Now()

	artifact, err := j.builder.Build(dumpPath, scratch, sourceID, time.Now())
	stage := domain.StageTiming{Stage: "archive", Duration: time.Since(start)}
	if err != nil {
		stage.Err = err.Error()
		result.Errors = append(result.Errors, fmt.Sprintf("[%s] archive: %v", sourceID, err))
		j.logger.Errorf("[%s] Archive failed: %v", sourceID, err)
	}
	result.Stages = append(result.Stages, stage)

	return artifact, err == nil
}

// deliver attempts every target independently; one target's failure never
// aborts the others. The local copy is taken first so the artifact survives
// scratch cleanup. Returns the number of failed deliveries.
func (j *Job) deliver(ctx context.Context, artifact *domain.Artifact, result *domain.JobResult) int {
	sourceID := j.source.ID()
	start := time.Now()
	failed := 0

	scratchPath := artifact.Path

	if err := j.store(ctx, j.local, scratchPath, artifact.Name); err != nil {
		failed++
		result.Deliveries = append(result.Deliveries, domain.Delivery{
			TargetID: j.local.ID(), State: domain.DeliveryFailed, Err: err.Error(),
		})
		result.Errors = append(result.Errors, fmt.Sprintf("[%s] deliver local: %v", sourceID, err))
		j.logger.Errorf("[%s] Failed to store local copy: %v", sourceID, err)
	} else {
		result.Deliveries = append(result.Deliveries, domain.Delivery{
			TargetID: j.local.ID(), State: domain.DeliveryDelivered,
		})
		artifact.Path = j.local.Path(artifact.Name)
	}

	for _, binding := range j.targets {
		if !binding.Enabled {
			result.Deliveries = append(result.Deliveries, domain.Delivery{
				TargetID: binding.ID, State: domain.DeliverySkipped, Err: "disabled",
			})
			continue
		}

		if err := j.store(ctx, binding.Target, scratchPath, artifact.Name); err != nil {
			failed++
			result.Deliveries = append(result.Deliveries, domain.Delivery{
				TargetID: binding.ID, State: domain.DeliveryFailed, Err: err.Error(),
			})
			result.Errors = append(result.Errors, fmt.Sprintf("[%s] deliver %s: %v", sourceID, binding.ID, err))
			j.logger.Errorf("[%s] Failed to deliver to %s: %v", sourceID, binding.ID, err)
		} else {
			result.Deliveries = append(result.Deliveries, domain.Delivery{
				TargetID: binding.ID, State: domain.DeliveryDelivered,
			})
			j.logger.Infof("[%s] Delivered to %s", sourceID, binding.ID)
		}
	}

	stage := domain.StageTiming{Stage: "deliver", Duration: time.Since(start)}
	if failed > 0 {
		stage.Err = fmt.Sprintf("%d delivery failure(s)", failed)
	}
	result.Stages = append(result.Stages, stage)

	return failed
}

func (j *Job) store(ctx context.Context, target domain.Target, localPath, name string) error {
	sctx := ctx
	if j.deliverTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, j.deliverTimeout)
		defer cancel()
	}
	return target.Store(sctx, localPath, name)
}

func (j *Job) recordSkipped(result *domain.JobResult, reason string) {
	result.Deliveries = append(result.Deliveries, domain.Delivery{
		TargetID: j.local.ID(), State: domain.DeliverySkipped, Err: reason,
	})
	for _, binding := range j.targets {
		err := reason
		if !binding.Enabled {
			err = "disabled"
		}
		result.Deliveries = append(result.Deliveries, domain.Delivery{
			TargetID: binding.ID, State: domain.DeliverySkipped, Err: err,
		})
	}
}
