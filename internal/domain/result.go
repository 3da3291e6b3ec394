package domain

import "time"

type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

type DeliveryState string

const (
	DeliveryDelivered DeliveryState = "delivered"
	DeliveryFailed    DeliveryState = "failed"
	DeliverySkipped   DeliveryState = "skipped"
)

// Delivery records the outcome of one target for one job.
type Delivery struct {
	TargetID string        `json:"target_id"`
	State    DeliveryState `json:"state"`
	Err      string        `json:"error,omitempty"`
}

// StageTiming records how long one pipeline stage ran and whether it failed.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
	Err      string        `json:"error,omitempty"`
}

// JobResult is the immutable outcome of driving one source through
// dump, archive and delivery. Status is success only when every enabled
// delivery succeeded; partial when the artifact exists but at least one
// delivery failed; failed when no artifact was produced.
type JobResult struct {
	SourceID   string        `json:"source_id"`
	Status     Status        `json:"status"`
	Artifact   *Artifact     `json:"artifact,omitempty"`
	Stages     []StageTiming `json:"stages"`
	Deliveries []Delivery    `json:"deliveries"`
	Errors     []string      `json:"errors,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

func (r JobResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Delivery looks up the recorded outcome for a target id.
func (r JobResult) Delivery(targetID string) (Delivery, bool) {
	for _, d := range r.Deliveries {
		if d.TargetID == targetID {
			return d, true
		}
	}
	return Delivery{}, false
}
