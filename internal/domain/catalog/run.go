package catalog

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the terminal state of one sync run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunSummary is the per-run accounting the orchestrator hands to the
// history store after the per-record loop finishes.
type RunSummary struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Status     RunStatus
	Total      int
	Created    int
	Updated    int
	Conflicts  int
	Failed     int
	Skipped    int
}
