package autosync

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/erpsync/internal/models"
)

// State of the sync gate.
type State int32

const (
	Idle State = iota
	Syncing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Syncing:
		return "syncing"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Stats are the observable counters. Pulled and Pushed describe the last
// completed cycle; Failed counts failed cycles since the Syncer was created.
type Stats struct {
	Pulled       int
	Pushed       int
	Failed       int
	Cycles       int
	LastSync     time.Time
	LastDuration time.Duration
}

// Phase names a half of the cycle.
type Phase string

const (
	PhasePull Phase = "pull"
	PhasePush Phase = "push"
)

// RecordResult is the outcome of syncing one record.
type RecordResult struct {
	Phase    Phase
	Entity   models.EntityType
	LocalID  int64
	RemoteID string
	Err      error
}

func (r RecordResult) OK() bool {
	return r.Err == nil
}

// PhaseOutcome summarises one entity type within one phase.
type PhaseOutcome struct {
	Phase     Phase
	Entity    models.EntityType
	Attempted int
	Succeeded int
	// Failures holds the records that were skipped.
	Failures []RecordResult
	// Err is set when the entity type as a whole failed (fetch, select or
	// commit). Nothing of that entity was written locally.
	Err error
}

func (o *PhaseOutcome) add(r RecordResult) {
	o.Attempted++
	if r.OK() {
		o.Succeeded++
		return
	}
	o.Failures = append(o.Failures, r)
}

// PhaseFatalError aborts the batch of one entity type in one phase. The
// phase goes on with the next entity type and the cycle counts as failed.
type PhaseFatalError struct {
	Phase  Phase
	Entity models.EntityType
	Err    error
}

func (e *PhaseFatalError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Phase, e.Entity, e.Err)
}

func (e *PhaseFatalError) Unwrap() error {
	return e.Err
}

// Report describes one PerformSync call.
type Report struct {
	SyncID string
	// Skipped is set when another cycle was already running.
	Skipped bool
	// Offline is set when the remote store was unreachable.
	Offline bool

	Pulled   int
	Pushed   int
	Outcomes []PhaseOutcome
	// Err joins the PhaseFatalErrors of the cycle, or holds the recovered
	// panic.
	Err error

	Started  time.Time
	Duration time.Duration
}

// Completed reports whether the cycle ran (fully or partially) and updated
// the stats.
func (r Report) Completed() bool {
	return !r.Skipped && !r.Offline
}

// Failed reports whether the cycle counted as a failure.
func (r Report) Failed() bool {
	return r.Err != nil
}

// Outcome returns the outcome of entity t in phase p.
func (r Report) Outcome(p Phase, t models.EntityType) (PhaseOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Phase == p && o.Entity == t {
			return o, true
		}
	}
	return PhaseOutcome{}, false
}
