package autosync

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/erpsync/internal/common"
	"github.com/dmitrijs2005/erpsync/internal/logging"
	"github.com/dmitrijs2005/erpsync/internal/mapper"
	"github.com/dmitrijs2005/erpsync/internal/models"
	"github.com/dmitrijs2005/erpsync/internal/remote"
	"github.com/google/uuid"
)

// Syncer owns the sync gate, the counters and the scheduled cycles.
type Syncer struct {
	local  LocalStore
	remote remote.Store
	log    logging.Logger

	schemas       []*models.Schema
	remoteTimeout time.Duration
	recorder      Recorder
	now           func() time.Time

	state atomic.Int32

	mu      sync.Mutex
	stats   Stats
	pending map[int]context.CancelFunc
	nextJob int

	wg sync.WaitGroup
}

func New(local LocalStore, rs remote.Store, log logging.Logger, opts ...Option) *Syncer {
	s := &Syncer{
		local:         local,
		remote:        rs,
		log:           log,
		schemas:       models.Schemas(),
		remoteTimeout: DefaultRemoteTimeout,
		now:           time.Now,
		pending:       make(map[int]context.CancelFunc),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Syncer) State() State {
	return State(s.state.Load())
}

func (s *Syncer) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// PerformSync runs one cycle synchronously. It never panics and never
// returns an error; the outcome is described by the Report.
func (s *Syncer) PerformSync(ctx context.Context) (rep Report) {
	if !s.state.CompareAndSwap(int32(Idle), int32(Syncing)) {
		s.log.Info(ctx, "sync already in progress, request dropped")
		return Report{Skipped: true}
	}
	defer s.state.Store(int32(Idle))

	rep.SyncID = uuid.NewString()
	log := s.log.With("sync_id", rep.SyncID)

	defer func() {
		if p := recover(); p != nil {
			log.Error(ctx, "sync cycle panicked", "panic", p, "stack", string(debug.Stack()))
			rep.Err = fmt.Errorf("%w: panic: %v", common.ErrorInternal, p)
			s.complete(ctx, log, &rep)
		}
	}()

	if err := s.ping(ctx); err != nil {
		log.Warn(ctx, "remote store unavailable, sync skipped", "error", err)
		return Report{SyncID: rep.SyncID, Offline: true}
	}

	rep.Started = s.now()
	log.Info(ctx, "sync started")

	// Push runs even when some entity types failed to pull.
	pullErr := s.pull(ctx, log, &rep)
	pushErr := s.push(ctx, log, &rep)
	rep.Err = errors.Join(pullErr, pushErr)

	s.complete(ctx, log, &rep)
	return rep
}

// complete updates the counters and persists them.
func (s *Syncer) complete(ctx context.Context, log logging.Logger, rep *Report) {
	finished := s.now()
	if rep.Started.IsZero() {
		rep.Started = finished
	}
	rep.Duration = finished.Sub(rep.Started)

	s.mu.Lock()
	s.stats.Cycles++
	s.stats.Pulled = rep.Pulled
	s.stats.Pushed = rep.Pushed
	if rep.Err != nil {
		s.stats.Failed++
	}
	s.stats.LastSync = finished
	s.stats.LastDuration = rep.Duration
	stats := s.stats
	s.mu.Unlock()

	log.Info(ctx, "sync finished",
		"pulled", rep.Pulled,
		"pushed", rep.Pushed,
		"failed", rep.Err != nil,
		"duration", rep.Duration)

	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordSync(ctx, finished, stats.Pulled, stats.Pushed, stats.Failed); err != nil {
		log.Warn(ctx, "failed to persist sync stats", "error", err)
	}
}

func (s *Syncer) ping(ctx context.Context) error {
	ctx, cancel := s.remoteContext(ctx)
	defer cancel()
	return s.remote.Ping(ctx)
}

func (s *Syncer) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.remoteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.remoteTimeout)
}

func (s *Syncer) pull(ctx context.Context, log logging.Logger, rep *Report) error {
	var errs []error
	for _, schema := range s.schemas {
		elog := log.With("entity", schema.Entity, "phase", PhasePull)
		out, err := s.pullEntity(ctx, elog, schema)
		if err != nil {
			out.Err = &PhaseFatalError{Phase: PhasePull, Entity: schema.Entity, Err: err}
			errs = append(errs, out.Err)
			elog.Error(ctx, "entity pull failed", "error", err)
		}
		rep.Outcomes = append(rep.Outcomes, out)
		rep.Pulled += out.Succeeded
	}
	return errors.Join(errs...)
}

func (s *Syncer) pullEntity(ctx context.Context, log logging.Logger, schema *models.Schema) (PhaseOutcome, error) {
	out := PhaseOutcome{Phase: PhasePull, Entity: schema.Entity}

	docs, err := s.fetch(ctx, schema.Collection)
	if err != nil {
		return out, fmt.Errorf("fetch: %w", err)
	}

	b, err := s.local.Begin(ctx)
	if err != nil {
		return out, err
	}
	defer b.Rollback()

	m := mapper.New(schema)
	for _, doc := range docs {
		res := RecordResult{Phase: PhasePull, Entity: schema.Entity, RemoteID: doc.ID()}

		remoteID, fields, err := m.ToLocal(doc)
		if err == nil {
			err = b.UpsertByRemoteID(ctx, schema, remoteID, fields)
		}
		res.Err = err
		out.add(res)

		if err != nil {
			log.Warn(ctx, "record skipped", "remote_id", res.RemoteID, "error", err)
			continue
		}
		log.Debug(ctx, "record pulled", "remote_id", remoteID)
	}

	if err := b.Commit(); err != nil {
		// Nothing of this entity reached the disk.
		out.Succeeded = 0
		return out, err
	}

	log.Info(ctx, "entity pulled", "attempted", out.Attempted, "succeeded", out.Succeeded)
	return out, nil
}

func (s *Syncer) fetch(ctx context.Context, collection string) ([]remote.Document, error) {
	ctx, cancel := s.remoteContext(ctx)
	defer cancel()
	return s.remote.FetchAll(ctx, collection)
}
