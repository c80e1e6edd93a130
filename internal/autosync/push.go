package autosync

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/erpsync/internal/logging"
	"github.com/dmitrijs2005/erpsync/internal/mapper"
	"github.com/dmitrijs2005/erpsync/internal/models"
)

func (s *Syncer) push(ctx context.Context, log logging.Logger, rep *Report) error {
	var errs []error
	for _, schema := range s.schemas {
		elog := log.With("entity", schema.Entity, "phase", PhasePush)
		out, err := s.pushEntity(ctx, elog, schema)
		if err != nil {
			out.Err = &PhaseFatalError{Phase: PhasePush, Entity: schema.Entity, Err: err}
			errs = append(errs, out.Err)
			elog.Error(ctx, "entity push failed", "error", err)
		}
		rep.Outcomes = append(rep.Outcomes, out)
		rep.Pushed += out.Succeeded
	}
	return errors.Join(errs...)
}

func (s *Syncer) pushEntity(ctx context.Context, log logging.Logger, schema *models.Schema) (PhaseOutcome, error) {
	out := PhaseOutcome{Phase: PhasePush, Entity: schema.Entity}

	if err := s.reserveIDs(ctx, log, schema); err != nil {
		return out, fmt.Errorf("reserve ids: %w", err)
	}

	b, err := s.local.Begin(ctx)
	if err != nil {
		return out, err
	}
	defer b.Rollback()

	dirty, err := b.SelectDirty(ctx, schema)
	if err != nil {
		return out, err
	}
	if len(dirty) == 0 {
		return out, b.Commit()
	}

	m := mapper.New(schema)
	for _, rec := range dirty {
		res := s.pushRecord(ctx, b, m, rec)
		out.add(res)

		if !res.OK() {
			log.Warn(ctx, "record skipped", "local_id", res.LocalID, "remote_id", res.RemoteID, "error", res.Err)
			continue
		}
		log.Debug(ctx, "record pushed", "local_id", res.LocalID, "remote_id", res.RemoteID)
	}

	if err := b.Commit(); err != nil {
		// Remote writes already happened; the records stay dirty locally and
		// keep their reserved ids, so the next pull adopts those documents.
		out.Succeeded = 0
		return out, err
	}

	log.Info(ctx, "entity pushed", "attempted", out.Attempted, "succeeded", out.Succeeded)
	return out, nil
}

// reserveIDs gives every dirty record without a remote id a fresh one and
// commits them before anything is written remotely.
func (s *Syncer) reserveIDs(ctx context.Context, log logging.Logger, schema *models.Schema) error {
	b, err := s.local.Begin(ctx)
	if err != nil {
		return err
	}
	defer b.Rollback()

	dirty, err := b.SelectDirty(ctx, schema)
	if err != nil {
		return err
	}

	reserved := 0
	for _, rec := range dirty {
		if rec.HasRemoteID() {
			continue
		}
		if err := b.UpdateRemoteID(ctx, schema, rec.LocalID, s.remote.NewID()); err != nil {
			return err
		}
		reserved++
	}
	if reserved == 0 {
		return nil
	}
	if err := b.Commit(); err != nil {
		return err
	}
	log.Debug(ctx, "remote ids reserved", "count", reserved)
	return nil
}

// pushRecord writes rec remotely, then records the outcome in b. Records
// never pushed are inserted under their reserved id; the others are updated.
// The record is marked synced only after the remote write is confirmed.
func (s *Syncer) pushRecord(ctx context.Context, b Batch, m *mapper.Mapper, rec models.Record) RecordResult {
	schema := m.Schema()
	res := RecordResult{Phase: PhasePush, Entity: schema.Entity, LocalID: rec.LocalID, RemoteID: rec.RemoteID}

	doc, err := m.ToRemote(rec)
	if err != nil {
		res.Err = err
		return res
	}

	rctx, cancel := s.remoteContext(ctx)
	defer cancel()

	if rec.Status == models.StatusNewOffline || !rec.HasRemoteID() {
		id, err := s.remote.Insert(rctx, schema.Collection, rec.RemoteID, doc)
		if err != nil {
			res.Err = fmt.Errorf("remote insert: %w", err)
			return res
		}
		if id != rec.RemoteID {
			res.RemoteID = id
			if err := b.UpdateRemoteID(ctx, schema, rec.LocalID, id); err != nil {
				res.Err = err
				return res
			}
		}
	} else if err := s.remote.UpdateByID(rctx, schema.Collection, rec.RemoteID, doc); err != nil {
		res.Err = fmt.Errorf("remote update: %w", err)
		return res
	}

	res.Err = b.MarkSynced(ctx, schema, rec.LocalID)
	return res
}
