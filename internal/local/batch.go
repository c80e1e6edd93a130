package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/erpsync/internal/models"
)

// Batch groups the writes of one entity type in one sync phase into a single
// transaction. A failing statement only undoes itself, so callers may skip a
// failed record and keep going.
type Batch struct {
	tx   *sql.Tx
	done bool
}

// UpsertByRemoteID inserts a pulled record or fully overwrites the record
// already holding remoteID. Missing fields are written as NULL, not merged.
// The record is left synced and keeps its local identifier.
func (b *Batch) UpsertByRemoteID(ctx context.Context, schema *models.Schema, remoteID string, fields map[string]any) error {
	if remoteID == "" {
		return fmt.Errorf("upsert %s: empty remote id", schema.Entity)
	}

	cols := schema.Columns()
	args := make([]any, 0, len(cols)+1)
	args = append(args, remoteID)
	sets := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		args = append(args, fields[c])
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
	}
	sets = append(sets, fmt.Sprintf("%s = '%s'", colStatus, models.StatusSynced))

	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES (%s, '%s')
		ON CONFLICT(%s) DO UPDATE SET %s`,
		schema.Table, colRemoteID, strings.Join(cols, ", "), colStatus,
		placeholders(len(cols)+1), models.StatusSynced,
		colRemoteID, strings.Join(sets, ", "))

	if _, err := b.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert %s %s: %w", schema.Entity, remoteID, err)
	}
	return nil
}

// SelectDirty returns the records awaiting a push.
func (b *Batch) SelectDirty(ctx context.Context, schema *models.Schema) ([]models.Record, error) {
	return selectRecords(ctx, b.tx, schema, colStatus+" IN (?, ?)",
		string(models.StatusNewOffline), string(models.StatusModifiedOffline))
}

// UpdateRemoteID stores the remote identifier of a record, either reserved
// before its first push or returned by the remote store.
func (b *Batch) UpdateRemoteID(ctx context.Context, schema *models.Schema, localID int64, remoteID string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = ? WHERE %s = ?`, schema.Table, colRemoteID, colLocalID)
	if err := execOne(ctx, b.tx, query, remoteID, localID); err != nil {
		return fmt.Errorf("failed to set remote id of %s %d: %w", schema.Entity, localID, err)
	}
	return nil
}

// MarkSynced clears the dirty flag of a record.
func (b *Batch) MarkSynced(ctx context.Context, schema *models.Schema, localID int64) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = ? WHERE %s = ?`, schema.Table, colStatus, colLocalID)
	if err := execOne(ctx, b.tx, query, string(models.StatusSynced), localID); err != nil {
		return fmt.Errorf("failed to mark %s %d synced: %w", schema.Entity, localID, err)
	}
	return nil
}

// Commit flushes the batch.
func (b *Batch) Commit() error {
	if b.done {
		return errors.New("batch already finished")
	}
	b.done = true
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Rollback discards the batch. It is a no-op after Commit, so it can be
// deferred unconditionally.
func (b *Batch) Rollback() error {
	if b.done {
		return nil
	}
	b.done = true
	return b.tx.Rollback()
}
