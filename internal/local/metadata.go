package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/erpsync/internal/dbx"
)

// Metadata keys written after every sync cycle.
const (
	KeyLastSyncAt   = "sync.last_at"
	KeyLastPulled   = "sync.last_pulled"
	KeyLastPushed   = "sync.last_pushed"
	KeyFailedCycles = "sync.failed_cycles"
)

// MetadataRepository is a key/value table for client state that must survive
// restarts.
type MetadataRepository struct {
	db dbx.DBTX
}

func NewMetadataRepository(db dbx.DBTX) *MetadataRepository {
	return &MetadataRepository{db: db}
}

// Get returns the value of key, or nil when it is not set.
func (r *MetadataRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *MetadataRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *MetadataRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *MetadataRepository) List(ctx context.Context) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM metadata`)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate metadata rows: %w", err)
	}

	return result, nil
}

// RecordSync persists the outcome of a finished sync cycle.
func (r *MetadataRepository) RecordSync(ctx context.Context, at time.Time, pulled, pushed, failed int) error {
	values := map[string]string{
		KeyLastSyncAt:   at.UTC().Format(time.RFC3339Nano),
		KeyLastPulled:   strconv.Itoa(pulled),
		KeyLastPushed:   strconv.Itoa(pushed),
		KeyFailedCycles: strconv.Itoa(failed),
	}
	for k, v := range values {
		if err := r.Set(ctx, k, []byte(v)); err != nil {
			return err
		}
	}
	return nil
}

// LastSync returns the time of the last finished cycle, or the zero time.
func (r *MetadataRepository) LastSync(ctx context.Context) (time.Time, error) {
	v, err := r.Get(ctx, KeyLastSyncAt)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(v))
	if err != nil {
		return time.Time{}, fmt.Errorf("bad metadata[%s]: %w", KeyLastSyncAt, err)
	}
	return t, nil
}
