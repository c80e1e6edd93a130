package autosync

import (
	"context"
	"time"

	"github.com/dmitrijs2005/erpsync/internal/local"
	"github.com/dmitrijs2005/erpsync/internal/models"
)

// Batch is the local write unit of one entity type in one phase.
type Batch interface {
	UpsertByRemoteID(ctx context.Context, schema *models.Schema, remoteID string, fields map[string]any) error
	SelectDirty(ctx context.Context, schema *models.Schema) ([]models.Record, error)
	UpdateRemoteID(ctx context.Context, schema *models.Schema, localID int64, remoteID string) error
	MarkSynced(ctx context.Context, schema *models.Schema, localID int64) error
	Commit() error
	Rollback() error
}

// LocalStore opens batches on the local cache.
type LocalStore interface {
	Begin(ctx context.Context) (Batch, error)
}

// Recorder persists the counters of completed cycles.
type Recorder interface {
	RecordSync(ctx context.Context, at time.Time, pulled, pushed, failed int) error
}

type localStore struct {
	st *local.Store
}

// FromLocal adapts the SQLite store.
func FromLocal(st *local.Store) LocalStore {
	return localStore{st: st}
}

func (l localStore) Begin(ctx context.Context) (Batch, error) {
	b, err := l.st.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return b, nil
}
