package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/erpsync/internal/common"
	"github.com/dmitrijs2005/erpsync/internal/dbx"
	"github.com/dmitrijs2005/erpsync/internal/local/migrations"
	"github.com/dmitrijs2005/erpsync/internal/models"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// ErrNotFound is returned when a record or row does not exist.
var ErrNotFound = common.ErrorNotFound

const (
	colLocalID  = "id"
	colRemoteID = "_mongo_id"
	colStatus   = "sync_status"
)

// Store is the SQLite backed local cache.
type Store struct {
	db       *sql.DB
	Metadata *MetadataRepository
}

// RunMigrations applies the embedded schema. It is idempotent.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens the SQLite database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return New(db), nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db, Metadata: NewMetadataRepository(db)}
}

// DB exposes the underlying handle for readers of the presentation layer.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Begin starts a write batch.
func (s *Store) Begin(ctx context.Context) (*Batch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin batch: %w", err)
	}
	return &Batch{tx: tx}, nil
}

// InsertOffline creates a record that has never been pushed. Columns absent
// from fields take their table defaults. It returns the assigned local
// identifier.
func (s *Store) InsertOffline(ctx context.Context, schema *models.Schema, fields map[string]any) (int64, error) {
	cols := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	for _, c := range schema.Columns() {
		v, ok := fields[c]
		if !ok {
			continue
		}
		cols = append(cols, c)
		args = append(args, v)
	}
	if len(cols) != len(fields) {
		return 0, fmt.Errorf("insert %s: unknown field in %v", schema.Entity, keys(fields))
	}
	cols = append(cols, colStatus)
	args = append(args, string(models.StatusNewOffline))

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		schema.Table, strings.Join(cols, ", "), placeholders(len(cols)))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert %s: %w", schema.Entity, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// UpdateOffline changes the given fields of a record and flags it for push.
// Records never pushed stay new_offline; others become modified_offline.
func (s *Store) UpdateOffline(ctx context.Context, schema *models.Schema, localID int64, fields map[string]any) error {
	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	for _, c := range schema.Columns() {
		v, ok := fields[c]
		if !ok {
			continue
		}
		sets = append(sets, c+" = ?")
		args = append(args, v)
	}
	if len(sets) == 0 || len(sets) != len(fields) {
		return fmt.Errorf("update %s: unknown field in %v", schema.Entity, keys(fields))
	}
	sets = append(sets, fmt.Sprintf(`%s = CASE WHEN %s = '%s' THEN '%s' ELSE '%s' END`,
		colStatus, colStatus, models.StatusNewOffline, models.StatusNewOffline, models.StatusModifiedOffline))
	args = append(args, localID)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = ?`, schema.Table, strings.Join(sets, ", "), colLocalID)
	return execOne(ctx, s.db, query, args...)
}

// Get returns the record with the given local identifier.
func (s *Store) Get(ctx context.Context, schema *models.Schema, localID int64) (models.Record, error) {
	return selectOne(ctx, s.db, schema, colLocalID+" = ?", localID)
}

// GetByRemoteID returns the record carrying the given remote identifier.
func (s *Store) GetByRemoteID(ctx context.Context, schema *models.Schema, remoteID string) (models.Record, error) {
	return selectOne(ctx, s.db, schema, colRemoteID+" = ?", remoteID)
}

// List returns every record of an entity ordered by local identifier.
func (s *Store) List(ctx context.Context, schema *models.Schema) ([]models.Record, error) {
	return selectRecords(ctx, s.db, schema, "1 = 1")
}

func selectOne(ctx context.Context, db dbx.DBTX, schema *models.Schema, where string, args ...any) (models.Record, error) {
	recs, err := selectRecords(ctx, db, schema, where, args...)
	if err != nil {
		return models.Record{}, err
	}
	if len(recs) == 0 {
		return models.Record{}, fmt.Errorf("%s: %w", schema.Entity, common.ErrorNotFound)
	}
	return recs[0], nil
}

func selectRecords(ctx context.Context, db dbx.DBTX, schema *models.Schema, where string, args ...any) ([]models.Record, error) {
	cols := schema.Columns()
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s ORDER BY %s`,
		colLocalID, colRemoteID, colStatus, strings.Join(cols, ", "), schema.Table, where, colLocalID)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", schema.Table, err)
	}
	defer rows.Close()

	var result []models.Record
	for rows.Next() {
		var (
			rec      models.Record
			remoteID sql.NullString
			status   string
		)
		values := make([]any, len(cols))
		dest := make([]any, 0, len(cols)+3)
		dest = append(dest, &rec.LocalID, &remoteID, &status)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", schema.Table, err)
		}

		rec.RemoteID = remoteID.String
		rec.Status = models.SyncStatus(status)
		rec.Fields = make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			rec.Fields[c] = values[i]
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", schema.Table, err)
	}
	return result, nil
}

func execOne(ctx context.Context, db dbx.DBTX, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	switch ra {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func keys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// RecordSync persists the counters of a finished cycle atomically.
func (s *Store) RecordSync(ctx context.Context, at time.Time, pulled, pushed, failed int) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewMetadataRepository(tx).RecordSync(ctx, at, pulled, pushed, failed)
	})
}

// LastSync returns the time of the last recorded cycle, or the zero time.
func (s *Store) LastSync(ctx context.Context) (time.Time, error) {
	return s.Metadata.LastSync(ctx)
}
