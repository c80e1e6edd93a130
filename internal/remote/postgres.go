package remote

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/erpsync/internal/dbx"
	"github.com/dmitrijs2005/erpsync/internal/remote/pgmigrations"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresStore implements Store over a single JSONB documents table.
type PostgresStore struct {
	db   *sql.DB
	conn dbx.DBTX
}

// NewPostgresStore opens dsn with the pgx driver and applies migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	s := NewPostgresStoreFromDB(db)
	if err := s.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return s, nil
}

// NewPostgresStoreFromDB wraps an already opened database without migrating it.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, conn: db}
}

func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(pgmigrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db, ".")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) FetchAll(ctx context.Context, collection string) ([]Document, error) {
	query := `SELECT id, body FROM documents WHERE collection = $1 ORDER BY created_at, id`
	rows, err := s.conn.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, mapPgError(err)
		}
		doc, err := decodeBody(body)
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		doc[IDField] = id
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err)
	}
	return docs, nil
}

// NewID returns a random UUID.
func (s *PostgresStore) NewID() string {
	return uuid.NewString()
}

func (s *PostgresStore) Insert(ctx context.Context, collection, id string, doc Document) (string, error) {
	body, err := encodeBody(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	if id == "" {
		id = s.NewID()
	}
	query := `INSERT INTO documents (id, collection, body) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (id) DO UPDATE SET body = excluded.body, updated_at = now()`
	if _, err := s.conn.ExecContext(ctx, query, id, collection, string(body)); err != nil {
		return "", mapPgError(err)
	}
	return id, nil
}

func (s *PostgresStore) UpdateByID(ctx context.Context, collection, id string, doc Document) error {
	patch, err := encodeBody(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	query := `UPDATE documents SET body = body || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2`
	res, err := s.conn.ExecContext(ctx, query, collection, id, string(patch))
	if err != nil {
		return mapPgError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func mapPgError(err error) error {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("db error: %w", err)
}
