// Package remote provides access to the remote document store that is the
// source of truth for multi-user ERP data.
//
// # Overview
//
// The Store interface is a thin find/insert/update contract over named
// collections. Three implementations are provided:
//
//   - MongoStore: MongoDB, the production backend.
//   - PostgresStore: a JSONB document table on PostgreSQL.
//   - MemoryStore: an in-process store used by tests and demos.
//
// Documents returned by FetchAll are normalised at this boundary: the
// identifier is always a string under IDField, temporal values are time.Time,
// nested documents are map[string]any and arrays are []any. Text written by
// older clients in temporal fields stays text.
//
// Identifiers can be reserved before a write with NewID. Insert with a
// reserved identifier is an upsert, so repeating an insert whose outcome was
// lost leaves one document.
//
// # Error Handling
//
// Connectivity problems surface as ErrUnavailable (match with errors.Is).
// UpdateByID on a missing document returns ErrNotFound.
package remote

import (
	"context"
	"errors"
	"maps"
)

// IDField is the document key holding the remote identifier.
const IDField = "_id"

var (
	ErrUnavailable = errors.New("remote store unavailable")
	ErrNotFound    = errors.New("document not found")
)

// Document is a loosely typed remote document.
type Document map[string]any

// ID returns the document identifier, or "" when absent.
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}

// Without returns a shallow copy of d lacking the given keys.
func (d Document) Without(keys ...string) Document {
	out := maps.Clone(d)
	if out == nil {
		out = Document{}
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Store is the remote document store contract.
type Store interface {
	// Ping returns nil when the store is reachable, ErrUnavailable otherwise.
	Ping(ctx context.Context) error

	// FetchAll returns every document of a collection.
	FetchAll(ctx context.Context, collection string) ([]Document, error)

	// NewID returns a fresh identifier in the format of this store. It does
	// not contact the store.
	NewID() string

	// Insert stores doc under id and returns the identifier. An empty id makes
	// the store generate one. When a document with id already exists it is
	// replaced. An IDField in doc is ignored.
	Insert(ctx context.Context, collection, id string, doc Document) (string, error)

	// UpdateByID sets the fields of doc on the document identified by id,
	// leaving other fields untouched.
	UpdateByID(ctx context.Context, collection, id string, doc Document) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
