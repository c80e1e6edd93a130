package remote

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a goroutine-safe in-process Store. Documents keep their
// insertion order. Failures can be injected per operation for tests.
type MemoryStore struct {
	mu          sync.RWMutex
	online      bool
	seq         int
	collections map[string][]Document

	fetchErr map[string]error
	writeErr func(op, collection string, doc Document) error
}

// NewMemoryStore returns an empty, online MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		online:      true,
		collections: make(map[string][]Document),
		fetchErr:    make(map[string]error),
	}
}

// SetOnline toggles reachability. While offline every call returns ErrUnavailable.
func (m *MemoryStore) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = online
}

// FailFetch makes FetchAll on collection return err. A nil err clears it.
func (m *MemoryStore) FailFetch(collection string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fetchErr, collection)
		return
	}
	m.fetchErr[collection] = err
}

// FailWrites installs a hook consulted before every Insert ("insert") and
// UpdateByID ("update"). A non-nil result is returned to the caller and the
// write is not applied.
func (m *MemoryStore) FailWrites(fn func(op, collection string, doc Document) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = fn
}

// Seed inserts documents as they are, generating identifiers for documents
// without one. It returns the identifiers in order.
func (m *MemoryStore) Seed(collection string, docs ...Document) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		c := cloneDocument(d)
		if c.ID() == "" {
			c[IDField] = m.nextID()
		}
		m.collections[collection] = append(m.collections[collection], c)
		ids = append(ids, c.ID())
	}
	return ids
}

// Documents returns a copy of the documents of a collection.
func (m *MemoryStore) Documents(collection string) []Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Document, 0, len(m.collections[collection]))
	for _, d := range m.collections[collection] {
		out = append(out, cloneDocument(d))
	}
	return out
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.online {
		return ErrUnavailable
	}
	return nil
}

func (m *MemoryStore) FetchAll(ctx context.Context, collection string) ([]Document, error) {
	if err := m.Ping(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	err := m.fetchErr[collection]
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return m.Documents(collection), nil
}

func (m *MemoryStore) NewID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextID()
}

func (m *MemoryStore) Insert(ctx context.Context, collection, id string, doc Document) (string, error) {
	if err := m.Ping(ctx); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		if err := m.writeErr("insert", collection, doc); err != nil {
			return "", err
		}
	}

	if id == "" {
		id = m.nextID()
	}
	c := cloneDocument(doc.Without(IDField))
	c[IDField] = id

	docs := m.collections[collection]
	for i, d := range docs {
		if d.ID() == id {
			docs[i] = c
			return id, nil
		}
	}
	m.collections[collection] = append(docs, c)
	return id, nil
}

func (m *MemoryStore) UpdateByID(ctx context.Context, collection, id string, doc Document) error {
	if err := m.Ping(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		if err := m.writeErr("update", collection, doc); err != nil {
			return err
		}
	}

	for _, d := range m.collections[collection] {
		if d.ID() != id {
			continue
		}
		for k, v := range cloneDocument(doc.Without(IDField)) {
			d[k] = v
		}
		return nil
	}
	return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
}

func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// nextID returns a 24 hex digit identifier, the shape of a MongoDB ObjectID.
// Callers hold m.mu.
func (m *MemoryStore) nextID() string {
	m.seq++
	return fmt.Sprintf("%024x", m.seq)
}

func cloneDocument(d Document) Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return cloneDocument(t)
	case map[string]any:
		return map[string]any(cloneDocument(t))
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = cloneValue(x)
		}
		return out
	default:
		return v
	}
}
