package autosync

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/erpsync/internal/local"
	"github.com/dmitrijs2005/erpsync/internal/logging"
	"github.com/dmitrijs2005/erpsync/internal/remote"
	"github.com/stretchr/testify/require"
)

func openLocal(t *testing.T) *local.Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "erp.db") + "?_pragma=busy_timeout(5000)"
	st, err := local.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// logBuffer collects JSON log lines.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) count(level, msg string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	sc := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	for sc.Scan() {
		var line map[string]any
		if json.Unmarshal(sc.Bytes(), &line) != nil {
			continue
		}
		if line["level"] == level && line["msg"] == msg {
			n++
		}
	}
	return n
}

func newTestLogger() (logging.Logger, *logBuffer) {
	buf := &logBuffer{}
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return logging.NewSlogLogger(slog.New(h)), buf
}

// hookStore lets tests intercept remote calls.
type hookStore struct {
	*remote.MemoryStore
	onFetch  func(ctx context.Context, collection string) error
	onInsert func(collection string)
}

func (h *hookStore) FetchAll(ctx context.Context, collection string) ([]remote.Document, error) {
	if h.onFetch != nil {
		if err := h.onFetch(ctx, collection); err != nil {
			return nil, err
		}
	}
	return h.MemoryStore.FetchAll(ctx, collection)
}

func (h *hookStore) Insert(ctx context.Context, collection, id string, doc remote.Document) (string, error) {
	if h.onInsert != nil {
		h.onInsert(collection)
	}
	return h.MemoryStore.Insert(ctx, collection, id, doc)
}

// faultyLocal fails the commit of the n-th batch it opens.
type faultyLocal struct {
	LocalStore
	begins       int
	failCommitAt int
}

func (f *faultyLocal) Begin(ctx context.Context) (Batch, error) {
	b, err := f.LocalStore.Begin(ctx)
	if err != nil {
		return nil, err
	}
	f.begins++
	if f.begins == f.failCommitAt {
		return failingCommit{Batch: b}, nil
	}
	return b, nil
}

var errDisk = errors.New("disk I/O error")

type failingCommit struct {
	Batch
}

func (f failingCommit) Commit() error {
	_ = f.Batch.Rollback()
	return errDisk
}
