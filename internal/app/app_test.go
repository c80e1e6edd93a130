package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/erpsync/internal/config"
	"github.com/dmitrijs2005/erpsync/internal/models"
	"github.com/dmitrijs2005/erpsync/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.LocalDSN = "file:" + filepath.Join(t.TempDir(), "erp.db") + "?_pragma=busy_timeout(5000)"
	c.RemoteDriver = config.DriverMemory
	c.SyncDelay = 0
	c.RemoteTimeout = time.Second
	return c
}

func TestNewApp_UnknownDriver(t *testing.T) {
	c := testConfig(t)
	c.RemoteDriver = "couchdb"

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "couchdb")
}

func TestRun_OnceSyncsAndRecords(t *testing.T) {
	ctx := context.Background()
	c := testConfig(t)
	c.Once = true

	a, err := NewApp(ctx, c)
	require.NoError(t, err)
	defer a.Close(ctx)

	mem := a.remote.(*remote.MemoryStore)
	mem.Seed("accounts", remote.Document{"name": "Cash", "balance": 5.0})
	_, err = a.local.InsertOffline(ctx, models.MustSchema(models.EntityClient), map[string]any{"name": "Acme"})
	require.NoError(t, err)

	require.NoError(t, a.Run(ctx))

	stats := a.Stats()
	assert.Equal(t, 1, stats.Pulled)
	assert.Equal(t, 1, stats.Pushed)
	assert.Len(t, mem.Documents("clients"), 1)

	last, err := a.local.LastSync(ctx)
	require.NoError(t, err)
	assert.False(t, last.IsZero())
}

func TestRun_OnceOffline(t *testing.T) {
	ctx := context.Background()
	c := testConfig(t)
	c.Once = true

	a, err := NewApp(ctx, c)
	require.NoError(t, err)
	defer a.Close(ctx)

	a.remote.(*remote.MemoryStore).SetOnline(false)
	require.ErrorIs(t, a.Run(ctx), remote.ErrUnavailable)
	assert.Equal(t, 0, a.Stats().Cycles)
}

func TestRun_ScheduledCycleAndUpdateCheck(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"0.0.0-alpha","url":"http://unused/erp.zip"}`))
	}))
	defer ts.Close()

	c := testConfig(t)
	c.UpdateManifestURL = ts.URL + "/version.json"

	a, err := NewApp(ctx, c)
	require.NoError(t, err)
	defer a.Close(ctx)
	require.NotNil(t, a.updater)

	a.remote.(*remote.MemoryStore).Seed("clients", remote.Document{"name": "Acme"})

	require.NoError(t, a.Run(ctx))
	assert.Equal(t, 1, a.Stats().Cycles)
	assert.Equal(t, 1, a.Stats().Pulled)
}

func TestRun_CanceledBeforeDelay(t *testing.T) {
	c := testConfig(t)
	c.SyncDelay = time.Hour

	a, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	defer a.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, a.Run(ctx))
	assert.Equal(t, 0, a.Stats().Cycles)
}

func TestClose_ReleasesLogFile(t *testing.T) {
	c := testConfig(t)
	c.LogFile = filepath.Join(t.TempDir(), "erpsync.log")

	a, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	a.logger.Info(context.Background(), "hello")
	require.NoError(t, a.Close(context.Background()))

	_, err = os.Stat(c.LogFile)
	require.NoError(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}
