// Package app wires the local cache, the remote store, the sync orchestrator
// and the update check into a runnable process.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dmitrijs2005/erpsync/internal/autosync"
	"github.com/dmitrijs2005/erpsync/internal/buildinfo"
	"github.com/dmitrijs2005/erpsync/internal/config"
	"github.com/dmitrijs2005/erpsync/internal/local"
	"github.com/dmitrijs2005/erpsync/internal/logging"
	"github.com/dmitrijs2005/erpsync/internal/remote"
	"github.com/dmitrijs2005/erpsync/internal/updater"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	logFile io.Closer
	local   *local.Store
	remote  remote.Store
	syncer  *autosync.Syncer
	updater *updater.Updater
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, logFile := logging.New(logging.Options{
		Level:      parseLevel(c.LogLevel),
		File:       c.LogFile,
		MaxSizeMB:  10,
		MaxBackups: 5,
	})

	st, err := local.Open(ctx, c.LocalDSN)
	if err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("local db init error: %w", err)
	}

	rs, err := openRemote(ctx, c)
	if err != nil {
		_ = st.Close()
		_ = logFile.Close()
		return nil, fmt.Errorf("remote init error: %w", err)
	}

	app := &App{
		config:  c,
		logger:  logger,
		logFile: logFile,
		local:   st,
		remote:  rs,
		syncer: autosync.New(autosync.FromLocal(st), rs, logger,
			autosync.WithRemoteTimeout(c.RemoteTimeout),
			autosync.WithRecorder(st)),
	}

	if c.UpdateManifestURL != "" {
		u, err := newUpdater(ctx, c, logger)
		if err != nil {
			// The update check is optional; sync still runs.
			logger.Warn(ctx, "update check disabled", "error", err)
		}
		app.updater = u
	}

	return app, nil
}

func openRemote(ctx context.Context, c *config.Config) (remote.Store, error) {
	switch c.RemoteDriver {
	case config.DriverMongo:
		s, err := remote.NewMongoStore(c.RemoteURI, c.RemoteDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := remote.NewPostgresStore(ctx, c.RemoteURI)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMemory:
		return remote.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown remote driver %q", c.RemoteDriver)
}

func newUpdater(ctx context.Context, c *config.Config, logger logging.Logger) (*updater.Updater, error) {
	var src updater.Source
	if strings.HasPrefix(c.UpdateManifestURL, "s3://") {
		s3src, err := updater.NewS3Source(ctx, updater.S3Config{
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		}, c.UpdateManifestURL)
		if err != nil {
			return nil, err
		}
		src = s3src
	} else {
		src = &updater.HTTPSource{URL: c.UpdateManifestURL}
	}
	return updater.New(buildinfo.Current(), src, updater.WithLogger(logger))
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// StartAutoSync schedules one sync cycle after delay without blocking.
func (app *App) StartAutoSync(ctx context.Context) {
	app.syncer.Start(ctx, app.config.SyncDelay)
}

// PerformSync runs one cycle synchronously.
func (app *App) PerformSync(ctx context.Context) autosync.Report {
	return app.syncer.PerformSync(ctx)
}

func (app *App) Stats() autosync.Stats {
	return app.syncer.Stats()
}

// Run performs the startup work: the scheduled sync cycle and, when
// configured, the update check. It returns once both are done or a signal
// arrives. With Once set the cycle runs immediately and an error is returned
// when it failed.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	if last, err := app.local.LastSync(ctx); err == nil && !last.IsZero() {
		app.logger.Info(ctx, "Starting app...", "version", buildinfo.Current(), "last_sync", last)
	} else {
		app.logger.Info(ctx, "Starting app...", "version", buildinfo.Current())
	}

	if app.config.Once {
		rep := app.PerformSync(ctx)
		switch {
		case rep.Offline:
			return remote.ErrUnavailable
		case rep.Err != nil:
			return rep.Err
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.StartAutoSync(gctx)
		app.syncer.Wait()
		return nil
	})

	if app.updater != nil {
		g.Go(func() error {
			app.checkForUpdate(gctx)
			return nil
		})
	}

	return g.Wait()
}

// checkForUpdate downloads a newer release into the staging directory. It
// is applied by the separate erpupdate program after the client exits.
func (app *App) checkForUpdate(ctx context.Context) {
	ok, rel, err := app.updater.CheckForUpdate(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			app.logger.Warn(ctx, "update check failed", "error", err)
		}
		return
	}
	if !ok {
		app.logger.Info(ctx, "client is up to date", "version", buildinfo.Current())
		return
	}

	app.logger.Info(ctx, "update available", "version", rel.Version, "changelog", rel.Changelog)
	path, err := app.updater.Stage(ctx, rel)
	if err != nil {
		app.logger.Warn(ctx, "update download failed", "error", err)
		return
	}
	app.logger.Info(ctx, "update staged", "path", path)
}

// Close stops pending work and releases every resource.
func (app *App) Close(ctx context.Context) error {
	app.syncer.Stop()

	var errs []error
	if err := app.remote.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close remote: %w", err))
	}
	if err := app.local.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close local: %w", err))
	}
	if err := app.logFile.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close log: %w", err))
	}
	return errors.Join(errs...)
}
