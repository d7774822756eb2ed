package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"hydra/api"
	"hydra/config"
	"hydra/service"
	"hydra/storage"
	"hydra/util/goroutine"

	"go.uber.org/zap"
)

// shutdownTimeout bounds the graceful stop of the API server
const shutdownTimeout = 5 * time.Second

// App represents the hydra application with all its components.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	// SQLite is nil when storage is disabled
	SQLite  *storage.SQLite
	Cache   *CacheComponents
	Service *service.DiscoveryService

	APIServer *api.API

	serviceWg *sync.WaitGroup
	serverErr chan error
	closeOnce sync.Once
}

// NewApp initializes storage, cache and the discovery service from cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, sugar *zap.SugaredLogger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil || sugar == nil {
		return nil, errors.New("logger is required")
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Sugar:     sugar,
		serviceWg: &sync.WaitGroup{},
		serverErr: make(chan error, 1),
	}

	sqlite, err := InitSQLite(cfg, sugar)
	if err != nil {
		return nil, err
	}
	app.SQLite = sqlite

	cache, err := InitReportCache(ctx, cfg, sugar)
	if err != nil {
		app.closeStorage()
		return nil, err
	}
	app.Cache = cache

	app.Service = InitDiscoveryService(cfg, sugar)
	return app, nil
}

// Reports returns the report store, or nil when storage is disabled.
func (a *App) Reports() storage.ReportStorage {
	if a.SQLite == nil {
		return nil
	}
	return a.SQLite
}

// Addr is the listen address of the API server.
func (a *App) Addr() string {
	return net.JoinHostPort(a.Config.API.Host, strconv.Itoa(a.Config.API.Port))
}

// Start creates the API server and serves it in the background.
func (a *App) Start(ctx context.Context) error {
	if a.APIServer != nil {
		return errors.New("app already started")
	}
	a.APIServer = api.NewAPI(a.Service, a.Reports(), a.Cache.Cache, a.Config, a.Sugar)

	addr := a.Addr()
	goroutine.Go(a.serviceWg, "api-server", a.Sugar, func() {
		a.Sugar.Infow("API server starting", "addr", addr)
		if err := a.APIServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Sugar.Errorw("API server error", "error", err)
			a.serverErr <- err
		}
	})
	return nil
}

// WaitForShutdown blocks until a shutdown signal arrives, ctx is done or the
// API server fails. Only a server failure is returned.
func (a *App) WaitForShutdown(ctx context.Context) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		a.Sugar.Infow("Shutdown signal received", "signal", sig.String())
		return nil
	case <-ctx.Done():
		return nil
	case err := <-a.serverErr:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Shutdown gracefully stops the API server and closes storage. It is safe to
// call more than once.
func (a *App) Shutdown() {
	a.closeOnce.Do(func() {
		a.Sugar.Debug("Shutting down...")

		if a.APIServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := a.APIServer.Stop(ctx); err != nil {
				a.Sugar.Errorw("Failed to stop API server", "error", err)
			}
		}

		done := make(chan struct{})
		go func() {
			a.serviceWg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * shutdownTimeout):
			a.Sugar.Warn("Service goroutine shutdown timed out")
		}

		if err := a.Cache.Close(); err != nil {
			a.Sugar.Errorw("Failed to close Redis connection", "error", err)
		}
		a.closeStorage()

		a.Sugar.Debug("Shutdown complete")
		_ = a.Logger.Sync()
	})
}

func (a *App) closeStorage() {
	if a.SQLite == nil {
		return
	}
	if err := a.SQLite.Close(); err != nil {
		a.Sugar.Errorw("Failed to close SQLite", "error", err)
	}
}
