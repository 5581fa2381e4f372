package client

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/server"
	"github.com/MKhiriev/go-auth-keeper/internal/service"
	"github.com/MKhiriev/go-auth-keeper/internal/workers"
)

const flushTimeout = 10 * time.Second

type App struct {
	services *service.Services
	engine   Flusher
	server   server.Server
	workers  *workers.Workers

	logger *logger.Logger
}

// NewApp assembles the application. srv may be nil when the admin endpoint
// is disabled.
func NewApp(services *service.Services, engine Flusher, srv server.Server, ws *workers.Workers, log *logger.Logger) (*App, error) {
	if services == nil || services.SessionService == nil {
		return nil, errors.New("session service is required")
	}
	if engine == nil {
		return nil, errors.New("sync engine is required")
	}
	if ws == nil {
		ws = workers.NewWorkers()
	}

	return &App{
		services: services,
		engine:   engine,
		server:   srv,
		workers:  ws,
		logger:   log,
	}, nil
}

// Run blocks until SIGINT, SIGTERM or SIGQUIT, then performs the final flush.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	a.restoreSession(ctx)

	a.workers.Run(ctx)

	serverErr := make(chan error, 1)
	if a.server != nil {
		go func() { serverErr <- a.server.RunServer(ctx) }()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info().Msg("shutdown requested")
	case runErr = <-serverErr:
		a.logger.Error().Err(runErr).Msg("admin server stopped")
	}

	a.workers.Stop()

	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := a.engine.Shutdown(flushCtx); err != nil {
		a.logger.Error().Err(err).Msg("pending writes were lost")
		return errors.Join(runErr, err)
	}
	a.logger.Info().Msg("pending writes flushed")

	if runErr != nil {
		return fmt.Errorf("admin server: %w", runErr)
	}
	return nil
}

func (a *App) restoreSession(ctx context.Context) {
	state, err := a.services.SessionService.Restore(ctx)
	switch {
	case errors.Is(err, service.ErrNoStoredState):
		a.logger.Info().Msg("no stored session")
	case err != nil:
		a.logger.Warn().Err(err).Msg("error restoring session")
	default:
		event := a.logger.Info().
			Str("source", state.Source).
			Bool("access_token", state.AccessToken != "").
			Time("synced_at", state.SyncedAt)
		if state.User != nil {
			event = event.Str("login", state.User.Login)
		}
		event.Msg("session restored")
	}
}
