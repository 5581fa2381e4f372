package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/MKhiriev/go-auth-keeper/internal/client"
	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/crypto"
	"github.com/MKhiriev/go-auth-keeper/internal/handler"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/server"
	"github.com/MKhiriev/go-auth-keeper/internal/service"
	"github.com/MKhiriev/go-auth-keeper/internal/store"
	"github.com/MKhiriev/go-auth-keeper/internal/syncer"
	"github.com/MKhiriev/go-auth-keeper/internal/workers"
	"github.com/MKhiriev/go-auth-keeper/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	fmt.Println(buildInfo.String())

	cfg, err := config.GetConfig(os.Args[1:])
	if err != nil {
		logger.NewLogger("go-auth-keeper").Fatal().Err(err).Msg("error getting configs")
	}

	log := logger.NewFileLogger("go-auth-keeper", cfg.App.LogFile)
	log.Debug().Any("sync", cfg.SyncConfig()).Str("secondary", cfg.Storage.Secondary).Msg("received configs")

	ctx := context.Background()

	var sealer crypto.Sealer
	if cfg.App.SealKey != "" {
		sealer, err = crypto.NewSealer(cfg.App.SealKey)
		if err != nil {
			log.Fatal().Err(err).Msg("error creating sealer")
		}
	}

	backends, err := store.NewBackends(ctx, cfg.Storage, sealer, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storage backends")
	}
	defer backends.Close()

	syncCfg := cfg.SyncConfig()
	metrics := syncer.NewMetrics()
	chain := syncer.NewChain(ctx, backends, syncCfg, log.WithStr("component", "chain"))
	engine := syncer.NewEngine(syncCfg, chain,
		syncer.WithLogger(log.WithStr("component", "engine")),
		syncer.WithMetrics(metrics),
	)

	services, err := service.NewServices(engine, chain, cfg.App, buildInfo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating services")
	}

	var srv server.Server
	handlers, err := handler.NewHandlers(services, metrics.Handler(), cfg.Server, log)
	switch {
	case errors.Is(err, handler.ErrNoHandlersAreCreated):
		log.Info().Msg("admin endpoint disabled")
	case err != nil:
		log.Fatal().Err(err).Msg("error creating handlers")
	default:
		srv, err = server.NewServer(handlers, cfg.Server, log)
		if err != nil {
			log.Fatal().Err(err).Msg("error creating server")
		}
	}

	ws := workers.NewWorkers(
		workers.NewSweepJob(backends.Sweepers, cfg.Workers.SweepInterval, log),
	)

	app, err := client.NewApp(services, engine, srv, ws, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init app error")
	}

	if err = app.Run(); err != nil {
		log.Error().Err(err).Msg("agent stopped with error")
		backends.Close()
		os.Exit(1)
	}
}
