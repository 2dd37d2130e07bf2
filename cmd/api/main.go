package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sceneforge/internal/adapter/repo"
	"sceneforge/internal/db"
	"sceneforge/internal/events"
	httpapi "sceneforge/internal/http"
	"sceneforge/internal/http/handlers"
	"sceneforge/internal/infra"
	"sceneforge/internal/infra/credentials"
	"sceneforge/internal/infra/geoip"
	"sceneforge/internal/middleware"
	"sceneforge/internal/persist"
	"sceneforge/internal/pipeline"
	"sceneforge/internal/progress"
	"sceneforge/internal/scene"
	"sceneforge/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	shutdownTracing := infra.InitTracing(ctx, cfg, logger)

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, dbpool, logger); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	runner := infra.NewSQLRunner(dbpool, logger)
	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare storage")
	}

	registry, err := buildRegistry(ctx, cfg, credentials.NewStore(runner), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure models")
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.NATSURL != "" {
		nats, err := events.Connect(cfg.NATSURL, cfg.NATSSubjectPrefix, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, lifecycle events disabled")
		} else {
			publisher = nats
		}
	}
	defer publisher.Close()

	var countryLookup middleware.CountryLookup
	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if geo != nil {
		defer geo.Close()
		countryLookup = geo.Lookup()
	}

	jobs := repo.NewJobRepository(runner)
	sourceImages := repo.NewSourceImageRepository(runner)
	scenes := scene.NewResolver(repo.NewSceneRepository(runner), registry.DefaultHint())
	tracker := progress.NewTracker(cfg.ProgressGrace)
	dispatcher := pipeline.NewDispatcher(cfg.JobMaxConcurrency, logger)

	orchestrator := pipeline.NewOrchestrator(pipeline.Deps{
		Jobs:         jobs,
		SourceImages: sourceImages,
		Scenes:       scenes,
		Sources:      files,
		Models:       registry,
		Persister:    persist.NewPersister(jobs, repo.NewImageIndexRepository(runner), logger),
		Progress:     tracker,
		Dispatcher:   dispatcher,
		Events:       publisher,
		Logger:       logger,
		ModelTimeout: cfg.ModelTimeout,
	})

	app := &handlers.App{
		Jobs:           jobs,
		Favorites:      repo.NewFavoriteRepository(runner),
		SourceImages:   sourceImages,
		Scenes:         scenes,
		Pipeline:       orchestrator,
		Progress:       tracker,
		Files:          files,
		Events:         publisher,
		DB:             runner,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   countryLookup,
		Logger:          logger,
	})

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().Strs("models", registry.Hints()).Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	// stop taking requests first, then let running jobs finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.ModelTimeout+15*time.Second)
	defer cancelDrain()
	if err := dispatcher.Shutdown(drainCtx); err != nil {
		logger.Warn().Err(err).Msg("jobs still running at shutdown; the reaper will fail them")
	}
	if err := shutdownTracing(context.Background()); err != nil {
		logger.Error().Err(err).Msg("failed to flush traces")
	}
	logger.Info().Msg("server stopped")
}
