package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sceneforge/internal/adapter/repo"
	"sceneforge/internal/events"
	"sceneforge/internal/infra"
	"sceneforge/internal/pipeline"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "reaper").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("reaper: db connection failed")
	}
	defer pool.Close()

	var publisher events.Publisher = events.Noop{}
	if cfg.NATSURL != "" {
		if nats, err := events.Connect(cfg.NATSURL, cfg.NATSSubjectPrefix, logger); err != nil {
			logger.Warn().Err(err).Msg("reaper: nats unavailable, events disabled")
		} else {
			publisher = nats
		}
	}
	defer publisher.Close()

	// progress lives in the API process; the reaper only touches durable rows
	reaper := pipeline.NewReaper(repo.NewJobRepository(infra.NewSQLRunner(pool, logger)), nil, publisher, cfg.JobMaxDuration, logger)

	if *once {
		ids, err := reaper.Sweep(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("reaper: sweep failed")
		}
		logger.Info().Int("failed", len(ids)).Msg("reaper: sweep done")
		return
	}
	logger.Info().Dur("interval", cfg.ReaperInterval).Dur("max_duration", cfg.JobMaxDuration).Msg("reaper: started")
	reaper.Run(ctx, cfg.ReaperInterval)
	logger.Info().Msg("reaper: stopped")
}
