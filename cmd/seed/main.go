// Command seed loads event fixtures into the configured store.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tiered-events/app/internal/backend"
	"github.com/tiered-events/app/internal/config"
	"github.com/tiered-events/app/internal/logging"
	"github.com/tiered-events/app/internal/models"
	"github.com/tiered-events/app/internal/seed"
)

func main() {
	var (
		file        string
		concurrency int
		dryRun      bool
	)
	flag.StringVar(&file, "file", "cmd/seed/events.yaml", "YAML file with the events to load")
	flag.IntVar(&concurrency, "concurrency", 4, "events saved at once")
	flag.BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	flag.Parse()

	cfg, err := config.LoadStore()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading configuration")
	}
	logging.Setup(cfg.LogLevel, true)

	f, err := os.Open(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Error opening seed file")
	}
	evs, err := seed.Parse(f)
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Invalid seed file")
	}
	if dryRun {
		log.Info().Int("events", len(evs)).Msg("Seed file is valid")
		return
	}

	if err := run(cfg, evs, concurrency); err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}
	log.Info().Int("events", len(evs)).Str("store", cfg.StoreDriver).Msg("Seeded events")
}

func run(cfg config.Config, evs []models.Event, concurrency int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	return seed.Apply(ctx, store, evs, concurrency)
}
