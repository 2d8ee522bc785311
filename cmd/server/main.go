package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tiered-events/app/internal/backend"
	"github.com/tiered-events/app/internal/config"
	"github.com/tiered-events/app/internal/events"
	"github.com/tiered-events/app/internal/handlers"
	"github.com/tiered-events/app/internal/icons"
	"github.com/tiered-events/app/internal/identity"
	"github.com/tiered-events/app/internal/logging"
	"github.com/tiered-events/app/internal/telemetry"
)

const serviceName = "tiered-events"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing tracing")
	}

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Error opening store")
	}

	verifier, err := identity.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating session verifier")
	}

	if err := handlers.LoadTemplates(handlers.TemplateFS()); err != nil {
		log.Fatal().Err(err).Msg("Error loading templates")
	}

	svc := events.NewService(store, events.WithAttendanceTracking(cfg.TrackAttendance))
	srv := handlers.NewServer(svc, icons.NewSelector(cfg.IconBaseURL),
		handlers.WithHealthCheck(store.Ping),
		handlers.WithAuthURLs(cfg.SignInURL, cfg.SignUpURL),
	)
	router := srv.Router(verifier, cfg.ProtectedPrefixes)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           telemetry.Middleware(logging.Middleware(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("store", store.Driver).
			Bool("track_attendance", cfg.TrackAttendance).
			Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("Error starting server")
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error closing store")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error flushing traces")
	}
	log.Info().Msg("Server shut down.")
}
