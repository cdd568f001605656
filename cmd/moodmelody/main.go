package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ewilliams-labs/moodmelody/internal/adapters/memory"
	"github.com/ewilliams-labs/moodmelody/internal/adapters/postgres"
	"github.com/ewilliams-labs/moodmelody/internal/adapters/predict"
	"github.com/ewilliams-labs/moodmelody/internal/adapters/rest"
	"github.com/ewilliams-labs/moodmelody/internal/adapters/spotify"
	"github.com/ewilliams-labs/moodmelody/internal/adapters/sqlite"
	"github.com/ewilliams-labs/moodmelody/internal/audio"
	"github.com/ewilliams-labs/moodmelody/internal/capture"
	"github.com/ewilliams-labs/moodmelody/internal/config"
	"github.com/ewilliams-labs/moodmelody/internal/core/ports"
	"github.com/ewilliams-labs/moodmelody/internal/core/services"
	"github.com/ewilliams-labs/moodmelody/internal/observability"
)

func main() {
	// 1. Configuration (file, then environment)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: invalid configuration: %v", err)
	}

	metrics := observability.NewMetrics("moodmelody")

	// 2. Driven adapters
	repo, closeRepo := openHistory(cfg.Storage)
	defer closeRepo()

	tokens := spotify.NewTokenCache(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.TokenURL,
		spotify.WithTokenMetrics(metrics))
	catalog := spotify.NewClient(&http.Client{Timeout: 15 * time.Second}, cfg.Spotify.APIBaseURL, tokens).
		WithMetrics(metrics)

	predictor := predict.NewClient(&http.Client{Timeout: time.Duration(cfg.Predict.Timeout) * time.Second}, cfg.Predict.URL)

	format := audio.Format{SampleRate: cfg.Capture.SampleRate, Channels: cfg.Capture.Channels}
	recorder := capture.NewRecorder(
		capture.NewCommandDevice(cfg.Capture.Command, cfg.Capture.Args, format),
		capture.WithPCMFormat(format),
		capture.WithMinDuration(time.Duration(cfg.Capture.MinDuration)*time.Millisecond),
	)

	// 3. Core
	orch := services.NewOrchestrator(recorder, predictor, catalog,
		services.WithWorkers(cfg.Worker.Count, cfg.Worker.QueueSize),
		services.WithHistory(repo),
		services.WithMetrics(metrics),
	)
	defer orch.Close()

	// 4. Driving adapter
	handler := rest.NewHandler(orch,
		rest.WithMetricsHandler(metrics.Handler()),
		rest.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
	)

	// 5. Start the Server
	log.Println("------------------------------------------------")
	log.Printf("🎶 Mood Melody is listening on %s", cfg.Server.BindAddr)
	log.Printf("🎙️ capture via %q, history in %s", cfg.Capture.Command, cfg.Storage.Driver)
	log.Println("------------------------------------------------")

	srv := &http.Server{
		Addr:              cfg.Server.BindAddr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Printf("ERROR: server failed: %v", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}

// openHistory connects the configured history store.
func openHistory(cfg config.StorageConfig) (ports.HistoryRepository, func()) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.NewAdapter(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("FATAL: failed to initialize database: %v", err)
		}
		return db, func() { _ = db.Close() }
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("FATAL: failed to connect to postgres: %v", err)
		}
		return store, func() { _ = store.Close() }
	case "memory":
		store := memory.NewStore(memory.DefaultCapacity)
		return store, func() { _ = store.Close() }
	default:
		log.Fatalf("FATAL: unknown storage driver: %s", cfg.Driver)
		return nil, nil
	}
}
