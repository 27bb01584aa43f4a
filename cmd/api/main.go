package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/charstudio/internal/api"
	"github.com/your-org/charstudio/internal/api/handlers"
	"github.com/your-org/charstudio/internal/api/ws"
	"github.com/your-org/charstudio/internal/auth"
	"github.com/your-org/charstudio/internal/characters"
	"github.com/your-org/charstudio/internal/config"
	"github.com/your-org/charstudio/internal/gemini"
	"github.com/your-org/charstudio/internal/observability"
	"github.com/your-org/charstudio/internal/queue"
	"github.com/your-org/charstudio/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	gin.SetMode(gin.ReleaseMode)

	if err := run(cfg); err != nil {
		slog.Error("api service failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	slog.Info("starting charstudio API service", "port", cfg.Server.Port)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		return fmt.Errorf("create token verifier: %w", err)
	}

	// Postgres
	if cfg.Database.MigrateOnStart() {
		if err := storage.Migrate(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		slog.Info("database migrations applied")
	}
	db, err := storage.NewPostgresStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// MinIO
	blobs, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		return err
	}
	if err := blobs.EnsureBucket(ctx); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	checks := []handlers.ReadinessCheck{
		{Name: "postgres", Ping: db.Ping},
		{Name: "minio", Ping: blobs.Ping},
	}

	// WebSocket hub; also the event sink when NATS is not configured.
	hub := ws.NewHub(cfg.Server.AllowedOrigins)
	go hub.Run(ctx)

	var events characters.EventPublisher = hub
	if cfg.NATS.URL != "" {
		producer, err := queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.EnsureStreams(ctx); err != nil {
			slog.Warn("ensure nats streams", "error", err)
		}

		consumer, err := queue.NewConsumer(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer consumer.Close()
		if err := consumer.ConsumeLibraryEvents(ctx, consumerName(), hub.Publish); err != nil {
			slog.Warn("start library event consumer", "error", err)
		}

		events = producer
		checks = append(checks, handlers.ReadinessCheck{Name: "nats", Ping: producer.Ping})
	} else {
		slog.Info("nats not configured, library events stay in process")
	}

	deps := characters.Deps{Profiles: db, Blobs: blobs, Events: events}

	// Gemini
	genaiClient, err := gemini.NewClient(ctx, cfg.GenAI)
	if err != nil {
		return err
	}
	if genaiClient != nil {
		deps.Analyzer = gemini.NewAnalyzer(genaiClient.Models, cfg.GenAI.VisionModel, cfg.GenAI.Timeout)
		deps.Illustrator = gemini.NewIllustrator(genaiClient.Models, cfg.GenAI.ImageModel, cfg.GenAI.Timeout)
		slog.Info("genai backend ready", "vision_model", cfg.GenAI.VisionModel, "image_model", cfg.GenAI.ImageModel)
	} else {
		slog.Warn("genai api key not set, AI operations will fail with FailedPrecondition")
	}

	router := api.NewRouter(api.RouterConfig{
		Service:        characters.NewService(deps),
		Verifier:       verifier,
		Hub:            hub,
		Checks:         checks,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	})

	// Image generation routinely takes tens of seconds.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
	return nil
}

// consumerName gives each API replica its own durable consumer so every
// replica sees every event for its own WebSocket clients.
func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "api-library"
	}
	return "api-library-" + subjectSafe(host)
}

func subjectSafe(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r == '.' || r == '*' || r == '>' || r == ' ' {
			out[i] = '-'
		}
	}
	return string(out)
}
