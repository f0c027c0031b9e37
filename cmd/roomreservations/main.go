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

	"github.com/example/room-reservations/internal/config"
	httptransport "github.com/example/room-reservations/internal/http"
	"github.com/example/room-reservations/internal/logging"
	"github.com/example/room-reservations/internal/metrics"
	"github.com/example/room-reservations/internal/persistence/sqlite"
	"github.com/example/room-reservations/internal/security"
	"github.com/example/room-reservations/internal/wiring"
)

const tokenIssuer = "room-reservations"

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := config.LoadEnvFile(*envFile); err != nil {
		bootstrap.Error("failed to load env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		bootstrap.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	handler, err := newHandler(cfg, storage, metrics.New(true), time.Now, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("room reservation API listening", "addr", server.Addr, "timezone", cfg.Location.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newHandler(cfg config.Config, storage wiring.Store, recorder *metrics.Recorder, now func() time.Time, logger *slog.Logger) (http.Handler, error) {
	tokens, err := security.NewTokenManager(cfg.SessionSecret, tokenIssuer, now)
	if err != nil {
		return nil, fmt.Errorf("configure session tokens: %w", err)
	}

	services := wiring.NewServices(storage, wiring.Options{
		Signer:              tokens,
		Observer:            recorder,
		Now:                 now,
		Location:            cfg.Location,
		StrictSlotAlignment: cfg.StrictSlotAlignment,
		SessionTTL:          cfg.SessionTTL,
		Logger:              logger,
	})

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(services.Auth, services.Users, logger),
		Users:          httptransport.NewUserHandler(services.Users, logger),
		Rooms:          httptransport.NewRoomHandler(services.Rooms, logger),
		Reservations:   httptransport.NewReservationHandler(services.Reservations, cfg.Location, logger),
		Sessions:       services.Auth,
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Health:         storage.Ping,
		Metrics:        recorder.Handler(),
		Middleware:     []func(http.Handler) http.Handler{recorder.Middleware},
	}), nil
}
