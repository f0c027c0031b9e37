package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/room-reservations/internal/config"
	"github.com/example/room-reservations/internal/logging"
	"github.com/example/room-reservations/internal/persistence/sqlite"
	"github.com/example/room-reservations/internal/wiring"
)

func main() {
	file := flag.String("file", "seedDB.json", "JSON file with rooms, users and reservations")
	dsn := flag.String("dsn", "", "SQLite DSN, defaults to "+config.Prefix+"SQLITE_DSN")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		slog.Error("failed to load env file", "error", err)
		os.Exit(1)
	}
	logger, err := logging.New(os.Stdout, os.Getenv(config.Prefix+"LOG_LEVEL"))
	if err != nil {
		slog.Error("failed to configure logger", "error", err)
		os.Exit(1)
	}

	target := *dsn
	if target == "" {
		target = os.Getenv(config.Prefix + "SQLITE_DSN")
	}
	if target == "" {
		target = "file:roomreservations.db"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := readSeedFile(*file)
	if err != nil {
		logger.Error("failed to read seed file", "file", *file, "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(target)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	services := wiring.NewServices(storage, wiring.Options{Logger: logger})
	result, err := newLoader(services, logger).Load(ctx, data)
	if err != nil {
		logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database seeded",
		"rooms", result.Rooms,
		"users", result.Users,
		"reservations", result.Reservations,
		"skipped", result.Skipped,
	)
}
