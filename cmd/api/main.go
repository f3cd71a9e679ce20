package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carlist/internal/config"
	"carlist/internal/infrastructure/database"
	"carlist/internal/interfaces/router"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [init-db]\n\n", os.Args[0])
	fmt.Fprintln(flag.CommandLine.Output(), "With no command the server starts; init-db clears and recreates the listings table.")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	setupLogging(cfg)

	switch cmd := flag.Arg(0); cmd {
	case "":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := serve(ctx, cfg); err != nil {
			log.Fatal().Err(err).Msg("server")
		}
	case "init-db":
		if err := initDB(cfg); err != nil {
			log.Fatal().Err(err).Msg("init-db")
		}
		fmt.Println("Initialized the database.")
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Debug {
		level = zerolog.DebugLevel
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	zerolog.SetGlobalLevel(level)
}

func initDB(cfg *config.Config) error {
	db, err := database.Open(database.Options{DSN: cfg.DatabaseURL, Path: cfg.DatabasePath, Debug: cfg.Debug})
	if err != nil {
		return err
	}
	defer database.Close(db)
	return database.InitSchema(db)
}

func serve(ctx context.Context, cfg *config.Config) error {
	app, db, rdb, err := router.CreateApp(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if rdb != nil {
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info().Msg("Redis connected")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Port)
	}()
	log.Info().Str("env", cfg.Env).Msgf("Server running at http://localhost:%s", cfg.Port)
	log.Info().Msgf("Health check: http://localhost:%s/health/json", cfg.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
