// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/compass/aggregate"
	"github.com/danielhkuo/compass/cliparse"
	"github.com/danielhkuo/compass/db"
	"github.com/danielhkuo/compass/middleware"
	"github.com/danielhkuo/compass/router"
)

func main() {
	var err error

	if err := cliparse.LoadEnvFile(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	dialect, err := db.ParseDialect(cfg.DatabaseType)
	if err != nil {
		slog.Error("invalid database type", "error", err)
		os.Exit(1)
	}

	// Connect and verify
	dbConn, err := db.Open(dialect, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	migrated, err := db.MigrateLegacyAxisNames(context.Background(), dbConn)
	if err != nil {
		slog.Error("axis migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "dialect", dialect, "migrated_questions", migrated)

	store := db.NewStore(dbConn, dialect)

	if cfg.RecomputeAll {
		code := recomputeAll(store)
		dbConn.Close()
		os.Exit(code)
	}

	// Create router
	mux := router.NewRouter(store, cfg)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "rate_limit", cfg.RateLimit)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// recomputeAll rescores every active icon and returns the exit code.
func recomputeAll(store *db.Store) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg := aggregate.NewAggregator(store, aggregate.DefaultConcurrency)
	sum, err := agg.RecomputeAll(ctx)
	if err != nil {
		slog.Error("recompute failed",
			"failed", humanize.Comma(int64(sum.Failed)),
			"of", humanize.Comma(int64(sum.Icons)),
			"error", err,
		)
		return 1
	}
	slog.Info("recompute finished",
		"updated", humanize.Comma(int64(sum.Updated)),
		"skipped", sum.Skipped,
		"took", sum.Duration.Round(time.Millisecond).String(),
	)
	return 0
}
