package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/k11v/sitebuild/internal/build"
	"github.com/k11v/sitebuild/internal/content"
	"github.com/k11v/sitebuild/internal/metrics"
	"github.com/k11v/sitebuild/internal/postgresutil"
	"github.com/k11v/sitebuild/internal/schedule"
	"github.com/k11v/sitebuild/internal/server"
)

func main() {
	run := func() int {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(log)

		if err := loadDotEnv(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		cfg, err := parseConfig(os.Environ())
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}

		db, err := postgresutil.NewPool(ctx, cfg.Postgres.ConnectionStringOrDefault())
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		defer db.Close()

		reg := prom.NewRegistry()
		recorder := metrics.NewRecorder(reg)

		ledger := &build.Ledger{DB: db}
		launcher := &build.Launcher{
			Store:   ledger,
			Spawner: &build.ProcessSpawner{Path: cfg.Builder.Path, Log: log.With("component", "spawner")},
			Metrics: recorder,
			Log:     log.With("component", "launcher"),
		}
		store := &content.Store{
			DB:       db,
			Launcher: launcher,
			Metrics:  recorder,
			Log:      log.With("component", "content"),
		}

		scheduler, err := schedule.New(&schedule.NewParams{
			Config: &cfg.Schedule,
			Reaper: &schedule.Reaper{
				Ledger:  ledger,
				Timeout: cfg.Builder.Timeout,
				Metrics: recorder,
				Log:     log.With("component", "reaper"),
			},
			Drainer: store,
			Log:     log,
		})
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				log.Error("didn't stop scheduler", "error", err)
			}
		}()

		srv := server.New(&server.NewParams{
			Config:      &cfg.Server,
			Development: cfg.Development,
			Log:         log,
			Launcher:    launcher,
			Ledger:      ledger,
			Content:     store,
			Metrics:     metrics.HTTPHandler(reg),
		})

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("didn't shut down server", "error", err)
			}
		}()

		log.Info("starting server", "addr", srv.Addr)
		err = srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}

		return 0
	}
	os.Exit(run())
}
