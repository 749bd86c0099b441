package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"

	"github.com/k11v/sitebuild/internal/amqputil"
	"github.com/k11v/sitebuild/internal/build"
	"github.com/k11v/sitebuild/internal/postgresutil"
	"github.com/k11v/sitebuild/internal/publish"
)

func newRunCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "run <auto|id> <triggered_by>",
		Short: "Supervise one build",
		Long: `Supervise one build and record its outcome.

With "auto" a new build record is started unless one is already building.
With a record id the record must already be building, as it is when the
server spawned this process.

Examples:
  builder run auto manual
  builder run 42 notice_created`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "runner")

			b, err := runBuild(ctx, cfg, log, &build.RunnerRunParams{BuildID: args[0], TriggeredBy: args[1]})
			if errors.Is(err, build.ErrAlreadyBuilding) {
				log.Info("build skipped", "reason", build.MessageAlreadyBuilding)
				return nil
			}
			if err != nil {
				return err
			}
			if b.Status != build.StatusSuccess {
				return fmt.Errorf("build %d %s", b.ID, b.Status)
			}
			return nil
		},
	}
}

func runBuild(ctx context.Context, cfg *config, log *slog.Logger, params *build.RunnerRunParams) (*build.Build, error) {
	db, err := postgresutil.NewPool(ctx, cfg.Postgres.ConnectionStringOrDefault())
	if err != nil {
		return nil, err
	}
	defer db.Close()

	self, err := os.Executable()
	if err != nil {
		return nil, err
	}

	publisher, err := publish.New(&cfg.Publish, log.With("component", "publisher"))
	if err != nil {
		return nil, err
	}

	runner := &build.Runner{
		Store: &build.Ledger{DB: db},
		Command: func(ctx context.Context, b *build.Build) *exec.Cmd {
			return exec.CommandContext(ctx, self, "render", "--build-id", strconv.FormatInt(b.ID, 10))
		},
		Timeout:   cfg.Builder.Timeout,
		Publisher: publisher,
		OutputDir: cfg.Site.Dir(),
		Log:       log,
	}

	if cfg.AMQP.ConnectionString != "" {
		client := amqputil.NewClient(cfg.AMQP.ConnectionString, &amqputil.QueueDeclareParams{
			Name:    cfg.AMQP.queue(),
			Durable: true,
			Args:    amqp091.Table{},
		})
		defer func() {
			if err := client.Close(); err != nil {
				log.Warn("didn't close amqp client", "error", err)
			}
		}()
		runner.Notifier = &build.AMQPNotifier{Client: client, Queue: cfg.AMQP.queue()}
	}

	return runner.Run(ctx, params)
}
