package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/k11v/sitebuild/internal/content"
	"github.com/k11v/sitebuild/internal/postgresutil"
	"github.com/k11v/sitebuild/internal/render"
)

func newRenderCmd(cfg *config) *cobra.Command {
	var buildID int64

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the whole site from the current content",
		Long: `Render the whole site from one consistent snapshot of the content.

The output directory is replaced only after every file is written; its
uploads directory is never touched. Errors are written to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			// Stderr is reserved for the error message read by "builder run".
			log := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("component", "renderer")

			db, err := postgresutil.NewPool(ctx, cfg.Postgres.ConnectionStringOrDefault())
			if err != nil {
				return err
			}
			defer db.Close()

			r, err := render.New(&cfg.Site)
			if err != nil {
				return err
			}
			r.BuildID = buildID
			r.Log = log

			result, err := r.Run(ctx, &content.Store{DB: db, Log: log})
			if err != nil {
				return err
			}
			log.Info("render finished", "dir", result.Dir, "files", len(result.Files))
			return nil
		},
	}
	cmd.Flags().Int64Var(&buildID, "build-id", 0, "build record id written to build.json")
	return cmd
}
