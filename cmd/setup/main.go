// Command setup applies database migrations, creates the output directory
// and creates the publish bucket.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/k11v/sitebuild/internal/postgresprovision"
	"github.com/k11v/sitebuild/internal/postgresutil"
	"github.com/k11v/sitebuild/internal/publish"
	"github.com/k11v/sitebuild/internal/render"
	"github.com/k11v/sitebuild/internal/s3util"
)

type config struct {
	Postgres postgresutil.Config `envPrefix:"SITEBUILD_POSTGRES_"`
	Site     render.Config       `envPrefix:"SITEBUILD_SITE_"`
	Publish  publish.Config      `envPrefix:"SITEBUILD_PUBLISH_"`
}

func main() {
	run := func() int {
		ctx := context.Background()

		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		var cfg config
		if err := env.ParseWithOptions(&cfg, env.Options{Environment: env.ToMap(os.Environ())}); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}

		if err := postgresprovision.Setup(cfg.Postgres.ConnectionStringOrDefault()); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}

		if err := render.Prepare(cfg.Site.Dir()); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}

		if cfg.Publish.Kind == publish.KindS3 {
			client := s3util.NewClient(cfg.Publish.S3ConnectionString)
			if err := s3util.EnsureBucket(ctx, client, cfg.Publish.S3BucketOrDefault()); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
				return 1
			}
		}

		return 0
	}
	os.Exit(run())
}
