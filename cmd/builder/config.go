package main

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/k11v/sitebuild/internal/build"
	"github.com/k11v/sitebuild/internal/postgresutil"
	"github.com/k11v/sitebuild/internal/publish"
	"github.com/k11v/sitebuild/internal/render"
)

// config holds the builder configuration.
type config struct {
	Postgres postgresutil.Config `envPrefix:"SITEBUILD_POSTGRES_"`
	Site     render.Config       `envPrefix:"SITEBUILD_SITE_"`
	Builder  build.Config        `envPrefix:"SITEBUILD_BUILDER_"`
	Publish  publish.Config      `envPrefix:"SITEBUILD_PUBLISH_"`
	AMQP     amqpConfig          `envPrefix:"SITEBUILD_AMQP_"`
}

type amqpConfig struct {
	ConnectionString string `env:"CONNECTION_STRING"` // empty disables notifications
	Queue            string `env:"QUEUE"`             // default: "build.completed"
}

func (c *amqpConfig) queue() string {
	if c.Queue == "" {
		return "build.completed"
	}
	return c.Queue
}

func loadDotEnv() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// parseConfig parses the builder configuration from the environment variables.
func parseConfig(environ []string) (*config, error) {
	var cfg config

	err := env.ParseWithOptions(&cfg, env.Options{
		Environment: env.ToMap(environ),
	})
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
