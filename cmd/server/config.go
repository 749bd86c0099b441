package main

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/k11v/sitebuild/internal/build"
	"github.com/k11v/sitebuild/internal/postgresutil"
	"github.com/k11v/sitebuild/internal/schedule"
	"github.com/k11v/sitebuild/internal/server"
)

// config holds the application configuration.
type config struct {
	Development bool                `env:"SITEBUILD_DEVELOPMENT"`
	Postgres    postgresutil.Config `envPrefix:"SITEBUILD_POSTGRES_"`
	Server      server.Config       `envPrefix:"SITEBUILD_SERVER_"`
	Builder     build.Config        `envPrefix:"SITEBUILD_BUILDER_"`
	Schedule    schedule.Config     `envPrefix:"SITEBUILD_SCHEDULE_"`
}

// loadDotEnv adds variables from .env to the process environment.
// Variables that are already set win. A missing file is not an error.
func loadDotEnv() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// parseConfig parses the application configuration from the environment variables.
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
