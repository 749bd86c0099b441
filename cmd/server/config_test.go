package main

import (
	"reflect"
	"testing"
	"time"
)

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig([]string{
		"SITEBUILD_DEVELOPMENT=true",
		"SITEBUILD_POSTGRES_CONNECTION_STRING=postgres://u:p@db:5432/site",
		"SITEBUILD_SERVER_PORT=9000",
		"SITEBUILD_SERVER_ALLOWED_ORIGINS=https://a.example.org,https://b.example.org",
		"SITEBUILD_BUILDER_PATH=/usr/local/bin/builder",
		"SITEBUILD_BUILDER_TIMEOUT=2m",
		"SITEBUILD_SCHEDULE_REAP_INTERVAL=30s",
	})
	if err != nil {
		t.Fatalf("didn't want %v", err)
	}

	if !cfg.Development {
		t.Errorf("got %v, want %v", cfg.Development, true)
	}
	if got, want := cfg.Postgres.ConnectionString, "postgres://u:p@db:5432/site"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := cfg.Server.Port, 9000; got != want {
		t.Errorf("got %d, want %d", got, want)
	}
	if got, want := cfg.Server.AllowedOrigins, []string{"https://a.example.org", "https://b.example.org"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := cfg.Builder.Path, "/usr/local/bin/builder"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := cfg.Builder.Timeout, 2*time.Minute; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if got, want := cfg.Schedule.ReapInterval, 30*time.Second; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParseConfigEmpty(t *testing.T) {
	cfg, err := parseConfig(nil)
	if err != nil {
		t.Fatalf("didn't want %v", err)
	}
	if cfg.Development {
		t.Errorf("didn't want development")
	}
}
