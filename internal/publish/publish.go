// Package publish deploys a rendered site directory.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/k11v/sitebuild/internal/s3util"
)

type Kind string

const (
	KindNone    Kind = "none"
	KindS3      Kind = "s3"
	KindCommand Kind = "command"
)

type Publisher interface {
	Publish(ctx context.Context, dir string) error
}

type Config struct {
	Kind               Kind          `env:"KIND"`                 // default: "none"
	S3ConnectionString string        `env:"S3_CONNECTION_STRING"` // required if Kind is "s3"
	S3Bucket           string        `env:"S3_BUCKET"`            // default: "site"
	Command            string        `env:"COMMAND"`              // default: DefaultCommand
	Timeout            time.Duration `env:"TIMEOUT"`              // default: 5m
}

func (c *Config) kind() Kind {
	if c.Kind == "" {
		return KindNone
	}
	return c.Kind
}

func (c *Config) S3BucketOrDefault() string {
	if c.S3Bucket == "" {
		return "site"
	}
	return c.S3Bucket
}

// DefaultCommand deploys the output root to Cloudflare Pages.
const DefaultCommand = "wrangler pages deploy . --project-name withmigrant --branch main"

func (c *Config) command() string {
	if c.Command == "" {
		return DefaultCommand
	}
	return c.Command
}

func (c *Config) timeout() time.Duration {
	if c.Timeout == 0 {
		return 5 * time.Minute
	}
	return c.Timeout
}

// New returns the publisher selected by cfg.
func New(cfg *Config, log *slog.Logger) (Publisher, error) {
	switch cfg.kind() {
	case KindNone:
		return Noop{}, nil
	case KindS3:
		if cfg.S3ConnectionString == "" {
			return nil, fmt.Errorf("publish.New: s3 connection string is empty")
		}
		return &S3Publisher{
			Client: s3util.NewClient(cfg.S3ConnectionString),
			Bucket: cfg.S3BucketOrDefault(),
			Log:    log,
		}, nil
	case KindCommand:
		return &CommandPublisher{Command: cfg.command(), Timeout: cfg.timeout(), Log: log}, nil
	default:
		return nil, fmt.Errorf("publish.New: unknown kind %q", cfg.Kind)
	}
}

// Noop publishes nothing. The rendered directory is served as is.
type Noop struct{}

func (Noop) Publish(context.Context, string) error { return nil }
