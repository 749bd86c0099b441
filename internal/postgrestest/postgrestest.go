// Package postgrestest starts disposable Postgres containers for tests.
package postgrestest

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/k11v/sitebuild/internal/postgresprovision"
)

// Setup starts a Postgres container with every migration applied.
// The returned teardown is never nil and must be called even when err is not nil.
func Setup(ctx context.Context) (connectionString string, teardown func() error, err error) {
	teardown = func() error { return nil }

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if c != nil {
		teardown = func() error { return c.Terminate(context.Background()) }
	}
	if err != nil {
		return "", teardown, fmt.Errorf("postgrestest: %w", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		return "", teardown, fmt.Errorf("postgrestest: %w", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return "", teardown, fmt.Errorf("postgrestest: %w", err)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword("postgres", "postgres"),
		Host:     net.JoinHostPort(host, port.Port()),
		Path:     "/postgres",
		RawQuery: "sslmode=disable",
	}
	connectionString = u.String()

	if err = postgresprovision.Setup(connectionString); err != nil {
		return "", teardown, fmt.Errorf("postgrestest: %w", err)
	}

	return connectionString, teardown, nil
}
