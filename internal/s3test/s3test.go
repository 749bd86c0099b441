// Package s3test starts disposable S3-compatible storage for tests.
package s3test

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Setup starts a MinIO container and returns its connection string in the
// format accepted by s3util.NewClient.
// The returned teardown is never nil and must be called even when err is not nil.
func Setup(ctx context.Context) (connectionString string, teardown func() error, err error) {
	teardown = func() error { return nil }

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:RELEASE.2024-11-07T00-52-20Z",
		ExposedPorts: []string{"9000/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "minioadmin",
			"MINIO_ROOT_PASSWORD": "minioadmin",
		},
		WaitingFor: wait.ForHTTP("/minio/health/live").
			WithPort("9000/tcp").
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
		return "", teardown, fmt.Errorf("s3test: %w", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		return "", teardown, fmt.Errorf("s3test: %w", err)
	}
	port, err := c.MappedPort(ctx, "9000/tcp")
	if err != nil {
		return "", teardown, fmt.Errorf("s3test: %w", err)
	}

	u := url.URL{
		Scheme: "http",
		User:   url.UserPassword("minioadmin", "minioadmin"),
		Host:   net.JoinHostPort(host, port.Port()),
	}
	return u.String(), teardown, nil
}
