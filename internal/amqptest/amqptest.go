// Package amqptest starts disposable RabbitMQ containers for tests.
package amqptest

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Setup starts a RabbitMQ broker and returns its amqp:// connection string.
// The returned teardown is never nil and must be called even when err is not nil.
func Setup(ctx context.Context) (connectionString string, teardown func() error, err error) {
	teardown = func() error { return nil }

	username := "guest"
	password := "guest"

	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "rabbitmq:4.0-alpine",
			Env: map[string]string{
				"RABBITMQ_DEFAULT_USER": username,
				"RABBITMQ_DEFAULT_PASS": password,
			},
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForLog(".*Server startup complete.*").AsRegexp().WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	}
	c, err := testcontainers.GenericContainer(ctx, req)
	if c != nil {
		teardown = func() error { return c.Terminate(context.Background()) }
	}
	if err != nil {
		return "", teardown, fmt.Errorf("amqptest: %w", err)
	}

	endpoint, err := c.PortEndpoint(ctx, "5672/tcp", "")
	if err != nil {
		return "", teardown, fmt.Errorf("amqptest: %w", err)
	}
	return fmt.Sprintf("amqp://%s:%s@%s", username, password, endpoint), teardown, nil
}
