package amqputil

import (
	"context"
	"fmt"
	"sync"

	"github.com/rabbitmq/amqp091-go"
)

type QueueDeclareParams struct {
	Name       string
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	NoWait     bool
	Args       amqp091.Table
}

// Client publishes to a single declared queue.
// The connection is dialed lazily and redialed after it closes.
type Client struct {
	connectionString   string
	queueDeclareParams *QueueDeclareParams

	mu       sync.Mutex
	conn     *amqp091.Connection
	declared bool
}

func NewClient(connectionString string, queueDeclareParams *QueueDeclareParams) *Client {
	return &Client{
		connectionString:   connectionString,
		queueDeclareParams: queueDeclareParams,
	}
}

// Publish proxies [amqp091.Channel.PublishWithContext].
func (cli *Client) Publish(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	ch, err := cli.channel()
	if err != nil {
		return fmt.Errorf("amqputil: %w", err)
	}
	defer ch.Close()

	if err = ch.PublishWithContext(ctx, exchange, key, mandatory, immediate, msg); err != nil {
		return fmt.Errorf("amqputil: %w", err)
	}
	return nil
}

func (cli *Client) channel() (*amqp091.Channel, error) {
	cli.mu.Lock()
	defer cli.mu.Unlock()

	if cli.conn == nil || cli.conn.IsClosed() {
		conn, err := amqp091.Dial(cli.connectionString)
		if err != nil {
			return nil, err
		}
		cli.conn = conn
		cli.declared = false
	}

	ch, err := cli.conn.Channel()
	if err != nil {
		return nil, err
	}

	if !cli.declared && cli.queueDeclareParams != nil {
		_, err = ch.QueueDeclare(
			cli.queueDeclareParams.Name,
			cli.queueDeclareParams.Durable,
			cli.queueDeclareParams.AutoDelete,
			cli.queueDeclareParams.Exclusive,
			cli.queueDeclareParams.NoWait,
			cli.queueDeclareParams.Args,
		)
		if err != nil {
			_ = ch.Close()
			return nil, err
		}
		cli.declared = true
	}

	return ch, nil
}

// Close closes the underlying connection if one was dialed.
func (cli *Client) Close() error {
	cli.mu.Lock()
	defer cli.mu.Unlock()

	if cli.conn == nil || cli.conn.IsClosed() {
		return nil
	}
	return cli.conn.Close()
}
