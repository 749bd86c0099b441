package build

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/k11v/sitebuild/internal/amqputil"
)

// AMQPNotifier publishes a "build.completed" message for every finished build.
type AMQPNotifier struct {
	Client *amqputil.Client // required
	Queue  string           // routing key on the default exchange
}

func (n *AMQPNotifier) Notify(ctx context.Context, b *Build) error {
	type message struct {
		ID           int64      `json:"id"`
		Status       Status     `json:"status"`
		TriggeredBy  string     `json:"triggered_by"`
		ErrorMessage *string    `json:"error_message"`
		CompletedAt  *time.Time `json:"completed_at"`
	}

	body, err := json.Marshal(message{
		ID:           b.ID,
		Status:       b.Status,
		TriggeredBy:  b.TriggeredBy,
		ErrorMessage: b.ErrorMessage,
		CompletedAt:  b.CompletedAt,
	})
	if err != nil {
		return fmt.Errorf("build.AMQPNotifier: %w", err)
	}

	err = n.Client.Publish(ctx, "", n.Queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Type:         "build.completed",
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("build.AMQPNotifier: %w", err)
	}
	return nil
}
