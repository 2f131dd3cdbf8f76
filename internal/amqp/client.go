// Package amqp broadcasts rule-cache invalidations between processes. The
// exchange is a fanout: every running instance binds its own transient queue
// and hears every mutation, so a rule change on one instance reaches the
// others without restarts.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"worklens/internal/core"
	applog "worklens/internal/log"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	origin       string
}

func NewClient(url, exchangeName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	hostname, _ := os.Hostname()
	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		origin:       fmt.Sprintf("%s/%d", hostname, os.Getpid()),
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"fanout",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Per-instance transient queue; the broker names it.
	queue, err := c.channel.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	c.queueName = queue.Name

	err = c.channel.QueueBind(
		c.queueName,
		"", // fanout ignores routing keys
		c.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishInvalidation implements services.InvalidationPublisher.
func (c *Client) PublishInvalidation(ctx context.Context, axes ...core.RuleAxis) error {
	msg := NewInvalidationMessage(c.origin, axes)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		"",    // routing key
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.DebugContext(ctx, "Published cache invalidation",
		applog.FieldComponent, applog.ComponentAMQP,
		applog.FieldAxis, axes,
		"exchange", c.exchangeName)

	return nil
}

// ConsumeInvalidations applies incoming invalidations until the context is
// cancelled. Messages published by this instance are skipped; the local
// cache was already invalidated synchronously.
func (c *Client) ConsumeInvalidations(ctx context.Context, handler func(axes []core.RuleAxis)) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		true,        // auto-ack; a lost invalidation is only a stale cache
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Listening for cache invalidations", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping invalidation consumer", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := InvalidationMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal invalidation", "error", err)
				continue
			}
			if msg.Origin == c.origin {
				continue
			}

			slog.InfoContext(ctx, "Applying remote cache invalidation",
				applog.FieldAxis, msg.Axes, "origin", msg.Origin)
			handler(msg.Axes)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
