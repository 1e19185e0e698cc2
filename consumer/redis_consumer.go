package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event represents a content-change event published by the CMS.
type Event struct {
	MessageID string          `json:"message_id"`
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Source    string          `json:"source"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

// EventHandler processes events consumed from the stream.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// Consumer consumes content-change events from a Redis Stream.
type Consumer struct {
	client  *redis.Client
	config  Config
	handler EventHandler
	logger  *slog.Logger
}

// NewConsumer creates a new Redis Streams consumer.
func NewConsumer(cfg Config, handler EventHandler, logger *slog.Logger) (*Consumer, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	return &Consumer{
		client:  client,
		config:  cfg,
		handler: handler,
		logger:  logger,
	}, nil
}

// Start begins consuming events. Blocks until the context is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	if !c.config.Enabled {
		c.logger.Info("consumer disabled, skipping start")
		return nil
	}

	if err := c.ensureConsumerGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	c.logger.Info("starting event consumer",
		"stream", c.config.StreamKey,
		"group", c.config.GroupName,
		"consumer", c.config.ConsumerName)

	return c.consumeLoop(ctx)
}

// Close releases the underlying Redis connection.
func (c *Consumer) Close() error {
	return c.client.Close()
}

// ensureConsumerGroup creates the consumer group if it does not exist.
// BUSYGROUP means another replica got there first, which is fine.
func (c *Consumer) ensureConsumerGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.config.StreamKey, c.config.GroupName, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping", "reason", ctx.Err())
			return ctx.Err()
		default:
		}

		if err := c.readAndProcess(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("read and process failed", "error", err)
			time.Sleep(time.Second)
		}
	}
}

func (c *Consumer) readAndProcess(ctx context.Context) error {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.config.GroupName,
		Consumer: c.config.ConsumerName,
		Streams:  []string{c.config.StreamKey, ">"},
		Count:    c.config.BatchSize,
		Block:    c.config.BlockTimeout,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return err
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			event, err := c.parseEvent(message)
			if err != nil {
				c.logger.Error("parse event failed",
					"message_id", message.ID,
					"error", err)
				// Poisoned messages are acked so they do not block the group.
				c.ack(ctx, message.ID)
				continue
			}

			if err := c.handler.HandleEvent(ctx, event); err != nil {
				c.logger.Error("handle event failed",
					"message_id", message.ID,
					"event_type", event.EventType,
					"error", err)
				continue
			}

			c.ack(ctx, message.ID)
		}
	}
	return nil
}

func (c *Consumer) ack(ctx context.Context, messageID string) {
	if err := c.client.XAck(ctx, c.config.StreamKey, c.config.GroupName, messageID).Err(); err != nil {
		c.logger.Error("ack failed", "message_id", messageID, "error", err)
	}
}

func (c *Consumer) parseEvent(message redis.XMessage) (*Event, error) {
	event := &Event{MessageID: message.ID}

	if v, ok := message.Values["event_id"].(string); ok {
		event.EventID = v
	}
	if v, ok := message.Values["event_type"].(string); ok {
		event.EventType = v
	}
	if v, ok := message.Values["source"].(string); ok {
		event.Source = v
	}
	if v, ok := message.Values["created_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			event.CreatedAt = t
		}
	}
	if v, ok := message.Values["payload"].(string); ok {
		event.Payload = json.RawMessage(v)
	}

	if event.EventType == "" {
		return nil, fmt.Errorf("message %s has no event_type", message.ID)
	}
	return event, nil
}
