package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/beetl-xyz/beetl-api/internal/app/model"
	apprepository "github.com/beetl-xyz/beetl-api/internal/app/repository"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// BidEventConsumer consumes bid activity events from NATS JetStream and
// persists them as activity rows.
type BidEventConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   apprepository.BidEventRepository
}

// NewBidEventConsumer creates a new bid activity consumer
func NewBidEventConsumer(js nats.JetStreamContext, logger *zap.Logger, repo apprepository.BidEventRepository) *BidEventConsumer {
	return &BidEventConsumer{js: js, logger: logger, repo: repo}
}

// Start ensures the stream and durable consumer exist, then begins
// consuming in the background.
func (c *BidEventConsumer) Start() error {
	_, err := c.js.StreamInfo(model.BidStreamName)
	if err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.BidStreamName,
			Subjects: []string{model.BidStreamSubject},
			MaxBytes: model.BidStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	_, err = c.js.ConsumerInfo(model.BidStreamName, model.BidConsumerName)
	if err != nil {
		_, err = c.js.AddConsumer(model.BidStreamName, &nats.ConsumerConfig{
			Durable:   model.BidConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.BidStreamSubject, model.BidConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

func (c *BidEventConsumer) consume(sub *nats.Subscription) {
	ctx := context.Background()
	for {
		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && err != nats.ErrTimeout {
			c.logger.Error("failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			var event model.BidEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				c.logger.Error("failed to unmarshal bid event", zap.Error(err))
				msg.Nak()
				continue
			}

			if err := c.repo.Create(ctx, &event); err != nil {
				c.logger.Error("failed to store bid event",
					zap.String("id", event.ID),
					zap.String("beetl_obfuscation", event.BeetlObfuscation),
					zap.String("beetl_slug", event.BeetlSlug),
					zap.Error(err))
				msg.Nak()
				continue
			}

			c.logger.Debug("bid event stored",
				zap.String("id", event.ID),
				zap.String("beetl_obfuscation", event.BeetlObfuscation),
				zap.String("beetl_slug", event.BeetlSlug),
				zap.String("action", event.Action),
				zap.Time("timestamp", event.Timestamp),
			)

			msg.Ack()
		}
	}
}
