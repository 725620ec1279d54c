package service

import (
	"encoding/json"
	"time"

	"github.com/beetl-xyz/beetl-api/internal/app/model"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// BidEventPublisher publishes bid activity events to NATS JetStream
type BidEventPublisher struct {
	js nats.JetStreamContext
}

// NewBidEventPublisher creates a new bid activity publisher
func NewBidEventPublisher(js nats.JetStreamContext) *BidEventPublisher {
	return &BidEventPublisher{js: js}
}

// Publish publishes a placed-bid event to the stream
func (p *BidEventPublisher) Publish(beetlObfuscation, beetlSlug, bidName string) error {
	event := model.BidEvent{
		ID:               uuid.New().String(),
		BeetlObfuscation: beetlObfuscation,
		BeetlSlug:        beetlSlug,
		BidName:          bidName,
		Action:           model.BidActionPlaced,
		Timestamp:        time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.BidStreamSubject, data)
	return err
}
