package model

import "time"

// BidEvent is an activity record written whenever a bid is placed.
// Events flow through JetStream and are persisted by the consumer, so a
// slow Postgres never sits on the bid-creation path.
type BidEvent struct {
	ID               string    `json:"id" gorm:"primaryKey;size:36"`
	BeetlObfuscation string    `json:"beetl_obfuscation" gorm:"size:16;index:idx_bid_events_beetl_key"`
	BeetlSlug        string    `json:"beetl_slug" gorm:"size:64;index:idx_bid_events_beetl_key"`
	BidName          string    `json:"bid_name" gorm:"size:255"`
	Action           string    `json:"action" gorm:"size:16"`
	Timestamp        time.Time `json:"timestamp"`
}

const (
	BidActionPlaced = "placed"

	BidStreamName     = "BIDS"
	BidStreamSubject  = "bids.events"
	BidConsumerName   = "bid-logger"
	BidStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
