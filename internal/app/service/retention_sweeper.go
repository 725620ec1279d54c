package service

import (
	"context"
	"time"

	apprepository "github.com/beetl-xyz/beetl-api/internal/app/repository"
	"go.uber.org/zap"
)

// RetentionSweeper periodically deletes beetls, bids and bid events that
// have not been touched for longer than the configured retention age.
// It runs as a singleton goroutine; a sweep never overlaps the next one
// because both happen on the same ticker loop.
type RetentionSweeper struct {
	logger   *zap.Logger
	beetls   apprepository.BeetlRepository
	bids     apprepository.BidRepository
	events   apprepository.BidEventRepository
	maxAge   time.Duration
	interval time.Duration
	stopChan chan struct{}
}

// NewRetentionSweeper creates a sweeper that removes entries older than
// maxAge, checking every interval.
func NewRetentionSweeper(
	logger *zap.Logger,
	beetls apprepository.BeetlRepository,
	bids apprepository.BidRepository,
	events apprepository.BidEventRepository,
	maxAge time.Duration,
	interval time.Duration,
) *RetentionSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RetentionSweeper{
		logger:   logger,
		beetls:   beetls,
		bids:     bids,
		events:   events,
		maxAge:   maxAge,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic sweep.
func (s *RetentionSweeper) Start() {
	go s.run()
}

// Stop stops the periodic sweep.
func (s *RetentionSweeper) Stop() {
	close(s.stopChan)
}

func (s *RetentionSweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopChan:
			s.logger.Info("retention sweeper stopped")
			return
		}
	}
}

// Sweep performs one retention pass. Bids go before beetls so a sweep
// interrupted halfway never leaves bids pointing at a deleted beetl.
func (s *RetentionSweeper) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.maxAge)

	bids, err := s.bids.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to sweep stale bids", zap.Error(err))
		return
	}

	beetls, err := s.beetls.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to sweep stale beetls", zap.Error(err))
		return
	}

	var events int64
	if s.events != nil {
		events, err = s.events.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			s.logger.Error("failed to sweep stale bid events", zap.Error(err))
			return
		}
	}

	if bids > 0 || beetls > 0 || events > 0 {
		s.logger.Info("retention sweep removed stale entries",
			zap.Int64("beetls", beetls),
			zap.Int64("bids", bids),
			zap.Int64("bid_events", events),
			zap.Time("cutoff", cutoff),
		)
	}
}
