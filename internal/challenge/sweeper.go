package challenge

import (
	"context"
	"log/slog"
	"time"

	"chainpass/internal/platform/metrics"
)

// Sweepable is anything the background sweep can clean. The Redis ledger
// relies on native TTLs instead and never needs one.
type Sweepable interface {
	Sweep() int
}

// Sweeper periodically drops abandoned challenges so the ledger's memory
// stays bounded even when clients never call complete.
type Sweeper struct {
	ledger   Sweepable
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewSweeper(ledger Sweepable, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Sweeper {
	return &Sweeper{ledger: ledger, interval: interval, logger: logger, metrics: m}
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if swept := s.ledger.Sweep(); swept > 0 {
				s.metrics.AddChallengesSwept(swept)
				s.logger.DebugContext(ctx, "swept expired challenges", "count", swept)
			}
		}
	}
}
