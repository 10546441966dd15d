package service

import (
	"context"
	"time"
)

// DefaultSweepInterval is how often expired revocations are dropped.
const DefaultSweepInterval = time.Minute

// StartTokenSweeper runs a background loop that drops expired entries from
// the token denylist every interval. It blocks until the context is
// cancelled, so it should be launched in a separate goroutine. It returns
// at once when revocation is disabled.
func (s *Service) StartTokenSweeper(ctx context.Context, interval time.Duration) {
	if !s.tokens.RevocationEnabled() {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Token sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Token sweeper stopped")
			return
		case <-ticker.C:
			s.sweepTokens()
		}
	}
}

func (s *Service) sweepTokens() {
	if dropped := s.tokens.Sweep(); dropped > 0 {
		s.logger.WithField("dropped", dropped).Debug("Swept expired token revocations")
	}
}
