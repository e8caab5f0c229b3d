package orch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper periodically expires sessions past their maximum lifetime.
// It implements suture.Service.
type Sweeper struct {
	Orch     *Orchestrator
	Interval time.Duration
}

func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.Orch.Sweep(); n > 0 {
				log.Info().Str("module", "orch").Int("expired", n).Msg("sweep")
			}
		}
	}
}

func (s *Sweeper) String() string { return "session-sweeper" }
