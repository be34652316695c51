package proposal

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically expires overdue pending proposals. The sweep is
// idempotent and safe to run concurrently with user-initiated confirms and
// rejects: both sides race on the same status check-and-set.
type Sweeper struct {
	service  Service
	interval time.Duration
}

// NewSweeper creates a sweeper that runs at the given interval.
func NewSweeper(service Service, interval time.Duration) *Sweeper {
	return &Sweeper{service: service, interval: interval}
}

// Run blocks, sweeping until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.service.CleanupExpired(ctx)
			if err != nil {
				log.Printf("proposal sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("proposal sweep expired %d proposals", n)
			}
		}
	}
}
