package memory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"itravel/pkg/observability"
)

func (s *Store) startSweeper() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Sweep removes every expired entry and returns how many were removed
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var expired []*entry
	for _, e := range s.items {
		if !now.Before(e.expiresAt) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		s.remove(e)
	}

	if len(expired) > 0 {
		s.metrics.RecordExpirations(observability.TierClient, len(expired))
		s.logger.Debug("Swept expired cache entries",
			zap.Int("count", len(expired)),
		)
	}
	return len(expired)
}

// Close stops the sweep task and empties the store. It is safe to call twice.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.wg.Wait()

		s.mu.Lock()
		s.items = make(map[string]*entry)
		s.order.Init()
		s.mu.Unlock()
	})
	return nil
}
