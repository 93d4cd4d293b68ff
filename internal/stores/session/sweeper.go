package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ethanbaker/learnwithai/pkg/workflow"
	"github.com/robfig/cron/v3"
)

// Sweeper periodically deletes sessions idle for longer than the TTL
type Sweeper struct {
	store workflow.Store
	ttl   time.Duration
	cron  *cron.Cron
	now   func() time.Time
}

// NewSweeper schedules expiry of idle sessions on the given cron spec
// (for example "@every 10m")
func NewSweeper(store workflow.Store, ttl time.Duration, spec string) (*Sweeper, error) {
	if store == nil {
		return nil, fmt.Errorf("a valid store must be provided")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", ttl)
	}

	s := &Sweeper{
		store: store,
		ttl:   ttl,
		cron:  cron.New(),
		now:   time.Now,
	}

	if _, err := s.cron.AddFunc(spec, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			log.Printf("[SESSION-SWEEPER]: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}

	return s, nil
}

// Start begins the sweeper's schedule
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep removes expired sessions once
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	removed, err := s.store.Expire(ctx, s.now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		log.Printf("[SESSION-SWEEPER]: expired %d idle sessions", removed)
	}
	return removed, nil
}
