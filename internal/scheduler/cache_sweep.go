// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// CacheSweeper is the part of the catalog searcher the sweep job needs.
type CacheSweeper interface {
	EvictExpired() int
}

// CacheSweepScheduler periodically evicts expired catalog search results so
// the cache does not grow without bound between searches.
type CacheSweepScheduler struct {
	sweeper  CacheSweeper
	schedule string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewCacheSweepScheduler creates a scheduler for the given sweeper. The
// schedule uses the standard five-field cron format.
func NewCacheSweepScheduler(sweeper CacheSweeper, schedule string) *CacheSweepScheduler {
	return &CacheSweepScheduler{
		sweeper:  sweeper,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the periodic sweep. Calling Start on a running scheduler is
// a no-op.
func (s *CacheSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Catalog cache sweep: started with schedule '%s'", s.schedule)

	// Monitor for context cancellation
	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep to
// complete.
func (s *CacheSweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Catalog cache sweep: stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *CacheSweepScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *CacheSweepScheduler) runSweep() {
	evicted := s.sweeper.EvictExpired()
	if evicted > 0 {
		log.Printf("Catalog cache sweep: evicted %d expired entries", evicted)
	}
}
