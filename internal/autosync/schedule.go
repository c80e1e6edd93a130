package autosync

import (
	"context"
	"time"
)

// Start schedules one cycle to run after delay on a goroutine owned by the
// Syncer. It returns immediately. Cancelling ctx, or calling Stop, before
// the delay elapses drops the cycle; once started the cycle ignores both.
func (s *Syncer) Start(ctx context.Context, delay time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	id := s.nextJob
	s.nextJob++
	s.pending[id] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			s.forget(id)
			s.log.Info(ctx, "scheduled sync canceled before start")
			return
		case <-timer.C:
		}

		s.forget(id)
		s.PerformSync(context.WithoutCancel(ctx))
	}()

	s.log.Info(ctx, "sync scheduled", "delay", delay)
}

// Wait blocks until every scheduled cycle has run or been canceled.
func (s *Syncer) Wait() {
	s.wg.Wait()
}

// Stop cancels the cycles still waiting for their delay and waits for the
// running one to finish.
func (s *Syncer) Stop() {
	s.mu.Lock()
	for id, cancel := range s.pending {
		cancel()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Syncer) forget(id int) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}
