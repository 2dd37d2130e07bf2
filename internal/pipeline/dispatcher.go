package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// ErrDispatcherClosed is returned by Dispatch after Shutdown started.
var ErrDispatcherClosed = errors.New("dispatcher is shutting down")

// Dispatcher runs jobs in their own goroutines with bounded concurrency.
// Jobs run on a base context detached from the submitting request.
type Dispatcher struct {
	base   context.Context
	cancel context.CancelFunc
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	logger zerolog.Logger

	mu     sync.Mutex
	closed bool
}

func NewDispatcher(maxConcurrent int, logger zerolog.Logger) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	base, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		base:   base,
		cancel: cancel,
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
		logger: logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch schedules fn and returns immediately. fn waits for a free slot, the caller does not.
func (d *Dispatcher) Dispatch(jobID string, fn func(ctx context.Context)) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		if err := d.sem.Acquire(d.base, 1); err != nil {
			d.logger.Warn().Str("job_id", jobID).Msg("dispatcher: job dropped before start")
			return
		}
		defer d.sem.Release(1)
		defer func() {
			if rec := recover(); rec != nil {
				d.logger.Error().Str("job_id", jobID).Interface("panic", rec).Msg("dispatcher: job panicked")
			}
		}()
		fn(d.base)
	}()
	return nil
}

// Shutdown stops accepting work and waits for running jobs until ctx ends.
// Jobs still waiting for a slot when ctx ends are dropped and left to the reaper.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}
