package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"sceneforge/internal/domain"
	"sceneforge/internal/events"
	"sceneforge/internal/progress"
)

// Reaper fails jobs left in processing by a crashed or restarted process.
type Reaper struct {
	jobs        domain.JobRepository
	progress    *progress.Tracker
	events      events.Publisher
	maxDuration time.Duration
	logger      zerolog.Logger
}

// NewReaper builds a reaper. tracker may be nil when the reaper runs out of process.
func NewReaper(jobs domain.JobRepository, tracker *progress.Tracker, pub events.Publisher, maxDuration time.Duration, logger zerolog.Logger) *Reaper {
	if pub == nil {
		pub = events.Noop{}
	}
	if maxDuration <= 0 {
		maxDuration = 10 * time.Minute
	}
	return &Reaper{
		jobs:        jobs,
		progress:    tracker,
		events:      pub,
		maxDuration: maxDuration,
		logger:      logger.With().Str("component", "reaper").Logger(),
	}
}

// Sweep fails every job processing for longer than the max duration and returns their ids.
func (r *Reaper) Sweep(ctx context.Context) ([]string, error) {
	msg := fmt.Sprintf("%s: processing exceeded %s", domain.ErrOrphaned, r.maxDuration)
	ids, err := r.jobs.FailStale(ctx, r.maxDuration, msg)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if r.progress != nil {
			r.progress.Fail(id, msg)
		}
		if err := r.events.Publish(ctx, events.Event{Type: events.JobFailed, JobID: id, Status: string(domain.JobStatusFailed), Error: msg, At: time.Now().UTC()}); err != nil {
			r.logger.Debug().Err(err).Str("job_id", id).Msg("reaper: event not published")
		}
	}
	if len(ids) > 0 {
		r.logger.Warn().Int("count", len(ids)).Strs("job_ids", ids).Msg("reaper: orphaned jobs failed")
	}
	return ids, nil
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error().Err(err).Msg("reaper: sweep failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
