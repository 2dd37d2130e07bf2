package events

import (
	"context"
	"time"
)

// Type names a job lifecycle event.
type Type string

const (
	JobSubmitted Type = "job.submitted"
	JobStage     Type = "job.stage"
	JobCompleted Type = "job.completed"
	JobFailed    Type = "job.failed"
	JobDeleted   Type = "job.deleted"
	JobRestored  Type = "job.restored"
)

// Event is published after a job changes state.
type Event struct {
	Type       Type      `json:"type"`
	JobID      string    `json:"jobId"`
	OwnerID    string    `json:"ownerId"`
	Status     string    `json:"status,omitempty"`
	Stage      string    `json:"stage,omitempty"`
	Percent    int       `json:"progressPercent,omitempty"`
	Model      string    `json:"model,omitempty"`
	ImageCount int       `json:"imageCount,omitempty"`
	Error      string    `json:"errorMessage,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher fans lifecycle events out. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close()
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close()                               {}
