package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusDeleted    JobStatus = "deleted"
)

// Terminal reports whether the status ends the processing lifecycle.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether moving from s to next is an allowed edge.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed
	case JobStatusCompleted, JobStatusFailed:
		return next == JobStatusDeleted
	case JobStatusDeleted:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// Job is the durable record of one image transformation request.
type Job struct {
	ID            string
	OwnerID       string
	SourceImageID string
	SceneID       int64
	SceneType     string
	SceneName     string
	UserPrompt    string
	Model         string
	Status        JobStatus
	ResultPayload []byte
	ErrorMessage  string
	ProcessTimeMS int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// JobSummary is the listing view of a job used by history, trash and favorites.
type JobSummary struct {
	ID            string
	SceneID       int64
	SceneType     string
	SceneName     string
	Status        JobStatus
	ImageCount    int
	ProcessTimeMS int64
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	FavoritedAt   *time.Time
}

// Page bounds a listing query.
type Page struct {
	Number int
	Size   int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage clamps a page to sane bounds.
func NormalizePage(number, size int) Page {
	if number <= 0 {
		number = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset returns the row offset of the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}
