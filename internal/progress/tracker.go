package progress

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Stage names a step of the job pipeline.
type Stage string

const (
	StageQueued             Stage = "queued"
	StageLoadingScene       Stage = "loading_scene"
	StagePreparingPrompt    Stage = "preparing_prompt"
	StageLoadingSourceImage Stage = "loading_source_image"
	StageCallingModel       Stage = "calling_model"
	StageProcessingResult   Stage = "processing_result"
	StageSavingImages       Stage = "saving_images"
	StageCompleted          Stage = "completed"
	StageFailed             Stage = "failed"
)

var checkpoints = map[Stage]int{
	StageQueued:             0,
	StageLoadingScene:       10,
	StagePreparingPrompt:    20,
	StageLoadingSourceImage: 30,
	StageCallingModel:       40,
	StageProcessingResult:   70,
	StageSavingImages:       80,
	StageCompleted:          100,
}

// Checkpoint returns the percent reached when a stage starts.
func Checkpoint(s Stage) (int, bool) {
	p, ok := checkpoints[s]
	return p, ok
}

// Terminal reports whether no further stage follows s.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// DefaultEstimate is the expected duration of a whole job.
const DefaultEstimate = 30 * time.Second

// Meta is the job context recorded with an entry.
type Meta struct {
	OwnerID       string
	SourceImageID string
	SceneID       int64
}

// Entry is a snapshot of a job's progress.
type Entry struct {
	JobID          string
	Stage          Stage
	Percent        int
	StartedAt      time.Time
	UpdatedAt      time.Time
	EstimatedTotal time.Duration
	LastError      string
	Meta
}

// EstimatedRemaining is max(0, EstimatedTotal - elapsed).
func (e Entry) EstimatedRemaining(now time.Time) time.Duration {
	remaining := e.EstimatedTotal - now.Sub(e.StartedAt)
	if remaining < 0 || e.Stage.Terminal() {
		return 0
	}
	return remaining
}

// Update moves an entry forward. A zero Percent means the stage checkpoint.
type Update struct {
	Stage   Stage
	Percent int
	Err     string
}

// Tracker keeps in-memory progress for running jobs. Terminal entries expire after the grace period.
type Tracker struct {
	mu       sync.Mutex
	entries  *cache.Cache
	grace    time.Duration
	estimate time.Duration
	now      func() time.Time
}

// NewTracker builds a tracker whose terminal entries live for grace.
func NewTracker(grace time.Duration) *Tracker {
	if grace <= 0 {
		grace = time.Minute
	}
	cleanup := grace / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	return &Tracker{
		entries:  cache.New(cache.NoExpiration, cleanup),
		grace:    grace,
		estimate: DefaultEstimate,
		now:      time.Now,
	}
}

// Create registers a queued entry for a new job.
func (t *Tracker) Create(jobID string, meta Meta) Entry {
	now := t.now()
	e := Entry{
		JobID:          jobID,
		Stage:          StageQueued,
		StartedAt:      now,
		UpdatedAt:      now,
		EstimatedTotal: t.estimate,
		Meta:           meta,
	}
	t.mu.Lock()
	t.entries.Set(jobID, e, cache.NoExpiration)
	t.mu.Unlock()
	return e
}

// Update applies u to the entry. Unknown ids and terminal entries are left untouched; the percent
// never decreases.
func (t *Tracker) Update(jobID string, u Update) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	raw, ok := t.entries.Get(jobID)
	if !ok {
		return Entry{}, false
	}
	e := raw.(Entry)
	if e.Stage.Terminal() {
		return e, true
	}

	percent := u.Percent
	if percent == 0 {
		percent = checkpoints[u.Stage]
	}
	if percent > 100 {
		percent = 100
	}
	if percent > e.Percent {
		e.Percent = percent
	}
	if u.Stage != "" {
		e.Stage = u.Stage
	}
	if u.Err != "" {
		e.LastError = u.Err
	}
	e.UpdatedAt = t.now()

	ttl := cache.NoExpiration
	if e.Stage.Terminal() {
		ttl = t.grace
	}
	t.entries.Set(jobID, e, ttl)
	return e, true
}

// Advance moves the entry to stage at its checkpoint.
func (t *Tracker) Advance(jobID string, stage Stage) (Entry, bool) {
	return t.Update(jobID, Update{Stage: stage})
}

// Complete marks the entry completed and schedules its removal.
func (t *Tracker) Complete(jobID string) (Entry, bool) {
	return t.Update(jobID, Update{Stage: StageCompleted, Percent: 100})
}

// Fail records msg and schedules removal. The percent stays where the job stopped.
func (t *Tracker) Fail(jobID, msg string) (Entry, bool) {
	if msg == "" {
		msg = "unknown error"
	}
	return t.Update(jobID, Update{Stage: StageFailed, Err: msg})
}

// Get returns a copy of the entry.
func (t *Tracker) Get(jobID string) (Entry, bool) {
	raw, ok := t.entries.Get(jobID)
	if !ok {
		return Entry{}, false
	}
	return raw.(Entry), true
}

func (t *Tracker) Remove(jobID string) {
	t.entries.Delete(jobID)
}

// Len returns the number of live entries.
func (t *Tracker) Len() int {
	return t.entries.ItemCount()
}
