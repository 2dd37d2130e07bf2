// Package memstore keeps domain records in memory with the same transition rules as the SQL repositories.
// It is a test double: pipeline and HTTP tests use it in place of PostgreSQL, and no binary wires it.
package memstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"sceneforge/internal/domain"
)

// Store holds every table.
type Store struct {
	mu        sync.Mutex
	jobs      map[string]*domain.Job
	sources   map[string]*domain.SourceImage
	scenes    map[int64]domain.SceneConfig
	index     map[string]domain.ImageIndexEntry
	favorites map[string]map[string]time.Time

	// IndexErr and CompleteErr inject write failures.
	IndexErr    error
	CompleteErr error
	now         func() time.Time
}

func New() *Store {
	return &Store{
		jobs:      map[string]*domain.Job{},
		sources:   map[string]*domain.SourceImage{},
		scenes:    map[int64]domain.SceneConfig{},
		index:     map[string]domain.ImageIndexEntry{},
		favorites: map[string]map[string]time.Time{},
		now:       time.Now,
	}
}

func (s *Store) Jobs() *Jobs                 { return &Jobs{s} }
func (s *Store) SourceImages() *SourceImages { return &SourceImages{s} }
func (s *Store) Scenes() *Scenes             { return &Scenes{s} }
func (s *Store) ImageIndex() *ImageIndex     { return &ImageIndex{s} }
func (s *Store) Favorites() *Favorites       { return &Favorites{s} }

// AddScene seeds a scene.
func (s *Store) AddScene(scene domain.SceneConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes[scene.ID] = scene
}

// AddSourceImage seeds an uploaded image.
func (s *Store) AddSourceImage(img domain.SourceImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := img
	s.sources[img.ID] = &cp
}

// Job returns a copy of a job regardless of owner.
func (s *Store) Job(id string) (domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return *j, true
}

// JobCount returns the number of stored jobs.
func (s *Store) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// IndexCount returns the number of secondary index rows.
func (s *Store) IndexCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// Backdate moves a job's creation time into the past.
func (s *Store) Backdate(id string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.CreatedAt = j.CreatedAt.Add(-d)
	}
}

type Jobs struct{ s *Store }

func (r *Jobs) Create(ctx context.Context, job *domain.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, dup := r.s.jobs[job.ID]; dup {
		return domain.ErrDuplicate
	}
	now := r.s.now()
	cp := *job
	cp.Status = domain.JobStatusProcessing
	cp.CreatedAt, cp.UpdatedAt = now, now
	r.s.jobs[job.ID] = &cp
	job.CreatedAt, job.UpdatedAt = now, now
	return nil
}

func (r *Jobs) GetForOwner(ctx context.Context, jobID, ownerID string) (*domain.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[jobID]
	if !ok || j.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *Jobs) Complete(ctx context.Context, jobID string, payload []byte, processTimeMS int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.CompleteErr != nil {
		return r.s.CompleteErr
	}
	j, ok := r.s.jobs[jobID]
	if !ok || j.Status != domain.JobStatusProcessing {
		return domain.ErrInvalidTransition
	}
	j.Status = domain.JobStatusCompleted
	j.ResultPayload = append([]byte(nil), payload...)
	j.ProcessTimeMS = processTimeMS
	j.ErrorMessage = ""
	j.UpdatedAt = r.s.now()
	return nil
}

func (r *Jobs) Fail(ctx context.Context, jobID, errMsg string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[jobID]
	if !ok || j.Status != domain.JobStatusProcessing {
		return domain.ErrInvalidTransition
	}
	if errMsg == "" {
		errMsg = "unknown error"
	}
	j.Status = domain.JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = r.s.now()
	return nil
}

func (r *Jobs) SoftDelete(ctx context.Context, jobID, ownerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[jobID]
	if !ok || j.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	if !j.Status.CanTransition(domain.JobStatusDeleted) {
		return domain.ErrInvalidTransition
	}
	j.Status = domain.JobStatusDeleted
	j.UpdatedAt = r.s.now()
	return nil
}

func (r *Jobs) Restore(ctx context.Context, jobID, ownerID string) (domain.JobStatus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[jobID]
	if !ok || j.OwnerID != ownerID {
		return "", domain.ErrNotFound
	}
	if j.Status != domain.JobStatusDeleted {
		return "", domain.ErrInvalidTransition
	}
	j.Status = domain.JobStatusFailed
	if j.ResultPayload != nil {
		j.Status = domain.JobStatusCompleted
	}
	j.UpdatedAt = r.s.now()
	return j.Status, nil
}

func (r *Jobs) ListByOwner(ctx context.Context, ownerID string, deleted bool, page domain.Page) ([]domain.JobSummary, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []domain.JobSummary
	for _, j := range r.s.jobs {
		if j.OwnerID != ownerID || (j.Status == domain.JobStatusDeleted) != deleted {
			continue
		}
		all = append(all, summarize(j))
	}
	sort.Slice(all, func(a, b int) bool { return all[a].CreatedAt.After(all[b].CreatedAt) })
	return paginate(all, page), len(all), nil
}

func (r *Jobs) FailStale(ctx context.Context, olderThan time.Duration, errMsg string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cutoff := r.s.now().Add(-olderThan)
	var ids []string
	for id, j := range r.s.jobs {
		if j.Status == domain.JobStatusProcessing && j.CreatedAt.Before(cutoff) {
			j.Status = domain.JobStatusFailed
			j.ErrorMessage = errMsg
			j.UpdatedAt = r.s.now()
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type SourceImages struct{ s *Store }

func (r *SourceImages) Create(ctx context.Context, img *domain.SourceImage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	img.CreatedAt = r.s.now()
	cp := *img
	r.s.sources[img.ID] = &cp
	return nil
}

func (r *SourceImages) GetForOwner(ctx context.Context, imageID, ownerID string) (*domain.SourceImage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	img, ok := r.s.sources[imageID]
	if !ok || img.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	cp := *img
	return &cp, nil
}

type Scenes struct{ s *Store }

func (r *Scenes) GetVisible(ctx context.Context, sceneID int64, ownerID string) (*domain.SceneConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	scene, ok := r.s.scenes[sceneID]
	if !ok || (!scene.Global() && scene.OwnerID != ownerID) {
		return nil, domain.ErrNotFound
	}
	return &scene, nil
}

func (r *Scenes) ListVisible(ctx context.Context, ownerID string) ([]domain.SceneConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.SceneConfig
	for _, scene := range r.s.scenes {
		if scene.Global() || scene.OwnerID == ownerID {
			out = append(out, scene)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

type ImageIndex struct{ s *Store }

func (r *ImageIndex) SaveAll(ctx context.Context, entries []domain.ImageIndexEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.IndexErr != nil {
		return r.s.IndexErr
	}
	for _, e := range entries {
		if _, ok := r.s.index[e.ID]; !ok {
			r.s.index[e.ID] = e
		}
	}
	return nil
}

type Favorites struct{ s *Store }

func (r *Favorites) Add(ctx context.Context, ownerID, jobID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[jobID]
	if !ok || j.OwnerID != ownerID || j.Status != domain.JobStatusCompleted {
		return domain.ErrNotFound
	}
	favs := r.s.favorites[ownerID]
	if favs == nil {
		favs = map[string]time.Time{}
		r.s.favorites[ownerID] = favs
	}
	if _, dup := favs[jobID]; dup {
		return domain.ErrDuplicate
	}
	favs[jobID] = r.s.now()
	return nil
}

func (r *Favorites) Remove(ctx context.Context, ownerID, jobID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	favs := r.s.favorites[ownerID]
	if _, ok := favs[jobID]; !ok {
		return domain.ErrNotFound
	}
	delete(favs, jobID)
	return nil
}

func (r *Favorites) List(ctx context.Context, ownerID string, page domain.Page) ([]domain.JobSummary, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []domain.JobSummary
	for jobID, at := range r.s.favorites[ownerID] {
		j, ok := r.s.jobs[jobID]
		if !ok || j.Status == domain.JobStatusDeleted {
			continue
		}
		sum := summarize(j)
		favoritedAt := at
		sum.FavoritedAt = &favoritedAt
		all = append(all, sum)
	}
	sort.Slice(all, func(a, b int) bool { return all[a].FavoritedAt.After(*all[b].FavoritedAt) })
	return paginate(all, page), len(all), nil
}

func summarize(j *domain.Job) domain.JobSummary {
	sum := domain.JobSummary{
		ID:            j.ID,
		SceneID:       j.SceneID,
		SceneType:     j.SceneType,
		SceneName:     j.SceneName,
		Status:        j.Status,
		ProcessTimeMS: j.ProcessTimeMS,
		ErrorMessage:  j.ErrorMessage,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
	if len(j.ResultPayload) > 0 {
		var p struct {
			Images []json.RawMessage `json:"images"`
		}
		if json.Unmarshal(j.ResultPayload, &p) == nil {
			sum.ImageCount = len(p.Images)
		}
	}
	return sum
}

func paginate(all []domain.JobSummary, page domain.Page) []domain.JobSummary {
	page = domain.NormalizePage(page.Number, page.Size)
	start := page.Offset()
	if start >= len(all) {
		return nil
	}
	end := min(start+page.Size, len(all))
	return all[start:end]
}

var (
	_ domain.JobRepository         = (*Jobs)(nil)
	_ domain.SourceImageRepository = (*SourceImages)(nil)
	_ domain.SceneRepository       = (*Scenes)(nil)
	_ domain.ImageIndexRepository  = (*ImageIndex)(nil)
	_ domain.FavoriteRepository    = (*Favorites)(nil)
)
