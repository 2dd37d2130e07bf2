package domain

import (
	"context"
	"time"
)

// JobRepository defines persistence for job records.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetForOwner(ctx context.Context, jobID, ownerID string) (*Job, error)
	Complete(ctx context.Context, jobID string, payload []byte, processTimeMS int64) error
	Fail(ctx context.Context, jobID, errMsg string) error
	SoftDelete(ctx context.Context, jobID, ownerID string) error
	Restore(ctx context.Context, jobID, ownerID string) (JobStatus, error)
	ListByOwner(ctx context.Context, ownerID string, deleted bool, page Page) ([]JobSummary, int, error)
	FailStale(ctx context.Context, olderThan time.Duration, errMsg string) ([]string, error)
}

// SceneRepository reads scene presets.
type SceneRepository interface {
	GetVisible(ctx context.Context, sceneID int64, ownerID string) (*SceneConfig, error)
	ListVisible(ctx context.Context, ownerID string) ([]SceneConfig, error)
}

// SourceImageRepository stores uploaded source image metadata.
type SourceImageRepository interface {
	Create(ctx context.Context, img *SourceImage) error
	GetForOwner(ctx context.Context, imageID, ownerID string) (*SourceImage, error)
}

// ImageIndexRepository writes the secondary per-image listing index.
type ImageIndexRepository interface {
	SaveAll(ctx context.Context, entries []ImageIndexEntry) error
}

// FavoriteRepository handles the owner/job favorite relation.
type FavoriteRepository interface {
	Add(ctx context.Context, ownerID, jobID string) error
	Remove(ctx context.Context, ownerID, jobID string) error
	List(ctx context.Context, ownerID string, page Page) ([]JobSummary, int, error)
}
