package repo

import (
	"context"

	"sceneforge/internal/domain"
	"sceneforge/internal/infra"
	"sceneforge/internal/sqlinline"
)

// ImageIndexRepositoryPG implements domain.ImageIndexRepository.
type ImageIndexRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewImageIndexRepository(sql infra.SQLExecutor) *ImageIndexRepositoryPG {
	return &ImageIndexRepositoryPG{sql: sql}
}

// SaveAll inserts one index row per generated image. Rows that already exist are skipped.
func (r *ImageIndexRepositoryPG) SaveAll(ctx context.Context, entries []domain.ImageIndexEntry) error {
	for _, e := range entries {
		if _, err := r.sql.Exec(ctx, sqlinline.QInsertImageIndex,
			e.ID,
			e.JobID,
			e.OwnerID,
			e.Filename,
			e.MimeType,
			e.FileSize,
			e.Width,
			e.Height,
			e.SceneType,
		); err != nil {
			return err
		}
	}
	return nil
}

var _ domain.ImageIndexRepository = (*ImageIndexRepositoryPG)(nil)
