package repo

import (
	"context"
	"fmt"
	"time"

	"sceneforge/internal/domain"
	"sceneforge/internal/infra"
	"sceneforge/internal/sqlinline"
)

// FavoriteRepositoryPG implements domain.FavoriteRepository.
type FavoriteRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewFavoriteRepository(sql infra.SQLExecutor) *FavoriteRepositoryPG {
	return &FavoriteRepositoryPG{sql: sql}
}

// Add favorites a completed job. Favoriting twice returns domain.ErrDuplicate.
func (r *FavoriteRepositoryPG) Add(ctx context.Context, ownerID, jobID string) error {
	if !validUUID(jobID) {
		return domain.ErrNotFound
	}
	var found, inserted bool
	if err := r.sql.QueryRow(ctx, sqlinline.QInsertFavorite, ownerID, jobID).Scan(&found, &inserted); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	if !found {
		return domain.ErrNotFound
	}
	if !inserted {
		return domain.ErrDuplicate
	}
	return nil
}

func (r *FavoriteRepositoryPG) Remove(ctx context.Context, ownerID, jobID string) error {
	if !validUUID(jobID) {
		return domain.ErrNotFound
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteFavorite, ownerID, jobID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns favorited jobs newest favorite first.
func (r *FavoriteRepositoryPG) List(ctx context.Context, ownerID string, page domain.Page) ([]domain.JobSummary, int, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListFavorites, ownerID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var (
		out   []domain.JobSummary
		total int
	)
	for rows.Next() {
		var (
			s           domain.JobSummary
			favoritedAt time.Time
		)
		if err := rows.Scan(
			&s.ID,
			&s.SceneID,
			&s.SceneType,
			&s.SceneName,
			&s.Status,
			&s.ImageCount,
			&s.ProcessTimeMS,
			&s.ErrorMessage,
			&s.CreatedAt,
			&s.UpdatedAt,
			&favoritedAt,
			&total,
		); err != nil {
			return nil, 0, err
		}
		s.FavoritedAt = &favoritedAt
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

var _ domain.FavoriteRepository = (*FavoriteRepositoryPG)(nil)
