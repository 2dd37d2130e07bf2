package repo

import (
	"context"
	"fmt"

	"sceneforge/internal/domain"
	"sceneforge/internal/infra"
	"sceneforge/internal/sqlinline"
)

// SourceImageRepositoryPG implements domain.SourceImageRepository.
type SourceImageRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewSourceImageRepository(sql infra.SQLExecutor) *SourceImageRepositoryPG {
	return &SourceImageRepositoryPG{sql: sql}
}

// Create records an uploaded image and fills its creation time.
func (r *SourceImageRepositoryPG) Create(ctx context.Context, img *domain.SourceImage) error {
	err := r.sql.QueryRow(ctx, sqlinline.QInsertSourceImage,
		img.ID,
		img.OwnerID,
		img.OriginalFilename,
		img.StorageKey,
		img.MimeType,
		img.FileSize,
		img.Width,
		img.Height,
	).Scan(&img.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert source image: %w", err)
	}
	return nil
}

// GetForOwner returns the image only when ownerID uploaded it.
func (r *SourceImageRepositoryPG) GetForOwner(ctx context.Context, imageID, ownerID string) (*domain.SourceImage, error) {
	if !validUUID(imageID) {
		return nil, domain.ErrNotFound
	}
	var img domain.SourceImage
	err := r.sql.QueryRow(ctx, sqlinline.QSelectSourceImageForOwner, imageID, ownerID).Scan(
		&img.ID,
		&img.OwnerID,
		&img.OriginalFilename,
		&img.StorageKey,
		&img.MimeType,
		&img.FileSize,
		&img.Width,
		&img.Height,
		&img.CreatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get source image: %w", err)
	}
	return &img, nil
}

var _ domain.SourceImageRepository = (*SourceImageRepositoryPG)(nil)
