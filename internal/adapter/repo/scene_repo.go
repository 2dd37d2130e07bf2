package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"sceneforge/internal/domain"
	"sceneforge/internal/infra"
	"sceneforge/internal/sqlinline"
)

// SceneRepositoryPG implements domain.SceneRepository.
type SceneRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewSceneRepository(sql infra.SQLExecutor) *SceneRepositoryPG {
	return &SceneRepositoryPG{sql: sql}
}

// GetVisible returns a scene that is global or owned by ownerID.
func (r *SceneRepositoryPG) GetVisible(ctx context.Context, sceneID int64, ownerID string) (*domain.SceneConfig, error) {
	scene, err := scanScene(r.sql.QueryRow(ctx, sqlinline.QSelectVisibleScene, sceneID, ownerID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get scene: %w", err)
	}
	return scene, nil
}

// ListVisible returns every active scene the owner can use.
func (r *SceneRepositoryPG) ListVisible(ctx context.Context, ownerID string) ([]domain.SceneConfig, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListVisibleScenes, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()

	var out []domain.SceneConfig
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *scene)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanScene(row pgx.Row) (*domain.SceneConfig, error) {
	var (
		scene domain.SceneConfig
		raw   []byte
	)
	if err := row.Scan(
		&scene.ID,
		&scene.OwnerID,
		&scene.Name,
		&scene.Type,
		&scene.Description,
		&raw,
		&scene.CategoryName,
	); err != nil {
		return nil, err
	}
	scene.Config = domain.ParseSceneConfig(raw)
	scene.PreferredModel = domain.PreferredModelHint(scene.Config)
	return &scene, nil
}

var _ domain.SceneRepository = (*SceneRepositoryPG)(nil)
