package scene

import (
	"context"
	"fmt"

	"sceneforge/internal/domain"
)

// Resolver loads scene presets visible to an owner and fills the model hint.
type Resolver struct {
	repo        domain.SceneRepository
	defaultHint string
}

func NewResolver(repo domain.SceneRepository, defaultHint string) *Resolver {
	return &Resolver{repo: repo, defaultHint: defaultHint}
}

// Resolve returns the scene when it is global or owned by ownerID.
func (r *Resolver) Resolve(ctx context.Context, sceneID int64, ownerID string) (*domain.SceneConfig, error) {
	if sceneID <= 0 {
		return nil, domain.ErrNotFound
	}
	scene, err := r.repo.GetVisible(ctx, sceneID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("resolve scene %d: %w", sceneID, err)
	}
	r.fillHint(scene)
	return scene, nil
}

// List returns every visible scene in display order.
func (r *Resolver) List(ctx context.Context, ownerID string) ([]domain.SceneConfig, error) {
	scenes, err := r.repo.ListVisible(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range scenes {
		r.fillHint(&scenes[i])
	}
	return scenes, nil
}

func (r *Resolver) fillHint(scene *domain.SceneConfig) {
	if scene.Config == nil {
		scene.Config = map[string]any{}
	}
	if scene.PreferredModel == "" {
		scene.PreferredModel = domain.PreferredModelHint(scene.Config)
	}
	if scene.PreferredModel == "" {
		scene.PreferredModel = r.defaultHint
	}
}
