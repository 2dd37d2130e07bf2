package scene

import (
	"context"
	"errors"
	"testing"

	"sceneforge/internal/domain"
)

type fakeRepo struct {
	scenes map[int64]domain.SceneConfig
	calls  int
}

func (f *fakeRepo) GetVisible(ctx context.Context, sceneID int64, ownerID string) (*domain.SceneConfig, error) {
	f.calls++
	s, ok := f.scenes[sceneID]
	if !ok || (s.OwnerID != "" && s.OwnerID != ownerID) {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (f *fakeRepo) ListVisible(ctx context.Context, ownerID string) ([]domain.SceneConfig, error) {
	var out []domain.SceneConfig
	for _, id := range []int64{1, 2, 3} {
		if s, ok := f.scenes[id]; ok && (s.OwnerID == "" || s.OwnerID == ownerID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{scenes: map[int64]domain.SceneConfig{
		1: {ID: 1, Name: "Studio", Type: "portrait_enhance"},
		2: {ID: 2, Name: "Mine", Type: "style_transfer", OwnerID: "owner-a", PreferredModel: "qwen", Config: map[string]any{"preferredModel": "qwen"}},
		3: {ID: 3, Name: "Synth", Type: "cartoonize", Config: map[string]any{"preferredModel": "synthetic"}},
	}}
}

func TestResolveFallsBackToDefaultHint(t *testing.T) {
	r := NewResolver(newFakeRepo(), "gemini")
	scene, err := r.Resolve(context.Background(), 1, "owner-a")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if scene.PreferredModel != "gemini" {
		t.Fatalf("PreferredModel = %q, want gemini", scene.PreferredModel)
	}
	if scene.Config == nil {
		t.Fatalf("Config should never be nil")
	}
}

func TestResolveReadsConfigHint(t *testing.T) {
	r := NewResolver(newFakeRepo(), "gemini")
	scene, err := r.Resolve(context.Background(), 3, "owner-a")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if scene.PreferredModel != "synthetic" {
		t.Fatalf("PreferredModel = %q, want synthetic", scene.PreferredModel)
	}
}

func TestResolveHidesForeignScenes(t *testing.T) {
	repo := newFakeRepo()
	r := NewResolver(repo, "gemini")
	if _, err := r.Resolve(context.Background(), 2, "owner-b"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.Resolve(context.Background(), 0, "owner-a"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for zero id, got %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("zero id should not query the store, calls = %d", repo.calls)
	}
}

func TestList(t *testing.T) {
	r := NewResolver(newFakeRepo(), "gemini")
	scenes, err := r.List(context.Background(), "owner-b")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("got %d scenes, want 2", len(scenes))
	}
	if scenes[0].PreferredModel != "gemini" || scenes[1].PreferredModel != "synthetic" {
		t.Fatalf("unexpected hints: %q, %q", scenes[0].PreferredModel, scenes[1].PreferredModel)
	}
}
