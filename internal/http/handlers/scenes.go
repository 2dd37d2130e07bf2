package handlers

import "net/http"

type sceneResponse struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	Description    string         `json:"description,omitempty"`
	Category       string         `json:"category,omitempty"`
	PreferredModel string         `json:"preferredModel"`
	Custom         bool           `json:"custom"`
	Config         map[string]any `json:"config"`
}

func (a *App) ListScenes(w http.ResponseWriter, r *http.Request) {
	owner := a.requireOwner(w, r)
	if owner == "" {
		return
	}
	scenes, err := a.Scenes.List(r.Context(), owner)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]sceneResponse, 0, len(scenes))
	for _, s := range scenes {
		items = append(items, sceneResponse{
			ID:             s.ID,
			Name:           s.Name,
			Type:           s.Type,
			Description:    s.Description,
			Category:       s.CategoryName,
			PreferredModel: s.PreferredModel,
			Custom:         !s.Global(),
			Config:         s.Config,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
