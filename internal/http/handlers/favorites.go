package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sceneforge/internal/domain"
)

type favoriteRequest struct {
	JobID string `json:"jobId" validate:"required"`
}

// AddFavorite marks one of the caller's jobs as a favorite.
func (a *App) AddFavorite(w http.ResponseWriter, r *http.Request) {
	owner := a.requireOwner(w, r)
	if owner == "" {
		return
	}
	var req favoriteRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	req.JobID = strings.TrimSpace(req.JobID)
	if err := validate.Struct(req); err != nil {
		a.fail(w, r, domain.NewValidationError("jobId", "is required"))
		return
	}
	if err := a.Favorites.Add(r.Context(), owner, req.JobID); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"jobId": req.JobID, "favorite": true})
}

func (a *App) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	owner := a.requireOwner(w, r)
	if owner == "" {
		return
	}
	if err := a.Favorites.Remove(r.Context(), owner, chi.URLParam(r, "jobId")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) ListFavorites(w http.ResponseWriter, r *http.Request) {
	owner := a.requireOwner(w, r)
	if owner == "" {
		return
	}
	page := pageFromQuery(r)
	items, total, err := a.Favorites.List(r.Context(), owner, page)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newListResponse(items, total, page))
}
