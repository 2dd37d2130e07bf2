package handlers

import (
	"net/http"
	"time"

	"sceneforge/internal/domain"
)

type jobSummaryResponse struct {
	JobID        string     `json:"jobId"`
	SceneID      int64      `json:"sceneId"`
	SceneType    string     `json:"sceneType"`
	SceneName    string     `json:"sceneName"`
	Status       string     `json:"status"`
	ImageCount   int        `json:"imageCount"`
	ProcessTime  int64      `json:"processTime"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	FavoritedAt  *time.Time `json:"favoritedAt,omitempty"`
}

type listResponse struct {
	Items    []jobSummaryResponse `json:"items"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"pageSize"`
	Total    int                  `json:"total"`
}

func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	a.listJobs(w, r, false)
}

func (a *App) ListTrash(w http.ResponseWriter, r *http.Request) {
	a.listJobs(w, r, true)
}

func (a *App) listJobs(w http.ResponseWriter, r *http.Request, deleted bool) {
	owner := a.requireOwner(w, r)
	if owner == "" {
		return
	}
	page := pageFromQuery(r)
	items, total, err := a.Jobs.ListByOwner(r.Context(), owner, deleted, page)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newListResponse(items, total, page))
}

func newListResponse(items []domain.JobSummary, total int, page domain.Page) listResponse {
	out := listResponse{Items: make([]jobSummaryResponse, 0, len(items)), Page: page.Number, PageSize: page.Size, Total: total}
	for _, s := range items {
		out.Items = append(out.Items, jobSummaryResponse{
			JobID:        s.ID,
			SceneID:      s.SceneID,
			SceneType:    s.SceneType,
			SceneName:    s.SceneName,
			Status:       string(s.Status),
			ImageCount:   s.ImageCount,
			ProcessTime:  s.ProcessTimeMS,
			ErrorMessage: s.ErrorMessage,
			CreatedAt:    s.CreatedAt,
			UpdatedAt:    s.UpdatedAt,
			FavoritedAt:  s.FavoritedAt,
		})
	}
	return out
}
