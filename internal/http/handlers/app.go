package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"sceneforge/internal/domain"
	"sceneforge/internal/events"
	"sceneforge/internal/middleware"
	"sceneforge/internal/pipeline"
	"sceneforge/internal/progress"
)

// JobSubmitter accepts new jobs. *pipeline.Orchestrator implements it.
type JobSubmitter interface {
	Submit(ctx context.Context, req pipeline.SubmitRequest) (string, error)
}

type SceneLister interface {
	List(ctx context.Context, ownerID string) ([]domain.SceneConfig, error)
}

// BlobWriter stores uploaded bytes under a key.
type BlobWriter interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// App carries the dependencies shared by every handler.
type App struct {
	Jobs           domain.JobRepository
	Favorites      domain.FavoriteRepository
	SourceImages   domain.SourceImageRepository
	Scenes         SceneLister
	Pipeline       JobSubmitter
	Progress       *progress.Tracker
	Files          BlobWriter
	Events         events.Publisher
	DB             Pinger
	Logger         zerolog.Logger
	MaxUploadBytes int64
}

var validate = validator.New()

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": errCode, "message": message},
	})
}

// fail maps a domain error onto a response.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		a.error(w, http.StatusBadRequest, "validation_error", vErr.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		a.error(w, http.StatusConflict, "invalid_transition", "operation not allowed in the current status")
	case errors.Is(err, domain.ErrDuplicate):
		a.error(w, http.StatusConflict, "duplicate", "already exists")
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
	case errors.Is(err, pipeline.ErrDispatcherClosed):
		a.error(w, http.StatusServiceUnavailable, "unavailable", "service is shutting down")
	default:
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("http: request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentOwnerID(r *http.Request) string {
	return middleware.OwnerIDFromContext(r.Context())
}

// requireOwner writes 401 and returns "" when the request carries no owner.
func (a *App) requireOwner(w http.ResponseWriter, r *http.Request) string {
	owner := a.currentOwnerID(r)
	if owner == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
	}
	return owner
}

func (a *App) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("", "invalid JSON body")
	}
	return nil
}

func (a *App) publish(ctx context.Context, ev events.Event) {
	if a.Events == nil {
		return
	}
	if err := a.Events.Publish(ctx, ev); err != nil {
		a.Logger.Debug().Err(err).Str("type", string(ev.Type)).Msg("http: event not published")
	}
}

func pageFromQuery(r *http.Request) domain.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("pageSize"))
	return domain.NormalizePage(number, size)
}
