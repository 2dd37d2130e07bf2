package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sceneforge/internal/domain"
	"sceneforge/internal/events"
	"sceneforge/internal/middleware"
	"sceneforge/internal/pipeline"
	"sceneforge/internal/progress"
	"sceneforge/pkg/zip"
)

type submitJobRequest struct {
	SourceImageRef string `json:"sourceImageRef"`
	SceneID        int64  `json:"sceneId"`
	UserPrompt     string `json:"userPrompt"`
}

type submitJobResponse struct {
	JobID                string `json:"jobId"`
	Status               string `json:"status"`
	EstimatedTimeSeconds int    `json:"estimatedTimeSeconds"`
}

type statusPreview struct {
	HasImages       bool   `json:"hasImages"`
	ImageCount      int    `json:"imageCount"`
	HasTextResponse bool   `json:"hasTextResponse"`
	ProcessTime     int64  `json:"processTime"`
	Model           string `json:"model"`
}

type jobStatusResponse struct {
	JobID                string         `json:"jobId"`
	Status               string         `json:"status"`
	ProgressPercent      int            `json:"progressPercent"`
	CurrentStepLabel     string         `json:"currentStepLabel"`
	EstimatedRemainingMs int64          `json:"estimatedRemainingMs"`
	StartedAt            *time.Time     `json:"startedAt,omitempty"`
	ErrorMessage         string         `json:"errorMessage,omitempty"`
	Preview              *statusPreview `json:"preview,omitempty"`
}

type resultImage struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	MimeType        string    `json:"mimeType"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	FileSize        int       `json:"fileSize"`
	ThumbnailBase64 string    `json:"thumbnailBase64"`
	Base64          string    `json:"base64,omitempty"`
	DownloadURL     string    `json:"downloadUrl"`
	SceneType       string    `json:"sceneType"`
	CreatedAt       time.Time `json:"createdAt"`
}

type resultMeta struct {
	TotalImages       int  `json:"totalImages"`
	IncludeFullImages bool `json:"includeFullImages"`
	TotalSize         int  `json:"totalSize"`
}

type jobResultResponse struct {
	JobID        string          `json:"jobId"`
	TextResponse string          `json:"textResponse"`
	Images       []resultImage   `json:"images"`
	Model        string          `json:"model"`
	ProcessTime  int64           `json:"processTime"`
	SceneConfig  domain.SceneRef `json:"sceneConfig"`
	CompletedAt  time.Time       `json:"completedAt"`
	Meta         resultMeta      `json:"meta"`
}

// SubmitJob records a job and returns before the model is called.
func (a *App) SubmitJob(w http.ResponseWriter, r *http.Request) {
	owner := a.requireOwner(w, r)
	if owner == "" {
		return
	}
	var req submitJobRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	jobID, err := a.Pipeline.Submit(r.Context(), pipeline.SubmitRequest{
		OwnerID:       owner,
		SourceImageID: strings.TrimSpace(req.SourceImageRef),
		SceneID:       req.SceneID,
		UserPrompt:    req.UserPrompt,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, submitJobResponse{
		JobID:                jobID,
		Status:               string(domain.JobStatusProcessing),
		EstimatedTimeSeconds: pipeline.EstimatedSeconds,
	})
}

// JobStatus merges the durable status with the in-memory progress entry.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	owner := a.requireOwner(w, r)
	if owner == "" {
		return
	}
	job, err := a.visibleJob(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	entry, tracked := a.Progress.Get(job.ID)
	now := time.Now()

	resp := jobStatusResponse{JobID: job.ID, Status: string(job.Status)}
	switch job.Status {
	case domain.JobStatusCompleted:
		resp.ProgressPercent = 100
		resp.CurrentStepLabel = progress.Label(progress.StageCompleted, locale)
		if payload, err := decodePayload(job); err == nil {
			resp.Preview = &statusPreview{
				HasImages:       len(payload.Images) > 0,
				ImageCount:      len(payload.Images),
				HasTextResponse: payload.TextResponse != "",
				ProcessTime:     payload.ProcessTime,
				Model:           payload.Model,
			}
		}
	case domain.JobStatusFailed:
		resp.CurrentStepLabel = progress.Label(progress.StageFailed, locale)
		resp.ErrorMessage = job.ErrorMessage
		if tracked {
			resp.ProgressPercent = entry.Percent
		}
	default:
		if tracked {
			resp.ProgressPercent = entry.Percent
			resp.CurrentStepLabel = progress.Label(entry.Stage, locale)
			resp.EstimatedRemainingMs = entry.EstimatedRemaining(now).Milliseconds()
		} else {
			resp.CurrentStepLabel = progress.Label(progress.StageQueued, locale)
			resp.EstimatedRemainingMs = max(0, progress.DefaultEstimate-now.Sub(job.CreatedAt)).Milliseconds()
		}
	}
	started := job.CreatedAt
	if tracked {
		started = entry.StartedAt
	}
	if !started.IsZero() {
		resp.StartedAt = &started
	}
	a.json(w, http.StatusOK, resp)
}

// JobResult serves the stored payload of a completed job. Thumbnails are always included, full images on request.
func (a *App) JobResult(w http.ResponseWriter, r *http.Request) {
	owner := a.requireOwner(w, r)
	if owner == "" {
		return
	}
	job, payload, err := a.completedJob(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	includeFull, _ := strconv.ParseBool(r.URL.Query().Get("includeFullImages"))

	images := make([]resultImage, 0, len(payload.Images))
	for _, img := range payload.Images {
		item := resultImage{
			ID:              img.ID,
			Filename:        img.Filename,
			MimeType:        img.MimeType,
			Width:           img.Width,
			Height:          img.Height,
			FileSize:        img.FileSize,
			ThumbnailBase64: img.ThumbnailBase64,
			DownloadURL:     img.DownloadURL,
			SceneType:       img.SceneType,
			CreatedAt:       img.CreatedAt,
		}
		if includeFull {
			item.Base64 = img.Base64
		}
		images = append(images, item)
	}
	a.json(w, http.StatusOK, jobResultResponse{
		JobID:        job.ID,
		TextResponse: payload.TextResponse,
		Images:       images,
		Model:        payload.Model,
		ProcessTime:  payload.ProcessTime,
		SceneConfig:  payload.SceneConfig,
		CompletedAt:  payload.CompletedAt,
		Meta: resultMeta{
			TotalImages:       len(payload.Images),
			IncludeFullImages: includeFull,
			TotalSize:         payload.TotalSize(),
		},
	})
}

// DownloadImage streams one generated image as an attachment.
func (a *App) DownloadImage(w http.ResponseWriter, r *http.Request) {
	owner := a.requireOwner(w, r)
	if owner == "" {
		return
	}
	_, payload, err := a.completedJob(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	img, ok := payload.FindImage(chi.URLParam(r, "imageId"))
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	data, err := base64.StdEncoding.DecodeString(img.Base64)
	if err != nil {
		a.fail(w, r, fmt.Errorf("decode stored image %s: %w", img.ID, err))
		return
	}
	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, SanitizeFilename(img.Filename)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ArchiveImages returns every image of a completed job in one zip.
func (a *App) ArchiveImages(w http.ResponseWriter, r *http.Request) {
	owner := a.requireOwner(w, r)
	if owner == "" {
		return
	}
	job, payload, err := a.completedJob(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	assets := make([]zip.Asset, 0, len(payload.Images))
	for _, img := range payload.Images {
		data, err := base64.StdEncoding.DecodeString(img.Base64)
		if err != nil {
			a.Logger.Warn().Err(err).Str("job_id", job.ID).Str("image_id", img.ID).Msg("http: skipping undecodable image")
			continue
		}
		assets = append(assets, zip.Asset{Filename: SanitizeFilename(img.Filename), Data: data, Modified: img.CreatedAt})
	}
	if len(assets) == 0 {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	name := SanitizeFilename(fmt.Sprintf("%s_%s.zip", job.SceneName, shortID(job.ID)))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// DeleteJob moves a completed or failed job to the trash.
func (a *App) DeleteJob(w http.ResponseWriter, r *http.Request) {
	owner := a.requireOwner(w, r)
	if owner == "" {
		return
	}
	jobID := chi.URLParam(r, "id")
	if err := a.Jobs.SoftDelete(r.Context(), jobID, owner); err != nil {
		a.fail(w, r, err)
		return
	}
	a.publish(r.Context(), events.Event{Type: events.JobDeleted, JobID: jobID, OwnerID: owner, Status: string(domain.JobStatusDeleted), At: time.Now().UTC()})
	a.json(w, http.StatusOK, map[string]string{"jobId": jobID, "status": string(domain.JobStatusDeleted)})
}

// RestoreJob brings a deleted job back to the status it held before.
func (a *App) RestoreJob(w http.ResponseWriter, r *http.Request) {
	owner := a.requireOwner(w, r)
	if owner == "" {
		return
	}
	jobID := chi.URLParam(r, "id")
	status, err := a.Jobs.Restore(r.Context(), jobID, owner)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.publish(r.Context(), events.Event{Type: events.JobRestored, JobID: jobID, OwnerID: owner, Status: string(status), At: time.Now().UTC()})
	a.json(w, http.StatusOK, map[string]string{"jobId": jobID, "status": string(status)})
}

// visibleJob loads a job of owner that is not in the trash.
func (a *App) visibleJob(ctx context.Context, jobID, owner string) (*domain.Job, error) {
	job, err := a.Jobs.GetForOwner(ctx, jobID, owner)
	if err != nil {
		return nil, err
	}
	if job.Status == domain.JobStatusDeleted {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (a *App) completedJob(ctx context.Context, jobID, owner string) (*domain.Job, *domain.ResultPayload, error) {
	job, err := a.visibleJob(ctx, jobID, owner)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != domain.JobStatusCompleted {
		return nil, nil, domain.ErrNotFound
	}
	payload, err := decodePayload(job)
	if err != nil {
		return nil, nil, err
	}
	return job, payload, nil
}

func decodePayload(job *domain.Job) (*domain.ResultPayload, error) {
	if len(job.ResultPayload) == 0 {
		return nil, fmt.Errorf("job %s has no result payload", job.ID)
	}
	var payload domain.ResultPayload
	if err := json.Unmarshal(job.ResultPayload, &payload); err != nil {
		return nil, fmt.Errorf("decode result payload of job %s: %w", job.ID, err)
	}
	return &payload, nil
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^\w\-.]`)
	underscoreRuns      = regexp.MustCompile(`_+`)
)

// SanitizeFilename replaces every character outside [A-Za-z0-9_.-] with "_" and collapses repeats.
func SanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = underscoreRuns.ReplaceAllString(name, "_")
	if name == "" || name == "_" {
		return "image"
	}
	return name
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
