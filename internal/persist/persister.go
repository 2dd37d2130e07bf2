package persist

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"

	"sceneforge/internal/domain"
	"sceneforge/internal/providers/model"
)

const (
	ThumbnailSize = 200
	fallbackSide  = 512
)

// Input is everything needed to turn a model result into a completed job.
type Input struct {
	Job       *domain.Job
	Scene     domain.SceneConfig
	Result    *model.Result
	StartedAt time.Time
}

// Persister writes result payloads and the secondary image index.
type Persister struct {
	jobs   domain.JobRepository
	index  domain.ImageIndexRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewPersister(jobs domain.JobRepository, index domain.ImageIndexRepository, logger zerolog.Logger) *Persister {
	return &Persister{
		jobs:   jobs,
		index:  index,
		logger: logger.With().Str("component", "persist").Logger(),
		now:    time.Now,
	}
}

// Persist completes the job with the generated images. The payload write decides success;
// index rows are written afterwards and failures there are only logged.
func (p *Persister) Persist(ctx context.Context, in Input) ([]domain.PersistedImage, error) {
	if in.Result == nil || len(in.Result.Images) == 0 {
		return nil, domain.ErrNoImages
	}
	now := p.now().UTC()
	images := BuildImages(in.Job, in.Scene, in.Result.Images, now)

	processTime := now.Sub(in.StartedAt).Milliseconds()
	if processTime < 0 {
		processTime = 0
	}
	payload := domain.ResultPayload{
		JobID:        in.Job.ID,
		TextResponse: in.Result.Text,
		Images:       images,
		Model:        in.Result.Model,
		ProcessTime:  processTime,
		SceneConfig:  in.Scene.Ref(),
		CompletedAt:  now,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "encode result", Err: err}
	}
	if err := p.jobs.Complete(ctx, in.Job.ID, raw, processTime); err != nil {
		return nil, &domain.PersistenceError{Op: "result", Err: err}
	}

	entries := make([]domain.ImageIndexEntry, 0, len(images))
	for _, img := range images {
		entries = append(entries, domain.ImageIndexEntry{
			ID:        img.ID,
			JobID:     in.Job.ID,
			OwnerID:   in.Job.OwnerID,
			Filename:  img.Filename,
			MimeType:  img.MimeType,
			FileSize:  img.FileSize,
			Width:     img.Width,
			Height:    img.Height,
			SceneType: img.SceneType,
		})
	}
	if err := p.index.SaveAll(ctx, entries); err != nil {
		p.logger.Warn().Err(err).Str("job_id", in.Job.ID).Int("images", len(entries)).Msg("persist: image index write failed")
	}
	return images, nil
}

// BuildImages assembles the payload entries for generated images.
func BuildImages(job *domain.Job, scene domain.SceneConfig, generated []domain.GeneratedImage, now time.Time) []domain.PersistedImage {
	out := make([]domain.PersistedImage, 0, len(generated))
	for i, g := range generated {
		id := uuid.NewString()
		width, height := Dimensions(g.Data)
		mimeType := g.MimeType
		if mimeType == "" {
			mimeType = "image/png"
		}
		full := base64.StdEncoding.EncodeToString(g.Data)
		thumb := full
		if t, err := Thumbnail(g.Data); err == nil {
			thumb = base64.StdEncoding.EncodeToString(t)
		}
		out = append(out, domain.PersistedImage{
			ID:              id,
			Filename:        fmt.Sprintf("%s_processed_%d.png", scene.Name, i+1),
			Base64:          full,
			ThumbnailBase64: thumb,
			MimeType:        mimeType,
			Width:           width,
			Height:          height,
			FileSize:        len(g.Data),
			DownloadURL:     fmt.Sprintf("/jobs/%s/images/%s/download", job.ID, id),
			JobID:           job.ID,
			SceneType:       scene.Type,
			CreatedAt:       now,
		})
	}
	return out
}

// Dimensions reads width and height from the image header, or 512x512 when undecodable.
func Dimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return fallbackSide, fallbackSide
	}
	return cfg.Width, cfg.Height
}

// Thumbnail fits the image into a 200x200 box without enlarging it and encodes it as PNG.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	thumb := imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
