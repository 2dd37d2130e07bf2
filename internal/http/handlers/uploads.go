package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"sceneforge/internal/domain"
)

var uploadExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

type uploadResponse struct {
	ImageID  string `json:"imageId"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// UploadImage stores a multipart "image" field and records it as a source image of the caller.
func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	owner := a.requireOwner(w, r)
	if owner == "" {
		return
	}
	limit := a.MaxUploadBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", fmt.Sprintf("image exceeds %d bytes", limit))
			return
		}
		a.fail(w, r, domain.NewValidationError("image", "multipart form expected"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		a.fail(w, r, domain.NewValidationError("image", "is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if int64(len(data)) > limit {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", fmt.Sprintf("image exceeds %d bytes", limit))
		return
	}
	mime := http.DetectContentType(data)
	ext, ok := uploadExtensions[mime]
	if !ok {
		a.fail(w, r, domain.NewValidationError("image", "must be a PNG, JPEG or WebP image"))
		return
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		a.fail(w, r, domain.NewValidationError("image", "could not be decoded"))
		return
	}

	id := uuid.NewString()
	key, err := a.Files.Write(r.Context(), "uploads/"+id+ext, data)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	bounds := img.Bounds()
	src := &domain.SourceImage{
		ID:               id,
		OwnerID:          owner,
		OriginalFilename: filepath.Base(header.Filename),
		StorageKey:       key,
		MimeType:         mime,
		FileSize:         int64(len(data)),
		Width:            bounds.Dx(),
		Height:           bounds.Dy(),
	}
	if err := a.SourceImages.Create(r.Context(), src); err != nil {
		a.fail(w, r, err)
		return
	}
	a.Logger.Info().Str("image_id", id).Str("owner_id", owner).Int64("bytes", src.FileSize).Msg("http: source image uploaded")
	a.json(w, http.StatusCreated, uploadResponse{
		ImageID:  id,
		MimeType: mime,
		FileSize: src.FileSize,
		Width:    src.Width,
		Height:   src.Height,
	})
}
