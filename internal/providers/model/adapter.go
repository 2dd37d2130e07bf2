package model

import (
	"context"

	"sceneforge/internal/domain"
)

// Request is a single image edit call.
type Request struct {
	Prompt   string
	Image    []byte
	MimeType string
}

// Result is what a backend returned. Images may be empty; the caller decides whether that is a failure.
type Result struct {
	Text   string
	Images []domain.GeneratedImage
	Model  string
}

// Adapter is a generative backend. Failures are *domain.UpstreamError values.
type Adapter interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
