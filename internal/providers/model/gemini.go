package model

import (
	"context"

	"sceneforge/internal/domain"
	"sceneforge/internal/providers/genai"
)

type geminiClient interface {
	EditImage(ctx context.Context, req genai.EditRequest) (*genai.EditResult, error)
}

// GeminiAdapter sends edits to the Gemini REST API.
type GeminiAdapter struct {
	client geminiClient
}

func NewGeminiAdapter(client geminiClient) *GeminiAdapter {
	return &GeminiAdapter{client: client}
}

func (a *GeminiAdapter) Generate(ctx context.Context, req Request) (*Result, error) {
	res, err := a.client.EditImage(ctx, genai.EditRequest{Prompt: req.Prompt, Image: req.Image, MimeType: req.MimeType})
	if err != nil {
		return nil, err
	}
	out := &Result{Text: res.Text, Model: res.Model}
	for _, img := range res.Images {
		out.Images = append(out.Images, domain.GeneratedImage{MimeType: img.MimeType, Data: img.Data})
	}
	return out, nil
}

var _ Adapter = (*GeminiAdapter)(nil)
