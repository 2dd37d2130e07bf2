package model

import (
	"context"

	"sceneforge/internal/domain"
	"sceneforge/internal/providers/qwen"
)

type qwenClient interface {
	EditImage(ctx context.Context, req qwen.EditRequest) (*qwen.EditResult, error)
}

// QwenAdapter sends edits to DashScope.
type QwenAdapter struct {
	client qwenClient
}

func NewQwenAdapter(client qwenClient) *QwenAdapter {
	return &QwenAdapter{client: client}
}

func (a *QwenAdapter) Generate(ctx context.Context, req Request) (*Result, error) {
	res, err := a.client.EditImage(ctx, qwen.EditRequest{Prompt: req.Prompt, Image: req.Image, MimeType: req.MimeType})
	if err != nil {
		return nil, err
	}
	out := &Result{Text: res.Text, Model: res.Model}
	for _, img := range res.Images {
		out.Images = append(out.Images, domain.GeneratedImage{MimeType: img.Format, Data: img.Data})
	}
	return out, nil
}

var _ Adapter = (*QwenAdapter)(nil)
