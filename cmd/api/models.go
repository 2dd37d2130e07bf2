package main

import (
	"context"
	"fmt"
	"strings"

	"sceneforge/internal/infra"
	"sceneforge/internal/infra/credentials"
	"sceneforge/internal/providers/genai"
	"sceneforge/internal/providers/model"
	"sceneforge/internal/providers/qwen"
)

var (
	geminiAliases = []string{"gemini", "gemini-2.5-flash-image", "gemini-2.5-flash-image-preview"}
	qwenAliases   = []string{"qwen", "qwen-image-edit"}
)

// buildRegistry binds every configured backend. The synthetic backend is always available, and
// the aliases of a provider without a key are routed to it so scenes naming that provider still run.
func buildRegistry(ctx context.Context, cfg *infra.Config, creds *credentials.Store, logger infra.Logger) (*model.Registry, error) {
	synthetic := model.Binding{
		Aliases: []string{"synthetic", model.SyntheticModel},
		Adapter: model.NewSyntheticAdapter(),
	}
	var bindings []model.Binding

	geminiKey, err := creds.Resolve(ctx, credentials.ProviderGemini, cfg.GeminiAPIKey)
	if err != nil {
		logger.Warn().Err(err).Msg("models: gemini credential lookup failed")
	}
	if geminiKey != "" {
		client, err := genai.NewClient(genai.Options{APIKey: geminiKey, BaseURL: cfg.GeminiBaseURL, Model: cfg.GeminiModel, Logger: &logger})
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		bindings = append(bindings, model.Binding{
			Aliases: geminiAliases,
			Adapter: model.NewRateLimited(model.NewGeminiAdapter(client), genai.Provider, cfg.ModelRatePerMinute),
		})
	} else {
		logger.Warn().Str("provider", genai.Provider).Msg("models: no credentials, serving with synthetic backend")
		synthetic.Aliases = append(synthetic.Aliases, geminiAliases...)
	}

	qwenKey, err := creds.Resolve(ctx, credentials.ProviderQwen, cfg.QwenAPIKey)
	if err != nil {
		logger.Warn().Err(err).Msg("models: qwen credential lookup failed")
	}
	if qwenKey != "" {
		client, err := qwen.NewClient(qwen.Options{APIKey: qwenKey, BaseURL: cfg.QwenBaseURL, Model: cfg.QwenModel, Logger: &logger})
		if err != nil {
			return nil, fmt.Errorf("qwen client: %w", err)
		}
		bindings = append(bindings, model.Binding{
			Aliases: qwenAliases,
			Adapter: model.NewRateLimited(model.NewQwenAdapter(client), qwen.Provider, cfg.ModelRatePerMinute),
		})
	} else {
		logger.Warn().Str("provider", qwen.Provider).Msg("models: no credentials, serving with synthetic backend")
		synthetic.Aliases = append(synthetic.Aliases, qwenAliases...)
	}
	bindings = append(bindings, synthetic)

	defaultHint := strings.TrimSpace(cfg.DefaultModelHint)
	if !bound(bindings, defaultHint) {
		logger.Warn().Str("hint", defaultHint).Msg("models: unknown default backend, falling back to synthetic")
		defaultHint = "synthetic"
	}
	return model.NewRegistry(defaultHint, bindings...)
}

func bound(bindings []model.Binding, hint string) bool {
	for _, b := range bindings {
		for _, alias := range b.Aliases {
			if strings.EqualFold(alias, hint) {
				return true
			}
		}
	}
	return false
}
