package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sceneforge/internal/infra"
	"sceneforge/internal/sqlinline"
)

const (
	ProviderGemini = "gemini"
	ProviderQwen   = "qwen"
)

// Store keeps model provider API keys in the model_credentials table.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Supported reports whether provider has a credential slot.
func Supported(provider string) bool {
	switch provider {
	case ProviderGemini, ProviderQwen:
		return true
	default:
		return false
	}
}

// Token returns the stored key for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectModelCredential, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// Resolve prefers the configured key and falls back to the stored one.
func (s *Store) Resolve(ctx context.Context, provider, configured string) (string, error) {
	if key := strings.TrimSpace(configured); key != "" {
		return key, nil
	}
	if s == nil {
		return "", nil
	}
	return s.Token(ctx, provider)
}

// SetToken stores or replaces the key for provider.
func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	if !Supported(provider) {
		return fmt.Errorf("unsupported provider %q", provider)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%s api key is required", provider)
	}
	raw, err := json.Marshal(map[string]any{"source": "modelkey"})
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertModelCredential, provider, token, raw)
	return err
}
