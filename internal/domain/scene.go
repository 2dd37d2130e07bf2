package domain

import "encoding/json"

// SceneConfig is a scene preset visible to an owner.
type SceneConfig struct {
	ID             int64
	OwnerID        string
	Name           string
	Type           string
	Description    string
	Config         map[string]any
	CategoryName   string
	PreferredModel string
}

// Global reports whether the scene has no owner.
func (s SceneConfig) Global() bool {
	return s.OwnerID == ""
}

// Ref returns the payload snapshot of the scene.
func (s SceneConfig) Ref() SceneRef {
	return SceneRef{ID: s.ID, Name: s.Name, Type: s.Type}
}

// ParseSceneConfig decodes a raw scene config column. Empty or invalid input yields an empty map.
func ParseSceneConfig(raw []byte) map[string]any {
	cfg := map[string]any{}
	if len(raw) == 0 {
		return cfg
	}
	if err := json.Unmarshal(raw, &cfg); err != nil || cfg == nil {
		return map[string]any{}
	}
	return cfg
}

// PreferredModelHint reads the preferredModel key of a scene config.
func PreferredModelHint(cfg map[string]any) string {
	if cfg == nil {
		return ""
	}
	if v, ok := cfg["preferredModel"].(string); ok {
		return v
	}
	return ""
}
