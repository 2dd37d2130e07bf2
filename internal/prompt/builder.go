package prompt

import (
	"strings"

	"sceneforge/internal/domain"
)

const (
	leadInstruction  = "Generate a new image."
	trailInstruction = "Make sure the output is a high quality image."
	genericClause    = "Create an improved new image based on this picture."
)

var typeClauses = map[string]string{
	"portrait_enhance":  "Based on this portrait photo, generate a high quality improved version with attention to facial detail, natural light and a professional photographic look.",
	"landscape_enhance": "Based on this landscape photo, generate a more beautiful version with richer color saturation, contrast and composition.",
	"style_transfer":    "Turn this picture into an artistic style while keeping the subject recognizable and blending in creative elements.",
	"creative_design":   "Create an inventive new picture from this image that merges modern design elements and visual effects.",
	"business_use":      "Generate a professional version of this picture suitable for commercial use, raising its overall quality and business value.",
}

// TypeClause returns the instruction for a scene type, or the generic clause when the type has none.
func TypeClause(sceneType string) string {
	if clause, ok := typeClauses[sceneType]; ok {
		return clause
	}
	return genericClause
}

// Build assembles the model instruction for a scene and optional user text.
// Empty parts are dropped; the result is the same for the same input.
func Build(scene domain.SceneConfig, userPrompt string) string {
	parts := []string{
		leadInstruction,
		scene.Description,
		TypeClause(scene.Type),
		userPrompt,
		trailInstruction,
	}
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
