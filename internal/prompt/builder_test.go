package prompt

import (
	"strings"
	"testing"

	"sceneforge/internal/domain"
)

func TestBuildOrder(t *testing.T) {
	scene := domain.SceneConfig{Description: "Soft studio light", Type: "portrait_enhance"}
	got := Build(scene, "  keep the red scarf ")

	want := strings.Join([]string{
		leadInstruction,
		"Soft studio light",
		typeClauses["portrait_enhance"],
		"keep the red scarf",
		trailInstruction,
	}, " ")
	if got != want {
		t.Fatalf("Build() = %q\nwant %q", got, want)
	}
}

func TestBuildDropsEmptyParts(t *testing.T) {
	got := Build(domain.SceneConfig{Description: "   ", Type: "unknown_type"}, "")
	want := leadInstruction + " " + genericClause + " " + trailInstruction
	if got != want {
		t.Fatalf("Build() = %q, want %q", got, want)
	}
	if strings.Contains(got, "  ") {
		t.Fatalf("Build() contains double spaces: %q", got)
	}
}

func TestBuildDeterministic(t *testing.T) {
	scene := domain.SceneConfig{Description: "Golden hour", Type: "landscape_enhance"}
	first := Build(scene, "more clouds")
	for i := 0; i < 10; i++ {
		if got := Build(scene, "more clouds"); got != first {
			t.Fatalf("Build() not deterministic: %q != %q", got, first)
		}
	}
}

func TestTypeClause(t *testing.T) {
	tests := []struct {
		sceneType string
		want      string
	}{
		{"style_transfer", typeClauses["style_transfer"]},
		{"creative_design", typeClauses["creative_design"]},
		{"business_use", typeClauses["business_use"]},
		{"Portrait_Enhance", genericClause},
		{"", genericClause},
	}
	for _, tt := range tests {
		t.Run(tt.sceneType, func(t *testing.T) {
			if got := TypeClause(tt.sceneType); got != tt.want {
				t.Fatalf("TypeClause(%q) = %q, want %q", tt.sceneType, got, tt.want)
			}
		})
	}
}
