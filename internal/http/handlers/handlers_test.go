package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"sceneforge/internal/domain"
	"sceneforge/internal/pipeline"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Portrait Studio_processed_1.png", "Portrait_Studio_processed_1.png"},
		{"a  b//c.png", "a_b_c.png"},
		{`x"; evil=1.png`, "x_evil_1.png"},
		{"风景_processed_1.png", "_processed_1.png"},
		{"", "image"},
		{"***", "image"},
	}
	for _, tc := range tests {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Fatalf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFailMapsDomainErrors(t *testing.T) {
	app := &App{Logger: zerolog.Nop()}
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewValidationError("sceneId", "is required"), http.StatusBadRequest},
		{fmt.Errorf("source image: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrInvalidTransition, http.StatusConflict},
		{domain.ErrDuplicate, http.StatusConflict},
		{pipeline.ErrDispatcherClosed, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		app.fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		if rec.Code != tc.want {
			t.Fatalf("fail(%v) = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}
