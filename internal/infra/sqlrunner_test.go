package infra

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"sceneforge/internal/sqlinline"
)

func TestExtractMarker(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantMarker string
		wantErr    bool
	}{
		{
			name:       "valid marker",
			query:      "--sql 3dd83c96-cccf-4dc3-ba15-4e075155110f\nselect 1;",
			wantMarker: "3dd83c96-cccf-4dc3-ba15-4e075155110f",
		},
		{
			name:       "leading whitespace",
			query:      "\n  --sql 3dd83c96-cccf-4dc3-ba15-4e075155110f\nselect 1;",
			wantMarker: "3dd83c96-cccf-4dc3-ba15-4e075155110f",
		},
		{name: "missing marker", query: "select 1;", wantErr: true},
		{name: "uppercase uuid rejected", query: "--sql 3DD83C96-CCCF-4DC3-BA15-4E075155110F\nselect 1;", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			marker, body, err := extractMarker(tt.query)
			if tt.wantErr {
				if !errors.Is(err, ErrMissingMarker) {
					t.Fatalf("extractMarker() error = %v, want ErrMissingMarker", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("extractMarker() error = %v", err)
			}
			if marker != tt.wantMarker {
				t.Fatalf("marker = %q, want %q", marker, tt.wantMarker)
			}
			if body != "select 1;" {
				t.Fatalf("body = %q, want %q", body, "select 1;")
			}
		})
	}
}

func TestInlineQueriesCarryMarkers(t *testing.T) {
	queries := map[string]string{
		"QInsertJob":                 sqlinline.QInsertJob,
		"QSelectJobForOwner":         sqlinline.QSelectJobForOwner,
		"QSelectJobStatusForOwner":   sqlinline.QSelectJobStatusForOwner,
		"QCompleteJob":               sqlinline.QCompleteJob,
		"QFailJob":                   sqlinline.QFailJob,
		"QSoftDeleteJob":             sqlinline.QSoftDeleteJob,
		"QRestoreJob":                sqlinline.QRestoreJob,
		"QListJobsByOwner":           sqlinline.QListJobsByOwner,
		"QFailStaleJobs":             sqlinline.QFailStaleJobs,
		"QSelectVisibleScene":        sqlinline.QSelectVisibleScene,
		"QListVisibleScenes":         sqlinline.QListVisibleScenes,
		"QInsertSourceImage":         sqlinline.QInsertSourceImage,
		"QSelectSourceImageForOwner": sqlinline.QSelectSourceImageForOwner,
		"QInsertImageIndex":          sqlinline.QInsertImageIndex,
		"QInsertFavorite":            sqlinline.QInsertFavorite,
		"QDeleteFavorite":            sqlinline.QDeleteFavorite,
		"QListFavorites":             sqlinline.QListFavorites,
		"QSelectModelCredential":     sqlinline.QSelectModelCredential,
		"QUpsertModelCredential":     sqlinline.QUpsertModelCredential,
	}
	seen := map[string]string{}
	for name, q := range queries {
		marker, _, err := extractMarker(q)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if other, ok := seen[marker]; ok {
			t.Fatalf("%s reuses marker %s of %s", name, marker, other)
		}
		seen[marker] = name
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(pgx.ErrNoRows) {
		t.Fatalf("IsNoRows(pgx.ErrNoRows) = false")
	}
	if IsNoRows(errors.New("boom")) {
		t.Fatalf("IsNoRows(boom) = true")
	}
}
