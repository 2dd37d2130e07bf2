package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLintPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.go", "package q\n\nconst QGood = `--sql 0b6f3e9a-2c41-4d7e-9a55-1f0c2b3d4e5f\nSELECT 1`\n")
	writeFile(t, dir, "missing.go", "package q\n\nconst QMissing = `SELECT id FROM jobs`\n")
	writeFile(t, dir, "dup.go", "package q\n\nconst QDup = `--sql 0b6f3e9a-2c41-4d7e-9a55-1f0c2b3d4e5f\nUPDATE jobs SET status = 'failed'`\n")
	writeFile(t, dir, "prose.go", "package q\n\nconst lead = \"Edit the photo with care and select a natural palette.\"\n")
	writeFile(t, dir, "skip_test.go", "package q\n\nconst QTest = `SELECT 2`\n")
	writeFile(t, dir, "_examples/x.go", "package x\n\nconst QIgnored = `SELECT 3`\n")

	violations, err := lintPaths([]string{dir})
	if err != nil {
		t.Fatalf("lintPaths error: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("got %d violations, want 2: %+v", len(violations), violations)
	}
	var missing, duplicate int
	for _, v := range violations {
		switch {
		case v.name == "QMissing" && strings.Contains(v.message, "missing"):
			missing++
		case strings.Contains(v.message, "already used"):
			duplicate++
		}
	}
	if missing != 1 || duplicate != 1 {
		t.Fatalf("unexpected violations: %+v", violations)
	}
}

func TestSQLStatementPattern(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"--sql x\nSELECT 1", true},
		{"\n  insert into jobs (id) values ($1)", true},
		{"UPDATE jobs SET status = $2", true},
		{"DELETE FROM favorites WHERE job_id = $1", true},
		{"WITH stale AS (SELECT 1) SELECT * FROM stale", true},
		{"Keep the subject with natural colors", false},
		{"select the best angle", true},
		{"Please update the sky", false},
	}
	for _, tc := range tests {
		if got := sqlStatementPattern.MatchString(tc.in); got != tc.want {
			t.Fatalf("match(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
