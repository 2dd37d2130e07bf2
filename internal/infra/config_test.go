package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MODEL_TIMEOUT_SECONDS", "")
	t.Setenv("JOB_MAX_CONCURRENCY", "")
	t.Setenv("PROGRESS_GRACE_SECONDS", "")
	t.Setenv("DEFAULT_MODEL_HINT", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ModelTimeout != 60*time.Second {
		t.Fatalf("ModelTimeout = %s, want 60s", cfg.ModelTimeout)
	}
	if cfg.JobMaxConcurrency != 4 {
		t.Fatalf("JobMaxConcurrency = %d, want 4", cfg.JobMaxConcurrency)
	}
	if cfg.ProgressGrace != time.Minute {
		t.Fatalf("ProgressGrace = %s, want 1m", cfg.ProgressGrace)
	}
	if cfg.DefaultModelHint != "gemini" {
		t.Fatalf("DefaultModelHint = %q, want gemini", cfg.DefaultModelHint)
	}
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	tests := []struct {
		name   string
		dbURL  string
		secret string
	}{
		{name: "missing database url", dbURL: "", secret: "s"},
		{name: "missing jwt secret", dbURL: "postgres://example", secret: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", tt.dbURL)
			t.Setenv("JWT_SECRET", tt.secret)
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JOB_MAX_CONCURRENCY", "0")
	t.Setenv("MAX_UPLOAD_MB", "2")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com ,,https://b.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.JobMaxConcurrency != 1 {
		t.Fatalf("JobMaxConcurrency = %d, want 1", cfg.JobMaxConcurrency)
	}
	if cfg.MaxUploadBytes != 2<<20 {
		t.Fatalf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes, 2<<20)
	}
	if !cfg.DBAutoMigrate {
		t.Fatalf("DBAutoMigrate = false, want true")
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.CORSAllowedOrigins) != len(want) {
		t.Fatalf("CORSAllowedOrigins = %#v, want %#v", cfg.CORSAllowedOrigins, want)
	}
	for i := range want {
		if cfg.CORSAllowedOrigins[i] != want[i] {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], want[i])
		}
	}
}
