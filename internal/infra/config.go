package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	DBMaxConns         int
	DBAutoMigrate      bool
	JWTSecret          string
	StoragePath        string
	MaxUploadBytes     int64
	GeoIPDBPath        string
	DefaultLocale      string
	CORSAllowedOrigins []string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	QwenAPIKey    string
	QwenModel     string
	QwenBaseURL   string

	DefaultModelHint   string
	ModelTimeout       time.Duration
	ModelRatePerMinute int

	JobMaxConcurrency int
	JobMaxDuration    time.Duration
	ProgressGrace     time.Duration
	ReaperInterval    time.Duration

	NATSURL           string
	NATSSubjectPrefix string
	OTelExporter      string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		DBAutoMigrate:      getEnvBool("DB_AUTO_MIGRATE", false),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash-image-preview"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		QwenAPIKey:    os.Getenv("QWEN_API_KEY"),
		QwenModel:     getEnv("QWEN_MODEL", "qwen-image-edit"),
		QwenBaseURL:   getEnv("QWEN_BASE_URL", "https://dashscope-intl.aliyuncs.com"),

		DefaultModelHint:   getEnv("DEFAULT_MODEL_HINT", "gemini"),
		ModelTimeout:       time.Second * time.Duration(getEnvInt("MODEL_TIMEOUT_SECONDS", 60)),
		ModelRatePerMinute: getEnvInt("MODEL_RATE_PER_MINUTE", 0),

		JobMaxConcurrency: getEnvInt("JOB_MAX_CONCURRENCY", 4),
		JobMaxDuration:    time.Minute * time.Duration(getEnvInt("JOB_MAX_DURATION_MINUTES", 10)),
		ProgressGrace:     time.Second * time.Duration(getEnvInt("PROGRESS_GRACE_SECONDS", 60)),
		ReaperInterval:    time.Second * time.Duration(getEnvInt("REAPER_INTERVAL_SECONDS", 60)),

		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "sceneforge.jobs"),
		OTelExporter:      strings.ToLower(getEnv("OTEL_EXPORTER", "none")),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MIN", 60),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.JobMaxConcurrency <= 0 {
		cfg.JobMaxConcurrency = 1
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = 60 * time.Second
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
