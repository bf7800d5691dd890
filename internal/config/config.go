package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/docoutline/internal/translate"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth
	OutlineAPIKey string

	// Classifier artifact
	ModelPath string

	// Heading translation
	TranslateProvider string
	TranslateTarget   string
	AnthropicAPIKey   string
	AnthropicModel    string
	GeminiAPIKey      string
	GeminiModel       string

	// Worker pool
	WorkerCount      int
	MaxQueueSize     int
	BatchConcurrency int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Optional outline sink; empty URL disables it
	PathstoreURL    string
	PathstoreAPIKey string
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Variables already set win over the file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		OutlineAPIKey: os.Getenv("OUTLINE_API_KEY"),

		ModelPath: envOr("MODEL_PATH", "model/heading_classifier.json"),

		TranslateProvider: strings.ToLower(envOr("TRANSLATE_PROVIDER", "off")),
		TranslateTarget:   envOr("TRANSLATE_TARGET", "English"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:    envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       envOr("GEMINI_MODEL", "gemini-2.5-flash"),

		WorkerCount:      envInt("WORKER_COUNT", 4),
		MaxQueueSize:     envInt("MAX_QUEUE_SIZE", 100),
		BatchConcurrency: envInt("BATCH_CONCURRENCY", 4),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		PathstoreURL:    os.Getenv("PATHSTORE_URL"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks settings shared by the server and the CLI.
func (c Config) Validate() error {
	switch c.TranslateProvider {
	case "off", "":
	case "claude":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when TRANSLATE_PROVIDER=claude")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when TRANSLATE_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("TRANSLATE_PROVIDER must be off, claude or gemini, got %q", c.TranslateProvider)
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	return nil
}

// ValidateServer adds the checks only the HTTP server needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.OutlineAPIKey == "" {
		return fmt.Errorf("OUTLINE_API_KEY is required")
	}
	return nil
}

// Translate returns the provider settings for translate.New.
func (c Config) Translate() translate.Options {
	return translate.Options{
		Provider:       c.TranslateProvider,
		Target:         c.TranslateTarget,
		AnthropicKey:   c.AnthropicAPIKey,
		AnthropicModel: c.AnthropicModel,
		GeminiKey:      c.GeminiAPIKey,
		GeminiModel:    c.GeminiModel,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
