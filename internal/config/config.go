package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Project file and the settings that override it when set.
	ProjectFile string
	BaseDir     string
	OutputDir   string
	SearchPaths []string
	Strict      bool

	// Auth for build triggers
	APIKey string

	// Build queue. Builds share one output directory and run one at a time.
	MaxQueueSize         int
	MaxConcurrentExtract int

	// Job state
	JobTTL time.Duration

	// Exit after the initial build instead of serving.
	BuildOnly bool

	// Logging
	LogLevel  string
	LogFormat string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		ProjectFile: envOr("PROJECT_FILE", DefaultProjectFile),
		BaseDir:     os.Getenv("BASE_DIR"),
		OutputDir:   os.Getenv("OUTPUT_DIR"),
		SearchPaths: envList("SEARCH_PATHS"),
		Strict:      envBool("STRICT", false),

		APIKey: os.Getenv("STEPDOC_API_KEY"),

		MaxQueueSize:         envInt("MAX_QUEUE_SIZE", 16),
		MaxConcurrentExtract: envInt("MAX_CONCURRENT_EXTRACT", 8),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		BuildOnly: envBool("BUILD_ONLY", false),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "json"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.MaxConcurrentExtract <= 0 {
		cfg.MaxConcurrentExtract = 8
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks settings that cannot be defaulted. An empty API key is
// allowed only for build-only runs, where no build endpoint is served.
func (c Config) Validate() error {
	if !c.BuildOnly && c.APIKey == "" {
		return fmt.Errorf("STEPDOC_API_KEY is required unless BUILD_ONLY is set")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
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

// envList splits a comma-separated variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
