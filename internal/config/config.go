package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr string

	// Auth
	APIKey string

	// Logging
	LogLevel string

	// Worker pool
	Workers   int
	QueueSize int

	// Job state
	JobTTL          time.Duration
	CleanupInterval time.Duration

	// Upload limits
	MaxUploadBytes int64

	// Directories
	OutputDir   string
	LayoutDir   string
	ArtifactDir string

	// Artifact store backend
	Store  string
	DBPath string

	// Remote artifact source
	AssetURL     string
	AssetToken   string
	AssetTimeout time.Duration
}

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreDir    = "dir"
	StoreRemote = "remote"
)

func Load() Config {
	cfg := Config{
		Addr: envOr("REPORTFORGE_ADDR", ":8095"),

		APIKey: os.Getenv("REPORTFORGE_API_KEY"),

		LogLevel: envOr("REPORTFORGE_LOG_LEVEL", "info"),

		Workers:   envInt("REPORTFORGE_WORKERS", 4),
		QueueSize: envInt("REPORTFORGE_QUEUE_SIZE", 64),

		JobTTL:          envDuration("REPORTFORGE_JOB_TTL", 1*time.Hour),
		CleanupInterval: envDuration("REPORTFORGE_CLEANUP_INTERVAL", 5*time.Minute),

		MaxUploadBytes: envInt64("REPORTFORGE_MAX_UPLOAD_BYTES", 8388608), // 8MB

		OutputDir:   envOr("REPORTFORGE_OUTPUT_DIR", "out"),
		LayoutDir:   envOr("REPORTFORGE_LAYOUT_DIR", "layouts"),
		ArtifactDir: os.Getenv("REPORTFORGE_ARTIFACT_DIR"),

		Store:  envOr("REPORTFORGE_STORE", StoreSQLite),
		DBPath: envOr("REPORTFORGE_DB_PATH", "reportforge.db"),

		AssetURL:     os.Getenv("REPORTFORGE_ASSET_URL"),
		AssetToken:   os.Getenv("REPORTFORGE_ASSET_TOKEN"),
		AssetTimeout: envDuration("REPORTFORGE_ASSET_TIMEOUT", 30*time.Second),
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 8388608
	}
	if cfg.AssetTimeout <= 0 {
		cfg.AssetTimeout = 30 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("REPORTFORGE_API_KEY is required")
	}
	switch c.Store {
	case StoreMemory, StoreSQLite, StoreDir, StoreRemote:
	default:
		return fmt.Errorf("REPORTFORGE_STORE must be %q, %q, %q or %q, got %q", StoreMemory, StoreSQLite, StoreDir, StoreRemote, c.Store)
	}
	if c.Store == StoreDir && c.ArtifactDir == "" {
		return fmt.Errorf("REPORTFORGE_ARTIFACT_DIR is required when REPORTFORGE_STORE=dir")
	}
	if c.Store == StoreRemote && c.AssetURL == "" {
		return fmt.Errorf("REPORTFORGE_ASSET_URL is required when REPORTFORGE_STORE=remote")
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

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
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
