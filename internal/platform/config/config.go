package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration. FromEnv keeps main lean; every
// value has a documented default so the binary runs with no environment at
// all (in-memory backend, default policy windows).
type Server struct {
	Addr        string
	MetricsAddr string

	// StorageBackend selects the base store implementation: memory (default)
	// or postgres. A non-empty RedisURL overlays the verification and link
	// stores on top of it.
	StorageBackend string
	RedisURL       string
	PostgresDSN    string

	// StampValidity is the window a recorded signature stays valid.
	StampValidity time.Duration
	// MaxRevisionCycles caps rejected -> awaiting_upload loops before
	// escalation.
	MaxRevisionCycles int
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:              envOr("CANOPY_ADDR", ":8080"),
		MetricsAddr:       envOr("CANOPY_METRICS_ADDR", ":9090"),
		StorageBackend:    envOr("CANOPY_STORAGE", "memory"),
		RedisURL:          os.Getenv("CANOPY_REDIS_URL"),
		PostgresDSN:       os.Getenv("CANOPY_POSTGRES_DSN"),
		StampValidity:     time.Duration(envIntOr("CANOPY_STAMP_VALIDITY_DAYS", 365)) * 24 * time.Hour,
		MaxRevisionCycles: envIntOr("CANOPY_MAX_REVISION_CYCLES", 2),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
