// Package config loads the small, flat set of environment variables
// this service recognizes.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the complete runtime configuration for cmd/ingestd.
type Config struct {
	DatabaseURL   string
	UpstreamBase  string
	UpstreamKey   string
	MockUpstream  bool

	IngestInterval time.Duration
	MaxPages       int
	AliveWindow    time.Duration
	UnseenGrace    time.Duration
	FinalizeBatch  int
	BackfillBatch  int

	MetricsAddr string
	LogLevel    string
	LogEncoding string
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envMillis(key string, defMs int) time.Duration {
	return time.Duration(envInt(key, defMs)) * time.Millisecond
}

// Load reads Config from the process environment, applying the
// defaults named in spec §6.
func Load() Config {
	return Config{
		DatabaseURL:  envString("DATABASE_URL", ""),
		UpstreamBase: envString("UPSTREAM_BASE_URL", "https://api.hypixel.net/skyblock"),
		UpstreamKey:  envString("UPSTREAM_API_KEY", ""),
		MockUpstream: envBool("MOCK_UPSTREAM", false),

		IngestInterval: envMillis("INGEST_INTERVAL_MS", 120000),
		MaxPages:       envInt("MAX_PAGES", 200),
		AliveWindow:    envMillis("ALIVE_WINDOW_MS", 480000),
		UnseenGrace:    envMillis("UNSEEN_GRACE_MS", 60000),
		FinalizeBatch:  envInt("FINALIZE_BATCH", 5000),
		BackfillBatch:  envInt("BACKFILL_BATCH", 20000),

		MetricsAddr: envString("METRICS_ADDR", ":9090"),
		LogLevel:    envString("LOG_LEVEL", "info"),
		LogEncoding: envString("LOG_ENCODING", "json"),
	}
}
