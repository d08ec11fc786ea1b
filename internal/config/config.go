package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SourceLocal = "local"
	SourceRoam  = "roam"
)

type Config struct {
	ListenAddr    string
	DataPath      string
	Source        string
	NotesPath     string
	RoamGraph     string
	RoamToken     string
	RoamAPIURL    string
	RoamRPS       float64
	VisibleBatch  int
	BatchSize     int
	EnrichBatch   int
	BatchYield    time.Duration
	DBBusyTimeout time.Duration
	Watch         bool
}

// Load reads the configuration from the environment. Values from a .env file
// in the working directory are used for keys that are not already set.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	cfg := Config{
		ListenAddr: envOr("GALLERY_LISTEN_ADDR", "127.0.0.1:8090"),
		DataPath:   envOr("GALLERY_DATA_PATH", ".gallery"),
		Source:     strings.ToLower(envOr("GALLERY_SOURCE", SourceLocal)),
		NotesPath:  os.Getenv("GALLERY_NOTES_PATH"),
		RoamGraph:  os.Getenv("GALLERY_ROAM_GRAPH"),
		RoamToken:  os.Getenv("GALLERY_ROAM_TOKEN"),
		RoamAPIURL: strings.TrimRight(envOr("GALLERY_ROAM_API_URL", "https://api.roamresearch.com"), "/"),
	}

	cfg.RoamRPS = parseFloatOr("GALLERY_ROAM_RPS", 5)
	cfg.VisibleBatch = parseIntOr("GALLERY_VISIBLE_BATCH", 50)
	cfg.BatchSize = parseIntOr("GALLERY_BATCH_SIZE", 50)
	cfg.EnrichBatch = parseIntOr("GALLERY_ENRICH_BATCH", 10)
	cfg.BatchYield = parseDurationOr("GALLERY_BATCH_YIELD", 10*time.Millisecond)
	cfg.DBBusyTimeout = parseDurationOr("GALLERY_DB_BUSY_TIMEOUT", 5*time.Second)
	cfg.Watch = parseBoolOr("GALLERY_WATCH", false)
	return cfg
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
	}
	return fallback
}

func parseIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func parseFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func parseBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
