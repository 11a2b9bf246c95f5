package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// DatabasePath is the SQLite file holding sun-time records.
	DatabasePath string

	// HTTPTimeout bounds every outbound provider and resolver call.
	HTTPTimeout time.Duration

	// GeocoderAPIKey switches the resolver to the Google Geocoding API
	// when set; empty means Nominatim.
	GeocoderAPIKey string

	// GeocoderCacheTTL is how long resolved coordinates are cached.
	GeocoderCacheTTL time.Duration

	// SunTimesBaseURL and NominatimBaseURL override the external endpoints,
	// mainly for local testing against stubs.
	SunTimesBaseURL  string
	NominatimBaseURL string

	// PrefetchLocations are warmed periodically by the scheduler.
	PrefetchLocations []string
	PrefetchInterval  time.Duration
	PrefetchDays      int

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.DatabasePath = getenvDefault("DATABASE_PATH", "data/suntimes.db")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.SunTimesBaseURL = os.Getenv("SUNTIMES_BASE_URL")
	cfg.NominatimBaseURL = os.Getenv("NOMINATIM_BASE_URL")
	cfg.Port = getenvDefault("PORT", "8080")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "15s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	// Resolved coordinates barely ever change; default to 30 days.
	cacheTTLStr := getenvDefault("GEOCODER_CACHE_TTL", "720h")
	cacheTTL, err := time.ParseDuration(cacheTTLStr)
	if err != nil {
		return nil, fmt.Errorf("invalid GEOCODER_CACHE_TTL: %w", err)
	}
	cfg.GeocoderCacheTTL = cacheTTL

	intervalStr := getenvDefault("PREFETCH_INTERVAL", "24h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PREFETCH_INTERVAL: %w", err)
	}
	cfg.PrefetchInterval = interval

	cfg.PrefetchDays = getenvInt("PREFETCH_DAYS", 7)
	cfg.PrefetchLocations = loadPrefetchLocations()

	return cfg, nil
}

func loadPrefetchLocations() []string {
	raw := os.Getenv("PREFETCH_LOCATIONS")
	if raw == "" {
		return nil
	}

	var locs []string
	for _, loc := range strings.Split(raw, ";") {
		loc = strings.TrimSpace(loc)
		if loc != "" {
			locs = append(locs, loc)
		}
	}
	return locs
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
