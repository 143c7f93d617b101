package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Seismic feed.
	FeedURL     string
	FeedTimeout time.Duration

	// Geocoding search.
	GeocoderURL         string
	GeocoderUserAgent   string
	GeocoderTimeout     time.Duration
	SuggestionLimit     int
	SuggestionCacheSize int

	// Search debounce.
	DebounceInterval time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional Kafka mirror of the loaded event set.
	KafkaBrokers     []string
	KafkaMirrorTopic string
	MirrorEnabled    bool

	// Tracing.
	TracingEnabled     bool
	TracingExporter    string
	TracingEndpoint    string
	TracingServiceName string
	TracingSampleRatio float64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	feedTimeout, err := durationEnv("FEED_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	geocoderTimeout, err := durationEnv("GEOCODER_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	debounce, err := durationEnv("DEBOUNCE_INTERVAL", 300*time.Millisecond)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	suggestionLimit, err := intEnv("SUGGESTION_LIMIT", 5)
	if err != nil {
		return nil, err
	}
	cacheSize, err := intEnv("SUGGESTION_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	sampleRatio, err := ratioEnv("TRACING_SAMPLE_RATIO", 1.0)
	if err != nil {
		return nil, err
	}

	mirrorTopic := os.Getenv("KAFKA_MIRROR_TOPIC")

	cfg := &Config{
		FeedURL:     envOrDefault("FEED_URL", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_day.geojson"),
		FeedTimeout: feedTimeout,

		GeocoderURL:         envOrDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent:   envOrDefault("GEOCODER_USER_AGENT", "quakeview/1.0"),
		GeocoderTimeout:     geocoderTimeout,
		SuggestionLimit:     suggestionLimit,
		SuggestionCacheSize: cacheSize,

		DebounceInterval: debounce,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaMirrorTopic: mirrorTopic,
		MirrorEnabled:    mirrorTopic != "",

		TracingEnabled:     strings.EqualFold(os.Getenv("TRACING_ENABLED"), "true"),
		TracingExporter:    envOrDefault("TRACING_EXPORTER", "stdout"),
		TracingEndpoint:    os.Getenv("TRACING_ENDPOINT"),
		TracingServiceName: envOrDefault("TRACING_SERVICE_NAME", "quakeview"),
		TracingSampleRatio: sampleRatio,
	}

	if cfg.FeedURL == "" {
		return nil, errors.New("FEED_URL is required")
	}
	if cfg.GeocoderURL == "" {
		return nil, errors.New("GEOCODER_URL is required")
	}
	if cfg.SuggestionLimit <= 0 {
		return nil, errors.New("SUGGESTION_LIMIT must be positive")
	}
	if cfg.DebounceInterval <= 0 {
		return nil, errors.New("DEBOUNCE_INTERVAL must be positive")
	}
	if cfg.MirrorEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_MIRROR_TOPIC is set but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return n, nil
}

func ratioEnv(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, fmt.Errorf("invalid %s: %q (want a ratio in [0, 1])", key, raw)
	}
	return v, nil
}

func parseBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
