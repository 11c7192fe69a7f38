package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/language"
)

// Config holds the runtime configuration, read from the environment. A .env
// file in the working directory is honored via godotenv autoload in main.
type Config struct {
	ListenAddr string
	DataDir    string

	TMDBAPIKey    string
	RAWGAPIKey    string
	YouTubeAPIKey string

	// Region selects the watch-provider bundle (default IT). PrimaryLocale
	// and FallbackLocale drive the metadata search chain.
	Region         string
	PrimaryLocale  string
	FallbackLocale string

	CacheTTL       time.Duration
	RequestTimeout time.Duration
	LogFile        string
}

// Load reads configuration from the environment, applying defaults for
// everything optional. Only malformed values are an error; missing API keys
// just disable the corresponding resolver chains.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:     envOr("CRITIVERSE_ADDR", ":8085"),
		DataDir:        envOr("CRITIVERSE_DATA_DIR", "./data"),
		TMDBAPIKey:     os.Getenv("TMDB_API_KEY"),
		RAWGAPIKey:     os.Getenv("RAWG_API_KEY"),
		YouTubeAPIKey:  os.Getenv("YOUTUBE_API_KEY"),
		Region:         envOr("CRITIVERSE_REGION", "IT"),
		PrimaryLocale:  envOr("CRITIVERSE_LOCALE", "it-IT"),
		FallbackLocale: envOr("CRITIVERSE_FALLBACK_LOCALE", "en-US"),
		LogFile:        os.Getenv("CRITIVERSE_LOG_FILE"),
	}

	var err error
	if cfg.PrimaryLocale, err = normalizeLocale(cfg.PrimaryLocale); err != nil {
		return Config{}, fmt.Errorf("CRITIVERSE_LOCALE: %w", err)
	}
	if cfg.FallbackLocale, err = normalizeLocale(cfg.FallbackLocale); err != nil {
		return Config{}, fmt.Errorf("CRITIVERSE_FALLBACK_LOCALE: %w", err)
	}

	if cfg.CacheTTL, err = envDuration("CRITIVERSE_CACHE_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = envDuration("CRITIVERSE_REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.TMDBAPIKey == "" {
		log.Printf("[config] TMDB_API_KEY not set, movie/series metadata disabled")
	}
	if cfg.RAWGAPIKey == "" {
		log.Printf("[config] RAWG_API_KEY not set, game metadata disabled")
	}

	return cfg, nil
}

// normalizeLocale canonicalizes a BCP 47 tag ("it_it" -> "it-IT").
func normalizeLocale(value string) (string, error) {
	tag, err := language.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid locale %q: %w", value, err)
	}
	return tag.String(), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	// Accept plain seconds for convenience.
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %s=%q: %w", key, v, err)
	}
	return d, nil
}
