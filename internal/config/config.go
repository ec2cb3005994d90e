package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config aggregates ridepoold settings loaded from environment
// variables. The ridepool CLI binds its own flags and env through
// viper instead.
type Config struct {
	Env          string
	HTTPAddr     string
	PageSize     int
	StubTokens   []string
	FixturesPath string
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:          getEnv("APP_ENV", "dev"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		FixturesPath: os.Getenv("CHAT_FIXTURES"),
	}

	pageSize, err := parseIntEnv("PAGE_SIZE", 10)
	if err != nil {
		return Config{}, err
	}
	if pageSize <= 0 {
		return Config{}, fmt.Errorf("PAGE_SIZE must be positive, got %d", pageSize)
	}
	cfg.PageSize = pageSize

	tokens := getEnv("STUB_TOKENS", "dev-token")
	for _, raw := range strings.Split(tokens, ",") {
		if tok := strings.TrimSpace(raw); tok != "" {
			cfg.StubTokens = append(cfg.StubTokens, tok)
		}
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}
