package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	HTTPAddr        string
	DBConnString    string
	CartAPIBaseURL  string
	CartAPITimeout  time.Duration
	TrustWindow     time.Duration
	SessionKey      string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// Load reads a local .env file when present and then calls FromEnv.
// Variables already set in the environment win over the file.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds Config with defaults, overridden by environment variables.
// An empty DB_DSN keeps sessions in memory.
func FromEnv() Config {
	return Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		DBConnString:    os.Getenv("DB_DSN"),
		CartAPIBaseURL:  envOrDefault("CART_API_BASE_URL", "http://localhost:3000/api"),
		CartAPITimeout:  envDuration("CART_API_TIMEOUT_SECONDS", 10*time.Second),
		TrustWindow:     envDuration("CART_TRUST_WINDOW_SECONDS", 30*time.Second),
		SessionKey:      envOrDefault("SESSION_KEY", "cart-storage"),
		CORSOrigins:     envList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
