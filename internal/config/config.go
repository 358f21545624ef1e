// Package config centralises configuration parsing for the day ledger client.
package config

import (
	"os"
	"time"
)

// Config captures runtime configuration values for the day ledger.
type Config struct {
	DatabaseURL    string        // Base URL of the hosted JSON-tree ledger store.
	IdentityURL    string        // Base URL of the identity provider's accounts API.
	TokenURL       string        // Base URL of the identity provider's token exchange endpoint.
	APIKey         string        // Identity provider API key appended to accounts calls.
	HTTPTimeout    time.Duration // Per-request timeout for both hosted collaborators.
	MetricsAddress string        // Listen address for /metrics; empty disables the listener.
	StartDate      string        // Optional YYYY-MM-DD date the session opens on; empty means today.
}

// Load reads environment variables into Config, applying sensible defaults for local dev.
func Load() Config {
	return Config{
		DatabaseURL:    getEnv("DAYLEDGER_DATABASE_URL", "https://dayledger-default-rtdb.firebasedatabase.app"),
		IdentityURL:    getEnv("DAYLEDGER_IDENTITY_URL", "https://identitytoolkit.googleapis.com/v1"),
		TokenURL:       getEnv("DAYLEDGER_TOKEN_URL", "https://securetoken.googleapis.com/v1"),
		APIKey:         getEnv("DAYLEDGER_API_KEY", ""),
		HTTPTimeout:    getDurationEnv("DAYLEDGER_HTTP_TIMEOUT", 10*time.Second),
		MetricsAddress: getEnv("DAYLEDGER_METRICS_ADDRESS", ""),
		StartDate:      getEnv("DAYLEDGER_DATE", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
