// Package config provides environment-based configuration for voxrelay.
package config

import (
	"os"
	"strconv"
	"time"
)

// Defaults for the relay server.
const (
	DefaultPort         = "8080"
	DefaultPrimaryModel = "gpt-4o-mini"
	DefaultGeminiModel  = "gemini-2.0-flash"
	DefaultVoiceName    = "en-IN-Chirp3-HD-Zephyr"
	DefaultSessionTTL   = 30 * time.Minute
)

// Config holds all server configuration, loaded from environment variables.
type Config struct {
	// Port is the HTTP/WebSocket listen port.
	Port string

	// PresharedKey authenticates inbound connections and requests.
	// Empty disables authentication (development only).
	PresharedKey string

	// Primary text-generation backend (OpenAI-compatible).
	OpenAIAPIKey  string
	OpenAIBaseURL string
	PrimaryModel  string

	// Secondary text-generation backend (Gemini).
	GeminiAPIKey string
	GeminiModel  string

	// GoogleAPIKey is used for the Cloud Speech and Text-to-Speech APIs.
	GoogleAPIKey string

	// DefaultVoice is the synthesis voice assigned to new sessions.
	DefaultVoice string

	// SessionTTL is how long an idle session survives before eviction.
	SessionTTL time.Duration

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		Port:          envOr("PORT", DefaultPort),
		PresharedKey:  os.Getenv("RELAY_API_KEY"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		PrimaryModel:  envOr("PRIMARY_MODEL", DefaultPrimaryModel),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   envOr("GEMINI_MODEL", DefaultGeminiModel),
		GoogleAPIKey:  os.Getenv("GOOGLE_API_KEY"),
		DefaultVoice:  envOr("DEFAULT_VOICE", DefaultVoiceName),
		SessionTTL:    envDuration("SESSION_TTL_MINUTES", DefaultSessionTTL),
		LogLevel:      envOr("LOG_LEVEL", "info"),
	}
}

// envOr returns the environment value or the fallback if unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envDuration reads a minute count from the environment.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	minutes, err := strconv.Atoi(v)
	if err != nil || minutes <= 0 {
		return fallback
	}
	return time.Duration(minutes) * time.Minute
}
