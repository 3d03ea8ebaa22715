// Package config provides application-wide configuration loaded from env vars.
// All fields have safe defaults so the binary runs locally without any env setup;
// provider credentials are the only values that must come from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration for the broker.
type Config struct {
	// HTTP
	Port            string // PORT: default: "8080"
	TrustedIPHeader string // TRUSTED_IP_HEADER: default: "CF-Connecting-IP"

	// Providers
	CerebrasAPIKey  string        // CEREBRAS_API_KEY: raw, sanitized in Providers()
	CerebrasModel   string        // CEREBRAS_MODEL
	GroqAPIKey      string        // GROQ_API_KEY: raw, sanitized in Providers()
	GroqModel       string        // GROQ_MODEL
	OllamaBaseURL   string        // OLLAMA_BASE_URL: empty disables the local provider
	OllamaChatModel string        // OLLAMA_CHAT_MODEL: default: "llama3.2:3b"
	CFAccountID     string        // CF_ACCOUNT_ID: gateway routing, paired with CF_GATEWAY_ID
	CFGatewayID     string        // CF_GATEWAY_ID
	ProvidersFile   string        // PROVIDERS_FILE: optional YAML catalog, replaces the built-in list
	ProviderTimeout time.Duration // PROVIDER_TIMEOUT: default: 30s

	// Rate limiting
	RateLimit  int           // RATE_LIMIT: default: 5
	RateWindow time.Duration // RATE_WINDOW: default: 60s
	RateStore  string        // RATE_STORE: "memory" (default) or "sqlite"
	RateDBPath string        // RATE_DB_PATH: default: "aghoy-rate.db"

	// Logging
	LogLevel       string // LOG_LEVEL: default: "info"
	LogFormat      string // LOG_FORMAT: "text" (default) or "json"
	FingerprintKey string // FINGERPRINT_KEY: keys the identity hash in logs
}

const (
	envKeyPort            = "PORT"
	envKeyTrustedIPHeader = "TRUSTED_IP_HEADER"
	envKeyCerebrasAPIKey  = "CEREBRAS_API_KEY"
	envKeyCerebrasModel   = "CEREBRAS_MODEL"
	envKeyGroqAPIKey      = "GROQ_API_KEY"
	envKeyGroqModel       = "GROQ_MODEL"
	envKeyOllamaBaseURL   = "OLLAMA_BASE_URL"
	envKeyOllamaChatModel = "OLLAMA_CHAT_MODEL"
	envKeyCFAccountID     = "CF_ACCOUNT_ID"
	envKeyCFGatewayID     = "CF_GATEWAY_ID"
	envKeyProvidersFile   = "PROVIDERS_FILE"
	envKeyProviderTimeout = "PROVIDER_TIMEOUT"
	envKeyRateLimit       = "RATE_LIMIT"
	envKeyRateWindow      = "RATE_WINDOW"
	envKeyRateStore       = "RATE_STORE"
	envKeyRateDBPath      = "RATE_DB_PATH"
	envKeyLogLevel        = "LOG_LEVEL"
	envKeyLogFormat       = "LOG_FORMAT"
	envKeyFingerprintKey  = "FINGERPRINT_KEY"
)

// Default model identifiers. They are configuration, not behavior: nothing
// in the broker depends on a specific model.
const (
	DefaultCerebrasModel   = "qwen-3-235b-a22b-instruct-2507"
	DefaultGroqModel       = "moonshotai/kimi-k2-instruct-0905"
	DefaultOllamaChatModel = "llama3.2:3b"
)

// Rate store backends.
const (
	RateStoreMemory = "memory"
	RateStoreSQLite = "sqlite"
)

// Load reads configuration from environment variables, applying defaults for missing values.
// Malformed numeric or duration values fall back to their defaults.
func Load() Config {
	return Config{
		Port:            envOr(envKeyPort, "8080"),
		TrustedIPHeader: envOr(envKeyTrustedIPHeader, "CF-Connecting-IP"),

		CerebrasAPIKey:  os.Getenv(envKeyCerebrasAPIKey),
		CerebrasModel:   envOr(envKeyCerebrasModel, DefaultCerebrasModel),
		GroqAPIKey:      os.Getenv(envKeyGroqAPIKey),
		GroqModel:       envOr(envKeyGroqModel, DefaultGroqModel),
		OllamaBaseURL:   os.Getenv(envKeyOllamaBaseURL),
		OllamaChatModel: envOr(envKeyOllamaChatModel, DefaultOllamaChatModel),
		CFAccountID:     os.Getenv(envKeyCFAccountID),
		CFGatewayID:     os.Getenv(envKeyCFGatewayID),
		ProvidersFile:   os.Getenv(envKeyProvidersFile),
		ProviderTimeout: envDurationOr(envKeyProviderTimeout, 30*time.Second),

		RateLimit:  envIntOr(envKeyRateLimit, 5),
		RateWindow: envDurationOr(envKeyRateWindow, 60*time.Second),
		RateStore:  envOr(envKeyRateStore, RateStoreMemory),
		RateDBPath: envOr(envKeyRateDBPath, "aghoy-rate.db"),

		LogLevel:       envOr(envKeyLogLevel, "info"),
		LogFormat:      envOr(envKeyLogFormat, "text"),
		FingerprintKey: os.Getenv(envKeyFingerprintKey),
	}
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
