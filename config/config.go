// ABOUTME: Configuration loader for the gateway service
// ABOUTME: Loads settings from environment variables with defaults

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port          string
	StreamDelayMs int // inter-segment delay for streamed query responses
	CacheTTL      int // seconds, credential record cache

	// Rate limiting
	RateLimitEnabled bool
	RateLimitReauth  int // requests per minute for /reauth and /register_client
	RateLimitDefault int // requests per minute for everything else

	// Remote authority
	AuthBaseURL string
	AuthTimeout int // seconds, bound on outbound authority calls

	// RequireRegistration surfaces /register_client remote failures to the
	// caller instead of treating registration as best effort.
	RequireRegistration bool

	// Local credential state
	HomeDir         string
	CredentialsPath string
	ClientIDPath    string

	// Query engine (optional; gateway falls back to echo replies without it)
	AnthropicAPIKey string
	AnthropicModel  string
	EngineMaxTokens int
}

func Load() (*Config, error) {
	// Best effort: a missing .env is not an error.
	_ = godotenv.Load()

	home := getEnv("OMNIQ_HOME", defaultHome())

	cfg := &Config{
		Port:          getEnv("PORT", "8787"),
		StreamDelayMs: getEnvInt("STREAM_DELAY_MS", 40),
		CacheTTL:      getEnvInt("CACHE_TTL", 300),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitReauth:  getEnvInt("RATE_LIMIT_REAUTH", 10),
		RateLimitDefault: getEnvInt("RATE_LIMIT_DEFAULT", 100),

		AuthBaseURL: ensureScheme(getEnv("OMNIQ_AUTH_URL", "https://auth.omniq.ai")),
		AuthTimeout: getEnvInt("AUTH_TIMEOUT", 15),

		RequireRegistration: getEnvBool("REQUIRE_REGISTRATION", false),

		HomeDir:         home,
		CredentialsPath: getEnv("OMNIQ_CREDENTIALS_PATH", filepath.Join(home, "credentials.json")),
		ClientIDPath:    getEnv("OMNIQ_CLIENT_ID_PATH", filepath.Join(home, "client_id.json")),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-0"),
		EngineMaxTokens: getEnvInt("ENGINE_MAX_TOKENS", 1024),
	}

	if cfg.AuthTimeout < 1 {
		return nil, fmt.Errorf("AUTH_TIMEOUT must be at least 1 second, got %d", cfg.AuthTimeout)
	}
	if cfg.StreamDelayMs < 0 {
		return nil, fmt.Errorf("STREAM_DELAY_MS must not be negative, got %d", cfg.StreamDelayMs)
	}
	for _, rl := range []struct {
		name  string
		value int
	}{
		{"RATE_LIMIT_REAUTH", cfg.RateLimitReauth},
		{"RATE_LIMIT_DEFAULT", cfg.RateLimitDefault},
	} {
		if rl.value < 1 || rl.value > 10000 {
			return nil, fmt.Errorf("%s must be between 1 and 10000, got %d", rl.name, rl.value)
		}
	}

	return cfg, nil
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".omniq"
	}
	return filepath.Join(home, ".omniq")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}
