// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the cache database (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	// Language collaborator (Anthropic)
	AnthropicAPIKey string
	AnthropicModel  string

	// Speech collaborator
	SpeechServiceURL string
	SpeechAPIKey     string

	// Market data
	BenchmarkSymbol string        // Benchmark index used for beta calculations
	QuoteCacheTTL   time.Duration // TTL for fetched price series
	RefreshInterval time.Duration // Minimum gap between background ingestion runs

	// Analytics defaults
	RiskFreeRate float64

	// Brief / exposure defaults. The allocation percentages are illustrative
	// defaults, not derived values, so they stay configurable.
	BriefRegion           string
	BriefSector           string
	AsiaTechAllocationPct float64
	AsiaTechPreviousPct   float64
	SurpriseThresholdPct  float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("ADVISOR_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("ADVISOR_PORT", 8000),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),

		SpeechServiceURL: getEnv("SPEECH_SERVICE_URL", ""),
		SpeechAPIKey:     getEnv("SPEECH_API_KEY", ""),

		BenchmarkSymbol: getEnv("BENCHMARK_SYMBOL", "^GSPC"),
		QuoteCacheTTL:   getEnvAsDuration("QUOTE_CACHE_TTL", 300*time.Second),
		RefreshInterval: getEnvAsDuration("REFRESH_INTERVAL", time.Hour),

		RiskFreeRate: getEnvAsFloat("RISK_FREE_RATE", 0.035),

		BriefRegion:           getEnv("BRIEF_REGION", "Asia"),
		BriefSector:           getEnv("BRIEF_SECTOR", "Technology"),
		AsiaTechAllocationPct: getEnvAsFloat("ASIA_TECH_ALLOCATION_PCT", 22),
		AsiaTechPreviousPct:   getEnvAsFloat("ASIA_TECH_PREVIOUS_PCT", 18),
		SurpriseThresholdPct:  getEnvAsFloat("SURPRISE_THRESHOLD_PCT", 1.0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.QuoteCacheTTL <= 0 {
		return fmt.Errorf("quote cache TTL must be positive, got %s", c.QuoteCacheTTL)
	}
	// Note: Anthropic credentials optional - the keyword fallback classifier
	// and template narratives keep the system answering without them.
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
