package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	JWTSecret string
	Database  DatabaseConfig
	Gemini    GeminiConfig
	Rates     RatesConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool
}

// GeminiConfig holds settings for the external negotiation arbiter
type GeminiConfig struct {
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// RatesConfig holds metal spot-rate synchronization settings
type RatesConfig struct {
	SyncIntervalHours int     // 0 disables periodic sync
	RetailPremiumPct  float64 // markup applied on top of raw spot price
	SpotAPIURL        string
	SpotAPIKey        string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      getEnv("PORT", "3400"),
		JWTSecret: jwtSecret,
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "zevar"),
			Alter:    getEnv("DB_ALTER", "false") == "true",
		},
		Gemini: GeminiConfig{
			APIKey:         os.Getenv("GEMINI_API_KEY"),
			Model:          getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
			TimeoutSeconds: getIntEnv("GEMINI_TIMEOUT_SECONDS", 12),
		},
		Rates: RatesConfig{
			SyncIntervalHours: getIntEnv("RATE_SYNC_INTERVAL_HOURS", 1),
			RetailPremiumPct:  getFloatEnv("RATE_RETAIL_PREMIUM_PCT", 3.0),
			SpotAPIURL:        getEnv("SPOT_API_URL", "https://www.goldapi.io/api"),
			SpotAPIKey:        os.Getenv("SPOT_API_KEY"),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
