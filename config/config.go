// Package config loads and validates the service configuration from
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port     string
	Address  string
	Env      string
	LogLevel string
	LogDir   string

	DataDir   string // directory holding the corpus JSON tables
	RulesFile string // optional shortcut rule table override (YAML)

	TopK     int     // default number of ranked matches per query
	MinScore float64 // minimum top score to accept; 0 disables the check

	EmbeddingAPIKey  string
	EmbeddingBaseURL string
	EmbeddingModel   string

	TranslateURL    string
	TranslateAPIKey string

	QAEndpoint string
	QAAPIKey   string

	ProviderTimeout time.Duration
	MaxRequestBody  int64
}

// Load reads configuration from the environment, applying defaults and
// validating each value.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnvWithDefault("PORT", "8000"),
		Address:  getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:      getEnvWithDefault("ENV", "dev"),
		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:   os.Getenv("LOG_DIR"),

		DataDir:   getEnvWithDefault("DATA_DIR", "data/corpus"),
		RulesFile: os.Getenv("RULES_FILE"),

		TopK:     getIntEnvWithDefault("TOP_K", 3),
		MinScore: getFloatEnvWithDefault("MIN_SCORE", 0),

		EmbeddingAPIKey:  os.Getenv("EMBEDDING_API_KEY"),
		EmbeddingBaseURL: os.Getenv("EMBEDDING_BASE_URL"),
		EmbeddingModel:   os.Getenv("EMBEDDING_MODEL"),

		TranslateURL:    os.Getenv("TRANSLATE_URL"),
		TranslateAPIKey: os.Getenv("TRANSLATE_API_KEY"),

		QAEndpoint: os.Getenv("QA_ENDPOINT"),
		QAAPIKey:   os.Getenv("QA_API_KEY"),

		ProviderTimeout: getDurationEnvWithDefault("PROVIDER_TIMEOUT", 30*time.Second),
		MaxRequestBody:  getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576), // 1MB
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}
	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("DATA_DIR cannot be empty")
	}
	if cfg.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got: %d", cfg.TopK)
	}
	if cfg.MinScore < 0 || cfg.MinScore > 1 {
		return fmt.Errorf("MIN_SCORE must be in [0, 1], got: %v", cfg.MinScore)
	}
	if cfg.EmbeddingAPIKey == "" {
		return fmt.Errorf("EMBEDDING_API_KEY is required")
	}
	if cfg.MaxRequestBody <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY must be positive, got: %d", cfg.MaxRequestBody)
	}
	if cfg.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive, got: %v", cfg.ProviderTimeout)
	}
	return nil
}

func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

func validateEnv(env string) error {
	validEnvs := []string{"dev", "staging", "prod", "test"}
	env = strings.ToLower(env)

	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

func validateLogLevel(logLevel string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
