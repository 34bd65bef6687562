package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Embedding EmbeddingConfig
	Dedupe    DedupeConfig
	Pipeline  PipelineConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// EmbeddingConfig holds embedding-service configuration
type EmbeddingConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DedupeConfig holds duplicate-detection tuning
type DedupeConfig struct {
	FuzzyThreshold float64
	FuzzyTopK      int
}

// PipelineConfig holds processing policy
type PipelineConfig struct {
	// BlockOnInvalid rejects arithmetic-invalid invoices instead of
	// persisting them with warnings.
	BlockOnInvalid bool
	Workers        int
	RecordTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Embedding: EmbeddingConfig{
			BaseURL: getEnv("EMBEDDING_URL", "http://localhost:11434"),
			Model:   getEnv("EMBEDDING_MODEL", "all-minilm"),
			Timeout: getEnvAsDuration("EMBEDDING_TIMEOUT", 30*time.Second),
		},
		Dedupe: DedupeConfig{
			FuzzyThreshold: getEnvAsFloat64("FUZZY_THRESHOLD", 0.88),
			FuzzyTopK:      getEnvAsInt("FUZZY_TOP_K", 5),
		},
		Pipeline: PipelineConfig{
			BlockOnInvalid: getEnvAsBool("BLOCK_ON_INVALID", false),
			Workers:        getEnvAsInt("PIPELINE_WORKERS", 4),
			RecordTimeout:  getEnvAsDuration("PIPELINE_RECORD_TIMEOUT", 2*time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Dedupe.FuzzyThreshold <= 0 || c.Dedupe.FuzzyThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "FUZZY_THRESHOLD must be in (0,1]", ErrInvalidInput)
	}
	if c.Dedupe.FuzzyTopK <= 0 {
		return NewAppError("CONFIG_ERROR", "FUZZY_TOP_K must be positive", ErrInvalidInput)
	}
	return nil
}
