// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Settings holds all application configuration.
type Settings struct {
	HTTP      HTTPConfig
	Data      DataConfig
	Cache     CacheConfig
	LLM       LLMConfig
	Assistant AssistantConfig
}

// HTTPConfig holds server configuration.
type HTTPConfig struct {
	Addr           string
	RequestTimeout time.Duration
}

// DataConfig locates the analytical database and session storage.
type DataConfig struct {
	// DuckDBPath is the read-only analytical database file.
	DuckDBPath string
	// MaxConns bounds concurrent engine connections.
	MaxConns int
	// Threads caps engine worker threads; 0 leaves the engine default.
	Threads int
	// MemoryLimit caps engine memory (e.g. "512MB"); empty leaves the
	// engine default.
	MemoryLimit string
	// SessionDBPath is the SQLite file for assistant sessions; empty means
	// sessions are kept in memory only.
	SessionDBPath string
}

// CacheConfig tunes the result cache.
type CacheConfig struct {
	Capacity int
}

// LLMConfig selects the completion-service provider.
type LLMConfig struct {
	Provider    string
	Model       string
	MaxTokens   uint32
	Temperature float64
}

// AssistantConfig tunes the orchestration loop.
type AssistantConfig struct {
	MaxRounds int
}

// New loads settings from environment variables, applying defaults and
// validating values. Returns an error on any malformed variable.
func New() (Settings, error) {
	duckdbPath := os.Getenv("DUCKDB_PATH")
	if duckdbPath == "" {
		duckdbPath = "cbb_data.duckdb"
	}

	maxConns, err := getEnvInt("DUCKDB_MAX_CONNS", 1)
	if err != nil {
		return Settings{}, err
	}

	threads, err := getEnvInt("DUCKDB_THREADS", 0)
	if err != nil {
		return Settings{}, err
	}

	capacity, err := getEnvInt("CACHE_CAPACITY", 256)
	if err != nil {
		return Settings{}, err
	}
	if capacity < 1 {
		return Settings{}, fmt.Errorf("CACHE_CAPACITY must be positive, got %d", capacity)
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.2)
	if err != nil {
		return Settings{}, err
	}

	maxRounds, err := getEnvInt("ASSISTANT_MAX_ROUNDS", 4)
	if err != nil {
		return Settings{}, err
	}
	if maxRounds < 1 {
		return Settings{}, fmt.Errorf("ASSISTANT_MAX_ROUNDS must be positive, got %d", maxRounds)
	}

	requestTimeout, err := getEnvDuration("HTTP_REQUEST_TIMEOUT", 60*time.Second)
	if err != nil {
		return Settings{}, err
	}

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = "openai"
	}

	return Settings{
		HTTP: HTTPConfig{
			Addr:           addr,
			RequestTimeout: requestTimeout,
		},
		Data: DataConfig{
			DuckDBPath:    duckdbPath,
			MaxConns:      maxConns,
			Threads:       threads,
			MemoryLimit:   os.Getenv("DUCKDB_MEMORY_LIMIT"),
			SessionDBPath: os.Getenv("SESSION_DB_PATH"),
		},
		Cache: CacheConfig{
			Capacity: capacity,
		},
		LLM: LLMConfig{
			Provider:    provider,
			Model:       os.Getenv("LLM_MODEL"),
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		Assistant: AssistantConfig{
			MaxRounds: maxRounds,
		},
	}, nil
}

// Environment variable helpers with proper error handling

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return d, nil
}
