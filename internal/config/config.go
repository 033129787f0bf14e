package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds chat client configuration
type Config struct {
	ServerURL    string // websocket endpoint of the realtime hub
	HistoryURL   string // base URL of the message-history REST API
	AuthToken    string
	UserID       string
	UserName     string
	PollInterval time.Duration // connection monitor tick
	HistoryLimit int           // page size for history fetches
	Environment  string        // development, staging, production
}

// Load loads configuration from environment variables and validates it
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		ServerURL:    getEnv("CHAT_SERVER_URL", "ws://localhost:8080/hub/chat"),
		HistoryURL:   getEnv("CHAT_HISTORY_URL", "http://localhost:8080/api"),
		AuthToken:    getEnv("CHAT_AUTH_TOKEN", ""),
		UserID:       getEnv("CHAT_USER_ID", ""),
		UserName:     getEnv("CHAT_USER_NAME", ""),
		PollInterval: getEnvDuration("CHAT_POLL_INTERVAL", 3*time.Second),
		HistoryLimit: getEnvInt("CHAT_HISTORY_LIMIT", 50),
		Environment:  getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

// Validate checks configuration for correctness
func (c *Config) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("CHAT_USER_ID must be set")
	}

	if !strings.HasPrefix(c.ServerURL, "ws://") && !strings.HasPrefix(c.ServerURL, "wss://") {
		return fmt.Errorf("CHAT_SERVER_URL must be a ws:// or wss:// URL (got %q)", c.ServerURL)
	}

	if c.PollInterval < time.Second {
		return fmt.Errorf("CHAT_POLL_INTERVAL must be at least 1s (got %s)", c.PollInterval)
	}

	if c.HistoryLimit <= 0 || c.HistoryLimit > 100 {
		return fmt.Errorf("CHAT_HISTORY_LIMIT must be between 1 and 100 (got %d)", c.HistoryLimit)
	}

	if c.IsProduction() {
		if c.AuthToken == "" {
			return fmt.Errorf("CHAT_AUTH_TOKEN must be set in production")
		}
		if !strings.HasPrefix(c.ServerURL, "wss://") {
			return fmt.Errorf("CHAT_SERVER_URL must use wss:// in production")
		}
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev" || c.Environment == ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s: %q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
