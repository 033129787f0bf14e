package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		ServerURL:    "ws://localhost:8080/hub/chat",
		HistoryURL:   "http://localhost:8080/api",
		UserID:       "u1",
		UserName:     "An",
		PollInterval: 3 * time.Second,
		HistoryLimit: 50,
		Environment:  "development",
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"dev", "dev", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			if got := cfg.IsProduction(); got != tt.expected {
				t.Errorf("IsProduction() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{"development", "development", true},
		{"dev", "dev", true},
		{"empty", "", true},
		{"production", "production", false},
		{"prod", "prod", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			if got := cfg.IsDevelopment(); got != tt.expected {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		wantError     bool
		errorContains string
	}{
		{
			name:      "valid_development",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:          "missing_user_id",
			mutate:        func(c *Config) { c.UserID = "" },
			wantError:     true,
			errorContains: "CHAT_USER_ID",
		},
		{
			name:          "http_server_url",
			mutate:        func(c *Config) { c.ServerURL = "http://localhost:8080/hub" },
			wantError:     true,
			errorContains: "ws:// or wss://",
		},
		{
			name:          "sub_second_poll_interval",
			mutate:        func(c *Config) { c.PollInterval = 200 * time.Millisecond },
			wantError:     true,
			errorContains: "CHAT_POLL_INTERVAL",
		},
		{
			name:          "zero_history_limit",
			mutate:        func(c *Config) { c.HistoryLimit = 0 },
			wantError:     true,
			errorContains: "CHAT_HISTORY_LIMIT",
		},
		{
			name:          "oversized_history_limit",
			mutate:        func(c *Config) { c.HistoryLimit = 500 },
			wantError:     true,
			errorContains: "CHAT_HISTORY_LIMIT",
		},
		{
			name: "production_requires_token",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.ServerURL = "wss://chat.example.com/hub"
			},
			wantError:     true,
			errorContains: "CHAT_AUTH_TOKEN",
		},
		{
			name: "production_requires_wss",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.AuthToken = "token"
			},
			wantError:     true,
			errorContains: "wss://",
		},
		{
			name: "valid_production",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.AuthToken = "token"
				c.ServerURL = "wss://chat.example.com/hub"
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantError {
				if err == nil {
					t.Error("Expected error, got nil")
				} else if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error containing %q, got %q", tt.errorContains, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		expected     string
	}{
		{"env_set", "TEST_KEY", "default", "custom", "custom"},
		{"env_not_set", "TEST_KEY_NOT_SET", "default", "", "default"},
		{"empty_default", "TEST_KEY_EMPTY", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.expected {
				t.Errorf("getEnv() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected time.Duration
	}{
		{"valid", "5s", 5 * time.Second},
		{"invalid_falls_back", "not-a-duration", 3 * time.Second},
		{"unset_falls_back", "", 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_DURATION", tt.envValue)
				defer os.Unsetenv("TEST_DURATION")
			}

			if got := getEnvDuration("TEST_DURATION", 3*time.Second); got != tt.expected {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected int
	}{
		{"valid", "25", 25},
		{"invalid_falls_back", "nope", 50},
		{"unset_falls_back", "", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_INT", tt.envValue)
				defer os.Unsetenv("TEST_INT")
			}

			if got := getEnvInt("TEST_INT", 50); got != tt.expected {
				t.Errorf("getEnvInt() = %v, want %v", got, tt.expected)
			}
		})
	}
}
