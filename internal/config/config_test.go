package config

import (
	"os"
	"testing"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_GEMINI_MODEL", "gemini-2.5-pro", "gemini-2.0-flash", "gemini-2.5-pro"},
		{"uses default when empty", "TEST_STORAGE_PATH", "", "./exports", "./exports"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_JOB_MAX_RETRIES", "5", 3, 5},
		{"uses default for empty", "TEST_CONCURRENT_REQS", "", 5, 5},
		{"uses default for non-numeric", "TEST_REQS_PER_MIN", "abc", 60, 60},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestLoad_AppliesDefaults(t *testing.T) {
	required := map[string]string{
		"DATABASE_URL":   "postgres://localhost/skillbeam_test",
		"REDIS_URL":      "redis://localhost:6379",
		"JWT_SECRET":     "test-secret",
		"GEMINI_API_KEY": "test-key",
	}
	for key, value := range required {
		os.Setenv(key, value)
		defer os.Unsetenv(key)
	}
	for _, key := range []string{"PORT", "GEMINI_MODEL", "JOB_MAX_RETRIES", "STORAGE_PATH"} {
		os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Errorf("Expected default model, got %q", cfg.GeminiModel)
	}
	if cfg.JobMaxRetries != 3 {
		t.Errorf("Expected 3 retries, got %d", cfg.JobMaxRetries)
	}
	if cfg.StoragePath != "./exports" {
		t.Errorf("Expected ./exports, got %q", cfg.StoragePath)
	}
	if cfg.DatabaseURL != required["DATABASE_URL"] {
		t.Errorf("Unexpected database URL %q", cfg.DatabaseURL)
	}
}
