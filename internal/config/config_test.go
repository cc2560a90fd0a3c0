package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend.BaseURL != "http://127.0.0.1:18791" {
		t.Errorf("expected default backend base http://127.0.0.1:18791, got %s", cfg.Backend.BaseURL)
	}

	if cfg.Backend.Timeout() != 30*time.Second {
		t.Errorf("expected backend timeout 30s, got %v", cfg.Backend.Timeout())
	}

	if cfg.Console.PollIntervalSeconds != 15 {
		t.Errorf("expected poll interval 15, got %d", cfg.Console.PollIntervalSeconds)
	}

	if cfg.Console.HistoryLimit != 500 {
		t.Errorf("expected history limit 500, got %d", cfg.Console.HistoryLimit)
	}

	if cfg.Alerts.Enabled {
		t.Error("expected alerts disabled by default")
	}
	if cfg.Alerts.MinInterval() != 60*time.Second {
		t.Errorf("expected alert min interval 60s, got %v", cfg.Alerts.MinInterval())
	}
	if cfg.Events.Topic != "ares.runtime.events" {
		t.Errorf("expected events topic ares.runtime.events, got %s", cfg.Events.Topic)
	}
	if cfg.Identity.TokenPath != "/oauth/token" {
		t.Errorf("expected token path /oauth/token, got %s", cfg.Identity.TokenPath)
	}
}

func TestLoadDefaults(t *testing.T) {
	// Temporarily set HOME to a non-existent directory
	origHome := os.Getenv("HOME")
	os.Setenv("HOME", "/tmp/nonexistent-ares-test")
	defer os.Setenv("HOME", origHome)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Backend.TimeoutSeconds != 30 {
		t.Errorf("expected timeoutSeconds 30, got %d", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging level info, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp config
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, ".ares")
	os.MkdirAll(configDir, 0755)
	configFile := filepath.Join(configDir, "config.json")

	configJSON := `{
		"backend": {
			"baseUrl": "https://runtime.example.com",
			"timeoutSeconds": 10
		},
		"console": {
			"pollIntervalSeconds": 20
		}
	}`
	os.WriteFile(configFile, []byte(configJSON), 0600)

	// Temporarily set HOME
	origHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", origHome)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Backend.BaseURL != "https://runtime.example.com" {
		t.Errorf("expected base https://runtime.example.com, got %s", cfg.Backend.BaseURL)
	}

	if cfg.Console.PollIntervalSeconds != 20 {
		t.Errorf("expected poll interval 20, got %d", cfg.Console.PollIntervalSeconds)
	}
}

func TestEnvOverride(t *testing.T) {
	os.Setenv("ARES_BACKEND_BASE_URL", "http://10.0.0.8:9000")
	os.Setenv("ARES_CONSOLE_POLL_INTERVAL_SECONDS", "45")
	defer func() {
		os.Unsetenv("ARES_BACKEND_BASE_URL")
		os.Unsetenv("ARES_CONSOLE_POLL_INTERVAL_SECONDS")
	}()

	// Use temp home with no config file
	tmpDir := t.TempDir()
	origHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", origHome)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Backend.BaseURL != "http://10.0.0.8:9000" {
		t.Errorf("expected base from env, got %s", cfg.Backend.BaseURL)
	}

	if cfg.Console.PollIntervalSeconds != 45 {
		t.Errorf("expected poll interval 45 from env, got %d", cfg.Console.PollIntervalSeconds)
	}
}

func TestNormalizeClampsPollInterval(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, ".ares")
	os.MkdirAll(configDir, 0755)

	tests := []struct {
		name string
		json string
		want int
	}{
		{"below floor", `{"console": {"pollIntervalSeconds": 1}}`, 5},
		{"above ceiling", `{"console": {"pollIntervalSeconds": 300}}`, 60},
		{"in range", `{"console": {"pollIntervalSeconds": 30}}`, 30},
	}

	origHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", origHome)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.WriteFile(filepath.Join(configDir, "config.json"), []byte(tt.json), 0600)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if cfg.Console.PollIntervalSeconds != tt.want {
				t.Errorf("expected clamped interval %d, got %d", tt.want, cfg.Console.PollIntervalSeconds)
			}
		})
	}
}

func TestNormalizeTrimsBaseURLSlash(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, ".ares")
	os.MkdirAll(configDir, 0755)
	os.WriteFile(filepath.Join(configDir, "config.json"),
		[]byte(`{"backend": {"baseUrl": "http://host:1234/"}}`), 0600)

	origHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", origHome)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if strings.HasSuffix(cfg.Backend.BaseURL, "/") {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.Backend.BaseURL)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	origHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", origHome)

	cfg := DefaultConfig()
	cfg.Backend.BaseURL = "https://saved.example.com"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath() error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat saved config: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected config mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() after save: %v", err)
	}
	if loaded.Backend.BaseURL != "https://saved.example.com" {
		t.Errorf("expected saved base URL, got %s", loaded.Backend.BaseURL)
	}
}
