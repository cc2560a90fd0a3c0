package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWithIncludeAndEnvSubstitution(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, ".ares")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}

	basePath := filepath.Join(configDir, "base.json")
	mainPath := filepath.Join(configDir, "config.json")
	baseCfg := `{
		"backend": { "baseUrl": "http://base:1111", "timeoutSeconds": 12 },
		"console": { "pollIntervalSeconds": 25 }
	}`
	mainCfg := `{
		"$include": "base.json",
		"backend": { "baseUrl": "${TEST_BACKEND_URL}" },
		"console": { "historyLimit": 50 }
	}`
	if err := os.WriteFile(basePath, []byte(baseCfg), 0o600); err != nil {
		t.Fatalf("write base config: %v", err)
	}
	if err := os.WriteFile(mainPath, []byte(mainCfg), 0o600); err != nil {
		t.Fatalf("write main config: %v", err)
	}

	origHome := os.Getenv("HOME")
	origURL := os.Getenv("TEST_BACKEND_URL")
	defer os.Setenv("HOME", origHome)
	defer os.Setenv("TEST_BACKEND_URL", origURL)
	_ = os.Setenv("HOME", tmpDir)
	_ = os.Setenv("TEST_BACKEND_URL", "http://env:2222")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Backend.BaseURL != "http://env:2222" {
		t.Fatalf("expected env-substituted base URL, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSeconds != 12 {
		t.Fatalf("expected timeout from include file, got %d", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Console.PollIntervalSeconds != 25 {
		t.Fatalf("expected poll interval preserved from include, got %d", cfg.Console.PollIntervalSeconds)
	}
	if cfg.Console.HistoryLimit != 50 {
		t.Fatalf("expected main config override for historyLimit, got %d", cfg.Console.HistoryLimit)
	}
}

func TestLoadWithIncludeArrayMergeOrder(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, ".ares")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}

	first := `{"backend": {"baseUrl": "http://first:1", "timeoutSeconds": 11}}`
	second := `{"backend": {"baseUrl": "http://second:2"}}`
	main := `{"$include": ["first.json", "second.json"], "console": {"theme": "light"}}`

	_ = os.WriteFile(filepath.Join(configDir, "first.json"), []byte(first), 0o600)
	_ = os.WriteFile(filepath.Join(configDir, "second.json"), []byte(second), 0o600)
	_ = os.WriteFile(filepath.Join(configDir, "config.json"), []byte(main), 0o600)

	origHome := os.Getenv("HOME")
	defer os.Setenv("HOME", origHome)
	_ = os.Setenv("HOME", tmpDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Backend.BaseURL != "http://second:2" {
		t.Fatalf("expected second include to override first, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSeconds != 11 {
		t.Fatalf("expected timeout preserved from first include, got %d", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Console.Theme != "light" {
		t.Fatalf("expected theme from main config, got %v", cfg.Console.Theme)
	}
}

func TestLoadWithInvalidIncludeTypeReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, ".ares")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	main := `{"$include": 123}`
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte(main), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	origHome := os.Getenv("HOME")
	defer os.Setenv("HOME", origHome)
	_ = os.Setenv("HOME", tmpDir)

	if _, err := Load(); err == nil {
		t.Fatal("expected invalid $include error, got nil")
	}
}

func TestLoadWithIncludeCycleReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, ".ares")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	main := `{"$include": "a.json"}`
	a := `{"$include": "b.json"}`
	b := `{"$include": "a.json"}`
	_ = os.WriteFile(filepath.Join(configDir, "config.json"), []byte(main), 0o600)
	_ = os.WriteFile(filepath.Join(configDir, "a.json"), []byte(a), 0o600)
	_ = os.WriteFile(filepath.Join(configDir, "b.json"), []byte(b), 0o600)

	origHome := os.Getenv("HOME")
	defer os.Setenv("HOME", origHome)
	_ = os.Setenv("HOME", tmpDir)

	if _, err := Load(); err == nil {
		t.Fatal("expected include cycle error, got nil")
	}
}

func TestParseIncludes(t *testing.T) {
	got, err := parseIncludes("one.json")
	if err != nil || len(got) != 1 || got[0] != "one.json" {
		t.Fatalf("unexpected parse result: got=%v err=%v", got, err)
	}
	got, err = parseIncludes([]any{"one.json", "two.json"})
	if err != nil || len(got) != 2 {
		t.Fatalf("unexpected array parse: got=%v err=%v", got, err)
	}
	if _, err := parseIncludes([]any{"ok.json", 42}); err == nil {
		t.Fatal("expected parse error for non-string include item")
	}
}
