package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := Default()
	if cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Fatalf("expected default api url, got %s", cfg.APIBaseURL)
	}
	if cfg.SessionTTL != 30*time.Second || cfg.ElapsedRefresh != 30*time.Second {
		t.Fatalf("unexpected default intervals: %v %v", cfg.SessionTTL, cfg.ElapsedRefresh)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadFilesProjectOverridesGlobal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	global := filepath.Join(dir, "global.yaml")
	project := filepath.Join(dir, "project.yaml")
	if err := os.WriteFile(global, []byte("api_base_url: https://global.example\nsession_ttl: 45s\n"), 0o644); err != nil {
		t.Fatalf("write global: %v", err)
	}
	if err := os.WriteFile(project, []byte("api_base_url: https://project.example\n"), 0o644); err != nil {
		t.Fatalf("write project: %v", err)
	}

	cfg, err := LoadFiles([]string{global, project, filepath.Join(dir, "missing.yaml")}, Overrides{DataDir: dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "https://project.example" {
		t.Fatalf("expected project url, got %s", cfg.APIBaseURL)
	}
	if cfg.SessionTTL != 45*time.Second {
		t.Fatalf("expected ttl from global file, got %v", cfg.SessionTTL)
	}
	if cfg.DataDir != dir {
		t.Fatalf("expected data dir override, got %s", cfg.DataDir)
	}
	if cfg.DBPath() != filepath.Join(dir, "routinectl.db") {
		t.Fatalf("unexpected db path %s", cfg.DBPath())
	}
}

func TestLoadFilesFlagOverrideWins(t *testing.T) {
	t.Parallel()
	cfg, err := LoadFiles(nil, Overrides{APIBaseURL: "https://flag.example", DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "https://flag.example" {
		t.Fatalf("expected flag url, got %s", cfg.APIBaseURL)
	}
}

func TestLoadFilesEnvironment(t *testing.T) {
	t.Setenv("ROUTINECTL_LOG_LEVEL", "debug")
	cfg, err := LoadFiles(nil, Overrides{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected env log level, got %s", cfg.LogLevel)
	}
}

func TestValidateRejectsNonPositiveTTL(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.SessionTTL = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected ttl validation error")
	}
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write default: %v", err)
	}
	cfg, err := LoadFiles([]string{path}, Overrides{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("load written default: %v", err)
	}
	if cfg.SessionTTL != DefaultSessionTTL {
		t.Fatalf("expected default ttl round trip, got %v", cfg.SessionTTL)
	}
	if err := WriteDefault(path); err == nil {
		t.Fatalf("expected second write to fail")
	}
}
