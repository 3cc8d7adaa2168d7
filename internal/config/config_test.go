package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
[storage]
endpoint = "localhost:9000"
access_key = "minio"
secret_key = "minio123"
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config to exist")
	}
	if resolved != path {
		t.Fatalf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Matcher.GPSRadiusKM != defaultGPSRadiusKM {
		t.Fatalf("gps radius = %v, want default %v", cfg.Matcher.GPSRadiusKM, defaultGPSRadiusKM)
	}
	if cfg.Matcher.AutoMatchThreshold != defaultAutoMatchThreshold {
		t.Fatalf("auto threshold = %v", cfg.Matcher.AutoMatchThreshold)
	}
	if cfg.Vision.BaseURL != defaultVisionBaseURL {
		t.Fatalf("vision base url = %q", cfg.Vision.BaseURL)
	}
	if cfg.FFmpeg.FFprobeBinary != "ffprobe" {
		t.Fatalf("ffprobe binary = %q", cfg.FFmpeg.FFprobeBinary)
	}
	if !strings.HasSuffix(cfg.DatabasePath(), "gigsnap.db") {
		t.Fatalf("database path = %q", cfg.DatabasePath())
	}
}

func TestLoadRejectsMissingStorage(t *testing.T) {
	path := writeConfig(t, "[logging]\nlevel = \"debug\"\n")
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected validation error without storage settings")
	}
}

func TestLoadRejectsInvertedThresholds(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[matcher]
suggestion_threshold = 0.9
auto_match_threshold = 0.5
`)
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error when auto threshold below suggestion threshold")
	}
}

func TestLoadStorageCredentialsFromEnv(t *testing.T) {
	t.Setenv("GIGSNAP_STORAGE_ACCESS_KEY", "env-access")
	t.Setenv("GIGSNAP_STORAGE_SECRET_KEY", "env-secret")
	path := writeConfig(t, "[storage]\nendpoint = \"localhost:9000\"\n")
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.AccessKey != "env-access" || cfg.Storage.SecretKey != "env-secret" {
		t.Fatalf("env credentials not applied: %+v", cfg.Storage)
	}
}

func TestCatalogValidationWhenEnabled(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[catalog]
enabled = true
`)
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for enabled catalog without credentials")
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if err := CreateSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	got, err := ExpandPath("~/gigsnap-test")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "gigsnap-test") {
		t.Fatalf("ExpandPath = %q", got)
	}
}
