package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joshuadavidthomas/vibeusage/internal/testenv"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Fetch.Timeout != 30.0 {
		t.Errorf("default timeout = %f, want 30", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.MaxConcurrent != 5 {
		t.Errorf("default max_concurrent = %d, want 5", cfg.Fetch.MaxConcurrent)
	}
	if cfg.Fetch.StaleThresholdMinutes != 60 {
		t.Errorf("default stale threshold = %d, want 60", cfg.Fetch.StaleThresholdMinutes)
	}
	if !cfg.Credentials.ReuseProviderCredentials {
		t.Error("credential reuse should default to on")
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	testenv.Apply(t.Setenv, t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Fetch.Timeout != 30.0 {
		t.Errorf("timeout = %f, want default", cfg.Fetch.Timeout)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := DefaultConfig()
	cfg.EnabledProviders = []string{"claude", "codex"}
	cfg.Fetch.Timeout = 12.5
	cfg.Providers["claude"] = ProviderConfig{AuthSource: "oauth"}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Fetch.Timeout != 12.5 {
		t.Errorf("timeout = %f, want 12.5", loaded.Fetch.Timeout)
	}
	if len(loaded.EnabledProviders) != 2 || loaded.EnabledProviders[0] != "claude" {
		t.Errorf("enabled providers = %v", loaded.EnabledProviders)
	}
	if loaded.Providers["claude"].AuthSource != "oauth" {
		t.Errorf("claude auth_source = %q", loaded.Providers["claude"].AuthSource)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[[[not toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err == nil {
		t.Error("expected parse error for malformed config")
	}
	// Defaults still usable.
	if cfg.Fetch.MaxConcurrent != 5 {
		t.Errorf("expected defaults on parse failure, got %+v", cfg.Fetch)
	}
}

func TestIsProviderEnabled(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.IsProviderEnabled("anything") {
		t.Error("empty enabled list should enable all providers")
	}

	cfg.EnabledProviders = []string{"claude"}
	if !cfg.IsProviderEnabled("claude") {
		t.Error("listed provider should be enabled")
	}
	if cfg.IsProviderEnabled("codex") {
		t.Error("unlisted provider should be disabled")
	}

	disabled := false
	cfg.Providers["claude"] = ProviderConfig{Enabled: &disabled}
	if cfg.IsProviderEnabled("claude") {
		t.Error("per-provider disable should win over the enabled list")
	}
}

func TestIsProviderEnabled_AuthSourceOnlyTable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers["claude"] = ProviderConfig{AuthSource: "oauth"}
	if !cfg.IsProviderEnabled("claude") {
		t.Error("a providers table that only sets auth_source must not disable the provider")
	}
}

func TestEnvOverrides(t *testing.T) {
	testenv.Apply(t.Setenv, t.TempDir())
	t.Setenv("VIBEUSAGE_ENABLED_PROVIDERS", "claude, codex ,")
	t.Setenv("VIBEUSAGE_NO_COLOR", "1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.EnabledProviders) != 2 {
		t.Fatalf("enabled providers = %v, want 2 entries", cfg.EnabledProviders)
	}
	if cfg.EnabledProviders[1] != "codex" {
		t.Errorf("second provider = %q, want codex", cfg.EnabledProviders[1])
	}
	if cfg.Display.PaceColors {
		t.Error("VIBEUSAGE_NO_COLOR should force pace colors off")
	}
}

func TestAuthSource(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.AuthSource("claude") != "auto" {
		t.Errorf("unset auth source = %q, want auto", cfg.AuthSource("claude"))
	}
	cfg.Providers["claude"] = ProviderConfig{AuthSource: "apikey"}
	if cfg.AuthSource("claude") != "apikey" {
		t.Errorf("auth source = %q, want apikey", cfg.AuthSource("claude"))
	}
}

func TestOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fetch.MaxConcurrent = 99
	Override(t, cfg)
	if Get().Fetch.MaxConcurrent != 99 {
		t.Error("Override should replace the global config")
	}
}
