package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

type DisplayConfig struct {
	ShowRemaining bool   `toml:"show_remaining" json:"show_remaining"`
	PaceColors    bool   `toml:"pace_colors" json:"pace_colors"`
	ResetFormat   string `toml:"reset_format" json:"reset_format"`
}

type FetchConfig struct {
	Timeout               float64 `toml:"timeout" json:"timeout"`
	MaxRetries            int     `toml:"max_retries" json:"max_retries"`
	MaxConcurrent         int     `toml:"max_concurrent" json:"max_concurrent"`
	StaleThresholdMinutes int     `toml:"stale_threshold_minutes" json:"stale_threshold_minutes"`
}

type CredentialsConfig struct {
	UseKeyring               bool `toml:"use_keyring" json:"use_keyring"`
	ReuseProviderCredentials bool `toml:"reuse_provider_credentials" json:"reuse_provider_credentials"`
}

type ProviderConfig struct {
	AuthSource string `toml:"auth_source,omitempty" json:"auth_source,omitempty"`
	// Enabled is a pointer so "unset" and an explicit `enabled = false`
	// stay distinct; a table that only sets auth_source must not disable
	// the provider.
	Enabled *bool `toml:"enabled,omitempty" json:"enabled,omitempty"`
}

type Config struct {
	EnabledProviders []string                  `toml:"enabled_providers" json:"enabled_providers"`
	Display          DisplayConfig             `toml:"display" json:"display"`
	Fetch            FetchConfig               `toml:"fetch" json:"fetch"`
	Credentials      CredentialsConfig         `toml:"credentials" json:"credentials"`
	Providers        map[string]ProviderConfig `toml:"providers" json:"providers"`
}

func DefaultConfig() Config {
	return Config{
		EnabledProviders: nil,
		Display: DisplayConfig{
			ShowRemaining: true,
			PaceColors:    true,
			ResetFormat:   "countdown",
		},
		Fetch: FetchConfig{
			Timeout:               30.0,
			MaxRetries:            3,
			MaxConcurrent:         5,
			StaleThresholdMinutes: 60,
		},
		Credentials: CredentialsConfig{
			UseKeyring:               false,
			ReuseProviderCredentials: true,
		},
		Providers: make(map[string]ProviderConfig),
	}
}

func (c Config) clone() Config {
	out := c
	if c.EnabledProviders != nil {
		out.EnabledProviders = make([]string, len(c.EnabledProviders))
		copy(out.EnabledProviders, c.EnabledProviders)
	}
	out.Providers = make(map[string]ProviderConfig, len(c.Providers))
	for k, v := range c.Providers {
		out.Providers[k] = v
	}
	return out
}

// IsProviderEnabled reports whether the provider should be fetched. A
// per-provider `enabled = false` always wins; otherwise an empty
// enabled_providers list means everything registered is eligible.
func (c Config) IsProviderEnabled(providerID string) bool {
	if pc, ok := c.Providers[providerID]; ok && pc.Enabled != nil && !*pc.Enabled {
		return false
	}
	if len(c.EnabledProviders) == 0 {
		return true
	}
	for _, id := range c.EnabledProviders {
		if id == providerID {
			return true
		}
	}
	return false
}

// AuthSource returns the forced strategy family for a provider,
// or "auto" when unset.
func (c Config) AuthSource(providerID string) string {
	if pc, ok := c.Providers[providerID]; ok && pc.AuthSource != "" {
		return pc.AuthSource
	}
	return "auto"
}

var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Get returns the process-wide config, loading it from disk on first use.
func Get() Config {
	configMu.RLock()
	if c := globalConfig; c != nil {
		configMu.RUnlock()
		return c.clone()
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()
	if globalConfig != nil {
		return globalConfig.clone()
	}
	c, _ := Load("")
	globalConfig = &c
	return c.clone()
}

// Init loads the config from disk, caching it process-wide. Unlike Get it
// surfaces parse errors so the CLI can warn about malformed files.
func Init() (Config, error) {
	configMu.Lock()
	defer configMu.Unlock()
	c, err := Load("")
	globalConfig = &c
	return c.clone(), err
}

// Reload re-reads the config from disk, replacing the cached copy.
func Reload() (Config, error) {
	return Init()
}

func set(cfg Config) {
	configMu.Lock()
	defer configMu.Unlock()
	globalConfig = &cfg
}

// Load reads the config file at path (or the default location when empty).
// A missing file yields defaults with env overrides applied; a malformed
// file yields defaults plus an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = ConfigFile()
	}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return applyEnvOverrides(cfg), nil
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return applyEnvOverrides(DefaultConfig()), fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	return applyEnvOverrides(cfg), nil
}

// Save writes the config to path (or the default location when empty).
func Save(cfg Config, path string) error {
	if path == "" {
		path = ConfigFile()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg Config) Config {
	if v := os.Getenv("VIBEUSAGE_ENABLED_PROVIDERS"); v != "" {
		var providers []string
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				providers = append(providers, p)
			}
		}
		cfg.EnabledProviders = providers
	}
	if os.Getenv("VIBEUSAGE_NO_COLOR") != "" {
		cfg.Display.PaceColors = false
	}
	return cfg
}
