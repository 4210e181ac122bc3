// Package modelmap maintains the Copilot premium-request model multiplier
// table, sourced from the github/docs repository and cached locally.
package modelmap

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/httpclient"
)

const (
	multipliersURL = "https://raw.githubusercontent.com/github/docs/main/data/tables/copilot/model-multipliers.yml"
	cacheTTL       = 24 * time.Hour
)

// ModelMultiplier holds the premium request multipliers for a Copilot model.
type ModelMultiplier struct {
	Name string   `json:"name"`
	Paid *float64 `json:"paid,omitempty"` // nil = "Not applicable"
	Free *float64 `json:"free,omitempty"` // nil = "Not applicable"
}

var (
	multipliersOnce   sync.Once
	multipliersByName map[string]ModelMultiplier
)

func ensureLoaded() {
	multipliersOnce.Do(func() {
		multipliersByName = loadMultipliers()
		if multipliersByName == nil {
			multipliersByName = make(map[string]ModelMultiplier)
		}
	})
}

// LookupMultiplier returns the paid-plan multiplier for a Copilot model.
// Returns nil when the model has no multiplier data; a pointer to 0 means
// a free model.
func LookupMultiplier(modelName string) *float64 {
	ensureLoaded()

	if m, ok := multipliersByName[modelName]; ok {
		return m.Paid
	}
	key := normalizeName(modelName)
	for name, m := range multipliersByName {
		if normalizeName(name) == key {
			return m.Paid
		}
	}
	return nil
}

// All returns every known multiplier entry, sorted by the caller.
func All() []ModelMultiplier {
	ensureLoaded()
	entries := make([]ModelMultiplier, 0, len(multipliersByName))
	for _, m := range multipliersByName {
		entries = append(entries, m)
	}
	return entries
}

// ResetForTesting clears cached multiplier data.
func ResetForTesting() {
	multipliersOnce = sync.Once{}
	multipliersByName = nil
}

func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "-", " "))
}

func loadMultipliers() map[string]ModelMultiplier {
	path := config.MultipliersFile()

	if data := readCacheIfFresh(path); data != nil {
		return data
	}

	raw, err := fetchMultipliersYAML()
	if err != nil {
		// Network failed, serve the stale cache if one exists.
		return readCache(path)
	}

	entries := ParseMultipliersYAML(raw)
	if entries == nil {
		return nil
	}
	_ = writeCache(path, entries)
	return indexByName(entries)
}

func readCacheIfFresh(path string) map[string]ModelMultiplier {
	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) > cacheTTL {
		return nil
	}
	return readCache(path)
}

func readCache(path string) map[string]ModelMultiplier {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var entries []ModelMultiplier
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	return indexByName(entries)
}

func writeCache(path string, entries []ModelMultiplier) error {
	if err := os.MkdirAll(config.CacheDir(), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func fetchMultipliersYAML() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := httpclient.Shared().Get(ctx, multipliersURL)
	if err != nil {
		return "", fmt.Errorf("fetching copilot multipliers: %w", err)
	}
	if !resp.OK() {
		return "", fmt.Errorf("fetching copilot multipliers: HTTP %d", resp.StatusCode)
	}
	return string(resp.Body), nil
}

// yamlMultiplierEntry is the raw YAML shape from github/docs. Paid and Free
// are any because the source mixes bare numbers with the string
// "Not applicable" in the same field.
type yamlMultiplierEntry struct {
	Name string `yaml:"name"`
	Paid any    `yaml:"multiplier_paid"`
	Free any    `yaml:"multiplier_free"`
}

// ParseMultipliersYAML parses the github/docs multiplier table:
//
//   - name: MODEL_NAME
//     multiplier_paid: NUMBER_OR_NOT_APPLICABLE
//     multiplier_free: NUMBER_OR_NOT_APPLICABLE
func ParseMultipliersYAML(raw string) []ModelMultiplier {
	var rows []yamlMultiplierEntry
	if err := yaml.Unmarshal([]byte(raw), &rows); err != nil {
		return nil
	}

	entries := make([]ModelMultiplier, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, ModelMultiplier{
			Name: r.Name,
			Paid: convertYAMLMultiplier(r.Paid),
			Free: convertYAMLMultiplier(r.Free),
		})
	}
	return entries
}

func convertYAMLMultiplier(v any) *float64 {
	switch val := v.(type) {
	case int:
		f := float64(val)
		return &f
	case float64:
		return &val
	case string:
		if strings.EqualFold(val, "not applicable") || val == "" {
			return nil
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func indexByName(entries []ModelMultiplier) map[string]ModelMultiplier {
	m := make(map[string]ModelMultiplier, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	return m
}
