// Package provider hosts the provider registry and the helpers shared by
// all provider implementations: credential discovery, API key loading, and
// status page fetching.
package provider

import (
	"context"
	"sort"
	"sync"

	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
)

type Metadata struct {
	ID           string
	Name         string
	Description  string
	Homepage     string
	StatusURL    string
	DashboardURL string
}

// CredentialInfo describes where a provider's credentials can be found
// outside of vibeusage's own storage.
type CredentialInfo struct {
	// CLIPaths are external CLI credential file paths (e.g. ~/.claude/.credentials.json).
	CLIPaths []string
	// EnvVars are environment variable names (e.g. ANTHROPIC_API_KEY).
	EnvVars []string
}

type Provider interface {
	Meta() Metadata
	CredentialSources() CredentialInfo
	FetchStrategies() []fetch.Strategy
	FetchStatus(ctx context.Context) models.ProviderStatus
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Provider{}
)

// Register adds a provider to the registry. Called from provider package
// init functions.
func Register(p Provider) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[p.Meta().ID] = p
}

func Get(id string) (Provider, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[id]
	return p, ok
}

func All() map[string]Provider {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make(map[string]Provider, len(registry))
	for k, v := range registry {
		result[k] = v
	}
	return result
}

// ListIDs returns all registered provider IDs, sorted.
func ListIDs() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AvailableIDs returns registered provider IDs that are enabled in the given
// config and have at least one available fetch strategy. The result is sorted.
func AvailableIDs(cfg config.Config) []string {
	var ids []string
	for id, p := range All() {
		if !cfg.IsProviderEnabled(id) {
			continue
		}
		for _, s := range p.FetchStrategies() {
			if s.IsAvailable() {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// StrategyMap builds the provider-id to strategies map the orchestrator
// consumes, covering every registered provider.
func StrategyMap() map[string][]fetch.Strategy {
	all := All()
	m := make(map[string][]fetch.Strategy, len(all))
	for id, p := range all {
		m[id] = p.FetchStrategies()
	}
	return m
}

// DisplayName returns the human-readable display name for the given
// provider ID, falling back to the ID itself when unregistered.
func DisplayName(id string) string {
	p, ok := Get(id)
	if !ok {
		return id
	}
	return p.Meta().Name
}
