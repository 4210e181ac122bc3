package provider

import (
	"context"
	"sort"
	"testing"

	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
)

type stubStrategy struct {
	name      string
	available bool
}

func (s *stubStrategy) Name() string      { return s.name }
func (s *stubStrategy) IsAvailable() bool { return s.available }
func (s *stubStrategy) Fetch(context.Context) fetch.FetchResult {
	return fetch.FetchResult{}
}

type stubProvider struct {
	id         string
	name       string
	strategies []fetch.Strategy
}

func (p *stubProvider) Meta() Metadata {
	return Metadata{ID: p.id, Name: p.name}
}
func (p *stubProvider) CredentialSources() CredentialInfo { return CredentialInfo{} }
func (p *stubProvider) FetchStrategies() []fetch.Strategy { return p.strategies }
func (p *stubProvider) FetchStatus(context.Context) models.ProviderStatus {
	return models.ProviderStatus{Level: models.StatusUnknown}
}

func withStubRegistry(t *testing.T, providers ...*stubProvider) {
	t.Helper()
	registryMu.Lock()
	orig := registry
	registry = map[string]Provider{}
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		registry = orig
		registryMu.Unlock()
	})
	for _, p := range providers {
		Register(p)
	}
}

func TestRegistryLookup(t *testing.T) {
	withStubRegistry(t,
		&stubProvider{id: "alpha", name: "Alpha"},
		&stubProvider{id: "beta", name: "Beta"},
	)

	p, ok := Get("alpha")
	if !ok || p.Meta().Name != "Alpha" {
		t.Errorf("Get(alpha) = %v, %v", p, ok)
	}
	if _, ok := Get("missing"); ok {
		t.Error("Get(missing) should fail")
	}

	ids := ListIDs()
	if !sort.StringsAreSorted(ids) {
		t.Errorf("ListIDs not sorted: %v", ids)
	}
	if len(ids) != 2 {
		t.Errorf("ListIDs = %v, want 2 entries", ids)
	}
}

func TestDisplayName(t *testing.T) {
	withStubRegistry(t, &stubProvider{id: "alpha", name: "Alpha"})

	if got := DisplayName("alpha"); got != "Alpha" {
		t.Errorf("DisplayName(alpha) = %q", got)
	}
	if got := DisplayName("unregistered"); got != "unregistered" {
		t.Errorf("DisplayName(unregistered) = %q, want the id back", got)
	}
}

func TestStrategyMap(t *testing.T) {
	s1 := &stubStrategy{name: "one"}
	s2 := &stubStrategy{name: "two"}
	withStubRegistry(t,
		&stubProvider{id: "alpha", strategies: []fetch.Strategy{s1, s2}},
		&stubProvider{id: "beta"},
	)

	m := StrategyMap()
	if len(m) != 2 {
		t.Fatalf("StrategyMap has %d entries, want 2", len(m))
	}
	if len(m["alpha"]) != 2 {
		t.Errorf("alpha strategies = %d, want 2", len(m["alpha"]))
	}
}

func TestValidators(t *testing.T) {
	if err := ValidateNotEmpty("  "); err == nil {
		t.Error("whitespace should be rejected")
	}
	if err := ValidateNotEmpty("value"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	v := ValidatePrefix("sk-or-")
	if err := v("sk-or-abc"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v("sk-ant-abc"); err == nil {
		t.Error("wrong prefix should be rejected")
	}
	if err := v(""); err == nil {
		t.Error("empty should be rejected")
	}

	any := ValidateAnyPrefix("gho_", "ghu_")
	if err := any("ghu_token"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := any("ghp_token"); err == nil {
		t.Error("unlisted prefix should be rejected")
	}
}
