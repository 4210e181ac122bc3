package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joshuadavidthomas/vibeusage/internal/config"
)

// OrgIDPath returns the org-id cache file for a provider.
func OrgIDPath(providerID string) string {
	return filepath.Join(config.OrgIDsDir(), providerID+".txt")
}

// SaveOrgID caches the tenant/organization id a strategy resolved for a
// provider. There is no TTL; strategies clear the entry on the next
// authentication failure.
func SaveOrgID(providerID, orgID string) error {
	path := OrgIDPath(providerID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("caching org id for %s: %w", providerID, err)
	}
	if err := os.WriteFile(path, []byte(orgID), 0o644); err != nil {
		return fmt.Errorf("caching org id for %s: %w", providerID, err)
	}
	return nil
}

// LoadOrgID returns the cached org id for a provider, or "".
func LoadOrgID(providerID string) string {
	data, err := os.ReadFile(OrgIDPath(providerID))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// ClearOrgID removes the cached org id for a provider, or every org id
// when providerID is empty.
func ClearOrgID(providerID string) {
	if providerID != "" {
		_ = os.Remove(OrgIDPath(providerID))
		return
	}
	entries, _ := os.ReadDir(config.OrgIDsDir())
	for _, e := range entries {
		_ = os.Remove(filepath.Join(config.OrgIDsDir(), e.Name()))
	}
}

// ClearProvider removes every cache entry for one provider.
func ClearProvider(providerID string) {
	ClearSnapshot(providerID)
	ClearOrgID(providerID)
}

// ClearAll removes all cached data, or all data for one provider when
// providerID is non-empty.
func ClearAll(providerID string) {
	if providerID != "" {
		ClearProvider(providerID)
		return
	}
	ClearSnapshot("")
	ClearOrgID("")
	_ = os.Remove(config.MultipliersFile())
}
