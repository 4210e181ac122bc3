package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// CredentialPath returns the canonical path for a provider credential file.
// credType is one of "oauth", "session", or "apikey".
func CredentialPath(providerID, credType string) string {
	return filepath.Join(CredentialsDir(), providerID, credType+".json")
}

// WriteCredential writes content to path with owner-only permissions.
// The write goes to a sibling temp file first and is renamed into place so
// concurrent readers never observe a partial credential.
func WriteCredential(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("writing credential: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o600); err != nil {
		return fmt.Errorf("writing credential: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing credential: %w", err)
	}
	return nil
}

// ReadCredential returns the credential file contents, or nil when the file
// is absent. A file readable or writable by group or world is treated as
// untrusted and skipped.
func ReadCredential(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading credential: %w", err)
	}
	// Unix permission bits are meaningless on Windows.
	if runtime.GOOS != "windows" && fi.Mode().Perm()&0o066 != 0 {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credential: %w", err)
	}
	return data, nil
}

// DeleteCredential removes the credential file. Returns true if a file was
// actually removed.
func DeleteCredential(path string) bool {
	return os.Remove(path) == nil
}

// CredentialSource identifies where a discovered credential came from.
type CredentialSource string

const (
	SourceVibeusage CredentialSource = "vibeusage"
	SourceForeign   CredentialSource = "provider_cli"
	SourceEnv       CredentialSource = "env"
)

// FindProviderCredential looks for credentials in vibeusage storage first,
// then the provider's own CLI credential files (only when reuse is enabled
// in config), then environment variables. Returns (found, source, path);
// path is empty for environment hits.
func FindProviderCredential(providerID string, cliPaths []string, envVars []string) (bool, CredentialSource, string) {
	for _, credType := range []string{"oauth", "session", "apikey"} {
		p := CredentialPath(providerID, credType)
		if fileExists(p) {
			return true, SourceVibeusage, p
		}
	}

	if Get().Credentials.ReuseProviderCredentials {
		for _, raw := range cliPaths {
			p := ExpandPath(raw)
			if fileExists(p) {
				return true, SourceForeign, p
			}
		}
	}

	for _, envVar := range envVars {
		if strings.TrimSpace(os.Getenv(envVar)) != "" {
			return true, SourceEnv, ""
		}
	}

	return false, "", ""
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}

// CredentialStatus reports whether a provider has credentials and their source.
type CredentialStatus struct {
	HasCredentials bool
	Source         CredentialSource
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
