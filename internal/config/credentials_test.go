package config

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/joshuadavidthomas/vibeusage/internal/testenv"
)

func TestWriteReadCredentialRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "claude", "oauth.json")
	content := []byte(`{"access_token":"tok"}`)

	if err := WriteCredential(path, content); err != nil {
		t.Fatalf("WriteCredential: %v", err)
	}

	got, err := ReadCredential(path)
	if err != nil {
		t.Fatalf("ReadCredential: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content = %q, want %q", got, content)
	}
}

func TestWriteCredential_OwnerOnlyPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "p", "apikey.json")
	if err := WriteCredential(path, []byte("secret")); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm&0o077 != 0 {
		t.Errorf("credential file permissions %o allow group/world access", perm)
	}
}

func TestWriteCredential_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oauth.json")
	if err := WriteCredential(path, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should be renamed away")
	}
}

func TestReadCredential_Missing(t *testing.T) {
	got, err := ReadCredential(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("missing credential should read as nil")
	}
}

func TestReadCredential_RejectsLoosePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "loose.json")
	if err := os.WriteFile(path, []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadCredential(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("world-readable credential should be treated as absent")
	}
}

func TestDeleteCredential(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if !DeleteCredential(path) {
		t.Error("expected delete to report true for existing file")
	}
	if DeleteCredential(path) {
		t.Error("expected delete to report false for missing file")
	}
}

func TestFindProviderCredential_OwnStoreFirst(t *testing.T) {
	testenv.Apply(t.Setenv, t.TempDir())
	Override(t, DefaultConfig())

	path := CredentialPath("claude", "oauth")
	if err := WriteCredential(path, []byte("{}")); err != nil {
		t.Fatal(err)
	}

	found, source, p := FindProviderCredential("claude", nil, nil)
	if !found || source != SourceVibeusage {
		t.Errorf("found=%v source=%s, want vibeusage store hit", found, source)
	}
	if p != path {
		t.Errorf("path = %q, want %q", p, path)
	}
}

func TestFindProviderCredential_ForeignCLIRespectsReuseFlag(t *testing.T) {
	testenv.Apply(t.Setenv, t.TempDir())

	cliDir := t.TempDir()
	cliPath := filepath.Join(cliDir, "credentials.json")
	if err := os.WriteFile(cliPath, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Credentials.ReuseProviderCredentials = true
	Override(t, cfg)

	found, source, _ := FindProviderCredential("claude", []string{cliPath}, nil)
	if !found || source != SourceForeign {
		t.Errorf("found=%v source=%s, want foreign CLI hit", found, source)
	}

	cfg.Credentials.ReuseProviderCredentials = false
	Override(t, cfg)
	found, _, _ = FindProviderCredential("claude", []string{cliPath}, nil)
	if found {
		t.Error("foreign CLI paths should be ignored when reuse is disabled")
	}
}

func TestFindProviderCredential_EnvFallback(t *testing.T) {
	testenv.Apply(t.Setenv, t.TempDir())
	Override(t, DefaultConfig())
	t.Setenv("FAKE_PROVIDER_KEY", "sk-123")

	found, source, path := FindProviderCredential("fake", nil, []string{"FAKE_PROVIDER_KEY"})
	if !found || source != SourceEnv {
		t.Errorf("found=%v source=%s, want env hit", found, source)
	}
	if path != "" {
		t.Errorf("env hits should have empty path, got %q", path)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	got := ExpandPath("~/.claude/.credentials.json")
	want := filepath.Join(home, ".claude", ".credentials.json")
	if got != want {
		t.Errorf("ExpandPath = %q, want %q", got, want)
	}
	if ExpandPath("/abs/path") != "/abs/path" {
		t.Error("absolute paths should pass through")
	}
}
