package claude

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/testenv"
)

func TestFindChatOrgID(t *testing.T) {
	tests := []struct {
		name string
		orgs []Organization
		want string
	}{
		{
			"prefers chat capability",
			[]Organization{
				{UUID: "api-org", Capabilities: []string{"api"}},
				{UUID: "chat-org", Capabilities: []string{"chat"}},
			},
			"chat-org",
		},
		{
			"falls back to first org",
			[]Organization{
				{UUID: "first", Capabilities: []string{"api"}},
				{UUID: "second", Capabilities: []string{"api"}},
			},
			"first",
		},
		{
			"chat org without id falls through",
			[]Organization{
				{Capabilities: []string{"chat"}},
				{UUID: "fallback"},
			},
			"fallback",
		},
		{"no orgs", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findChatOrgID(tt.orgs); got != tt.want {
				t.Errorf("findChatOrgID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func writeSessionCredential(t *testing.T, content string) {
	t.Helper()
	testenv.Apply(t.Setenv, t.TempDir())
	path := config.CredentialPath("claude", "session")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSessionKey(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"json credential", `{"session_key":"sk-ant-sid01-abc"}`, "sk-ant-sid01-abc"},
		{"raw key", "sk-ant-sid01-raw\n", "sk-ant-sid01-raw"},
		{"wrong prefix rejected", `{"session_key":"sk-ant-api03-xyz"}`, ""},
		{"empty file", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeSessionCredential(t, tt.content)
			s := &WebStrategy{}
			if got := s.loadSessionKey(); got != tt.want {
				t.Errorf("loadSessionKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadSessionKeyMissing(t *testing.T) {
	testenv.Apply(t.Setenv, t.TempDir())
	s := &WebStrategy{}
	if got := s.loadSessionKey(); got != "" {
		t.Errorf("loadSessionKey() = %q, want empty", got)
	}
	if s.IsAvailable() {
		t.Error("strategy should be unavailable without a session key")
	}
}
