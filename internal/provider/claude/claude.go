// Package claude implements the Claude provider: OAuth usage fetching with
// token refresh, an API key recognizer, and a claude.ai session fallback.
package claude

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
	"github.com/joshuadavidthomas/vibeusage/internal/provider"
)

type Claude struct{}

func (c Claude) Meta() provider.Metadata {
	return provider.Metadata{
		ID:           "claude",
		Name:         "Claude",
		Description:  "Anthropic's Claude AI assistant",
		Homepage:     "https://claude.ai",
		StatusURL:    "https://status.anthropic.com",
		DashboardURL: "https://claude.ai/settings/usage",
	}
}

func (c Claude) CredentialSources() provider.CredentialInfo {
	return provider.CredentialInfo{
		CLIPaths: []string{"~/.claude/.credentials.json"},
		EnvVars:  []string{"ANTHROPIC_API_KEY"},
	}
}

func (c Claude) FetchStrategies() []fetch.Strategy {
	return []fetch.Strategy{
		&OAuthStrategy{},
		&APIKeyStrategy{},
		&WebStrategy{},
	}
}

func (c Claude) FetchStatus(ctx context.Context) models.ProviderStatus {
	return provider.FetchStatuspageStatus(ctx, "https://status.anthropic.com")
}

// Auth returns the manual credential flow for Claude. Accepted inputs are
// an Anthropic API key (sk-ant-api.../sk-ant-admin-...) or a claude.ai
// sessionKey cookie (sk-ant-sid01-...).
func (c Claude) Auth() provider.ManualKeyAuthFlow {
	return provider.ManualKeyAuthFlow{
		Instructions: "Provide one of the following credentials:\n" +
			"\n" +
			"Option A (recommended): Claude CLI OAuth\n" +
			"  Run `claude auth login` and vibeusage will auto-detect it.\n" +
			"\n" +
			"Option B: Anthropic API key\n" +
			"  Use a key from https://platform.claude.com/settings/keys.\n" +
			"\n" +
			"Option C (fallback): claude.ai session key\n" +
			"  Copy the sessionKey cookie value from claude.ai in your browser\n" +
			"  (DevTools → Application → Cookies, starts with sk-ant-sid01-).",
		Placeholder: "sk-ant-sid01-... or sk-ant-api...",
		Validate:    provider.ValidateAnyPrefix("sk-ant-sid01-", "sk-ant-api", "sk-ant-admin-"),
		Save:        saveCredential,
	}
}

func saveCredential(value string) error {
	value = strings.TrimSpace(value)

	path := config.CredentialPath("claude", "session")
	key := "session_key"
	if strings.HasPrefix(value, "sk-ant-api") || strings.HasPrefix(value, "sk-ant-admin-") {
		path = config.CredentialPath("claude", "apikey")
		key = "api_key"
	}

	content, _ := json.Marshal(map[string]string{key: value})
	return config.WriteCredential(path, content)
}

func init() {
	provider.Register(Claude{})
}
