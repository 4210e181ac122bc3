// Package codex implements the Codex (ChatGPT) provider, reading OAuth
// tokens managed by the Codex CLI.
package codex

import (
	"context"
	"encoding/json"

	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
	"github.com/joshuadavidthomas/vibeusage/internal/provider"
)

type Codex struct{}

func (c Codex) Meta() provider.Metadata {
	return provider.Metadata{
		ID:           "codex",
		Name:         "Codex",
		Description:  "OpenAI's ChatGPT and Codex",
		Homepage:     "https://chatgpt.com",
		StatusURL:    "https://status.openai.com",
		DashboardURL: "https://chatgpt.com/codex/settings/usage",
	}
}

func (c Codex) CredentialSources() provider.CredentialInfo {
	return provider.CredentialInfo{
		CLIPaths: []string{"~/.codex/auth.json"},
		EnvVars:  []string{"OPENAI_API_KEY"},
	}
}

func (c Codex) FetchStrategies() []fetch.Strategy {
	return []fetch.Strategy{&OAuthStrategy{}}
}

func (c Codex) FetchStatus(ctx context.Context) models.ProviderStatus {
	return provider.FetchStatuspageStatus(ctx, "https://status.openai.com")
}

// Auth returns the manual bearer token flow for Codex. Users authenticate
// with the Codex CLI, or paste an access token from the browser.
func (c Codex) Auth() provider.ManualKeyAuthFlow {
	return provider.ManualKeyAuthFlow{
		Instructions: "Codex uses OAuth tokens from the Codex CLI (recommended):\n" +
			"  Install the CLI and run `codex login`\n" +
			"\n" +
			"Or provide an access token manually from a chatgpt.com\n" +
			"backend-api request's Authorization header (starts with ey...).\n" +
			"Manually obtained tokens won't auto-refresh.",
		Placeholder: "ey... (OAuth access token)",
		Validate:    provider.ValidateNotEmpty,
		Save:        saveAccessToken,
	}
}

func saveAccessToken(value string) error {
	content, _ := json.Marshal(map[string]string{"access_token": value})
	return config.WriteCredential(config.CredentialPath("codex", "oauth"), content)
}

func init() {
	provider.Register(Codex{})
}
