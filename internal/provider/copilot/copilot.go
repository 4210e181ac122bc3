// Package copilot implements the GitHub Copilot provider, reusing tokens
// from the Copilot editor integrations or a manually supplied OAuth token.
package copilot

import (
	"context"
	"encoding/json"

	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
	"github.com/joshuadavidthomas/vibeusage/internal/provider"
)

type Copilot struct{}

func (c Copilot) Meta() provider.Metadata {
	return provider.Metadata{
		ID:           "copilot",
		Name:         "Copilot",
		Description:  "GitHub's AI pair programmer",
		Homepage:     "https://github.com/features/copilot",
		StatusURL:    "https://www.githubstatus.com",
		DashboardURL: "https://github.com/settings/copilot",
	}
}

func (c Copilot) CredentialSources() provider.CredentialInfo {
	return provider.CredentialInfo{
		CLIPaths: []string{
			"~/.config/github-copilot/hosts.json",
			"~/.config/github-copilot/apps.json",
		},
		EnvVars: []string{"GITHUB_TOKEN"},
	}
}

func (c Copilot) FetchStrategies() []fetch.Strategy {
	return []fetch.Strategy{&TokenStrategy{}}
}

func (c Copilot) FetchStatus(ctx context.Context) models.ProviderStatus {
	return provider.FetchStatuspageStatus(ctx, "https://www.githubstatus.com")
}

// Auth returns the manual token flow for Copilot. Editor integrations
// already store a usable token; this covers accounts without one.
func (c Copilot) Auth() provider.ManualKeyAuthFlow {
	return provider.ManualKeyAuthFlow{
		Instructions: "Copilot tokens are reused from editor integrations when present\n" +
			"(~/.config/github-copilot/). To provide one manually, create a\n" +
			"GitHub token with Copilot access (starts with gho_ or ghu_).",
		Placeholder: "gho_...",
		Validate:    provider.ValidateAnyPrefix("gho_", "ghu_", "ghp_"),
		Save:        saveToken,
	}
}

func saveToken(value string) error {
	content, _ := json.Marshal(map[string]string{"access_token": value})
	return config.WriteCredential(config.CredentialPath("copilot", "oauth"), content)
}

func init() {
	provider.Register(Copilot{})
}
