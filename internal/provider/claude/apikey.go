package claude

import (
	"context"
	"strings"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
	"github.com/joshuadavidthomas/vibeusage/internal/provider"
)

// APIKeyStrategy recognizes Anthropic API keys and preserves them for auth
// workflows. Claude consumer quota metrics still come from OAuth/session
// data, so this strategy always falls through.
type APIKeyStrategy struct{}

func (s *APIKeyStrategy) Name() string { return "apikey" }

func (s *APIKeyStrategy) IsAvailable() bool {
	return s.loadAPIKey() != ""
}

func (s *APIKeyStrategy) Fetch(_ context.Context) fetch.FetchResult {
	key := s.loadAPIKey()
	if key == "" {
		return fetch.ResultFail(apierr.New(apierr.CategoryConfiguration, apierr.SeverityRecoverable,
			"claude", "no API key found"))
	}
	if !strings.HasPrefix(key, "sk-ant-") {
		return fetch.ResultFatal(apierr.New(apierr.CategoryConfiguration, apierr.SeverityFatal,
			"claude", "invalid Anthropic API key format"))
	}
	return fetch.ResultFail(apierr.New(apierr.CategoryConfiguration, apierr.SeverityRecoverable,
		"claude", "API keys cannot read claude.ai plan usage; OAuth or session credentials required"))
}

func (s *APIKeyStrategy) loadAPIKey() string {
	return provider.APIKeySource{
		EnvVars:  []string{"ANTHROPIC_API_KEY"},
		CredPath: config.CredentialPath("claude", "apikey"),
		JSONKeys: []string{"api_key"},
	}.Load()
}
