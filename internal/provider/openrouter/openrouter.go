// Package openrouter implements the OpenRouter provider. OpenRouter bills
// against a prepaid credit balance, so usage is reported as credits spent
// against credits purchased rather than as rate-limit windows.
package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
	"github.com/joshuadavidthomas/vibeusage/internal/httpclient"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
	"github.com/joshuadavidthomas/vibeusage/internal/provider"
)

var creditsURL = "https://openrouter.ai/api/v1/credits"

type OpenRouter struct{}

func (o OpenRouter) Meta() provider.Metadata {
	return provider.Metadata{
		ID:           "openrouter",
		Name:         "OpenRouter",
		Description:  "Unified gateway for many model providers",
		Homepage:     "https://openrouter.ai",
		StatusURL:    "https://status.openrouter.ai",
		DashboardURL: "https://openrouter.ai/settings/credits",
	}
}

func (o OpenRouter) CredentialSources() provider.CredentialInfo {
	return provider.CredentialInfo{EnvVars: []string{"OPENROUTER_API_KEY"}}
}

func (o OpenRouter) FetchStrategies() []fetch.Strategy {
	return []fetch.Strategy{&APIKeyStrategy{}}
}

func (o OpenRouter) FetchStatus(ctx context.Context) models.ProviderStatus {
	return provider.FetchOnlineOrNotStatus(ctx, "https://status.openrouter.ai")
}

func (o OpenRouter) Auth() provider.ManualKeyAuthFlow {
	return provider.ManualKeyAuthFlow{
		Instructions: "Get your OpenRouter API key:\n" +
			"  1. Open https://openrouter.ai/settings/keys\n" +
			"  2. Create or copy an API key",
		Placeholder: "sk-or-...",
		Validate:    provider.ValidatePrefix("sk-or-"),
		Save:        saveAPIKey,
	}
}

func saveAPIKey(value string) error {
	content, _ := json.Marshal(map[string]string{"api_key": value})
	return config.WriteCredential(config.CredentialPath("openrouter", "apikey"), content)
}

func init() {
	provider.Register(OpenRouter{})
}

func openrouterKeySource() provider.APIKeySource {
	return provider.APIKeySource{
		EnvVars:  []string{"OPENROUTER_API_KEY"},
		CredPath: config.CredentialPath("openrouter", "apikey"),
		JSONKeys: []string{"api_key"},
	}
}

// APIKeyStrategy fetches the OpenRouter credit balance.
type APIKeyStrategy struct{}

func (s *APIKeyStrategy) Name() string { return "apikey" }

func (s *APIKeyStrategy) IsAvailable() bool {
	return openrouterKeySource().Load() != ""
}

func (s *APIKeyStrategy) Fetch(ctx context.Context) fetch.FetchResult {
	key := openrouterKeySource().Load()
	if key == "" {
		return fetch.ResultFail(apierr.New(apierr.CategoryConfiguration, apierr.SeverityRecoverable,
			"openrouter", "no API key found; set OPENROUTER_API_KEY or run `vibeusage auth openrouter`"))
	}

	resp, err := httpclient.Shared().Get(ctx, creditsURL, httpclient.WithBearer(key))
	if err != nil {
		return fetch.ResultFromError("openrouter", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fetch.ResultFatal(apierr.FromStatus(resp.StatusCode, "openrouter",
			"API key is invalid or expired; run `vibeusage auth openrouter` to replace it"))
	case !resp.OK():
		return fetch.ResultFail(apierr.FromStatus(resp.StatusCode, "openrouter",
			fmt.Sprintf("credits request failed: %d (%s)", resp.StatusCode, httpclient.SummarizeBody(resp.Body))))
	}

	var parsed CreditsResponse
	if err := resp.DecodeJSON(&parsed); err != nil {
		return fetch.ResultFail(apierr.New(apierr.CategoryParse, apierr.SeverityRecoverable,
			"openrouter", "invalid response from credits endpoint"))
	}
	return fetch.ResultOK(*parseCreditsSnapshot(parsed))
}

// CreditsResponse is the response from the OpenRouter credits endpoint.
type CreditsResponse struct {
	Data CreditsData `json:"data"`
}

type CreditsData struct {
	TotalCredits float64 `json:"total_credits"`
	TotalUsage   float64 `json:"total_usage"`
}

func parseCreditsSnapshot(resp CreditsResponse) *models.UsageSnapshot {
	total := max(resp.Data.TotalCredits, 0)
	used := max(resp.Data.TotalUsage, 0)

	utilization := 0
	if total > 0 {
		utilization = models.ClampPct(int((used / total) * 100))
	}

	return &models.UsageSnapshot{
		Provider:  "openrouter",
		FetchedAt: time.Now().UTC(),
		Periods: []models.UsagePeriod{
			{
				Name:        "Credits",
				Utilization: utilization,
				PeriodType:  models.PeriodMonthly,
			},
		},
		Overage: &models.OverageUsage{
			Used:      used,
			Limit:     total,
			Currency:  "USD",
			IsEnabled: true,
		},
		Source: "apikey",
	}
}
