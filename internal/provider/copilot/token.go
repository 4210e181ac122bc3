package copilot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
	"github.com/joshuadavidthomas/vibeusage/internal/httpclient"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
	"github.com/joshuadavidthomas/vibeusage/internal/modelmap"
	"github.com/joshuadavidthomas/vibeusage/internal/oauth"
	"github.com/joshuadavidthomas/vibeusage/internal/provider"
)

const (
	usageURL = "https://api.github.com/copilot_internal/user"
	tokenURL = "https://github.com/login/oauth/access_token"
	// VS Code Copilot OAuth app client ID, required for token refresh.
	clientID = "Iv1.b507a08c87ecfe98"
)

// TokenStrategy fetches Copilot usage with a GitHub OAuth token, found in
// vibeusage storage, the Copilot editor credential files, or GITHUB_TOKEN.
type TokenStrategy struct{}

func (s *TokenStrategy) Name() string { return "token" }

func (s *TokenStrategy) IsAvailable() bool {
	creds := s.loadCredentials()
	return creds != nil && creds.AccessToken != ""
}

func (s *TokenStrategy) Fetch(ctx context.Context) fetch.FetchResult {
	creds := s.loadCredentials()
	if creds == nil || creds.AccessToken == "" {
		return fetch.ResultFail(apierr.New(apierr.CategoryConfiguration, apierr.SeverityRecoverable,
			"copilot", "no Copilot token found; run `vibeusage auth copilot`"))
	}

	result, unauthorized := s.fetchUsage(ctx, creds.AccessToken)
	if unauthorized {
		if refreshed := s.refreshToken(ctx, creds); refreshed != nil {
			result, unauthorized = s.fetchUsage(ctx, refreshed.AccessToken)
		}
		if unauthorized {
			return fetch.ResultFatal(apierr.New(apierr.CategoryAuthentication, apierr.SeverityFatal,
				"copilot", "token expired; run `vibeusage auth copilot` to re-authenticate"))
		}
	}
	return result
}

// fetchUsage hits the Copilot user endpoint; the bool reports a 401.
func (s *TokenStrategy) fetchUsage(ctx context.Context, token string) (fetch.FetchResult, bool) {
	resp, err := httpclient.Shared().Get(ctx, usageURL,
		httpclient.WithBearer(token),
		httpclient.WithHeader("Accept", "application/json"),
	)
	if err != nil {
		return fetch.ResultFromError("copilot", err), false
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fetch.FetchResult{}, true
	case resp.StatusCode == http.StatusForbidden:
		return fetch.ResultFail(apierr.FromStatus(resp.StatusCode, "copilot",
			"not authorized; account may lack a Copilot subscription")), false
	case resp.StatusCode == http.StatusNotFound:
		return fetch.ResultFail(apierr.FromStatus(resp.StatusCode, "copilot",
			"Copilot API not found; account may lack Copilot access")), false
	case !resp.OK():
		return fetch.ResultFail(apierr.FromStatus(resp.StatusCode, "copilot",
			fmt.Sprintf("usage request failed: %d", resp.StatusCode))), false
	}

	var userResp UserResponse
	if err := resp.DecodeJSON(&userResp); err != nil {
		return fetch.ResultFail(apierr.New(apierr.CategoryParse, apierr.SeverityRecoverable,
			"copilot", "invalid response from Copilot API")), false
	}

	snapshot := parseUserResponse(userResp)
	if snapshot == nil {
		return fetch.ResultFail(apierr.New(apierr.CategoryParse, apierr.SeverityRecoverable,
			"copilot", "Copilot response contained no quota data")), false
	}
	return fetch.ResultOK(*snapshot), false
}

func (s *TokenStrategy) loadCredentials() *tokenCredentials {
	data, err := config.ReadCredential(config.CredentialPath("copilot", "oauth"))
	if err == nil && data != nil {
		var creds tokenCredentials
		if json.Unmarshal(data, &creds) == nil && creds.AccessToken != "" {
			return &creds
		}
	}

	if provider.ExternalCredentialReuseEnabled() {
		for _, raw := range []string{
			"~/.config/github-copilot/hosts.json",
			"~/.config/github-copilot/apps.json",
		} {
			if token := readEditorToken(config.ExpandPath(raw)); token != "" {
				return &tokenCredentials{AccessToken: token}
			}
		}
	}

	if v := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); v != "" {
		return &tokenCredentials{AccessToken: v}
	}
	return nil
}

// readEditorToken pulls the oauth_token from a Copilot editor credential
// file. Keys may carry a suffix ("github.com:Iv1..."), so match on prefix.
func readEditorToken(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var hosts hostsFile
	if err := json.Unmarshal(data, &hosts); err != nil {
		return ""
	}
	for host, entry := range hosts {
		if strings.HasPrefix(host, "github.com") && entry.OAuthToken != "" {
			return entry.OAuthToken
		}
	}
	return ""
}

func (s *TokenStrategy) refreshToken(ctx context.Context, creds *tokenCredentials) *oauth.Credentials {
	return oauth.Refresh(ctx, creds.RefreshToken, oauth.RefreshConfig{
		TokenURL:   tokenURL,
		FormFields: map[string]string{"client_id": clientID},
		Headers:    []httpclient.RequestOption{httpclient.WithHeader("Accept", "application/json")},
		ProviderID: "copilot",
	})
}

func parseUserResponse(resp UserResponse) *models.UsageSnapshot {
	var periods []models.UsagePeriod

	resetsAt := models.ParseRFC3339Ptr(resp.QuotaResetDateUTC)

	if resp.QuotaSnapshots != nil {
		entries := []struct {
			quota *Quota
			name  string
		}{
			{resp.QuotaSnapshots.PremiumInteractions, "Monthly (Premium)"},
			{resp.QuotaSnapshots.Chat, "Monthly (Chat)"},
			{resp.QuotaSnapshots.Completions, "Monthly (Completions)"},
		}
		for _, e := range entries {
			if e.quota != nil && e.quota.HasUsage() {
				periods = append(periods, models.UsagePeriod{
					Name:        e.name,
					Utilization: e.quota.Utilization(),
					PeriodType:  models.PeriodMonthly,
					ResetsAt:    resetsAt,
				})
			}
		}
	}
	if len(periods) == 0 {
		return nil
	}

	var identity *models.ProviderIdentity
	if resp.CopilotPlan != "" {
		identity = &models.ProviderIdentity{Plan: resp.CopilotPlan}
	}

	return &models.UsageSnapshot{
		Provider:  "copilot",
		FetchedAt: time.Now().UTC(),
		Periods:   periods,
		Identity:  identity,
		Source:    "token",
	}
}

// PremiumModelMultiplier exposes the multiplier table for display next to
// Copilot usage.
func PremiumModelMultiplier(model string) *float64 {
	return modelmap.LookupMultiplier(model)
}
