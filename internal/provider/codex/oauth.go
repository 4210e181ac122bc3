package codex

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
	"github.com/joshuadavidthomas/vibeusage/internal/httpclient"
	"github.com/joshuadavidthomas/vibeusage/internal/keychain"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
	"github.com/joshuadavidthomas/vibeusage/internal/oauth"
	"github.com/joshuadavidthomas/vibeusage/internal/provider"
)

const (
	// OAuth client ID extracted from the Codex CLI installation, required
	// to refresh tokens stored in ~/.codex/auth.json.
	codexClientID      = "app_EMoamEEZ73f0CkXaXp7hrann"
	codexTokenURL      = "https://auth.openai.com/oauth/token"
	defaultUsageURL    = "https://chatgpt.com/backend-api/wham/usage"
	codexKeychainLabel = "Codex Auth"
)

var readKeychainSecret = keychain.ReadGenericPassword

// OAuthStrategy fetches Codex usage with OAuth tokens. The Codex CLI does
// not store expires_at, so expiry is mostly detected via 401 responses
// rather than upfront.
type OAuthStrategy struct{}

func (s *OAuthStrategy) Name() string { return "oauth" }

func (s *OAuthStrategy) IsAvailable() bool {
	for _, p := range s.credentialPaths() {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return s.loadKeychainCredentials() != nil
}

func (s *OAuthStrategy) Fetch(ctx context.Context) fetch.FetchResult {
	creds := s.loadCredentials()
	if creds == nil {
		return fetch.ResultFail(apierr.New(apierr.CategoryConfiguration, apierr.SeverityRecoverable,
			"codex", "no OAuth credentials found"))
	}
	if creds.AccessToken == "" {
		return fetch.ResultFatal(apierr.New(apierr.CategoryConfiguration, apierr.SeverityFatal,
			"codex", "credentials missing access_token"))
	}

	if creds.Expired() {
		refreshed := s.refreshToken(ctx, creds)
		if refreshed == nil {
			return fetch.ResultFatal(apierr.New(apierr.CategoryAuthentication, apierr.SeverityFatal,
				"codex", "OAuth token expired and could not be refreshed; run `codex login`"))
		}
		creds = refreshed
	}

	usageURL := s.usageURL()
	result, unauthorized := s.fetchUsage(ctx, usageURL, creds.AccessToken)
	if unauthorized {
		if refreshed := s.refreshToken(ctx, creds); refreshed != nil {
			result, unauthorized = s.fetchUsage(ctx, usageURL, refreshed.AccessToken)
		}
		if unauthorized {
			return fetch.ResultFatal(apierr.New(apierr.CategoryAuthentication, apierr.SeverityFatal,
				"codex", "OAuth token expired or invalid; run `codex login`"))
		}
	}
	return result
}

// Refresh forces a token refresh.
func (s *OAuthStrategy) Refresh(ctx context.Context) error {
	creds := s.loadCredentials()
	if creds == nil {
		return fmt.Errorf("no OAuth credentials found")
	}
	if s.refreshToken(ctx, creds) == nil {
		return fmt.Errorf("token refresh failed")
	}
	return nil
}

// fetchUsage hits the usage endpoint; the bool reports a 401.
func (s *OAuthStrategy) fetchUsage(ctx context.Context, usageURL, token string) (fetch.FetchResult, bool) {
	resp, err := httpclient.Shared().Get(ctx, usageURL, httpclient.WithBearer(token))
	if err != nil {
		return fetch.ResultFromError("codex", err), false
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fetch.FetchResult{}, true
	}
	if resp.StatusCode == http.StatusForbidden {
		return fetch.ResultFail(apierr.FromStatus(resp.StatusCode, "codex",
			"not authorized; account may lack a ChatGPT Plus/Pro subscription")), false
	}
	if !resp.OK() {
		return fetch.ResultFail(apierr.FromStatus(resp.StatusCode, "codex",
			fmt.Sprintf("usage request failed: %d", resp.StatusCode))), false
	}

	var usageResp UsageResponse
	if err := resp.DecodeJSON(&usageResp); err != nil {
		return fetch.ResultFail(apierr.New(apierr.CategoryParse, apierr.SeverityRecoverable,
			"codex", "invalid response from usage endpoint")), false
	}

	snapshot := parseUsageResponse(usageResp)
	if snapshot == nil {
		return fetch.ResultFail(apierr.New(apierr.CategoryParse, apierr.SeverityRecoverable,
			"codex", "usage response contained no rate limit windows")), false
	}
	return fetch.ResultOK(*snapshot), false
}

func (s *OAuthStrategy) credentialPaths() []string {
	return provider.CredentialSearchPaths("codex", "oauth",
		filepath.Join(codexHomeDir(), "auth.json"))
}

func (s *OAuthStrategy) loadCredentials() *Credentials {
	for _, path := range s.credentialPaths() {
		data, err := config.ReadCredential(path)
		if err != nil || data == nil {
			continue
		}
		var cliCreds CLICredentials
		if err := json.Unmarshal(data, &cliCreds); err != nil {
			continue
		}
		if creds := cliCreds.EffectiveCredentials(); creds != nil {
			return creds
		}
	}
	return s.loadKeychainCredentials()
}

func (s *OAuthStrategy) loadKeychainCredentials() *Credentials {
	if !provider.ExternalCredentialReuseEnabled() {
		return nil
	}
	secret, err := readKeychainSecret(codexKeychainLabel, codexKeychainAccount())
	if err != nil || secret == "" {
		return nil
	}
	var cliCreds CLICredentials
	if err := json.Unmarshal([]byte(secret), &cliCreds); err != nil {
		return nil
	}
	return cliCreds.EffectiveCredentials()
}

// codexKeychainAccount matches the account naming the Codex CLI uses: a
// prefix of the SHA-256 of the codex home directory.
func codexKeychainAccount() string {
	sum := sha256.Sum256([]byte(codexHomeDir()))
	return "cli|" + fmt.Sprintf("%x", sum[:])[:16]
}

func codexHomeDir() string {
	if v := strings.TrimSpace(os.Getenv("CODEX_HOME")); v != "" {
		return filepath.Clean(config.ExpandPath(v))
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean(".codex")
	}
	return filepath.Join(home, ".codex")
}

func (s *OAuthStrategy) refreshToken(ctx context.Context, creds *Credentials) *Credentials {
	return oauth.Refresh(ctx, creds.RefreshToken, oauth.RefreshConfig{
		TokenURL:   codexTokenURL,
		FormFields: map[string]string{"client_id": codexClientID},
		ProviderID: "codex",
	})
}

// usageURL honors a usage_url override in the Codex CLI's config.toml.
func (s *OAuthStrategy) usageURL() string {
	var cliConfig struct {
		UsageURL string `toml:"usage_url"`
	}
	path := filepath.Join(codexHomeDir(), "config.toml")
	if _, err := toml.DecodeFile(path, &cliConfig); err == nil && cliConfig.UsageURL != "" {
		return cliConfig.UsageURL
	}
	return defaultUsageURL
}

func parseUsageResponse(resp UsageResponse) *models.UsageSnapshot {
	var periods []models.UsagePeriod

	if rl := resp.EffectiveRateLimits(); rl != nil {
		if primary := rl.EffectivePrimary(); primary != nil {
			periods = append(periods, windowPeriod(primary, "Session", models.PeriodSession))
		}
		if secondary := rl.EffectiveSecondary(); secondary != nil {
			periods = append(periods, windowPeriod(secondary, "Weekly", models.PeriodWeekly))
		}
	}
	if len(periods) == 0 {
		return nil
	}

	var overage *models.OverageUsage
	if resp.Credits != nil && resp.Credits.HasCredits {
		overage = &models.OverageUsage{
			Limit:     resp.Credits.Balance(),
			Currency:  "credits",
			IsEnabled: true,
		}
	}

	var identity *models.ProviderIdentity
	if resp.PlanType != "" || resp.Email != "" {
		identity = &models.ProviderIdentity{Plan: resp.PlanType, Email: resp.Email}
	}

	return &models.UsageSnapshot{
		Provider:  "codex",
		FetchedAt: time.Now().UTC(),
		Periods:   periods,
		Overage:   overage,
		Identity:  identity,
		Source:    "oauth",
	}
}

func windowPeriod(w *RateWindow, name string, pt models.PeriodType) models.UsagePeriod {
	p := models.UsagePeriod{
		Name:        name,
		Utilization: models.ClampPct(int(w.UsedPercent)),
		PeriodType:  pt,
	}
	if ts := w.EffectiveResetTimestamp(); ts > 0 {
		p.ResetsAt = models.UnixPtr(int64(ts))
	} else if w.ResetAfterSeconds > 0 {
		t := time.Now().UTC().Add(time.Duration(w.ResetAfterSeconds) * time.Second)
		p.ResetsAt = &t
	}
	return p
}
