package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
	"github.com/joshuadavidthomas/vibeusage/internal/httpclient"
	"github.com/joshuadavidthomas/vibeusage/internal/keychain"
	"github.com/joshuadavidthomas/vibeusage/internal/oauth"
	"github.com/joshuadavidthomas/vibeusage/internal/provider"
)

const (
	oauthUsageURL        = "https://api.anthropic.com/api/oauth/usage"
	oauthTokenURL        = "https://api.anthropic.com/oauth/token"
	anthropicBetaTag     = "oauth-2025-04-20"
	claudeKeychainSecret = "Claude Code-credentials"
)

var readKeychainSecret = keychain.ReadGenericPassword

// OAuthStrategy fetches Claude usage using OAuth credentials, refreshing
// the token when it is near expiry and retrying once after a 401.
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
			"claude", "no OAuth credentials found"))
	}
	if creds.AccessToken == "" {
		return fetch.ResultFatal(apierr.New(apierr.CategoryConfiguration, apierr.SeverityFatal,
			"claude", "OAuth credentials missing access_token"))
	}

	if creds.NeedsRefresh() {
		refreshed := s.refreshToken(ctx, creds)
		if refreshed == nil {
			return fetch.ResultFail(apierr.New(apierr.CategoryAuthentication, apierr.SeverityRecoverable,
				"claude", "OAuth token expired and could not be refreshed"))
		}
		creds = refreshed
	}

	result, unauthorized := s.fetchUsage(ctx, creds.AccessToken)
	if unauthorized {
		// The token may have been revoked server-side; one forced
		// refresh, then give up on this strategy.
		if refreshed := s.refreshToken(ctx, creds); refreshed != nil {
			result, unauthorized = s.fetchUsage(ctx, refreshed.AccessToken)
		}
		if unauthorized {
			return fetch.ResultFail(apierr.FromStatus(http.StatusUnauthorized, "claude",
				"OAuth token rejected"))
		}
	}
	return result
}

// Refresh forces a token refresh, for `vibeusage refresh`-style flows.
func (s *OAuthStrategy) Refresh(ctx context.Context) error {
	creds := s.loadCredentials()
	if creds == nil {
		return errors.New("no OAuth credentials found")
	}
	if s.refreshToken(ctx, creds) == nil {
		return errors.New("token refresh failed")
	}
	return nil
}

// fetchUsage hits the usage endpoint. The bool reports a 401 so the caller
// can decide whether to refresh and retry.
func (s *OAuthStrategy) fetchUsage(ctx context.Context, token string) (fetch.FetchResult, bool) {
	resp, err := httpclient.Shared().Get(ctx, oauthUsageURL,
		httpclient.WithBearer(token),
		httpclient.WithHeader("anthropic-beta", anthropicBetaTag),
	)
	if err != nil {
		return fetch.ResultFromError("claude", err), false
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fetch.FetchResult{}, true
	}
	if !resp.OK() {
		return fetch.ResultFail(apierr.FromStatus(resp.StatusCode, "claude",
			fmt.Sprintf("usage request failed: %d (%s)", resp.StatusCode, httpclient.SummarizeBody(resp.Body)))), false
	}

	var usageResp UsageResponse
	if err := resp.DecodeJSON(&usageResp); err != nil {
		return fetch.ResultFail(apierr.New(apierr.CategoryParse, apierr.SeverityRecoverable,
			"claude", "invalid response from usage endpoint")), false
	}
	return fetch.ResultOK(parseUsageResponse(usageResp, "oauth", nil)), false
}

func (s *OAuthStrategy) credentialPaths() []string {
	home, _ := os.UserHomeDir()
	return provider.CredentialSearchPaths("claude", "oauth",
		filepath.Join(home, ".claude", ".credentials.json"))
}

func (s *OAuthStrategy) loadCredentials() *OAuthCredentials {
	for _, path := range s.credentialPaths() {
		data, err := config.ReadCredential(path)
		if err != nil || data == nil {
			continue
		}

		// Claude CLI format first.
		var cliCreds CLICredentials
		if err := json.Unmarshal(data, &cliCreds); err == nil && cliCreds.ClaudeAiOauth != nil {
			creds := cliCreds.ClaudeAiOauth.ToOAuthCredentials()
			return &creds
		}

		var creds OAuthCredentials
		if err := json.Unmarshal(data, &creds); err != nil {
			continue
		}
		if creds.AccessToken != "" {
			return &creds
		}
	}
	return s.loadKeychainCredentials()
}

func (s *OAuthStrategy) loadKeychainCredentials() *OAuthCredentials {
	if !provider.ExternalCredentialReuseEnabled() {
		return nil
	}
	secret, err := readKeychainSecret(claudeKeychainSecret, "")
	if err != nil || secret == "" {
		return nil
	}
	var cliCreds CLICredentials
	if err := json.Unmarshal([]byte(secret), &cliCreds); err != nil || cliCreds.ClaudeAiOauth == nil {
		return nil
	}
	creds := cliCreds.ClaudeAiOauth.ToOAuthCredentials()
	if creds.AccessToken == "" {
		return nil
	}
	return &creds
}

func (s *OAuthStrategy) refreshToken(ctx context.Context, creds *OAuthCredentials) *OAuthCredentials {
	return oauth.Refresh(ctx, creds.RefreshToken, oauth.RefreshConfig{
		TokenURL:   oauthTokenURL,
		Headers:    []httpclient.RequestOption{httpclient.WithHeader("anthropic-beta", anthropicBetaTag)},
		ProviderID: "claude",
	})
}
