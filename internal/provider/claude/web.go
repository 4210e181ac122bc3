package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
	"github.com/joshuadavidthomas/vibeusage/internal/cache"
	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
	"github.com/joshuadavidthomas/vibeusage/internal/httpclient"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
)

const webBaseURL = "https://claude.ai/api/organizations"

// WebStrategy fetches Claude usage using a claude.ai session cookie. The
// resolved organization id is cached without TTL and dropped on the next
// authentication failure.
type WebStrategy struct{}

func (s *WebStrategy) Name() string { return "web" }

func (s *WebStrategy) IsAvailable() bool {
	return s.loadSessionKey() != ""
}

func (s *WebStrategy) Fetch(ctx context.Context) fetch.FetchResult {
	sessionKey := s.loadSessionKey()
	if sessionKey == "" {
		return fetch.ResultFail(apierr.New(apierr.CategoryConfiguration, apierr.SeverityRecoverable,
			"claude", "no session key found"))
	}

	orgID := s.getOrgID(ctx, sessionKey)
	if orgID == "" {
		return fetch.ResultFail(apierr.New(apierr.CategoryAuthentication, apierr.SeverityRecoverable,
			"claude", "failed to resolve organization id"))
	}

	sessionCookie := httpclient.WithCookie("sessionKey", sessionKey)

	resp, err := httpclient.Shared().Get(ctx, webBaseURL+"/"+orgID+"/usage", sessionCookie)
	if err != nil {
		return fetch.ResultFromError("claude", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// The cached org id may belong to a dead session.
		cache.ClearOrgID("claude")
		return fetch.ResultFail(apierr.FromStatus(resp.StatusCode, "claude",
			"session key expired or invalid"))
	}
	if !resp.OK() {
		return fetch.ResultFail(apierr.FromStatus(resp.StatusCode, "claude",
			fmt.Sprintf("usage request failed: %d", resp.StatusCode)))
	}

	var usageResp UsageResponse
	if err := resp.DecodeJSON(&usageResp); err != nil {
		return fetch.ResultFail(apierr.New(apierr.CategoryParse, apierr.SeverityRecoverable,
			"claude", "invalid usage response"))
	}

	// Overage lives on a separate endpoint; failures there are not worth
	// failing the whole fetch.
	var overage *models.OverageUsage
	oResp, err := httpclient.Shared().Get(ctx, webBaseURL+"/"+orgID+"/overage_spend_limit", sessionCookie)
	if err == nil && oResp.OK() {
		var overageResp OverageResponse
		if oResp.DecodeJSON(&overageResp) == nil {
			overage = overageResp.ToOverageUsage()
		}
	}

	return fetch.ResultOK(parseUsageResponse(usageResp, "web", overage))
}

func (s *WebStrategy) loadSessionKey() string {
	data, err := config.ReadCredential(config.CredentialPath("claude", "session"))
	if err != nil || data == nil {
		return ""
	}

	value := ""
	var creds SessionCredentials
	if err := json.Unmarshal(data, &creds); err == nil {
		value = strings.TrimSpace(creds.SessionKey)
	} else {
		value = strings.TrimSpace(string(data))
	}

	if strings.HasPrefix(value, "sk-ant-sid01-") {
		return value
	}
	return ""
}

func (s *WebStrategy) getOrgID(ctx context.Context, sessionKey string) string {
	if cached := cache.LoadOrgID("claude"); cached != "" {
		return cached
	}

	resp, err := httpclient.Shared().Get(ctx, webBaseURL,
		httpclient.WithCookie("sessionKey", sessionKey))
	if err != nil || !resp.OK() {
		return ""
	}
	var orgs []Organization
	if err := resp.DecodeJSON(&orgs); err != nil {
		return ""
	}

	orgID := findChatOrgID(orgs)
	if orgID != "" {
		_ = cache.SaveOrgID("claude", orgID)
	}
	return orgID
}

// findChatOrgID returns the first organization with the "chat" capability
// (the consumer subscription org), falling back to the first organization.
func findChatOrgID(orgs []Organization) string {
	for _, org := range orgs {
		if org.HasCapability("chat") {
			if id := org.OrgID(); id != "" {
				return id
			}
		}
	}
	if len(orgs) > 0 {
		return orgs[0].OrgID()
	}
	return ""
}
