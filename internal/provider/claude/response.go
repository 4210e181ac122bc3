package claude

import (
	"time"

	"github.com/joshuadavidthomas/vibeusage/internal/models"
	"github.com/joshuadavidthomas/vibeusage/internal/oauth"
)

// UsagePeriodResponse is a single usage period from the Claude OAuth API.
type UsagePeriodResponse struct {
	Utilization float64 `json:"utilization"`
	ResetsAt    string  `json:"resets_at,omitempty"`
}

// ExtraUsageResponse is the overage block of the usage response.
// MonthlyLimit is a pointer to distinguish null (no hard limit) from a zero
// limit.
type ExtraUsageResponse struct {
	IsEnabled    bool     `json:"is_enabled"`
	UsedCredits  float64  `json:"used_credits"`
	MonthlyLimit *float64 `json:"monthly_limit"`
}

// UsageResponse is returned by both the OAuth endpoint (/api/oauth/usage)
// and the web session endpoint (/api/organizations/{orgID}/usage).
type UsageResponse struct {
	FiveHour       *UsagePeriodResponse `json:"five_hour,omitempty"`
	SevenDay       *UsagePeriodResponse `json:"seven_day,omitempty"`
	Monthly        *UsagePeriodResponse `json:"monthly,omitempty"`
	SevenDaySonnet *UsagePeriodResponse `json:"seven_day_sonnet,omitempty"`
	SevenDayOpus   *UsagePeriodResponse `json:"seven_day_opus,omitempty"`
	SevenDayHaiku  *UsagePeriodResponse `json:"seven_day_haiku,omitempty"`
	ExtraUsage     *ExtraUsageResponse  `json:"extra_usage,omitempty"`
	Plan           string               `json:"plan,omitempty"`
	BillingType    string               `json:"billing_type,omitempty"`
}

// OAuthCredentials is an alias for the shared OAuth credential type.
type OAuthCredentials = oauth.Credentials

// CLIOAuth is the nested OAuth data inside Claude CLI credential files.
type CLIOAuth struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken,omitempty"`
	ExpiresAt    float64 `json:"expiresAt,omitempty"` // millisecond timestamp
}

// ToOAuthCredentials converts the CLI format to the canonical credentials.
func (c *CLIOAuth) ToOAuthCredentials() OAuthCredentials {
	creds := OAuthCredentials{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
	}
	if c.ExpiresAt > 0 {
		creds.ExpiresAt = time.UnixMilli(int64(c.ExpiresAt)).UTC().Format(time.RFC3339)
	}
	return creds
}

// CLICredentials is the Claude CLI credentials file format.
type CLICredentials struct {
	ClaudeAiOauth *CLIOAuth `json:"claudeAiOauth,omitempty"`
}

// OverageResponse is /api/organizations/{orgID}/overage_spend_limit.
type OverageResponse struct {
	HasHardLimit bool    `json:"has_hard_limit"`
	CurrentSpend float64 `json:"current_spend"`
	HardLimit    float64 `json:"hard_limit"`
}

// ToOverageUsage converts the web overage response; spend values arrive in
// cents. Returns nil when there is no hard limit to report against.
func (r *OverageResponse) ToOverageUsage() *models.OverageUsage {
	if !r.HasHardLimit {
		return nil
	}
	return &models.OverageUsage{
		Used:      r.CurrentSpend / 100.0,
		Limit:     r.HardLimit / 100.0,
		Currency:  "USD",
		IsEnabled: true,
	}
}

// Organization is a single entry from /api/organizations.
type Organization struct {
	UUID         string   `json:"uuid,omitempty"`
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// OrgID returns the best identifier for the organization, preferring UUID.
func (o *Organization) OrgID() string {
	if o.UUID != "" {
		return o.UUID
	}
	return o.ID
}

// HasCapability reports whether the organization has the given capability.
func (o *Organization) HasCapability(cap string) bool {
	for _, c := range o.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// SessionCredentials is the stored web session credential format.
type SessionCredentials struct {
	SessionKey string `json:"session_key"`
}
