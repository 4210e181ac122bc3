package codex

import (
	"encoding/json"
	"strconv"

	"github.com/joshuadavidthomas/vibeusage/internal/oauth"
)

// UsageResponse is the Codex/ChatGPT usage endpoint response. The API uses
// alternate key names across deployments: "rate_limit" vs "rate_limits".
type UsageResponse struct {
	UserID     string          `json:"user_id,omitempty"`
	Email      string          `json:"email,omitempty"`
	PlanType   string          `json:"plan_type,omitempty"`
	RateLimit  *RateLimits     `json:"rate_limit,omitempty"`
	RateLimits *RateLimits     `json:"rate_limits,omitempty"`
	Credits    *Credits        `json:"credits,omitempty"`
	Promo      json.RawMessage `json:"promo,omitempty"`
}

// EffectiveRateLimits returns whichever rate limits field is populated.
func (r *UsageResponse) EffectiveRateLimits() *RateLimits {
	if r.RateLimit != nil {
		return r.RateLimit
	}
	return r.RateLimits
}

// RateLimits contains primary and secondary rate windows. The API uses
// alternate key names: "primary_window" vs "primary".
type RateLimits struct {
	Allowed         bool        `json:"allowed,omitempty"`
	LimitReached    bool        `json:"limit_reached,omitempty"`
	PrimaryWindow   *RateWindow `json:"primary_window,omitempty"`
	Primary         *RateWindow `json:"primary,omitempty"`
	SecondaryWindow *RateWindow `json:"secondary_window,omitempty"`
	Secondary       *RateWindow `json:"secondary,omitempty"`
}

func (r *RateLimits) EffectivePrimary() *RateWindow {
	if r.PrimaryWindow != nil {
		return r.PrimaryWindow
	}
	return r.Primary
}

func (r *RateLimits) EffectiveSecondary() *RateWindow {
	if r.SecondaryWindow != nil {
		return r.SecondaryWindow
	}
	return r.Secondary
}

// RateWindow is a single rate limit window. The API uses alternate key
// names: "reset_at" vs "reset_timestamp".
type RateWindow struct {
	UsedPercent        float64 `json:"used_percent"`
	LimitWindowSeconds float64 `json:"limit_window_seconds,omitempty"`
	ResetAfterSeconds  float64 `json:"reset_after_seconds,omitempty"`
	ResetAt            float64 `json:"reset_at,omitempty"`
	ResetTimestamp     float64 `json:"reset_timestamp,omitempty"`
}

func (w *RateWindow) EffectiveResetTimestamp() float64 {
	if w.ResetAt != 0 {
		return w.ResetAt
	}
	return w.ResetTimestamp
}

// Credits reports available credits. Balance can be a number or a string.
type Credits struct {
	HasCredits bool            `json:"has_credits"`
	Unlimited  bool            `json:"unlimited,omitempty"`
	RawBalance json.RawMessage `json:"balance"`
}

// Balance parses the balance field in either representation.
func (c *Credits) Balance() float64 {
	if c.RawBalance == nil {
		return 0
	}
	var f float64
	if err := json.Unmarshal(c.RawBalance, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(c.RawBalance, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return 0
}

// Credentials is an alias for the shared OAuth credential type.
type Credentials = oauth.Credentials

// CLICredentials is the Codex CLI credential file format, which may nest
// tokens under a "tokens" key or be flat.
type CLICredentials struct {
	Tokens       *oauth.Credentials `json:"tokens,omitempty"`
	AccessToken  string             `json:"access_token,omitempty"`
	RefreshToken string             `json:"refresh_token,omitempty"`
	ExpiresAt    string             `json:"expires_at,omitempty"`
}

// EffectiveCredentials returns the credentials from whichever format is
// present, or nil when no access token is found.
func (c *CLICredentials) EffectiveCredentials() *Credentials {
	if c.Tokens != nil && c.Tokens.AccessToken != "" {
		return c.Tokens
	}
	if c.AccessToken != "" {
		return &Credentials{
			AccessToken:  c.AccessToken,
			RefreshToken: c.RefreshToken,
			ExpiresAt:    c.ExpiresAt,
		}
	}
	return nil
}
