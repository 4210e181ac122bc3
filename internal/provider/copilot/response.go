package copilot

// UserResponse is the response from the Copilot user API endpoint.
type UserResponse struct {
	QuotaResetDateUTC string          `json:"quota_reset_date_utc,omitempty"`
	CopilotPlan       string          `json:"copilot_plan,omitempty"`
	QuotaSnapshots    *QuotaSnapshots `json:"quota_snapshots,omitempty"`
}

// QuotaSnapshots contains quota information per interaction type.
type QuotaSnapshots struct {
	PremiumInteractions *Quota `json:"premium_interactions,omitempty"`
	Chat                *Quota `json:"chat,omitempty"`
	Completions         *Quota `json:"completions,omitempty"`
}

// Quota is a single quota with entitlement, remaining, and unlimited flag.
type Quota struct {
	Entitlement float64 `json:"entitlement"`
	Remaining   float64 `json:"remaining"`
	Unlimited   bool    `json:"unlimited"`
}

// Utilization returns the percentage of quota used, clamped to [0, 100].
func (q *Quota) Utilization() int {
	if q.Entitlement <= 0 {
		return 0
	}
	used := q.Entitlement - q.Remaining
	pct := int((used / q.Entitlement) * 100)
	return max(0, min(pct, 100))
}

// HasUsage reports whether this quota is worth displaying.
func (q *Quota) HasUsage() bool {
	return q.Unlimited || q.Entitlement > 0
}

// hostsFile is the GitHub Copilot editor credential file format: a map of
// host identifiers (e.g. "github.com") to token entries.
type hostsFile map[string]struct {
	OAuthToken string `json:"oauth_token,omitempty"`
}

// tokenCredentials is the stored vibeusage credential format.
type tokenCredentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty"`
}
