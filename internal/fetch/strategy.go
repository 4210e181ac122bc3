// Package fetch runs provider fetch strategies through a common pipeline:
// failure-gate check, ordered strategy attempts with timeouts, snapshot
// validation, and cache fallback, with a concurrent orchestrator on top.
package fetch

import (
	"context"
	"time"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
)

// Strategy is one way of obtaining a usage snapshot for a provider.
// IsAvailable must be cheap (filesystem and environment checks only);
// Fetch does the network work and honors ctx.
type Strategy interface {
	Name() string
	IsAvailable() bool
	Fetch(ctx context.Context) FetchResult
}

// Refresher is implemented by strategies that can renew their credential
// out of band, e.g. an OAuth token refresh forced by `--refresh`.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// FetchResult is the outcome of a single strategy attempt.
type FetchResult struct {
	Success        bool
	Snapshot       *models.UsageSnapshot
	Err            *apierr.Error
	ShouldFallback bool
}

// ResultOK wraps a successful snapshot.
func ResultOK(snapshot models.UsageSnapshot) FetchResult {
	return FetchResult{Success: true, Snapshot: &snapshot}
}

// ResultFail reports a failure that permits falling through to the next
// strategy.
func ResultFail(err *apierr.Error) FetchResult {
	return FetchResult{Err: err, ShouldFallback: true}
}

// ResultFatal reports a failure that must stop the provider's pipeline:
// further strategies would fail identically or make things worse.
func ResultFatal(err *apierr.Error) FetchResult {
	return FetchResult{Err: err}
}

// ResultFromError classifies an arbitrary error and wraps it; fatal
// classifications stop the pipeline.
func ResultFromError(provider string, err error) FetchResult {
	classified := apierr.Classify(err, provider)
	if classified.IsFatal() {
		return ResultFatal(classified)
	}
	return ResultFail(classified)
}

// FetchAttempt records one strategy try for diagnostics and JSON output.
type FetchAttempt struct {
	Strategy   string        `json:"strategy"`
	Success    bool          `json:"success"`
	Err        *apierr.Error `json:"error,omitempty"`
	DurationMS int64         `json:"duration_ms"`
}

// FetchOutcome is the complete result of fetching from one provider.
type FetchOutcome struct {
	ProviderID    string                `json:"provider_id"`
	Success       bool                  `json:"success"`
	Snapshot      *models.UsageSnapshot `json:"snapshot,omitempty"`
	Source        string                `json:"source,omitempty"`
	Err           *apierr.Error         `json:"error,omitempty"`
	Cached        bool                  `json:"cached"`
	Stale         bool                  `json:"stale,omitempty"`
	Gated         bool                  `json:"gated,omitempty"`
	GateRemaining time.Duration         `json:"-"`
	Attempts      []FetchAttempt        `json:"attempts,omitempty"`
}

// ErrorMessage returns the outcome's error text, or "".
func (o FetchOutcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Message
}
