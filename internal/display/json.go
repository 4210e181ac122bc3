package display

import (
	"encoding/json"
	"io"
	"time"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
)

// WriteJSON writes pretty-printed JSON to the given writer.
func WriteJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ProviderEntryJSON is one provider's entry in the machine output. Failed
// providers carry only the error; cached successes carry both a snapshot
// and the error that forced the fallback.
type ProviderEntryJSON struct {
	Provider  string                  `json:"provider"`
	Source    string                  `json:"source,omitempty"`
	FetchedAt string                  `json:"fetched_at,omitempty"`
	Cached    bool                    `json:"cached,omitempty"`
	Stale     bool                    `json:"stale,omitempty"`
	Gated     bool                    `json:"gated,omitempty"`
	Periods   []models.UsagePeriod    `json:"periods,omitempty"`
	Overage   *models.OverageUsage    `json:"overage,omitempty"`
	Identity  *models.ProviderIdentity `json:"identity,omitempty"`
	Error     *apierr.Error           `json:"error,omitempty"`
	Attempts  []fetch.FetchAttempt    `json:"attempts,omitempty"`
}

// MultiProviderJSON is the success form of the machine output.
type MultiProviderJSON struct {
	Providers map[string]ProviderEntryJSON `json:"providers"`
}

// ErrorJSON is the error form of the machine output, used when the whole
// invocation fails before or without per-provider results.
type ErrorJSON struct {
	Error apierr.Error `json:"error"`
}

func providerEntry(outcome fetch.FetchOutcome) ProviderEntryJSON {
	entry := ProviderEntryJSON{
		Provider: outcome.ProviderID,
		Source:   outcome.Source,
		Cached:   outcome.Cached,
		Stale:    outcome.Stale,
		Gated:    outcome.Gated,
		Error:    outcome.Err,
		Attempts: outcome.Attempts,
	}
	if snap := outcome.Snapshot; snap != nil {
		entry.FetchedAt = snap.FetchedAt.Format(time.RFC3339)
		entry.Periods = snap.Periods
		entry.Identity = snap.Identity
		if snap.Overage != nil && snap.Overage.IsEnabled {
			entry.Overage = snap.Overage
		}
	}
	return entry
}

// OutputOutcomesJSON writes the machine output for a set of outcomes.
func OutputOutcomesJSON(w io.Writer, outcomes map[string]fetch.FetchOutcome) error {
	data := MultiProviderJSON{Providers: make(map[string]ProviderEntryJSON, len(outcomes))}
	for id, outcome := range outcomes {
		data.Providers[id] = providerEntry(outcome)
	}
	return WriteJSON(w, data)
}

// OutputErrorJSON writes the machine error form.
func OutputErrorJSON(w io.Writer, err *apierr.Error) error {
	return WriteJSON(w, ErrorJSON{Error: *err})
}

// StatusEntryJSON is one provider's upstream health in `status --json`.
type StatusEntryJSON struct {
	Level       string `json:"level"`
	Description string `json:"description,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// OutputStatusJSON writes provider statuses as JSON.
func OutputStatusJSON(w io.Writer, statuses map[string]models.ProviderStatus) error {
	data := make(map[string]StatusEntryJSON, len(statuses))
	for id, status := range statuses {
		entry := StatusEntryJSON{
			Level:       string(status.Level),
			Description: status.Description,
		}
		if status.UpdatedAt != nil {
			entry.UpdatedAt = status.UpdatedAt.Format(time.RFC3339)
		}
		data[id] = entry
	}
	return WriteJSON(w, data)
}

// ActionResultJSON is the generic response for config reset, cache clear,
// and similar one-shot operations.
type ActionResultJSON struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
}

// AuthStatusEntryJSON is one provider's entry in `auth --status --json`.
type AuthStatusEntryJSON struct {
	Authenticated bool   `json:"authenticated"`
	Source        string `json:"source,omitempty"`
}

// KeyDetailJSON describes a single provider's credential in `key <id> --json`.
type KeyDetailJSON struct {
	Provider   string `json:"provider"`
	Configured bool   `json:"configured"`
	Source     string `json:"source,omitempty"`
	Path       string `json:"path,omitempty"`
}

// UpdateStatusJSON is the machine output of the update command.
type UpdateStatusJSON struct {
	CurrentVersion  string `json:"current_version"`
	LatestVersion   string `json:"latest_version"`
	UpdateAvailable bool   `json:"update_available"`
	Asset           string `json:"asset,omitempty"`
	Applied         bool   `json:"applied"`
}
