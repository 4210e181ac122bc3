package fetch

import (
	"sort"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
)

// Exit codes for the usage command. Partial data is distinguishable from
// total failure so scripts can decide whether stale-but-present output is
// acceptable.
const (
	ExitOK            = 0
	ExitAllFailed     = 1
	ExitAuth          = 2
	ExitNetwork       = 3
	ExitConfiguration = 4
	ExitPartial       = 5
)

// Summary buckets a fetch run's outcomes. The buckets are disjoint: each
// provider lands in exactly one of Succeeded, Cached, Gated, or Failed.
type Summary struct {
	Succeeded []string
	Cached    []string
	Gated     []string
	Failed    []string
}

// Aggregate sorts outcomes into summary buckets. Providers that served
// data from cache (including gated providers with cache) count as Cached;
// gated providers without data count as Gated.
func Aggregate(outcomes map[string]FetchOutcome) Summary {
	var s Summary
	for pid, o := range outcomes {
		switch {
		case o.Success && !o.Cached:
			s.Succeeded = append(s.Succeeded, pid)
		case o.Success:
			s.Cached = append(s.Cached, pid)
		case o.Gated:
			s.Gated = append(s.Gated, pid)
		default:
			s.Failed = append(s.Failed, pid)
		}
	}
	sort.Strings(s.Succeeded)
	sort.Strings(s.Cached)
	sort.Strings(s.Gated)
	sort.Strings(s.Failed)
	return s
}

// HasAnyData reports whether at least one provider produced a snapshot.
func (s Summary) HasAnyData() bool {
	return len(s.Succeeded) > 0 || len(s.Cached) > 0
}

// AllFailed reports whether every attempted provider failed to produce
// data.
func (s Summary) AllFailed() bool {
	return !s.HasAnyData() && (len(s.Failed) > 0 || len(s.Gated) > 0)
}

// ExitCode maps a run's outcomes to the process exit code. All data
// (live or cached) is success; mixed results exit with ExitPartial; total
// failure exits with the dominant failure category's code.
func ExitCode(outcomes map[string]FetchOutcome) int {
	if len(outcomes) == 0 {
		return ExitConfiguration
	}
	s := Aggregate(outcomes)
	if !s.HasAnyData() {
		return allFailedCode(outcomes)
	}
	if len(s.Failed) > 0 || len(s.Gated) > 0 {
		return ExitPartial
	}
	return ExitOK
}

// allFailedCode picks the exit code when nothing produced data, by the
// most actionable failure category present: configuration beats auth
// beats network beats the generic failure code.
func allFailedCode(outcomes map[string]FetchOutcome) int {
	counts := map[apierr.Category]int{}
	for _, o := range outcomes {
		if o.Err != nil {
			counts[o.Err.Category]++
		}
	}
	switch {
	case counts[apierr.CategoryConfiguration] == len(outcomes):
		return ExitConfiguration
	case counts[apierr.CategoryAuthentication]+counts[apierr.CategoryAuthorization] > 0:
		return ExitAuth
	case counts[apierr.CategoryNetwork]+counts[apierr.CategoryRateLimited] > 0:
		return ExitNetwork
	default:
		return ExitAllFailed
	}
}
