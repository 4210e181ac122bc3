package fetch

import (
	"testing"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
)

func outcomeOK(pid string) FetchOutcome {
	snap := testSnapshot(pid, "oauth", 10)
	return FetchOutcome{ProviderID: pid, Success: true, Snapshot: &snap, Source: "oauth"}
}

func outcomeCached(pid string) FetchOutcome {
	o := outcomeOK(pid)
	o.Cached = true
	o.Source = "cache"
	return o
}

func outcomeFailed(pid string, category apierr.Category) FetchOutcome {
	return FetchOutcome{
		ProviderID: pid,
		Err:        apierr.New(category, apierr.SeverityRecoverable, pid, "boom"),
	}
}

func outcomeGated(pid string) FetchOutcome {
	return FetchOutcome{
		ProviderID: pid,
		Gated:      true,
		Err:        apierr.New(apierr.CategoryProvider, apierr.SeverityWarning, pid, "gated"),
	}
}

func TestAggregateBucketsAreDisjoint(t *testing.T) {
	outcomes := map[string]FetchOutcome{
		"a": outcomeOK("a"),
		"b": outcomeCached("b"),
		"c": outcomeGated("c"),
		"d": outcomeFailed("d", apierr.CategoryNetwork),
	}

	s := Aggregate(outcomes)
	if len(s.Succeeded) != 1 || s.Succeeded[0] != "a" {
		t.Errorf("Succeeded = %v", s.Succeeded)
	}
	if len(s.Cached) != 1 || s.Cached[0] != "b" {
		t.Errorf("Cached = %v", s.Cached)
	}
	if len(s.Gated) != 1 || s.Gated[0] != "c" {
		t.Errorf("Gated = %v", s.Gated)
	}
	if len(s.Failed) != 1 || s.Failed[0] != "d" {
		t.Errorf("Failed = %v", s.Failed)
	}
	if !s.HasAnyData() || s.AllFailed() {
		t.Error("mixed run should have data and not be all-failed")
	}
}

func TestAggregateGatedWithCacheCountsAsCached(t *testing.T) {
	o := outcomeCached("a")
	o.Gated = true
	s := Aggregate(map[string]FetchOutcome{"a": o})
	if len(s.Cached) != 1 || len(s.Gated) != 0 {
		t.Errorf("summary = %+v", s)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		outcomes map[string]FetchOutcome
		want     int
	}{
		{
			name:     "no providers",
			outcomes: map[string]FetchOutcome{},
			want:     ExitConfiguration,
		},
		{
			name:     "all live success",
			outcomes: map[string]FetchOutcome{"a": outcomeOK("a"), "b": outcomeOK("b")},
			want:     ExitOK,
		},
		{
			name:     "cached counts as success",
			outcomes: map[string]FetchOutcome{"a": outcomeOK("a"), "b": outcomeCached("b")},
			want:     ExitOK,
		},
		{
			name:     "partial",
			outcomes: map[string]FetchOutcome{"a": outcomeOK("a"), "b": outcomeFailed("b", apierr.CategoryNetwork)},
			want:     ExitPartial,
		},
		{
			name:     "gated without data is partial when others succeed",
			outcomes: map[string]FetchOutcome{"a": outcomeOK("a"), "b": outcomeGated("b")},
			want:     ExitPartial,
		},
		{
			name:     "all failed generic",
			outcomes: map[string]FetchOutcome{"a": outcomeFailed("a", apierr.CategoryParse)},
			want:     ExitAllFailed,
		},
		{
			name:     "auth failure dominates",
			outcomes: map[string]FetchOutcome{"a": outcomeFailed("a", apierr.CategoryAuthentication), "b": outcomeFailed("b", apierr.CategoryParse)},
			want:     ExitAuth,
		},
		{
			name:     "network failure",
			outcomes: map[string]FetchOutcome{"a": outcomeFailed("a", apierr.CategoryNetwork)},
			want:     ExitNetwork,
		},
		{
			name:     "all unconfigured",
			outcomes: map[string]FetchOutcome{"a": outcomeFailed("a", apierr.CategoryConfiguration), "b": outcomeFailed("b", apierr.CategoryConfiguration)},
			want:     ExitConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.outcomes); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
