package models

import (
	"strings"
	"testing"
	"time"
)

func validSnapshot() UsageSnapshot {
	return UsageSnapshot{
		Provider:  "claude",
		FetchedAt: time.Now().UTC(),
		Periods:   []UsagePeriod{{Name: "Session", Utilization: 40, PeriodType: PeriodSession}},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validSnapshot().Validate(); err != nil {
		t.Errorf("expected valid snapshot, got %v", err)
	}
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	s := UsageSnapshot{
		Periods: []UsagePeriod{
			{Name: "a", Utilization: -1},
			{Name: "b", Utilization: 150},
		},
	}
	err := s.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	// Empty provider, zero fetched_at, and both bad utilizations.
	if len(ve.Violations) != 4 {
		t.Errorf("got %d violations, want 4: %v", len(ve.Violations), ve.Violations)
	}
}

func TestValidate_EmptyPeriods(t *testing.T) {
	s := validSnapshot()
	s.Periods = nil
	err := s.Validate()
	if err == nil {
		t.Fatal("expected error for empty periods")
	}
	if !strings.Contains(err.Error(), "no periods") {
		t.Errorf("error %q should mention missing periods", err)
	}
}

func TestValidate_NegativeOverage(t *testing.T) {
	s := validSnapshot()
	s.Overage = &OverageUsage{Used: -1, Limit: -2}
	err := s.Validate()
	if err == nil {
		t.Fatal("expected error for negative overage")
	}
	ve := err.(*ValidationError)
	if len(ve.Violations) != 2 {
		t.Errorf("got %d violations, want 2", len(ve.Violations))
	}
}

func TestNormalize_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	s := validSnapshot()
	s.FetchedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, loc)
	n := s.Normalize()
	if n.FetchedAt.Location() != time.UTC {
		t.Error("Normalize should convert FetchedAt to UTC")
	}
	if !n.FetchedAt.Equal(s.FetchedAt) {
		t.Error("Normalize should preserve the instant")
	}
}

func TestUnixPtr(t *testing.T) {
	if UnixPtr(0) != nil {
		t.Error("UnixPtr(0) should be nil")
	}
	p := UnixPtr(1700000000)
	if p == nil || p.Unix() != 1700000000 {
		t.Errorf("UnixPtr round-trip failed: %v", p)
	}
	if p.Location() != time.UTC {
		t.Error("UnixPtr should return UTC")
	}
}
