package models

import (
	"fmt"
	"strings"
)

// ValidationError reports every violation found in a snapshot, not just the
// first. The pipeline treats an invalid strategy result as a
// fallback-eligible failure.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid snapshot: " + strings.Join(e.Violations, "; ")
}

// Validate checks the snapshot invariants: a provider id, a UTC fetch time,
// at least one period, and every utilization within [0, 100]. Returns a
// *ValidationError listing all violations, or nil.
func (s UsageSnapshot) Validate() error {
	var violations []string

	if s.Provider == "" {
		violations = append(violations, "provider id is empty")
	}
	if s.FetchedAt.IsZero() {
		violations = append(violations, "fetched_at is unset")
	}
	if len(s.Periods) == 0 {
		violations = append(violations, "no periods")
	}
	for i, p := range s.Periods {
		if p.Utilization < 0 || p.Utilization > 100 {
			violations = append(violations,
				fmt.Sprintf("period %d (%s): utilization %d out of range [0, 100]", i, p.Name, p.Utilization))
		}
	}
	if s.Overage != nil {
		if s.Overage.Used < 0 {
			violations = append(violations, "overage: used is negative")
		}
		if s.Overage.Limit < 0 {
			violations = append(violations, "overage: limit is negative")
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// Normalize returns a copy with FetchedAt converted to UTC.
func (s UsageSnapshot) Normalize() UsageSnapshot {
	s.FetchedAt = s.FetchedAt.UTC()
	return s
}
