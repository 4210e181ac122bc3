// Package gate implements the per-provider circuit breaker that suppresses
// live fetches after sustained failures. State survives process restarts
// through a pluggable store.
package gate

import (
	"time"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
)

const (
	// Window bounds how long failures count against a provider.
	Window = 10 * time.Minute
	// GateDuration is how long fetching stays suppressed once the gate trips.
	GateDuration = 5 * time.Minute
	// MaxConsecutive failures within Window trip the gate.
	MaxConsecutive = 3
)

// FailureRecord is one observed fetch failure.
type FailureRecord struct {
	Timestamp time.Time
	Category  apierr.Category
	Message   string
}

// State is the persistable gate state for one provider.
type State struct {
	Failures    []FailureRecord
	Consecutive int
	GatedUntil  *time.Time
}

// Store persists gate state. Load returns nil when no state exists or the
// stored blob is undecodable.
type Store interface {
	Load(providerID string) *State
	Save(providerID string, st State) error
}

// Gate tracks failures for a single provider. It is not safe for concurrent
// use; the pipeline guarantees one writer per provider per run.
type Gate struct {
	providerID string
	store      Store
	state      State
	now        func() time.Time
}

// RecordFailure notes a failed fetch. Failures older than Window are
// dropped first; if the consecutive count reaches MaxConsecutive the gate
// closes for GateDuration. State is persisted before returning.
func (g *Gate) RecordFailure(category apierr.Category, message string) {
	now := g.now()
	g.pruneOld(now)
	g.state.Failures = append(g.state.Failures, FailureRecord{
		Timestamp: now,
		Category:  category,
		Message:   message,
	})
	g.state.Consecutive++
	if g.state.Consecutive >= MaxConsecutive && g.state.GatedUntil == nil {
		until := now.Add(GateDuration)
		g.state.GatedUntil = &until
	}
	g.persist()
}

// RecordSuccess resets the consecutive counter. Historical failure records
// are kept; they age out of the window naturally.
func (g *Gate) RecordSuccess() {
	g.state.Consecutive = 0
	g.persist()
}

// IsGated reports whether fetching is currently suppressed. An expired
// gated-until is cleared (and persisted) as a side effect.
func (g *Gate) IsGated() bool {
	if g.state.GatedUntil == nil {
		return false
	}
	if !g.now().Before(*g.state.GatedUntil) {
		g.state.GatedUntil = nil
		g.persist()
		return false
	}
	return true
}

// Remaining returns the time left until the gate reopens, or zero when the
// gate is open.
func (g *Gate) Remaining() time.Duration {
	if g.state.GatedUntil == nil {
		return 0
	}
	d := g.state.GatedUntil.Sub(g.now())
	if d < 0 {
		return 0
	}
	return d
}

// Clear resets all gate state for the provider.
func (g *Gate) Clear() {
	g.state = State{}
	g.persist()
}

// ConsecutiveCount returns the current consecutive-failure count.
func (g *Gate) ConsecutiveCount() int {
	return g.state.Consecutive
}

// RecentFailures returns up to limit of the most recent failure records,
// oldest first.
func (g *Gate) RecentFailures(limit int) []FailureRecord {
	f := g.state.Failures
	if limit > 0 && len(f) > limit {
		f = f[len(f)-limit:]
	}
	out := make([]FailureRecord, len(f))
	copy(out, f)
	return out
}

func (g *Gate) pruneOld(now time.Time) {
	cutoff := now.Add(-Window)
	kept := g.state.Failures[:0]
	for _, r := range g.state.Failures {
		if r.Timestamp.After(cutoff) {
			kept = append(kept, r)
		}
	}
	g.state.Failures = kept
}

// persist saves after every mutation. Persistence is best effort: a full
// disk must not turn a usage query into a hard failure.
func (g *Gate) persist() {
	if g.store != nil {
		_ = g.store.Save(g.providerID, g.state)
	}
}
