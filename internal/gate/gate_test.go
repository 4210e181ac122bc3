package gate

import (
	"testing"
	"time"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
)

type memStore struct {
	states map[string]State
	saves  int
}

func newMemStore() *memStore {
	return &memStore{states: make(map[string]State)}
}

func (m *memStore) Load(providerID string) *State {
	st, ok := m.states[providerID]
	if !ok {
		return nil
	}
	return &st
}

func (m *memStore) Save(providerID string, st State) error {
	m.saves++
	m.states[providerID] = st
	return nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRegistry(store Store) (*Registry, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRegistry(store)
	r.SetClock(clock.now)
	return r, clock
}

func TestGateTripsAfterMaxConsecutive(t *testing.T) {
	r, _ := newTestRegistry(newMemStore())
	g := r.For("claude")

	for i := 0; i < MaxConsecutive-1; i++ {
		g.RecordFailure(apierr.CategoryNetwork, "connection refused")
		if g.IsGated() {
			t.Fatalf("gated after %d failures", i+1)
		}
	}

	g.RecordFailure(apierr.CategoryNetwork, "connection refused")
	if !g.IsGated() {
		t.Fatal("expected gate to trip at MaxConsecutive failures")
	}
	if got := g.Remaining(); got != GateDuration {
		t.Errorf("Remaining() = %v, want %v", got, GateDuration)
	}
}

func TestGateSuccessResetsConsecutive(t *testing.T) {
	r, _ := newTestRegistry(newMemStore())
	g := r.For("codex")

	g.RecordFailure(apierr.CategoryProvider, "502")
	g.RecordFailure(apierr.CategoryProvider, "502")
	g.RecordSuccess()
	g.RecordFailure(apierr.CategoryProvider, "502")
	g.RecordFailure(apierr.CategoryProvider, "502")

	if g.IsGated() {
		t.Fatal("success between failures should prevent gating")
	}
	if got := g.ConsecutiveCount(); got != 2 {
		t.Errorf("ConsecutiveCount() = %d, want 2", got)
	}
}

func TestGateExpiresAfterGateDuration(t *testing.T) {
	r, clock := newTestRegistry(newMemStore())
	g := r.For("claude")

	for i := 0; i < MaxConsecutive; i++ {
		g.RecordFailure(apierr.CategoryNetwork, "timeout")
	}
	if !g.IsGated() {
		t.Fatal("expected gated")
	}

	clock.advance(GateDuration - time.Second)
	if !g.IsGated() {
		t.Fatal("gate expired early")
	}

	clock.advance(2 * time.Second)
	if g.IsGated() {
		t.Fatal("gate should reopen after GateDuration")
	}
	if got := g.Remaining(); got != 0 {
		t.Errorf("Remaining() = %v after expiry, want 0", got)
	}
}

func TestGateOldFailuresAgeOut(t *testing.T) {
	r, clock := newTestRegistry(newMemStore())
	g := r.For("claude")

	g.RecordFailure(apierr.CategoryNetwork, "old")
	g.RecordFailure(apierr.CategoryNetwork, "old")

	clock.advance(Window + time.Minute)
	g.RecordFailure(apierr.CategoryNetwork, "fresh")

	if got := len(g.RecentFailures(0)); got != 1 {
		t.Errorf("kept %d records, want 1 after window pruning", got)
	}
}

func TestGateClear(t *testing.T) {
	store := newMemStore()
	r, _ := newTestRegistry(store)
	g := r.For("claude")

	for i := 0; i < MaxConsecutive; i++ {
		g.RecordFailure(apierr.CategoryAuthentication, "401")
	}
	g.Clear()

	if g.IsGated() {
		t.Fatal("Clear should reopen the gate")
	}
	if got := g.ConsecutiveCount(); got != 0 {
		t.Errorf("ConsecutiveCount() = %d after Clear, want 0", got)
	}
	if st := store.Load("claude"); st == nil || len(st.Failures) != 0 {
		t.Error("Clear should persist the empty state")
	}
}

func TestGatePersistsEveryMutation(t *testing.T) {
	store := newMemStore()
	r, _ := newTestRegistry(store)
	g := r.For("claude")

	g.RecordFailure(apierr.CategoryNetwork, "x")
	g.RecordSuccess()
	g.Clear()

	if store.saves != 3 {
		t.Errorf("store.saves = %d, want 3", store.saves)
	}
}

func TestRegistryLoadsPersistedState(t *testing.T) {
	store := newMemStore()
	until := time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)
	store.states["claude"] = State{Consecutive: 3, GatedUntil: &until}

	r, clock := newTestRegistry(store)
	clock.t = until.Add(-time.Minute)

	if !r.For("claude").IsGated() {
		t.Fatal("expected gate restored from store")
	}
}

func TestRegistryReturnsSameGate(t *testing.T) {
	r, _ := newTestRegistry(newMemStore())
	if r.For("claude") != r.For("claude") {
		t.Fatal("For should return a single gate per provider")
	}
}

func TestRecentFailuresLimit(t *testing.T) {
	r, _ := newTestRegistry(newMemStore())
	g := r.For("claude")
	g.RecordFailure(apierr.CategoryNetwork, "a")
	g.RecordSuccess()
	g.RecordFailure(apierr.CategoryNetwork, "b")
	g.RecordSuccess()
	g.RecordFailure(apierr.CategoryNetwork, "c")

	got := g.RecentFailures(2)
	if len(got) != 2 || got[0].Message != "b" || got[1].Message != "c" {
		t.Errorf("RecentFailures(2) = %+v, want last two records oldest first", got)
	}
}
