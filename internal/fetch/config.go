package fetch

import (
	"time"

	"github.com/joshuadavidthomas/vibeusage/internal/gate"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
)

// Cache abstracts snapshot persistence so ExecutePipeline doesn't depend
// on the filesystem or config package directly.
type Cache interface {
	Save(snapshot models.UsageSnapshot) error
	Load(providerID string) *models.UsageSnapshot
}

// PipelineConfig holds everything ExecutePipeline needs, injected rather
// than read from a global.
type PipelineConfig struct {
	// Timeout bounds each individual strategy attempt.
	Timeout time.Duration
	// StaleThresholdMinutes marks cache-fallback snapshots older than
	// this as stale in the outcome.
	StaleThresholdMinutes int
	Cache                 Cache
	// Gates may be nil, which disables failure gating entirely.
	Gates *gate.Registry
}

// OrchestratorConfig holds parameters for FetchAllProviders and
// FetchEnabledProviders.
type OrchestratorConfig struct {
	MaxConcurrent int
	Pipeline      PipelineConfig
}
