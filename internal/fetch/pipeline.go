package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
	"github.com/joshuadavidthomas/vibeusage/internal/gate"
)

// ExecutePipeline tries each strategy in order until one produces a valid
// snapshot. The sequence per provider: failure-gate check, available
// strategies with per-attempt timeouts, snapshot validation, then cache
// fallback. Every attempt is recorded in the outcome.
func ExecutePipeline(ctx context.Context, providerID string, strategies []Strategy, useCache bool, cfg PipelineConfig) FetchOutcome {
	var g *gate.Gate
	if cfg.Gates != nil {
		g = cfg.Gates.For(providerID)
		if g.IsGated() {
			return gatedOutcome(providerID, g, useCache, cfg)
		}
	}

	anyAttempted := false
	var attempts []FetchAttempt
	var lastErr *apierr.Error

	for _, strategy := range strategies {
		if !strategy.IsAvailable() {
			continue
		}
		anyAttempted = true

		result, attempt := runStrategy(ctx, strategy, cfg.Timeout)
		attempts = append(attempts, attempt)

		if ctx.Err() != nil {
			return FetchOutcome{
				ProviderID: providerID,
				Err:        apierr.Classify(ctx.Err(), providerID),
				Attempts:   attempts,
			}
		}

		if result.Success && result.Snapshot != nil {
			snap := result.Snapshot.Normalize()
			if err := snap.Validate(); err != nil {
				// A snapshot that fails validation is as useless as a
				// parse failure; let the next strategy try.
				lastErr = apierr.New(apierr.CategoryParse, apierr.SeverityRecoverable, providerID, err.Error())
				attempts[len(attempts)-1] = FetchAttempt{
					Strategy:   attempt.Strategy,
					Err:        lastErr,
					DurationMS: attempt.DurationMS,
				}
				continue
			}

			if cfg.Cache != nil {
				_ = cfg.Cache.Save(snap)
			}
			if g != nil {
				g.RecordSuccess()
			}
			return FetchOutcome{
				ProviderID: providerID,
				Success:    true,
				Snapshot:   &snap,
				Source:     strategy.Name(),
				Attempts:   attempts,
			}
		}

		lastErr = result.Err
		if result.Err != nil && (result.Err.IsFatal() || !result.ShouldFallback) {
			if g != nil {
				g.RecordFailure(result.Err.Category, result.Err.Message)
			}
			return FetchOutcome{
				ProviderID: providerID,
				Err:        result.Err,
				Attempts:   attempts,
			}
		}
	}

	if !anyAttempted {
		return FetchOutcome{
			ProviderID: providerID,
			Err: apierr.New(apierr.CategoryConfiguration, apierr.SeverityRecoverable,
				providerID, "no credentials found"),
		}
	}

	if lastErr == nil {
		lastErr = apierr.New(apierr.CategoryUnknown, apierr.SeverityRecoverable,
			providerID, "all strategies failed")
	}
	if g != nil {
		g.RecordFailure(lastErr.Category, lastErr.Message)
	}

	// Serve stale data only when credentials exist but the live fetch
	// failed. Unconfigured providers must not show old numbers.
	if useCache && cfg.Cache != nil {
		if cached := cfg.Cache.Load(providerID); cached != nil {
			return FetchOutcome{
				ProviderID: providerID,
				Success:    true,
				Snapshot:   cached,
				Source:     "cache",
				Err:        lastErr,
				Cached:     true,
				Stale:      cached.IsStale(cfg.StaleThresholdMinutes),
				Attempts:   attempts,
			}
		}
	}

	return FetchOutcome{
		ProviderID: providerID,
		Err:        lastErr,
		Attempts:   attempts,
	}
}

// runStrategy executes one strategy with a per-attempt timeout. The fetch
// runs in its own goroutine so a strategy that ignores ctx cannot wedge
// the pipeline.
func runStrategy(ctx context.Context, strategy Strategy, timeout time.Duration) (FetchResult, FetchAttempt) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resultCh := make(chan FetchResult, 1)
	go func() {
		resultCh <- strategy.Fetch(attemptCtx)
	}()

	var result FetchResult
	select {
	case <-attemptCtx.Done():
		elapsed := time.Since(start)
		var err *apierr.Error
		if ctx.Err() != nil {
			err = apierr.Classify(ctx.Err(), "")
		} else {
			err = apierr.New(apierr.CategoryNetwork, apierr.SeverityTransient, "",
				fmt.Sprintf("fetch timed out after %s", timeout))
			err.Retryable = true
		}
		return ResultFail(err), FetchAttempt{
			Strategy:   strategy.Name(),
			Err:        err,
			DurationMS: elapsed.Milliseconds(),
		}
	case result = <-resultCh:
	}

	elapsed := time.Since(start)
	return result, FetchAttempt{
		Strategy:   strategy.Name(),
		Success:    result.Success,
		Err:        result.Err,
		DurationMS: elapsed.Milliseconds(),
	}
}

// gatedOutcome short-circuits a gated provider. Cached data is still
// served when available so the user sees something, clearly marked.
func gatedOutcome(providerID string, g *gate.Gate, useCache bool, cfg PipelineConfig) FetchOutcome {
	remaining := g.Remaining()
	gateErr := apierr.New(apierr.CategoryProvider, apierr.SeverityWarning, providerID,
		fmt.Sprintf("fetching paused for %s after repeated failures", remaining.Round(time.Second)))

	outcome := FetchOutcome{
		ProviderID:    providerID,
		Err:           gateErr,
		Gated:         true,
		GateRemaining: remaining,
	}
	if useCache && cfg.Cache != nil {
		if cached := cfg.Cache.Load(providerID); cached != nil {
			outcome.Success = true
			outcome.Snapshot = cached
			outcome.Source = "cache"
			outcome.Cached = true
			outcome.Stale = cached.IsStale(cfg.StaleThresholdMinutes)
		}
	}
	return outcome
}
