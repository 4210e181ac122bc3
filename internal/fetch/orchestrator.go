package fetch

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
)

// FetchAllProviders fetches usage from every provider in providerMap
// concurrently, at most cfg.MaxConcurrent at a time. onComplete fires as
// each provider finishes, from the fetching goroutine; panics in the
// callback are swallowed so a broken progress display cannot lose
// outcomes. Cancellation yields a partial result: providers that never
// started report a cancellation error.
func FetchAllProviders(ctx context.Context, providerMap map[string][]Strategy, useCache bool, cfg OrchestratorConfig, onComplete func(FetchOutcome)) map[string]FetchOutcome {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}

	outcomes := make(map[string]FetchOutcome, len(providerMap))
	var mu sync.Mutex
	sem := semaphore.NewWeighted(int64(maxConcurrent))
	var wg sync.WaitGroup

	record := func(outcome FetchOutcome) {
		mu.Lock()
		outcomes[outcome.ProviderID] = outcome
		mu.Unlock()
		if onComplete != nil {
			notify(onComplete, outcome)
		}
	}

	for pid, strategies := range providerMap {
		wg.Add(1)
		go func(providerID string, strats []Strategy) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				record(FetchOutcome{
					ProviderID: providerID,
					Err:        apierr.Classify(err, providerID),
				})
				return
			}
			defer sem.Release(1)

			record(ExecutePipeline(ctx, providerID, strats, useCache, cfg.Pipeline))
		}(pid, strategies)
	}

	wg.Wait()
	return outcomes
}

// FetchEnabledProviders fetches only the providers the isEnabled predicate
// accepts.
func FetchEnabledProviders(ctx context.Context, providerMap map[string][]Strategy, useCache bool, cfg OrchestratorConfig, isEnabled func(string) bool, onComplete func(FetchOutcome)) map[string]FetchOutcome {
	enabled := make(map[string][]Strategy, len(providerMap))
	for pid, strategies := range providerMap {
		if isEnabled(pid) {
			enabled[pid] = strategies
		}
	}
	return FetchAllProviders(ctx, enabled, useCache, cfg, onComplete)
}

// FetchSingleProvider runs the pipeline for one provider.
func FetchSingleProvider(ctx context.Context, providerID string, strategies []Strategy, useCache bool, cfg PipelineConfig) FetchOutcome {
	return ExecutePipeline(ctx, providerID, strategies, useCache, cfg)
}

func notify(fn func(FetchOutcome), outcome FetchOutcome) {
	defer func() { _ = recover() }()
	fn(outcome)
}
