package cli

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/vibeusage/internal/display"
	"github.com/joshuadavidthomas/vibeusage/internal/logging"
	"github.com/joshuadavidthomas/vibeusage/internal/models"
	"github.com/joshuadavidthomas/vibeusage/internal/provider"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show upstream health for all providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		statuses := fetchAllStatuses(cmd.Context())
		durationMs := time.Since(start).Milliseconds()

		if jsonOutput {
			return display.OutputStatusJSON(outWriter, statuses)
		}

		displayStatusTable(cmd.Context(), statuses, durationMs)
		return nil
	},
}

func fetchAllStatuses(ctx context.Context) map[string]models.ProviderStatus {
	statuses := make(map[string]models.ProviderStatus)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for id, p := range provider.All() {
		wg.Add(1)
		go func(pid string, prov provider.Provider) {
			defer wg.Done()
			status := prov.FetchStatus(ctx)
			mu.Lock()
			statuses[pid] = status
			mu.Unlock()
		}(id, p)
	}

	wg.Wait()
	return statuses
}

func displayStatusTable(ctx context.Context, statuses map[string]models.ProviderStatus, durationMs int64) {
	ids := make([]string, 0, len(statuses))
	for id := range statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if quiet {
		for _, pid := range ids {
			s := statuses[pid]
			out("%s: %s %s\n", pid, display.StatusSymbol(s.Level, noColor), string(s.Level))
		}
		return
	}

	// Leave room for the provider, symbol, and age columns.
	maxDesc := display.TerminalWidth() - 40
	if maxDesc < 20 {
		maxDesc = 20
	}

	var rows [][]string
	for _, pid := range ids {
		s := statuses[pid]
		desc := s.Description
		if len(desc) > maxDesc {
			desc = desc[:maxDesc-3] + "..."
		}
		rows = append(rows, []string{
			pid,
			display.StatusSymbol(s.Level, noColor),
			desc,
			display.FormatStatusUpdated(s.UpdatedAt),
		})
	}

	outln(display.NewTable("Provider Status", []string{"Provider", "Status", "Description", "Updated"}, rows))

	if durationMs > 0 {
		logging.FromContext(ctx).Debug("status fetch complete", "duration_ms", durationMs)
	}
}
