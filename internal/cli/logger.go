package cli

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/joshuadavidthomas/vibeusage/internal/logging"
)

// newConfiguredLogger builds the stderr logger from the persistent flags.
// Output stays on stderr so machine-readable stdout is never polluted.
func newConfiguredLogger() *log.Logger {
	flags := logging.Flags{
		Verbose: verbose,
		Quiet:   quiet,
		NoColor: noColor,
		JSON:    jsonOutput,
	}
	l := logging.NewLogger(os.Stderr)
	logging.Configure(l, flags)
	return l
}
