package config

import "testing"

// Override swaps the process-wide config for the duration of a test and
// restores the previous value on cleanup, so tests need no config file on
// disk.
func Override(t testing.TB, cfg Config) {
	t.Helper()
	configMu.Lock()
	prev := globalConfig
	globalConfig = &cfg
	configMu.Unlock()

	t.Cleanup(func() {
		configMu.Lock()
		globalConfig = prev
		configMu.Unlock()
	})
}
