//go:build windows

package updater

import (
	"fmt"
	"os"
)

// replaceBinary stages the new binary next to the target. Windows cannot
// replace a running executable, so the rename happens on a best-effort
// basis and the staged copy is left for the next start when it fails.
func replaceBinary(targetPath string, body []byte) error {
	stagedPath := targetPath + ".new"
	if err := os.WriteFile(stagedPath, body, 0o755); err != nil {
		return fmt.Errorf("staging update binary: %w", err)
	}
	if err := os.Rename(stagedPath, targetPath); err != nil {
		return fmt.Errorf("replacing executable %s (staged copy left at %s): %w", targetPath, stagedPath, err)
	}
	return nil
}
