//go:build !windows

package updater

import (
	"fmt"
	"os"
	"path/filepath"
)

// replaceBinary writes the new binary next to the target and renames it
// into place so the swap is atomic on the same filesystem.
func replaceBinary(targetPath string, body []byte) error {
	dir := filepath.Dir(targetPath)
	tmp, err := os.CreateTemp(dir, ".vibeusage-update-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("writing update binary: %w", err)
	}

	mode := os.FileMode(0o755)
	if info, err := os.Stat(targetPath); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("setting update binary permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing update binary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("finalizing update binary: %w", err)
	}

	if err := os.Rename(tmpPath, targetPath); err != nil {
		return fmt.Errorf("replacing executable %s: %w", targetPath, err)
	}
	return nil
}
