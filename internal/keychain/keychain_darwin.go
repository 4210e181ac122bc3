//go:build darwin

package keychain

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// The security CLI can hang waiting on a keychain unlock prompt.
const lookupTimeout = 2 * time.Second

// ReadGenericPassword looks up a generic password in the macOS keychain
// via `security find-generic-password`. An empty account matches any
// account under the service.
func ReadGenericPassword(service, account string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	args := []string{"find-generic-password", "-s", service, "-w"}
	if account != "" {
		args = append(args, "-a", account)
	}

	raw, err := exec.CommandContext(ctx, "security", args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
