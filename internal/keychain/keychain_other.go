//go:build !darwin

package keychain

import "errors"

// ErrUnsupported is returned on platforms without a system keychain.
var ErrUnsupported = errors.New("keychain not available on this platform")

// ReadGenericPassword only has a real implementation on macOS.
func ReadGenericPassword(_, _ string) (string, error) {
	return "", ErrUnsupported
}
