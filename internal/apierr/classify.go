package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
)

// Classify maps a Go error to a classified Error. Errors that are already
// classified pass through with the provider filled in if missing.
func Classify(err error, provider string) *Error {
	if err == nil {
		return nil
	}

	var already *Error
	if errors.As(err, &already) {
		if already.Provider == "" {
			already.Provider = provider
			if already.Remediation == "" {
				already.Remediation = Remediation(provider, already.Category)
			}
		}
		return already
	}

	// Timeout check runs before the context check: http.Client wraps its
	// per-request timeout so the error also matches context.DeadlineExceeded,
	// but it is a transport timeout and must stay retryable.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newNetworkError(provider, err)
	}

	if errors.Is(err, context.Canceled) {
		return New(CategoryUnknown, SeverityTransient, provider, "cancelled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newNetworkError(provider, err)
	}

	if errors.As(err, &netErr) {
		return newNetworkError(provider, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return newNetworkError(provider, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return New(CategoryParse, SeverityRecoverable, provider, err.Error())
	}

	if errors.Is(err, fs.ErrNotExist) {
		return New(CategoryConfiguration, SeverityRecoverable, provider, err.Error())
	}
	if errors.Is(err, fs.ErrPermission) {
		return New(CategoryConfiguration, SeverityFatal, provider, err.Error())
	}

	e := New(CategoryUnknown, SeverityRecoverable, provider, err.Error())
	e.Details = fmt.Sprintf("%T", err)
	return e
}

func newNetworkError(provider string, err error) *Error {
	e := New(CategoryNetwork, SeverityTransient, provider, err.Error())
	e.Retryable = true
	return e
}
