package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestClassifyStatus_Table(t *testing.T) {
	tests := []struct {
		code       int
		category   Category
		severity   Severity
		retryable  bool
		fallback   bool
		retryAfter bool
	}{
		{401, CategoryAuthentication, SeverityRecoverable, false, true, false},
		{403, CategoryAuthorization, SeverityRecoverable, false, true, false},
		{404, CategoryNotFound, SeverityRecoverable, false, true, false},
		{429, CategoryRateLimited, SeverityTransient, true, false, true},
		{500, CategoryProvider, SeverityTransient, true, true, false},
		{502, CategoryProvider, SeverityTransient, true, true, false},
		{503, CategoryProvider, SeverityTransient, true, true, false},
		{504, CategoryProvider, SeverityTransient, true, true, false},
		{418, CategoryUnknown, SeverityRecoverable, false, true, false},
		{599, CategoryProvider, SeverityTransient, true, true, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.code), func(t *testing.T) {
			rule := ClassifyStatus(tt.code)
			if rule.Category != tt.category {
				t.Errorf("category = %s, want %s", rule.Category, tt.category)
			}
			if rule.Severity != tt.severity {
				t.Errorf("severity = %s, want %s", rule.Severity, tt.severity)
			}
			if rule.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", rule.Retryable, tt.retryable)
			}
			if rule.AllowFallback != tt.fallback {
				t.Errorf("fallback = %v, want %v", rule.AllowFallback, tt.fallback)
			}
			if rule.RetryAfter != tt.retryAfter {
				t.Errorf("retryAfter = %v, want %v", rule.RetryAfter, tt.retryAfter)
			}
		})
	}
}

type fakeTimeout struct{}

func (fakeTimeout) Error() string   { return "dial tcp: i/o timeout" }
func (fakeTimeout) Timeout() bool   { return true }
func (fakeTimeout) Temporary() bool { return true }

func TestClassify_NetworkTimeout(t *testing.T) {
	e := Classify(fakeTimeout{}, "claude")
	if e.Category != CategoryNetwork {
		t.Errorf("category = %s, want network", e.Category)
	}
	if e.Severity != SeverityTransient {
		t.Errorf("severity = %s, want transient", e.Severity)
	}
	if !e.Retryable {
		t.Error("network errors should be retryable")
	}
}

func TestClassify_ParseError(t *testing.T) {
	var out struct{ X int }
	err := json.Unmarshal([]byte("{nope"), &out)
	e := Classify(err, "codex")
	if e.Category != CategoryParse {
		t.Errorf("category = %s, want parse", e.Category)
	}
	if e.Severity != SeverityRecoverable {
		t.Errorf("severity = %s, want recoverable", e.Severity)
	}
}

// clientTimeout mimics the error http.Client returns when its own timeout
// fires: a net.Error timeout that also matches context.DeadlineExceeded.
type clientTimeout struct{}

func (clientTimeout) Error() string {
	return "context deadline exceeded (Client.Timeout exceeded while awaiting headers)"
}
func (clientTimeout) Timeout() bool        { return true }
func (clientTimeout) Is(target error) bool { return target == context.DeadlineExceeded }

func TestClassify_ClientTimeoutIsNetwork(t *testing.T) {
	e := Classify(clientTimeout{}, "claude")
	if e.Category != CategoryNetwork {
		t.Errorf("category = %s, want network", e.Category)
	}
	if !e.Retryable {
		t.Error("client timeouts must stay retryable")
	}
}

func TestClassify_DeadlineExceededIsNetwork(t *testing.T) {
	wrapped := fmt.Errorf("fetching usage: %w", context.DeadlineExceeded)
	e := Classify(wrapped, "")
	if e.Category != CategoryNetwork {
		t.Errorf("category = %s, want network", e.Category)
	}
	if !e.Retryable {
		t.Error("deadline errors must stay retryable")
	}
}

func TestClassify_Cancelled(t *testing.T) {
	e := Classify(context.Canceled, "")
	if e.Category != CategoryUnknown {
		t.Errorf("category = %s, want unknown", e.Category)
	}
	if e.Message != "cancelled" {
		t.Errorf("message = %q, want %q", e.Message, "cancelled")
	}
}

func TestClassify_FilePermission(t *testing.T) {
	wrapped := fmt.Errorf("reading credential: %w", fs.ErrPermission)
	e := Classify(wrapped, "claude")
	if e.Category != CategoryConfiguration {
		t.Errorf("category = %s, want configuration", e.Category)
	}
	if e.Severity != SeverityFatal {
		t.Errorf("severity = %s, want fatal", e.Severity)
	}
}

func TestClassify_FileNotExist(t *testing.T) {
	e := Classify(fs.ErrNotExist, "")
	if e.Category != CategoryConfiguration || e.Severity != SeverityRecoverable {
		t.Errorf("got %s/%s, want configuration/recoverable", e.Category, e.Severity)
	}
}

func TestClassify_UnknownPreservesType(t *testing.T) {
	e := Classify(errors.New("mystery"), "zai")
	if e.Category != CategoryUnknown {
		t.Errorf("category = %s, want unknown", e.Category)
	}
	if e.Details != "*errors.errorString" {
		t.Errorf("details = %q, want error type name", e.Details)
	}
}

func TestClassify_PassthroughKeepsClassification(t *testing.T) {
	orig := New(CategoryRateLimited, SeverityTransient, "", "slow down")
	e := Classify(fmt.Errorf("wrapped: %w", orig), "claude")
	if e.Category != CategoryRateLimited {
		t.Errorf("category = %s, want rate_limited", e.Category)
	}
	if e.Provider != "claude" {
		t.Errorf("provider = %q, want claude", e.Provider)
	}
}

func TestRemediation(t *testing.T) {
	if hint := Remediation("claude", CategoryAuthentication); hint == "" {
		t.Error("expected provider-specific auth remediation for claude")
	}
	if hint := Remediation("nobody", CategoryRateLimited); hint != genericRemediations[CategoryRateLimited] {
		t.Errorf("expected generic rate-limit hint, got %q", hint)
	}
	if hint := Remediation("nobody", CategoryUnknown); hint != "" {
		t.Errorf("expected empty hint for unknown category, got %q", hint)
	}
}

func TestErrorString(t *testing.T) {
	e := New(CategoryNetwork, SeverityTransient, "claude", "connection refused")
	if e.Error() != "claude: connection refused" {
		t.Errorf("Error() = %q", e.Error())
	}
	e2 := New(CategoryNetwork, SeverityTransient, "", "connection refused")
	if e2.Error() != "connection refused" {
		t.Errorf("Error() = %q", e2.Error())
	}
}
