// Package apierr classifies fetch failures into a closed set of categories
// and severities so the pipeline, gate, and renderer can act on them
// uniformly.
package apierr

import (
	"time"
)

type Category string

const (
	CategoryAuthentication Category = "authentication"
	CategoryAuthorization  Category = "authorization"
	CategoryRateLimited    Category = "rate_limited"
	CategoryNetwork        Category = "network"
	CategoryProvider       Category = "provider"
	CategoryParse          Category = "parse"
	CategoryConfiguration  Category = "configuration"
	CategoryNotFound       Category = "not_found"
	CategoryUnknown        Category = "unknown"
)

type Severity string

const (
	SeverityFatal       Severity = "fatal"
	SeverityRecoverable Severity = "recoverable"
	SeverityTransient   Severity = "transient"
	SeverityWarning     Severity = "warning"
)

// Error is a classified failure. It is a value carried through outcomes
// rather than a sentinel to compare against.
type Error struct {
	Category    Category  `json:"category"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`
	Provider    string    `json:"provider,omitempty"`
	Remediation string    `json:"remediation,omitempty"`
	Details     string    `json:"details,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Retryable   bool      `json:"-"`
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return e.Provider + ": " + e.Message
	}
	return e.Message
}

// New builds a classified error stamped with the current time and the
// remediation hint for the provider/category pair.
func New(category Category, severity Severity, provider, message string) *Error {
	return &Error{
		Category:    category,
		Severity:    severity,
		Message:     message,
		Provider:    provider,
		Remediation: Remediation(provider, category),
		Timestamp:   time.Now().UTC(),
	}
}

// IsFatal reports whether the error should stop the whole fetch for its
// provider rather than fall through to another strategy.
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityFatal
}
