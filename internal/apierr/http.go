package apierr

// StatusRule describes how the transport and pipeline should treat an HTTP
// status code: whether to retry inside the transport, whether the pipeline
// may fall through to the next strategy, and whether Retry-After applies.
type StatusRule struct {
	Category      Category
	Severity      Severity
	Retryable     bool
	AllowFallback bool
	RetryAfter    bool
}

// ClassifyStatus maps an HTTP status code to its handling rule.
func ClassifyStatus(code int) StatusRule {
	switch code {
	case 401:
		return StatusRule{CategoryAuthentication, SeverityRecoverable, false, true, false}
	case 403:
		return StatusRule{CategoryAuthorization, SeverityRecoverable, false, true, false}
	case 404:
		return StatusRule{CategoryNotFound, SeverityRecoverable, false, true, false}
	case 429:
		return StatusRule{CategoryRateLimited, SeverityTransient, true, false, true}
	case 500, 502, 503, 504:
		return StatusRule{CategoryProvider, SeverityTransient, true, true, false}
	}
	switch {
	case code >= 500:
		return StatusRule{CategoryProvider, SeverityTransient, true, true, false}
	case code >= 400:
		return StatusRule{CategoryUnknown, SeverityRecoverable, false, true, false}
	default:
		return StatusRule{CategoryUnknown, SeverityRecoverable, false, true, false}
	}
}

// RetryableStatus reports whether the transport retries the given code.
func RetryableStatus(code int) bool {
	return ClassifyStatus(code).Retryable
}

// FromStatus builds a classified error for an HTTP status code.
func FromStatus(code int, provider, message string) *Error {
	rule := ClassifyStatus(code)
	e := New(rule.Category, rule.Severity, provider, message)
	e.Retryable = rule.Retryable
	return e
}
