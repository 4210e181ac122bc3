package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ManualKeyAuthFlow describes an auth flow where the user manually provides
// a credential (session key, API key, etc.). The cmd layer drives the
// interactive prompt from these fields.
type ManualKeyAuthFlow struct {
	// Instructions is the text shown to the user explaining how to get the key.
	Instructions string
	// Placeholder is shown in the input prompt (e.g. "sk-ant-sid01-...").
	Placeholder string
	// Validate checks the user's input before saving.
	Validate func(string) error
	// Save persists the credential.
	Save func(value string) error
}

// Authenticator is an optional interface providers implement to declare
// their auth flow. Providers without it get a generic credential prompt.
type Authenticator interface {
	Auth() ManualKeyAuthFlow
}

// ValidateNotEmpty rejects empty or whitespace-only values.
func ValidateNotEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value cannot be empty")
	}
	return nil
}

// ValidatePrefix returns a validator that rejects empty values and values
// that don't start with the given prefix after trimming whitespace.
func ValidatePrefix(prefix string) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return errors.New("value cannot be empty")
		}
		if !strings.HasPrefix(s, prefix) {
			return fmt.Errorf("must start with %s", prefix)
		}
		return nil
	}
}

// ValidateAnyPrefix returns a validator that accepts values starting with
// any one of the provided prefixes.
func ValidateAnyPrefix(prefixes ...string) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return errors.New("value cannot be empty")
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(s, prefix) {
				return nil
			}
		}
		return fmt.Errorf("must start with one of: %s", strings.Join(prefixes, ", "))
	}
}
