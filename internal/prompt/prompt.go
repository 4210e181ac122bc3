// Package prompt wraps the interactive huh forms behind a small interface
// so commands can be tested with a scriptable mock.
package prompt

import (
	"github.com/charmbracelet/huh"
)

// InputConfig configures a single text input prompt.
type InputConfig struct {
	Title       string
	Description string
	Placeholder string
	Validate    func(string) error
	// Password masks the typed value, for credentials.
	Password bool
}

// ConfirmConfig configures a yes/no confirmation prompt.
type ConfirmConfig struct {
	Title       string
	Description string
	Default     bool
}

// Prompter is the interactive prompt surface commands depend on.
type Prompter interface {
	Input(cfg InputConfig) (string, error)
	Confirm(cfg ConfirmConfig) (bool, error)
}

// Default is the package-level prompter. Production code uses the huh
// implementation; tests swap in a Mock via SetDefault.
var Default Prompter = &Huh{}

func SetDefault(p Prompter) {
	Default = p
}

// Huh implements Prompter with charmbracelet/huh forms.
type Huh struct{}

func (h *Huh) Input(cfg InputConfig) (string, error) {
	var value string
	input := huh.NewInput().
		Title(cfg.Title).
		Value(&value)

	if cfg.Description != "" {
		input.Description(cfg.Description)
	}
	if cfg.Placeholder != "" {
		input.Placeholder(cfg.Placeholder)
	}
	if cfg.Validate != nil {
		input.Validate(cfg.Validate)
	}
	if cfg.Password {
		input.EchoMode(huh.EchoModePassword)
	}

	err := huh.NewForm(huh.NewGroup(input)).Run()
	return value, err
}

func (h *Huh) Confirm(cfg ConfirmConfig) (bool, error) {
	value := cfg.Default
	confirm := huh.NewConfirm().
		Title(cfg.Title).
		Value(&value)

	if cfg.Description != "" {
		confirm.Description(cfg.Description)
	}

	err := huh.NewForm(huh.NewGroup(confirm)).Run()
	return value, err
}
