package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/display"
	"github.com/joshuadavidthomas/vibeusage/internal/prompt"
	"github.com/joshuadavidthomas/vibeusage/internal/provider"
)

var authCmd = &cobra.Command{
	Use:   "auth [provider]",
	Short: "Authenticate with a provider or show auth status",
	RunE: func(cmd *cobra.Command, args []string) error {
		statusOnly, _ := cmd.Flags().GetBool("status")
		if statusOnly || len(args) == 0 {
			return authStatusCommand()
		}

		providerID := args[0]
		p, ok := provider.Get(providerID)
		if !ok {
			return fmt.Errorf("unknown provider: %s. Available: %s",
				providerID, strings.Join(provider.ListIDs(), ", "))
		}
		return authProvider(providerID, p)
	},
}

func init() {
	authCmd.Flags().Bool("status", false, "Show authentication status")
}

type authEntry struct {
	providerID string
	hasCreds   bool
	source     config.CredentialSource
}

func authStatusCommand() error {
	var entries []authEntry
	for _, pid := range provider.ListIDs() {
		hasCreds, source := provider.CheckCredentials(pid)
		entries = append(entries, authEntry{pid, hasCreds, source})
	}

	switch {
	case jsonOutput:
		data := make(map[string]display.AuthStatusEntryJSON, len(entries))
		for _, e := range entries {
			data[e.providerID] = display.AuthStatusEntryJSON{
				Authenticated: e.hasCreds,
				Source:        sourceToLabel(e.source),
			}
		}
		return display.WriteJSON(outWriter, data)

	case quiet:
		for _, e := range entries {
			status := "not configured"
			if e.hasCreds {
				status = "authenticated"
			}
			out("%s: %s\n", e.providerID, status)
		}
		return nil
	}

	var rows [][]string
	var unconfigured []string
	for _, e := range entries {
		if e.hasCreds {
			rows = append(rows, []string{e.providerID, "✓ Authenticated", sourceToLabel(e.source)})
			continue
		}
		rows = append(rows, []string{e.providerID, "✗ Not configured", "—"})
		unconfigured = append(unconfigured, e.providerID)
	}

	outln(display.NewTable("Authentication Status", []string{"Provider", "Status", "Source"}, rows))

	if len(unconfigured) > 0 {
		outln()
		outln("To configure a provider, run:")
		for _, pid := range unconfigured {
			out("  vibeusage auth %s\n", pid)
		}
	}
	return nil
}

// authProvider runs the provider's declared auth flow. On success the
// provider is added to enabled_providers so only explicitly authed
// providers are tracked.
func authProvider(providerID string, p provider.Provider) error {
	auth, ok := p.(provider.Authenticator)
	if !ok {
		return authGeneric(providerID)
	}

	if err := authManualKey(providerID, auth.Auth()); err != nil {
		return err
	}
	enableProvider(providerID)
	return nil
}

// enableProvider adds a provider to the enabled_providers list in config,
// making provider tracking opt-in via the auth command.
func enableProvider(providerID string) {
	cfg, err := config.Load("")
	if err != nil {
		return
	}
	for _, id := range cfg.EnabledProviders {
		if id == providerID {
			return
		}
	}
	cfg.EnabledProviders = append(cfg.EnabledProviders, providerID)
	sort.Strings(cfg.EnabledProviders)
	if err := config.Save(cfg, ""); err != nil {
		return
	}
	_, _ = config.Reload()
}

// authManualKey runs an interactive manual-credential flow.
func authManualKey(providerID string, flow provider.ManualKeyAuthFlow) error {
	hasCreds, source := provider.CheckCredentials(providerID)
	if hasCreds && !quiet {
		out("✓ %s credentials detected (%s)\n",
			provider.DisplayName(providerID), sourceToLabel(source))

		useExisting, err := prompt.Default.Confirm(prompt.ConfirmConfig{
			Title:   "Use detected credentials?",
			Default: true,
		})
		if err != nil {
			return err
		}
		if useExisting {
			return nil
		}
	}

	if !quiet {
		out("%s Authentication\n\n", provider.DisplayName(providerID))
		outln(flow.Instructions)
		outln()
	}

	value, err := prompt.Default.Input(prompt.InputConfig{
		Title:       "Credential",
		Placeholder: flow.Placeholder,
		Validate:    flow.Validate,
		Password:    true,
	})
	if err != nil {
		return err
	}

	if err := flow.Save(value); err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}

	if !quiet {
		out("✓ %s credential saved\n", provider.DisplayName(providerID))
	}
	return nil
}

// authGeneric handles providers without a declared auth flow: report
// detected credentials, or point at the raw key command.
func authGeneric(providerID string) error {
	hasCreds, source := provider.CheckCredentials(providerID)
	if quiet {
		return nil
	}

	name := provider.DisplayName(providerID)
	if hasCreds {
		out("✓ %s is already authenticated (%s)\n", name, sourceToLabel(source))
		return nil
	}

	out("%s Authentication\n\n", name)
	outln("Set credentials manually:")
	out("  vibeusage key %s set\n", providerID)
	return nil
}

func sourceToLabel(source config.CredentialSource) string {
	switch source {
	case config.SourceVibeusage:
		return "vibeusage storage"
	case config.SourceForeign:
		return "provider CLI"
	case config.SourceEnv:
		return "environment variable"
	default:
		return string(source)
	}
}
