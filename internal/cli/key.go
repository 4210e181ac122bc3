package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/vibeusage/internal/cache"
	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/display"
	"github.com/joshuadavidthomas/vibeusage/internal/prompt"
	"github.com/joshuadavidthomas/vibeusage/internal/provider"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage credentials for providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return displayAllCredentialStatus()
	},
}

// keyStorage maps each provider to the credential file it reads when the
// user sets a raw credential, and the JSON field the provider's
// loadCredentials expects inside it.
var keyStorage = map[string]struct{ credType, jsonKey string }{
	"claude":     {"session", "session_key"},
	"codex":      {"oauth", "access_token"},
	"copilot":    {"oauth", "access_token"},
	"openrouter": {"apikey", "api_key"},
}

func init() {
	ids := make([]string, 0, len(keyStorage))
	for id := range keyStorage {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		keyCmd.AddCommand(makeKeyProviderCmd(id))
	}
}

func displayAllCredentialStatus() error {
	allStatus := provider.AllCredentialStatus()

	if jsonOutput {
		data := make(map[string]display.AuthStatusEntryJSON)
		for pid, info := range allStatus {
			data[pid] = display.AuthStatusEntryJSON{
				Authenticated: info.HasCredentials,
				Source:        sourceToLabel(info.Source),
			}
		}
		return display.WriteJSON(outWriter, data)
	}

	ids := make([]string, 0, len(allStatus))
	for id := range allStatus {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if quiet {
		for _, pid := range ids {
			status := "not configured"
			if allStatus[pid].HasCredentials {
				status = "configured"
			}
			out("%s: %s\n", pid, status)
		}
		return nil
	}

	var rows [][]string
	for _, pid := range ids {
		info := allStatus[pid]
		status := "✗ Not configured"
		srcLabel := "—"
		if info.HasCredentials {
			status = "✓ Configured"
			srcLabel = sourceToLabel(info.Source)
		}
		rows = append(rows, []string{pid, status, srcLabel})
	}

	outln(display.NewTable("Credential Status", []string{"Provider", "Status", "Source"}, rows))

	outln()
	outln("Set credentials with:")
	outln("  vibeusage key <provider> set")
	return nil
}

func makeKeyProviderCmd(providerID string) *cobra.Command {
	storage := keyStorage[providerID]
	titleName := provider.DisplayName(providerID)

	provCmd := &cobra.Command{
		Use:   providerID,
		Short: fmt.Sprintf("Manage %s credentials", titleName),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showKeyDetail(providerID, titleName)
		},
	}

	setCmd := &cobra.Command{
		Use:   "set [value]",
		Short: "Set a credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := credentialFromArgsOrPrompt(args, titleName, storage.credType)
			if err != nil {
				return err
			}

			credData, _ := json.Marshal(map[string]string{storage.jsonKey: value})
			path := config.CredentialPath(providerID, storage.credType)
			if err := config.WriteCredential(path, credData); err != nil {
				return fmt.Errorf("saving credential: %w", err)
			}

			// Old cache entries belong to the previous account.
			cache.ClearProvider(providerID)
			out("✓ Credential saved for %s\n", providerID)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				ok, err := prompt.Default.Confirm(prompt.ConfirmConfig{
					Title: fmt.Sprintf("Delete %s %s credential?", titleName, storage.credType),
				})
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			path := config.CredentialPath(providerID, storage.credType)
			if config.DeleteCredential(path) {
				out("✓ Deleted %s credential for %s\n", storage.credType, providerID)
			} else {
				out("No %s credential found for %s\n", storage.credType, providerID)
			}
			return nil
		},
	}
	deleteCmd.Flags().BoolP("force", "f", false, "Skip confirmation")

	provCmd.AddCommand(setCmd)
	provCmd.AddCommand(deleteCmd)
	return provCmd
}

func showKeyDetail(providerID, titleName string) error {
	found, source, path := provider.FindCredential(providerID)

	if jsonOutput {
		return display.WriteJSON(outWriter, display.KeyDetailJSON{
			Provider:   providerID,
			Configured: found,
			Source:     sourceToLabel(source),
			Path:       path,
		})
	}

	if !found {
		out("✗ %s credentials not configured\n", titleName)
		out("\nRun 'vibeusage key %s set' to configure\n", providerID)
		return nil
	}

	out("✓ %s credentials configured (%s)\n", titleName, sourceToLabel(source))
	if path != "" {
		out("  Location: %s\n", path)
	}
	return nil
}

// credentialFromArgsOrPrompt takes the credential from the command line
// when given, otherwise prompts with masked input.
func credentialFromArgsOrPrompt(args []string, titleName, credType string) (string, error) {
	var value string
	if len(args) > 0 {
		value = args[0]
	} else {
		var err error
		value, err = prompt.Default.Input(prompt.InputConfig{
			Title:       fmt.Sprintf("%s %s credential", titleName, credType),
			Placeholder: "paste credential here",
			Validate:    provider.ValidateNotEmpty,
			Password:    true,
		})
		if err != nil {
			return "", err
		}
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("credential cannot be empty")
	}
	return value, nil
}
