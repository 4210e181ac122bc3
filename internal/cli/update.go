package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/vibeusage/internal/display"
	"github.com/joshuadavidthomas/vibeusage/internal/prompt"
	"github.com/joshuadavidthomas/vibeusage/internal/updater"
)

var (
	updateCheckOnly bool
	updateYes       bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for updates and install newer releases",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdate(cmd.Context())
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "Check for updates without installing")
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "Install update without interactive confirmation")
}

func runUpdate(ctx context.Context) error {
	u := updater.New()

	check, err := u.Check(ctx, version)
	if err != nil {
		return fmt.Errorf("checking for updates: %w", err)
	}

	if updateCheckOnly || !check.UpdateAvailable {
		return outputUpdateCheck(check)
	}

	if jsonOutput && !updateYes {
		return fmt.Errorf("--json update install requires --yes to avoid interactive prompts")
	}

	if !updateYes {
		confirmed, err := confirmUpdate(check)
		if err != nil {
			return err
		}
		if !confirmed {
			outln("Update canceled")
			return nil
		}
	}

	apply, err := u.Apply(ctx, check)
	if err != nil {
		return fmt.Errorf("applying update: %w", err)
	}

	if jsonOutput {
		return display.WriteJSON(outWriter, display.UpdateStatusJSON{
			CurrentVersion:  check.CurrentVersion,
			LatestVersion:   check.LatestVersion,
			UpdateAvailable: check.UpdateAvailable,
			Asset:           check.AssetName,
			Applied:         apply.Updated,
		})
	}

	out("✓ Updated vibeusage %s → %s\n", apply.OldVersion, apply.NewVersion)
	return nil
}

func outputUpdateCheck(check updater.CheckResult) error {
	if jsonOutput {
		return display.WriteJSON(outWriter, display.UpdateStatusJSON{
			CurrentVersion:  check.CurrentVersion,
			LatestVersion:   check.LatestVersion,
			UpdateAvailable: check.UpdateAvailable,
			Asset:           check.AssetName,
		})
	}

	if check.UpdateAvailable {
		out("Update available: %s → %s\n", check.CurrentVersion, check.LatestVersion)
		out("Run `vibeusage update --yes` to install.\n")
		return nil
	}

	out("vibeusage is up to date (%s)\n", check.CurrentVersion)
	return nil
}

func confirmUpdate(check updater.CheckResult) (bool, error) {
	if !display.IsTTY() {
		return false, fmt.Errorf("interactive confirmation required; rerun with --yes")
	}

	return prompt.Default.Confirm(prompt.ConfirmConfig{
		Title:       fmt.Sprintf("Install update %s → %s?", check.CurrentVersion, check.LatestVersion),
		Description: "The binary will be replaced in place.",
	})
}
