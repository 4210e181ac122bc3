package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/display"
	"github.com/joshuadavidthomas/vibeusage/internal/prompt"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		cfgPath := config.ConfigFile()

		switch {
		case jsonOutput:
			return display.WriteJSON(outWriter, struct {
				config.Config
				Path string `json:"path"`
			}{cfg, cfgPath})
		case quiet:
			outln(cfgPath)
			return nil
		}

		out("Config: %s\n\n", cfgPath)
		return toml.NewEncoder(outWriter).Encode(cfg)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show directory paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		showCache, _ := cmd.Flags().GetBool("cache")
		showCreds, _ := cmd.Flags().GetBool("credentials")

		// Single-directory forms print bare paths for shell substitution.
		if showCache {
			return printPath("cache_dir", config.CacheDir())
		}
		if showCreds {
			return printPath("credentials_dir", config.CredentialsDir())
		}

		if jsonOutput {
			return display.WriteJSON(outWriter, map[string]string{
				"config_dir":      config.ConfigDir(),
				"config_file":     config.ConfigFile(),
				"cache_dir":       config.CacheDir(),
				"state_dir":       config.StateDir(),
				"credentials_dir": config.CredentialsDir(),
			})
		}
		if quiet {
			outln(config.ConfigDir())
			return nil
		}

		labeled := [][2]string{
			{"Config dir", config.ConfigDir()},
			{"Config file", config.ConfigFile()},
			{"Cache dir", config.CacheDir()},
			{"State dir", config.StateDir()},
			{"Credentials", config.CredentialsDir()},
		}
		for _, kv := range labeled {
			out("%-14s %s\n", kv[0]+":", kv[1])
		}
		return nil
	},
}

func printPath(jsonKey, dir string) error {
	if jsonOutput {
		return display.WriteJSON(outWriter, map[string]string{jsonKey: dir})
	}
	outln(dir)
	return nil
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset configuration to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmed, _ := cmd.Flags().GetBool("confirm")
		if !confirmed && !jsonOutput {
			ok, err := prompt.Default.Confirm(prompt.ConfirmConfig{
				Title: "Reset configuration to defaults?",
			})
			if err != nil {
				return err
			}
			if !ok {
				outln("Reset cancelled")
				return nil
			}
		}

		if err := os.Remove(config.ConfigFile()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("resetting config: %w", err)
		}
		_, _ = config.Reload()

		if jsonOutput {
			return display.WriteJSON(outWriter, display.ActionResultJSON{
				Success: true,
				Message: "Configuration reset to defaults",
			})
		}
		outln("✓ Configuration reset to defaults")
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in editor",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath := config.ConfigFile()

		// Seed a default file so the editor has something to start from.
		_ = os.MkdirAll(config.ConfigDir(), 0o755)
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			_ = config.Save(config.DefaultConfig(), cfgPath)
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		edit := exec.Command(editor, cfgPath)
		edit.Stdin = os.Stdin
		edit.Stdout = os.Stdout
		edit.Stderr = os.Stderr
		return edit.Run()
	},
}

func init() {
	configPathCmd.Flags().BoolP("cache", "c", false, "Show cache directory")
	configPathCmd.Flags().Bool("credentials", false, "Show credentials directory")
	configResetCmd.Flags().BoolP("confirm", "y", false, "Skip confirmation")

	configCmd.AddCommand(configShowCmd, configPathCmd, configResetCmd, configEditCmd)
}
