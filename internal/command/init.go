package command

import (
	"fmt"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/spf13/cobra"
)

type initResult struct {
	Path         string `json:"path"`
	PluginDir    string `json:"plugin_dir"`
	SettingsFile string `json:"settings_file,omitempty"`
}

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Mark a directory as a vault",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonMode, _ := cmd.Flags().GetBool("json")
			withSettings, _ := cmd.Flags().GetBool("settings")

			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			vault, err := core.InitVault(dir)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			result := initResult{Path: vault.Root, PluginDir: vault.PluginDir()}
			if withSettings {
				if err := core.InitSettingsFile(vault.ConfigPath()); err != nil {
					return writeCommandError(cmd, err)
				}
				result.SettingsFile = vault.ConfigPath()
			}

			if jsonMode {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Initialized vault at %s\n", vault.Root)
			if result.SettingsFile != "" {
				fmt.Fprintf(out, "Wrote settings to %s\n", result.SettingsFile)
			}
			return nil
		},
	}

	cmd.Flags().Bool("settings", false, "also write a commented .threadchat.toml")

	return cmd
}
