package command

import (
	"fmt"
	"strconv"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/spf13/cobra"
)

type settingEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [key]",
		Short: "Show effective settings",
		Long: "Show the effective settings after defaults, the settings file and\n" +
			"THREADCHAT_* environment variables are applied.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			entries := settingEntries(ctx.Settings)
			if len(args) == 1 {
				for _, entry := range entries {
					if entry.Key == args[0] {
						if ctx.JSONMode {
							return writeJSON(cmd, entry)
						}
						fmt.Fprintln(cmd.OutOrStdout(), entry.Value)
						return nil
					}
				}
				return writeCommandError(cmd, fmt.Errorf("unknown setting: %s", args[0]))
			}

			if ctx.JSONMode {
				return writeJSON(cmd, ctx.Settings)
			}
			out := cmd.OutOrStdout()
			source := ctx.Settings.Source
			if source == "" {
				source = "defaults"
			}
			fmt.Fprintf(out, "Settings (%s):\n", source)
			for _, entry := range entries {
				fmt.Fprintf(out, "  %s = %s\n", entry.Key, entry.Value)
			}
			fmt.Fprintf(out, "Data: %s\n", ctx.Storage.Path())
			return nil
		},
	}

	return cmd
}

func settingEntries(s core.Settings) []settingEntry {
	return []settingEntry{
		{"user.name", s.User.Name},
		{"user.id", s.User.ID},
		{"storage.location", string(s.Storage.Location)},
		{"view.auto_show", strconv.FormatBool(s.View.AutoShow)},
		{"view.hide_empty", strconv.FormatBool(s.View.HideEmpty)},
		{"view.show_child_threads", strconv.FormatBool(s.View.ShowChildThreads)},
		{"watch.pair_window_ms", strconv.Itoa(s.Watch.PairWindowMS)},
		{"debug", strconv.FormatBool(s.Debug)},
	}
}
