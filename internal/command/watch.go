package command

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/adamavenir/threadchat/internal/daemon"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow file and folder renames in the vault",
		Long: "Watch the vault and move chat messages when notes or folders are renamed.\n" +
			"Deleting a note leaves its messages in place.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			watcher := daemon.NewWatcher(ctx.Vault, ctx.Session, ctx.Settings.Watch.PairWindow())
			watcher.OnMigrate = func(m daemon.Migration) {
				if ctx.JSONMode {
					_ = writeJSON(cmd, map[string]any{"from": m.From, "to": m.To})
					return
				}
				fmt.Fprintf(out, "%s → %s\n", formatLocation(m.From), formatLocation(m.To))
			}

			if !ctx.JSONMode {
				fmt.Fprintf(out, "--- watching %s (Ctrl+C to stop) ---\n", ctx.Vault.Root)
			}
			if err := watcher.Run(runCtx); err != nil {
				return writeCommandError(cmd, err)
			}
			return finish(cmd, ctx)
		},
	}

	return cmd
}
