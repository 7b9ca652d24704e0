package command

import (
	"fmt"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/types"
	"github.com/spf13/cobra"
)

// NewRebuildCmd creates the rebuild command.
func NewRebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the location index from the message table",
		Long: "Rebuild the location index from the message table and normalize reactions.\n" +
			"Orphaned replies and reply cycles are reported but left in place.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			before := len(core.Check(ctx.Store()))
			next, err := ctx.Session.Update(core.Reindex)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if err := finish(cmd, ctx); err != nil {
				return err
			}
			remaining := core.Check(next)

			if ctx.JSONMode {
				if remaining == nil {
					remaining = []types.Issue{}
				}
				return writeJSON(cmd, map[string]any{
					"fixed":     before - len(remaining),
					"remaining": remaining,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rebuilt index: %s across %s\n",
				pluralize(len(next.Messages), "message"), pluralize(len(next.PathIndex), "location"))
			if len(remaining) > 0 {
				fmt.Fprintf(out, "%s remain (see 'threadchat check')\n", pluralize(len(remaining), "problem"))
			}
			return nil
		},
	}

	return cmd
}
