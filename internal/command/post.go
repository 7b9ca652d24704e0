package command

import (
	"fmt"
	"strings"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/types"
	"github.com/spf13/cobra"
)

// NewPostCmd creates the post command.
func NewPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post <path> <text...>",
		Short: "Start a thread on a file or folder",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			folder, _ := cmd.Flags().GetBool("folder")
			loc, err := resolveLocation(ctx, args[0], folder)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			msg, err := newMessage(ctx, strings.Join(args[1:], " "), loc, nil)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if _, err := ctx.Session.Update(func(store types.ChatStore) types.ChatStore {
				return core.AddMessage(store, msg)
			}); err != nil {
				return writeCommandError(cmd, err)
			}
			if err := finish(cmd, ctx); err != nil {
				return err
			}

			if ctx.JSONMode {
				return writeJSON(cmd, msg)
			}
			f := newFormatter(ctx.Store())
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] posted to %s\n", f.shortID(msg.ID), formatLocation(loc))
			return nil
		},
	}

	cmd.Flags().Bool("folder", false, "treat the path as a folder")

	return cmd
}
