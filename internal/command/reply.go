package command

import (
	"fmt"
	"strings"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/types"
	"github.com/spf13/cobra"
)

// NewReplyCmd creates the reply command.
func NewReplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reply <msg-id> <text...>",
		Short: "Reply to a message",
		Long:  "Reply to a message. The reply is attached to the parent's location unless --at is given.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			parent, err := resolveMessage(ctx.Store(), args[0])
			if err != nil {
				return writeCommandError(cmd, err)
			}

			loc := parent.Location
			if at, _ := cmd.Flags().GetString("at"); at != "" {
				folder, _ := cmd.Flags().GetBool("folder")
				loc, err = resolveLocation(ctx, at, folder)
				if err != nil {
					return writeCommandError(cmd, err)
				}
			}

			parentID := parent.ID
			msg, err := newMessage(ctx, strings.Join(args[1:], " "), loc, &parentID)
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
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] replied to %s\n", f.shortID(msg.ID), f.shortID(parent.ID))
			return nil
		},
	}

	cmd.Flags().String("at", "", "attach the reply to another path")
	cmd.Flags().Bool("folder", false, "treat --at as a folder")

	return cmd
}
