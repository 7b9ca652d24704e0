package command

import (
	"fmt"
	"strings"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/types"
	"github.com/spf13/cobra"
)

// NewReactCmd creates the react command.
func NewReactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "react <emoji> <msg-id>",
		Short: "Toggle a reaction on a message",
		Long:  "Add a reaction as the configured user, or remove it when already present.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			emoji := strings.TrimSpace(args[0])
			if emoji == "" {
				return writeCommandError(cmd, fmt.Errorf("reaction is empty"))
			}
			msg, err := resolveMessage(ctx.Store(), args[1])
			if err != nil {
				return writeCommandError(cmd, err)
			}

			_, reactor := ctx.Author()
			next, err := ctx.Session.Update(func(store types.ChatStore) types.ChatStore {
				return core.ToggleReaction(store, msg.ID, emoji, reactor)
			})
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if err := finish(cmd, ctx); err != nil {
				return err
			}

			reactions := next.Messages[msg.ID].Reactions
			added := false
			for _, id := range reactions[emoji] {
				if id == reactor {
					added = true
				}
			}

			if ctx.JSONMode {
				return writeJSON(cmd, map[string]any{
					"message_id": msg.ID,
					"reaction":   emoji,
					"reactor":    reactor,
					"added":      added,
					"reactions":  reactions,
				})
			}
			verb := "Removed"
			if added {
				verb = "Reacted"
			}
			f := newFormatter(next)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s\n", verb, emoji, f.shortID(msg.ID))
			return nil
		},
	}

	return cmd
}
