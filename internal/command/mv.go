package command

import (
	"fmt"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/types"
	"github.com/spf13/cobra"
)

// NewMvCmd creates the mv command.
func NewMvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mv <old-path> <new-path>",
		Short: "Move messages after a file or folder was renamed",
		Long: "Move the messages of a renamed location to its new path. Folder moves also\n" +
			"carry the messages of everything inside the folder. Files are not touched.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			folder, _ := cmd.Flags().GetBool("folder")
			// The old path usually no longer exists, so its kind comes from the
			// new path unless --folder says otherwise.
			to, err := resolveLocation(ctx, args[1], folder)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			from, err := resolveLocation(ctx, args[0], folder || to.Kind == types.LocationFolder)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if from.Path == core.RootFolderPath || to.Path == core.RootFolderPath {
				return writeCommandError(cmd, fmt.Errorf("the vault root cannot be moved"))
			}

			before := ctx.Store()
			next, err := ctx.Session.Update(func(store types.ChatStore) types.ChatStore {
				if from.Kind == types.LocationFolder {
					return core.MigrateFolderTree(store, from.Path, to.Path)
				}
				return core.MigrateLocation(store, from, to)
			})
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if err := finish(cmd, ctx); err != nil {
				return err
			}

			moved := movedCount(before, next)
			if ctx.JSONMode {
				return writeJSON(cmd, map[string]any{
					"from":  from,
					"to":    to,
					"moved": moved,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s from %s to %s\n",
				pluralize(moved, "message"), formatLocation(from), formatLocation(to))
			return nil
		},
	}

	cmd.Flags().Bool("folder", false, "treat both paths as folders")

	return cmd
}

func movedCount(before, after types.ChatStore) int {
	count := 0
	for id, msg := range after.Messages {
		if prev, ok := before.Messages[id]; ok && prev.Location != msg.Location {
			count++
		}
	}
	return count
}
