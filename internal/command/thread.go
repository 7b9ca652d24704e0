package command

import (
	"fmt"
	"strings"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/types"
	"github.com/spf13/cobra"
)

// NewThreadCmd creates the thread command.
func NewThreadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thread <msg-id>",
		Short: "Show the thread below a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			store := ctx.Store()
			msg, err := resolveMessage(store, args[0])
			if err != nil {
				return writeCommandError(cmd, err)
			}
			thread, ok := core.ThreadAt(store, msg.ID)
			if !ok {
				return writeCommandError(cmd, fmt.Errorf("%w: %s", core.ErrMessageNotFound, args[0]))
			}

			if ctx.JSONMode {
				return writeJSON(cmd, thread)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s · %s\n\n", formatLocation(msg.Location), pluralize(core.CountThreadMessages(*thread), "message"))
			fmt.Fprint(out, newFormatter(store).renderThreads([]types.Thread{*thread}))
			return nil
		},
	}

	return cmd
}

type locationThreads struct {
	Location types.Location        `json:"path"`
	Threads  []types.Thread        `json:"threads"`
	Children []types.ChildLocation `json:"children,omitempty"`
}

// NewThreadsCmd creates the threads command.
func NewThreadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads <path>",
		Short: "Show the threads attached to a file or folder",
		Long: "Show the threads attached to a file or folder. For folders, threads of the\n" +
			"locations directly inside it are shown too (view.show_child_threads).",
		Args: cobra.ExactArgs(1),
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

			showChildren := ctx.Settings.View.ShowChildThreads
			if cmd.Flags().Changed("children") {
				showChildren, _ = cmd.Flags().GetBool("children")
			}

			store := ctx.Store()
			result := locationThreads{
				Location: loc,
				Threads:  core.ThreadsAt(store, loc),
			}
			if showChildren && loc.Kind == types.LocationFolder {
				result.Children = visibleChildren(ctx, core.ChildLocationsOf(store, loc.Path))
			}

			if ctx.JSONMode {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			f := newFormatter(store)
			fmt.Fprintf(out, "%s · %s\n", formatLocation(loc), pluralize(len(result.Threads), "thread"))
			if len(result.Threads) > 0 {
				fmt.Fprintln(out)
				fmt.Fprint(out, f.renderThreads(result.Threads))
			}
			for _, child := range result.Children {
				fmt.Fprintf(out, "\n%s · %s\n", formatLocation(child.Location), pluralize(len(child.Threads), "thread"))
				if len(child.Threads) > 0 {
					fmt.Fprint(out, indentBlock(f.renderThreads(child.Threads), "  "))
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("folder", false, "treat the path as a folder")
	cmd.Flags().Bool("children", true, "include threads of locations directly inside a folder")

	return cmd
}

// NewChildrenCmd creates the children command.
func NewChildrenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "children [folder]",
		Short: "List the locations directly inside a folder that have threads",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			folderPath := core.RootFolderPath
			if len(args) == 1 {
				loc, err := resolveLocation(ctx, args[0], true)
				if err != nil {
					return writeCommandError(cmd, err)
				}
				folderPath = loc.Path
			}

			children := visibleChildren(ctx, core.ChildLocationsOf(ctx.Store(), folderPath))
			if ctx.JSONMode {
				if children == nil {
					children = []types.ChildLocation{}
				}
				return writeJSON(cmd, children)
			}

			out := cmd.OutOrStdout()
			if len(children) == 0 {
				fmt.Fprintln(out, "No threads below this folder")
				return nil
			}
			for _, child := range children {
				fmt.Fprintf(out, "%s  %s\n", formatLocation(child.Location), pluralize(len(child.Threads), "thread"))
			}
			return nil
		},
	}

	return cmd
}

// visibleChildren drops locations without threads when view.hide_empty is set.
// A location can have messages but no threads when all of them are replies.
func visibleChildren(ctx *CommandContext, children []types.ChildLocation) []types.ChildLocation {
	if !ctx.Settings.View.HideEmpty {
		return children
	}
	var visible []types.ChildLocation
	for _, child := range children {
		if len(child.Threads) > 0 {
			visible = append(visible, child)
		}
	}
	return visible
}

func indentBlock(text, indent string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
