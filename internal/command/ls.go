package command

import (
	"fmt"
	"sort"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/types"
	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
)

type locationSummary struct {
	Location types.Location `json:"path"`
	Messages int            `json:"messages"`
	Threads  int            `json:"threads"`
	Latest   int64          `json:"latest"`
}

// NewLsCmd creates the ls command.
func NewLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List locations that have messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			var matcher glob.Glob
			if pattern, _ := cmd.Flags().GetString("match"); pattern != "" {
				matcher, err = glob.Compile(pattern, '/')
				if err != nil {
					return writeCommandError(cmd, fmt.Errorf("invalid pattern %q: %w", pattern, err))
				}
			}

			summaries := summarizeLocations(ctx.Store(), matcher)
			if ctx.JSONMode {
				return writeJSON(cmd, summaries)
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No messages")
				return nil
			}
			for _, s := range summaries {
				fmt.Fprintf(out, "%s  %s, %s\n", formatLocation(s.Location),
					pluralize(s.Threads, "thread"), pluralize(s.Messages, "message"))
			}
			return nil
		},
	}

	cmd.Flags().String("match", "", "only list paths matching a glob (e.g. 'projects/**')")

	return cmd
}

func summarizeLocations(store types.ChatStore, matcher glob.Glob) []locationSummary {
	summaries := []locationSummary{}
	for key := range store.PathIndex {
		loc, ok := core.ParsePathKey(key)
		if !ok {
			continue
		}
		if matcher != nil && !matcher.Match(loc.Path) {
			continue
		}
		messages := core.MessagesAt(store, loc)
		if len(messages) == 0 {
			continue
		}
		summary := locationSummary{Location: loc, Messages: len(messages)}
		for _, msg := range messages {
			if msg.IsRoot() {
				summary.Threads++
			}
			if msg.CreatedAt > summary.Latest {
				summary.Latest = msg.CreatedAt
			}
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Location.Path != summaries[j].Location.Path {
			return summaries[i].Location.Path < summaries[j].Location.Path
		}
		return summaries[i].Location.Kind < summaries[j].Location.Kind
	})
	return summaries
}
