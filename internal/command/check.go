package command

import (
	"fmt"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/types"
	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report integrity problems in the chat data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			issues := core.Check(ctx.Store())
			if ctx.JSONMode {
				if issues == nil {
					issues = []types.Issue{}
				}
				return writeJSON(cmd, issues)
			}

			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintln(out, "No problems found")
				return nil
			}
			for _, issue := range issues {
				target := issue.MessageID
				if issue.Key != "" {
					target = fmt.Sprintf("%s @ %s", issue.MessageID, issue.Key)
				}
				fmt.Fprintf(out, "%-17s %s: %s\n", issue.Kind, target, issue.Detail)
			}
			fmt.Fprintf(out, "\n%s. Run 'threadchat rebuild' to repair the index.\n", pluralize(len(issues), "problem"))
			return nil
		},
	}

	return cmd
}
