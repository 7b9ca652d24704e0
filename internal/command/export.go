package command

import (
	"fmt"
	"os"

	"github.com/adamavenir/threadchat/internal/db"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup of the chat data",
		Long: "Write a backup of the chat data. JSON backups use the same shape as the\n" +
			"stored document; SQLite exports hold tc_messages, tc_reactions and tc_path_index.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			format, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("out")

			path, err := db.Export(ctx.Store(), db.ExportFormat(format), ctx.Vault.Root, outPath, nowFunc())
			if err != nil {
				return writeCommandError(cmd, err)
			}

			var size uint64
			if info, err := os.Stat(path); err == nil {
				size = uint64(info.Size())
			}
			if ctx.JSONMode {
				return writeJSON(cmd, map[string]any{
					"path":     path,
					"format":   format,
					"bytes":    size,
					"messages": len(ctx.Store().Messages),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s (%s)\n",
				pluralize(len(ctx.Store().Messages), "message"), path, humanize.Bytes(size))
			return nil
		},
	}

	cmd.Flags().String("format", string(db.ExportJSON), "json or sqlite")
	cmd.Flags().String("out", "", "output file (default: dated backup name in the vault root)")

	return cmd
}
