package command

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const AppName = "threadchat"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:              AppName,
		Short:            "threadchat - threaded discussions attached to vault notes and folders",
		Long:             "threadchat keeps a threaded chat feed for every file and folder in a note vault.",
		SilenceUsage:     true,
		SilenceErrors:    true,
		PersistentPreRun: initLog,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("vault", "", "vault root (default: search upward from the current directory)")
	cmd.PersistentFlags().String("config", "", "settings file")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")
	cmd.PersistentFlags().Bool("debug", false, "debug logging")

	cmd.AddCommand(
		NewInitCmd(),
		NewPostCmd(),
		NewReplyCmd(),
		NewReactCmd(),
		NewThreadCmd(),
		NewThreadsCmd(),
		NewChildrenCmd(),
		NewMvCmd(),
		NewLsCmd(),
		NewCheckCmd(),
		NewRebuildCmd(),
		NewExportCmd(),
		NewWatchCmd(),
		NewConfigCmd(),
	)

	return cmd
}

func Execute() error {
	return NewRootCmd(Version).Execute()
}

func initLog(cmd *cobra.Command, args []string) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339})
}
