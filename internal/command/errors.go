package command

import (
	"errors"
	"fmt"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/spf13/cobra"
)

func writeCommandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())

	if errors.Is(err, core.ErrVaultNotFound) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: run inside a vault, pass --vault, or create one with: threadchat init")
	}

	return err
}
