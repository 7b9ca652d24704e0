package command

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/types"
	"github.com/spf13/cobra"
)

// resolveLocation turns a path argument into a location. Absolute paths inside
// the vault are made relative; "/" and "." name the vault root folder.
func resolveLocation(ctx *CommandContext, arg string, folder bool) (types.Location, error) {
	rel := strings.TrimSpace(arg)
	switch {
	case rel == "." || rel == "/":
		rel = ""
	case filepath.IsAbs(rel):
		inside, ok := ctx.Vault.RelPath(rel)
		if !ok {
			return types.Location{}, fmt.Errorf("%s is outside the vault", arg)
		}
		rel = inside
	}
	rel = core.NormalizeVaultPath(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") || strings.Contains(rel, "/../") || strings.HasSuffix(rel, "/..") {
		return types.Location{}, fmt.Errorf("%s is outside the vault", arg)
	}
	if rel != "" && core.IsHiddenPath(rel) {
		return types.Location{}, fmt.Errorf("%s is a hidden path", arg)
	}
	return ctx.Vault.LocationFor(rel, folder), nil
}

// resolveMessage finds a message by full id or short form.
func resolveMessage(store types.ChatStore, ref string) (types.Message, error) {
	return core.FindMessage(store, ref)
}

// newMessage stamps a message with a fresh id, the current time and the
// configured author.
func newMessage(ctx *CommandContext, content string, loc types.Location, parent *string) (types.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return types.Message{}, fmt.Errorf("message text is empty")
	}
	id, err := core.GenerateMessageID()
	if err != nil {
		return types.Message{}, err
	}
	name, authorID := ctx.Author()
	return types.Message{
		ID:         id,
		Content:    content,
		CreatedAt:  nowFunc().UnixMilli(),
		AuthorName: name,
		AuthorID:   authorID,
		ParentID:   parent,
		Location:   loc,
	}, nil
}

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	return enc.Encode(value)
}

// finish flushes pending writes; a failed save is reported as the command error.
func finish(cmd *cobra.Command, ctx *CommandContext) error {
	if err := ctx.Close(); err != nil {
		return writeCommandError(cmd, err)
	}
	return nil
}
