package command

import (
	"context"
	"errors"
	"time"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/db"
	"github.com/adamavenir/threadchat/internal/session"
	"github.com/adamavenir/threadchat/internal/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const flushTimeout = 10 * time.Second

// nowFunc is the clock used for message timestamps.
var nowFunc = time.Now

// CommandContext provides shared command resources.
type CommandContext struct {
	Vault    core.Vault
	Settings core.Settings
	Storage  *db.Storage
	Session  *session.Session
	JSONMode bool
	// LoadedFrom is the document the store was read from, "" for a new store.
	LoadedFrom string
}

// GetContext resolves the vault, settings and store for a command.
func GetContext(cmd *cobra.Command) (*CommandContext, error) {
	vaultDir, _ := cmd.Flags().GetString("vault")
	configPath, _ := cmd.Flags().GetString("config")
	jsonMode, _ := cmd.Flags().GetBool("json")

	var (
		vault core.Vault
		err   error
	)
	if vaultDir != "" {
		vault, err = core.OpenVault(vaultDir)
	} else {
		vault, err = core.DiscoverVault("")
	}
	if err != nil {
		return nil, err
	}

	settings, err := core.LoadSettings(configPath, &vault)
	if err != nil {
		return nil, err
	}
	if settings.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	storage := db.NewStorage(vault, settings.Storage.Location)
	store, loadedFrom := storage.Load()
	log.Debug().
		Str("vault", vault.Root).
		Str("path", loadedFrom).
		Int("messages", len(store.Messages)).
		Msg("loaded chat store")

	return &CommandContext{
		Vault:      vault,
		Settings:   settings,
		Storage:    storage,
		Session:    session.New(storage, store),
		JSONMode:   jsonMode,
		LoadedFrom: loadedFrom,
	}, nil
}

// Store returns the current snapshot.
func (c *CommandContext) Store() types.ChatStore {
	return c.Session.Snapshot()
}

// Close waits for pending writes and returns the last write error.
func (c *CommandContext) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	err := c.Session.Close(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.New("timed out saving chat data")
	}
	return err
}

// Author returns the configured identity stamped on new messages.
func (c *CommandContext) Author() (name, id string) {
	return c.Settings.User.Name, c.Settings.User.ID
}
