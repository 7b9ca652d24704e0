package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/db"
	"github.com/adamavenir/threadchat/internal/session"
	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

const closeTimeout = 10 * time.Second

// Server exposes a vault's chat store as MCP tools over stdio.
type Server struct {
	vault   core.Vault
	session *session.Session
	server  *mcp.Server
}

// NewServer opens the vault at vaultPath and registers the chat tools. author,
// when set, replaces the configured user identity.
func NewServer(vaultPath, author, version string) (*Server, error) {
	vault, err := core.OpenVault(vaultPath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("vault", vault.Root).Msg("opened vault")

	settings, err := core.LoadSettings("", &vault)
	if err != nil {
		return nil, err
	}
	if author != "" {
		settings.User.Name = author
		settings.User.ID = author
	}

	storage := db.NewStorage(vault, settings.Storage.Location)
	store, loadedFrom := storage.Load()
	log.Info().Str("path", loadedFrom).Int("messages", len(store.Messages)).Msg("loaded chat store")

	sess := session.New(storage, store)
	server := mcp.NewServer(&mcp.Implementation{Name: "threadchat", Version: version}, nil)
	RegisterTools(server, &ToolContext{
		Vault:    vault,
		Session:  sess,
		Settings: settings,
		Now:      time.Now,
	})

	return &Server{vault: vault, session: sess, server: server}, nil
}

// Run serves requests on stdin/stdout until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	err := s.server.Run(ctx, &mcp.StdioTransport{})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close writes any pending changes.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	err := s.session.Close(ctx)
	log.Info().Err(err).Msg("server closed")
	return err
}
