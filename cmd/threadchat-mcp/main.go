package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/adamavenir/threadchat/internal/mcp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// stdout carries the protocol.
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("component", "threadchat-mcp").Logger()

	vaultPath := os.Args[1]
	author := ""
	if len(os.Args) >= 3 {
		author = os.Args[2]
	}

	server, err := mcp.NewServer(vaultPath, author, Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start MCP server: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := server.Run(ctx)
	if err := server.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save chat data: %v\n", err)
		os.Exit(1)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", runErr)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: threadchat-mcp <vault-path> [author]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Arguments:")
	fmt.Fprintln(os.Stderr, "  vault-path  Path to a vault (directory containing .obsidian/)")
	fmt.Fprintln(os.Stderr, "  author      Name stamped on messages (default: user.name from settings)")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Example:")
	fmt.Fprintln(os.Stderr, "  threadchat-mcp ~/notes assistant")
}
