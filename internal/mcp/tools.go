package mcp

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/session"
	"github.com/adamavenir/threadchat/internal/types"
	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type ToolContext struct {
	Vault    core.Vault
	Session  *session.Session
	Settings core.Settings
	Now      func() time.Time
}

type postArgs struct {
	Path    string `json:"path" jsonschema:"Vault-relative path of the note or folder, e.g. projects/plan.md"`
	Folder  bool   `json:"folder,omitempty" jsonschema:"Treat the path as a folder even if it does not exist"`
	Content string `json:"content" jsonschema:"Message text"`
}

type replyArgs struct {
	MessageID string `json:"message_id" jsonschema:"Id of the message to reply to; a unique suffix is enough"`
	Content   string `json:"content" jsonschema:"Reply text"`
}

type reactArgs struct {
	MessageID string `json:"message_id" jsonschema:"Id of the message to react to"`
	Emoji     string `json:"emoji" jsonschema:"Reaction emoji; reacting twice removes it"`
}

type locationArgs struct {
	Path   string `json:"path" jsonschema:"Vault-relative path; empty or / for the vault root"`
	Folder bool   `json:"folder,omitempty" jsonschema:"Treat the path as a folder"`
}

type threadArgs struct {
	MessageID string `json:"message_id" jsonschema:"Id of the thread's root message"`
}

type moveArgs struct {
	From   string `json:"from" jsonschema:"Old vault-relative path"`
	To     string `json:"to" jsonschema:"New vault-relative path"`
	Folder bool   `json:"folder,omitempty" jsonschema:"Both paths are folders; messages inside move too"`
}

// RegisterTools registers MCP tools for threadchat.
func RegisterTools(server *mcp.Server, tc *ToolContext) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "threadchat_post",
		Description: "Start a new thread on a note or folder in the vault.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args postArgs) (*mcp.CallToolResult, any, error) {
		return handlePost(ctx, *tc, args), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "threadchat_reply",
		Description: "Reply to a message. The reply lands at the parent message's location.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args replyArgs) (*mcp.CallToolResult, any, error) {
		return handleReply(ctx, *tc, args), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "threadchat_react",
		Description: "Toggle an emoji reaction on a message.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args reactArgs) (*mcp.CallToolResult, any, error) {
		return handleReact(ctx, *tc, args), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "threadchat_threads",
		Description: "List the threads attached to a note or folder, oldest first.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, args locationArgs) (*mcp.CallToolResult, any, error) {
		return handleThreads(*tc, args), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "threadchat_thread",
		Description: "Show one thread with all nested replies.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, args threadArgs) (*mcp.CallToolResult, any, error) {
		return handleThread(*tc, args), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "threadchat_children",
		Description: "List notes and folders directly inside a folder that have messages.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, args locationArgs) (*mcp.CallToolResult, any, error) {
		return handleChildren(*tc, args), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "threadchat_move",
		Description: "Move messages after a note or folder was renamed.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args moveArgs) (*mcp.CallToolResult, any, error) {
		return handleMove(ctx, *tc, args), nil, nil
	})
}

func handlePost(ctx context.Context, tc ToolContext, args postArgs) *mcp.CallToolResult {
	loc, err := tc.location(args.Path, args.Folder)
	if err != nil {
		return toolError(err.Error())
	}
	msg, err := tc.newMessage(args.Content, loc, nil)
	if err != nil {
		return toolError(err.Error())
	}
	if err := tc.apply(ctx, func(store types.ChatStore) types.ChatStore {
		return core.AddMessage(store, msg)
	}); err != nil {
		return toolError(err.Error())
	}
	return toolResult(fmt.Sprintf("Posted message #%s to %s", msg.ID, core.PathKey(loc)), false)
}

func handleReply(ctx context.Context, tc ToolContext, args replyArgs) *mcp.CallToolResult {
	parent, err := core.FindMessage(tc.Session.Snapshot(), sanitizeMessageID(args.MessageID))
	if err != nil {
		return toolError(err.Error())
	}
	parentID := parent.ID
	msg, err := tc.newMessage(args.Content, parent.Location, &parentID)
	if err != nil {
		return toolError(err.Error())
	}
	if err := tc.apply(ctx, func(store types.ChatStore) types.ChatStore {
		return core.AddMessage(store, msg)
	}); err != nil {
		return toolError(err.Error())
	}
	return toolResult(fmt.Sprintf("Posted reply #%s to #%s", msg.ID, parent.ID), false)
}

func handleReact(ctx context.Context, tc ToolContext, args reactArgs) *mcp.CallToolResult {
	emoji := strings.TrimSpace(args.Emoji)
	if emoji == "" {
		return toolError("Error: emoji cannot be empty")
	}
	msg, err := core.FindMessage(tc.Session.Snapshot(), sanitizeMessageID(args.MessageID))
	if err != nil {
		return toolError(err.Error())
	}
	reactor := tc.Settings.User.ID
	if err := tc.apply(ctx, func(store types.ChatStore) types.ChatStore {
		return core.ToggleReaction(store, msg.ID, emoji, reactor)
	}); err != nil {
		return toolError(err.Error())
	}
	for _, id := range tc.Session.Snapshot().Messages[msg.ID].Reactions[emoji] {
		if id == reactor {
			return toolResult(fmt.Sprintf("Reacted %s on #%s", emoji, msg.ID), false)
		}
	}
	return toolResult(fmt.Sprintf("Removed %s from #%s", emoji, msg.ID), false)
}

func handleThreads(tc ToolContext, args locationArgs) *mcp.CallToolResult {
	loc, err := tc.location(args.Path, args.Folder)
	if err != nil {
		return toolError(err.Error())
	}
	threads := core.ThreadsAt(tc.Session.Snapshot(), loc)
	if len(threads) == 0 {
		return toolResult(fmt.Sprintf("No threads at %s", core.PathKey(loc)), false)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Threads at %s (%d):\n\n", core.PathKey(loc), len(threads))
	for i, thread := range threads {
		if i > 0 {
			b.WriteString("\n")
		}
		writeThread(&b, thread, "")
	}
	return toolResult(strings.TrimRight(b.String(), "\n"), false)
}

func handleThread(tc ToolContext, args threadArgs) *mcp.CallToolResult {
	store := tc.Session.Snapshot()
	msg, err := core.FindMessage(store, sanitizeMessageID(args.MessageID))
	if err != nil {
		return toolError(err.Error())
	}
	thread, ok := core.ThreadAt(store, msg.ID)
	if !ok {
		return toolError(fmt.Sprintf("thread %s not found", msg.ID))
	}
	var b strings.Builder
	writeThread(&b, *thread, "")
	return toolResult(strings.TrimRight(b.String(), "\n"), false)
}

func handleChildren(tc ToolContext, args locationArgs) *mcp.CallToolResult {
	loc, err := tc.location(args.Path, true)
	if err != nil {
		return toolError(err.Error())
	}
	children := core.ChildLocationsOf(tc.Session.Snapshot(), loc.Path)
	lines := make([]string, 0, len(children))
	for _, child := range children {
		if tc.Settings.View.HideEmpty && len(child.Threads) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (%d threads)", core.PathKey(child.Location), len(child.Threads)))
	}
	if len(lines) == 0 {
		return toolResult(fmt.Sprintf("No threads below %s", loc.Path), false)
	}
	return toolResult(strings.Join(lines, "\n"), false)
}

func handleMove(ctx context.Context, tc ToolContext, args moveArgs) *mcp.CallToolResult {
	to, err := tc.location(args.To, args.Folder)
	if err != nil {
		return toolError(err.Error())
	}
	from, err := tc.location(args.From, args.Folder || to.Kind == types.LocationFolder)
	if err != nil {
		return toolError(err.Error())
	}
	if from.Path == core.RootFolderPath || to.Path == core.RootFolderPath {
		return toolError("Error: the vault root cannot be moved")
	}
	if err := tc.apply(ctx, func(store types.ChatStore) types.ChatStore {
		if from.Kind == types.LocationFolder {
			return core.MigrateFolderTree(store, from.Path, to.Path)
		}
		return core.MigrateLocation(store, from, to)
	}); err != nil {
		return toolError(err.Error())
	}
	return toolResult(fmt.Sprintf("Moved messages from %s to %s", core.PathKey(from), core.PathKey(to)), false)
}

// apply runs a mutation and waits until it is on disk.
func (tc ToolContext) apply(ctx context.Context, fn func(types.ChatStore) types.ChatStore) error {
	if _, err := tc.Session.Update(fn); err != nil {
		return err
	}
	if err := tc.Session.Flush(ctx); err != nil {
		return fmt.Errorf("failed to save chat data: %w", err)
	}
	return nil
}

func (tc ToolContext) location(path string, folder bool) (types.Location, error) {
	rel := core.NormalizeVaultPath(path)
	if rel != "" && core.IsHiddenPath(rel) {
		return types.Location{}, fmt.Errorf("%s is a hidden path", path)
	}
	return tc.Vault.LocationFor(rel, folder), nil
}

func (tc ToolContext) newMessage(content string, loc types.Location, parent *string) (types.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return types.Message{}, fmt.Errorf("message content cannot be empty")
	}
	id, err := core.GenerateMessageID()
	if err != nil {
		return types.Message{}, err
	}
	return types.Message{
		ID:         id,
		Content:    content,
		CreatedAt:  tc.Now().UnixMilli(),
		AuthorName: tc.Settings.User.Name,
		AuthorID:   tc.Settings.User.ID,
		ParentID:   parent,
		Location:   loc,
	}, nil
}

func writeThread(b *strings.Builder, thread types.Thread, indent string) {
	writeMessage(b, thread.Root, indent)
	for _, reply := range thread.Replies {
		if sub, ok := thread.SubThreads[reply.ID]; ok {
			writeThread(b, *sub, indent+"  ")
			continue
		}
		writeMessage(b, reply, indent+"  ")
	}
}

func writeMessage(b *strings.Builder, msg types.Message, indent string) {
	when := time.UnixMilli(msg.CreatedAt).UTC().Format(time.RFC3339)
	reactions := ""
	if len(msg.Reactions) > 0 {
		parts := make([]string, 0, len(msg.Reactions))
		for emoji, reactors := range core.NormalizeReactions(msg.Reactions) {
			parts = append(parts, fmt.Sprintf("%s%d", emoji, len(reactors)))
		}
		slices.Sort(parts)
		reactions = " [" + strings.Join(parts, " ") + "]"
	}
	fmt.Fprintf(b, "%s[#%s] %s (%s): %s%s\n", indent, msg.ID, msg.AuthorName, when, msg.Content, reactions)
}

func toolResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: isError,
	}
}

func toolError(text string) *mcp.CallToolResult {
	return toolResult(text, true)
}

func sanitizeMessageID(value string) string {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimPrefix(trimmed, "@")
	trimmed = strings.TrimPrefix(trimmed, "#")
	return trimmed
}
