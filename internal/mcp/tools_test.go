package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/db"
	"github.com/adamavenir/threadchat/internal/session"
	"github.com/adamavenir/threadchat/internal/types"
	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func newToolContext(t *testing.T) ToolContext {
	t.Helper()
	vault, err := core.InitVault(t.TempDir())
	if err != nil {
		t.Fatalf("init vault: %v", err)
	}
	storage := db.NewStorage(vault, types.StoragePlugin)
	sess := session.New(storage, types.NewChatStore())
	t.Cleanup(func() {
		_ = sess.Close(context.Background())
	})

	settings := core.DefaultSettings()
	settings.User = core.UserSettings{Name: "Agent", ID: "agent-1"}
	clock := time.UnixMilli(1700000000000)
	return ToolContext{
		Vault:    vault,
		Session:  sess,
		Settings: settings,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected one content block, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func onlyMessageAt(t *testing.T, tc ToolContext, loc types.Location) types.Message {
	t.Helper()
	messages := core.MessagesAt(tc.Session.Snapshot(), loc)
	if len(messages) != 1 {
		t.Fatalf("expected one message at %s, got %d", core.PathKey(loc), len(messages))
	}
	return messages[0]
}

func TestPostReplyAndThread(t *testing.T) {
	tc := newToolContext(t)
	ctx := context.Background()

	result := handlePost(ctx, tc, postArgs{Path: "notes/plan.md", Content: "  first  "})
	if result.IsError {
		t.Fatalf("post failed: %s", resultText(t, result))
	}
	root := onlyMessageAt(t, tc, types.FileLocation("notes/plan.md"))
	if root.Content != "first" || root.AuthorID != "agent-1" {
		t.Fatalf("unexpected root: %+v", root)
	}

	result = handleReply(ctx, tc, replyArgs{MessageID: "#" + root.ID, Content: "second"})
	if result.IsError {
		t.Fatalf("reply failed: %s", resultText(t, result))
	}

	text := resultText(t, handleThread(tc, threadArgs{MessageID: root.ID}))
	lines := strings.Split(text, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected root and reply, got %q", text)
	}
	if !strings.Contains(lines[0], "first") || !strings.HasPrefix(lines[1], "  [#") || !strings.Contains(lines[1], "second") {
		t.Fatalf("unexpected thread text %q", text)
	}

	stored, err := db.ReadStoreFile(tc.Vault.DataPath(types.StoragePlugin))
	if err != nil {
		t.Fatalf("read stored data: %v", err)
	}
	if len(stored.Messages) != 2 {
		t.Fatalf("expected mutations to be flushed, got %d messages on disk", len(stored.Messages))
	}
}

func TestReactToggles(t *testing.T) {
	tc := newToolContext(t)
	ctx := context.Background()

	handlePost(ctx, tc, postArgs{Path: "a.md", Content: "hello"})
	msg := onlyMessageAt(t, tc, types.FileLocation("a.md"))

	if text := resultText(t, handleReact(ctx, tc, reactArgs{MessageID: msg.ID, Emoji: "🎉"})); !strings.HasPrefix(text, "Reacted") {
		t.Fatalf("expected reaction added, got %q", text)
	}
	if text := resultText(t, handleThreads(tc, locationArgs{Path: "a.md"})); !strings.Contains(text, "[🎉1]") {
		t.Fatalf("expected reaction count in listing, got %q", text)
	}
	if text := resultText(t, handleReact(ctx, tc, reactArgs{MessageID: msg.ID, Emoji: "🎉"})); !strings.HasPrefix(text, "Removed") {
		t.Fatalf("expected reaction removed, got %q", text)
	}
	if result := handleReact(ctx, tc, reactArgs{MessageID: msg.ID, Emoji: " "}); !result.IsError {
		t.Fatalf("expected error for empty emoji")
	}
}

func TestChildrenAndMove(t *testing.T) {
	tc := newToolContext(t)
	ctx := context.Background()

	handlePost(ctx, tc, postArgs{Path: "projects/x.md", Content: "inner"})
	handlePost(ctx, tc, postArgs{Path: "projects", Folder: true, Content: "outer"})

	text := resultText(t, handleChildren(tc, locationArgs{Path: "/"}))
	if text != "folder:projects (1 threads)" {
		t.Fatalf("unexpected children %q", text)
	}

	result := handleMove(ctx, tc, moveArgs{From: "projects", To: "archive", Folder: true})
	if result.IsError {
		t.Fatalf("move failed: %s", resultText(t, result))
	}
	onlyMessageAt(t, tc, types.FileLocation("archive/x.md"))
	onlyMessageAt(t, tc, types.FolderLocation("archive"))

	if result := handleMove(ctx, tc, moveArgs{From: "archive", To: "/", Folder: true}); !result.IsError {
		t.Fatalf("expected error when moving onto the vault root")
	}
}

func TestToolErrors(t *testing.T) {
	tc := newToolContext(t)
	ctx := context.Background()

	cases := map[string]*mcp.CallToolResult{
		"empty post":    handlePost(ctx, tc, postArgs{Path: "a.md", Content: " "}),
		"hidden path":   handlePost(ctx, tc, postArgs{Path: ".obsidian/a.md", Content: "x"}),
		"missing reply": handleReply(ctx, tc, replyArgs{MessageID: "msg-nope", Content: "x"}),
		"missing":       handleThread(tc, threadArgs{MessageID: "msg-nope"}),
	}
	for name, result := range cases {
		if !result.IsError {
			t.Fatalf("%s: expected error result, got %q", name, resultText(t, result))
		}
	}
	if text := resultText(t, handleThreads(tc, locationArgs{Path: "empty.md"})); text != "No threads at file:empty.md" {
		t.Fatalf("unexpected empty listing %q", text)
	}
}
