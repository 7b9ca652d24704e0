package command

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const maxDisplayLines = 20

var (
	authorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	idStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	locationStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("157"))
	reactionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	branchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// formatter renders messages with short ids sized to the store.
type formatter struct {
	shortLen int
}

func newFormatter(store types.ChatStore) formatter {
	return formatter{shortLen: core.GetDisplayPrefixLength(len(store.Messages))}
}

func (f formatter) shortID(id string) string {
	return "#" + core.ShortID(id, f.shortLen)
}

// header is "Author · 3 minutes ago · #abc123".
func (f formatter) header(msg types.Message) string {
	when := humanize.Time(time.UnixMilli(msg.CreatedAt))
	return authorStyle.Render(msg.AuthorName) +
		metaStyle.Render(" · "+when+" · ") +
		idStyle.Render(f.shortID(msg.ID))
}

func (f formatter) writeMessage(b *strings.Builder, msg types.Message, indent string) {
	b.WriteString(indent)
	b.WriteString(f.header(msg))
	b.WriteString("\n")
	for _, line := range truncateLines(msg.Content) {
		b.WriteString(indent)
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	if reactions := formatReactions(msg.Reactions); reactions != "" {
		b.WriteString(indent)
		b.WriteString("  ")
		b.WriteString(reactionStyle.Render(reactions))
		b.WriteString("\n")
	}
}

// writeThread renders a thread as an indented tree. Replies that have their own
// replies are expanded from SubThreads.
func (f formatter) writeThread(b *strings.Builder, thread types.Thread, indent string) {
	f.writeMessage(b, thread.Root, indent)
	childIndent := indent + branchStyle.Render("│ ")
	for _, reply := range thread.Replies {
		if sub, ok := thread.SubThreads[reply.ID]; ok {
			f.writeThread(b, *sub, childIndent)
			continue
		}
		f.writeMessage(b, reply, childIndent)
	}
}

func (f formatter) renderThreads(threads []types.Thread) string {
	var b strings.Builder
	for i, thread := range threads {
		if i > 0 {
			b.WriteString("\n")
		}
		f.writeThread(&b, thread, "")
	}
	return b.String()
}

func formatLocation(loc types.Location) string {
	label := loc.Path
	if loc.Kind == types.LocationFolder {
		label = strings.TrimSuffix(label, "/") + "/"
		if loc.Path == core.RootFolderPath {
			label = "/"
		}
	}
	return locationStyle.Render(label)
}

// formatReactions renders "👍 2  🎉 1" in emoji order.
func formatReactions(reactions map[string][]string) string {
	if len(reactions) == 0 {
		return ""
	}
	emojis := make([]string, 0, len(reactions))
	for emoji := range reactions {
		emojis = append(emojis, emoji)
	}
	sort.Strings(emojis)
	parts := make([]string, 0, len(emojis))
	for _, emoji := range emojis {
		parts = append(parts, fmt.Sprintf("%s %d", emoji, len(reactions[emoji])))
	}
	return strings.Join(parts, "  ")
}

func truncateLines(content string) []string {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if len(lines) <= maxDisplayLines {
		return lines
	}
	hidden := len(lines) - maxDisplayLines
	return append(lines[:maxDisplayLines], metaStyle.Render(fmt.Sprintf("... (%d more lines)", hidden)))
}

func pluralize(count int, word string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, word)
	}
	return fmt.Sprintf("%d %ss", count, word)
}
