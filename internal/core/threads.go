package core

import (
	"sort"
	"strings"

	"github.com/adamavenir/threadchat/internal/types"
)

// MessagesAt returns the messages indexed under loc in index order.
// Ids that no longer resolve to a message are skipped.
func MessagesAt(store types.ChatStore, loc types.Location) []types.Message {
	ids := store.PathIndex[PathKey(loc)]
	messages := make([]types.Message, 0, len(ids))
	for _, id := range ids {
		if msg, ok := store.Messages[id]; ok {
			messages = append(messages, msg)
		}
	}
	return messages
}

// ThreadAt builds the reply tree rooted at rootID. It reports false when the
// message does not exist.
func ThreadAt(store types.ChatStore, rootID string) (*types.Thread, bool) {
	root, ok := store.Messages[rootID]
	if !ok {
		return nil, false
	}
	return buildThread(root, buildReplyIndex(store), map[string]bool{}), true
}

// ThreadsAt returns one thread per root message at loc, oldest first.
func ThreadsAt(store types.ChatStore, loc types.Location) []types.Thread {
	return threadsAt(store, loc, buildReplyIndex(store))
}

// ChildLocationsOf returns the locations exactly one level below folderPath that
// have messages, each with its threads. The vault root ("" or "/") lists the
// top-level locations.
func ChildLocationsOf(store types.ChatStore, folderPath string) []types.ChildLocation {
	prefix := childPrefix(folderPath)

	var locations []types.Location
	for key := range store.PathIndex {
		loc, ok := ParsePathKey(key)
		if !ok || !strings.HasPrefix(loc.Path, prefix) {
			continue
		}
		rel := loc.Path[len(prefix):]
		if rel == "" || strings.Contains(rel, "/") {
			continue
		}
		locations = append(locations, loc)
	}
	sort.Slice(locations, func(i, j int) bool {
		if locations[i].Path != locations[j].Path {
			return locations[i].Path < locations[j].Path
		}
		return locations[i].Kind < locations[j].Kind
	})

	replies := buildReplyIndex(store)
	children := make([]types.ChildLocation, 0, len(locations))
	for _, loc := range locations {
		children = append(children, types.ChildLocation{
			Location: loc,
			Threads:  threadsAt(store, loc, replies),
		})
	}
	return children
}

// replyIndex maps a parent id to its direct replies in display order.
type replyIndex map[string][]types.Message

func buildReplyIndex(store types.ChatStore) replyIndex {
	index := replyIndex{}
	for _, msg := range store.Messages {
		if msg.IsRoot() {
			continue
		}
		parent := msg.Parent()
		index[parent] = append(index[parent], msg)
	}
	for _, replies := range index {
		sortMessages(replies)
	}
	return index
}

// buildThread assembles the tree below root. path holds the ids on the current
// branch; a reply already on it would close a cycle and is left out.
func buildThread(root types.Message, replies replyIndex, path map[string]bool) *types.Thread {
	path[root.ID] = true
	defer delete(path, root.ID)

	thread := &types.Thread{Root: root, Replies: []types.Message{}}
	for _, reply := range replies[root.ID] {
		if path[reply.ID] {
			continue
		}
		thread.Replies = append(thread.Replies, reply)
	}

	for _, reply := range thread.Replies {
		sub := buildThread(reply, replies, path)
		if len(sub.Replies) == 0 {
			continue
		}
		if thread.SubThreads == nil {
			thread.SubThreads = map[string]*types.Thread{}
		}
		thread.SubThreads[reply.ID] = sub
	}
	return thread
}

func threadsAt(store types.ChatStore, loc types.Location, replies replyIndex) []types.Thread {
	seen := map[string]struct{}{}
	var roots []types.Message
	for _, msg := range MessagesAt(store, loc) {
		if !msg.IsRoot() {
			continue
		}
		if _, dup := seen[msg.ID]; dup {
			continue
		}
		seen[msg.ID] = struct{}{}
		roots = append(roots, msg)
	}
	sortMessages(roots)

	threads := make([]types.Thread, 0, len(roots))
	for _, root := range roots {
		threads = append(threads, *buildThread(root, replies, map[string]bool{}))
	}
	return threads
}

// sortMessages orders by creation time; equal timestamps fall back to id so
// output is stable across runs.
func sortMessages(messages []types.Message) {
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt != messages[j].CreatedAt {
			return messages[i].CreatedAt < messages[j].CreatedAt
		}
		return messages[i].ID < messages[j].ID
	})
}

func childPrefix(folderPath string) string {
	if folderPath == "" || folderPath == "/" {
		return ""
	}
	if !strings.HasSuffix(folderPath, "/") {
		folderPath += "/"
	}
	return folderPath
}

// CountThreadMessages returns the number of messages in a thread, root included.
func CountThreadMessages(thread types.Thread) int {
	count := 1
	for _, reply := range thread.Replies {
		if sub, ok := thread.SubThreads[reply.ID]; ok {
			count += CountThreadMessages(*sub)
			continue
		}
		count++
	}
	return count
}
