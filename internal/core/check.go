package core

import (
	"fmt"
	"sort"

	"github.com/adamavenir/threadchat/internal/types"
)

// Orphans returns messages whose parent id does not resolve, sorted by id.
func Orphans(store types.ChatStore) []types.Message {
	var orphans []types.Message
	for _, msg := range store.Messages {
		if msg.IsRoot() {
			continue
		}
		if _, ok := store.Messages[msg.Parent()]; !ok {
			orphans = append(orphans, msg)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].ID < orphans[j].ID })
	return orphans
}

// Check reports integrity problems: orphans, reply cycles, index entries out of
// step with the message table, and malformed reactions.
func Check(store types.ChatStore) []types.Issue {
	var issues []types.Issue

	for _, msg := range Orphans(store) {
		issues = append(issues, types.Issue{
			Kind:      types.IssueOrphan,
			MessageID: msg.ID,
			Detail:    fmt.Sprintf("parent %s not found", msg.Parent()),
		})
	}

	ids := sortedMessageIDs(store)
	for _, id := range ids {
		if inCycle(store, id) {
			issues = append(issues, types.Issue{
				Kind:      types.IssueCycle,
				MessageID: id,
				Detail:    "message is its own ancestor",
			})
		}
	}

	for _, id := range ids {
		msg := store.Messages[id]
		key := PathKey(msg.Location)
		if !containsID(store.PathIndex[key], id) {
			issues = append(issues, types.Issue{
				Kind:      types.IssueIndexMissing,
				MessageID: id,
				Key:       key,
				Detail:    "message not listed under its location",
			})
		}
		for emoji, reactors := range msg.Reactions {
			if len(reactors) == 0 {
				issues = append(issues, types.Issue{
					Kind:      types.IssueEmptyReaction,
					MessageID: id,
					Detail:    fmt.Sprintf("reaction %s has no reactors", emoji),
				})
				continue
			}
			if len(dedupeNonEmpty(reactors)) != len(reactors) {
				issues = append(issues, types.Issue{
					Kind:      types.IssueDuplicateReactor,
					MessageID: id,
					Detail:    fmt.Sprintf("reaction %s lists a reactor more than once", emoji),
				})
			}
		}
	}

	keys := make([]string, 0, len(store.PathIndex))
	for key := range store.PathIndex {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, id := range store.PathIndex[key] {
			msg, ok := store.Messages[id]
			switch {
			case !ok:
				issues = append(issues, types.Issue{
					Kind:      types.IssueIndexStale,
					MessageID: id,
					Key:       key,
					Detail:    "indexed message does not exist",
				})
			case PathKey(msg.Location) != key:
				issues = append(issues, types.Issue{
					Kind:      types.IssueIndexStale,
					MessageID: id,
					Key:       key,
					Detail:    fmt.Sprintf("message lives at %s", PathKey(msg.Location)),
				})
			}
		}
	}

	return issues
}

// Reindex rebuilds the location index from the message table, ordering each
// sequence by creation time, and normalizes every message's reactions.
func Reindex(store types.ChatStore) types.ChatStore {
	next := types.NewChatStore()
	messages := make([]types.Message, 0, len(store.Messages))
	for _, msg := range store.Messages {
		msg.Reactions = NormalizeReactions(msg.Reactions)
		messages = append(messages, msg)
	}
	sortMessages(messages)

	for _, msg := range messages {
		next.Messages[msg.ID] = msg
		key := PathKey(msg.Location)
		next.PathIndex[key] = append(next.PathIndex[key], msg.ID)
	}
	return next
}

// inCycle walks the parent chain from id and reports whether it returns to id.
func inCycle(store types.ChatStore, id string) bool {
	seen := map[string]bool{}
	current := store.Messages[id]
	for !current.IsRoot() {
		parent := current.Parent()
		if parent == id {
			return true
		}
		if seen[parent] {
			return false
		}
		seen[parent] = true
		next, ok := store.Messages[parent]
		if !ok {
			return false
		}
		current = next
	}
	return false
}

func sortedMessageIDs(store types.ChatStore) []string {
	ids := make([]string, 0, len(store.Messages))
	for id := range store.Messages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
