package core

import (
	"maps"
	"slices"
	"strings"

	"github.com/adamavenir/threadchat/internal/types"
)

// AddMessage returns a store with msg inserted into the message table and its id
// appended to the index sequence for its location. The input store is not modified.
//
// Ids are expected to be unique. If one is reused the new record wins, and the id
// is moved out of the previous record's index entry so the index stays consistent.
func AddMessage(store types.ChatStore, msg types.Message) types.ChatStore {
	msg.Reactions = cloneReactions(msg.Reactions)
	key := PathKey(msg.Location)

	next := types.ChatStore{
		Messages:  cloneMap(store.Messages),
		PathIndex: cloneMap(store.PathIndex),
	}

	if prev, ok := store.Messages[msg.ID]; ok {
		prevKey := PathKey(prev.Location)
		if prevKey != key {
			removeFromIndex(next.PathIndex, prevKey, msg.ID)
		}
	}

	next.Messages[msg.ID] = msg
	if !slices.Contains(next.PathIndex[key], msg.ID) {
		next.PathIndex[key] = appendID(next.PathIndex[key], msg.ID)
	}
	return next
}

// ToggleReaction adds reactorID to the emoji's reactors on a message, or removes
// it when already present. Empty reactor sets are pruned, and a message left with
// no reactions has its reactions removed entirely. A missing message, empty emoji,
// or empty reactor leaves the store unchanged.
func ToggleReaction(store types.ChatStore, messageID, emoji, reactorID string) types.ChatStore {
	msg, ok := store.Messages[messageID]
	if !ok || emoji == "" || reactorID == "" {
		return store
	}

	reactions := cloneReactions(msg.Reactions)
	if reactions == nil {
		reactions = map[string][]string{}
	}
	reactors := reactions[emoji]
	if idx := slices.Index(reactors, reactorID); idx >= 0 {
		reactors = slices.Delete(reactors, idx, idx+1)
	} else {
		reactors = append(reactors, reactorID)
	}

	if len(reactors) == 0 {
		delete(reactions, emoji)
	} else {
		reactions[emoji] = reactors
	}
	if len(reactions) == 0 {
		reactions = nil
	}
	msg.Reactions = reactions

	// The index is untouched, so it is shared with the previous value.
	next := types.ChatStore{
		Messages:  cloneMap(store.Messages),
		PathIndex: store.PathIndex,
	}
	next.Messages[messageID] = msg
	return next
}

// NormalizeReactions trims emoji and reactor ids, drops duplicates and blanks,
// and prunes empty reactor sets. It returns nil when nothing remains.
func NormalizeReactions(reactions map[string][]string) map[string][]string {
	if len(reactions) == 0 {
		return nil
	}
	out := make(map[string][]string, len(reactions))
	for emoji, reactors := range reactions {
		emoji = strings.TrimSpace(emoji)
		if emoji == "" {
			continue
		}
		cleaned := dedupeNonEmpty(append(out[emoji], reactors...))
		if len(cleaned) == 0 {
			continue
		}
		out[emoji] = cleaned
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func dedupeNonEmpty(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func cloneMap[V any](in map[string]V) map[string]V {
	if in == nil {
		return map[string]V{}
	}
	return maps.Clone(in)
}

func cloneReactions(reactions map[string][]string) map[string][]string {
	if reactions == nil {
		return nil
	}
	out := make(map[string][]string, len(reactions))
	for emoji, reactors := range reactions {
		out[emoji] = slices.Clone(reactors)
	}
	return out
}

// appendID appends to a fresh backing array so earlier store values never see
// the new id through a shared slice.
func appendID(ids []string, id string) []string {
	out := make([]string, len(ids), len(ids)+1)
	copy(out, ids)
	return append(out, id)
}

func removeFromIndex(index map[string][]string, key, id string) {
	ids, ok := index[key]
	if !ok {
		return
	}
	remaining := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			remaining = append(remaining, existing)
		}
	}
	if len(remaining) == 0 {
		delete(index, key)
		return
	}
	index[key] = remaining
}
