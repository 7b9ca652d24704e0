package core

import (
	"slices"
	"sort"
	"strings"

	"github.com/adamavenir/threadchat/internal/types"
)

// MigrateLocation moves every message indexed under oldLoc to newLoc.
//
// Each message's location is replaced with newLoc and its id appended to the
// index sequence for newLoc, after any ids already there. The old index entry is
// removed, so repeating the call is a no-op. Ids under the old key that no longer
// resolve to a message are dropped rather than carried over.
func MigrateLocation(store types.ChatStore, oldLoc, newLoc types.Location) types.ChatStore {
	oldKey := PathKey(oldLoc)
	newKey := PathKey(newLoc)
	ids, ok := store.PathIndex[oldKey]
	if !ok || oldKey == newKey {
		return store
	}

	next := types.ChatStore{
		Messages:  cloneMap(store.Messages),
		PathIndex: cloneMap(store.PathIndex),
	}

	moved := slices.Clone(next.PathIndex[newKey])
	present := make(map[string]struct{}, len(moved)+len(ids))
	for _, id := range moved {
		present[id] = struct{}{}
	}

	for _, id := range ids {
		msg, ok := next.Messages[id]
		if !ok {
			continue
		}
		msg.Location = newLoc
		next.Messages[id] = msg
		if _, dup := present[id]; dup {
			continue
		}
		present[id] = struct{}{}
		moved = append(moved, id)
	}

	delete(next.PathIndex, oldKey)
	if len(moved) > 0 {
		next.PathIndex[newKey] = moved
	}
	return next
}

// MigrateFolderTree handles a folder rename: the folder's own messages and the
// messages of every location beneath it are moved to the corresponding path under
// newFolder. Location kinds are preserved.
func MigrateFolderTree(store types.ChatStore, oldFolder, newFolder string) types.ChatStore {
	oldFolder = NormalizeVaultPath(oldFolder)
	newFolder = NormalizeVaultPath(newFolder)
	if oldFolder == "" || oldFolder == newFolder {
		return store
	}

	next := MigrateLocation(store, types.FolderLocation(oldFolder), types.FolderLocation(newFolder))

	prefix := oldFolder + "/"
	keys := make([]string, 0, len(store.PathIndex))
	for key := range store.PathIndex {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		loc, ok := ParsePathKey(key)
		if !ok || !strings.HasPrefix(loc.Path, prefix) {
			continue
		}
		dest := types.Location{
			Path: joinVaultPath(newFolder, strings.TrimPrefix(loc.Path, prefix)),
			Kind: loc.Kind,
		}
		next = MigrateLocation(next, loc, dest)
	}
	return next
}

func joinVaultPath(dir, rel string) string {
	if dir == "" {
		return rel
	}
	return dir + "/" + rel
}
