package core

import (
	"strings"

	"github.com/adamavenir/threadchat/internal/types"
)

// PathKey returns the index key for a location: "<kind>:<path>".
func PathKey(loc types.Location) string {
	return string(loc.Kind) + ":" + loc.Path
}

// ParsePathKey splits an index key back into a location.
// Only the first colon separates kind from path, so paths may contain colons.
func ParsePathKey(key string) (types.Location, bool) {
	kind, path, ok := strings.Cut(key, ":")
	if !ok {
		return types.Location{}, false
	}
	loc := types.Location{Path: path, Kind: types.LocationKind(kind)}
	if !loc.Kind.Valid() {
		return types.Location{}, false
	}
	return loc, true
}

// NormalizeVaultPath converts a user-supplied path into the vault-relative form
// used in locations: forward slashes, no leading "./" or "/", no trailing slash.
func NormalizeVaultPath(path string) string {
	path = strings.ReplaceAll(strings.TrimSpace(path), "\\", "/")
	for strings.HasPrefix(path, "./") {
		path = path[2:]
	}
	path = strings.TrimLeft(path, "/")
	path = strings.TrimRight(path, "/")
	return path
}
