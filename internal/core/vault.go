package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adamavenir/threadchat/internal/types"
)

const (
	vaultMarkerDir  = ".obsidian"
	pluginID        = "obsidian-threaded-chat"
	pluginDataFile  = "chat-data.json"
	vaultDataFile   = ".chat-data.json"
	vaultConfigFile = ".threadchat.toml"

	// RootFolderPath is the path the host application gives the vault root folder.
	RootFolderPath = "/"
)

// ErrVaultNotFound is returned when no vault encloses the start directory.
var ErrVaultNotFound = errors.New("vault not found")

// Vault represents a note vault: a directory tree marked by .obsidian/.
type Vault struct {
	Root string
}

// DiscoverVault walks up from startDir to find a directory containing .obsidian/.
func DiscoverVault(startDir string) (Vault, error) {
	current := startDir
	if current == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Vault{}, err
		}
		current = cwd
	}
	current, err := filepath.Abs(current)
	if err != nil {
		return Vault{}, err
	}
	start := current

	for {
		info, err := os.Stat(filepath.Join(current, vaultMarkerDir))
		if err == nil && info.IsDir() {
			return Vault{Root: current}, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return Vault{}, fmt.Errorf("%w from %s", ErrVaultNotFound, start)
		}
		current = parent
	}
}

// OpenVault uses dir as the vault root without walking up. The marker directory
// must exist.
func OpenVault(dir string) (Vault, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return Vault{}, err
	}
	info, err := os.Stat(filepath.Join(root, vaultMarkerDir))
	if err != nil || !info.IsDir() {
		return Vault{}, fmt.Errorf("%w at %s", ErrVaultNotFound, root)
	}
	return Vault{Root: root}, nil
}

// InitVault creates the vault marker and plugin directories under dir.
func InitVault(dir string) (Vault, error) {
	root := dir
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Vault{}, err
		}
		root = cwd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return Vault{}, err
	}
	vault := Vault{Root: root}
	if err := os.MkdirAll(vault.PluginDir(), 0o755); err != nil {
		return Vault{}, err
	}
	return vault, nil
}

// PluginDir is the extension-local directory inside the vault.
func (v Vault) PluginDir() string {
	return filepath.Join(v.Root, vaultMarkerDir, "plugins", pluginID)
}

// DataPath returns the chat document path for a storage location.
func (v Vault) DataPath(location types.StorageLocation) string {
	if location == types.StorageVault {
		return filepath.Join(v.Root, vaultDataFile)
	}
	return filepath.Join(v.PluginDir(), pluginDataFile)
}

// AlternateDataPath returns the path of the location not selected by location.
func (v Vault) AlternateDataPath(location types.StorageLocation) string {
	if location == types.StorageVault {
		return v.DataPath(types.StoragePlugin)
	}
	return v.DataPath(types.StorageVault)
}

// ConfigPath is the vault-local settings file.
func (v Vault) ConfigPath() string {
	return filepath.Join(v.Root, vaultConfigFile)
}

// RelPath converts an absolute filesystem path inside the vault into the
// slash-separated vault-relative form used by locations.
func (v Vault) RelPath(abs string) (string, bool) {
	rel, err := filepath.Rel(v.Root, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "", true
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// AbsPath converts a vault-relative path to a filesystem path.
func (v Vault) AbsPath(rel string) string {
	return filepath.Join(v.Root, filepath.FromSlash(NormalizeVaultPath(rel)))
}

// LocationFor builds a location for a vault-relative path. A path that is a
// directory on disk is a folder; anything else, including paths that no longer
// exist, is a file.
func (v Vault) LocationFor(rel string, forceFolder bool) types.Location {
	rel = NormalizeVaultPath(rel)
	if rel == "" {
		return types.FolderLocation(RootFolderPath)
	}
	if forceFolder {
		return types.FolderLocation(rel)
	}
	if info, err := os.Stat(v.AbsPath(rel)); err == nil && info.IsDir() {
		return types.FolderLocation(rel)
	}
	return types.FileLocation(rel)
}

// IsHiddenPath reports whether any segment of a vault-relative path starts with
// a dot. Hidden paths hold vault metadata, not notes.
func IsHiddenPath(rel string) bool {
	for _, segment := range strings.Split(rel, "/") {
		if strings.HasPrefix(segment, ".") && segment != "." && segment != ".." {
			return true
		}
	}
	return false
}
