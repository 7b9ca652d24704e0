package db

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/types"
	"github.com/rs/zerolog/log"
)

// Storage reads and writes the chat document of one vault. It remembers the
// identity of the document it last read or wrote so long-running sessions can
// notice writes made by other processes.
type Storage struct {
	vault    core.Vault
	location types.StorageLocation
	now      func() time.Time

	mu      sync.Mutex
	seen    os.FileInfo // configured document as of the last load or save
	corrupt string      // unreadable document to set aside before the next save
}

// NewStorage returns storage for the given vault and configured location.
func NewStorage(vault core.Vault, location types.StorageLocation) *Storage {
	return &Storage{vault: vault, location: location, now: time.Now}
}

// Path is where Save writes.
func (s *Storage) Path() string {
	return s.vault.DataPath(s.location)
}

// Load reads the chat document. When the configured location has no data the
// alternate location is tried, and when neither has data the store is empty.
// Load never fails: unreadable or malformed data is logged and replaced with an
// empty store. The returned path is the file the store came from, or "".
func (s *Storage) Load() (types.ChatStore, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Refresh reloads the document when it was replaced since the last load or
// save made through s, and reports whether it did.
func (s *Storage) Refresh() (types.ChatStore, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sameDocument(s.seen, statFile(s.Path())) {
		return types.ChatStore{}, false
	}
	store, path := s.loadLocked()
	log.Info().Str("path", path).Int("messages", len(store.Messages)).Msg("chat data changed on disk, reloaded")
	return store, true
}

func (s *Storage) loadLocked() (types.ChatStore, string) {
	s.seen = statFile(s.Path())
	s.corrupt = ""

	path := s.Path()
	if !fileExists(path) {
		alt := s.vault.AlternateDataPath(s.location)
		if !fileExists(alt) {
			return types.NewChatStore(), ""
		}
		log.Info().Str("path", alt).Msg("chat data found in alternate location")
		path = alt
	}

	store, err := ReadStoreFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to load chat store, starting empty")
		s.corrupt = path
		return types.NewChatStore(), path
	}
	return store, path
}

// Save writes the store to the configured location. The document is written to
// a temporary file in the same directory and renamed into place. A document
// that failed to load is first renamed to <name>.corrupt-<time>.
func (s *Storage) Save(store types.ChatStore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.corrupt != "" {
		kept := s.corrupt + ".corrupt-" + s.now().Format("20060102T150405")
		if err := os.Rename(s.corrupt, kept); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("set aside unreadable chat data: %w", err)
		}
		log.Warn().Str("path", kept).Msg("unreadable chat data kept for recovery")
		s.corrupt = ""
	}

	if err := writeStoreFile(s.Path(), store); err != nil {
		return fmt.Errorf("save chat store: %w", err)
	}
	s.seen = statFile(s.Path())
	return nil
}

// ReadStoreFile decodes and normalizes a chat document.
func ReadStoreFile(path string) (types.ChatStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ChatStore{}, err
	}
	return DecodeStore(data)
}

// DecodeStore parses a chat document. Documents whose records carry an unknown
// location kind are rejected as schema mismatches.
func DecodeStore(data []byte) (types.ChatStore, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return types.ChatStore{}, errors.New("empty chat document")
	}
	var store types.ChatStore
	if err := json.Unmarshal(data, &store); err != nil {
		return types.ChatStore{}, fmt.Errorf("decode chat document: %w", err)
	}
	return normalizeStore(store)
}

// EncodeStore renders the document with two-space indentation.
func EncodeStore(store types.ChatStore) ([]byte, error) {
	if store.Messages == nil {
		store.Messages = map[string]types.Message{}
	}
	if store.PathIndex == nil {
		store.PathIndex = map[string][]string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(store); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func normalizeStore(store types.ChatStore) (types.ChatStore, error) {
	out := types.NewChatStore()
	for key, msg := range store.Messages {
		if msg.ID == "" {
			msg.ID = key
		}
		if msg.ID != key {
			return types.ChatStore{}, fmt.Errorf("message %s stored under key %s", msg.ID, key)
		}
		if !msg.Location.Kind.Valid() {
			return types.ChatStore{}, fmt.Errorf("message %s has unknown location type %q", key, msg.Location.Kind)
		}
		if msg.ParentID != nil && *msg.ParentID == "" {
			msg.ParentID = nil
		}
		msg.Reactions = core.NormalizeReactions(msg.Reactions)
		out.Messages[key] = msg
	}
	for key, ids := range store.PathIndex {
		if _, ok := core.ParsePathKey(key); !ok {
			return types.ChatStore{}, fmt.Errorf("malformed index key %q", key)
		}
		if ids == nil {
			ids = []string{}
		}
		out.PathIndex[key] = ids
	}
	return out, nil
}

func writeStoreFile(path string, store types.ChatStore) error {
	data, err := EncodeStore(store)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// fileExists reports whether path is a regular file with content. An empty
// file counts as missing.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

func statFile(path string) os.FileInfo {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	return info
}

// sameDocument reports whether two stats describe the same unchanged file.
// Saves replace the file by rename, so a write by anyone changes its identity.
func sameDocument(a, b os.FileInfo) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return os.SameFile(a, b) && a.Size() == b.Size() && a.ModTime().Equal(b.ModTime())
}
