package daemon

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/session"
	"github.com/adamavenir/threadchat/internal/types"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const minSettleInterval = 50 * time.Millisecond

// Migration describes a rename applied to the store.
type Migration struct {
	From types.Location
	To   types.Location
}

// Watcher follows renames inside a vault and moves chat messages with them.
// fsnotify reports a rename as a Rename event for the old name followed by a
// Create event for the new one. The two are paired only when they arrive within
// the pairing window and the new path is the same file the old path was. A
// paired move is applied once the window has passed, and dropped if the old
// path exists again by then (editors that save by renaming to a backup).
// Deletes never touch the store.
type Watcher struct {
	vault   core.Vault
	session *session.Session
	window  time.Duration

	// OnMigrate, when set, is called after each applied migration.
	OnMigrate func(Migration)

	now func() time.Time

	mu      sync.Mutex
	fs      *fsnotify.Watcher
	known   map[string]os.FileInfo // vault-relative paths last seen on disk
	pending *pendingRename
	moves   []pendingMove
}

type pendingRename struct {
	rel  string
	info os.FileInfo
	at   time.Time
}

type pendingMove struct {
	from  string
	to    string
	isDir bool
	at    time.Time
}

// NewWatcher creates a watcher; Run starts it.
func NewWatcher(vault core.Vault, sess *session.Session, window time.Duration) *Watcher {
	return &Watcher{
		vault:   vault,
		session: sess,
		window:  window,
		now:     time.Now,
		known:   map[string]os.FileInfo{},
	}
}

// Run watches the vault until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	w.mu.Lock()
	w.fs = watcher
	w.mu.Unlock()

	if err := w.addTree(w.vault.Root); err != nil {
		return err
	}
	log.Info().Str("vault", w.vault.Root).Int("dirs", w.watchedCount()).Msg("watching vault")

	interval := w.window
	if interval < minSettleInterval {
		interval = minSettleInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.settle(true)
			return nil
		case <-ticker.C:
			w.settle(false)
		case event, ok := <-watcher.Events:
			if !ok {
				w.settle(true)
				return nil
			}
			w.HandleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				w.settle(true)
				return nil
			}
			log.Warn().Err(err).Msg("vault watcher error")
		}
	}
}

// HandleEvent records one filesystem event. Paired renames are applied later
// by settle.
func (w *Watcher) HandleEvent(event fsnotify.Event) {
	rel, ok := w.vault.RelPath(event.Name)
	if !ok || rel == "" || core.IsHiddenPath(rel) {
		return
	}

	switch {
	case event.Has(fsnotify.Rename):
		w.mu.Lock()
		defer w.mu.Unlock()
		// A watched directory reports its own move as well as its parent does.
		if w.pending != nil && w.pending.rel == rel {
			return
		}
		info := w.known[rel]
		w.forget(rel)
		if info == nil {
			log.Debug().Str("path", rel).Msg("rename of untracked path")
			return
		}
		if w.pending != nil {
			log.Debug().Str("path", w.pending.rel).Msg("rename source left the vault")
		}
		w.pending = &pendingRename{rel: rel, info: info, at: w.now()}

	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				log.Warn().Err(err).Str("path", rel).Msg("failed to watch new directory")
			}
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		w.known[rel] = info
		w.dropMovesFrom(rel)
		if src, ok := w.takePending(rel, info); ok {
			w.moves = append(w.moves, pendingMove{from: src.rel, to: rel, isDir: info.IsDir(), at: w.now()})
		}

	case event.Has(fsnotify.Remove):
		w.mu.Lock()
		w.forget(rel)
		w.mu.Unlock()
		log.Debug().Str("path", rel).Msg("location removed, messages retained")
	}
}

// takePending returns the pending rename source when rel is its destination.
// Callers hold w.mu.
func (w *Watcher) takePending(rel string, info os.FileInfo) (pendingRename, bool) {
	if w.pending == nil {
		return pendingRename{}, false
	}
	src := *w.pending
	if w.now().Sub(src.at) > w.window {
		log.Debug().Str("path", src.rel).Msg("rename source expired before its destination appeared")
		w.pending = nil
		return pendingRename{}, false
	}
	if src.rel == rel {
		// The old path came back; nothing moved.
		w.pending = nil
		return pendingRename{}, false
	}
	if !os.SameFile(src.info, info) {
		return pendingRename{}, false
	}
	w.pending = nil
	return src, true
}

// dropMovesFrom cancels queued moves whose source path was created again.
// Callers hold w.mu.
func (w *Watcher) dropMovesFrom(rel string) {
	kept := w.moves[:0]
	for _, m := range w.moves {
		if m.from == rel {
			log.Debug().Str("from", m.from).Str("to", m.to).Msg("rename source recreated, keeping messages")
			continue
		}
		kept = append(kept, m)
	}
	w.moves = kept
}

// settle applies queued moves whose window has passed, or all of them when
// force is set.
func (w *Watcher) settle(force bool) {
	w.mu.Lock()
	var due []pendingMove
	kept := w.moves[:0]
	for _, m := range w.moves {
		if force || w.now().Sub(m.at) >= w.window {
			due = append(due, m)
			continue
		}
		kept = append(kept, m)
	}
	w.moves = kept
	w.mu.Unlock()

	for _, m := range due {
		if _, err := os.Lstat(w.vault.AbsPath(m.from)); err == nil {
			log.Debug().Str("from", m.from).Str("to", m.to).Msg("rename source exists again, keeping messages")
			continue
		}
		w.migrate(m)
	}
}

func (w *Watcher) migrate(m pendingMove) {
	var from, to types.Location
	var fn func(types.ChatStore) types.ChatStore
	if m.isDir {
		from, to = types.FolderLocation(m.from), types.FolderLocation(m.to)
		fn = func(store types.ChatStore) types.ChatStore {
			return core.MigrateFolderTree(store, m.from, m.to)
		}
	} else {
		from, to = types.FileLocation(m.from), types.FileLocation(m.to)
		fn = func(store types.ChatStore) types.ChatStore {
			return core.MigrateLocation(store, from, to)
		}
	}

	if _, err := w.session.Update(fn); err != nil {
		log.Warn().Err(err).Str("from", m.from).Str("to", m.to).Msg("failed to migrate messages")
		return
	}
	log.Info().Str("from", core.PathKey(from)).Str("to", core.PathKey(to)).Msg("migrated messages")
	if w.OnMigrate != nil {
		w.OnMigrate(Migration{From: from, To: to})
	}
}

// addTree watches dir and every non-hidden directory below it, and records the
// identity of every non-hidden path.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, ok := w.vault.RelPath(path)
		if !ok {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if rel != "" && core.IsHiddenPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		if rel != "" {
			w.known[rel] = info
		}
		if d.IsDir() && w.fs != nil {
			if err := w.fs.Add(path); err != nil {
				log.Debug().Err(err).Str("path", path).Msg("failed to watch directory")
			}
		}
		return nil
	})
}

// forget drops rel and everything below it. Callers hold w.mu.
func (w *Watcher) forget(rel string) {
	prefix := rel + "/"
	for path := range w.known {
		if path == rel || strings.HasPrefix(path, prefix) {
			delete(w.known, path)
		}
	}
}

func (w *Watcher) watchedDir(rel string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	info, ok := w.known[rel]
	return ok && info.IsDir()
}

func (w *Watcher) watchedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	count := 1
	for _, info := range w.known {
		if info.IsDir() {
			count++
		}
	}
	return count
}
