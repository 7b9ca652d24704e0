package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/adamavenir/threadchat/internal/core"
	"github.com/adamavenir/threadchat/internal/types"
	_ "modernc.org/sqlite"
)

// ExportSQLiteFile writes store into a fresh SQLite database at path.
// An existing file at path is replaced.
func ExportSQLiteFile(store types.ChatStore, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.Exec(exportSchemaSQL); err != nil {
		return fmt.Errorf("create export schema: %w", err)
	}

	tx, err := conn.Begin()
	if err != nil {
		return err
	}
	if err := insertStore(tx, store); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("export sqlite: %w", err)
	}
	return tx.Commit()
}

func insertStore(tx *sql.Tx, store types.ChatStore) error {
	msgStmt, err := tx.Prepare(`
		INSERT INTO tc_messages (id, content, created_at, author_name, author_id, parent_id, location_kind, location_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer msgStmt.Close()

	reactionStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO tc_reactions (message_id, emoji, reactor_id) VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer reactionStmt.Close()

	indexStmt, err := tx.Prepare(`
		INSERT INTO tc_path_index (path_key, position, message_id) VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer indexStmt.Close()

	ids := make([]string, 0, len(store.Messages))
	for id := range store.Messages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		msg := store.Messages[id]
		var parent any
		if msg.ParentID != nil {
			parent = *msg.ParentID
		}
		if _, err := msgStmt.Exec(msg.ID, msg.Content, msg.CreatedAt, msg.AuthorName, msg.AuthorID,
			parent, string(msg.Location.Kind), msg.Location.Path); err != nil {
			return fmt.Errorf("insert message %s: %w", msg.ID, err)
		}
		for emoji, reactors := range core.NormalizeReactions(msg.Reactions) {
			for _, reactor := range reactors {
				if _, err := reactionStmt.Exec(msg.ID, emoji, reactor); err != nil {
					return fmt.Errorf("insert reaction on %s: %w", msg.ID, err)
				}
			}
		}
	}

	for key, indexed := range store.PathIndex {
		for position, id := range indexed {
			if _, err := indexStmt.Exec(key, position, id); err != nil {
				return fmt.Errorf("insert index %s: %w", key, err)
			}
		}
	}
	return nil
}
