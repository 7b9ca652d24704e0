package db

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adamavenir/threadchat/internal/types"
)

const backupFilePrefix = "obsidian-threaded-chat-backup-"

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	ExportJSON   ExportFormat = "json"
	ExportSQLite ExportFormat = "sqlite"
)

// BackupFileName returns the default export file name for a day,
// e.g. obsidian-threaded-chat-backup-2024-03-01.json.
func BackupFileName(format ExportFormat, now time.Time) string {
	ext := ".json"
	if format == ExportSQLite {
		ext = ".db"
	}
	return backupFilePrefix + now.Format("2006-01-02") + ext
}

// Export writes a copy of store to path in the requested format. An empty path
// writes BackupFileName into dir.
func Export(store types.ChatStore, format ExportFormat, dir, path string, now time.Time) (string, error) {
	if path == "" {
		path = filepath.Join(dir, BackupFileName(format, now))
	}
	switch format {
	case ExportJSON, "":
		if err := writeStoreFile(path, store); err != nil {
			return "", fmt.Errorf("export json: %w", err)
		}
	case ExportSQLite:
		if err := ExportSQLiteFile(store, path); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unknown export format %q (use json or sqlite)", format)
	}
	return path, nil
}
