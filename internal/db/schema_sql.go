package db

const exportSchemaSQL = `
-- One row per message
CREATE TABLE tc_messages (
  id TEXT PRIMARY KEY,                 -- e.g., "msg-0190a1b2-..."
  content TEXT NOT NULL,
  created_at INTEGER NOT NULL,         -- unix milliseconds
  author_name TEXT NOT NULL,
  author_id TEXT NOT NULL,
  parent_id TEXT,                      -- null for thread roots
  location_kind TEXT NOT NULL,         -- "file" or "folder"
  location_path TEXT NOT NULL
);

CREATE INDEX idx_tc_messages_location ON tc_messages(location_kind, location_path);
CREATE INDEX idx_tc_messages_parent ON tc_messages(parent_id);

-- Reactions, one row per (message, emoji, reactor)
CREATE TABLE tc_reactions (
  message_id TEXT NOT NULL,
  emoji TEXT NOT NULL,
  reactor_id TEXT NOT NULL,
  PRIMARY KEY (message_id, emoji, reactor_id),
  FOREIGN KEY (message_id) REFERENCES tc_messages(id)
);

-- Location index, position preserves sequence order
CREATE TABLE tc_path_index (
  path_key TEXT NOT NULL,              -- "kind:path"
  position INTEGER NOT NULL,
  message_id TEXT NOT NULL,
  PRIMARY KEY (path_key, position)
);
`
