package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cookies (
  host TEXT NOT NULL,
  path TEXT NOT NULL,
  name TEXT NOT NULL,
  scheme TEXT NOT NULL,
  value TEXT NOT NULL,
  domain TEXT,
  secure INTEGER NOT NULL,
  http_only INTEGER NOT NULL,
  expires_unix INTEGER,
  PRIMARY KEY (host, path, name)
);
CREATE TABLE IF NOT EXISTS run_payloads (
  key TEXT PRIMARY KEY,
  payload TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`

// Open opens (creating if needed) the local database and applies the schema.
func Open(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
