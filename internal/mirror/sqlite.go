package mirror

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/creasion/crm/internal/errs"
	"github.com/creasion/crm/internal/model"
)

// The mirror holds exactly one document, so the table is keyed by a
// fixed id.
const docKey = "appdata"

const schema = `
CREATE TABLE IF NOT EXISTS mirror (
  key        TEXT PRIMARY KEY,
  content    BLOB NOT NULL,
  updated_at TEXT NOT NULL
);`

// SQLite is a Mirror backed by a local SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the mirror database at path.
// Use ":memory:" for an ephemeral mirror.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init mirror schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (m *SQLite) Put(ctx context.Context, data *model.AppData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode mirror document: %w", err)
	}
	_, err = m.db.ExecContext(ctx, `
		INSERT INTO mirror (key, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
	`, docKey, raw, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write mirror document: %w", err)
	}
	return nil
}

func (m *SQLite) Get(ctx context.Context) (*model.AppData, error) {
	var raw []byte
	err := m.db.QueryRowContext(ctx, `SELECT content FROM mirror WHERE key = ?`, docKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror document: %w", err)
	}
	var data model.AppData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode mirror document: %w", err)
	}
	return &data, nil
}

func (m *SQLite) Close() error { return m.db.Close() }
