// Package sheetstub emulates the spreadsheet-backed remote endpoint on
// SQLite so the client can be developed and tested offline.
package sheetstub

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cast"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS rows (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    TEXT NOT NULL,
	sheet      TEXT NOT NULL,
	memo_id    TEXT NOT NULL DEFAULT '',
	data       TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
	user_id TEXT PRIMARY KEY,
	data    TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_rows_user_sheet ON rows(user_id, sheet);
CREATE INDEX IF NOT EXISTS idx_rows_memo ON rows(user_id, memo_id);
`

// DB stores rows as JSON documents, one logical sheet per category.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sheetstub: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sheetstub: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sheetstub: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Append adds one row to sheet.
func (db *DB) Append(userID, sheet string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sheetstub: encode row: %w", err)
	}
	_, err = db.conn.Exec(
		`INSERT INTO rows (user_id, sheet, memo_id, data) VALUES (?, ?, ?, ?)`,
		userID, sheet, idOf(data), string(raw))
	if err != nil {
		return fmt.Errorf("sheetstub: append: %w", err)
	}
	return nil
}

// Update replaces the rows of sheet whose id matches data["id"].
// It reports whether any row matched.
func (db *DB) Update(userID, sheet string, data map[string]any) (bool, error) {
	id := idOf(data)
	if id == "" {
		return false, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return false, fmt.Errorf("sheetstub: encode row: %w", err)
	}
	res, err := db.conn.Exec(
		`UPDATE rows SET data = ? WHERE user_id = ? AND sheet = ? AND memo_id = ?`,
		string(raw), userID, sheet, id)
	if err != nil {
		return false, fmt.Errorf("sheetstub: update: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Delete removes the rows of sheet with the given id.
func (db *DB) Delete(userID, sheet, id string) (bool, error) {
	res, err := db.conn.Exec(
		`DELETE FROM rows WHERE user_id = ? AND sheet = ? AND memo_id = ?`,
		userID, sheet, id)
	if err != nil {
		return false, fmt.Errorf("sheetstub: delete: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Rows returns every row of userID grouped by sheet, in insertion order.
func (db *DB) Rows(userID string) (map[string][]json.RawMessage, error) {
	rows, err := db.conn.Query(
		`SELECT sheet, data FROM rows WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sheetstub: rows: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]json.RawMessage)
	for rows.Next() {
		var sheet, data string
		if err := rows.Scan(&sheet, &data); err != nil {
			return nil, err
		}
		out[sheet] = append(out[sheet], json.RawMessage(data))
	}
	return out, rows.Err()
}

// Settings returns the stored settings of userID, or nil when none exist.
func (db *DB) Settings(userID string) (map[string]any, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT data FROM settings WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sheetstub: settings: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("sheetstub: decode settings: %w", err)
	}
	return out, nil
}

// MergeSettings overlays patch onto the stored settings of userID.
func (db *DB) MergeSettings(userID string, patch map[string]any) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("sheetstub: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	cur := map[string]any{}
	var raw string
	switch err := tx.QueryRow(`SELECT data FROM settings WHERE user_id = ?`, userID).Scan(&raw); {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("sheetstub: read settings: %w", err)
	default:
		_ = json.Unmarshal([]byte(raw), &cur)
	}
	for k, v := range patch {
		cur[k] = v
	}

	merged, err := json.Marshal(cur)
	if err != nil {
		return fmt.Errorf("sheetstub: encode settings: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO settings (user_id, data) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET data = excluded.data
	`, userID, string(merged))
	if err != nil {
		return fmt.Errorf("sheetstub: save settings: %w", err)
	}
	return tx.Commit()
}

func idOf(data map[string]any) string {
	return cast.ToString(data["id"])
}
