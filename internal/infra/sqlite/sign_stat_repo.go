package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"channel-signature-bot/internal/domain"
)

// SignStatRepo logs every sign attempt so the stats menu survives restarts.
type SignStatRepo struct {
	db *sql.DB
}

func NewSignStatRepo(dsn string) (*SignStatRepo, error) {
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
			}
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", dsn, err)
	}
	// SQLite serialises writes; one connection also keeps :memory: stable.
	db.SetMaxOpenConns(1)
	if err := migrateSignEvents(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &SignStatRepo{db: db}, nil
}

func migrateSignEvents(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS sign_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    channel_id TEXT NOT NULL,
    message_id INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sign_events_outcome ON sign_events(outcome);
`)
	return err
}

func (r *SignStatRepo) Save(ev domain.SignEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO sign_events(channel_id, message_id, outcome, created_at) VALUES(?,?,?,?)`,
		ev.ChannelID, ev.MessageID, string(ev.Outcome), ev.CreatedAt)
	return err
}

func (r *SignStatRepo) Counts() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT channel_id, COUNT(*) FROM sign_events WHERE outcome = ? GROUP BY channel_id`, string(domain.SignSigned))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var id string
		var cnt int
		if err := rows.Scan(&id, &cnt); err != nil {
			return nil, err
		}
		out[id] = cnt
	}
	return out, rows.Err()
}

func (r *SignStatRepo) Close() error { return r.db.Close() }
