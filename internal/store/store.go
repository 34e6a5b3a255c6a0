package store

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/ibeckermayer/replyloop/internal/types"
)

// History records analysis runs and post attempts in SQLite
type History struct {
	db *sql.DB
}

// OpenHistory opens (creating when needed) the history database at dbPath
func OpenHistory(dbPath string) (*History, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One writer at a time keeps sqlite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	h := &History{db: db}
	if err := h.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return h, nil
}

// Close closes the database connection
func (h *History) Close() error {
	return h.db.Close()
}

// migrate creates the database schema
func (h *History) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		total_items INTEGER NOT NULL,
		on_topic_count INTEGER NOT NULL,
		best_score REAL,
		best_url TEXT,
		reply_text TEXT
	);

	CREATE TABLE IF NOT EXISTS replies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT REFERENCES runs(run_id),
		url TEXT NOT NULL,
		text TEXT NOT NULL,
		edited BOOLEAN,
		posted BOOLEAN,
		screenshot TEXT,
		error TEXT,
		posted_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_replies_posted_at ON replies(posted_at);
	`

	_, err := h.db.Exec(schema)
	return err
}

// RecordRun inserts or updates the row for an analysis result
func (h *History) RecordRun(r *types.Result) error {
	_, err := h.db.Exec(`
		INSERT INTO runs (run_id, created_at, total_items, on_topic_count, best_score, best_url, reply_text)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			best_score = excluded.best_score,
			best_url = excluded.best_url,
			reply_text = excluded.reply_text
	`, r.RunID, r.CreatedAt.UTC(), r.Summary.TotalItems, r.Summary.OnTopicCount,
		r.Summary.BestScore, r.BestItem.URL, r.GeneratedReply.Text)

	return err
}

// RecordReply stores a post attempt for a run
func (h *History) RecordReply(runID, url string, p *types.Posting) error {
	_, err := h.db.Exec(`
		INSERT INTO replies (run_id, url, text, edited, posted, screenshot, error, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, url, p.ReplyText, p.Edited, p.Posted, p.Screenshot, p.Error, p.PostedAt.UTC())

	return err
}

// ListRuns returns the most recent runs, newest first
func (h *History) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := h.db.Query(`
		SELECT run_id, created_at, total_items, on_topic_count,
			COALESCE(best_score, 0), COALESCE(best_url, ''), COALESCE(reply_text, '')
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.RunID, &r.CreatedAt, &r.TotalItems, &r.OnTopicCount,
			&r.BestScore, &r.BestURL, &r.ReplyText); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListReplies returns the most recent post attempts, newest first
func (h *History) ListReplies(limit int) ([]ReplyRecord, error) {
	rows, err := h.db.Query(`
		SELECT id, COALESCE(run_id, ''), url, text, edited, posted,
			COALESCE(screenshot, ''), COALESCE(error, ''), posted_at
		FROM replies
		ORDER BY posted_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var replies []ReplyRecord
	for rows.Next() {
		var r ReplyRecord
		if err := rows.Scan(&r.ID, &r.RunID, &r.URL, &r.Text, &r.Edited, &r.Posted,
			&r.Screenshot, &r.Error, &r.PostedAt); err != nil {
			return nil, err
		}
		replies = append(replies, r)
	}
	return replies, rows.Err()
}
