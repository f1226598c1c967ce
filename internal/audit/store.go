// Package audit provides the append-only PostgreSQL log of punishment
// events. Entries are immutable once written and are retrieved
// most-recent-first by insertion order (the auto-increment id, not the
// timestamp, so ordering stays stable under clock skew).
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Entry is one recorded punishment event.
type Entry struct {
	ID        int64
	ChatID    int64
	UserID    int64
	Username  string // may be empty
	Action    string // punishment kind applied, or the failure marker
	Reason    string // human-readable violation description
	CreatedAt time.Time
}

// Store manages the moderation log in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates an audit store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record appends one entry stamped with the current UTC instant.
func (s *Store) Record(ctx context.Context, chatID, userID int64, username, action, reason string) error {
	const query = `
		INSERT INTO moderation_logs (chat_id, user_id, username, action, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query, chatID, userID, username, action, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("audit: record: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for one chat, most recent first.
func (s *Store) Recent(ctx context.Context, chatID int64, limit int) ([]Entry, error) {
	const query = `
		SELECT id, chat_id, user_id, username, action, reason, created_at
		FROM moderation_logs
		WHERE chat_id = $1
		ORDER BY id DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, chatID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("audit: recent: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// RecentGlobal returns up to limit entries across all chats, most recent
// first. Used for operator-level oversight.
func (s *Store) RecentGlobal(ctx context.Context, limit int) ([]Entry, error) {
	const query = `
		SELECT id, chat_id, user_id, username, action, reason, created_at
		FROM moderation_logs
		ORDER BY id DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("audit: recent global: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	return limit
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ChatID, &e.UserID, &e.Username, &e.Action, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate entries: %w", err)
	}
	return entries, nil
}
