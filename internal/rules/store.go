// Package rules provides PostgreSQL-backed storage for per-chat moderation
// settings and blacklist patterns.
//
// A chat with no explicit settings row is moderated by default; a row is
// only written when an admin toggles moderation, and toggles are upserts
// (last writer wins). Blacklist patterns are normalized to lowercase at
// write time and listed in insertion order. Duplicate patterns are allowed
// and simply match redundantly.
package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Kind distinguishes word patterns from link patterns.
type Kind int

const (
	// KindWord is a plain banned word, matched as a substring.
	KindWord Kind = iota

	// KindLink is a banned link pattern. Besides substring matching, its
	// presence opts the chat into generic link blocking.
	KindLink
)

// Pattern is one blacklist entry for a chat.
type Pattern struct {
	Text string
	Kind Kind
}

// IsLink reports whether the pattern is a link pattern.
func (p Pattern) IsLink() bool { return p.Kind == KindLink }

// Store manages chat settings and blacklist entries in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a rule store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// IsEnabled reports whether moderation is enabled for a chat. Chats with no
// explicit settings row are enabled by default; absence is not an error.
func (s *Store) IsEnabled(ctx context.Context, chatID int64) (bool, error) {
	const query = `SELECT moderation_enabled FROM chat_settings WHERE chat_id = $1`

	var enabled bool
	err := s.db.QueryRowContext(ctx, query, chatID).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("rules: is enabled: %w", err)
	}
	return enabled, nil
}

// SetEnabled records the moderation flag for a chat. The write is an
// idempotent upsert; concurrent toggles serialize at the row level and the
// last writer wins.
func (s *Store) SetEnabled(ctx context.Context, chatID int64, enabled bool) error {
	const query = `
		INSERT INTO chat_settings (chat_id, moderation_enabled)
		VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE
		SET moderation_enabled = EXCLUDED.moderation_enabled, updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, chatID, enabled); err != nil {
		return fmt.Errorf("rules: set enabled: %w", err)
	}
	return nil
}

// Add stores a blacklist pattern for a chat, lowercased. No uniqueness is
// enforced; adding the same pattern twice is allowed.
func (s *Store) Add(ctx context.Context, chatID int64, pattern string, kind Kind) error {
	const query = `INSERT INTO blacklist_entries (chat_id, pattern, is_link) VALUES ($1, $2, $3)`

	normalized := strings.ToLower(strings.TrimSpace(pattern))
	if _, err := s.db.ExecContext(ctx, query, chatID, normalized, kind == KindLink); err != nil {
		return fmt.Errorf("rules: add pattern: %w", err)
	}
	return nil
}

// Remove deletes all entries matching the normalized pattern for a chat.
// Removing a pattern that was never added is a no-op.
func (s *Store) Remove(ctx context.Context, chatID int64, pattern string) error {
	const query = `DELETE FROM blacklist_entries WHERE chat_id = $1 AND pattern = $2`

	normalized := strings.ToLower(strings.TrimSpace(pattern))
	if _, err := s.db.ExecContext(ctx, query, chatID, normalized); err != nil {
		return fmt.Errorf("rules: remove pattern: %w", err)
	}
	return nil
}

// List returns a chat's blacklist in insertion order. A chat with no
// entries yields an empty slice, not an error.
func (s *Store) List(ctx context.Context, chatID int64) ([]Pattern, error) {
	const query = `SELECT pattern, is_link FROM blacklist_entries WHERE chat_id = $1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("rules: list patterns: %w", err)
	}
	defer rows.Close()

	var patterns []Pattern
	for rows.Next() {
		var (
			text   string
			isLink bool
		)
		if err := rows.Scan(&text, &isLink); err != nil {
			return nil, fmt.Errorf("rules: scan pattern: %w", err)
		}
		kind := KindWord
		if isLink {
			kind = KindLink
		}
		patterns = append(patterns, Pattern{Text: text, Kind: kind})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rules: list patterns: %w", err)
	}
	return patterns, nil
}
