// Package platform abstracts the chat platform operations the moderation
// pipeline needs. The orchestrator and dispatcher depend only on the Client
// interface; the Telegram implementation lives alongside it.
package platform

import (
	"context"
	"time"
)

// Membership is a user's standing in a chat, as reported by the platform.
type Membership struct {
	Status  string
	IsAdmin bool // administrator or creator
}

// Client is the capability object injected into the moderation pipeline.
// All calls are potentially blocking network I/O.
type Client interface {
	// GetMembership looks up a user's membership in a chat.
	GetMembership(ctx context.Context, chatID, userID int64) (Membership, error)

	// DeleteMessage removes a message from a chat. Callers tolerate
	// failure; the message may already be gone.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// RestrictMember revokes a user's send permissions until the given
	// instant.
	RestrictMember(ctx context.Context, chatID, userID int64, until time.Time) error

	// RemoveMember bans a user from a chat. A zero until means permanent.
	RemoveMember(ctx context.Context, chatID, userID int64, until time.Time) error

	// UnbanMember lifts a ban. Combined with RemoveMember it implements
	// kick-without-ban.
	UnbanMember(ctx context.Context, chatID, userID int64) error

	// SendMessage posts a text message (HTML formatting) to a chat.
	SendMessage(ctx context.Context, chatID int64, text string) error
}
