// Package moderator ties the moderation pipeline together: for each
// incoming group message it checks the chat's enabled flag, skips exempt
// senders, classifies the text against the blacklist, and on a violation
// deletes the message, applies the punishment, notifies the chat, and
// records an audit entry.
package moderator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/sentinel/modbot/internal/classify"
	"github.com/sentinel/modbot/internal/messaging"
	"github.com/sentinel/modbot/internal/metrics"
	"github.com/sentinel/modbot/internal/platform"
	"github.com/sentinel/modbot/internal/punish"
	"github.com/sentinel/modbot/internal/rules"
)

// Message is the platform-neutral view of one incoming chat message.
type Message struct {
	ChatID    int64
	MessageID int
	UserID    int64
	Username  string // may be empty
	Text      string
	Caption   string
	Private   bool // direct conversation with the bot
}

// body returns the moderated text: message body, or caption when the
// message carries media instead.
func (m Message) body() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// RuleStore is the slice of the rules store the moderator reads.
type RuleStore interface {
	IsEnabled(ctx context.Context, chatID int64) (bool, error)
	List(ctx context.Context, chatID int64) ([]rules.Pattern, error)
}

// AuditLog records punishment events.
type AuditLog interface {
	Record(ctx context.Context, chatID, userID int64, username, action, reason string) error
}

// Exempter answers whether a sender is a chat admin or creator.
type Exempter interface {
	IsExempt(ctx context.Context, chatID, userID int64) (bool, error)
}

// EventPublisher receives serialized punishment events. May be nil.
type EventPublisher interface {
	PublishPunishmentEvent(chatID int64, data []byte) error
}

// Moderator orchestrates one moderation pass per message.
type Moderator struct {
	rules      RuleStore
	audit      AuditLog
	exempter   Exempter
	dispatcher *punish.Dispatcher
	platform   platform.Client
	events     EventPublisher
	ownerID    int64
}

// New creates a moderator. events may be nil to disable the event stream.
func New(ruleStore RuleStore, auditLog AuditLog, exempter Exempter, dispatcher *punish.Dispatcher, client platform.Client, events EventPublisher, ownerID int64) *Moderator {
	return &Moderator{
		rules:      ruleStore,
		audit:      auditLog,
		exempter:   exempter,
		dispatcher: dispatcher,
		platform:   client,
		events:     events,
		ownerID:    ownerID,
	}
}

// HandleMessage runs one moderation pass. It returns an error only for
// storage failures; platform failures degrade per policy (deletion failures
// are ignored, punishment failures turn into a logged, visible outcome).
func (m *Moderator) HandleMessage(ctx context.Context, msg Message) error {
	if msg.Private {
		return nil
	}
	metrics.MessagesChecked.Inc()

	enabled, err := m.rules.IsEnabled(ctx, msg.ChatID)
	if err != nil {
		return fmt.Errorf("moderator: enabled check: %w", err)
	}
	if !enabled {
		return nil
	}

	if msg.UserID == m.ownerID {
		return nil
	}
	exempt, err := m.exempter.IsExempt(ctx, msg.ChatID, msg.UserID)
	if err != nil {
		// Fail closed: an unverifiable sender is moderated rather than
		// waved through on a failed admin check.
		log.Printf("[moderator] exemption check failed for user=%d chat=%d, moderating anyway: %v",
			msg.UserID, msg.ChatID, err)
		exempt = false
	}
	if exempt {
		return nil
	}

	patterns, err := m.rules.List(ctx, msg.ChatID)
	if err != nil {
		return fmt.Errorf("moderator: list patterns: %w", err)
	}

	violation, ok := classify.Evaluate(msg.body(), patterns)
	if !ok {
		return nil
	}
	metrics.ViolationsTotal.WithLabelValues(string(violation.Category)).Inc()

	// The message may already be gone; deletion failure is tolerated.
	if err := m.platform.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
		log.Printf("[moderator] delete message=%d chat=%d failed: %v", msg.MessageID, msg.ChatID, err)
	}

	kind, duration := m.dispatcher.ForViolation(violation)
	outcome := m.dispatcher.Apply(ctx, msg.ChatID, msg.UserID, kind, duration)

	notice := fmt.Sprintf("<b>User %s violated the chat rules (%s) and received %s.</b>",
		formatOffender(msg.UserID, msg.Username), violation.Category, outcome)
	if err := m.platform.SendMessage(ctx, msg.ChatID, notice); err != nil {
		log.Printf("[moderator] notify chat=%d failed: %v", msg.ChatID, err)
	}

	if err := m.audit.Record(ctx, msg.ChatID, msg.UserID, msg.Username, string(outcome), string(violation.Category)); err != nil {
		return fmt.Errorf("moderator: record audit entry: %w", err)
	}

	m.publishEvent(msg, string(outcome), string(violation.Category))
	return nil
}

// publishEvent emits a best-effort punishment event to the event stream.
func (m *Moderator) publishEvent(msg Message, action, reason string) {
	if m.events == nil {
		return
	}
	event := messaging.PunishmentEvent{
		ID:       uuid.NewString(),
		ChatID:   msg.ChatID,
		UserID:   msg.UserID,
		Username: msg.Username,
		Action:   action,
		Reason:   reason,
		Ts:       time.Now().UTC().Unix(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[moderator] marshal punishment event: %v", err)
		return
	}
	if err := m.events.PublishPunishmentEvent(msg.ChatID, data); err != nil {
		log.Printf("[moderator] publish punishment event chat=%d: %v", msg.ChatID, err)
	}
}

// formatOffender renders the offender for the public notification: the
// username in bold when present, otherwise their numeric id.
func formatOffender(userID int64, username string) string {
	if username != "" {
		return "<b>" + username + "</b>"
	}
	return fmt.Sprintf("<b>id:%d</b>", userID)
}
