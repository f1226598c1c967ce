package platform

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/sentinel/modbot/internal/metrics"
)

// Telegram implements Client on top of a telebot connection. The telebot
// API does not take contexts; the ctx parameters exist so callers remain
// cancel-aware when another platform is wired in.
type Telegram struct {
	bot *tele.Bot
}

// NewTelegram wraps an already-connected telebot instance.
func NewTelegram(bot *tele.Bot) *Telegram {
	return &Telegram{bot: bot}
}

func (t *Telegram) GetMembership(ctx context.Context, chatID, userID int64) (Membership, error) {
	member, err := t.bot.ChatMemberOf(&tele.Chat{ID: chatID}, &tele.User{ID: userID})
	if err != nil {
		metrics.PlatformErrors.WithLabelValues("get_membership").Inc()
		return Membership{}, fmt.Errorf("platform: get membership: %w", err)
	}
	return Membership{
		Status:  string(member.Role),
		IsAdmin: member.Role == tele.Administrator || member.Role == tele.Creator,
	}, nil
}

func (t *Telegram) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	msg := tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
	if err := t.bot.Delete(msg); err != nil {
		metrics.PlatformErrors.WithLabelValues("delete_message").Inc()
		return fmt.Errorf("platform: delete message: %w", err)
	}
	return nil
}

func (t *Telegram) RestrictMember(ctx context.Context, chatID, userID int64, until time.Time) error {
	member := &tele.ChatMember{
		User:            &tele.User{ID: userID},
		RestrictedUntil: until.Unix(),
		Rights: tele.Rights{
			CanSendMessages: false,
			CanSendMedia:    false,
			CanSendPolls:    false,
			CanSendOther:    false,
			CanAddPreviews:  false,
		},
	}
	if err := t.bot.Restrict(&tele.Chat{ID: chatID}, member); err != nil {
		metrics.PlatformErrors.WithLabelValues("restrict_member").Inc()
		return fmt.Errorf("platform: restrict member: %w", err)
	}
	return nil
}

func (t *Telegram) RemoveMember(ctx context.Context, chatID, userID int64, until time.Time) error {
	restrictedUntil := tele.Forever()
	if !until.IsZero() {
		restrictedUntil = until.Unix()
	}
	member := &tele.ChatMember{
		User:            &tele.User{ID: userID},
		RestrictedUntil: restrictedUntil,
	}
	if err := t.bot.Ban(&tele.Chat{ID: chatID}, member); err != nil {
		metrics.PlatformErrors.WithLabelValues("remove_member").Inc()
		return fmt.Errorf("platform: remove member: %w", err)
	}
	return nil
}

func (t *Telegram) UnbanMember(ctx context.Context, chatID, userID int64) error {
	if err := t.bot.Unban(&tele.Chat{ID: chatID}, &tele.User{ID: userID}); err != nil {
		metrics.PlatformErrors.WithLabelValues("unban_member").Inc()
		return fmt.Errorf("platform: unban member: %w", err)
	}
	return nil
}

func (t *Telegram) SendMessage(ctx context.Context, chatID int64, text string) error {
	if _, err := t.bot.Send(tele.ChatID(chatID), text, tele.ModeHTML); err != nil {
		metrics.PlatformErrors.WithLabelValues("send_message").Inc()
		return fmt.Errorf("platform: send message: %w", err)
	}
	return nil
}
