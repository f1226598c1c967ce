// Package bot wires the Telegram surface: the message monitor feeding the
// moderation pipeline, the /admin inline-keyboard panel, and the blacklist
// management commands. Everything here is thin glue over telebot; the
// decisions live in the moderator, rules, and audit packages.
package bot

import (
	"context"
	"log"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/sentinel/modbot/internal/audit"
	"github.com/sentinel/modbot/internal/moderator"
	"github.com/sentinel/modbot/internal/rules"
)

// handleTimeout bounds the store and platform work done for one update.
const handleTimeout = 30 * time.Second

// Bot is the Telegram front end of the moderation service.
type Bot struct {
	tb      *tele.Bot
	rules   *rules.Store
	audit   *audit.Store
	mod     *moderator.Moderator
	ownerID int64
}

// New connects to the Telegram Bot API with long polling. Handlers are not
// registered until Setup is called, so callers can build the moderator
// around the platform adapter first.
func New(token string, ownerID int64) (*Bot, error) {
	tb, err := tele.NewBot(tele.Settings{
		Token:     token,
		Poller:    &tele.LongPoller{Timeout: 10 * time.Second},
		ParseMode: tele.ModeHTML,
		OnError: func(err error, c tele.Context) {
			log.Printf("[bot] handler error: %v", err)
		},
	})
	if err != nil {
		return nil, err
	}
	return &Bot{tb: tb, ownerID: ownerID}, nil
}

// Telebot exposes the underlying telebot instance for the platform adapter.
func (b *Bot) Telebot() *tele.Bot {
	return b.tb
}

// Setup registers all handlers. Must be called before Start.
func (b *Bot) Setup(mod *moderator.Moderator, ruleStore *rules.Store, auditLog *audit.Store) {
	b.mod = mod
	b.rules = ruleStore
	b.audit = auditLog

	b.tb.Handle("/admin", b.cmdAdmin)
	b.tb.Handle("/block", b.cmdBlock)
	b.tb.Handle("/blocklink", b.cmdBlockLink)
	b.tb.Handle("/unblock", b.cmdUnblock)

	b.tb.Handle(&btnEnable, b.cbEnable)
	b.tb.Handle(&btnDisable, b.cbDisable)
	b.tb.Handle(&btnBlacklist, b.cbBlacklist)
	b.tb.Handle(&btnLogs, b.cbLogs)
	b.tb.Handle(&btnWhitelist, b.cbWhitelist)

	b.tb.Handle(tele.OnText, b.onMessage)
	b.tb.Handle(tele.OnMedia, b.onMessage)
}

// Start begins long polling. Blocks until Stop is called.
func (b *Bot) Start() {
	log.Printf("[bot] long polling started")
	b.tb.Start()
}

// Stop halts long polling.
func (b *Bot) Stop() {
	b.tb.Stop()
}

// onMessage feeds every group message through the moderation pipeline.
func (b *Bot) onMessage(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Sender == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	return b.mod.HandleMessage(ctx, moderator.Message{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		UserID:    msg.Sender.ID,
		Username:  msg.Sender.Username,
		Text:      msg.Text,
		Caption:   msg.Caption,
		Private:   msg.Chat.Type == tele.ChatPrivate,
	})
}

// isAdmin reports whether the sender may use the admin surface: chat
// administrator, chat creator, or the configured bot owner.
func (b *Bot) isAdmin(c tele.Context) bool {
	if c.Sender().ID == b.ownerID {
		return true
	}
	member, err := b.tb.ChatMemberOf(c.Chat(), c.Sender())
	if err != nil {
		log.Printf("[bot] admin check failed for user=%d chat=%d: %v", c.Sender().ID, c.Chat().ID, err)
		return false
	}
	return member.Role == tele.Administrator || member.Role == tele.Creator
}
