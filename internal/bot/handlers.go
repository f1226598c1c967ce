package bot

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/sentinel/modbot/internal/rules"
)

// Admin panel keyboard. Buttons are package-level so Setup can bind
// handlers to their callback uniques.
var (
	adminMenu    = &tele.ReplyMarkup{}
	btnEnable    = adminMenu.Data("🟢 Enable", "mod_enable")
	btnDisable   = adminMenu.Data("🔴 Disable", "mod_disable")
	btnBlacklist = adminMenu.Data("🚫 Blacklist", "mod_blacklist")
	btnLogs      = adminMenu.Data("📖 Logs", "mod_logs")
	btnWhitelist = adminMenu.Data("🛡 Whitelist", "mod_whitelist")
)

func init() {
	adminMenu.Inline(
		adminMenu.Row(btnEnable),
		adminMenu.Row(btnDisable),
		adminMenu.Row(btnBlacklist),
		adminMenu.Row(btnLogs),
		adminMenu.Row(btnWhitelist),
	)
}

func (b *Bot) cmdAdmin(c tele.Context) error {
	if !b.isAdmin(c) {
		return c.Reply("<b>Insufficient rights.</b>")
	}
	return c.Reply("<b>Admin panel:</b>", adminMenu)
}

func (b *Bot) cbEnable(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if err := b.rules.SetEnabled(ctx, c.Chat().ID, true); err != nil {
		return err
	}
	if err := c.Respond(&tele.CallbackResponse{Text: "✅ Moderation enabled"}); err != nil {
		return err
	}
	return c.Edit("<b>Moderation enabled.</b>", adminMenu)
}

func (b *Bot) cbDisable(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if err := b.rules.SetEnabled(ctx, c.Chat().ID, false); err != nil {
		return err
	}
	if err := c.Respond(&tele.CallbackResponse{Text: "⛔ Moderation disabled"}); err != nil {
		return err
	}
	return c.Edit("<b>Moderation disabled.</b>", adminMenu)
}

func (b *Bot) cbBlacklist(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	patterns, err := b.rules.List(ctx, c.Chat().ID)
	if err != nil {
		return err
	}

	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		return err
	}
	if len(patterns) == 0 {
		return c.Edit("<b>The blacklist is empty.</b>", adminMenu)
	}

	var sb strings.Builder
	sb.WriteString("<b>Blacklist:</b>\n")
	for _, p := range patterns {
		if p.IsLink() {
			fmt.Fprintf(&sb, "— %s (link)\n", p.Text)
		} else {
			fmt.Fprintf(&sb, "— %s\n", p.Text)
		}
	}
	return c.Edit(sb.String(), adminMenu)
}

func (b *Bot) cbLogs(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	entries, err := b.audit.Recent(ctx, c.Chat().ID, 5)
	if err != nil {
		return err
	}

	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		return err
	}
	if len(entries) == 0 {
		return c.Edit("<b>No violations logged.</b>", adminMenu)
	}

	var sb strings.Builder
	sb.WriteString("<b>Recent violations:</b>\n")
	for _, e := range entries {
		who := e.Username
		if who == "" {
			who = fmt.Sprintf("id:%d", e.UserID)
		}
		fmt.Fprintf(&sb, "— %s: %s → %s (%s)\n",
			who, e.Reason, e.Action, e.CreatedAt.Format("2006-01-02 15:04"))
	}
	return c.Edit(sb.String(), adminMenu)
}

func (b *Bot) cbWhitelist(c tele.Context) error {
	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		return err
	}
	return c.Edit("<b>All words and links are allowed except those on the blacklist.</b>", adminMenu)
}

func (b *Bot) cmdBlock(c tele.Context) error {
	return b.addPattern(c, rules.KindWord, "/block", "word")
}

func (b *Bot) cmdBlockLink(c tele.Context) error {
	return b.addPattern(c, rules.KindLink, "/blocklink", "link pattern")
}

func (b *Bot) addPattern(c tele.Context, kind rules.Kind, cmd, what string) error {
	if !b.isAdmin(c) {
		return c.Reply("<b>Insufficient rights.</b>")
	}
	pattern := strings.TrimSpace(c.Message().Payload)
	if pattern == "" {
		return c.Reply(fmt.Sprintf("Usage: %s &lt;%s&gt;", cmd, what))
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if err := b.rules.Add(ctx, c.Chat().ID, pattern, kind); err != nil {
		return err
	}
	return c.Reply(fmt.Sprintf("Blocked %s <b>%s</b>.", what, strings.ToLower(pattern)))
}

func (b *Bot) cmdUnblock(c tele.Context) error {
	if !b.isAdmin(c) {
		return c.Reply("<b>Insufficient rights.</b>")
	}
	pattern := strings.TrimSpace(c.Message().Payload)
	if pattern == "" {
		return c.Reply("Usage: /unblock &lt;pattern&gt;")
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if err := b.rules.Remove(ctx, c.Chat().ID, pattern); err != nil {
		return err
	}
	return c.Reply(fmt.Sprintf("Unblocked <b>%s</b>.", strings.ToLower(pattern)))
}
