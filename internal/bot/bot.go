// Package bot wires the Telegram surface: commands, callbacks, and the
// conversation state machine that walks users through orders, refills, and
// the admin flows.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/orderbot/core/telegram/format"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"
	"github.com/m3rciful/orderbot/core/telegram/session"
	"github.com/m3rciful/orderbot/internal/catalog"
	"github.com/m3rciful/orderbot/internal/moderation"
	"github.com/m3rciful/orderbot/internal/order"
	"github.com/m3rciful/orderbot/internal/provider"
	"github.com/m3rciful/orderbot/internal/store"
	"github.com/m3rciful/orderbot/internal/users"
)

// CatalogFunc supplies the current catalog snapshot, typically backed by a
// short-lived cache over the provider API.
type CatalogFunc func(ctx context.Context) (*catalog.Catalog, error)

// ShopSettings carries the user-facing commerce parameters.
type ShopSettings struct {
	MinDeposit    int64
	SupportHandle string
	NotifyGroupID int64
	CurrencyLabel string
}

// Options collects the dependencies of the bot surface.
type Options struct {
	Users      *users.Service
	Moderation *moderation.Service
	Workflow   *order.Workflow
	Panel      *provider.Client
	Catalog    CatalogFunc
	Sessions   *session.Cache

	AdminIDs []int64
	Shop     ShopSettings
}

// Bot holds the handler state shared across commands and callbacks.
type Bot struct {
	users      *users.Service
	moderation *moderation.Service
	workflow   *order.Workflow
	panel      *provider.Client
	catalog    CatalogFunc
	sessions   *session.Cache

	adminIDs []int64
	shop     ShopSettings
}

// New builds the bot surface.
func New(opts Options) *Bot {
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewCache(0)
	}
	return &Bot{
		users:      opts.Users,
		moderation: opts.Moderation,
		workflow:   opts.Workflow,
		panel:      opts.Panel,
		catalog:    opts.Catalog,
		sessions:   sessions,
		adminIDs:   opts.AdminIDs,
		shop:       opts.Shop,
	}
}

// IsAdmin reports whether the user id is in the configured admin list.
func (b *Bot) IsAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// requireUser resolves the sender's account record. Unregistered senders
// get the registration hint and (nil, nil) back, so callers must check the
// user for nil.
func (b *Bot) requireUser(c tele.Context) (*store.User, error) {
	sender := c.Sender()
	if sender == nil {
		return nil, fmt.Errorf("bot: update without sender")
	}
	u := b.users.Get(sender.ID)
	if u == nil {
		return nil, tghelpers.SendMD(c, msgNotRegistered, registerMarkup())
	}
	return u, nil
}

// ensureUser resolves the sender's record, creating it if needed. Used by
// admin flows so an admin can moderate before ever sending /start.
func (b *Bot) ensureUser(c tele.Context) (*store.User, error) {
	sender := c.Sender()
	if sender == nil {
		return nil, fmt.Errorf("bot: update without sender")
	}
	if u := b.users.Get(sender.ID); u != nil {
		return u, nil
	}
	if _, err := b.users.Register(ctxOf(c), sender.ID, senderName(sender), sender.Username); err != nil {
		return nil, err
	}
	return b.users.Get(sender.ID), nil
}

func senderName(u *tele.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

// panelMessage extracts the user-facing message from an upstream panel
// rejection. Transport and decode errors carry internal detail and report
// false; those get logged, not echoed into chat.
func panelMessage(err error) (string, bool) {
	var perr *provider.Error
	if errors.As(err, &perr) {
		return perr.Message, true
	}
	return "", false
}

// mdSafe escapes user-supplied text before embedding it in a Markdown
// message.
func mdSafe(s string) string {
	escaped, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return escaped
}

// ctxOf carries the update's request id and metadata into domain calls.
func ctxOf(c tele.Context) context.Context {
	return tghelpers.BuildContext(c)
}

// money renders an amount with the configured currency label and dot
// thousand separators.
func (b *Bot) money(amount int64) string {
	return b.shop.CurrencyLabel + " " + groupDigits(amount)
}

func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, ch := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, ch)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// censorTarget masks the middle of an order target before it leaves the
// private chat, e.g. for group announcements.
func censorTarget(target string) string {
	runes := []rune(target)
	if len(runes) <= 8 {
		if len(runes) == 0 {
			return ""
		}
		return string(runes[0]) + "***"
	}
	return string(runes[:4]) + "****" + string(runes[len(runes)-4:])
}

// notifyGroup announces a successful order to the configured group. Failures
// are ignored; the sale already went through.
func (b *Bot) notifyGroup(c tele.Context, text string) {
	if b.shop.NotifyGroupID == 0 {
		return
	}
	_, _ = c.Bot().Send(tele.ChatID(b.shop.NotifyGroupID), text, tele.ModeMarkdown)
}
