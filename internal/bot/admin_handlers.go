package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/orderbot/core/logger"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"
	"github.com/m3rciful/orderbot/internal/broadcast"
	"github.com/m3rciful/orderbot/internal/store"
	"github.com/m3rciful/orderbot/internal/users"
)

// handleBan bans a user. With an argument it acts immediately; without one
// it asks for the user id.
func (b *Bot) handleBan(c tele.Context) error {
	if id, ok := argID(c); ok {
		return b.applyBan(c, id)
	}
	u, err := b.ensureUser(c)
	if err != nil {
		return err
	}
	if err := b.users.SetState(u.ID, store.StateAwaitingBanID); err != nil {
		return err
	}
	return tghelpers.SendMD(c, msgAskBanID)
}

// handleUnban mirrors handleBan for lifting bans.
func (b *Bot) handleUnban(c tele.Context) error {
	if id, ok := argID(c); ok {
		return b.applyUnban(c, id)
	}
	u, err := b.ensureUser(c)
	if err != nil {
		return err
	}
	if err := b.users.SetState(u.ID, store.StateAwaitingUnbanID); err != nil {
		return err
	}
	return tghelpers.SendMD(c, msgAskUnbanID)
}

func (b *Bot) stepBanID(c tele.Context, u *store.User, text string) error {
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return tghelpers.SendMD(c, "Send the user ID as a number, or /cancel.")
	}
	if err := b.users.SetState(u.ID, store.StateIdle); err != nil {
		return err
	}
	return b.applyBan(c, id)
}

func (b *Bot) stepUnbanID(c tele.Context, u *store.User, text string) error {
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return tghelpers.SendMD(c, "Send the user ID as a number, or /cancel.")
	}
	if err := b.users.SetState(u.ID, store.StateIdle); err != nil {
		return err
	}
	return b.applyUnban(c, id)
}

func (b *Bot) applyBan(c tele.Context, id int64) error {
	if b.IsAdmin(id) {
		return tghelpers.SendMD(c, "Admins cannot be banned.")
	}
	added, err := b.moderation.Ban(ctxOf(c), id, c.Sender().ID)
	if err != nil {
		return err
	}
	if !added {
		return tghelpers.SendMD(c, fmt.Sprintf("User `%d` is already banned.", id))
	}
	// The banned user may have blocked the bot; ignore delivery failure.
	_, _ = c.Bot().Send(tele.ChatID(id), msgBanned)
	return tghelpers.SendMD(c, fmt.Sprintf("🔨 User `%d` banned.", id))
}

func (b *Bot) applyUnban(c tele.Context, id int64) error {
	removed, err := b.moderation.Unban(ctxOf(c), id, c.Sender().ID)
	if err != nil {
		return err
	}
	if !removed {
		return tghelpers.SendMD(c, fmt.Sprintf("User `%d` is not banned.", id))
	}
	_, _ = c.Bot().Send(tele.ChatID(id), "🕊 Your access has been restored. Welcome back!")
	return tghelpers.SendMD(c, fmt.Sprintf("🕊 User `%d` unbanned.", id))
}

// handleBroadcast asks for the announcement text.
func (b *Bot) handleBroadcast(c tele.Context) error {
	u, err := b.ensureUser(c)
	if err != nil {
		return err
	}
	if err := b.users.SetState(u.ID, store.StateAwaitingBroadcast); err != nil {
		return err
	}
	return tghelpers.SendMD(c, msgAskBroadcast)
}

// stepBroadcast delivers the announcement to everyone, editing a progress
// message for the admin every few successful sends.
func (b *Bot) stepBroadcast(c tele.Context, u *store.User, text string) error {
	if err := b.users.SetState(u.ID, store.StateIdle); err != nil {
		return err
	}
	ids := b.users.IDs()

	status, err := c.Bot().Send(c.Sender(), fmt.Sprintf("📣 Broadcasting to %d users...", len(ids)))
	if err != nil {
		return err
	}

	res := broadcast.Run(ctxOf(c), c.Bot(), ids, text, broadcast.Options{
		OnProgress: func(sent, failed, total int) {
			_, _ = c.Bot().Edit(status, fmt.Sprintf("📣 Broadcasting... %d/%d sent, %d failed", sent, total, failed))
		},
	})

	_, err = c.Bot().Edit(status, fmt.Sprintf(
		"📣 Broadcast finished.\n✅ Delivered: %d\n❌ Failed: %d\n👥 Total: %d",
		res.Sent, res.Failed, res.Total,
	))
	return err
}

// handleTotalUsers reports the registered user count.
func (b *Bot) handleTotalUsers(c tele.Context) error {
	return tghelpers.SendMD(c, fmt.Sprintf("👥 Registered users: *%d*", b.users.Count()))
}

// handleServerBalance shows the upstream panel balance.
func (b *Bot) handleServerBalance(c tele.Context) error {
	profile, err := b.panel.Profile(ctxOf(c))
	if err != nil {
		if msg, ok := panelMessage(err); ok {
			return tghelpers.SendMD(c, "Could not fetch the panel balance: "+msg)
		}
		logger.Error(ctxOf(c), "tg", "panel_profile_failed",
			slog.String("error", err.Error()),
		)
		return tghelpers.SendMD(c, "Could not reach the panel. Try again later.")
	}
	name := profile.FullName
	if name == "" {
		name = profile.Username
	}
	return tghelpers.SendMD(c, fmt.Sprintf(
		"🏦 *Panel account:* %s\n💰 Balance: %s",
		name, b.money(roundMoney(profile.Balance.Float64())),
	))
}

// handleAddBalance credits a user's wallet: /addbalance <user_id> <amount>.
func (b *Bot) handleAddBalance(c tele.Context) error {
	args := c.Args()
	if len(args) != 2 {
		return tghelpers.SendMD(c, "Usage: `/addbalance <user_id> <amount>`")
	}
	userID, err1 := strconv.ParseInt(args[0], 10, 64)
	amount, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil || amount <= 0 {
		return tghelpers.SendMD(c, "Both arguments must be numbers, and the amount positive.")
	}

	balance, err := b.users.AddBalance(ctxOf(c), userID, amount,
		fmt.Sprintf("Deposit approved by admin %d", c.Sender().ID))
	if err != nil {
		if errors.Is(err, users.ErrUnknownUser) {
			return tghelpers.SendMD(c, fmt.Sprintf("No registered user with ID `%d`.", userID))
		}
		logger.Error(ctxOf(c), "tg", "addbalance_failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return tghelpers.SendMD(c, "Top-up failed. Check the logs for details.")
	}

	// Tell the user their deposit arrived; their chat may be closed, so
	// ignore delivery failure.
	_, _ = c.Bot().Send(tele.ChatID(userID), fmt.Sprintf(
		"💳 Your balance was topped up by %s.\n💰 New balance: %s",
		b.money(amount), b.money(balance),
	), tele.ModeMarkdown)

	return tghelpers.SendMD(c, fmt.Sprintf(
		"✅ Credited %s to user `%d`. New balance: %s",
		b.money(amount), userID, b.money(balance),
	))
}

// handleActivity reports aggregate shop stats.
func (b *Bot) handleActivity(c tele.Context) error {
	stats := b.users.Activity()
	var sb strings.Builder
	sb.WriteString("📊 *Shop activity*\n\n")
	fmt.Fprintf(&sb, "👥 Users: %d (+%d this week)\n", stats.Users, stats.NewThisWeek)
	fmt.Fprintf(&sb, "🛒 Orders: %d by %d buyers\n", stats.Orders, stats.ActiveBuyers)
	fmt.Fprintf(&sb, "📅 Today: %d · This month: %d\n", stats.OrdersToday, stats.OrdersMonth)
	fmt.Fprintf(&sb, "💵 Revenue: %s\n", b.money(stats.Revenue))
	return tghelpers.SendMD(c, sb.String())
}

func argID(c tele.Context) (int64, bool) {
	args := c.Args()
	if len(args) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
