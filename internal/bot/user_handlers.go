package bot

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	tgcallbacks "github.com/m3rciful/orderbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"
	"github.com/m3rciful/orderbot/core/telegram/keyboard"
	"github.com/m3rciful/orderbot/internal/ledger"
	"github.com/m3rciful/orderbot/internal/store"
)

const (
	cbMenu     = "menu"
	cbRegister = "register"
)

// handleStart registers the sender on first contact; repeat starts refresh
// the profile and just show the menu again.
func (b *Bot) handleStart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return fmt.Errorf("bot: update without sender")
	}
	created, err := b.users.Register(ctxOf(c), sender.ID, senderName(sender), sender.Username)
	if err != nil {
		return err
	}
	if !created {
		if err := tghelpers.SendMD(c, msgAlreadyRegistered); err != nil {
			return err
		}
	}

	name := mdSafe(senderName(sender))
	if name == "" {
		name = "there"
	}
	welcome := fmt.Sprintf(msgWelcome, name)
	if b.IsAdmin(sender.ID) {
		welcome += msgAdminPanel
	}
	return tghelpers.SendMD(c, welcome, menuMarkup())
}

// handleRegisterCallback serves the register button shown to unregistered
// senders.
func (b *Bot) handleRegisterCallback(c tele.Context) error {
	return b.handleStart(c)
}

// handleMenuCallback routes the menu buttons to their command handlers.
func (b *Bot) handleMenuCallback(c tele.Context) error {
	switch tgcallbacks.CallbackPayload(c) {
	case "services":
		return b.handleServices(c)
	case "order":
		return b.handleOrder(c)
	case "balance":
		return b.handleBalance(c)
	case "history":
		return b.handleHistory(c)
	case "deposit":
		// Callback args carry the button payload, not a command argument,
		// so show the general instructions directly.
		if u, err := b.requireUser(c); err != nil || u == nil {
			return err
		}
		return tghelpers.SendMD(c, depositText(b.money(b.shop.MinDeposit), b.shop.SupportHandle))
	default:
		return tghelpers.SendMD(c, msgUnknownText)
	}
}

func registerMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "📝 Register", Unique: cbRegister},
	})
}

func menuMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "📦 Services", Unique: cbMenu, Data: "services"},
			{Text: "🛒 Order", Unique: cbMenu, Data: "order"},
		},
		[]keyboard.InlineBtn{
			{Text: "💰 Balance", Unique: cbMenu, Data: "balance"},
			{Text: "📜 History", Unique: cbMenu, Data: "history"},
		},
		[]keyboard.InlineBtn{
			{Text: "💳 Deposit", Unique: cbMenu, Data: "deposit"},
		},
	)
}

// handleCancel covers /cancel sent while no flow is active; mid-flow cancels
// are handled by the conversation dispatcher.
func (b *Bot) handleCancel(c tele.Context) error {
	return tghelpers.SendMD(c, msgNothingToCancel)
}

// handleBalance shows the wallet and the latest transactions.
func (b *Bot) handleBalance(c tele.Context) error {
	u, err := b.requireUser(c)
	if err != nil || u == nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 *Balance:* %s\n", b.money(u.Balance))

	recent := ledger.History(u, 5)
	if len(recent) > 0 {
		sb.WriteString("\n*Recent transactions:*\n")
		for _, tx := range recent {
			sign := ""
			if tx.Amount > 0 {
				sign = "+"
			}
			fmt.Fprintf(&sb, "• %s%s — %s _(%s)_\n",
				sign, b.money(tx.Amount), tx.Description, tx.Date.Format("02 Jan 2006"))
		}
	}
	sb.WriteString("\nTop up with /deposit.")
	return tghelpers.SendMD(c, sb.String())
}

// handleDeposit validates the requested amount against the minimum and
// explains the manual top-up procedure. Without an amount it shows the
// general instructions.
func (b *Bot) handleDeposit(c tele.Context) error {
	u, err := b.requireUser(c)
	if err != nil || u == nil {
		return err
	}

	args := c.Args()
	if len(args) == 0 {
		return tghelpers.SendMD(c, depositText(b.money(b.shop.MinDeposit), b.shop.SupportHandle))
	}
	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || amount <= 0 {
		return tghelpers.SendMD(c, "Send the amount as a plain number, e.g. `/deposit 50000`.")
	}
	if amount < b.shop.MinDeposit {
		return tghelpers.SendMD(c, fmt.Sprintf("The minimum deposit is %s.", b.money(b.shop.MinDeposit)))
	}
	return tghelpers.SendMD(c, depositRequestText(b.money(amount), b.shop.SupportHandle))
}

// handleSupport points the user at the support contact.
func (b *Bot) handleSupport(c tele.Context) error {
	if b.shop.SupportHandle == "" {
		return tghelpers.SendMD(c, "Support contact is not configured yet.")
	}
	return tghelpers.SendMD(c, "🆘 Need help? Message @"+b.shop.SupportHandle+".")
}

// handleRefill starts the refill conversation.
func (b *Bot) handleRefill(c tele.Context) error {
	u, err := b.requireUser(c)
	if err != nil || u == nil {
		return err
	}
	if err := b.users.SetState(u.ID, store.StateAwaitingRefillID); err != nil {
		return err
	}
	return tghelpers.SendMD(c, msgAskRefillID)
}

// handleUnknownText answers free text outside of any flow.
func (b *Bot) handleUnknownText(c tele.Context) error {
	return tghelpers.SendMD(c, msgUnknownText)
}

// BlockedHandler answers updates from banned users.
func (b *Bot) BlockedHandler() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, msgBanned)
	}
}

// RateLimitedHandler answers updates rejected by the rate limiter.
func (b *Bot) RateLimitedHandler() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, msgRateLimited)
	}
}

// AdminRejectHandler answers non-admins invoking admin commands.
func (b *Bot) AdminRejectHandler() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "This command is only available to admins.")
	}
}
