package bot

import (
	"errors"
	"fmt"
	"math"

	tele "gopkg.in/telebot.v4"

	tgcallbacks "github.com/m3rciful/orderbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"
	"github.com/m3rciful/orderbot/core/telegram/keyboard"
	"github.com/m3rciful/orderbot/internal/ledger"
	"github.com/m3rciful/orderbot/internal/order"
	"github.com/m3rciful/orderbot/internal/provider"
	"github.com/m3rciful/orderbot/internal/store"
)

const cbOrderConfirm = "order_confirm"

// handleOrder starts the order conversation at the service-id step.
func (b *Bot) handleOrder(c tele.Context) error {
	u, err := b.requireUser(c)
	if err != nil || u == nil {
		return err
	}
	if err := b.users.SetState(u.ID, store.StateAwaitingServiceID); err != nil {
		return err
	}
	return tghelpers.SendMD(c, msgAskServiceID)
}

// handleOrderConfirmCallback reacts to the yes/no buttons under the
// confirmation prompt.
func (b *Bot) handleOrderConfirmCallback(c tele.Context) error {
	u, err := b.requireUser(c)
	if err != nil || u == nil {
		return err
	}
	if u.State != store.StateAwaitingConfirmation {
		return tghelpers.SendMD(c, "This confirmation has expired. Start over with /order.")
	}

	payload := tgcallbacks.CallbackPayload(c)
	if payload != "yes" {
		if err := b.workflow.Cancel(ctxOf(c), u.ID); err != nil {
			return err
		}
		return tghelpers.SendMD(c, msgCancelled)
	}
	return b.confirmOrder(c, u.ID)
}

// confirmOrder settles the draft: the workflow pre-checks the balance,
// places the order with the panel, and commits the wallet change. The user
// message mirrors each failure mode; on success the sale is announced to the
// configured group with a censored target.
func (b *Bot) confirmOrder(c tele.Context, userID int64) error {
	receipt, err := b.workflow.Confirm(ctxOf(c), userID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientBalance):
			return tghelpers.SendMD(c,
				"💸 *Insufficient balance.*\nTop up with /deposit, then confirm again — your order draft is saved.\nSend /cancel to abandon it.")
		case errors.Is(err, order.ErrSessionExpired):
			return tghelpers.SendMD(c, "Your order session expired. Start over with /order.")
		default:
			var perr *provider.Error
			if errors.As(err, &perr) {
				return tghelpers.SendMD(c,
					"❌ The order was rejected: "+perr.Message+"\nNothing was charged. Start over with /order.")
			}
			return err
		}
	}

	d := receipt.Draft
	if err := tghelpers.SendMD(c, fmt.Sprintf(msgOrderPlaced,
		receipt.OrderID, d.ServiceName, d.Quantity, b.money(receipt.Total), b.money(receipt.Balance),
	)); err != nil {
		return err
	}

	b.notifyGroup(c, fmt.Sprintf(
		"🛒 *New order* #%d\n📦 %s x%d\n🎯 %s",
		receipt.OrderID, d.ServiceName, d.Quantity, censorTarget(d.Target),
	))
	return nil
}

func confirmMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Confirm", Unique: cbOrderConfirm, Data: "yes"},
		{Text: "❌ Cancel", Unique: cbOrderConfirm, Data: "no"},
	})
}

func promptQuantity(b *Bot, name string, pricePerK float64, min, max int) string {
	return fmt.Sprintf(msgAskQuantity, name, b.money(int64(math.Round(pricePerK))), min, max)
}

func rangePrompt(err *order.QuantityRangeError) string {
	return fmt.Sprintf("Quantity out of range. Send a number between %d and %d, or /cancel.", err.Min, err.Max)
}
