package bot

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/orderbot/core/logger"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"
	"github.com/m3rciful/orderbot/internal/order"
	"github.com/m3rciful/orderbot/internal/provider"
	"github.com/m3rciful/orderbot/internal/store"
)

// flowManager routes text updates to the step handler of the user's
// persisted conversation state. It satisfies the text router's FSM
// interface.
type flowManager struct {
	bot *Bot
}

// FSM exposes the conversation dispatcher for the text router.
func (b *Bot) FSM() *flowManager {
	return &flowManager{bot: b}
}

// InProgress reports whether the user has an active conversation step.
func (m *flowManager) InProgress(userID int64) bool {
	u := m.bot.users.Get(userID)
	return u != nil && u.State.Active()
}

// ManagerHandler handles one text update for a user mid-flow. /cancel aborts
// any flow; a persisted state outside the known set resets the session
// instead of wedging the user.
func (m *flowManager) ManagerHandler(c tele.Context) error {
	b := m.bot
	u, err := b.requireUser(c)
	if err != nil || u == nil {
		return err
	}
	text := strings.TrimSpace(c.Text())

	if isCancelText(text) {
		if err := b.workflow.Cancel(ctxOf(c), u.ID); err != nil {
			return err
		}
		return tghelpers.SendMD(c, msgCancelled)
	}

	switch u.State {
	case store.StateAwaitingServiceID:
		return b.stepServiceID(c, u, text)
	case store.StateAwaitingQuantity:
		return b.stepQuantity(c, u, text)
	case store.StateAwaitingTarget:
		return b.stepTarget(c, u, text)
	case store.StateAwaitingConfirmation:
		return b.stepConfirmation(c, u, text)
	case store.StateAwaitingRefillID:
		return b.stepRefillID(c, u, text)
	case store.StateAwaitingBroadcast:
		return b.stepBroadcast(c, u, text)
	case store.StateAwaitingBanID:
		return b.stepBanID(c, u, text)
	case store.StateAwaitingUnbanID:
		return b.stepUnbanID(c, u, text)
	default:
		logger.Warn(ctxOf(c), "tg", "unknown_state_reset",
			slog.Int64("user_id", u.ID),
			slog.String("state", string(u.State)),
		)
		if err := b.workflow.Cancel(ctxOf(c), u.ID); err != nil {
			return err
		}
		return tghelpers.SendMD(c, msgSessionReset)
	}
}

func isCancelText(text string) bool {
	head := text
	if i := strings.IndexByte(head, ' '); i >= 0 {
		head = head[:i]
	}
	if i := strings.IndexByte(head, '@'); i >= 0 {
		head = head[:i]
	}
	return strings.EqualFold(head, "/cancel")
}

func (b *Bot) stepServiceID(c tele.Context, u *store.User, text string) error {
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return tghelpers.SendMD(c, "That doesn't look like a service ID. Send a number, or /cancel.")
	}
	cat, err := b.catalog(ctxOf(c))
	if err != nil {
		return b.replyCatalogUnavailable(c, err)
	}
	item, ok := cat.ByID(id)
	if !ok {
		return tghelpers.SendMD(c, "Unknown service ID. Check /services and try again, or /cancel.")
	}
	if err := b.workflow.SetService(ctxOf(c), u.ID, item); err != nil {
		return err
	}
	return tghelpers.SendMD(c, promptQuantity(b, item.Name, item.PricePerK, item.Min, item.Max))
}

func (b *Bot) stepQuantity(c tele.Context, u *store.User, text string) error {
	qty, err := strconv.Atoi(text)
	if err != nil {
		return tghelpers.SendMD(c, "Send the quantity as a plain number, or /cancel.")
	}
	if err := b.workflow.SetQuantity(ctxOf(c), u.ID, qty); err != nil {
		var rangeErr *order.QuantityRangeError
		if errors.As(err, &rangeErr) {
			return tghelpers.SendMD(c, rangePrompt(rangeErr))
		}
		return err
	}
	return tghelpers.SendMD(c, msgAskTarget)
}

func (b *Bot) stepTarget(c tele.Context, u *store.User, text string) error {
	if text == "" || strings.HasPrefix(text, "/") {
		return tghelpers.SendMD(c, "Send a link or username as the target, or /cancel.")
	}
	draft, err := b.workflow.SetTarget(ctxOf(c), u.ID, text)
	if err != nil {
		return err
	}
	total := b.money(order.Total(draft))
	return tghelpers.SendMD(c, confirmationText(draft, total), confirmMarkup())
}

func (b *Bot) stepConfirmation(c tele.Context, u *store.User, text string) error {
	switch strings.ToLower(text) {
	case "yes", "y", "ya", "confirm":
		return b.confirmOrder(c, u.ID)
	case "no", "n", "tidak":
		if err := b.workflow.Cancel(ctxOf(c), u.ID); err != nil {
			return err
		}
		return tghelpers.SendMD(c, msgCancelled)
	default:
		return tghelpers.SendMD(c, "Reply *yes* to confirm, *no* to cancel, or use the buttons.", confirmMarkup())
	}
}

func (b *Bot) stepRefillID(c tele.Context, u *store.User, text string) error {
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return tghelpers.SendMD(c, "Send the order ID as a number, or /cancel.")
	}
	if err := b.users.SetState(u.ID, store.StateIdle); err != nil {
		return err
	}

	res, err := b.workflow.Refill(ctxOf(c), u.ID, id)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			return tghelpers.SendMD(c, "That order ID is not in your history. Check /history.")
		default:
			var perr *provider.Error
			if errors.As(err, &perr) {
				return tghelpers.SendMD(c, "♻️ Refill rejected: "+perr.Message)
			}
			return err
		}
	}
	return tghelpers.SendMD(c, "♻️ Refill requested. Reference: `"+strconv.FormatInt(res.RefillID, 10)+"`")
}
