package bot

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	tgcallbacks "github.com/m3rciful/orderbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"
	"github.com/m3rciful/orderbot/core/telegram/keyboard"
	"github.com/m3rciful/orderbot/internal/order"
	"github.com/m3rciful/orderbot/internal/provider"
	"github.com/m3rciful/orderbot/internal/store"
)

const (
	cbHistoryPage  = "hist_page"
	cbHistoryClose = "hist_close"
	sessionHistKey = "history_page"
)

// handleHistory shows the newest page of the sender's orders.
func (b *Bot) handleHistory(c tele.Context) error {
	u, err := b.requireUser(c)
	if err != nil || u == nil {
		return err
	}
	b.sessions.Set(u.ID, sessionHistKey, 0)
	text, markup := b.historyPageView(c, u, 0)
	return tghelpers.SendMD(c, text, markup)
}

// handleHistoryPageCallback flips history pages in place.
func (b *Bot) handleHistoryPageCallback(c tele.Context) error {
	u, err := b.requireUser(c)
	if err != nil || u == nil {
		return err
	}
	page, err := tgcallbacks.PayloadInt(c)
	if err != nil {
		// Fall back to the last viewed page for this user.
		page, _ = b.sessions.GetInt(u.ID, sessionHistKey)
	}
	b.sessions.Set(u.ID, sessionHistKey, page)
	text, markup := b.historyPageView(c, u, page)
	return tghelpers.EditOrSendMD(c, text, markup)
}

// historyPageView renders one page of orders, enriched with live panel
// statuses when the panel answers in time. Status enrichment is best
// effort; the page renders fine without it.
func (b *Bot) historyPageView(c tele.Context, u *store.User, page int) (string, *tele.ReplyMarkup) {
	orders, page, total := order.OrdersPage(u, page)
	if total == 0 {
		return "📜 You have no orders yet. Start with /order.", nil
	}

	statuses := b.fetchStatuses(c, orders)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📜 *Your orders* — page %d/%d\n\n", page+1, total)
	for _, o := range orders {
		fmt.Fprintf(&sb, "🧾 `%d` — %s x%d\n    %s · %s",
			o.ID, o.ServiceName, o.Quantity, b.money(o.Price), o.Date.Format("02 Jan 2006"))
		if st, ok := statuses[o.ID]; ok && st.Status != "" {
			fmt.Fprintf(&sb, " · %s", st.Status)
			if st.Remains.Int() > 0 {
				fmt.Fprintf(&sb, " (%d left)", st.Remains.Int())
			}
		}
		sb.WriteString("\n")
	}

	rows := [][]keyboard.InlineBtn{}
	if total > 1 {
		rows = append(rows, []keyboard.InlineBtn{
			{Text: "⬅️", Unique: cbHistoryPage, Data: fmt.Sprintf("%d", page-1)},
			{Text: fmt.Sprintf("%d/%d", page+1, total), Unique: cbHistoryPage, Data: fmt.Sprintf("%d", page)},
			{Text: "➡️", Unique: cbHistoryPage, Data: fmt.Sprintf("%d", page+1)},
		})
	}
	rows = append(rows, []keyboard.InlineBtn{
		{Text: "✖️ Close", Unique: cbHistoryClose},
	})
	return sb.String(), keyboard.InlineButtonsRows(rows...)
}

// handleHistoryCloseCallback removes the history message and forgets the
// viewed page.
func (b *Bot) handleHistoryCloseCallback(c tele.Context) error {
	if s := c.Sender(); s != nil {
		b.sessions.Delete(s.ID, sessionHistKey)
	}
	if err := c.Delete(); err != nil {
		// The message may be too old for deletion; blank it instead.
		return c.Edit("📜 History closed.")
	}
	return nil
}

func (b *Bot) fetchStatuses(c tele.Context, orders []store.Order) map[int64]provider.OrderStatus {
	if b.panel == nil || len(orders) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	statuses, err := b.panel.StatusBatch(ctxOf(c), ids)
	if err != nil {
		return nil
	}
	return statuses
}
