package bot

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/orderbot/core/logger"
	tgcallbacks "github.com/m3rciful/orderbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"
	"github.com/m3rciful/orderbot/core/telegram/keyboard"
	"github.com/m3rciful/orderbot/internal/catalog"
)

const (
	cbCategoryPage = "cat_page"
	cbCategory     = "category"
)

// handleServices shows the first category page.
func (b *Bot) handleServices(c tele.Context) error {
	if u, err := b.requireUser(c); err != nil || u == nil {
		return err
	}
	cat, err := b.catalog(ctxOf(c))
	if err != nil {
		return b.replyCatalogUnavailable(c, err)
	}
	text, markup := b.categoryPageView(cat, 0)
	return tghelpers.SendMD(c, text, markup)
}

// handleCategoryPageCallback flips between category pages in place.
func (b *Bot) handleCategoryPageCallback(c tele.Context) error {
	page, err := tgcallbacks.PayloadInt(c)
	if err != nil {
		return tghelpers.SendMD(c, msgUnknownText)
	}
	cat, err := b.catalog(ctxOf(c))
	if err != nil {
		return b.replyCatalogUnavailable(c, err)
	}
	text, markup := b.categoryPageView(cat, page)
	return tghelpers.EditOrSendMD(c, text, markup)
}

// handleCategoryCallback lists the services of the picked category.
func (b *Bot) handleCategoryCallback(c tele.Context) error {
	payload := tgcallbacks.CallbackPayload(c)
	parts := strings.SplitN(payload, "|", 2)
	if len(parts) != 2 {
		return tghelpers.SendMD(c, msgUnknownText)
	}
	page, err1 := strconv.Atoi(parts[0])
	idx, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return tghelpers.SendMD(c, msgUnknownText)
	}

	cat, err := b.catalog(ctxOf(c))
	if err != nil {
		return b.replyCatalogUnavailable(c, err)
	}
	names, page, _ := cat.CategoryPage(page)
	if idx < 0 || idx >= len(names) {
		// The catalog changed between render and click.
		text, markup := b.categoryPageView(cat, 0)
		return tghelpers.EditOrSendMD(c, text, markup)
	}

	category := names[idx]
	items := cat.ItemsInCategory(category)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📦 *%s*\n\n", category)
	for _, item := range items {
		fmt.Fprintf(&sb, "`%d` — %s\n    %s per 1000 · %d–%d", item.ID, mdSafe(item.Name),
			b.money(roundMoney(item.PricePerK)), item.Min, item.Max)
		if item.Refill {
			sb.WriteString(" · refill")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nSend /order and enter the service ID to buy.")

	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "⬅️ Categories", Unique: cbCategoryPage, Data: strconv.Itoa(page)},
	})
	return tghelpers.EditOrSendMD(c, sb.String(), markup)
}

// categoryPageView renders one page of category buttons; stepping past the
// last page cycles back to the first.
func (b *Bot) categoryPageView(cat *catalog.Catalog, page int) (string, *tele.ReplyMarkup) {
	names, page, total := cat.CategoryPage(page)
	if total == 0 {
		return "The catalog is empty right now. Try again later.", nil
	}

	var rows [][]keyboard.InlineBtn
	for i := 0; i < len(names); i += 2 {
		row := []keyboard.InlineBtn{{
			Text:   names[i],
			Unique: cbCategory,
			Data:   fmt.Sprintf("%d|%d", page, i),
		}}
		if i+1 < len(names) {
			row = append(row, keyboard.InlineBtn{
				Text:   names[i+1],
				Unique: cbCategory,
				Data:   fmt.Sprintf("%d|%d", page, i+1),
			})
		}
		rows = append(rows, row)
	}
	if total > 1 {
		rows = append(rows, []keyboard.InlineBtn{
			{Text: "⬅️", Unique: cbCategoryPage, Data: strconv.Itoa(page - 1)},
			{Text: fmt.Sprintf("%d/%d", page+1, total), Unique: cbCategoryPage, Data: strconv.Itoa(page)},
			{Text: "➡️", Unique: cbCategoryPage, Data: strconv.Itoa(page + 1)},
		})
	}

	text := fmt.Sprintf("🗂 *Service catalog* — %d services\nPick a category:", cat.Len())
	return text, keyboard.InlineButtonsRows(rows...)
}

func (b *Bot) replyCatalogUnavailable(c tele.Context, err error) error {
	logger.Warn(ctxOf(c), "service.catalog", "fetch_failed",
		slog.String("error", err.Error()),
	)
	return tghelpers.SendMD(c, "😔 The catalog is unavailable right now. Please try again in a minute.")
}

func roundMoney(v float64) int64 {
	if v < 0 {
		return int64(v - 0.5)
	}
	return int64(v + 0.5)
}
