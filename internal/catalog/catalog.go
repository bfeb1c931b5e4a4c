// Package catalog shapes the raw provider service list into what the bot
// shows users: cleaned display names, margin-adjusted prices, and category
// pages sized for inline keyboards.
package catalog

import (
	"math"
	"regexp"
	"strings"

	"github.com/m3rciful/orderbot/internal/provider"
)

// CategoryPageSize is the number of category buttons per keyboard page.
const CategoryPageSize = 8

const maxNameLength = 30

// Item is one sellable service. PricePerK already includes the margin.
type Item struct {
	ID        int64
	Name      string
	RawName   string
	Category  string
	PricePerK float64
	Min       int
	Max       int
	Refill    bool
}

// Catalog is an immutable snapshot of the sellable services, rebuilt on
// every fetch so upstream catalog changes show up without a restart.
type Catalog struct {
	items      []Item
	byID       map[int64]Item
	categories []string
	byCategory map[string][]Item
}

// Build converts provider rows into a Catalog, applying the margin and
// dropping duplicate rows that clean to the same name; the first occurrence
// wins, regardless of category. Category order follows first appearance in
// the provider list.
func Build(services []provider.Service, marginPercent int64) *Catalog {
	c := &Catalog{
		byID:       make(map[int64]Item),
		byCategory: make(map[string][]Item),
	}
	seen := make(map[string]bool)

	for _, svc := range services {
		name := CleanName(svc.Name)
		if name == "" {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		item := Item{
			ID:        svc.ID,
			Name:      name,
			RawName:   svc.Name,
			Category:  svc.Category,
			PricePerK: AdjustedPrice(svc.Price.Float64(), marginPercent),
			Min:       svc.Min.Int(),
			Max:       svc.Max.Int(),
			Refill:    svc.Refill,
		}
		c.items = append(c.items, item)
		c.byID[item.ID] = item
		if _, ok := c.byCategory[item.Category]; !ok {
			c.categories = append(c.categories, item.Category)
		}
		c.byCategory[item.Category] = append(c.byCategory[item.Category], item)
	}
	return c
}

// Len reports the number of sellable items.
func (c *Catalog) Len() int { return len(c.items) }

// Categories returns category names in first-appearance order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// CategoryPage returns one page of category names. An out-of-range page
// index, in either direction, resets to the first page, so "next" on the
// final page cycles back to the start. The normalized page index and total
// page count are returned alongside.
func (c *Catalog) CategoryPage(page int) (names []string, current, total int) {
	total = (len(c.categories) + CategoryPageSize - 1) / CategoryPageSize
	if total == 0 {
		return nil, 0, 0
	}
	current = page
	if current < 0 || current >= total {
		current = 0
	}

	start := current * CategoryPageSize
	end := start + CategoryPageSize
	if end > len(c.categories) {
		end = len(c.categories)
	}
	return append([]string(nil), c.categories[start:end]...), current, total
}

// ItemsInCategory returns the items of one category in catalog order.
func (c *Catalog) ItemsInCategory(category string) []Item {
	return append([]Item(nil), c.byCategory[category]...)
}

// ByID looks up an item by its provider service id.
func (c *Catalog) ByID(id int64) (Item, bool) {
	item, ok := c.byID[id]
	return item, ok
}

// AdjustedPrice applies the resale margin to a raw per-1000 price.
func AdjustedPrice(base float64, marginPercent int64) float64 {
	return base * float64(100+marginPercent) / 100
}

// Total computes the charge for a quantity at a per-1000 price, rounded to
// the nearest whole currency unit.
func Total(pricePerK float64, quantity int) int64 {
	return int64(math.Round(pricePerK / 1000 * float64(quantity)))
}

var (
	bracketRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	serverRe  = regexp.MustCompile(`(?i)\bserver\s*\d+\b`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// CleanName strips panel noise from a service name: bracketed and
// parenthesized tags, "Server N" suffixes, and runs of whitespace. Long
// names are truncated so they fit on an inline button.
func CleanName(raw string) string {
	name := bracketRe.ReplaceAllString(raw, " ")
	name = serverRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(spaceRe.ReplaceAllString(name, " "))

	runes := []rune(name)
	if len(runes) > maxNameLength {
		name = strings.TrimSpace(string(runes[:maxNameLength])) + "..."
	}
	return name
}
