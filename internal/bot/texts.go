package bot

import (
	"fmt"
	"strings"

	"github.com/m3rciful/orderbot/internal/store"
)

const (
	msgWelcome = "👋 *Welcome, %s!*\n\n" +
		"This bot sells social media services straight from your balance.\n\n" +
		"📦 /services — browse the catalog\n" +
		"🛒 /order — place an order\n" +
		"💰 /balance — balance and transactions\n" +
		"💳 /deposit — top up your balance\n" +
		"📜 /history — your past orders\n" +
		"♻️ /refill — request a refill\n" +
		"🆘 /cs — contact support\n\n" +
		"Send /cancel at any point to abort the current step."

	msgAdminPanel = "\n\n🛠 *Admin commands*\n" +
		"/ban /unban — moderate users\n" +
		"/bc — broadcast to everyone\n" +
		"/addbalance — approve a deposit\n" +
		"/totalusers /activity — usage stats\n" +
		"/serverbalance — panel balance"

	msgNotRegistered     = "You're not registered yet. Send /start to create your account."
	msgAlreadyRegistered = "👤 You're already registered — here's the menu again."

	msgNothingToCancel = "Nothing to cancel — no operation is in progress."
	msgCancelled       = "✅ Operation cancelled."
	msgSessionReset    = "⚠️ Your previous session was in an unknown state and has been reset. Start over from the menu."
	msgUnknownText     = "I didn't understand that. Send /start to see what I can do."
	msgBanned          = "🚫 You are banned from using this bot."
	msgRateLimited     = "⏳ Slow down a little, then try again."

	msgAskServiceID = "🛒 *New order*\n\nSend the *service ID* you want to order.\nYou can find IDs in /services.\n\nSend /cancel to abort."
	msgAskQuantity  = "📦 *%s*\nPrice: %s per 1000\n\nSend the *quantity* (min %d, max %d)."
	msgAskTarget    = "🎯 Now send the *target* — a link or username the order applies to."
	msgOrderPlaced  = "✅ *Order placed!*\n\n🧾 Order ID: `%d`\n📦 %s\n🔢 Quantity: %d\n💸 Charged: %s\n💰 Balance: %s"

	msgAskRefillID  = "♻️ Send the *order ID* you want refilled. Send /cancel to abort."
	msgAskBroadcast = "📣 Send the message to broadcast to all users. Send /cancel to abort."
	msgAskBanID     = "🔨 Send the *user ID* to ban. Send /cancel to abort."
	msgAskUnbanID   = "🕊 Send the *user ID* to unban. Send /cancel to abort."
)

func confirmationText(d *store.OrderDraft, total string) string {
	var sb strings.Builder
	sb.WriteString("🧾 *Confirm your order*\n\n")
	fmt.Fprintf(&sb, "📦 Service: %s (ID %d)\n", d.ServiceName, d.ServiceID)
	fmt.Fprintf(&sb, "🔢 Quantity: %d\n", d.Quantity)
	fmt.Fprintf(&sb, "🎯 Target: %s\n", mdSafe(d.Target))
	fmt.Fprintf(&sb, "💸 Total: %s\n\n", total)
	sb.WriteString("Confirm the order?")
	return sb.String()
}

func depositRequestText(amount, support string) string {
	var sb strings.Builder
	sb.WriteString("💳 *Deposit request*\n\n")
	fmt.Fprintf(&sb, "Transfer exactly %s", amount)
	if support != "" {
		fmt.Fprintf(&sb, " and send the receipt to @%s together with your Telegram ID", support)
	}
	sb.WriteString(".\nYour balance is credited once the payment is verified.")
	return sb.String()
}

func depositText(min, support string) string {
	var sb strings.Builder
	sb.WriteString("💳 *Top up your balance*\n\n")
	fmt.Fprintf(&sb, "Minimum deposit: %s\n\n", min)
	if support != "" {
		fmt.Fprintf(&sb, "Contact @%s with your transfer receipt and your Telegram ID.\n", support)
	}
	sb.WriteString("Your balance is credited manually after the payment is verified.")
	return sb.String()
}
