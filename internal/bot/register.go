package bot

import (
	tg "github.com/m3rciful/orderbot/core/telegram"
	"github.com/m3rciful/orderbot/core/telegram/commands"
)

// Register wires every command and callback into the registry. Admin
// commands are flagged so the command router guards them and the menu hides
// them.
func (b *Bot) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     b.handleStart,
		Description: "Start the bot and show the menu",
	})
	reg.RegisterCommand("/services", commands.Command{
		Handler:     b.handleServices,
		Description: "Browse the service catalog",
		Aliases:     []string{"list"},
	})
	reg.RegisterCommand("/order", commands.Command{
		Handler:     b.handleOrder,
		Description: "Place a new order",
	})
	reg.RegisterCommand("/balance", commands.Command{
		Handler:     b.handleBalance,
		Description: "Show balance and recent transactions",
	})
	reg.RegisterCommand("/deposit", commands.Command{
		Handler:     b.handleDeposit,
		Description: "Top up your balance",
	})
	reg.RegisterCommand("/history", commands.Command{
		Handler:     b.handleHistory,
		Description: "Show your order history",
		Aliases:     []string{"riwayat"},
	})
	reg.RegisterCommand("/refill", commands.Command{
		Handler:     b.handleRefill,
		Description: "Request a refill for a past order",
	})
	reg.RegisterCommand("/cs", commands.Command{
		Handler:     b.handleSupport,
		Description: "Contact support",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     b.handleCancel,
		Description: "Cancel the current operation",
		Hidden:      true,
	})

	reg.RegisterCommand("/ban", commands.Command{
		Handler:     b.handleBan,
		Description: "Ban a user",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/unban", commands.Command{
		Handler:     b.handleUnban,
		Description: "Unban a user",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/bc", commands.Command{
		Handler:     b.handleBroadcast,
		Description: "Broadcast a message to all users",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/totalusers", commands.Command{
		Handler:     b.handleTotalUsers,
		Description: "Show the registered user count",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/serverbalance", commands.Command{
		Handler:     b.handleServerBalance,
		Description: "Show the panel account balance",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/addbalance", commands.Command{
		Handler:     b.handleAddBalance,
		Description: "Credit a user's balance",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/activity", commands.Command{
		Handler:     b.handleActivity,
		Description: "Show shop activity stats",
		AdminOnly:   true,
	})

	_ = reg.RegisterCallback(cbRegister, b.handleRegisterCallback)
	_ = reg.RegisterCallback(cbMenu, b.handleMenuCallback)
	_ = reg.RegisterCallback(cbOrderConfirm, b.handleOrderConfirmCallback)
	_ = reg.RegisterCallback(cbCategoryPage, b.handleCategoryPageCallback)
	_ = reg.RegisterCallback(cbCategory, b.handleCategoryCallback)
	_ = reg.RegisterCallback(cbHistoryPage, b.handleHistoryPageCallback)
	_ = reg.RegisterCallback(cbHistoryClose, b.handleHistoryCloseCallback)

	reg.SetTextFallback(b.handleUnknownText)
}
