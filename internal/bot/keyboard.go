package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wealthplanner/budget_bot/internal/model"
)

func (b *Bot) mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📊 Dashboard"),
			tgbotapi.NewKeyboardButton("➕ Add"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🧾 Transactions"),
			tgbotapi.NewKeyboardButton("💰 Savings"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("⚙️ Settings"),
		),
	)
}

func (b *Bot) categoryKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 Needs", "cat_"+model.CategoryNeeds),
			tgbotapi.NewInlineKeyboardButtonData("🎮 Wants", "cat_"+model.CategoryWants),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏦 Savings", "cat_"+model.CategorySavings),
			tgbotapi.NewInlineKeyboardButtonData("💵 Income", "cat_"+model.CategoryIncome),
		),
	)
}

func (b *Bot) dashboardKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️", "nav_prev"),
			tgbotapi.NewInlineKeyboardButtonData("🔄", "nav_reload"),
			tgbotapi.NewInlineKeyboardButtonData("➡️", "nav_next"),
		),
	)
}

func (b *Bot) transactionsKeyboard(entries []model.Transaction, currency string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	limit := len(entries)
	if limit > 10 {
		limit = 10
	}
	for _, tx := range entries[:limit] {
		if tx.Pending() {
			continue
		}
		label := categoryEmoji(tx.Category) + " " + tx.Description + " — " + currency + tx.Amount.StringFixed(2)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "del_"+formatID(tx.ID)),
			tgbotapi.NewInlineKeyboardButtonData("⬆️", "top_"+formatID(tx.ID)),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) settingsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💵 Income", "set_income"),
			tgbotapi.NewInlineKeyboardButtonData("📐 Budget rule", "set_rules"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎨 Theme", "set_theme"),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Reset data", "set_reset"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚪 Log out", "set_logout"),
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back", "back"),
		),
	)
}
