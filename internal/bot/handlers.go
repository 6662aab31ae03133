package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/wealthplanner/budget_bot/internal/cache"
	"github.com/wealthplanner/budget_bot/internal/model"
)

func (b *Bot) handleDashboard(ctx context.Context, chatID int64) {
	period, _, _ := b.service.DashboardView()
	b.showDashboard(ctx, chatID, period)
}

func (b *Bot) showDashboard(ctx context.Context, chatID int64, period model.Period) {
	if err := b.service.LoadDashboard(ctx, period); err != nil {
		b.reportError(chatID, err)
		return
	}

	_, entries, summary := b.service.DashboardView()
	user := b.service.User()
	if summary == nil || user == nil {
		b.sendErrorMessage(chatID, "No dashboard data yet.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatDashboard(period, entries, summary, user))
	msg.ReplyMarkup = b.dashboardKeyboard()
	b.send(msg)
}

func (b *Bot) handleAdd(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "What kind of entry is it?")
	msg.ReplyMarkup = b.categoryKeyboard()
	b.send(msg)
}

func (b *Bot) handleTransactions(chatID int64) {
	_, entries, _ := b.service.DashboardView()
	if len(entries) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "No transactions this month yet. Use ➕ Add to create one."))
		return
	}

	user := b.service.User()
	currency := "$"
	if user != nil {
		currency = user.Currency
	}

	msg := tgbotapi.NewMessage(chatID, "🧾 This month's transactions — tap an entry to delete it, ⬆️ to move it up:")
	msg.ReplyMarkup = b.transactionsKeyboard(entries, currency)
	b.send(msg)
}

func (b *Bot) handleSavings(ctx context.Context, chatID int64) {
	summary, err := b.service.Savings(ctx, time.Now().Year())
	if err != nil {
		b.reportError(chatID, err)
		return
	}

	b.send(tgbotapi.NewMessage(chatID, formatSavings(summary)))

	png, err := b.charts.SavingsTrend(summary)
	if err != nil {
		fmt.Printf("Error rendering savings chart: %v\n", err)
		return
	}
	if png != nil {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "savings.png", Bytes: png})
		photo.Caption = fmt.Sprintf("Monthly savings, %d", summary.CurrentYear)
		b.send(photo)
	}
}

func (b *Bot) handleSettings(chatID int64) {
	user := b.service.User()
	text := "⚙️ Settings"
	if user != nil {
		text = fmt.Sprintf(
			"⚙️ Settings\n\n"+
				"Name: %s\n"+
				"Income: %s%s / month\n"+
				"Budget rule: %d/%d/%d\n"+
				"Theme: %s",
			user.Name, user.Currency, user.Income.StringFixed(2),
			user.RuleNeeds, user.RuleWants, user.RuleSavings,
			user.Theme)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = b.settingsKeyboard()
	b.send(msg)
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) error {
	ctx := context.Background()
	chatID := callback.Message.Chat.ID
	data := callback.Data

	switch {
	case strings.HasPrefix(data, "cat_"):
		category := strings.TrimPrefix(data, "cat_")
		b.states[chatID] = &UserState{Step: stepAmount, Category: category}
		b.send(tgbotapi.NewMessage(chatID,
			fmt.Sprintf("Adding to %s. Enter amount and description, e.g.:\n250 Groceries", categoryTitle(category))))

	case strings.HasPrefix(data, "del_"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "del_"), 10, 64)
		if err == nil {
			b.deleteTransaction(ctx, chatID, id)
		}

	case strings.HasPrefix(data, "top_"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "top_"), 10, 64)
		if err == nil {
			b.moveTransactionToTop(ctx, chatID, id)
		}

	case data == "nav_prev":
		period, _, _ := b.service.DashboardView()
		b.showDashboard(ctx, chatID, period.Prev())

	case data == "nav_next":
		period, _, _ := b.service.DashboardView()
		b.showDashboard(ctx, chatID, period.Next())

	case data == "nav_reload":
		period, _, _ := b.service.DashboardView()
		b.showDashboard(ctx, chatID, period)

	case data == "set_rules":
		b.states[chatID] = &UserState{Step: stepRules}
		b.send(tgbotapi.NewMessage(chatID,
			"Enter the new needs/wants/savings split, e.g.:\n50 30 20\n(the three numbers must add up to 100)"))

	case data == "set_income":
		b.states[chatID] = &UserState{Step: stepIncome}
		b.send(tgbotapi.NewMessage(chatID, "Enter your new monthly income:"))

	case data == "set_theme":
		theme, err := b.service.ToggleTheme(ctx)
		if err != nil {
			b.reportError(chatID, err)
			break
		}
		b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Theme switched to %s. 🎨", theme)))

	case data == "set_reset":
		msg := tgbotapi.NewMessage(chatID, "This deletes every transaction and resets your settings. Are you sure?")
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗑 Yes, reset everything", "set_reset_confirm"),
				tgbotapi.NewInlineKeyboardButtonData("Cancel", "back"),
			),
		)
		b.send(msg)

	case data == "set_reset_confirm":
		if err := b.service.ResetData(ctx); err != nil {
			b.reportError(chatID, err)
			break
		}
		b.send(tgbotapi.NewMessage(chatID, "All data has been reset. 🧹"))

	case data == "set_logout":
		b.handleLogout(ctx, chatID)

	case data == "back":
		msg := tgbotapi.NewMessage(chatID, "What would you like to do?")
		msg.ReplyMarkup = b.mainKeyboard()
		b.send(msg)
	}

	// Answer the callback to clear the loading indicator.
	if _, err := b.tg.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		fmt.Printf("Error answering callback: %v\n", err)
	}

	return nil
}

func (b *Bot) deleteTransaction(ctx context.Context, chatID int64, id int64) {
	outcome, err := b.service.DeleteTransaction(ctx, id)
	if err != nil {
		b.reportError(chatID, err)
		return
	}

	switch outcome {
	case cache.DeleteConfirmed:
		b.send(tgbotapi.NewMessage(chatID, "Transaction deleted. ✅"))
	case cache.DeleteReconciling:
		b.send(tgbotapi.NewMessage(chatID, "Couldn't confirm the delete, so I refreshed the list from the server. 🔄"))
	}
	b.handleTransactions(chatID)
}

// moveTransactionToTop puts one entry first and keeps the rest in order.
func (b *Bot) moveTransactionToTop(ctx context.Context, chatID int64, id int64) {
	_, entries, _ := b.service.DashboardView()
	order := make([]int64, 0, len(entries))
	order = append(order, id)
	for _, tx := range entries {
		if tx.Pending() || tx.ID == id {
			continue
		}
		order = append(order, tx.ID)
	}

	if err := b.service.ReorderTransactions(ctx, order); err != nil {
		b.reportError(chatID, err)
		return
	}
	b.handleTransactions(chatID)
}

func (b *Bot) handleMessage(message *tgbotapi.Message) error {
	ctx := context.Background()
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	state, inFlow := b.states[chatID]
	if inFlow {
		return b.continueFlow(ctx, chatID, state, text)
	}

	if !b.service.Authenticated(ctx) {
		b.startLogin(chatID)
		return nil
	}

	switch text {
	case "📊 Dashboard":
		b.handleDashboard(ctx, chatID)
	case "➕ Add":
		b.handleAdd(chatID)
	case "🧾 Transactions":
		b.handleTransactions(chatID)
	case "💰 Savings":
		b.handleSavings(ctx, chatID)
	case "⚙️ Settings":
		b.handleSettings(chatID)
	default:
		msg := tgbotapi.NewMessage(chatID, "What would you like to do?")
		msg.ReplyMarkup = b.mainKeyboard()
		b.send(msg)
	}
	return nil
}

// continueFlow advances a multi-message conversation by one step.
func (b *Bot) continueFlow(ctx context.Context, chatID int64, state *UserState, text string) error {
	switch state.Step {
	case stepPhone:
		if len(text) < 10 {
			b.sendErrorMessage(chatID, "Please enter a valid phone number.")
			return nil
		}
		status, err := b.service.CheckPhone(ctx, text)
		if err != nil {
			b.reportError(chatID, err)
			return nil
		}
		state.Phone = text
		if status.Exists && status.PinSet {
			state.Step = stepPIN
			b.send(tgbotapi.NewMessage(chatID, "🔐 Enter your 6-digit PIN:"))
		} else {
			state.Step = stepRegisterPIN
			b.send(tgbotapi.NewMessage(chatID, "Looks like you're new here! Choose a 6-digit PIN:"))
		}

	case stepPIN:
		if err := b.service.Login(ctx, state.Phone, text); err != nil {
			b.reportError(chatID, err)
			return nil
		}
		delete(b.states, chatID)
		b.afterLogin(ctx, chatID)

	case stepRegisterPIN:
		if len(text) != 6 {
			b.sendErrorMessage(chatID, "The PIN must be exactly 6 digits.")
			return nil
		}
		state.PIN = text
		state.Step = stepName
		b.send(tgbotapi.NewMessage(chatID, "And what should I call you?"))

	case stepName:
		if err := b.service.Register(ctx, state.Phone, state.PIN, text); err != nil {
			b.reportError(chatID, err)
			return nil
		}
		delete(b.states, chatID)
		b.afterLogin(ctx, chatID)

	case stepSetupIncome:
		income, err := decimal.NewFromString(text)
		if err != nil || income.IsNegative() {
			b.sendErrorMessage(chatID, "Please enter your income as a number, e.g. 3000.")
			return nil
		}
		user := b.service.User()
		name := ""
		if user != nil {
			name = user.Name
		}
		if err := b.service.CompleteSetup(ctx, model.SetupParams{Name: name, Income: &income}); err != nil {
			b.reportError(chatID, err)
			return nil
		}
		delete(b.states, chatID)
		msg := tgbotapi.NewMessage(chatID, "You're all set! 🎉")
		msg.ReplyMarkup = b.mainKeyboard()
		b.send(msg)
		b.handleDashboard(ctx, chatID)

	case stepAmount:
		parts := strings.SplitN(text, " ", 2)
		if len(parts) != 2 {
			b.sendErrorMessage(chatID, "Use the format: <amount> <description>, e.g. 250 Groceries")
			return nil
		}
		amount, err := decimal.NewFromString(parts[0])
		if err != nil || !amount.IsPositive() {
			b.sendErrorMessage(chatID, "The amount must be a positive number, e.g. 250 or 99.50")
			return nil
		}
		draft := model.TransactionDraft{
			Description: parts[1],
			Amount:      amount,
			Category:    state.Category,
			Date:        model.Today(),
		}
		if _, err := b.service.AddTransaction(ctx, draft); err != nil {
			b.reportError(chatID, err)
			return nil
		}
		delete(b.states, chatID)
		// Dashboard totals stay as of the last load until the next one.
		msg := tgbotapi.NewMessage(chatID, "Transaction saved! ✅ Open 📊 Dashboard for updated totals.")
		msg.ReplyMarkup = b.mainKeyboard()
		b.send(msg)

	case stepRules:
		fields := strings.Fields(text)
		if len(fields) != 3 {
			b.sendErrorMessage(chatID, "Enter three numbers, e.g.: 50 30 20")
			return nil
		}
		var rules model.BudgetRules
		var parseErr error
		rules.Needs, parseErr = strconv.Atoi(fields[0])
		if parseErr == nil {
			rules.Wants, parseErr = strconv.Atoi(fields[1])
		}
		if parseErr == nil {
			rules.Savings, parseErr = strconv.Atoi(fields[2])
		}
		if parseErr != nil {
			b.sendErrorMessage(chatID, "Enter three numbers, e.g.: 50 30 20")
			return nil
		}
		if err := b.service.UpdateBudgetRules(ctx, rules); err != nil {
			b.reportError(chatID, err)
			return nil
		}
		delete(b.states, chatID)
		b.send(tgbotapi.NewMessage(chatID,
			fmt.Sprintf("Budget rule updated to %d/%d/%d. ✅", rules.Needs, rules.Wants, rules.Savings)))

	case stepIncome:
		income, err := decimal.NewFromString(text)
		if err != nil {
			b.sendErrorMessage(chatID, "Please enter the income as a number.")
			return nil
		}
		if err := b.service.UpdateIncome(ctx, income); err != nil {
			b.reportError(chatID, err)
			return nil
		}
		delete(b.states, chatID)
		b.send(tgbotapi.NewMessage(chatID, "Income updated. ✅"))

	default:
		delete(b.states, chatID)
	}
	return nil
}

// afterLogin routes a freshly authenticated chat to setup or the dashboard.
func (b *Bot) afterLogin(ctx context.Context, chatID int64) {
	user := b.service.User()
	name := ""
	if user != nil && user.Name != "" {
		name = ", " + user.Name
	}
	b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Welcome back%s! 👋", name)))

	if b.service.IsNewUser() {
		b.startSetup(chatID)
		return
	}
	msg := tgbotapi.NewMessage(chatID, "What would you like to do?")
	msg.ReplyMarkup = b.mainKeyboard()
	b.send(msg)
	b.handleDashboard(ctx, chatID)
}
