// Package bot is the Telegram front-end over the budgeting core. It only
// reads snapshots and dispatches intents; all state lives in the service
// layer underneath.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wealthplanner/budget_bot/internal/api"
	"github.com/wealthplanner/budget_bot/internal/charts"
	"github.com/wealthplanner/budget_bot/internal/service"
)

// Conversation steps.
const (
	stepPhone       = "phone"
	stepPIN         = "pin"
	stepRegisterPIN = "register_pin"
	stepName        = "name"
	stepSetupIncome = "setup_income"
	stepAmount      = "amount"
	stepRules       = "rules"
	stepIncome      = "income"
)

// UserState holds where a chat currently is in a multi-message flow.
type UserState struct {
	Step     string
	Phone    string
	PIN      string
	Name     string
	Category string
}

// Bot serves one user's budgeting session over Telegram.
type Bot struct {
	tg      *tgbotapi.BotAPI
	service *service.BudgetPlanner
	charts  *charts.ChartGenerator
	states  map[int64]*UserState // conversation state per chat
}

func NewBot(tokenStr string, planner *service.BudgetPlanner) (*Bot, error) {
	tg, err := tgbotapi.NewBotAPI(tokenStr)
	if err != nil {
		return nil, err
	}

	return &Bot{
		tg:      tg,
		service: planner,
		charts:  charts.NewChartGenerator(),
		states:  make(map[int64]*UserState),
	}, nil
}

// Start runs the bot in long-polling mode.
func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tg.GetUpdatesChan(u)

	for update := range updates {
		if err := b.handleUpdate(update); err != nil {
			fmt.Printf("Error handling update: %v\n", err)
		}
	}

	return nil
}

// HandleWebhook is the entry point for incoming webhook updates.
func (b *Bot) HandleWebhook(body []byte) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return err
	}
	return b.handleUpdate(update)
}

func (b *Bot) handleUpdate(update tgbotapi.Update) error {
	if update.Message == nil && update.CallbackQuery == nil {
		return nil
	}

	if update.Message != nil && update.Message.IsCommand() {
		return b.handleCommand(update.Message)
	}

	if update.CallbackQuery != nil {
		return b.handleCallback(update.CallbackQuery)
	}

	if update.Message != nil {
		return b.handleMessage(update.Message)
	}

	return nil
}

func (b *Bot) handleCommand(message *tgbotapi.Message) error {
	ctx := context.Background()
	chatID := message.Chat.ID

	if !b.service.Authenticated(ctx) && message.Command() != "start" {
		b.startLogin(chatID)
		return nil
	}

	switch message.Command() {
	case "start":
		b.handleStart(chatID)
	case "dashboard":
		b.handleDashboard(ctx, chatID)
	case "add":
		b.handleAdd(chatID)
	case "transactions":
		b.handleTransactions(chatID)
	case "savings":
		b.handleSavings(ctx, chatID)
	case "settings":
		b.handleSettings(chatID)
	case "logout":
		b.handleLogout(ctx, chatID)
	}

	return nil
}

func (b *Bot) handleStart(chatID int64) {
	ctx := context.Background()

	if !b.service.Authenticated(ctx) {
		b.send(tgbotapi.NewMessage(chatID,
			"Welcome to WealthPlanner! 💰\n\n"+
				"I track your monthly budget with the 50/30/20 rule:\n"+
				"• Needs, wants and savings limits\n"+
				"• A monthly dashboard with advice\n"+
				"• Savings analytics and charts"))
		b.startLogin(chatID)
		return
	}

	if b.service.IsNewUser() {
		b.startSetup(chatID)
		return
	}

	msg := tgbotapi.NewMessage(chatID, "What would you like to do?")
	msg.ReplyMarkup = b.mainKeyboard()
	b.send(msg)
}

// startLogin begins the phone → PIN conversation.
func (b *Bot) startLogin(chatID int64) {
	b.states[chatID] = &UserState{Step: stepPhone}
	b.send(tgbotapi.NewMessage(chatID, "📱 Please enter your phone number:"))
}

// startSetup begins the first-run profile conversation for new users.
func (b *Bot) startSetup(chatID int64) {
	b.states[chatID] = &UserState{Step: stepSetupIncome}
	b.send(tgbotapi.NewMessage(chatID, "Almost there! What is your monthly income?"))
}

func (b *Bot) handleLogout(ctx context.Context, chatID int64) {
	b.service.Logout(ctx)
	delete(b.states, chatID)
	msg := tgbotapi.NewMessage(chatID, "You have been logged out. 👋")
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	b.send(msg)
	b.startLogin(chatID)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.tg.Send(c); err != nil {
		fmt.Printf("Error sending message: %v\n", err)
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, "❌ "+text))
}

// reportError renders a failed operation. An expired session routes the
// chat back into the login flow; validation messages are shown verbatim.
func (b *Bot) reportError(chatID int64, err error) {
	switch {
	case errors.Is(err, api.ErrSessionExpired):
		b.sendErrorMessage(chatID, "Your session has expired. Please log in again.")
		b.startLogin(chatID)
	case api.IsValidation(err):
		b.sendErrorMessage(chatID, err.Error())
	default:
		b.sendErrorMessage(chatID, "Something went wrong. Please try again.")
		fmt.Printf("Error: %v\n", err)
	}
}
