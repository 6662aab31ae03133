package main

import (
	"context"
	"log"

	"github.com/wealthplanner/budget_bot/internal/api"
	"github.com/wealthplanner/budget_bot/internal/bot"
	"github.com/wealthplanner/budget_bot/internal/config"
	"github.com/wealthplanner/budget_bot/internal/persist"
	"github.com/wealthplanner/budget_bot/internal/service"
	"github.com/wealthplanner/budget_bot/internal/token"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	tokens, err := token.Open(cfg.StateDBPath)
	if err != nil {
		log.Fatal(err)
	}

	bridge, err := persist.Open(cfg.StateDBPath)
	if err != nil {
		log.Fatal(err)
	}

	client := api.NewClient(cfg.APIBaseURL, tokens, api.WithTimeout(cfg.RequestTimeout))

	// Rehydration happens here, before any routing decision.
	planner, err := service.NewBudgetPlanner(context.Background(), client, tokens, bridge)
	if err != nil {
		log.Fatal(err)
	}

	b, err := bot.NewBot(cfg.TelegramToken, planner)
	if err != nil {
		log.Fatal(err)
	}

	if err := b.Start(); err != nil {
		log.Fatal(err)
	}
}
