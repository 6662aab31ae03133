package main

import (
	"context"

	"github.com/wealthplanner/budget_bot/internal/api"
	"github.com/wealthplanner/budget_bot/internal/bot"
	"github.com/wealthplanner/budget_bot/internal/config"
	"github.com/wealthplanner/budget_bot/internal/persist"
	"github.com/wealthplanner/budget_bot/internal/service"
	"github.com/wealthplanner/budget_bot/internal/token"
)

// Request is the incoming payload from the API gateway.
type Request struct {
	Body string `json:"body"`
}

// Response is the payload returned to the API gateway.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// Handler processes one webhook update per invocation.
func Handler(ctx context.Context, request Request) (*Response, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return errorResponse(err)
	}

	tokens, err := token.Open(cfg.StateDBPath)
	if err != nil {
		return errorResponse(err)
	}

	bridge, err := persist.Open(cfg.StateDBPath)
	if err != nil {
		return errorResponse(err)
	}

	client := api.NewClient(cfg.APIBaseURL, tokens, api.WithTimeout(cfg.RequestTimeout))

	planner, err := service.NewBudgetPlanner(ctx, client, tokens, bridge)
	if err != nil {
		return errorResponse(err)
	}

	b, err := bot.NewBot(cfg.TelegramToken, planner)
	if err != nil {
		return errorResponse(err)
	}

	if err := b.HandleWebhook([]byte(request.Body)); err != nil {
		return errorResponse(err)
	}

	return &Response{
		StatusCode: 200,
		Body:       "",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func errorResponse(err error) (*Response, error) {
	return &Response{
		StatusCode: 500,
		Body:       err.Error(),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func main() {
	// Entry point for local testing.
}
