package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL     string
	TelegramToken  string
	StateDBPath    string
	RequestTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	// A missing .env file is fine, the variables may come from the environment.
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:     os.Getenv("API_BASE_URL"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		StateDBPath:    os.Getenv("STATE_DB_PATH"),
		RequestTimeout: 15 * time.Second,
	}

	if cfg.StateDBPath == "" {
		cfg.StateDBPath = "budget_bot.db"
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, err
		}
		cfg.RequestTimeout = d
	}

	return cfg, nil
}
