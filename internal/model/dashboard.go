package model

import "github.com/shopspring/decimal"

// CategoryTotals holds one amount per spend category.
type CategoryTotals struct {
	Needs   decimal.Decimal `json:"needs"`
	Wants   decimal.Decimal `json:"wants"`
	Savings decimal.Decimal `json:"savings"`
}

// Advice is a server-generated dashboard hint.
type Advice struct {
	Type  string `json:"type"` // "warning", "good" or "info"
	Title string `json:"title"`
	Text  string `json:"text"`
}

// HistoryEntry is one month of the yearly history list.
type HistoryEntry struct {
	Month       string          `json:"month"`
	Year        int             `json:"year"`
	MonthNum    int             `json:"month_num"`
	TotalIncome decimal.Decimal `json:"total_income"`
	Spent       decimal.Decimal `json:"spent"`
	Saved       decimal.Decimal `json:"saved"`
	Status      string          `json:"status"`
}

// DashboardSummary is the full dashboard payload for one period. It is
// replaced wholesale on every fetch, never merged field by field.
type DashboardSummary struct {
	User         UserProfile     `json:"user"`
	CurrentDate  Date            `json:"current_date"`
	Transactions []Transaction   `json:"transactions"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	Balance      decimal.Decimal `json:"balance"`
	Categories   CategoryTotals  `json:"categories"`
	Limits       CategoryTotals  `json:"limits"`
	Advice       []Advice        `json:"advice"`
	History      []HistoryEntry  `json:"history"`
	PrevMonth    Period          `json:"prev_month"`
	NextMonth    Period          `json:"next_month"`
}

// SavingsSummary is the savings analytics payload for one year.
type SavingsSummary struct {
	CurrentYear       int             `json:"current_year"`
	YearPrev          int             `json:"year_prev"`
	YearNext          *int            `json:"year_next"`
	TotalSavedAllTime decimal.Decimal `json:"total_saved_all_time"`
	TotalSavedYear    decimal.Decimal `json:"total_saved_year"`
	MonthlyGoal       decimal.Decimal `json:"monthly_goal"`
	YearlyGoal        decimal.Decimal `json:"yearly_goal"`
	ChartLabels       []string        `json:"chart_labels"`
	ChartValues       []float64       `json:"chart_values"`
	RecentSavings     []Transaction   `json:"recent_savings"`
	AvgMonthly        decimal.Decimal `json:"avg_monthly"`
	SavingsRate       float64         `json:"savings_rate"`
	ProjectedYear     decimal.Decimal `json:"projected_year"`
	BestMonthName     string          `json:"best_month_name"`
	BestMonthVal      decimal.Decimal `json:"best_month_val"`
	User              UserProfile     `json:"user"`
}
