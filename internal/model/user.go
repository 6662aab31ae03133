package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserProfile is the server-owned user record.
type UserProfile struct {
	ID          int64           `json:"id"`
	Phone       string          `json:"phone"`
	Name        string          `json:"name"`
	Income      decimal.Decimal `json:"income"`
	Currency    string          `json:"currency"`
	Theme       string          `json:"theme"`
	RuleNeeds   int             `json:"rule_needs"`
	RuleWants   int             `json:"rule_wants"`
	RuleSavings int             `json:"rule_savings"`
	CreatedAt   time.Time       `json:"created_at"`
}

// BudgetRules is the needs/wants/savings percentage split.
// The sum-to-100 check happens at the edit boundary, not here.
type BudgetRules struct {
	Needs   int `json:"rule_needs"`
	Wants   int `json:"rule_wants"`
	Savings int `json:"rule_savings"`
}

// Sum returns the total of the three percentages.
func (r BudgetRules) Sum() int {
	return r.Needs + r.Wants + r.Savings
}

// ProfileUpdate is a partial profile edit; nil fields are left untouched
// server-side.
type ProfileUpdate struct {
	Name     *string          `json:"name,omitempty"`
	Income   *decimal.Decimal `json:"income,omitempty"`
	Currency *string          `json:"currency,omitempty"`
	Theme    *string          `json:"theme,omitempty"`
	Needs    *int             `json:"rule_needs,omitempty"`
	Wants    *int             `json:"rule_wants,omitempty"`
	Savings  *int             `json:"rule_savings,omitempty"`
}

// SetupParams is the first-run profile setup payload for new users.
type SetupParams struct {
	Name     string           `json:"name"`
	Income   *decimal.Decimal `json:"income,omitempty"`
	Currency string           `json:"currency,omitempty"`
	Needs    *int             `json:"rule_needs,omitempty"`
	Wants    *int             `json:"rule_wants,omitempty"`
	Savings  *int             `json:"rule_savings,omitempty"`
}
