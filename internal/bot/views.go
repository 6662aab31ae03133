package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wealthplanner/budget_bot/internal/cache"
	"github.com/wealthplanner/budget_bot/internal/model"
)

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func categoryEmoji(category string) string {
	switch category {
	case model.CategoryNeeds:
		return "🏠"
	case model.CategoryWants:
		return "🎮"
	case model.CategorySavings:
		return "🏦"
	case model.CategoryIncome:
		return "💵"
	default:
		return "💸"
	}
}

func categoryTitle(category string) string {
	switch category {
	case model.CategoryNeeds:
		return "Needs"
	case model.CategoryWants:
		return "Wants"
	case model.CategorySavings:
		return "Savings"
	case model.CategoryIncome:
		return "Income"
	default:
		return category
	}
}

func formatDashboard(period model.Period, entries []model.Transaction, summary *cache.Summary, user *model.UserProfile) string {
	cur := user.Currency

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 %s\n\n", period)
	fmt.Fprintf(&sb, "💰 Income: %s%s\n", cur, summary.TotalIncome.StringFixed(2))
	fmt.Fprintf(&sb, "💸 Spent: %s%s\n", cur, summary.TotalSpent.StringFixed(2))
	fmt.Fprintf(&sb, "💵 Balance: %s%s\n\n", cur, summary.Balance.StringFixed(2))

	sb.WriteString("Budget:\n")
	writeBudgetLine(&sb, "🏠 Needs", cur, summary.Categories.Needs, summary.Limits.Needs)
	writeBudgetLine(&sb, "🎮 Wants", cur, summary.Categories.Wants, summary.Limits.Wants)
	writeBudgetLine(&sb, "🏦 Savings", cur, summary.Categories.Savings, summary.Limits.Savings)

	if len(summary.Advice) > 0 {
		sb.WriteString("\n")
		for _, a := range summary.Advice {
			fmt.Fprintf(&sb, "%s %s\n", a.Title, a.Text)
		}
	}

	if len(entries) > 0 {
		sb.WriteString("\nRecent:\n")
		limit := len(entries)
		if limit > 5 {
			limit = 5
		}
		for _, tx := range entries[:limit] {
			marker := ""
			if tx.Pending() {
				marker = " ⏳"
			}
			fmt.Fprintf(&sb, "%s %s — %s%s%s\n",
				categoryEmoji(tx.Category), tx.Description, cur, tx.Amount.StringFixed(2), marker)
		}
	}

	return sb.String()
}

func writeBudgetLine(sb *strings.Builder, title, cur string, spent, limit decimal.Decimal) {
	over := ""
	if limit.IsPositive() && spent.GreaterThan(limit) {
		over = " ⚠️"
	}
	fmt.Fprintf(sb, "%s: %s%s of %s%s%s\n", title, cur, spent.StringFixed(2), cur, limit.StringFixed(2), over)
}

func formatSavings(s *model.SavingsSummary) string {
	cur := s.User.Currency

	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 Savings %d\n\n", s.CurrentYear)
	fmt.Fprintf(&sb, "This year: %s%s of %s%s goal\n", cur, s.TotalSavedYear.StringFixed(2), cur, s.YearlyGoal.StringFixed(2))
	fmt.Fprintf(&sb, "All time: %s%s\n", cur, s.TotalSavedAllTime.StringFixed(2))
	fmt.Fprintf(&sb, "Monthly average: %s%s (goal %s%s)\n", cur, s.AvgMonthly.StringFixed(2), cur, s.MonthlyGoal.StringFixed(2))
	fmt.Fprintf(&sb, "Savings rate: %.1f%%\n", s.SavingsRate)
	fmt.Fprintf(&sb, "Projected year total: %s%s\n", cur, s.ProjectedYear.StringFixed(2))

	if s.BestMonthName != "" && s.BestMonthName != "N/A" {
		fmt.Fprintf(&sb, "Best month: %s (%s%s)\n", s.BestMonthName, cur, s.BestMonthVal.StringFixed(2))
	}

	if len(s.RecentSavings) > 0 {
		sb.WriteString("\nRecent savings:\n")
		for _, tx := range s.RecentSavings {
			fmt.Fprintf(&sb, "• %s — %s%s (%s)\n", tx.Description, cur, tx.Amount.StringFixed(2), tx.Date.Format("02 Jan"))
		}
	}

	return sb.String()
}
