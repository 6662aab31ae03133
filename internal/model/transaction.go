package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction categories as the backend knows them.
const (
	CategoryNeeds   = "needs"
	CategoryWants   = "wants"
	CategorySavings = "savings"
	CategoryIncome  = "income"
)

// Transaction is a single dashboard entry owned by the authenticated user.
// The server assigns ID; ClientID identifies an optimistic insert that has
// not been confirmed yet and never goes over the wire.
type Transaction struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        Date            `json:"date"`
	Order       int             `json:"order"`
	CreatedAt   time.Time       `json:"created_at"`
	ClientID    string          `json:"-"`
}

// Pending reports whether the entry is still waiting for server confirmation.
func (t *Transaction) Pending() bool {
	return t.ID == 0 && t.ClientID != ""
}

// TransactionDraft is the payload for create and update calls.
type TransactionDraft struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        Date            `json:"date"`
}

// NewPendingTransaction builds the optimistic local copy of a draft,
// keyed by a fresh client id until the server assigns a real one.
func NewPendingTransaction(draft TransactionDraft) Transaction {
	return Transaction{
		Description: draft.Description,
		Amount:      draft.Amount,
		Category:    draft.Category,
		Date:        draft.Date,
		ClientID:    uuid.New().String(),
	}
}

// Period identifies the (year, month) window a transaction list belongs to.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// CurrentPeriod returns the period containing now.
func CurrentPeriod() Period {
	now := time.Now()
	return Period{Year: now.Year(), Month: int(now.Month())}
}

// Prev returns the preceding calendar month.
func (p Period) Prev() Period {
	t := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Next returns the following calendar month.
func (p Period) Next() Period {
	t := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return Period{Year: t.Year(), Month: int(t.Month())}
}

func (p Period) String() string {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}
