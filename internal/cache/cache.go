// Package cache holds the currently viewed month's transactions and
// aggregate snapshot, and applies optimistic local mutations that are
// reconciled against server responses.
package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wealthplanner/budget_bot/internal/model"
)

// Backend is the slice of the API gateway the cache drives.
type Backend interface {
	Dashboard(ctx context.Context, year, month int) (*model.DashboardSummary, error)
	CreateTransaction(ctx context.Context, draft model.TransactionDraft) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, draft model.TransactionDraft) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	ReorderTransactions(ctx context.Context, order []int64) error
}

// Summary is the aggregate snapshot for one period. It is replaced as a
// whole on each load and deliberately NOT touched by entry mutations:
// totals shown right after an add or delete are stale until the next
// LoadPeriod.
type Summary struct {
	TotalIncome decimal.Decimal      `json:"total_income"`
	TotalSpent  decimal.Decimal      `json:"total_spent"`
	Balance     decimal.Decimal      `json:"balance"`
	Categories  model.CategoryTotals `json:"categories"`
	Limits      model.CategoryTotals `json:"limits"`
	Advice      []model.Advice       `json:"advice"`
	History     []model.HistoryEntry `json:"history"`
	FetchedAt   time.Time            `json:"fetched_at"`
}

// DeleteOutcome distinguishes a confirmed delete from one that triggered
// reconciliation against server truth.
type DeleteOutcome int

const (
	// DeleteConfirmed: the server acknowledged the delete and the entry
	// was removed from the cached sequence.
	DeleteConfirmed DeleteOutcome = iota
	// DeleteReconciling: the delete call failed, but the resource may be
	// gone server-side anyway, so the active period was reloaded instead
	// of trusting the failure signal.
	DeleteReconciling
)

// PeriodCache caches one (year, month) window of entries plus its
// aggregate snapshot.
type PeriodCache struct {
	backend Backend

	mu        sync.Mutex
	period    model.Period
	entries   []model.Transaction
	summary   *Summary
	fetchedAt time.Time
}

// New builds an empty cache positioned on the current period.
func New(backend Backend) *PeriodCache {
	return &PeriodCache{
		backend: backend,
		period:  model.CurrentPeriod(),
	}
}

// LoadPeriod fetches the dashboard for (year, month) and replaces the
// entry list and aggregate snapshot wholesale. Safe to call repeatedly
// and in the background.
func (c *PeriodCache) LoadPeriod(ctx context.Context, year, month int) (*model.DashboardSummary, error) {
	summary, err := c.backend.Dashboard(ctx, year, month)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.period = model.Period{Year: year, Month: month}
	c.entries = summary.Transactions
	c.fetchedAt = time.Now()
	c.summary = &Summary{
		TotalIncome: summary.TotalIncome,
		TotalSpent:  summary.TotalSpent,
		Balance:     summary.Balance,
		Categories:  summary.Categories,
		Limits:      summary.Limits,
		Advice:      summary.Advice,
		History:     summary.History,
		FetchedAt:   c.fetchedAt,
	}
	return summary, nil
}

// Refresh re-runs LoadPeriod for the active period.
func (c *PeriodCache) Refresh(ctx context.Context) error {
	p := c.Period()
	_, err := c.LoadPeriod(ctx, p.Year, p.Month)
	return err
}

// AddEntry creates an entry. A pending copy keyed by a client id is
// inserted at the head immediately; on confirmation it is replaced by the
// server-assigned record, on failure it is removed again.
func (c *PeriodCache) AddEntry(ctx context.Context, draft model.TransactionDraft) (*model.Transaction, error) {
	pending := model.NewPendingTransaction(draft)

	c.mu.Lock()
	c.entries = append([]model.Transaction{pending}, c.entries...)
	c.mu.Unlock()

	created, err := c.backend.CreateTransaction(ctx, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexByClientID(pending.ClientID)
	if err != nil {
		if idx >= 0 {
			c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
		}
		return nil, err
	}
	if idx >= 0 {
		c.entries[idx] = *created
	}
	return created, nil
}

// UpdateEntry edits an entry. The confirmed record replaces the cached one
// in place; when the id is not cached the result is dropped silently.
func (c *PeriodCache) UpdateEntry(ctx context.Context, id int64, draft model.TransactionDraft) (*model.Transaction, error) {
	updated, err := c.backend.UpdateTransaction(ctx, id, draft)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexByID(id); idx >= 0 {
		c.entries[idx] = *updated
	}
	return updated, nil
}

// DeleteEntry removes an entry. On a confirmed delete the entry leaves the
// cache. On a failed call the server may still have performed the delete,
// so the active period is reloaded to reconcile; the error is surfaced
// only when that reload fails too.
func (c *PeriodCache) DeleteEntry(ctx context.Context, id int64) (DeleteOutcome, error) {
	if err := c.backend.DeleteTransaction(ctx, id); err != nil {
		log.Printf("cache: delete %d failed, reconciling: %v", id, err)
		if reloadErr := c.Refresh(ctx); reloadErr != nil {
			return DeleteReconciling, fmt.Errorf("reconcile after failed delete: %w", reloadErr)
		}
		return DeleteReconciling, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexByID(id); idx >= 0 {
		c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
	}
	return DeleteConfirmed, nil
}

// ReorderEntries stores a manual ordering. The new order is applied to
// the local sequence before the call goes out; a failed call falls back
// to a reconciliation reload.
func (c *PeriodCache) ReorderEntries(ctx context.Context, order []int64) error {
	c.mu.Lock()
	c.entries = applyOrder(c.entries, order)
	c.mu.Unlock()

	if err := c.backend.ReorderTransactions(ctx, order); err != nil {
		log.Printf("cache: reorder failed, reconciling: %v", err)
		return c.Refresh(ctx)
	}
	return nil
}

func applyOrder(entries []model.Transaction, order []int64) []model.Transaction {
	byID := make(map[int64]model.Transaction, len(entries))
	for _, tx := range entries {
		byID[tx.ID] = tx
	}
	reordered := make([]model.Transaction, 0, len(entries))
	for _, id := range order {
		if tx, ok := byID[id]; ok {
			reordered = append(reordered, tx)
			delete(byID, id)
		}
	}
	// Entries missing from the order list keep their relative position at
	// the tail.
	for _, tx := range entries {
		if _, ok := byID[tx.ID]; ok {
			reordered = append(reordered, tx)
		}
	}
	return reordered
}

// Prime seeds the cache from a rehydrated snapshot without touching the
// network.
func (c *PeriodCache) Prime(period model.Period, entries []model.Transaction, summary *Summary, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.period = period
	c.entries = entries
	c.summary = summary
	c.fetchedAt = fetchedAt
}

// Drop empties the cache, keeping the period position.
func (c *PeriodCache) Drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.summary = nil
	c.fetchedAt = time.Time{}
}

// Entries returns a copy of the cached ordered sequence.
func (c *PeriodCache) Entries() []model.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Transaction, len(c.entries))
	copy(out, c.entries)
	return out
}

// Summary returns the aggregate snapshot, or nil before the first load.
func (c *PeriodCache) Summary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary == nil {
		return nil
	}
	s := *c.summary
	return &s
}

// Period returns the active (year, month) window.
func (c *PeriodCache) Period() model.Period {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.period
}

// FetchedAt returns the freshness timestamp of the last successful load.
func (c *PeriodCache) FetchedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchedAt
}

func (c *PeriodCache) indexByID(id int64) int {
	for i := range c.entries {
		if c.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *PeriodCache) indexByClientID(clientID string) int {
	for i := range c.entries {
		if c.entries[i].ClientID == clientID {
			return i
		}
	}
	return -1
}
