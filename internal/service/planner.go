// Package service provides the high-level budgeting operations the
// front-end dispatches: onboarding, dashboard loading, transaction CRUD,
// savings analytics and settings.
package service

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/wealthplanner/budget_bot/internal/api"
	"github.com/wealthplanner/budget_bot/internal/cache"
	"github.com/wealthplanner/budget_bot/internal/model"
	"github.com/wealthplanner/budget_bot/internal/persist"
	"github.com/wealthplanner/budget_bot/internal/session"
	"github.com/wealthplanner/budget_bot/internal/token"
)

// BudgetPlanner wires the gateway, session, period cache and persistence
// bridge into one facade.
type BudgetPlanner struct {
	client  *api.Client
	issuer  api.CredentialIssuer
	session *session.Manager
	cache   *cache.PeriodCache
	bridge  *persist.Bridge
}

// NewBudgetPlanner builds the planner and rehydrates persisted state
// before returning, so the caller can route on Authenticated() right away.
func NewBudgetPlanner(ctx context.Context, client *api.Client, tokens token.Store, bridge *persist.Bridge) (*BudgetPlanner, error) {
	p := &BudgetPlanner{
		client:  client,
		issuer:  &api.PinIssuer{Client: client},
		session: session.NewManager(tokens),
		cache:   cache.New(client),
		bridge:  bridge,
	}

	snap, err := bridge.Rehydrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("rehydrate: %w", err)
	}
	if snap != nil {
		p.session.Restore(ctx, snap.User, snap.IsNewUser)
		if p.session.Authenticated(ctx) && snap.Period != nil {
			p.cache.Prime(*snap.Period, snap.Entries, snap.Summary, snap.FetchedAt)
		}
	}
	return p, nil
}

// saveState snapshots session + last loaded period. Persistence failures
// are logged, not propagated: the in-memory state is already correct.
func (p *BudgetPlanner) saveState(ctx context.Context) {
	period := p.cache.Period()
	snap := persist.Snapshot{
		User:      p.session.User(),
		IsNewUser: p.session.IsNewUser(),
		Period:    &period,
		Entries:   p.cache.Entries(),
		Summary:   p.cache.Summary(),
		FetchedAt: p.cache.FetchedAt(),
	}
	if err := p.bridge.Save(ctx, snap); err != nil {
		log.Printf("service: persist state: %v", err)
	}
}

// Authenticated reports whether a credential pair is stored.
func (p *BudgetPlanner) Authenticated(ctx context.Context) bool {
	return p.session.Authenticated(ctx)
}

// IsNewUser reports whether first-run setup is pending.
func (p *BudgetPlanner) IsNewUser() bool {
	return p.session.IsNewUser()
}

// User returns the cached profile, or nil when logged out.
func (p *BudgetPlanner) User() *model.UserProfile {
	return p.session.User()
}

// CheckPhone starts the onboarding flow for a phone number.
func (p *BudgetPlanner) CheckPhone(ctx context.Context, phone string) (*api.OnboardingStatus, error) {
	return p.issuer.Begin(ctx, phone)
}

// Login exchanges phone+PIN for a session.
func (p *BudgetPlanner) Login(ctx context.Context, phone, pin string) error {
	return p.issue(ctx, phone, pin, "")
}

// Register creates an account with phone, PIN and name.
func (p *BudgetPlanner) Register(ctx context.Context, phone, pin, name string) error {
	if name == "" {
		name = "User"
	}
	return p.issue(ctx, phone, pin, name)
}

func (p *BudgetPlanner) issue(ctx context.Context, phone, secret, name string) error {
	res, err := p.issuer.Issue(ctx, phone, secret, name)
	if err != nil {
		return err
	}
	if err := p.client.StoreCredentials(ctx, res.Tokens); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}
	p.session.Login(res.User, res.IsNewUser)
	p.saveState(ctx)
	return nil
}

// CompleteSetup finishes the first-run profile for a new user.
func (p *BudgetPlanner) CompleteSetup(ctx context.Context, params model.SetupParams) error {
	user, err := p.client.SetupUser(ctx, params)
	if err != nil {
		return err
	}
	p.session.CompleteSetup(*user)
	p.saveState(ctx)
	return nil
}

// RefreshProfile fetches the profile and records it in the session.
func (p *BudgetPlanner) RefreshProfile(ctx context.Context) (*model.UserProfile, error) {
	user, err := p.client.Profile(ctx)
	if err != nil {
		return nil, err
	}
	p.session.UpdateProfile(*user)
	p.saveState(ctx)
	return user, nil
}

// UpdateIncome changes the monthly base income.
func (p *BudgetPlanner) UpdateIncome(ctx context.Context, income decimal.Decimal) error {
	if income.IsNegative() {
		return fmt.Errorf("income cannot be negative")
	}
	return p.updateProfile(ctx, model.ProfileUpdate{Income: &income})
}

// UpdateBudgetRules changes the needs/wants/savings split. The sum-to-100
// invariant is enforced here, at the edit boundary, matching the server.
func (p *BudgetPlanner) UpdateBudgetRules(ctx context.Context, rules model.BudgetRules) error {
	if rules.Sum() != 100 {
		return fmt.Errorf("budget rules must add up to 100%%, got %d", rules.Sum())
	}
	return p.updateProfile(ctx, model.ProfileUpdate{
		Needs:   &rules.Needs,
		Wants:   &rules.Wants,
		Savings: &rules.Savings,
	})
}

func (p *BudgetPlanner) updateProfile(ctx context.Context, update model.ProfileUpdate) error {
	user, err := p.client.UpdateProfile(ctx, update)
	if err != nil {
		return err
	}
	p.session.UpdateProfile(*user)
	p.saveState(ctx)
	return nil
}

// Logout tears the session down. Idempotent.
func (p *BudgetPlanner) Logout(ctx context.Context) {
	p.session.Logout(ctx)
	p.cache.Drop()
	p.saveState(ctx)
}

// LoadDashboard loads (or reloads) the dashboard for a period.
func (p *BudgetPlanner) LoadDashboard(ctx context.Context, period model.Period) error {
	summary, err := p.cache.LoadPeriod(ctx, period.Year, period.Month)
	if err != nil {
		return err
	}
	// The dashboard payload carries the latest profile; keep the session
	// in step.
	p.session.UpdateProfile(summary.User)
	p.saveState(ctx)
	return nil
}

// DashboardView returns the cached view of the active period.
func (p *BudgetPlanner) DashboardView() (model.Period, []model.Transaction, *cache.Summary) {
	return p.cache.Period(), p.cache.Entries(), p.cache.Summary()
}

// AddTransaction creates an entry in the active period.
func (p *BudgetPlanner) AddTransaction(ctx context.Context, draft model.TransactionDraft) (*model.Transaction, error) {
	if !draft.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}
	if draft.Date.IsZero() {
		draft.Date = model.Today()
	}
	tx, err := p.cache.AddEntry(ctx, draft)
	if err != nil {
		return nil, err
	}
	p.saveState(ctx)
	return tx, nil
}

// UpdateTransaction edits an entry.
func (p *BudgetPlanner) UpdateTransaction(ctx context.Context, id int64, draft model.TransactionDraft) (*model.Transaction, error) {
	tx, err := p.cache.UpdateEntry(ctx, id, draft)
	if err != nil {
		return nil, err
	}
	p.saveState(ctx)
	return tx, nil
}

// DeleteTransaction deletes an entry, reporting whether the delete was
// confirmed or a reconciliation reload was triggered.
func (p *BudgetPlanner) DeleteTransaction(ctx context.Context, id int64) (cache.DeleteOutcome, error) {
	outcome, err := p.cache.DeleteEntry(ctx, id)
	if err == nil {
		p.saveState(ctx)
	}
	return outcome, err
}

// ReorderTransactions stores a manual ordering for the active period.
func (p *BudgetPlanner) ReorderTransactions(ctx context.Context, order []int64) error {
	if err := p.cache.ReorderEntries(ctx, order); err != nil {
		return err
	}
	p.saveState(ctx)
	return nil
}

// Savings fetches the savings analytics for a year. Not cached: the view
// is opened rarely and always wants fresh numbers.
func (p *BudgetPlanner) Savings(ctx context.Context, year int) (*model.SavingsSummary, error) {
	return p.client.Savings(ctx, year)
}

// ResetData wipes all transactions and settings server-side, then brings
// the local state back in line.
func (p *BudgetPlanner) ResetData(ctx context.Context) error {
	user, err := p.client.ResetData(ctx)
	if err != nil {
		return err
	}
	p.session.UpdateProfile(*user)
	if err := p.cache.Refresh(ctx); err != nil {
		log.Printf("service: reload after reset: %v", err)
	}
	p.saveState(ctx)
	return nil
}

// ToggleTheme flips the server-side theme preference.
func (p *BudgetPlanner) ToggleTheme(ctx context.Context) (string, error) {
	theme, err := p.client.ToggleTheme(ctx)
	if err != nil {
		return "", err
	}
	if user := p.session.User(); user != nil {
		user.Theme = theme
		p.session.UpdateProfile(*user)
		p.saveState(ctx)
	}
	return theme, nil
}
