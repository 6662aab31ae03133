package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wealthplanner/budget_bot/internal/model"
)

// CredentialPair is the bearer token pair issued by the backend.
type CredentialPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthResult is the issuance payload shared by register, login-pin and
// verify-otp.
type AuthResult struct {
	Tokens    CredentialPair    `json:"tokens"`
	User      model.UserProfile `json:"user"`
	IsNewUser bool              `json:"is_new_user"`
}

// OnboardingStatus tells the login flow which screen comes next.
type OnboardingStatus struct {
	Exists bool `json:"exists"`
	PinSet bool `json:"pin_set"`
}

// TransactionFilter narrows a transaction list request.
type TransactionFilter struct {
	Year     int
	Month    int
	Category string
	Search   string
}

// CheckStatus asks whether the phone number is registered and has a PIN.
func (c *Client) CheckStatus(ctx context.Context, phone string) (*OnboardingStatus, error) {
	var status OnboardingStatus
	err := c.public(ctx, http.MethodPost, "auth/check-status/", map[string]string{"phone": phone}, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Register creates an account (or sets the PIN of a PIN-less one).
func (c *Client) Register(ctx context.Context, phone, pin, name string) (*AuthResult, error) {
	body := map[string]string{"phone": phone, "pin": pin, "name": name}
	var res AuthResult
	if err := c.public(ctx, http.MethodPost, "auth/register/", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// LoginPIN authenticates with phone and PIN.
func (c *Client) LoginPIN(ctx context.Context, phone, pin string) (*AuthResult, error) {
	body := map[string]string{"phone": phone, "pin": pin}
	var res AuthResult
	if err := c.public(ctx, http.MethodPost, "auth/login-pin/", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SendOTP asks the backend to text a one-time code to the phone.
func (c *Client) SendOTP(ctx context.Context, phone string) error {
	return c.public(ctx, http.MethodPost, "auth/send-otp/", map[string]string{"phone": phone}, nil)
}

// VerifyOTP exchanges a one-time code for a credential pair.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (*AuthResult, error) {
	body := map[string]string{"phone": phone, "otp": code}
	var res AuthResult
	if err := c.public(ctx, http.MethodPost, "auth/verify-otp/", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Profile fetches the authenticated user's record.
func (c *Client) Profile(ctx context.Context) (*model.UserProfile, error) {
	var user model.UserProfile
	if err := c.do(ctx, http.MethodGet, "user/profile/", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies a partial profile edit and returns the full record.
func (c *Client) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.UserProfile, error) {
	var user model.UserProfile
	if err := c.do(ctx, http.MethodPut, "user/profile/", nil, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetupUser completes a new user's first-run profile.
func (c *Client) SetupUser(ctx context.Context, params model.SetupParams) (*model.UserProfile, error) {
	var user model.UserProfile
	if err := c.do(ctx, http.MethodPost, "user/setup/", nil, params, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Transactions lists the entries matching the filter, server-ordered.
func (c *Client) Transactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error) {
	query := url.Values{}
	if filter.Year != 0 {
		query.Set("year", strconv.Itoa(filter.Year))
	}
	if filter.Month != 0 {
		query.Set("month", strconv.Itoa(filter.Month))
	}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}

	var txs []model.Transaction
	if err := c.do(ctx, http.MethodGet, "transactions/", query, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// CreateTransaction creates an entry and returns the server-assigned record.
func (c *Client) CreateTransaction(ctx context.Context, draft model.TransactionDraft) (*model.Transaction, error) {
	var tx model.Transaction
	if err := c.do(ctx, http.MethodPost, "transactions/", nil, draft, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Transaction fetches one entry by id.
func (c *Client) Transaction(ctx context.Context, id int64) (*model.Transaction, error) {
	var tx model.Transaction
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("transactions/%d/", id), nil, nil, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// UpdateTransaction edits an entry and returns the updated record.
func (c *Client) UpdateTransaction(ctx context.Context, id int64, draft model.TransactionDraft) (*model.Transaction, error) {
	var tx model.Transaction
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("transactions/%d/", id), nil, draft, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// DeleteTransaction deletes an entry by id.
func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("transactions/%d/", id), nil, nil, nil)
}

// ReorderTransactions stores a new manual ordering for the listed ids.
func (c *Client) ReorderTransactions(ctx context.Context, order []int64) error {
	return c.do(ctx, http.MethodPost, "transactions/reorder/", nil, map[string][]int64{"order": order}, nil)
}

// Dashboard fetches the aggregate snapshot for one period.
func (c *Client) Dashboard(ctx context.Context, year, month int) (*model.DashboardSummary, error) {
	query := url.Values{}
	query.Set("year", strconv.Itoa(year))
	query.Set("month", strconv.Itoa(month))

	var summary model.DashboardSummary
	if err := c.do(ctx, http.MethodGet, "dashboard/", query, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Savings fetches the savings analytics for one year.
func (c *Client) Savings(ctx context.Context, year int) (*model.SavingsSummary, error) {
	query := url.Values{}
	query.Set("year", strconv.Itoa(year))

	var summary model.SavingsSummary
	if err := c.do(ctx, http.MethodGet, "savings/", query, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ResetData wipes all transactions and resets profile settings.
func (c *Client) ResetData(ctx context.Context) (*model.UserProfile, error) {
	var res struct {
		Message string            `json:"message"`
		User    model.UserProfile `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "settings/reset/", nil, nil, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// ToggleTheme flips the server-side theme and returns the new one.
func (c *Client) ToggleTheme(ctx context.Context) (string, error) {
	var res struct {
		Theme string `json:"theme"`
	}
	if err := c.do(ctx, http.MethodPost, "settings/toggle-theme/", nil, nil, &res); err != nil {
		return "", err
	}
	return res.Theme, nil
}
