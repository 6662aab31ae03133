package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/wealthplanner/budget_bot/internal/model"
)

// fakeBackend scripts server behavior for one test.
type fakeBackend struct {
	dashboard     *model.DashboardSummary
	dashboardErr  error
	dashboardGets int

	createResult *model.Transaction
	createErr    error

	updateResult *model.Transaction
	updateErr    error

	deleteErr  error
	reorderErr error
	reordered  []int64
}

func (f *fakeBackend) Dashboard(_ context.Context, year, month int) (*model.DashboardSummary, error) {
	f.dashboardGets++
	if f.dashboardErr != nil {
		return nil, f.dashboardErr
	}
	return f.dashboard, nil
}

func (f *fakeBackend) CreateTransaction(_ context.Context, draft model.TransactionDraft) (*model.Transaction, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResult, nil
}

func (f *fakeBackend) UpdateTransaction(_ context.Context, id int64, draft model.TransactionDraft) (*model.Transaction, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateResult, nil
}

func (f *fakeBackend) DeleteTransaction(_ context.Context, id int64) error {
	return f.deleteErr
}

func (f *fakeBackend) ReorderTransactions(_ context.Context, order []int64) error {
	if f.reorderErr != nil {
		return f.reorderErr
	}
	f.reordered = order
	return nil
}

func entry(id int64, description string) model.Transaction {
	return model.Transaction{
		ID:          id,
		Description: description,
		Amount:      decimal.NewFromInt(10),
		Category:    model.CategoryWants,
		Date:        model.Today(),
	}
}

type PeriodCacheTestSuite struct {
	suite.Suite
	backend *fakeBackend
	cache   *PeriodCache
}

// SetupTest runs before each test, loading a period with two entries.
func (suite *PeriodCacheTestSuite) SetupTest() {
	suite.backend = &fakeBackend{
		dashboard: &model.DashboardSummary{
			Transactions: []model.Transaction{entry(1, "Groceries"), entry(2, "Cinema")},
			TotalIncome:  decimal.NewFromInt(3000),
			TotalSpent:   decimal.NewFromInt(20),
			Balance:      decimal.NewFromInt(2980),
		},
	}
	suite.cache = New(suite.backend)

	_, err := suite.cache.LoadPeriod(context.Background(), 2026, 8)
	require.NoError(suite.T(), err)
}

func (suite *PeriodCacheTestSuite) TestLoadPeriodReplacesWholesale() {
	assert.Equal(suite.T(), model.Period{Year: 2026, Month: 8}, suite.cache.Period())
	assert.Len(suite.T(), suite.cache.Entries(), 2)

	summary := suite.cache.Summary()
	require.NotNil(suite.T(), summary)
	assert.True(suite.T(), summary.Balance.Equal(decimal.NewFromInt(2980)))
	assert.False(suite.T(), suite.cache.FetchedAt().IsZero())
}

func (suite *PeriodCacheTestSuite) TestAddEntryConfirmedReplacesPending() {
	suite.backend.createResult = &model.Transaction{
		ID:          7,
		Description: "Coffee",
		Amount:      decimal.NewFromInt(4),
		Category:    model.CategoryWants,
	}

	created, err := suite.cache.AddEntry(context.Background(), model.TransactionDraft{
		Description: "Coffee",
		Amount:      decimal.NewFromInt(4),
		Category:    model.CategoryWants,
		Date:        model.Today(),
	})
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 7, created.ID)

	entries := suite.cache.Entries()
	require.Len(suite.T(), entries, 3)
	// New entries land at the head, with the server-assigned id in place
	// of the pending copy.
	assert.EqualValues(suite.T(), 7, entries[0].ID)
	assert.False(suite.T(), entries[0].Pending())
}

func (suite *PeriodCacheTestSuite) TestAddEntryFailureRemovesPending() {
	suite.backend.createErr = errors.New("boom")

	_, err := suite.cache.AddEntry(context.Background(), model.TransactionDraft{
		Description: "Coffee",
		Amount:      decimal.NewFromInt(4),
		Category:    model.CategoryWants,
	})
	assert.Error(suite.T(), err)
	assert.Len(suite.T(), suite.cache.Entries(), 2, "failed add must leave no pending entry behind")
}

func (suite *PeriodCacheTestSuite) TestAddEntryDoesNotTouchAggregates() {
	suite.backend.createResult = &model.Transaction{ID: 7, Description: "Coffee"}

	before := suite.cache.Summary()
	_, err := suite.cache.AddEntry(context.Background(), model.TransactionDraft{Description: "Coffee"})
	require.NoError(suite.T(), err)

	after := suite.cache.Summary()
	assert.True(suite.T(), after.TotalSpent.Equal(before.TotalSpent), "aggregates stay stale until the next load")
	assert.True(suite.T(), after.Balance.Equal(before.Balance))
}

func (suite *PeriodCacheTestSuite) TestUpdateEntryReplacesInPlace() {
	suite.backend.updateResult = &model.Transaction{ID: 2, Description: "Theater", Amount: decimal.NewFromInt(30)}

	updated, err := suite.cache.UpdateEntry(context.Background(), 2, model.TransactionDraft{Description: "Theater"})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Theater", updated.Description)

	entries := suite.cache.Entries()
	require.Len(suite.T(), entries, 2)
	assert.Equal(suite.T(), "Theater", entries[1].Description)
}

func (suite *PeriodCacheTestSuite) TestUpdateEntryUncachedIdIsDroppedSilently() {
	suite.backend.updateResult = &model.Transaction{ID: 99, Description: "Elsewhere"}

	_, err := suite.cache.UpdateEntry(context.Background(), 99, model.TransactionDraft{Description: "Elsewhere"})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), suite.cache.Entries(), 2)
}

func (suite *PeriodCacheTestSuite) TestDeleteEntryConfirmed() {
	outcome, err := suite.cache.DeleteEntry(context.Background(), 1)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), DeleteConfirmed, outcome)

	entries := suite.cache.Entries()
	require.Len(suite.T(), entries, 1)
	assert.EqualValues(suite.T(), 2, entries[0].ID)
}

func (suite *PeriodCacheTestSuite) TestDeleteEntryFailureReconcilesFromServer() {
	suite.backend.deleteErr = errors.New("gateway timeout")
	// Server truth after reconciliation: the entry is gone.
	suite.backend.dashboard = &model.DashboardSummary{
		Transactions: []model.Transaction{entry(2, "Cinema")},
	}

	loadsBefore := suite.backend.dashboardGets
	outcome, err := suite.cache.DeleteEntry(context.Background(), 1)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), DeleteReconciling, outcome)
	assert.Equal(suite.T(), loadsBefore+1, suite.backend.dashboardGets, "failed delete must reload the period")

	entries := suite.cache.Entries()
	require.Len(suite.T(), entries, 1)
	assert.EqualValues(suite.T(), 2, entries[0].ID)
}

func (suite *PeriodCacheTestSuite) TestDeleteEntryFailureWithFailedReloadSurfacesError() {
	suite.backend.deleteErr = errors.New("gateway timeout")
	suite.backend.dashboardErr = errors.New("still down")

	outcome, err := suite.cache.DeleteEntry(context.Background(), 1)
	assert.Error(suite.T(), err)
	assert.Equal(suite.T(), DeleteReconciling, outcome)
}

func (suite *PeriodCacheTestSuite) TestReorderEntriesFollowsConfirmedOrder() {
	err := suite.cache.ReorderEntries(context.Background(), []int64{2, 1})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []int64{2, 1}, suite.backend.reordered)

	entries := suite.cache.Entries()
	require.Len(suite.T(), entries, 2)
	assert.EqualValues(suite.T(), 2, entries[0].ID)
	assert.EqualValues(suite.T(), 1, entries[1].ID)
}

func (suite *PeriodCacheTestSuite) TestReorderKeepsUnlistedEntriesAtTail() {
	err := suite.cache.ReorderEntries(context.Background(), []int64{2})
	require.NoError(suite.T(), err)

	entries := suite.cache.Entries()
	require.Len(suite.T(), entries, 2)
	assert.EqualValues(suite.T(), 2, entries[0].ID)
	assert.EqualValues(suite.T(), 1, entries[1].ID)
}

func (suite *PeriodCacheTestSuite) TestReorderAppliesLocallyBeforeConfirmation() {
	suite.backend.reorderErr = errors.New("boom")
	suite.backend.dashboardErr = errors.New("still down")

	// With both the call and the reconciliation reload failing, what
	// remains is the order applied before the call went out.
	err := suite.cache.ReorderEntries(context.Background(), []int64{2, 1})
	assert.Error(suite.T(), err)

	entries := suite.cache.Entries()
	require.Len(suite.T(), entries, 2)
	assert.EqualValues(suite.T(), 2, entries[0].ID)
	assert.EqualValues(suite.T(), 1, entries[1].ID)
}

func (suite *PeriodCacheTestSuite) TestReorderFailureReconcilesFromServer() {
	suite.backend.reorderErr = errors.New("boom")

	loadsBefore := suite.backend.dashboardGets
	err := suite.cache.ReorderEntries(context.Background(), []int64{2, 1})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), loadsBefore+1, suite.backend.dashboardGets)
}

func (suite *PeriodCacheTestSuite) TestDropEmptiesCacheKeepsPeriod() {
	suite.cache.Drop()

	assert.Empty(suite.T(), suite.cache.Entries())
	assert.Nil(suite.T(), suite.cache.Summary())
	assert.True(suite.T(), suite.cache.FetchedAt().IsZero())
	assert.Equal(suite.T(), model.Period{Year: 2026, Month: 8}, suite.cache.Period())
}

func (suite *PeriodCacheTestSuite) TestPrimeSeedsWithoutNetwork() {
	fresh := New(suite.backend)
	loadsBefore := suite.backend.dashboardGets

	fresh.Prime(model.Period{Year: 2026, Month: 7},
		[]model.Transaction{entry(5, "Rent")},
		&Summary{Balance: decimal.NewFromInt(100)},
		suite.cache.FetchedAt())

	assert.Equal(suite.T(), loadsBefore, suite.backend.dashboardGets)
	assert.Len(suite.T(), fresh.Entries(), 1)
	assert.Equal(suite.T(), model.Period{Year: 2026, Month: 7}, fresh.Period())
}

func TestPeriodCacheTestSuite(t *testing.T) {
	suite.Run(t, new(PeriodCacheTestSuite))
}
