package persist

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/wealthplanner/budget_bot/internal/cache"
	"github.com/wealthplanner/budget_bot/internal/model"
)

type BridgeTestSuite struct {
	suite.Suite
	bridge *Bridge
	path   string
}

// SetupTest runs before each test
func (suite *BridgeTestSuite) SetupTest() {
	suite.path = filepath.Join(suite.T().TempDir(), "state.db")
	bridge, err := Open(suite.path)
	require.NoError(suite.T(), err, "failed to open snapshot store")
	suite.bridge = bridge
}

// TearDownTest runs after each test
func (suite *BridgeTestSuite) TearDownTest() {
	if suite.bridge != nil {
		suite.bridge.Close()
	}
}

func sampleSnapshot() Snapshot {
	income := decimal.NewFromInt(3000)
	return Snapshot{
		User: &model.UserProfile{
			ID:     1,
			Phone:  "+15550100",
			Name:   "Dana",
			Income: income,
		},
		Period:  &model.Period{Year: 2026, Month: 8},
		Entries: []model.Transaction{{ID: 1, Description: "Groceries", Amount: decimal.NewFromInt(40)}},
		Summary: &cache.Summary{
			TotalIncome: income,
			TotalSpent:  decimal.NewFromInt(40),
			Balance:     decimal.NewFromInt(2960),
		},
		FetchedAt: time.Now().Truncate(time.Second),
	}
}

func (suite *BridgeTestSuite) TestRehydrateEmptyReturnsNil() {
	snap, err := suite.bridge.Rehydrate(context.Background())
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), snap)
}

func (suite *BridgeTestSuite) TestSaveThenRehydrateRoundtrips() {
	ctx := context.Background()
	require.NoError(suite.T(), suite.bridge.Save(ctx, sampleSnapshot()))

	snap, err := suite.bridge.Rehydrate(ctx)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), snap)

	assert.Equal(suite.T(), SnapshotVersion, snap.Version)
	require.NotNil(suite.T(), snap.User)
	assert.Equal(suite.T(), "Dana", snap.User.Name)
	require.NotNil(suite.T(), snap.Period)
	assert.Equal(suite.T(), model.Period{Year: 2026, Month: 8}, *snap.Period)
	require.Len(suite.T(), snap.Entries, 1)
	assert.Equal(suite.T(), "Groceries", snap.Entries[0].Description)
	require.NotNil(suite.T(), snap.Summary)
	assert.True(suite.T(), snap.Summary.Balance.Equal(decimal.NewFromInt(2960)))
	assert.False(suite.T(), snap.FetchedAt.IsZero())
	assert.False(suite.T(), snap.SavedAt.IsZero())
}

func (suite *BridgeTestSuite) TestSaveOverwritesPrevious() {
	ctx := context.Background()

	first := sampleSnapshot()
	require.NoError(suite.T(), suite.bridge.Save(ctx, first))

	second := sampleSnapshot()
	second.User.Name = "Morgan"
	require.NoError(suite.T(), suite.bridge.Save(ctx, second))

	snap, err := suite.bridge.Rehydrate(ctx)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), snap)
	assert.Equal(suite.T(), "Morgan", snap.User.Name)
}

func (suite *BridgeTestSuite) TestSnapshotSurvivesReopen() {
	ctx := context.Background()
	require.NoError(suite.T(), suite.bridge.Save(ctx, sampleSnapshot()))
	require.NoError(suite.T(), suite.bridge.Close())

	reopened, err := Open(suite.path)
	require.NoError(suite.T(), err)
	suite.bridge = reopened

	snap, err := reopened.Rehydrate(ctx)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), snap)
	assert.Equal(suite.T(), "Dana", snap.User.Name)
}

func (suite *BridgeTestSuite) TestVersionMismatchDiscardsSnapshot() {
	ctx := context.Background()
	require.NoError(suite.T(), suite.bridge.Save(ctx, sampleSnapshot()))

	// Simulate a snapshot written by an older build.
	_, err := suite.bridge.conn.ExecContext(ctx,
		"UPDATE snapshots SET version = ? WHERE key = ?", SnapshotVersion+1, snapshotKey)
	require.NoError(suite.T(), err)

	snap, err := suite.bridge.Rehydrate(ctx)
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), snap, "mismatched versions are discarded, never misread")

	// The stale row is gone for good.
	snap, err = suite.bridge.Rehydrate(ctx)
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), snap)
}

func (suite *BridgeTestSuite) TestUnreadableSnapshotIsDiscarded() {
	ctx := context.Background()
	require.NoError(suite.T(), suite.bridge.Save(ctx, sampleSnapshot()))

	_, err := suite.bridge.conn.ExecContext(ctx,
		"UPDATE snapshots SET data = ? WHERE key = ?", []byte("not json"), snapshotKey)
	require.NoError(suite.T(), err)

	snap, err := suite.bridge.Rehydrate(ctx)
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), snap)
}

func (suite *BridgeTestSuite) TestReadyClosesAfterFirstRehydrate() {
	select {
	case <-suite.bridge.Ready():
		suite.T().Fatal("ready gate must stay closed before the first rehydrate")
	default:
	}

	_, err := suite.bridge.Rehydrate(context.Background())
	require.NoError(suite.T(), err)

	select {
	case <-suite.bridge.Ready():
	default:
		suite.T().Fatal("ready gate must open after the first rehydrate")
	}

	// A second rehydrate must not panic on the already-closed gate.
	_, err = suite.bridge.Rehydrate(context.Background())
	require.NoError(suite.T(), err)
}

func TestBridgeTestSuite(t *testing.T) {
	suite.Run(t, new(BridgeTestSuite))
}
