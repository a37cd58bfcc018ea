package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tifye/bungeoppang/economy"
	"github.com/tifye/bungeoppang/progress"
	"github.com/tifye/bungeoppang/shop"
)

func newTestSaveStore(t *testing.T) *SaveStore {
	t.Helper()
	db, err := InitDuckDB("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSaveStore(db)
}

func TestSaveStoreSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestSaveStore(t)

	_, found, err := s.LoadSnapshot(ctx, "main")
	require.NoError(t, err)
	assert.False(t, found)

	snap := progress.Snapshot{CurrentDay: 3, CumulativeRevenue: 12500}
	snap.Upgrades[economy.Crust] = 2
	snap.Upgrades[economy.AutoBake] = 1
	require.NoError(t, s.SaveSnapshot(ctx, "main", snap))

	got, found, err := s.LoadSnapshot(ctx, "main")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, snap, got)

	snap.CurrentDay = 4
	require.NoError(t, s.SaveSnapshot(ctx, "main", snap), "saving twice replaces the row")
	got, _, err = s.LoadSnapshot(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, 4, got.CurrentDay)

	_, found, err = s.LoadSnapshot(ctx, "other")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaveStoreSummaries(t *testing.T) {
	ctx := context.Background()
	s := newTestSaveStore(t)

	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	first := shop.Summary{
		Revenue:                5200,
		Goal:                   5000,
		Success:                true,
		UnitsSold:              10,
		CustomersServed:        5,
		CustomersLost:          1,
		AvgSatisfactionPercent: 72,
		MostPopularFilling:     shop.RedBean,
		FillingsSold:           map[shop.Filling]int{shop.RedBean: 7, shop.Pizza: 3},
	}
	second := shop.Summary{
		Revenue:      0,
		Goal:         7500,
		FillingsSold: map[shop.Filling]int{},
	}

	rec1, err := s.AppendSummary(ctx, "main", 1, first)
	require.NoError(t, err)
	assert.NotEmpty(t, rec1.ID)
	rec2, err := s.AppendSummary(ctx, "main", 2, second)
	require.NoError(t, err)
	assert.NotEqual(t, rec1.ID, rec2.ID)
	_, err = s.AppendSummary(ctx, "other", 1, first)
	require.NoError(t, err)

	records, err := s.Summaries(ctx, "main", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, rec2.ID, records[0].ID, "newest first")
	assert.Equal(t, 2, records[0].Day)
	assert.Equal(t, second, records[0].Summary)
	assert.Equal(t, first, records[1].Summary)
	assert.True(t, rec1.FinishedAt.Equal(records[1].FinishedAt))

	records, err = s.Summaries(ctx, "main", 1)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSaveStoreDeleteSlot(t *testing.T) {
	ctx := context.Background()
	s := newTestSaveStore(t)

	require.NoError(t, s.SaveSnapshot(ctx, "main", progress.New()))
	_, err := s.AppendSummary(ctx, "main", 1, shop.Summary{FillingsSold: map[shop.Filling]int{}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteSlot(ctx, "main"))

	_, found, err := s.LoadSnapshot(ctx, "main")
	require.NoError(t, err)
	assert.False(t, found)
	records, err := s.Summaries(ctx, "main", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
