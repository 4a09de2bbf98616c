package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakobune/delivery-engine/allocation"
	"github.com/hakobune/delivery-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSKURoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSKU(ctx, sqlite.SKURecord{
		Code: "SKU-1", OnHand: 42, StockBuffer: 3, FaultyRate: 0.02, SkipDeliveryCalc: true,
	}))

	got, err := store.GetSKU(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, 42, got.OnHand)
	assert.Equal(t, 3, got.StockBuffer)
	assert.InDelta(t, 0.02, got.FaultyRate, 1e-9)
	assert.True(t, got.SkipDeliveryCalc)

	_, err = store.GetSKU(ctx, "missing")
	assert.ErrorIs(t, err, sqlite.ErrSKUNotFound)
}

func TestListBatches_OrderAndStatusFilter(t *testing.T) {
	// GIVEN: batches out of insertion order, one non-participating status
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveSKU(ctx, sqlite.SKURecord{Code: "SKU-1"}))

	save := func(id string, expected time.Time, status allocation.BatchStatus) {
		require.NoError(t, store.SaveBatch(ctx, sqlite.BatchRecord{
			ID: id, SKUCode: "SKU-1", Quantity: 10, Status: string(status), ExpectedAt: expected,
		}))
	}
	save("b-late", day(2025, time.March, 20), allocation.StatusWaitingReceiving)
	save("b-early", day(2025, time.February, 1), allocation.StatusWaitingShipping)
	save("b-closed", day(2025, time.January, 1), allocation.StatusOther)
	// same expected date as b-late: id breaks the tie
	save("a-late", day(2025, time.March, 20), allocation.StatusWaitingShipping)

	// WHEN
	got, err := store.ListBatches(ctx, "SKU-1")
	require.NoError(t, err)

	// THEN: delivery-date ascending, id ascending on ties, closed excluded
	require.Len(t, got, 3)
	assert.Equal(t, "b-early", got[0].ID)
	assert.Equal(t, "a-late", got[1].ID)
	assert.Equal(t, "b-late", got[2].ID)
}

func TestApplyAllocation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveSKU(ctx, sqlite.SKURecord{Code: "SKU-1"}))
	require.NoError(t, store.SaveBatch(ctx, sqlite.BatchRecord{
		ID: "b1", SKUCode: "SKU-1", Quantity: 20, Status: string(allocation.StatusWaitingShipping), ExpectedAt: day(2025, time.February, 1),
	}))
	require.NoError(t, store.SaveBatch(ctx, sqlite.BatchRecord{
		ID: "b2", SKUCode: "SKU-1", Quantity: 15, Status: string(allocation.StatusWaitingReceiving), ExpectedAt: day(2025, time.March, 1),
	}))

	// WHEN: persisting one allocation run
	err := store.ApplyAllocation(ctx, "SKU-1", "b2", map[allocation.BatchID]int{"b1": 20, "b2": 10})
	require.NoError(t, err)

	// THEN: both fields written
	sku, err := store.GetSKU(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, "b2", sku.CurrentBatchID)

	batches, err := store.ListBatches(ctx, "SKU-1")
	require.NoError(t, err)
	held := map[string]int{}
	for _, b := range batches {
		held[b.ID] = b.HeldQuantity
	}
	assert.Equal(t, map[string]int{"b1": 20, "b2": 10}, held)

	// Unknown SKU fails fast
	err = store.ApplyAllocation(ctx, "missing", "", nil)
	assert.ErrorIs(t, err, sqlite.ErrSKUNotFound)
}

func TestPendingDemand_RollingWindow(t *testing.T) {
	// GIVEN: open, closed, and stale order lines
	store := newTestStore(t)
	ctx := context.Background()
	asOf := day(2025, time.June, 1)

	save := func(id string, qty int, status string, orderedAt time.Time) {
		require.NoError(t, store.SaveOrderLine(ctx, sqlite.OrderLine{
			ID: id, OrderID: "o-" + id, SKUCode: "SKU-1", Quantity: qty, Status: status, OrderedAt: orderedAt,
		}))
	}
	save("recent-open", 5, "open", asOf.AddDate(0, 0, -10))
	save("old-open", 7, "open", asOf.AddDate(0, 0, -179))
	save("stale-open", 100, "open", asOf.AddDate(0, 0, -181)) // outside the window
	save("fulfilled", 9, "fulfilled", asOf.AddDate(0, 0, -5))
	save("canceled", 9, "canceled", asOf.AddDate(0, 0, -5))

	// WHEN
	demand, err := store.PendingDemand(ctx, "SKU-1", asOf)
	require.NoError(t, err)

	// THEN: only open lines within 180 days count
	assert.Equal(t, 12, demand)
}

func TestSaveSKU_UpdateDoesNotTouchCurrentBatch(t *testing.T) {
	// Upstream sync jobs re-save SKU master data; the current batch id must
	// survive because ApplyAllocation is its sole writer.
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveSKU(ctx, sqlite.SKURecord{Code: "SKU-1"}))
	require.NoError(t, store.SaveBatch(ctx, sqlite.BatchRecord{
		ID: "b1", SKUCode: "SKU-1", Quantity: 5, Status: string(allocation.StatusWaitingShipping), ExpectedAt: day(2025, time.February, 1),
	}))
	require.NoError(t, store.ApplyAllocation(ctx, "SKU-1", "b1", nil))

	require.NoError(t, store.SaveSKU(ctx, sqlite.SKURecord{Code: "SKU-1", OnHand: 99}))

	got, err := store.GetSKU(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, "b1", got.CurrentBatchID)
	assert.Equal(t, 99, got.OnHand)
}
