/*
fixtures.go - Demo seed data

PURPOSE:
  Loads a small, recognizable dataset so the server is explorable right
  after first start: three SKUs covering the interesting allocation shapes
  (served from stock, spilling into a future batch, exhausted).
*/
package api

import (
	"context"
	"time"

	"github.com/hakobune/delivery-engine/allocation"
	"github.com/hakobune/delivery-engine/store/sqlite"
)

// LoadDemoFixtures seeds the store with demo SKUs, batches and order lines.
// Idempotent: rows are upserted by their fixed IDs.
func LoadDemoFixtures(ctx context.Context, store *sqlite.Store, today time.Time) error {
	skus := []sqlite.SKURecord{
		// Plenty on hand: promise ships from stock.
		{Code: "TEE-NAVY-M", OnHand: 100, StockBuffer: 5, FaultyRate: 0.02},
		// Thin stock, two future batches: demand spills into the second.
		{Code: "MUG-350", OnHand: 12, StockBuffer: 2, FaultyRate: 0.0},
		// No capacity left: exhaustion alert on sync.
		{Code: "TOTE-LTD", OnHand: 0, StockBuffer: 0, FaultyRate: 0.0},
	}
	for _, s := range skus {
		if err := store.SaveSKU(ctx, s); err != nil {
			return err
		}
	}

	nextMonth := today.AddDate(0, 1, 0)
	batches := []sqlite.BatchRecord{
		{ID: "batch-mug-1", SKUCode: "MUG-350", Quantity: 20,
			DeliveryTag: tagFor(nextMonth, "early"), Status: string(allocation.StatusWaitingShipping),
			ExpectedAt: nextMonth},
		{ID: "batch-mug-2", SKUCode: "MUG-350", Quantity: 15,
			DeliveryTag: tagFor(nextMonth, "late"), Status: string(allocation.StatusWaitingReceiving),
			ExpectedAt: nextMonth.AddDate(0, 0, 20)},
		{ID: "batch-tote-1", SKUCode: "TOTE-LTD", Quantity: 5,
			Status: string(allocation.StatusWaitingShipping), ExpectedAt: nextMonth},
	}
	for _, b := range batches {
		if err := store.SaveBatch(ctx, b); err != nil {
			return err
		}
	}

	lines := []sqlite.OrderLine{
		{ID: "line-1", OrderID: "order-1", SKUCode: "MUG-350", Quantity: 30, OrderedAt: today.AddDate(0, 0, -3)},
		{ID: "line-2", OrderID: "order-1", SKUCode: "TEE-NAVY-M", Quantity: 2, OrderedAt: today.AddDate(0, 0, -3)},
		{ID: "line-3", OrderID: "order-2", SKUCode: "TOTE-LTD", Quantity: 8, OrderedAt: today.AddDate(0, 0, -1)},
	}
	for _, l := range lines {
		if err := store.SaveOrderLine(ctx, l); err != nil {
			return err
		}
	}

	return nil
}

func tagFor(t time.Time, term string) string {
	return t.Format("2006-01") + "-" + term
}
