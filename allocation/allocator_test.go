package allocation_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/hakobune/delivery-engine/allocation"
)

func batch(id string, qty int) allocation.Batch {
	return allocation.Batch{
		ID:       allocation.BatchID(id),
		Quantity: qty,
		Status:   allocation.StatusWaitingShipping,
	}
}

// =============================================================================
// ON-HAND ABSORPTION
// =============================================================================

func TestAllocate_ServedEntirelyFromStock(t *testing.T) {
	// GIVEN: on-hand 100, buffer 5, faulty rate 0.02 -> reserve max(5, 2) = 5,
	//        capacity 95; pending demand 90 fits
	sku := allocation.SKU{Code: "A", OnHand: 100, Buffer: 5, FaultyRate: 0.02}
	batches := []allocation.Batch{batch("b1", 20), batch("b2", 15)}

	// WHEN
	res, err := allocation.Allocate(sku, batches, 90)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	// THEN: no current batch (ships from stock), all real batches hold zero
	if res.CurrentBatchID != "" {
		t.Errorf("CurrentBatchID = %q, want empty", res.CurrentBatchID)
	}
	if res.Exhausted {
		t.Error("Exhausted = true, want false")
	}
	for id, held := range res.Held {
		if held != 0 {
			t.Errorf("Held[%s] = %d, want 0", id, held)
		}
	}
}

func TestAllocate_FaultyReserveBeatsBuffer(t *testing.T) {
	// GIVEN: buffer 2 but ceil(100 * 0.05) = 5 -> capacity 95
	sku := allocation.SKU{Code: "A", OnHand: 100, Buffer: 2, FaultyRate: 0.05}

	// Demand 95 fits exactly; demand consumed the full capacity, so the
	// next unit comes from the first batch.
	res, err := allocation.Allocate(sku, []allocation.Batch{batch("b1", 10)}, 95)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if res.CurrentBatchID != "b1" {
		t.Errorf("CurrentBatchID = %q, want b1", res.CurrentBatchID)
	}
	if res.Held["b1"] != 0 {
		t.Errorf("Held[b1] = %d, want 0", res.Held["b1"])
	}
}

// =============================================================================
// GREEDY WALK ACROSS BATCHES
// =============================================================================

func TestAllocate_SpillsIntoSecondBatch(t *testing.T) {
	// GIVEN: on-hand capacity 10, batches of capacity 20 and 15, demand 40
	sku := allocation.SKU{Code: "A", OnHand: 10}
	batches := []allocation.Batch{batch("b1", 20), batch("b2", 15)}

	// WHEN
	res, err := allocation.Allocate(sku, batches, 40)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	// THEN: stock absorbs 10, b1 fills with 20, b2 takes the remaining 10
	want := map[allocation.BatchID]int{"b1": 20, "b2": 10}
	if !reflect.DeepEqual(res.Held, want) {
		t.Errorf("Held = %v, want %v", res.Held, want)
	}
	if res.CurrentBatchID != "b2" {
		t.Errorf("CurrentBatchID = %q, want b2", res.CurrentBatchID)
	}
	if res.Exhausted {
		t.Error("Exhausted = true, want false")
	}
}

func TestAllocate_FaultyRateShrinksBatchCapacity(t *testing.T) {
	// ceil(20 * 0.1) = 2 -> capacity 18
	sku := allocation.SKU{Code: "A", OnHand: 0, FaultyRate: 0.1}
	res, err := allocation.Allocate(sku, []allocation.Batch{batch("b1", 20)}, 18)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if res.Held["b1"] != 18 {
		t.Errorf("Held[b1] = %d, want 18", res.Held["b1"])
	}
	// Exactly full: no spare capacity, so exhaustion with demand present.
	if !res.Exhausted {
		t.Error("Exhausted = false, want true")
	}
}

func TestAllocate_NegativeOnHandCapacityConsumesNothing(t *testing.T) {
	// GIVEN: buffer larger than stock -> negative virtual capacity
	sku := allocation.SKU{Code: "A", OnHand: 3, Buffer: 10}
	batches := []allocation.Batch{batch("b1", 20)}

	// WHEN: demand 5
	res, err := allocation.Allocate(sku, batches, 5)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	// THEN: the on-hand slot absorbed nothing; b1 holds all 5
	if res.Held["b1"] != 5 {
		t.Errorf("Held[b1] = %d, want 5", res.Held["b1"])
	}
	if res.CurrentBatchID != "b1" {
		t.Errorf("CurrentBatchID = %q, want b1", res.CurrentBatchID)
	}
}

func TestAllocate_SkipsNonAllocatableBatches(t *testing.T) {
	sku := allocation.SKU{Code: "A", OnHand: 0}
	closed := allocation.Batch{ID: "b0", Quantity: 100, Status: allocation.StatusOther}
	open := batch("b1", 10)

	res, err := allocation.Allocate(sku, []allocation.Batch{closed, open}, 5)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if _, ok := res.Held["b0"]; ok {
		t.Error("closed batch received held quantity")
	}
	if res.CurrentBatchID != "b1" {
		t.Errorf("CurrentBatchID = %q, want b1", res.CurrentBatchID)
	}
}

// =============================================================================
// EXHAUSTION
// =============================================================================

func TestAllocate_Exhaustion(t *testing.T) {
	// GIVEN: total capacity 10 + 20 + 15 = 45 < demand 60
	sku := allocation.SKU{Code: "A", OnHand: 10}
	batches := []allocation.Batch{batch("b1", 20), batch("b2", 15)}

	// WHEN
	res, err := allocation.Allocate(sku, batches, 60)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	// THEN: exhausted, every batch full, last batch quoted as best effort
	if !res.Exhausted {
		t.Fatal("Exhausted = false, want true")
	}
	if res.CurrentBatchID != "b2" {
		t.Errorf("CurrentBatchID = %q, want b2 (last batch)", res.CurrentBatchID)
	}
	want := map[allocation.BatchID]int{"b1": 20, "b2": 15}
	if !reflect.DeepEqual(res.Held, want) {
		t.Errorf("Held = %v, want %v", res.Held, want)
	}
}

func TestAllocate_EmptySKUWithoutDemandIsNotExhausted(t *testing.T) {
	res, err := allocation.Allocate(allocation.SKU{Code: "A"}, nil, 0)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if res.Exhausted {
		t.Error("Exhausted = true for zero demand, want false")
	}
	if res.CurrentBatchID != "" {
		t.Errorf("CurrentBatchID = %q, want empty", res.CurrentBatchID)
	}
}

// =============================================================================
// PURITY / VALIDATION
// =============================================================================

func TestAllocate_Idempotent(t *testing.T) {
	sku := allocation.SKU{Code: "A", OnHand: 10, Buffer: 1, FaultyRate: 0.03}
	batches := []allocation.Batch{batch("b1", 20), batch("b2", 15)}

	first, err := allocation.Allocate(sku, batches, 33)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	second, err := allocation.Allocate(sku, batches, 33)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestAllocate_RejectsBadInput(t *testing.T) {
	cases := []struct {
		name    string
		sku     allocation.SKU
		batches []allocation.Batch
		demand  int
		want    error
	}{
		{"negative demand", allocation.SKU{}, nil, -1, allocation.ErrNegativeQuantity},
		{"negative on-hand", allocation.SKU{OnHand: -1}, nil, 0, allocation.ErrNegativeQuantity},
		{"negative buffer", allocation.SKU{Buffer: -1}, nil, 0, allocation.ErrNegativeQuantity},
		{"rate too high", allocation.SKU{FaultyRate: 1.0}, nil, 0, allocation.ErrFaultyRateRange},
		{"rate negative", allocation.SKU{FaultyRate: -0.1}, nil, 0, allocation.ErrFaultyRateRange},
		{"negative batch quantity", allocation.SKU{}, []allocation.Batch{batch("b1", -5)}, 0, allocation.ErrNegativeQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := allocation.Allocate(tc.sku, tc.batches, tc.demand)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}
