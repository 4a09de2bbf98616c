/*
allocator.go - Greedy capacity allocation of pending demand

PURPOSE:
  Walks [virtual on-hand slot, batch 1, batch 2, ...] in order, letting each
  candidate absorb as much of the remaining demand as its capacity allows.
  Consuming on-hand stock first minimizes promised lead time; walking real
  batches in delivery order approximates first-ordered-first-shipped at the
  SKU level (this is an aggregate approximation, not a per-order
  reservation).

CAPACITY:
  on-hand slot: onHand - max(buffer, ceil(onHand * faultyRate))
  real batch:   quantity - ceil(quantity * faultyRate)

  The fault-rate reservation rounds up: a fractional expected loss still
  blocks a whole unit from being promised. The on-hand capacity may go
  negative when the buffer exceeds stock; a negative slot consumes nothing
  and reports itself full, pushing demand straight to the first batch.

EXHAUSTION:
  When every candidate is full the result still names the last batch as
  current - a best-effort, knowingly stale promise - and sets Exhausted so
  the caller raises an operational alert. Exhaustion is a first-class
  result, not an error.
*/
package allocation

import "github.com/shopspring/decimal"

// Allocate distributes pendingDemand across the SKU's on-hand stock and the
// given batches (pre-sorted by expected delivery date, then ID). It is a
// pure function: calling it twice with identical inputs yields identical
// results, and nothing is written back - callers persist Result themselves.
//
// Batches whose status is not allocatable are skipped entirely: they receive
// no held quantity and are never chosen as current.
func Allocate(sku SKU, batches []Batch, pendingDemand int) (Result, error) {
	if err := validate(sku, batches, pendingDemand); err != nil {
		return Result{}, err
	}

	remaining := pendingDemand

	// Virtual on-hand slot: absorbs demand silently, never chosen as current.
	onHandCap := sku.OnHand - maxInt(sku.Buffer, faultyReserve(sku.OnHand, sku.FaultyRate))
	onHandHeld := minInt(remaining, onHandCap)
	onHandFull := onHandHeld >= onHandCap
	if onHandHeld > 0 {
		remaining -= onHandHeld
	}

	res := Result{Held: make(map[BatchID]int)}
	var lastID BatchID
	chosen := false

	if !onHandFull {
		// Stock alone covers the next unit of demand.
		chosen = true
	}

	for _, b := range batches {
		if !b.Status.Allocatable() {
			continue
		}
		cap := b.Quantity - faultyReserve(b.Quantity, sku.FaultyRate)
		held := minInt(remaining, cap)
		remaining -= held
		res.Held[b.ID] = held
		lastID = b.ID

		if !chosen && held < cap {
			res.CurrentBatchID = b.ID
			chosen = true
		}
	}

	if !chosen {
		// Every candidate is full: no honest capacity remains for new
		// demand. Quote the last batch anyway so the promise never goes
		// blank, and flag the exhaustion. A SKU with zero capacity and
		// zero demand is not exhausted, just empty.
		res.CurrentBatchID = lastID
		res.Exhausted = pendingDemand > 0
	}

	return res, nil
}

// faultyReserve is the number of units expected to be unusable out of qty,
// rounded up. Computed in decimal so that e.g. 0.1*3 never rounds to an
// extra unit through float drift.
func faultyReserve(qty int, rate float64) int {
	if qty <= 0 || rate == 0 {
		return 0
	}
	reserve := decimal.NewFromInt(int64(qty)).Mul(decimal.NewFromFloat(rate))
	return int(reserve.Ceil().IntPart())
}

func validate(sku SKU, batches []Batch, pendingDemand int) error {
	if pendingDemand < 0 {
		return &InputError{Field: "pendingDemand", Value: pendingDemand, Err: ErrNegativeQuantity}
	}
	if sku.OnHand < 0 {
		return &InputError{Field: "onHand", Value: sku.OnHand, Err: ErrNegativeQuantity}
	}
	if sku.Buffer < 0 {
		return &InputError{Field: "buffer", Value: sku.Buffer, Err: ErrNegativeQuantity}
	}
	if sku.FaultyRate < 0 || sku.FaultyRate >= 1 {
		return &InputError{Field: "faultyRate", Value: sku.FaultyRate, Err: ErrFaultyRateRange}
	}
	for _, b := range batches {
		if b.Quantity < 0 {
			return &InputError{Field: "batch " + string(b.ID) + " quantity", Value: b.Quantity, Err: ErrNegativeQuantity}
		}
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
