/*
Package promise composes delivery promises from allocation and schedule.

PURPOSE:
  Ties the two halves of the engine together: run the allocator to find the
  batch that will fulfill the next unit of demand, resolve that batch's
  delivery tag into a Schedule, and guard the result so a stale tag can
  never promise a past window. Also detects the one event operations care
  about - the SKU's current batch just shifted - and folds multi-item
  orders down to the promise of their slowest line.

FLOW (per SKU):
  allocate -> resolve current batch's tag -> floor at today -> compare batch

SEE ALSO:
  - allocation: the greedy capacity walk
  - schedule: term resolution and latest/earliest selection
*/
package promise

import (
	"time"

	"github.com/hakobune/delivery-engine/allocation"
	"github.com/hakobune/delivery-engine/schedule"
)

// Outcome is the full result of promising one SKU.
type Outcome struct {
	Schedule schedule.Schedule

	// BatchChanged means the allocator moved the SKU's current batch away
	// from the one previously stored. Operations get notified: the SKU's
	// promise window just moved.
	BatchChanged bool

	// Exhausted mirrors the allocator's flag; the schedule is then a
	// best-effort quote from the last batch.
	Exhausted bool

	CurrentBatchID allocation.BatchID
	Held           map[allocation.BatchID]int
}

// Promise computes the customer-facing delivery promise for one SKU.
//
// SKUs flagged SkipDeliveryCalc bypass allocation entirely and quote today's
// default schedule; nothing is held and the current batch never shifts.
func Promise(sku allocation.SKU, batches []allocation.Batch, pendingDemand int, today time.Time, loc schedule.Locale) (Outcome, error) {
	if sku.SkipDeliveryCalc {
		return Outcome{
			Schedule:       schedule.Today(today, loc),
			CurrentBatchID: sku.CurrentBatchID,
		}, nil
	}

	res, err := allocation.Allocate(sku, batches, pendingDemand)
	if err != nil {
		return Outcome{}, err
	}

	resolved, err := resolveBatch(res.CurrentBatchID, batches, today, loc)
	if err != nil {
		return Outcome{}, err
	}

	// Floor at today: Latest treats the nil entry as today's default
	// schedule, so a batch tag pointing into the past loses to today and a
	// future tag wins. This is the only stale-date guard; it is a
	// correctness safeguard, never an error.
	floored := schedule.Latest(today, loc, []*schedule.Schedule{&resolved, nil})

	return Outcome{
		Schedule:       *floored,
		BatchChanged:   res.CurrentBatchID != sku.CurrentBatchID,
		Exhausted:      res.Exhausted,
		CurrentBatchID: res.CurrentBatchID,
		Held:           res.Held,
	}, nil
}

// resolveBatch turns the chosen batch's delivery tag into a schedule. No
// batch (served from stock) and no tag both resolve to today's default.
func resolveBatch(id allocation.BatchID, batches []allocation.Batch, today time.Time, loc schedule.Locale) (schedule.Schedule, error) {
	if id == "" {
		return schedule.Today(today, loc), nil
	}
	for _, b := range batches {
		if b.ID != id {
			continue
		}
		if b.DeliveryTag == "" {
			return schedule.Today(today, loc), nil
		}
		tag, err := schedule.ParseTag(b.DeliveryTag)
		if err != nil {
			return schedule.Schedule{}, err
		}
		return schedule.Resolve(tag, today, loc), nil
	}
	// The allocator only returns IDs taken from the batch list, so a miss
	// here means the caller mixed inputs from different snapshots.
	return schedule.Today(today, loc), nil
}

// =============================================================================
// ORDER-LEVEL FOLDING
// =============================================================================

// LineItem is one contributing SKU of an order.
type LineItem struct {
	SKU           allocation.SKU
	Batches       []allocation.Batch
	PendingDemand int
}

// OrderOutcome is the folded promise for a whole order.
type OrderOutcome struct {
	// Schedule is the latest schedule across all lines, floored at today:
	// the order ships when its slowest component ships.
	Schedule  schedule.Schedule
	Exhausted bool // any line exhausted
	Lines     []Outcome
}

// PromiseOrder promises every line and folds the schedules with Latest. The
// explicit nil entry keeps the today-default floor even for an empty order.
func PromiseOrder(items []LineItem, today time.Time, loc schedule.Locale) (OrderOutcome, error) {
	out := OrderOutcome{Lines: make([]Outcome, 0, len(items))}
	scheds := make([]*schedule.Schedule, 0, len(items)+1)
	scheds = append(scheds, nil)

	for _, item := range items {
		o, err := Promise(item.SKU, item.Batches, item.PendingDemand, today, loc)
		if err != nil {
			return OrderOutcome{}, err
		}
		out.Lines = append(out.Lines, o)
		out.Exhausted = out.Exhausted || o.Exhausted
		s := o.Schedule
		scheds = append(scheds, &s)
	}

	out.Schedule = *schedule.Latest(today, loc, scheds)
	return out, nil
}
