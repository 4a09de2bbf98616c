/*
Package allocation decides which inventory batch fulfills pending demand.

PURPOSE:
  A SKU's demand that has been ordered but not shipped must be earmarked
  against finite stock: first whatever is on hand, then each future
  inventory batch in delivery order. The allocator is a greedy, single-pass,
  capacity-constrained walk whose output - per-batch held quantities and the
  SKU's "current" batch - drives both the customer-facing delivery promise
  and the operations reorder signal.

KEY CONCEPTS IN THIS FILE (types.go):
  - SKU: the unit of allocation, with buffer/fault-rate reservations
  - Batch: a finite, time-boxed quantity of incoming stock
  - BatchID: identifier; the empty value means "ships from on-hand stock"

DESIGN PRINCIPLES:
  1. Purity: no I/O, no clock, no shared state; same input, same output
  2. The allocator is the sole writer of held quantities and current batch
  3. Reservations (buffer, fault rate) are taken off the top of capacity and
     never promised to customers

SEE ALSO:
  - allocator.go: the greedy walk
  - errors.go: input validation failures
*/
package allocation

// BatchID identifies an inventory batch line. The zero value means no batch:
// demand is served entirely from on-hand stock.
type BatchID string

// BatchStatus gates which batches participate in allocation. Only batches
// still waiting to ship or to be received hold future capacity.
type BatchStatus string

const (
	StatusWaitingShipping  BatchStatus = "waiting_shipping"
	StatusWaitingReceiving BatchStatus = "waiting_receiving"
	StatusOther            BatchStatus = "other"
)

// Allocatable reports whether a batch in this status participates.
func (s BatchStatus) Allocatable() bool {
	return s == StatusWaitingShipping || s == StatusWaitingReceiving
}

// SKU is the flat read model the allocator operates on. It is decoupled from
// any storage shape: callers fetch it however they like and pass a copy.
type SKU struct {
	Code       string
	OnHand     int     // units physically in stock
	Buffer     int     // units reserved as safety stock, never promised
	FaultyRate float64 // expected defective/lost fraction, in [0, 1)

	// CurrentBatchID is the batch whose schedule was last quoted for the
	// next unit of demand. Empty means served from stock.
	CurrentBatchID BatchID

	// SkipDeliveryCalc short-circuits promising for SKUs whose schedule is
	// managed by hand; the composer returns today's default for them.
	SkipDeliveryCalc bool
}

// Batch is one inventory order line: a finite quantity expected on a known
// schedule. Batches are passed to Allocate pre-sorted ascending by expected
// delivery date, ties broken by ID.
type Batch struct {
	ID       BatchID
	Quantity int
	Held     int // output of a previous allocation run; ignored as input

	// DeliveryTag is the raw "YYYY-MM-term" override carried on the batch,
	// empty when the batch has none. Parsed by the promise composer, not
	// here - allocation is schedule-agnostic.
	DeliveryTag string

	Status BatchStatus
}

// Result is the outcome of one allocation run.
type Result struct {
	// CurrentBatchID is the first batch with spare capacity after the walk,
	// empty when on-hand stock absorbs all pending demand. When Exhausted
	// is set it is the last batch in the sequence: a best-effort, knowingly
	// stale answer so customers still see something.
	CurrentBatchID BatchID

	// Held maps each real batch to the units earmarked for pending orders.
	// The virtual on-hand slot is never included.
	Held map[BatchID]int

	// Exhausted means total capacity could not cover pending demand; the
	// caller must raise an operational alert.
	Exhausted bool
}
