/*
scheduler.go - Inventory sync job

PURPOSE:
  Periodically recomputes every SKU's allocation from a fresh snapshot
  (batches + pending demand), persists the result, and raises operational
  alerts. This is the write path of the engine: order placement and
  fulfillment change pending demand, and this job folds that change back
  into held quantities and current batches.

DESIGN:
  - Background goroutine with a configurable interval (ticker + stop chan)
  - SKUs are walked sequentially: per-SKU updates are serialized so
    last-writer-wins never loses an update within a run
  - Per-SKU failures are recorded and skipped, never abort the run
  - Each run carries a uuid for log correlation

USAGE:
  scheduler := NewSyncScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerSync endpoint (manual run)
  - notifier.go: where batch-shift / exhaustion events go
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hakobune/delivery-engine/allocation"
	"github.com/hakobune/delivery-engine/schedule"
)

// SyncScheduler drives periodic inventory sync runs.
type SyncScheduler struct {
	Handler  *Handler
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSyncScheduler creates a scheduler with a 10 minute interval.
func NewSyncScheduler(handler *Handler) *SyncScheduler {
	return &SyncScheduler{
		Handler:  handler,
		Interval: 10 * time.Minute,
		Enabled:  true,
		stop:     make(chan bool),
	}
}

// Start begins the scheduler.
func (ss *SyncScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		log.Println("[Sync] Disabled, not starting")
		return
	}

	ss.ticker = time.NewTicker(ss.Interval)
	ss.wg.Add(1)

	go ss.run()

	log.Printf("[Sync] Started with interval: %v", ss.Interval)
}

// Stop stops the scheduler.
func (ss *SyncScheduler) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		ss.ticker.Stop()
		close(ss.stop)
		ss.wg.Wait()
		log.Println("[Sync] Stopped")
	}
}

func (ss *SyncScheduler) run() {
	defer ss.wg.Done()

	// Run immediately on start
	ss.Handler.SyncAll(context.Background(), ss.Handler.Now())

	for {
		select {
		case <-ss.ticker.C:
			ss.Handler.SyncAll(context.Background(), ss.Handler.Now())
		case <-ss.stop:
			return
		}
	}
}

// SyncAll recomputes and persists the allocation of every SKU. It always
// returns a report; per-SKU errors are collected, not fatal.
func (h *Handler) SyncAll(ctx context.Context, today time.Time) SyncReportDTO {
	report := SyncReportDTO{RunID: uuid.NewString()}

	skus, err := h.Store.ListSKUs(ctx)
	if err != nil {
		log.Printf("[Sync] run=%s listing skus failed: %v", report.RunID, err)
		report.Errors = append(report.Errors, err.Error())
		return report
	}

	for _, rec := range skus {
		if rec.SkipDeliveryCalc {
			report.Skipped++
			continue
		}

		outcome, err := h.promiseSKU(ctx, rec, today, schedule.LocaleJA)
		if err != nil {
			log.Printf("[Sync] run=%s sku=%s promise failed: %v", report.RunID, rec.Code, err)
			report.Errors = append(report.Errors, rec.Code+": "+err.Error())
			continue
		}

		if err := h.Store.ApplyAllocation(ctx, rec.Code, outcome.CurrentBatchID, outcome.Held); err != nil {
			log.Printf("[Sync] run=%s sku=%s write-back failed: %v", report.RunID, rec.Code, err)
			report.Errors = append(report.Errors, rec.Code+": "+err.Error())
			continue
		}
		report.Processed++

		if outcome.BatchChanged {
			report.Changed++
			h.Notifier.BatchShifted(ctx, rec.Code, allocation.BatchID(rec.CurrentBatchID), outcome.CurrentBatchID, outcome.Schedule)
		}
		if outcome.Exhausted {
			report.Exhausted++
			demand, derr := h.Store.PendingDemand(ctx, rec.Code, today)
			if derr != nil {
				demand = 0
			}
			h.Notifier.StockExhausted(ctx, rec.Code, demand)
		}
	}

	log.Printf("[Sync] run=%s completed: %d processed, %d changed, %d exhausted, %d skipped, %d errors",
		report.RunID, report.Processed, report.Changed, report.Exhausted, report.Skipped, len(report.Errors))
	return report
}
