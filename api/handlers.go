/*
handlers.go - HTTP handlers for the delivery promise engine

PURPOSE:
  Implements the HTTP endpoints. Each handler:
  1. Parses/validates input
  2. Reads a snapshot from the store
  3. Calls domain logic (schedule, allocation, promise)
  4. Serializes the response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed delivery tags
  - 404: SKU / order not found
  - 500: Internal errors
  Exhaustion is NOT an error: it is a field on the promise response.

LOCALE:
  Every schedule-rendering endpoint honors ?locale= first, then
  Accept-Language, then defaults to Japanese.

SEE ALSO:
  - dto.go: Request/response data structures
  - scheduler.go: The background sync job behind POST /api/sync
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hakobune/delivery-engine/allocation"
	"github.com/hakobune/delivery-engine/promise"
	"github.com/hakobune/delivery-engine/schedule"
	"github.com/hakobune/delivery-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Notifier Notifier

	// Now returns the reference date for promise computation. Overridable
	// so tests run against a fixed clock.
	Now func() time.Time
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:    store,
		Notifier: &LogNotifier{},
		Now:      time.Now,
	}
}

func (h *Handler) locale(r *http.Request) schedule.Locale {
	return schedule.MatchLocale(r.URL.Query().Get("locale"), r.Header.Get("Accept-Language"))
}

// =============================================================================
// DELIVERY-SCHEDULE API
// =============================================================================

// GetSchedule resolves a delivery tag (or, absent one, today's default) into
// a rendered schedule. ?tag=2025-10-early&locale=en&history=true
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loc := h.locale(r)
	today := h.Now()

	var tag *schedule.Tag
	if raw := r.URL.Query().Get("tag"); raw != "" {
		parsed, err := schedule.ParseTag(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		tag = parsed
	}

	resolved := schedule.Resolve(tag, today, loc)

	// A tag is authoritative for storage but never for display: floor it at
	// today's default so a stale override cannot render a past window.
	// Latest treats the nil entry as today's default.
	resolved = *schedule.Latest(today, loc, []*schedule.Schedule{&resolved, nil})

	if r.URL.Query().Get("history") == "true" {
		resolved = schedule.History(resolved, loc)
	}

	respondJSON(w, http.StatusOK, toScheduleDTO(resolved))
}

// =============================================================================
// SKU HANDLERS
// =============================================================================

// ListSKUs returns all SKUs.
func (h *Handler) ListSKUs(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListSKUs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dtos := make([]SKUDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toSKUDTO(rec))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// CreateSKU registers or updates a SKU.
func (h *Handler) CreateSKU(w http.ResponseWriter, r *http.Request) {
	var req CreateSKURequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.OnHand < 0 || req.StockBuffer < 0 {
		respondError(w, http.StatusBadRequest, "quantities must be non-negative")
		return
	}
	if req.FaultyRate < 0 || req.FaultyRate >= 1 {
		respondError(w, http.StatusBadRequest, "faulty_rate must be in [0, 1)")
		return
	}

	rec := sqlite.SKURecord{
		Code:             req.Code,
		OnHand:           req.OnHand,
		StockBuffer:      req.StockBuffer,
		FaultyRate:       req.FaultyRate,
		SkipDeliveryCalc: req.SkipDeliveryCalc,
	}
	if err := h.Store.SaveSKU(r.Context(), rec); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, toSKUDTO(rec))
}

// GetSKU returns one SKU by code.
func (h *Handler) GetSKU(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetSKU(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, sqlite.ErrSKUNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, toSKUDTO(*rec))
}

// GetPromise computes the delivery promise for one SKU from the current
// snapshot. Read-only: nothing is persisted, the sync job owns write-back.
func (h *Handler) GetPromise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "code")
	loc := h.locale(r)
	today := h.Now()

	rec, err := h.Store.GetSKU(ctx, code)
	if err != nil {
		if errors.Is(err, sqlite.ErrSKUNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	outcome, err := h.promiseSKU(ctx, *rec, today, loc)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, schedule.ErrMalformedTag) || errors.Is(err, allocation.ErrNegativeQuantity) || errors.Is(err, allocation.ErrFaultyRateRange) {
			status = http.StatusBadRequest
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, toPromiseDTO(outcome))
}

// promiseSKU assembles the snapshot (batches + pending demand) and runs the
// composer. Shared by the promise endpoints and the sync job.
func (h *Handler) promiseSKU(ctx context.Context, rec sqlite.SKURecord, today time.Time, loc schedule.Locale) (promise.Outcome, error) {
	batchRecs, err := h.Store.ListBatches(ctx, rec.Code)
	if err != nil {
		return promise.Outcome{}, err
	}
	batches := make([]allocation.Batch, 0, len(batchRecs))
	for _, b := range batchRecs {
		batches = append(batches, b.ToBatch())
	}

	demand, err := h.Store.PendingDemand(ctx, rec.Code, today)
	if err != nil {
		return promise.Outcome{}, err
	}

	return promise.Promise(rec.ToSKU(), batches, demand, today, loc)
}

// =============================================================================
// BATCH HANDLERS
// =============================================================================

// ListBatches returns a SKU's allocatable batches in allocation order.
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListBatches(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dtos := make([]BatchDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toBatchDTO(rec))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// CreateBatch registers or updates an inventory batch line.
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" || req.SKUCode == "" {
		respondError(w, http.StatusBadRequest, "id and sku_code are required")
		return
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "quantity must be non-negative")
		return
	}
	if req.DeliveryTag != "" {
		if _, err := schedule.ParseTag(req.DeliveryTag); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	status := allocation.BatchStatus(req.Status)
	if status != allocation.StatusWaitingShipping && status != allocation.StatusWaitingReceiving && status != allocation.StatusOther {
		respondError(w, http.StatusBadRequest, "unknown batch status")
		return
	}
	expected, err := time.Parse("2006-01-02", req.ExpectedAt)
	if err != nil {
		respondError(w, http.StatusBadRequest, "expected_at must be YYYY-MM-DD")
		return
	}
	if _, err := h.Store.GetSKU(r.Context(), req.SKUCode); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	rec := sqlite.BatchRecord{
		ID:          req.ID,
		SKUCode:     req.SKUCode,
		Quantity:    req.Quantity,
		DeliveryTag: req.DeliveryTag,
		Status:      req.Status,
		ExpectedAt:  expected,
	}
	if err := h.Store.SaveBatch(r.Context(), rec); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, toBatchDTO(rec))
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// CreateOrderLine records demand. The storefront sync normally does this.
func (h *Handler) CreateOrderLine(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" || req.OrderID == "" || req.SKUCode == "" {
		respondError(w, http.StatusBadRequest, "id, order_id and sku_code are required")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}
	orderedAt := h.Now()
	if req.OrderedAt != "" {
		parsed, err := time.Parse("2006-01-02", req.OrderedAt)
		if err != nil {
			respondError(w, http.StatusBadRequest, "ordered_at must be YYYY-MM-DD")
			return
		}
		orderedAt = parsed
	}

	line := sqlite.OrderLine{
		ID:        req.ID,
		OrderID:   req.OrderID,
		SKUCode:   req.SKUCode,
		Quantity:  req.Quantity,
		Status:    req.Status,
		OrderedAt: orderedAt,
	}
	if err := h.Store.SaveOrderLine(r.Context(), line); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, line)
}

// GetOrderPromise folds the promises of every line in an order: the order's
// window is its slowest line's window, floored at today.
func (h *Handler) GetOrderPromise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "id")
	loc := h.locale(r)
	today := h.Now()

	lines, err := h.Store.ListOrderLines(ctx, orderID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(lines) == 0 {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}

	items := make([]promise.LineItem, 0, len(lines))
	for _, line := range lines {
		rec, err := h.Store.GetSKU(ctx, line.SKUCode)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		batchRecs, err := h.Store.ListBatches(ctx, line.SKUCode)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		batches := make([]allocation.Batch, 0, len(batchRecs))
		for _, b := range batchRecs {
			batches = append(batches, b.ToBatch())
		}
		demand, err := h.Store.PendingDemand(ctx, line.SKUCode, today)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, promise.LineItem{SKU: rec.ToSKU(), Batches: batches, PendingDemand: demand})
	}

	outcome, err := promise.PromiseOrder(items, today, loc)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dto := OrderPromiseDTO{
		Schedule:  toScheduleDTO(outcome.Schedule),
		Exhausted: outcome.Exhausted,
		Lines:     make([]PromiseDTO, 0, len(outcome.Lines)),
	}
	for _, line := range outcome.Lines {
		dto.Lines = append(dto.Lines, toPromiseDTO(line))
	}
	respondJSON(w, http.StatusOK, dto)
}

// =============================================================================
// SYNC
// =============================================================================

// TriggerSync runs one inventory sync pass immediately.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	report := h.SyncAll(r.Context(), h.Now())
	respondJSON(w, http.StatusOK, report)
}

// ResetDatabase clears all data. Dev only.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
