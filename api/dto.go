/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the domain
  model from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.
*/
package api

import (
	"github.com/hakobune/delivery-engine/promise"
	"github.com/hakobune/delivery-engine/schedule"
	"github.com/hakobune/delivery-engine/store/sqlite"
)

// =============================================================================
// SCHEDULE
// =============================================================================

// ScheduleDTO is the JSON form of a resolved delivery schedule.
type ScheduleDTO struct {
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	Term      string   `json:"term"`
	TermIndex int      `json:"term_index"`
	Numeric   int      `json:"numeric"`
	Text      string   `json:"text"`
	SubText   string   `json:"sub_text"`
	Texts     []string `json:"texts,omitempty"`
}

func toScheduleDTO(s schedule.Schedule) ScheduleDTO {
	return ScheduleDTO{
		Year:      s.Year,
		Month:     s.Month,
		Term:      s.Term.Key(),
		TermIndex: s.TermIndex,
		Numeric:   s.Numeric,
		Text:      s.Text,
		SubText:   s.SubText,
		Texts:     s.Texts,
	}
}

// =============================================================================
// SKU / BATCH
// =============================================================================

type SKUDTO struct {
	Code             string  `json:"code"`
	OnHand           int     `json:"on_hand"`
	StockBuffer      int     `json:"stock_buffer"`
	FaultyRate       float64 `json:"faulty_rate"`
	CurrentBatchID   string  `json:"current_batch_id,omitempty"`
	SkipDeliveryCalc bool    `json:"skip_delivery_calc"`
	UpdatedAt        string  `json:"updated_at,omitempty"`
}

func toSKUDTO(r sqlite.SKURecord) SKUDTO {
	dto := SKUDTO{
		Code:             r.Code,
		OnHand:           r.OnHand,
		StockBuffer:      r.StockBuffer,
		FaultyRate:       r.FaultyRate,
		CurrentBatchID:   r.CurrentBatchID,
		SkipDeliveryCalc: r.SkipDeliveryCalc,
	}
	if !r.UpdatedAt.IsZero() {
		dto.UpdatedAt = r.UpdatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return dto
}

type CreateSKURequest struct {
	Code             string  `json:"code"`
	OnHand           int     `json:"on_hand"`
	StockBuffer      int     `json:"stock_buffer"`
	FaultyRate       float64 `json:"faulty_rate"`
	SkipDeliveryCalc bool    `json:"skip_delivery_calc"`
}

type BatchDTO struct {
	ID           string `json:"id"`
	SKUCode      string `json:"sku_code"`
	Quantity     int    `json:"quantity"`
	HeldQuantity int    `json:"held_quantity"`
	DeliveryTag  string `json:"delivery_tag,omitempty"`
	Status       string `json:"status"`
	ExpectedAt   string `json:"expected_at"`
}

func toBatchDTO(r sqlite.BatchRecord) BatchDTO {
	return BatchDTO{
		ID:           r.ID,
		SKUCode:      r.SKUCode,
		Quantity:     r.Quantity,
		HeldQuantity: r.HeldQuantity,
		DeliveryTag:  r.DeliveryTag,
		Status:       r.Status,
		ExpectedAt:   r.ExpectedAt.Format("2006-01-02"),
	}
}

type CreateBatchRequest struct {
	ID          string `json:"id"`
	SKUCode     string `json:"sku_code"`
	Quantity    int    `json:"quantity"`
	DeliveryTag string `json:"delivery_tag"`
	Status      string `json:"status"`
	ExpectedAt  string `json:"expected_at"` // 2006-01-02
}

type CreateOrderLineRequest struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	SKUCode   string `json:"sku_code"`
	Quantity  int    `json:"quantity"`
	Status    string `json:"status"`
	OrderedAt string `json:"ordered_at"` // 2006-01-02
}

// =============================================================================
// PROMISE
// =============================================================================

type PromiseDTO struct {
	Schedule       ScheduleDTO    `json:"schedule"`
	BatchChanged   bool           `json:"batch_changed"`
	Exhausted      bool           `json:"exhausted"`
	CurrentBatchID string         `json:"current_batch_id,omitempty"`
	Held           map[string]int `json:"held,omitempty"`
}

func toPromiseDTO(o promise.Outcome) PromiseDTO {
	dto := PromiseDTO{
		Schedule:       toScheduleDTO(o.Schedule),
		BatchChanged:   o.BatchChanged,
		Exhausted:      o.Exhausted,
		CurrentBatchID: string(o.CurrentBatchID),
	}
	if len(o.Held) > 0 {
		dto.Held = make(map[string]int, len(o.Held))
		for id, qty := range o.Held {
			dto.Held[string(id)] = qty
		}
	}
	return dto
}

type OrderPromiseDTO struct {
	Schedule  ScheduleDTO  `json:"schedule"`
	Exhausted bool         `json:"exhausted"`
	Lines     []PromiseDTO `json:"lines"`
}

// =============================================================================
// SYNC
// =============================================================================

// SyncReportDTO summarizes one inventory sync run.
type SyncReportDTO struct {
	RunID     string   `json:"run_id"`
	Processed int      `json:"processed"`
	Changed   int      `json:"changed"`
	Exhausted int      `json:"exhausted"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}
