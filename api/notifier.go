/*
notifier.go - Operational alert collaborator

PURPOSE:
  The sync job reports two events operations act on: a SKU's current batch
  shifted (its promise window moved - time to review reorder timing), and a
  SKU exhausted its capacity (no honest promise remains - reorder now).
  Delivery mechanics and message formatting live outside this system; this
  file carries the interface plus the two implementations the server ships
  with: structured log lines, and a chat-webhook poster.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/hakobune/delivery-engine/allocation"
	"github.com/hakobune/delivery-engine/schedule"
)

// Notifier receives operational events from the sync job. Implementations
// must not block the sync loop for long; failures are logged, never
// propagated - a lost alert must not fail an allocation run.
type Notifier interface {
	// BatchShifted fires when a SKU's current batch moved.
	BatchShifted(ctx context.Context, skuCode string, from, to allocation.BatchID, promised schedule.Schedule)

	// StockExhausted fires when pending demand exceeds all capacity.
	StockExhausted(ctx context.Context, skuCode string, pendingDemand int)
}

// =============================================================================
// LOG NOTIFIER - Default
// =============================================================================

// LogNotifier writes alerts to the process log.
type LogNotifier struct{}

func (n *LogNotifier) BatchShifted(ctx context.Context, skuCode string, from, to allocation.BatchID, promised schedule.Schedule) {
	log.Printf("[Notify] batch shifted: sku=%s from=%q to=%q promise=%s", skuCode, from, to, promised.Text)
}

func (n *LogNotifier) StockExhausted(ctx context.Context, skuCode string, pendingDemand int) {
	log.Printf("[Notify] stock exhausted: sku=%s pending=%d", skuCode, pendingDemand)
}

// =============================================================================
// WEBHOOK NOTIFIER - Chat channel alerts
// =============================================================================

// WebhookNotifier posts alerts to a chat incoming-webhook URL as
// {"text": "..."} payloads.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) BatchShifted(ctx context.Context, skuCode string, from, to allocation.BatchID, promised schedule.Schedule) {
	n.post(ctx, fmt.Sprintf("SKU %s: current batch shifted %q -> %q, now promising %s", skuCode, from, to, promised.Text))
}

func (n *WebhookNotifier) StockExhausted(ctx context.Context, skuCode string, pendingDemand int) {
	n.post(ctx, fmt.Sprintf("SKU %s: stock exhausted, %d units pending beyond capacity", skuCode, pendingDemand))
}

func (n *WebhookNotifier) post(ctx context.Context, text string) {
	body, _ := json.Marshal(map[string]string{"text": text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		log.Printf("[Notify] webhook request failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		log.Printf("[Notify] webhook post failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("[Notify] webhook returned %d", resp.StatusCode)
	}
}
