/*
Package sqlite provides the SQLite-backed store for SKUs, batches and orders.

PURPOSE:
  Persists the inputs and outputs of the delivery promise engine. The engine
  itself is pure; this package is the snapshot reader (SKU + ordered batch
  list + pending demand) and the single write path for allocation results.

KEY TABLES:
  skus:              per-SKU stock, buffer, fault rate, current batch
  inventory_batches: finite incoming stock lines with delivery tags
  order_lines:       open demand, aggregated into pending-demand counts

ORDERING INVARIANT:
  ListBatches returns batches ascending by expected delivery date, ties
  broken by id - exactly the order the allocator requires. Only batches
  waiting to ship or to be received are returned.

ALLOCATION WRITE-BACK:
  ApplyAllocation writes held quantities and the current batch id in one
  transaction. Last writer wins; callers serialize per-SKU updates (the
  sync scheduler walks SKUs sequentially for this reason).

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/engine.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - allocation: the types these records hydrate into
  - api/scheduler.go: the sync job driving ApplyAllocation
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hakobune/delivery-engine/allocation"
)

// ErrSKUNotFound is returned when a SKU code has no row.
var ErrSKUNotFound = errors.New("sku not found")

// PendingDemandWindow is the rolling window over which un-shipped order
// lines count as pending demand. Anything older is treated as abandoned by
// the upstream process and excluded.
const PendingDemandWindow = 180 * 24 * time.Hour

// Store implements persistence for the promise engine.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS skus (
		code TEXT PRIMARY KEY,
		on_hand INTEGER NOT NULL DEFAULT 0,
		stock_buffer INTEGER NOT NULL DEFAULT 0,
		faulty_rate REAL NOT NULL DEFAULT 0,
		current_batch_id TEXT NOT NULL DEFAULT '',
		skip_delivery_calc INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS inventory_batches (
		id TEXT PRIMARY KEY,
		sku_code TEXT NOT NULL REFERENCES skus(code),
		quantity INTEGER NOT NULL DEFAULT 0,
		held_quantity INTEGER NOT NULL DEFAULT 0,
		delivery_tag TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		expected_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Hot path: the allocator's ordered batch query.
	CREATE INDEX IF NOT EXISTS idx_batches_sku_expected
		ON inventory_batches(sku_code, expected_at, id);

	CREATE TABLE IF NOT EXISTS order_lines (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		sku_code TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		ordered_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_order_lines_sku_status
		ON order_lines(sku_code, status, ordered_at);
	CREATE INDEX IF NOT EXISTS idx_order_lines_order
		ON order_lines(order_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORDS
// =============================================================================

// SKURecord is the stored form of a SKU.
type SKURecord struct {
	Code             string
	OnHand           int
	StockBuffer      int
	FaultyRate       float64
	CurrentBatchID   string
	SkipDeliveryCalc bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ToSKU hydrates the allocator's read model.
func (r SKURecord) ToSKU() allocation.SKU {
	return allocation.SKU{
		Code:             r.Code,
		OnHand:           r.OnHand,
		Buffer:           r.StockBuffer,
		FaultyRate:       r.FaultyRate,
		CurrentBatchID:   allocation.BatchID(r.CurrentBatchID),
		SkipDeliveryCalc: r.SkipDeliveryCalc,
	}
}

// BatchRecord is the stored form of an inventory batch line.
type BatchRecord struct {
	ID           string
	SKUCode      string
	Quantity     int
	HeldQuantity int
	DeliveryTag  string
	Status       string
	ExpectedAt   time.Time
	CreatedAt    time.Time
}

// ToBatch hydrates the allocator's read model.
func (r BatchRecord) ToBatch() allocation.Batch {
	return allocation.Batch{
		ID:          allocation.BatchID(r.ID),
		Quantity:    r.Quantity,
		Held:        r.HeldQuantity,
		DeliveryTag: r.DeliveryTag,
		Status:      allocation.BatchStatus(r.Status),
	}
}

// OrderLine is one SKU's demand within an order.
type OrderLine struct {
	ID        string
	OrderID   string
	SKUCode   string
	Quantity  int
	Status    string // open | fulfilled | canceled | closed
	OrderedAt time.Time
}

// =============================================================================
// SKUS
// =============================================================================

// SaveSKU inserts or updates a SKU row. The current batch id is only set on
// insert; updates to it go through ApplyAllocation, its sole writer.
func (s *Store) SaveSKU(ctx context.Context, r SKURecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	created := now
	if !r.CreatedAt.IsZero() {
		created = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO skus (code, on_hand, stock_buffer, faulty_rate, current_batch_id, skip_delivery_calc, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			on_hand = excluded.on_hand,
			stock_buffer = excluded.stock_buffer,
			faulty_rate = excluded.faulty_rate,
			skip_delivery_calc = excluded.skip_delivery_calc,
			updated_at = excluded.updated_at`,
		r.Code, r.OnHand, r.StockBuffer, r.FaultyRate, r.CurrentBatchID, boolToInt(r.SkipDeliveryCalc), created, now)
	return err
}

// GetSKU fetches one SKU by code.
func (s *Store) GetSKU(ctx context.Context, code string) (*SKURecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT code, on_hand, stock_buffer, faulty_rate, current_batch_id, skip_delivery_calc, created_at, updated_at
		FROM skus WHERE code = ?`, code)
	r, err := scanSKU(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSKUNotFound, code)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListSKUs returns all SKUs ordered by code.
func (s *Store) ListSKUs(ctx context.Context) ([]SKURecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, on_hand, stock_buffer, faulty_rate, current_batch_id, skip_delivery_calc, created_at, updated_at
		FROM skus ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SKURecord
	for rows.Next() {
		r, err := scanSKU(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSKU(row rowScanner) (*SKURecord, error) {
	var r SKURecord
	var skip int
	var created, updated string
	if err := row.Scan(&r.Code, &r.OnHand, &r.StockBuffer, &r.FaultyRate, &r.CurrentBatchID, &skip, &created, &updated); err != nil {
		return nil, err
	}
	r.SkipDeliveryCalc = skip != 0
	r.CreatedAt, _ = time.Parse(time.RFC3339, created)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &r, nil
}

// =============================================================================
// BATCHES
// =============================================================================

// SaveBatch inserts or updates a batch line. Held quantity is only set on
// insert; updates to it go through ApplyAllocation.
func (s *Store) SaveBatch(ctx context.Context, r BatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := time.Now().UTC()
	if !r.CreatedAt.IsZero() {
		created = r.CreatedAt.UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_batches (id, sku_code, quantity, held_quantity, delivery_tag, status, expected_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			quantity = excluded.quantity,
			delivery_tag = excluded.delivery_tag,
			status = excluded.status,
			expected_at = excluded.expected_at`,
		r.ID, r.SKUCode, r.Quantity, r.HeldQuantity, r.DeliveryTag, r.Status,
		r.ExpectedAt.UTC().Format(time.RFC3339), created.Format(time.RFC3339))
	return err
}

// ListBatches returns the SKU's allocatable batches in allocation order:
// ascending expected delivery date, ties broken by id.
func (s *Store) ListBatches(ctx context.Context, skuCode string) ([]BatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sku_code, quantity, held_quantity, delivery_tag, status, expected_at, created_at
		FROM inventory_batches
		WHERE sku_code = ? AND status IN (?, ?)
		ORDER BY expected_at ASC, id ASC`,
		skuCode, string(allocation.StatusWaitingShipping), string(allocation.StatusWaitingReceiving))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BatchRecord
	for rows.Next() {
		var r BatchRecord
		var expected, created string
		if err := rows.Scan(&r.ID, &r.SKUCode, &r.Quantity, &r.HeldQuantity, &r.DeliveryTag, &r.Status, &expected, &created); err != nil {
			return nil, err
		}
		r.ExpectedAt, _ = time.Parse(time.RFC3339, expected)
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ApplyAllocation persists one allocation run: every held quantity plus the
// SKU's current batch id, in a single transaction. Last writer wins.
func (s *Store) ApplyAllocation(ctx context.Context, skuCode string, current allocation.BatchID, held map[allocation.BatchID]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for id, qty := range held {
		if _, err := tx.ExecContext(ctx,
			`UPDATE inventory_batches SET held_quantity = ? WHERE id = ?`, qty, string(id)); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE skus SET current_batch_id = ?, updated_at = ? WHERE code = ?`,
		string(current), time.Now().UTC().Format(time.RFC3339), skuCode)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSKUNotFound, skuCode)
	}

	return tx.Commit()
}

// =============================================================================
// ORDER LINES / PENDING DEMAND
// =============================================================================

// SaveOrderLine inserts or replaces one order line.
func (s *Store) SaveOrderLine(ctx context.Context, l OrderLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.Status == "" {
		l.Status = "open"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO order_lines (id, order_id, sku_code, quantity, status, ordered_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			quantity = excluded.quantity,
			status = excluded.status`,
		l.ID, l.OrderID, l.SKUCode, l.Quantity, l.Status, l.OrderedAt.UTC().Format(time.RFC3339))
	return err
}

// ListOrderLines returns the lines of one order.
func (s *Store) ListOrderLines(ctx context.Context, orderID string) ([]OrderLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, sku_code, quantity, status, ordered_at
		FROM order_lines WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderLine
	for rows.Next() {
		var l OrderLine
		var ordered string
		if err := rows.Scan(&l.ID, &l.OrderID, &l.SKUCode, &l.Quantity, &l.Status, &ordered); err != nil {
			return nil, err
		}
		l.OrderedAt, _ = time.Parse(time.RFC3339, ordered)
		out = append(out, l)
	}
	return out, rows.Err()
}

// PendingDemand counts the open (un-fulfilled, un-canceled, un-closed) units
// ordered for a SKU within the rolling 180-day window ending at asOf.
func (s *Store) PendingDemand(ctx context.Context, skuCode string, asOf time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := asOf.Add(-PendingDemandWindow).UTC().Format(time.RFC3339)
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM order_lines
		WHERE sku_code = ? AND status = 'open' AND ordered_at >= ?`,
		skuCode, cutoff).Scan(&total)
	return total, err
}

// Reset drops all rows. Dev/demo only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM order_lines;
		DELETE FROM inventory_batches;
		DELETE FROM skus;`)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
