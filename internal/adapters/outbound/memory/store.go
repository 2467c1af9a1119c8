// store.go provides an in-memory implementation of the persistence ports.
//
// The store implements ProductRepository, OrderRepository and TxManager
// against plain maps, so services can be unit-tested without PostgreSQL.
// Transactions are emulated with a store-wide mutex plus copy-on-begin
// snapshots: fn runs against live state under the lock, and the snapshot
// is restored when fn fails. That reproduces the two properties the
// placement path depends on - mutual exclusion of writers and
// all-or-nothing visibility - without a real lock manager.
//
// Failure injection hooks (FailGetForUpdate, FailInsertOrder, ...) let
// tests force errors at specific points of the transaction.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/freshmart/orderflow/internal/domain/entity"
	"github.com/freshmart/orderflow/internal/ports/outbound"
)

// Compile-time checks that Store implements the persistence ports
var (
	_ outbound.ProductRepository = (*Store)(nil)
	_ outbound.OrderRepository   = (*Store)(nil)
	_ outbound.TxManager         = (*Store)(nil)
)

// Store is an in-memory implementation of the persistence ports for testing.
type Store struct {
	mu       sync.Mutex
	products map[string]*entity.Product
	orders   map[string]*entity.Order
	lines    map[string][]*entity.OrderLine

	// inTx is true while WithTransaction runs fn. Repository methods that
	// take a tx argument refuse to run outside one.
	inTx bool

	// Failure injection for tests. Each error, when set, is returned by
	// the corresponding operation.
	FailGetForUpdate    error
	FailSetStock        error
	FailInsertOrder     error
	FailInsertOrderLine error
	FailCommit          error
}

// NewStore creates a new in-memory store for testing.
func NewStore() *Store {
	return &Store{
		products: make(map[string]*entity.Product),
		orders:   make(map[string]*entity.Order),
		lines:    make(map[string][]*entity.OrderLine),
	}
}

// WithTransaction executes fn under the store lock. When fn returns an
// error, every mutation it made is rolled back. The pgx.Tx passed to fn is
// nil; the in-memory repositories ignore it.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshotLocked()
	s.inTx = true
	defer func() { s.inTx = false }()

	if err := fn(nil); err != nil {
		s.restoreLocked(snapshot)
		return err
	}
	if s.FailCommit != nil {
		s.restoreLocked(snapshot)
		return fmt.Errorf("failed to commit transaction: %w", s.FailCommit)
	}
	return nil
}

type storeSnapshot struct {
	products map[string]*entity.Product
	orders   map[string]*entity.Order
	lines    map[string][]*entity.OrderLine
}

func (s *Store) snapshotLocked() storeSnapshot {
	snap := storeSnapshot{
		products: make(map[string]*entity.Product, len(s.products)),
		orders:   make(map[string]*entity.Order, len(s.orders)),
		lines:    make(map[string][]*entity.OrderLine, len(s.lines)),
	}
	for id, p := range s.products {
		cp := *p
		snap.products[id] = &cp
	}
	for id, o := range s.orders {
		cp := *o
		snap.orders[id] = &cp
	}
	for id, ls := range s.lines {
		cps := make([]*entity.OrderLine, len(ls))
		for i, l := range ls {
			cp := *l
			cps[i] = &cp
		}
		snap.lines[id] = cps
	}
	return snap
}

func (s *Store) restoreLocked(snap storeSnapshot) {
	s.products = snap.products
	s.orders = snap.orders
	s.lines = snap.lines
}

// GetForUpdate reads a product inside an emulated transaction. The store
// lock held by WithTransaction provides the exclusion a row lock would.
func (s *Store) GetForUpdate(ctx context.Context, tx pgx.Tx, productID string) (*entity.Product, error) {
	if !s.inTx {
		return nil, fmt.Errorf("GetForUpdate called outside a transaction")
	}
	if s.FailGetForUpdate != nil {
		return nil, s.FailGetForUpdate
	}
	p, ok := s.products[productID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, entity.ErrProductNotFound)
	}
	cp := *p
	return &cp, nil
}

// GetByID reads a product without locking.
func (s *Store) GetByID(ctx context.Context, productID string) (*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, entity.ErrProductNotFound)
	}
	cp := *p
	return &cp, nil
}

// SetStock writes the product's stock quantity inside an emulated transaction.
func (s *Store) SetStock(ctx context.Context, tx pgx.Tx, productID string, quantity int) error {
	if !s.inTx {
		return fmt.Errorf("SetStock called outside a transaction")
	}
	if s.FailSetStock != nil {
		return s.FailSetStock
	}
	if quantity < 0 {
		return fmt.Errorf("stock quantity must be non-negative, got %d", quantity)
	}
	p, ok := s.products[productID]
	if !ok {
		return fmt.Errorf("product %s: %w", productID, entity.ErrProductNotFound)
	}
	p.StockQuantity = quantity
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// UpsertProducts inserts or replaces catalog records.
func (s *Store) UpsertProducts(ctx context.Context, products []*entity.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, p := range products {
		cp := *p
		if existing, ok := s.products[p.ID]; ok {
			cp.CreatedAt = existing.CreatedAt
		} else if cp.CreatedAt.IsZero() {
			cp.CreatedAt = now
		}
		cp.UpdatedAt = now
		s.products[cp.ID] = &cp
	}
	return nil
}

// InsertOrder writes the order record inside an emulated transaction.
func (s *Store) InsertOrder(ctx context.Context, tx pgx.Tx, order *entity.Order) error {
	if !s.inTx {
		return fmt.Errorf("InsertOrder called outside a transaction")
	}
	if s.FailInsertOrder != nil {
		return s.FailInsertOrder
	}
	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

// InsertOrderLine writes one order line inside an emulated transaction.
func (s *Store) InsertOrderLine(ctx context.Context, tx pgx.Tx, line *entity.OrderLine) error {
	if !s.inTx {
		return fmt.Errorf("InsertOrderLine called outside a transaction")
	}
	if s.FailInsertOrderLine != nil {
		return s.FailInsertOrderLine
	}
	if _, exists := s.orders[line.OrderID]; !exists {
		return fmt.Errorf("order %s does not exist", line.OrderID)
	}
	cp := *line
	s.lines[line.OrderID] = append(s.lines[line.OrderID], &cp)
	return nil
}

// GetOrder reads a single order. Returns nil if no such order exists.
func (s *Store) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

// ListOrderLines reads all lines of an order.
func (s *Store) ListOrderLines(ctx context.Context, orderID string) ([]*entity.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls := s.lines[orderID]
	result := make([]*entity.OrderLine, len(ls))
	for i, l := range ls {
		cp := *l
		result[i] = &cp
	}
	return result, nil
}

// Ping reports the store as reachable. Satisfies the storage health probe.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// OrderCount returns the number of stored orders. Test helper.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}
