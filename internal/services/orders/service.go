// Package orders implements the order placement use case.
//
// PlaceOrder runs the whole placement as a single database transaction:
// the product row is read under an exclusive row lock, stock and price are
// checked against that locked read, and the order, its line and the stock
// decrement are all written before commit. Any failure rolls the
// transaction back, so a rejected placement leaves no trace.
//
// Serialization conflicts and deadlocks (SQLSTATE 40001/40P01) are retried
// with bounded exponential backoff; every other storage failure surfaces
// as an entity.StorageError.
//
// Post-commit side effects - cache invalidation, the order-placed event
// and metrics - are best effort and never change the placement result.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/freshmart/orderflow/internal/adapters/outbound/postgres"
	"github.com/freshmart/orderflow/internal/domain/entity"
	"github.com/freshmart/orderflow/internal/pkg/retry"
	"github.com/freshmart/orderflow/internal/ports/inbound"
	"github.com/freshmart/orderflow/internal/ports/outbound"
)

// Compile-time checks that Service implements the inbound ports
var (
	_ inbound.OrderService  = (*Service)(nil)
	_ inbound.HealthChecker = (*Service)(nil)
)

// Placement outcome labels used for logs and metrics.
const (
	StatusSuccess           = "success"
	StatusInsufficientStock = "insufficient_stock"
	StatusProductNotFound   = "product_not_found"
	StatusMissingPrice      = "missing_price"
	StatusInvalidRequest    = "invalid_request"
	StatusStorageFailure    = "storage_failure"
)

// Pinger reports storage connectivity. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds configuration for the orders service.
type Config struct {
	// Retry controls how serialization conflicts are retried.
	Retry retry.Config

	// Logger for service operations.
	Logger *slog.Logger
}

// ConfigDefaults returns a Config with sensible defaults.
func ConfigDefaults() Config {
	return Config{
		Retry:  retry.DefaultConfig(),
		Logger: slog.Default(),
	}
}

// Deps carries the outbound dependencies of the service.
// TxManager, ProductRepo, OrderRepo and Pinger are required.
// Cache, Events and Metrics are optional; nil disables them.
type Deps struct {
	TxManager   outbound.TxManager
	ProductRepo outbound.ProductRepository
	OrderRepo   outbound.OrderRepository
	Pinger      Pinger

	Cache   outbound.ProductCache
	Events  outbound.EventSink
	Metrics outbound.MetricsRecorder
}

// Service implements the OrderService inbound port.
type Service struct {
	config Config
	deps   Deps
	logger *slog.Logger

	// newID generates order identifiers. Overridable in tests.
	newID func() string

	ready   atomic.Bool
	healthy atomic.Bool
}

// NewService creates a new orders service.
func NewService(config Config, deps Deps) (*Service, error) {
	if deps.TxManager == nil {
		return nil, fmt.Errorf("tx manager cannot be nil")
	}
	if deps.ProductRepo == nil {
		return nil, fmt.Errorf("product repository cannot be nil")
	}
	if deps.OrderRepo == nil {
		return nil, fmt.Errorf("order repository cannot be nil")
	}
	if deps.Pinger == nil {
		return nil, fmt.Errorf("pinger cannot be nil")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	s := &Service{
		config: config,
		deps:   deps,
		logger: config.Logger.With("component", "orders_service"),
		newID:  uuid.NewString,
	}
	s.healthy.Store(true)
	return s, nil
}

// Start verifies storage connectivity and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	if err := s.deps.Pinger.Ping(ctx); err != nil {
		return fmt.Errorf("storage not reachable: %w", err)
	}
	s.ready.Store(true)
	s.logger.Info("orders service ready")
	return nil
}

// PlaceOrder atomically verifies stock, creates the order and its line, and
// decrements inventory. See the package documentation for the transaction
// contract.
func (s *Service) PlaceOrder(ctx context.Context, req inbound.PlaceOrderRequest) (*entity.Order, error) {
	start := time.Now()

	order, err := s.placeOrder(ctx, req)

	status := statusForError(err)
	s.recordPlacement(ctx, status, time.Since(start))

	if err != nil {
		s.logger.Info("placement rejected",
			"status", status,
			"customerId", req.CustomerID,
			"productId", req.ProductID,
			"quantity", req.Quantity,
			"error", err)
		return nil, err
	}

	s.logger.Info("order placed",
		"orderId", order.ID,
		"customerId", order.CustomerID,
		"productId", req.ProductID,
		"quantity", req.Quantity,
		"totalAmount", order.TotalAmount.String())

	s.afterCommit(ctx, order, req)
	return order, nil
}

func (s *Service) placeOrder(ctx context.Context, req inbound.PlaceOrderRequest) (*entity.Order, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	onRetry := func(attempt int, err error, backoff time.Duration) {
		s.logger.Warn("retrying placement after serialization conflict",
			"attempt", attempt,
			"backoff", backoff,
			"productId", req.ProductID,
			"error", err)
	}

	var order *entity.Order
	err := retry.DoVoid(ctx, s.config.Retry, postgres.IsSerializationFailure, onRetry, func() error {
		return s.deps.TxManager.WithTransaction(ctx, func(tx pgx.Tx) error {
			o, err := s.placeInTx(ctx, tx, req)
			if err != nil {
				return err
			}
			order = o
			return nil
		})
	})
	if err != nil {
		return nil, s.classify(err)
	}
	s.healthy.Store(true)
	return order, nil
}

// placeInTx runs the placement steps against a live transaction. The
// product read holds a row lock until commit, so stock and price checks,
// the order writes and the stock decrement all see one consistent row.
func (s *Service) placeInTx(ctx context.Context, tx pgx.Tx, req inbound.PlaceOrderRequest) (*entity.Order, error) {
	product, err := s.deps.ProductRepo.GetForUpdate(ctx, tx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if product.StockQuantity < req.Quantity {
		return nil, fmt.Errorf("product %s: %w: have %d, want %d",
			product.ID, entity.ErrInsufficientStock, product.StockQuantity, req.Quantity)
	}
	if !product.HasPrice() {
		return nil, fmt.Errorf("product %s: %w", product.ID, entity.ErrMissingPrice)
	}

	order, err := entity.NewOrder(
		s.newID(),
		req.CustomerID,
		time.Now().UTC(),
		req.Quantity,
		product.UnitPrice(),
		req.Discount,
		req.DeliveryFee,
	)
	if err != nil {
		return nil, err
	}

	if err := s.deps.OrderRepo.InsertOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	line, err := entity.NewOrderLine(order.ID, product.ID, req.Quantity, product.UnitPrice(), req.Discount)
	if err != nil {
		return nil, err
	}
	if err := s.deps.OrderRepo.InsertOrderLine(ctx, tx, line); err != nil {
		return nil, err
	}

	if err := s.deps.ProductRepo.SetStock(ctx, tx, product.ID, product.StockQuantity-req.Quantity); err != nil {
		return nil, err
	}

	return order, nil
}

// classify maps transaction errors onto the placement failure kinds.
// Domain rejections pass through unchanged; anything else is a storage
// failure.
func (s *Service) classify(err error) error {
	switch {
	case errors.Is(err, entity.ErrProductNotFound),
		errors.Is(err, entity.ErrInsufficientStock),
		errors.Is(err, entity.ErrMissingPrice),
		errors.Is(err, errInvalidRequest):
		return err
	}
	s.healthy.Store(false)
	return entity.NewStorageError("order placement", err)
}

// afterCommit runs the best-effort post-commit side effects. Failures are
// logged and dropped; the order is already durable.
func (s *Service) afterCommit(ctx context.Context, order *entity.Order, req inbound.PlaceOrderRequest) {
	if s.deps.Cache != nil {
		if err := s.deps.Cache.Invalidate(ctx, req.ProductID); err != nil {
			s.logger.Warn("failed to invalidate product cache",
				"productId", req.ProductID, "error", err)
		}
	}

	if s.deps.Events != nil {
		event := outbound.OrderPlacedEvent{
			OrderID:     order.ID,
			CustomerID:  order.CustomerID,
			ProductID:   req.ProductID,
			Quantity:    req.Quantity,
			TotalAmount: order.TotalAmount.String(),
			PlacedAt:    order.OrderDate,
		}
		if err := s.deps.Events.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish order placed event",
				"orderId", order.ID, "error", err)
		}
	}
}

func (s *Service) recordPlacement(ctx context.Context, status string, elapsed time.Duration) {
	if s.deps.Metrics == nil {
		return
	}
	s.deps.Metrics.RecordOrderPlaced(ctx, status)
	s.deps.Metrics.RecordPlacementLatency(ctx, elapsed, status)
}

// GetOrder returns a placed order with its lines, or nil when unknown.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*entity.Order, []*entity.OrderLine, error) {
	if orderID == "" {
		return nil, nil, fmt.Errorf("%w: order id must not be empty", errInvalidRequest)
	}

	order, err := s.deps.OrderRepo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, entity.NewStorageError("order read", err)
	}
	if order == nil {
		return nil, nil, nil
	}

	lines, err := s.deps.OrderRepo.ListOrderLines(ctx, orderID)
	if err != nil {
		return nil, nil, entity.NewStorageError("order read", err)
	}
	return order, lines, nil
}

// GetProduct returns catalog data for a product, cache-aside. A cache
// failure falls through to the repository.
func (s *Service) GetProduct(ctx context.Context, productID string) (*entity.Product, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id must not be empty", errInvalidRequest)
	}

	if s.deps.Cache != nil {
		cached, err := s.deps.Cache.GetProduct(ctx, productID)
		if err != nil {
			s.logger.Warn("product cache read failed", "productId", productID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	product, err := s.deps.ProductRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, entity.ErrProductNotFound) {
			return nil, err
		}
		return nil, entity.NewStorageError("product read", err)
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.SetProduct(ctx, product); err != nil {
			s.logger.Warn("product cache write failed", "productId", productID, "error", err)
		}
	}
	return product, nil
}

// Ping verifies the service's storage dependencies are reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.deps.Pinger.Ping(ctx); err != nil {
		s.healthy.Store(false)
		return fmt.Errorf("storage ping failed: %w", err)
	}
	s.healthy.Store(true)
	return nil
}

// IsReady returns true once Start has verified storage connectivity.
func (s *Service) IsReady() bool {
	return s.ready.Load()
}

// IsHealthy returns true while storage operations are succeeding.
func (s *Service) IsHealthy() bool {
	return s.healthy.Load()
}

// errInvalidRequest marks request validation failures. They are caller
// errors, not storage failures.
var errInvalidRequest = errors.New("invalid request")

// IsInvalidRequest reports whether err is a request validation failure.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, errInvalidRequest)
}

func validateRequest(req inbound.PlaceOrderRequest) error {
	if req.CustomerID == "" {
		return fmt.Errorf("%w: customer id must not be empty", errInvalidRequest)
	}
	if req.ProductID == "" {
		return fmt.Errorf("%w: product id must not be empty", errInvalidRequest)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", errInvalidRequest, req.Quantity)
	}
	if req.Discount.IsNegative() {
		return fmt.Errorf("%w: discount must be non-negative, got %s", errInvalidRequest, req.Discount)
	}
	if req.DeliveryFee.IsNegative() {
		return fmt.Errorf("%w: delivery fee must be non-negative, got %s", errInvalidRequest, req.DeliveryFee)
	}
	return nil
}

// statusForError maps a placement result onto a metrics/log label.
func statusForError(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, entity.ErrInsufficientStock):
		return StatusInsufficientStock
	case errors.Is(err, entity.ErrProductNotFound):
		return StatusProductNotFound
	case errors.Is(err, entity.ErrMissingPrice):
		return StatusMissingPrice
	case errors.Is(err, errInvalidRequest):
		return StatusInvalidRequest
	default:
		return StatusStorageFailure
	}
}
