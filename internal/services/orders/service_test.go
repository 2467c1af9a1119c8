package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/freshmart/orderflow/internal/adapters/outbound/memory"
	"github.com/freshmart/orderflow/internal/domain/entity"
	"github.com/freshmart/orderflow/internal/ports/inbound"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testDeps struct {
	store *memory.Store
	cache *memory.ProductCache
	sink  *memory.EventSink
}

func newTestService(t *testing.T) (*Service, testDeps) {
	t.Helper()

	deps := testDeps{
		store: memory.NewStore(),
		cache: memory.NewProductCache(0),
		sink:  memory.NewEventSink(),
	}

	cfg := ConfigDefaults()
	cfg.Logger = testLogger()

	service, err := NewService(cfg, Deps{
		TxManager:   deps.store,
		ProductRepo: deps.store,
		OrderRepo:   deps.store,
		Pinger:      deps.store,
		Cache:       deps.cache,
		Events:      deps.sink,
	})
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}
	return service, deps
}

func seedProduct(t *testing.T, store *memory.Store, id string, price string, stock int) {
	t.Helper()

	p := &entity.Product{
		ID:            id,
		Name:          "product " + id,
		StockQuantity: stock,
	}
	if price != "" {
		d, err := decimal.NewFromString(price)
		if err != nil {
			t.Fatalf("invalid price %q: %v", price, err)
		}
		p.Price = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	if err := store.UpsertProducts(context.Background(), []*entity.Product{p}); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
}

func placeRequest(productID string, quantity int) inbound.PlaceOrderRequest {
	return inbound.PlaceOrderRequest{
		CustomerID: "cust-1",
		ProductID:  productID,
		Quantity:   quantity,
	}
}

func TestService_PlaceOrder_Success(t *testing.T) {
	service, deps := newTestService(t)
	seedProduct(t, deps.store, "prod-1", "207", 10)

	order, err := service.PlaceOrder(context.Background(), placeRequest("prod-1", 5))
	if err != nil {
		t.Fatalf("PlaceOrder() failed: %v", err)
	}

	if order.ID == "" {
		t.Error("order ID is empty")
	}
	if order.CustomerID != "cust-1" {
		t.Errorf("CustomerID = %q, want %q", order.CustomerID, "cust-1")
	}
	if want := decimal.NewFromInt(1035); !order.TotalAmount.Equal(want) {
		t.Errorf("TotalAmount = %s, want %s", order.TotalAmount, want)
	}

	product, err := deps.store.GetByID(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if product.StockQuantity != 5 {
		t.Errorf("stock after placement = %d, want 5", product.StockQuantity)
	}

	stored, lines, err := service.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder() failed: %v", err)
	}
	if stored == nil {
		t.Fatal("placed order not found")
	}
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	line := lines[0]
	if line.ProductID != "prod-1" || line.Quantity != 5 {
		t.Errorf("line = %+v, want productId=prod-1 quantity=5", line)
	}
	if want := decimal.NewFromInt(207); !line.UnitPrice.Equal(want) {
		t.Errorf("line UnitPrice = %s, want %s", line.UnitPrice, want)
	}
}

func TestService_PlaceOrder_AppliesDiscountAndFee(t *testing.T) {
	service, deps := newTestService(t)
	seedProduct(t, deps.store, "prod-1", "9.99", 10)

	req := placeRequest("prod-1", 2)
	req.Discount = decimal.NewFromFloat(1.50)
	req.DeliveryFee = decimal.NewFromFloat(4.95)

	order, err := service.PlaceOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("PlaceOrder() failed: %v", err)
	}

	// 2 * 9.99 - 1.50
	if want := decimal.NewFromFloat(18.48); !order.TotalAmount.Equal(want) {
		t.Errorf("TotalAmount = %s, want %s", order.TotalAmount, want)
	}
	if want := decimal.NewFromFloat(4.95); !order.DeliveryFee.Equal(want) {
		t.Errorf("DeliveryFee = %s, want %s", order.DeliveryFee, want)
	}
}

func TestService_PlaceOrder_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		seed    func(t *testing.T, store *memory.Store)
		req     inbound.PlaceOrderRequest
		wantErr error
	}{
		{
			name: "insufficient stock",
			seed: func(t *testing.T, store *memory.Store) {
				seedProduct(t, store, "prod-1", "207", 3)
			},
			req:     placeRequest("prod-1", 5),
			wantErr: entity.ErrInsufficientStock,
		},
		{
			name: "exact stock boundary is accepted, one more is not",
			seed: func(t *testing.T, store *memory.Store) {
				seedProduct(t, store, "prod-1", "207", 5)
			},
			req:     placeRequest("prod-1", 6),
			wantErr: entity.ErrInsufficientStock,
		},
		{
			name: "missing price",
			seed: func(t *testing.T, store *memory.Store) {
				seedProduct(t, store, "prod-1", "", 10)
			},
			req:     placeRequest("prod-1", 5),
			wantErr: entity.ErrMissingPrice,
		},
		{
			name:    "product not found",
			seed:    func(t *testing.T, store *memory.Store) {},
			req:     placeRequest("ghost", 1),
			wantErr: entity.ErrProductNotFound,
		},
		{
			name: "zero quantity",
			seed: func(t *testing.T, store *memory.Store) {
				seedProduct(t, store, "prod-1", "207", 10)
			},
			req:     placeRequest("prod-1", 0),
			wantErr: errInvalidRequest,
		},
		{
			name: "negative quantity",
			seed: func(t *testing.T, store *memory.Store) {
				seedProduct(t, store, "prod-1", "207", 10)
			},
			req:     placeRequest("prod-1", -2),
			wantErr: errInvalidRequest,
		},
		{
			name: "empty customer",
			seed: func(t *testing.T, store *memory.Store) {
				seedProduct(t, store, "prod-1", "207", 10)
			},
			req:     inbound.PlaceOrderRequest{ProductID: "prod-1", Quantity: 1},
			wantErr: errInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, deps := newTestService(t)
			tt.seed(t, deps.store)

			order, err := service.PlaceOrder(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("PlaceOrder() error = %v, want %v", err, tt.wantErr)
			}
			if order != nil {
				t.Errorf("order = %+v, want nil", order)
			}

			if deps.store.OrderCount() != 0 {
				t.Errorf("orders stored after rejection = %d, want 0", deps.store.OrderCount())
			}
			if len(deps.sink.GetEvents()) != 0 {
				t.Errorf("events published after rejection = %d, want 0", len(deps.sink.GetEvents()))
			}
		})
	}
}

func TestService_PlaceOrder_RejectionLeavesStockUntouched(t *testing.T) {
	service, deps := newTestService(t)
	seedProduct(t, deps.store, "prod-1", "207", 3)

	_, err := service.PlaceOrder(context.Background(), placeRequest("prod-1", 5))
	if !errors.Is(err, entity.ErrInsufficientStock) {
		t.Fatalf("PlaceOrder() error = %v, want ErrInsufficientStock", err)
	}

	product, err := deps.store.GetByID(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if product.StockQuantity != 3 {
		t.Errorf("stock after rejection = %d, want 3", product.StockQuantity)
	}
}

func TestService_PlaceOrder_StorageFailureRollsBack(t *testing.T) {
	tests := []struct {
		name   string
		inject func(store *memory.Store)
	}{
		{
			name:   "order insert fails",
			inject: func(store *memory.Store) { store.FailInsertOrder = errors.New("disk full") },
		},
		{
			name:   "order line insert fails",
			inject: func(store *memory.Store) { store.FailInsertOrderLine = errors.New("disk full") },
		},
		{
			name:   "stock update fails",
			inject: func(store *memory.Store) { store.FailSetStock = errors.New("disk full") },
		},
		{
			name:   "commit fails",
			inject: func(store *memory.Store) { store.FailCommit = errors.New("connection reset") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, deps := newTestService(t)
			seedProduct(t, deps.store, "prod-1", "207", 10)
			tt.inject(deps.store)

			_, err := service.PlaceOrder(context.Background(), placeRequest("prod-1", 5))

			var storageErr *entity.StorageError
			if !errors.As(err, &storageErr) {
				t.Fatalf("PlaceOrder() error = %v, want StorageError", err)
			}

			product, err := deps.store.GetByID(context.Background(), "prod-1")
			if err != nil {
				t.Fatalf("GetByID() failed: %v", err)
			}
			if product.StockQuantity != 10 {
				t.Errorf("stock after failed placement = %d, want 10", product.StockQuantity)
			}
			if deps.store.OrderCount() != 0 {
				t.Errorf("orders stored after failed placement = %d, want 0", deps.store.OrderCount())
			}
			if service.IsHealthy() {
				t.Error("service still healthy after storage failure")
			}
		})
	}
}

func TestService_PlaceOrder_ConcurrentOversubscription(t *testing.T) {
	service, deps := newTestService(t)
	seedProduct(t, deps.store, "prod-1", "207", 10)

	const workers = 25

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.PlaceOrder(context.Background(), placeRequest("prod-1", 1))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, entity.ErrInsufficientStock):
			rejections++
		default:
			t.Fatalf("unexpected placement error: %v", err)
		}
	}

	if successes != 10 {
		t.Errorf("successful placements = %d, want 10", successes)
	}
	if rejections != workers-10 {
		t.Errorf("rejected placements = %d, want %d", rejections, workers-10)
	}

	product, err := deps.store.GetByID(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if product.StockQuantity != 0 {
		t.Errorf("final stock = %d, want 0", product.StockQuantity)
	}
	if deps.store.OrderCount() != 10 {
		t.Errorf("stored orders = %d, want 10", deps.store.OrderCount())
	}
}

func TestService_PlaceOrder_PublishesEvent(t *testing.T) {
	service, deps := newTestService(t)
	seedProduct(t, deps.store, "prod-1", "207", 10)

	order, err := service.PlaceOrder(context.Background(), placeRequest("prod-1", 5))
	if err != nil {
		t.Fatalf("PlaceOrder() failed: %v", err)
	}

	events := deps.sink.GetOrderPlacedEvents()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	e := events[0]
	if e.OrderID != order.ID {
		t.Errorf("event OrderID = %q, want %q", e.OrderID, order.ID)
	}
	if e.ProductID != "prod-1" || e.Quantity != 5 {
		t.Errorf("event = %+v, want productId=prod-1 quantity=5", e)
	}
	if e.TotalAmount != "1035" {
		t.Errorf("event TotalAmount = %q, want %q", e.TotalAmount, "1035")
	}
}

func TestService_PlaceOrder_EventFailureDoesNotFailPlacement(t *testing.T) {
	service, deps := newTestService(t)
	seedProduct(t, deps.store, "prod-1", "207", 10)
	deps.sink.SetPublishError(errors.New("broker down"))

	order, err := service.PlaceOrder(context.Background(), placeRequest("prod-1", 5))
	if err != nil {
		t.Fatalf("PlaceOrder() failed: %v", err)
	}
	if order == nil {
		t.Fatal("order is nil")
	}

	product, err := deps.store.GetByID(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if product.StockQuantity != 5 {
		t.Errorf("stock = %d, want 5", product.StockQuantity)
	}
}

func TestService_PlaceOrder_InvalidatesCache(t *testing.T) {
	service, deps := newTestService(t)
	seedProduct(t, deps.store, "prod-1", "207", 10)

	// Warm the cache through the read path.
	if _, err := service.GetProduct(context.Background(), "prod-1"); err != nil {
		t.Fatalf("GetProduct() failed: %v", err)
	}
	if deps.cache.Len() != 1 {
		t.Fatalf("cache entries after read = %d, want 1", deps.cache.Len())
	}

	if _, err := service.PlaceOrder(context.Background(), placeRequest("prod-1", 5)); err != nil {
		t.Fatalf("PlaceOrder() failed: %v", err)
	}

	if deps.cache.Len() != 0 {
		t.Errorf("cache entries after placement = %d, want 0", deps.cache.Len())
	}

	// The next read sees the decremented stock, not a stale cache entry.
	product, err := service.GetProduct(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("GetProduct() failed: %v", err)
	}
	if product.StockQuantity != 5 {
		t.Errorf("stock via cache-aside read = %d, want 5", product.StockQuantity)
	}
}

func TestService_GetProduct_CacheAside(t *testing.T) {
	service, deps := newTestService(t)
	seedProduct(t, deps.store, "prod-1", "207", 10)

	first, err := service.GetProduct(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("GetProduct() failed: %v", err)
	}
	if first.StockQuantity != 10 {
		t.Errorf("StockQuantity = %d, want 10", first.StockQuantity)
	}

	// Mutate the store behind the cache; the cached copy should be served.
	seedProduct(t, deps.store, "prod-1", "207", 99)

	second, err := service.GetProduct(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("GetProduct() failed: %v", err)
	}
	if second.StockQuantity != 10 {
		t.Errorf("cached StockQuantity = %d, want 10", second.StockQuantity)
	}
}

func TestService_GetProduct_NotFound(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.GetProduct(context.Background(), "ghost")
	if !errors.Is(err, entity.ErrProductNotFound) {
		t.Fatalf("GetProduct() error = %v, want ErrProductNotFound", err)
	}
}

func TestService_GetOrder_Unknown(t *testing.T) {
	service, _ := newTestService(t)

	order, lines, err := service.GetOrder(context.Background(), "no-such-order")
	if err != nil {
		t.Fatalf("GetOrder() failed: %v", err)
	}
	if order != nil || lines != nil {
		t.Errorf("GetOrder() = (%v, %v), want (nil, nil)", order, lines)
	}
}

func TestService_StartAndHealth(t *testing.T) {
	service, _ := newTestService(t)

	if service.IsReady() {
		t.Error("service ready before Start")
	}
	if !service.IsHealthy() {
		t.Error("service unhealthy before first operation")
	}

	if err := service.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !service.IsReady() {
		t.Error("service not ready after Start")
	}
}

func TestService_PlaceOrder_RecoversHealthAfterSuccess(t *testing.T) {
	service, deps := newTestService(t)
	seedProduct(t, deps.store, "prod-1", "207", 10)

	deps.store.FailInsertOrder = errors.New("disk full")
	if _, err := service.PlaceOrder(context.Background(), placeRequest("prod-1", 1)); err == nil {
		t.Fatal("PlaceOrder() succeeded, want failure")
	}
	if service.IsHealthy() {
		t.Fatal("service healthy after storage failure")
	}

	deps.store.FailInsertOrder = nil
	if _, err := service.PlaceOrder(context.Background(), placeRequest("prod-1", 1)); err != nil {
		t.Fatalf("PlaceOrder() failed: %v", err)
	}
	if !service.IsHealthy() {
		t.Error("service not healthy after successful placement")
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, StatusSuccess},
		{"insufficient stock", entity.ErrInsufficientStock, StatusInsufficientStock},
		{"not found", entity.ErrProductNotFound, StatusProductNotFound},
		{"missing price", entity.ErrMissingPrice, StatusMissingPrice},
		{"invalid request", errInvalidRequest, StatusInvalidRequest},
		{"storage", entity.NewStorageError("test", errors.New("boom")), StatusStorageFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.want {
				t.Errorf("statusForError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestService_PlaceOrder_DeterministicIDs(t *testing.T) {
	service, deps := newTestService(t)
	seedProduct(t, deps.store, "prod-1", "207", 10)

	service.newID = func() string { return "order-fixed" }

	order, err := service.PlaceOrder(context.Background(), placeRequest("prod-1", 1))
	if err != nil {
		t.Fatalf("PlaceOrder() failed: %v", err)
	}
	if order.ID != "order-fixed" {
		t.Errorf("order ID = %q, want %q", order.ID, "order-fixed")
	}

	// A second placement reusing the same ID must fail as a storage error
	// and roll back.
	_, err = service.PlaceOrder(context.Background(), placeRequest("prod-1", 1))
	var storageErr *entity.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("PlaceOrder() error = %v, want StorageError", err)
	}

	product, err := deps.store.GetByID(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if product.StockQuantity != 9 {
		t.Errorf("stock = %d, want 9", product.StockQuantity)
	}
}
