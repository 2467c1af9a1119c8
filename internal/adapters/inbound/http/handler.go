// handler.go provides HTTP REST API handlers for the order service.
//
// This inbound adapter exposes the service functionality over HTTP:
//   - POST /orders: Place an order
//   - GET /orders/{id}: Read a placed order with its lines
//   - GET /products/{id}: Read catalog data for a product
//   - GET /health: Health check endpoint for liveness/readiness probes
//
// Placement failures map onto HTTP status codes:
//   - insufficient stock -> 409 Conflict
//   - product not found  -> 404 Not Found
//   - missing price      -> 422 Unprocessable Entity
//   - invalid request    -> 400 Bad Request
//   - storage failure    -> 500 Internal Server Error
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/freshmart/orderflow/internal/domain/entity"
	"github.com/freshmart/orderflow/internal/ports/inbound"
	"github.com/freshmart/orderflow/internal/services/orders"
)

// HandlerConfig holds configuration for the API handler.
type HandlerConfig struct {
	// RateLimit is the sustained request rate per second across all
	// clients. Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the burst allowance on top of RateLimit.
	RateBurst int

	// Logger for request handling.
	Logger *slog.Logger
}

// HandlerConfigDefaults returns a config with default values.
func HandlerConfigDefaults() HandlerConfig {
	return HandlerConfig{
		RateLimit: 100,
		RateBurst: 50,
		Logger:    slog.Default(),
	}
}

// Handler implements HTTP handlers for the API.
type Handler struct {
	service inbound.OrderService
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler with the given service.
func NewHandler(service inbound.OrderService, config HandlerConfig) *Handler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	return &Handler{
		service: service,
		limiter: limiter,
		logger:  config.Logger.With("component", "http-handler"),
	}
}

// RegisterRoutes registers the HTTP routes with the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST /orders", h.withRateLimit(http.HandlerFunc(h.PlaceOrder)))
	mux.Handle("GET /orders/{id}", h.withRateLimit(http.HandlerFunc(h.GetOrder)))
	mux.Handle("GET /products/{id}", h.withRateLimit(http.HandlerFunc(h.GetProduct)))
	mux.HandleFunc("GET /health", h.Health)
}

// withRateLimit rejects requests above the configured rate with 429.
func (h *Handler) withRateLimit(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			h.respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// placeOrderRequest is the JSON body of POST /orders. Money fields are
// decimal strings; both are optional and default to zero.
type placeOrderRequest struct {
	CustomerID  string `json:"customerId"`
	ProductID   string `json:"productId"`
	Quantity    int    `json:"quantity"`
	Discount    string `json:"discount,omitempty"`
	DeliveryFee string `json:"deliveryFee,omitempty"`
}

type orderResponse struct {
	OrderID         string              `json:"orderId"`
	CustomerID      string              `json:"customerId"`
	OrderDate       time.Time           `json:"orderDate"`
	TotalAmount     string              `json:"totalAmount"`
	DeliveryFee     string              `json:"deliveryFee"`
	DiscountApplied string              `json:"discountApplied"`
	Lines           []orderLineResponse `json:"lines,omitempty"`
}

type orderLineResponse struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Discount  string `json:"discount"`
}

type productResponse struct {
	ProductID     string  `json:"productId"`
	Name          string  `json:"name"`
	Price         *string `json:"price"`
	StockQuantity int     `json:"stockQuantity"`
}

// PlaceOrder handles POST /orders.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var body placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req := inbound.PlaceOrderRequest{
		CustomerID: body.CustomerID,
		ProductID:  body.ProductID,
		Quantity:   body.Quantity,
	}

	var err error
	if req.Discount, err = parseMoney(body.Discount); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid discount")
		return
	}
	if req.DeliveryFee, err = parseMoney(body.DeliveryFee); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid delivery fee")
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), req)
	if err != nil {
		h.respondPlacementError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toOrderResponse(order, nil))
}

// GetOrder handles GET /orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	order, lines, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		h.respondPlacementError(w, r, err)
		return
	}
	if order == nil {
		h.respondError(w, http.StatusNotFound, "order not found")
		return
	}

	h.respondJSON(w, http.StatusOK, toOrderResponse(order, lines))
}

// GetProduct handles GET /products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")

	product, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		h.respondPlacementError(w, r, err)
		return
	}

	resp := productResponse{
		ProductID:     product.ID,
		Name:          product.Name,
		StockQuantity: product.StockQuantity,
	}
	if product.Price.Valid {
		s := product.Price.Decimal.String()
		resp.Price = &s
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// Health handles the health check endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "service unhealthy")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondPlacementError maps service errors onto HTTP status codes.
func (h *Handler) respondPlacementError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entity.ErrInsufficientStock):
		h.respondError(w, http.StatusConflict, "insufficient stock")
	case errors.Is(err, entity.ErrProductNotFound):
		h.respondError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, entity.ErrMissingPrice):
		h.respondError(w, http.StatusUnprocessableEntity, "product has no price")
	case orders.IsInvalidRequest(err):
		h.respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		h.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func toOrderResponse(order *entity.Order, lines []*entity.OrderLine) orderResponse {
	resp := orderResponse{
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		OrderDate:       order.OrderDate,
		TotalAmount:     order.TotalAmount.String(),
		DeliveryFee:     order.DeliveryFee.String(),
		DiscountApplied: order.DiscountApplied.String(),
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, orderLineResponse{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.String(),
			Discount:  l.Discount.String(),
		})
	}
	return resp
}

func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, nil
	}
	return decimal.NewFromString(s)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
