package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/services"
)

type stubOrderService struct {
	listFunc func(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[domain.Order], error)
	getFunc  func(ctx context.Context, orderID string) (domain.Order, error)
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, filter)
	}
	return domain.CursorPage[domain.Order]{}, nil
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, orderID)
	}
	return domain.Order{}, services.ErrOrderNotFound
}

var _ services.OrderService = (*stubOrderService)(nil)

func newOrderRouter(service services.OrderService) chi.Router {
	router := chi.NewRouter()
	router.Route("/orders", NewOrderHandlers(service).Routes)
	return router
}

func TestOrderHandlersListParsesFilters(t *testing.T) {
	var captured services.OrderListFilter
	service := &stubOrderService{
		listFunc: func(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[domain.Order], error) {
			captured = filter
			return domain.CursorPage[domain.Order]{
				Items: []domain.Order{
					{ID: "ord-1", Number: "SO-000001", Total: 2500000, PaymentMethod: domain.PaymentMethodCash, CreatedAt: time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)},
				},
				NextPageToken: "tok-2",
			}, nil
		},
	}

	router := newOrderRouter(service)
	req := httptest.NewRequest(http.MethodGet, "/orders?session_id=till-1&payment_method=cash&created_after=2025-03-01T00:00:00Z&page_size=5&page_token=tok-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.SessionID != "till-1" {
		t.Fatalf("expected session filter till-1, got %q", captured.SessionID)
	}
	if captured.PaymentMethod == nil || *captured.PaymentMethod != "cash" {
		t.Fatalf("expected payment method filter cash, got %v", captured.PaymentMethod)
	}
	if captured.DateRange.From == nil || !captured.DateRange.From.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected parsed created_after, got %v", captured.DateRange.From)
	}
	if captured.Pagination.PageSize != 5 || captured.Pagination.PageToken != "tok-1" {
		t.Fatalf("unexpected pagination %#v", captured.Pagination)
	}

	var resp orderListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Number != "SO-000001" {
		t.Fatalf("unexpected items %#v", resp.Items)
	}
	if resp.NextPageToken != "tok-2" {
		t.Fatalf("expected next page token tok-2, got %q", resp.NextPageToken)
	}
}

func TestOrderHandlersListRejectsBadTimestamp(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})
	req := httptest.NewRequest(http.MethodGet, "/orders?created_after=yesterday", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderHandlersGetOrder(t *testing.T) {
	service := &stubOrderService{
		getFunc: func(ctx context.Context, orderID string) (domain.Order, error) {
			if orderID != "ord-1" {
				t.Fatalf("unexpected order id %q", orderID)
			}
			return domain.Order{
				ID:            "ord-1",
				Number:        "SO-000042",
				SessionID:     "till-1",
				Subtotal:      2500000,
				Discount:      250000,
				VoucherCode:   "SUMMER10",
				Total:         2250000,
				PaymentMethod: domain.PaymentMethodTransfer,
				CreatedAt:     time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
			}, nil
		},
	}

	router := newOrderRouter(service)
	req := httptest.NewRequest(http.MethodGet, "/orders/ord-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp orderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Order.VoucherCode != "SUMMER10" || resp.Order.Total != 2250000 {
		t.Fatalf("unexpected order payload %#v", resp.Order)
	}
}

func TestOrderHandlersGetOrderNotFound(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})
	req := httptest.NewRequest(http.MethodGet, "/orders/missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}

	var errBody map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if errBody["error"] != "order_not_found" {
		t.Fatalf("expected order_not_found, got %v", errBody["error"])
	}
}
