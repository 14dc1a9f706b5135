package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/services"
)

type stubVoucherService struct {
	validateFunc func(ctx context.Context, cmd services.ValidateVoucherCommand) (services.VoucherValidation, error)
	redeemFunc   func(ctx context.Context, voucherID string) (domain.Voucher, error)
	createFunc   func(ctx context.Context, cmd services.UpsertVoucherCommand) (domain.Voucher, error)
	updateFunc   func(ctx context.Context, voucherID string, cmd services.UpsertVoucherCommand) (domain.Voucher, error)
	deleteFunc   func(ctx context.Context, voucherID string) error
	getFunc      func(ctx context.Context, voucherID string) (domain.Voucher, error)
	listFunc     func(ctx context.Context, filter services.VoucherListQuery) (domain.CursorPage[domain.Voucher], error)
}

func (s *stubVoucherService) Validate(ctx context.Context, cmd services.ValidateVoucherCommand) (services.VoucherValidation, error) {
	if s.validateFunc != nil {
		return s.validateFunc(ctx, cmd)
	}
	return services.VoucherValidation{}, services.ErrVoucherNotFound
}

func (s *stubVoucherService) Redeem(ctx context.Context, voucherID string) (domain.Voucher, error) {
	if s.redeemFunc != nil {
		return s.redeemFunc(ctx, voucherID)
	}
	return domain.Voucher{}, nil
}

func (s *stubVoucherService) Create(ctx context.Context, cmd services.UpsertVoucherCommand) (domain.Voucher, error) {
	if s.createFunc != nil {
		return s.createFunc(ctx, cmd)
	}
	return domain.Voucher{}, nil
}

func (s *stubVoucherService) Update(ctx context.Context, voucherID string, cmd services.UpsertVoucherCommand) (domain.Voucher, error) {
	if s.updateFunc != nil {
		return s.updateFunc(ctx, voucherID, cmd)
	}
	return domain.Voucher{}, services.ErrVoucherNotFound
}

func (s *stubVoucherService) Delete(ctx context.Context, voucherID string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, voucherID)
	}
	return nil
}

func (s *stubVoucherService) Get(ctx context.Context, voucherID string) (domain.Voucher, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, voucherID)
	}
	return domain.Voucher{}, services.ErrVoucherNotFound
}

func (s *stubVoucherService) List(ctx context.Context, filter services.VoucherListQuery) (domain.CursorPage[domain.Voucher], error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, filter)
	}
	return domain.CursorPage[domain.Voucher]{}, nil
}

var _ services.VoucherService = (*stubVoucherService)(nil)

func TestVoucherHandlersPreview(t *testing.T) {
	service := &stubVoucherService{
		validateFunc: func(ctx context.Context, cmd services.ValidateVoucherCommand) (services.VoucherValidation, error) {
			if cmd.Code != "SUMMER10" || cmd.Subtotal != 2500000 {
				t.Fatalf("unexpected command %#v", cmd)
			}
			return services.VoucherValidation{
				Voucher: domain.Voucher{
					ID:            "vch-1",
					Code:          "SUMMER10",
					Kind:          domain.VoucherKindPercentage,
					Value:         10,
					MinOrderValue: 1000000,
					Quantity:      5,
					UsedCount:     1,
					Status:        domain.VoucherStatusActive,
					EndsAt:        time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
				},
				Discount: 250000,
			}, nil
		},
	}

	router := chi.NewRouter()
	router.Route("/vouchers", NewVoucherHandlers(service).PublicRoutes)

	req := httptest.NewRequest(http.MethodGet, "/vouchers/SUMMER10?subtotal=2500000", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp voucherPreviewResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Discount != 250000 {
		t.Fatalf("expected discount 250000, got %d", resp.Discount)
	}
	if resp.Remaining != 4 {
		t.Fatalf("expected remaining 4, got %d", resp.Remaining)
	}
}

func TestVoucherHandlersPreviewUnknownCode(t *testing.T) {
	router := chi.NewRouter()
	router.Route("/vouchers", NewVoucherHandlers(&stubVoucherService{}).PublicRoutes)

	req := httptest.NewRequest(http.MethodGet, "/vouchers/NOPE", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}

	var errBody map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if errBody["error"] != "voucher_not_found" {
		t.Fatalf("expected voucher_not_found, got %v", errBody["error"])
	}
}

func TestVoucherHandlersPreviewBelowMinimum(t *testing.T) {
	service := &stubVoucherService{
		validateFunc: func(ctx context.Context, cmd services.ValidateVoucherCommand) (services.VoucherValidation, error) {
			return services.VoucherValidation{}, services.ErrVoucherBelowMinimum
		},
	}

	router := chi.NewRouter()
	router.Route("/vouchers", NewVoucherHandlers(service).PublicRoutes)

	req := httptest.NewRequest(http.MethodGet, "/vouchers/SUMMER10?subtotal=500", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rr.Code)
	}
}

func TestVoucherHandlersPreviewRejectsBadSubtotal(t *testing.T) {
	router := chi.NewRouter()
	router.Route("/vouchers", NewVoucherHandlers(&stubVoucherService{}).PublicRoutes)

	req := httptest.NewRequest(http.MethodGet, "/vouchers/SUMMER10?subtotal=lots", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestVoucherHandlersCreate(t *testing.T) {
	service := &stubVoucherService{
		createFunc: func(ctx context.Context, cmd services.UpsertVoucherCommand) (domain.Voucher, error) {
			if cmd.Code != "WELCOME5" || cmd.Kind != "fixed" || cmd.Value != 50000 {
				t.Fatalf("unexpected command %#v", cmd)
			}
			return domain.Voucher{ID: "vch-2", Code: "WELCOME5", Kind: domain.VoucherKindFixed, Value: 50000, Quantity: cmd.Quantity}, nil
		},
	}

	router := chi.NewRouter()
	router.Route("/admin/vouchers", NewVoucherHandlers(service).AdminRoutes)

	body := strings.NewReader(`{"code":"WELCOME5","kind":"fixed","value":50000,"quantity":100,"starts_at":"2025-01-01T00:00:00Z"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/vouchers", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	var resp voucherPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != "WELCOME5" || resp.Remaining != 100 {
		t.Fatalf("unexpected payload %#v", resp)
	}
}

func TestVoucherHandlersCreateDuplicate(t *testing.T) {
	service := &stubVoucherService{
		createFunc: func(ctx context.Context, cmd services.UpsertVoucherCommand) (domain.Voucher, error) {
			return domain.Voucher{}, services.ErrConflict
		},
	}

	router := chi.NewRouter()
	router.Route("/admin/vouchers", NewVoucherHandlers(service).AdminRoutes)

	body := strings.NewReader(`{"code":"WELCOME5","kind":"fixed","value":50000,"quantity":100,"starts_at":"2025-01-01T00:00:00Z"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/vouchers", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}
