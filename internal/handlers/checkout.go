package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kidiezyllex/street-sneaker-sub000/internal/platform/httpx"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/services"
)

const maxCheckoutBodySize = 8 * 1024

// CheckoutHandlers settles register carts into orders.
type CheckoutHandlers struct {
	checkout services.CheckoutService
}

// NewCheckoutHandlers constructs checkout handlers.
func NewCheckoutHandlers(checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout}
}

// Routes registers the checkout endpoint under /pos/carts/{sessionID}.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/{sessionID}/checkout", h.checkoutCart)
}

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method"`
	CashTendered  int64  `json:"cash_tendered"`
}

func (h *CheckoutHandlers) checkoutCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "session id is required", http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, maxCheckoutBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return
	}

	var req checkoutRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	order, err := h.checkout.Checkout(ctx, services.CheckoutCommand{
		SessionID:     sessionID,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		CashTendered:  req.CashTendered,
	})
	if errors.Is(err, services.ErrReceiptPublishFailed) {
		// Order settled but the receipt never reached the sink. Return the
		// order so the register can reprint, flagged with a warning status.
		writeJSONResponse(w, http.StatusCreated, orderResponse{
			Order:   buildOrderPayload(order),
			Warning: "receipt_publish_failed",
		})
		return
	}
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart has no items to settle", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrCheckoutInsufficientPayment):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_payment", "tendered amount below order total", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrCartNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_not_found", "cart not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartCapacityExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", "stock changed during checkout; refresh the cart", http.StatusConflict))
	case errors.Is(err, services.ErrVoucherExhausted):
		httpx.WriteError(ctx, w, httpx.NewError("voucher_exhausted", "voucher has no redemptions left", http.StatusConflict))
	case errors.Is(err, services.ErrVoucherExpired):
		httpx.WriteError(ctx, w, httpx.NewError("voucher_expired", "voucher is not currently redeemable", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to process checkout", http.StatusInternalServerError))
	}
}
