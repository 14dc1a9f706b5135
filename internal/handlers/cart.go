package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kidiezyllex/street-sneaker-sub000/internal/platform/httpx"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/services"
)

const maxCartBodySize = 16 * 1024

// CartHandlers exposes the register cart surface. Every route is keyed by the
// terminal session identifier; the first read lazily creates the cart.
type CartHandlers struct {
	carts services.CartService
}

// NewCartHandlers constructs cart handlers.
func NewCartHandlers(carts services.CartService) *CartHandlers {
	return &CartHandlers{carts: carts}
}

// Routes registers the /pos/carts/{sessionID} endpoints.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.clearCart)
		r.Post("/items", h.addItem)
		r.Patch("/items/{itemID}", h.adjustItem)
		r.Delete("/items/{itemID}", h.removeItem)
		r.Post("/voucher", h.applyVoucher)
		r.Delete("/voucher", h.removeVoucher)
	})
}

type cartResponse struct {
	Cart    cartPayload         `json:"cart"`
	Notices []cartNoticePayload `json:"notices,omitempty"`
}

type cartPayload struct {
	ID         string              `json:"id"`
	ItemsCount int                 `json:"items_count"`
	Items      []cartItemPayload   `json:"items"`
	Voucher    *cartVoucherPayload `json:"voucher,omitempty"`
	Subtotal   int64               `json:"subtotal"`
	Discount   int64               `json:"discount"`
	Total      int64               `json:"total"`
	UpdatedAt  string              `json:"updated_at,omitempty"`
}

type cartItemPayload struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	SKU           string `json:"sku"`
	Name          string `json:"name,omitempty"`
	Color         string `json:"color,omitempty"`
	Size          string `json:"size,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	Quantity      int    `json:"quantity"`
	UnitPrice     int64  `json:"unit_price"`
	OriginalPrice int64  `json:"original_price"`
	PromotionID   string `json:"promotion_id,omitempty"`
	LineTotal     int64  `json:"line_total"`
	AddedAt       string `json:"added_at,omitempty"`
}

type cartVoucherPayload struct {
	VoucherID string `json:"voucher_id"`
	Code      string `json:"code"`
	Kind      string `json:"kind"`
	Value     int64  `json:"value"`
	Discount  int64  `json:"discount"`
}

type cartNoticePayload struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
}

type adjustCartItemRequest struct {
	Delta int `json:"delta"`
}

type applyVoucherRequest struct {
	Code string `json:"code"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "session id is required", http.StatusBadRequest))
		return
	}

	cart, err := h.carts.GetOrCreateCart(ctx, sessionID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	setCartResponseHeaders(w, cart)
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "session id is required", http.StatusBadRequest))
		return
	}

	if err := h.carts.ClearCart(ctx, sessionID); err != nil {
		writeCartError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "session id is required", http.StatusBadRequest))
		return
	}

	var req addCartItemRequest
	if !decodeCartBody(w, r, &req) {
		return
	}

	result, err := h.carts.AddItem(ctx, services.AddCartItemCommand{
		SessionID: sessionID,
		ProductID: strings.TrimSpace(req.ProductID),
		SKU:       strings.TrimSpace(req.SKU),
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeCartMutation(w, result)
}

func (h *CartHandlers) adjustItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	if sessionID == "" || itemID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "session id and item id are required", http.StatusBadRequest))
		return
	}

	var req adjustCartItemRequest
	if !decodeCartBody(w, r, &req) {
		return
	}

	result, err := h.carts.AdjustQuantity(ctx, services.AdjustCartItemCommand{
		SessionID: sessionID,
		ItemID:    itemID,
		Delta:     req.Delta,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeCartMutation(w, result)
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	if sessionID == "" || itemID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "session id and item id are required", http.StatusBadRequest))
		return
	}

	result, err := h.carts.RemoveItem(ctx, services.RemoveCartItemCommand{
		SessionID: sessionID,
		ItemID:    itemID,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeCartMutation(w, result)
}

func (h *CartHandlers) applyVoucher(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "session id is required", http.StatusBadRequest))
		return
	}

	var req applyVoucherRequest
	if !decodeCartBody(w, r, &req) {
		return
	}

	result, err := h.carts.ApplyVoucher(ctx, services.ApplyVoucherCommand{
		SessionID: sessionID,
		Code:      strings.TrimSpace(req.Code),
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeCartMutation(w, result)
}

func (h *CartHandlers) removeVoucher(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "session id is required", http.StatusBadRequest))
		return
	}

	result, err := h.carts.RemoveVoucher(ctx, sessionID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeCartMutation(w, result)
}

func decodeCartBody(w http.ResponseWriter, r *http.Request, out any) bool {
	ctx := r.Context()
	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}

func writeCartMutation(w http.ResponseWriter, result services.CartMutationResult) {
	setCartResponseHeaders(w, result.Cart)
	writeJSONResponse(w, http.StatusOK, cartResponse{
		Cart:    buildCartPayload(result.Cart),
		Notices: buildCartNotices(result.Notices),
	})
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_not_found", "cart not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_item_not_found", "cart item not found", http.StatusNotFound))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartCapacityExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", "requested quantity exceeds available stock", http.StatusConflict))
	case errors.Is(err, services.ErrVoucherNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("voucher_not_found", "voucher not found", http.StatusNotFound))
	case errors.Is(err, services.ErrVoucherBelowMinimum):
		httpx.WriteError(ctx, w, httpx.NewError("voucher_below_minimum", "order subtotal below voucher minimum", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrVoucherExhausted):
		httpx.WriteError(ctx, w, httpx.NewError("voucher_exhausted", "voucher has no redemptions left", http.StatusConflict))
	case errors.Is(err, services.ErrVoucherExpired):
		httpx.WriteError(ctx, w, httpx.NewError("voucher_expired", "voucher is not currently redeemable", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrConflict):
		httpx.WriteError(ctx, w, httpx.NewError("cart_conflict", "cart has been modified; refresh and retry", http.StatusConflict))
	case errors.Is(err, services.ErrUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "failed to process cart request", http.StatusInternalServerError))
	}
}

func setCartResponseHeaders(w http.ResponseWriter, cart services.Cart) {
	w.Header().Set("Cache-Control", "no-store, no-cache, max-age=0, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	if !cart.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", cart.UpdatedAt.UTC().Format(http.TimeFormat))
	}
	if etag := buildCartETag(cart); etag != "" {
		w.Header().Set("ETag", etag)
	}
}

func buildCartETag(cart services.Cart) string {
	if strings.TrimSpace(cart.ID) == "" || cart.UpdatedAt.IsZero() {
		return ""
	}
	input := fmt.Sprintf("%s:%d", strings.TrimSpace(cart.ID), cart.UpdatedAt.UTC().UnixNano())
	sum := sha256.Sum256([]byte(input))
	return fmt.Sprintf(`W/"%s"`, hex.EncodeToString(sum[:8]))
}

func buildCartPayload(cart services.Cart) cartPayload {
	payload := cartPayload{
		ID:         strings.TrimSpace(cart.ID),
		ItemsCount: len(cart.Items),
		Items:      buildCartItems(cart.Items),
		Subtotal:   cart.Subtotal(),
		Discount:   cart.Discount,
		Total:      cart.Total(),
	}
	if cart.Voucher != nil {
		payload.Voucher = &cartVoucherPayload{
			VoucherID: cart.Voucher.VoucherID,
			Code:      cart.Voucher.Code,
			Kind:      string(cart.Voucher.Kind),
			Value:     cart.Voucher.Value,
			Discount:  cart.Voucher.Discount,
		}
	}
	if !cart.UpdatedAt.IsZero() {
		payload.UpdatedAt = formatTime(cart.UpdatedAt)
	}
	return payload
}

func buildCartItems(items []services.CartItem) []cartItemPayload {
	if len(items) == 0 {
		return []cartItemPayload{}
	}
	payload := make([]cartItemPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, cartItemPayload{
			ID:            strings.TrimSpace(item.ID),
			ProductID:     strings.TrimSpace(item.ProductID),
			SKU:           strings.TrimSpace(item.SKU),
			Name:          item.Name,
			Color:         item.Color,
			Size:          item.Size,
			ImageURL:      item.ImageURL,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			OriginalPrice: item.OriginalPrice,
			PromotionID:   item.PromotionID,
			LineTotal:     item.UnitPrice * int64(item.Quantity),
			AddedAt:       formatTime(item.AddedAt),
		})
	}
	return payload
}

func buildCartNotices(notices []services.CartNotice) []cartNoticePayload {
	if len(notices) == 0 {
		return nil
	}
	payload := make([]cartNoticePayload, 0, len(notices))
	for _, notice := range notices {
		payload = append(payload, cartNoticePayload{
			Code:    notice.Code,
			Message: notice.Message,
		})
	}
	return payload
}
