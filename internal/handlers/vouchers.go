package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/platform/httpx"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/services"
)

const (
	maxVoucherBodySize     = 16 * 1024
	defaultVoucherPageSize = 20
	maxVoucherPageSize     = 100
)

// VoucherHandlers exposes the public voucher preview and the admin voucher
// lifecycle endpoints. The preview never consumes a redemption.
type VoucherHandlers struct {
	vouchers services.VoucherService
}

// NewVoucherHandlers constructs voucher handlers.
func NewVoucherHandlers(vouchers services.VoucherService) *VoucherHandlers {
	return &VoucherHandlers{vouchers: vouchers}
}

// PublicRoutes registers the storefront voucher preview endpoint.
func (h *VoucherHandlers) PublicRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/{code}", h.preview)
}

// AdminRoutes registers the voucher management endpoints.
func (h *VoucherHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{voucherID}", h.get)
	r.Put("/{voucherID}", h.update)
	r.Delete("/{voucherID}", h.delete)
}

type voucherPayload struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name,omitempty"`
	Kind          string `json:"kind"`
	Value         int64  `json:"value"`
	MaxDiscount   *int64 `json:"max_discount,omitempty"`
	MinOrderValue int64  `json:"min_order_value"`
	Quantity      int    `json:"quantity"`
	UsedCount     int    `json:"used_count"`
	Remaining     int    `json:"remaining"`
	Status        string `json:"status"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

type voucherListResponse struct {
	Items         []voucherPayload `json:"items"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

type voucherPreviewResponse struct {
	Code          string `json:"code"`
	Kind          string `json:"kind"`
	Value         int64  `json:"value"`
	MaxDiscount   *int64 `json:"max_discount,omitempty"`
	MinOrderValue int64  `json:"min_order_value"`
	Remaining     int    `json:"remaining"`
	Discount      int64  `json:"discount,omitempty"`
	EndsAt        string `json:"ends_at,omitempty"`
}

type upsertVoucherRequest struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	Value         int64  `json:"value"`
	MaxDiscount   *int64 `json:"max_discount"`
	MinOrderValue int64  `json:"min_order_value"`
	Quantity      int    `json:"quantity"`
	Status        string `json:"status"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at"`
}

func (h *VoucherHandlers) preview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.vouchers == nil {
		httpx.WriteError(ctx, w, httpx.NewError("voucher_service_unavailable", "voucher service unavailable", http.StatusServiceUnavailable))
		return
	}

	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "voucher code is required", http.StatusBadRequest))
		return
	}

	var subtotal int64
	if raw := strings.TrimSpace(r.URL.Query().Get("subtotal")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "subtotal must be a non-negative integer", http.StatusBadRequest))
			return
		}
		subtotal = parsed
	}

	validation, err := h.vouchers.Validate(ctx, services.ValidateVoucherCommand{
		Code:     code,
		Subtotal: subtotal,
	})
	if err != nil {
		writeVoucherError(ctx, w, err)
		return
	}

	voucher := validation.Voucher
	writeJSONResponse(w, http.StatusOK, voucherPreviewResponse{
		Code:          voucher.Code,
		Kind:          string(voucher.Kind),
		Value:         voucher.Value,
		MaxDiscount:   voucher.MaxDiscount,
		MinOrderValue: voucher.MinOrderValue,
		Remaining:     voucher.Remaining(),
		Discount:      validation.Discount,
		EndsAt:        formatTime(voucher.EndsAt),
	})
}

func (h *VoucherHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.vouchers == nil {
		httpx.WriteError(ctx, w, httpx.NewError("voucher_service_unavailable", "voucher service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	pageSize, err := parsePageSize(query.Get("page_size"), defaultVoucherPageSize, maxVoucherPageSize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.vouchers.List(ctx, services.VoucherListQuery{
		Status: parseFilterValues(query["status"]),
		Pagination: services.Pagination{
			PageSize:  pageSize,
			PageToken: strings.TrimSpace(query.Get("page_token")),
		},
	})
	if err != nil {
		writeVoucherError(ctx, w, err)
		return
	}

	items := make([]voucherPayload, 0, len(page.Items))
	for _, voucher := range page.Items {
		items = append(items, buildVoucherPayload(voucher))
	}
	writeJSONResponse(w, http.StatusOK, voucherListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *VoucherHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.vouchers == nil {
		httpx.WriteError(ctx, w, httpx.NewError("voucher_service_unavailable", "voucher service unavailable", http.StatusServiceUnavailable))
		return
	}

	cmd, ok := h.decodeUpsert(w, r)
	if !ok {
		return
	}

	voucher, err := h.vouchers.Create(ctx, cmd)
	if err != nil {
		writeVoucherError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildVoucherPayload(voucher))
}

func (h *VoucherHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.vouchers == nil {
		httpx.WriteError(ctx, w, httpx.NewError("voucher_service_unavailable", "voucher service unavailable", http.StatusServiceUnavailable))
		return
	}

	voucherID := strings.TrimSpace(chi.URLParam(r, "voucherID"))
	if voucherID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "voucher id is required", http.StatusBadRequest))
		return
	}

	voucher, err := h.vouchers.Get(ctx, voucherID)
	if err != nil {
		writeVoucherError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildVoucherPayload(voucher))
}

func (h *VoucherHandlers) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.vouchers == nil {
		httpx.WriteError(ctx, w, httpx.NewError("voucher_service_unavailable", "voucher service unavailable", http.StatusServiceUnavailable))
		return
	}

	voucherID := strings.TrimSpace(chi.URLParam(r, "voucherID"))
	if voucherID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "voucher id is required", http.StatusBadRequest))
		return
	}

	cmd, ok := h.decodeUpsert(w, r)
	if !ok {
		return
	}

	voucher, err := h.vouchers.Update(ctx, voucherID, cmd)
	if err != nil {
		writeVoucherError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildVoucherPayload(voucher))
}

func (h *VoucherHandlers) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.vouchers == nil {
		httpx.WriteError(ctx, w, httpx.NewError("voucher_service_unavailable", "voucher service unavailable", http.StatusServiceUnavailable))
		return
	}

	voucherID := strings.TrimSpace(chi.URLParam(r, "voucherID"))
	if voucherID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "voucher id is required", http.StatusBadRequest))
		return
	}

	if err := h.vouchers.Delete(ctx, voucherID); err != nil {
		writeVoucherError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VoucherHandlers) decodeUpsert(w http.ResponseWriter, r *http.Request) (services.UpsertVoucherCommand, bool) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxVoucherBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return services.UpsertVoucherCommand{}, false
	}

	var req upsertVoucherRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return services.UpsertVoucherCommand{}, false
	}

	cmd := services.UpsertVoucherCommand{
		Code:          req.Code,
		Name:          req.Name,
		Kind:          strings.TrimSpace(req.Kind),
		Value:         req.Value,
		MaxDiscount:   req.MaxDiscount,
		MinOrderValue: req.MinOrderValue,
		Quantity:      req.Quantity,
		Status:        strings.TrimSpace(req.Status),
	}

	if raw := strings.TrimSpace(req.StartsAt); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "starts_at must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return services.UpsertVoucherCommand{}, false
		}
		cmd.StartsAt = ts
	}
	if raw := strings.TrimSpace(req.EndsAt); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "ends_at must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return services.UpsertVoucherCommand{}, false
		}
		cmd.EndsAt = ts
	}

	return cmd, true
}

func buildVoucherPayload(voucher domain.Voucher) voucherPayload {
	return voucherPayload{
		ID:            strings.TrimSpace(voucher.ID),
		Code:          voucher.Code,
		Name:          voucher.Name,
		Kind:          string(voucher.Kind),
		Value:         voucher.Value,
		MaxDiscount:   voucher.MaxDiscount,
		MinOrderValue: voucher.MinOrderValue,
		Quantity:      voucher.Quantity,
		UsedCount:     voucher.UsedCount,
		Remaining:     voucher.Remaining(),
		Status:        string(voucher.Status),
		StartsAt:      formatTime(voucher.StartsAt),
		EndsAt:        formatTime(voucher.EndsAt),
		CreatedAt:     formatTime(voucher.CreatedAt),
		UpdatedAt:     formatTime(voucher.UpdatedAt),
	}
}

func writeVoucherError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrVoucherInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrVoucherNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("voucher_not_found", "voucher not found", http.StatusNotFound))
	case errors.Is(err, services.ErrVoucherBelowMinimum):
		httpx.WriteError(ctx, w, httpx.NewError("voucher_below_minimum", "order subtotal below voucher minimum", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrVoucherExhausted):
		httpx.WriteError(ctx, w, httpx.NewError("voucher_exhausted", "voucher has no redemptions left", http.StatusConflict))
	case errors.Is(err, services.ErrVoucherExpired):
		httpx.WriteError(ctx, w, httpx.NewError("voucher_expired", "voucher is not currently redeemable", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrConflict):
		httpx.WriteError(ctx, w, httpx.NewError("voucher_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("voucher_service_unavailable", "voucher service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("voucher_error", "failed to process voucher request", http.StatusInternalServerError))
	}
}
