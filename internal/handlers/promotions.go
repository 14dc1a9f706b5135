package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/platform/httpx"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/services"
)

const (
	maxPromotionBodySize     = 16 * 1024
	defaultPromotionPageSize = 20
	maxPromotionPageSize     = 100
)

// PromotionHandlers exposes the public active-promotion listing and the admin
// campaign lifecycle endpoints.
type PromotionHandlers struct {
	promotions services.PromotionService
}

// NewPromotionHandlers constructs promotion handlers.
func NewPromotionHandlers(promotions services.PromotionService) *PromotionHandlers {
	return &PromotionHandlers{promotions: promotions}
}

// PublicRoutes registers the storefront promotion endpoints.
func (h *PromotionHandlers) PublicRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/active", h.listActive)
}

// AdminRoutes registers the campaign management endpoints.
func (h *PromotionHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{promotionID}", h.get)
	r.Put("/{promotionID}", h.update)
	r.Delete("/{promotionID}", h.delete)
}

type promotionPayload struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	DiscountPercent int      `json:"discount_percent"`
	Status          string   `json:"status"`
	StartsAt        string   `json:"starts_at"`
	EndsAt          string   `json:"ends_at,omitempty"`
	ProductIDs      []string `json:"product_ids,omitempty"`
	CreatedAt       string   `json:"created_at,omitempty"`
	UpdatedAt       string   `json:"updated_at,omitempty"`
}

type promotionListResponse struct {
	Items         []promotionPayload `json:"items"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

type upsertPromotionRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	DiscountPercent int      `json:"discount_percent"`
	Status          string   `json:"status"`
	StartsAt        string   `json:"starts_at"`
	EndsAt          string   `json:"ends_at"`
	ProductIDs      []string `json:"product_ids"`
}

func (h *PromotionHandlers) listActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.promotions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("promotion_service_unavailable", "promotion service unavailable", http.StatusServiceUnavailable))
		return
	}

	promotions, err := h.promotions.ListActive(ctx)
	if err != nil {
		writePromotionError(ctx, w, err)
		return
	}

	items := make([]promotionPayload, 0, len(promotions))
	for _, promotion := range promotions {
		items = append(items, buildPromotionPayload(promotion))
	}
	writeJSONResponse(w, http.StatusOK, promotionListResponse{Items: items})
}

func (h *PromotionHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.promotions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("promotion_service_unavailable", "promotion service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	pageSize, err := parsePageSize(query.Get("page_size"), defaultPromotionPageSize, maxPromotionPageSize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.promotions.List(ctx, services.PromotionListQuery{
		Status: parseFilterValues(query["status"]),
		Pagination: services.Pagination{
			PageSize:  pageSize,
			PageToken: strings.TrimSpace(query.Get("page_token")),
		},
	})
	if err != nil {
		writePromotionError(ctx, w, err)
		return
	}

	items := make([]promotionPayload, 0, len(page.Items))
	for _, promotion := range page.Items {
		items = append(items, buildPromotionPayload(promotion))
	}
	writeJSONResponse(w, http.StatusOK, promotionListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *PromotionHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.promotions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("promotion_service_unavailable", "promotion service unavailable", http.StatusServiceUnavailable))
		return
	}

	cmd, ok := h.decodeUpsert(w, r)
	if !ok {
		return
	}

	promotion, err := h.promotions.Create(ctx, cmd)
	if err != nil {
		writePromotionError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildPromotionPayload(promotion))
}

func (h *PromotionHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.promotions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("promotion_service_unavailable", "promotion service unavailable", http.StatusServiceUnavailable))
		return
	}

	promotionID := strings.TrimSpace(chi.URLParam(r, "promotionID"))
	if promotionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "promotion id is required", http.StatusBadRequest))
		return
	}

	promotion, err := h.promotions.Get(ctx, promotionID)
	if err != nil {
		writePromotionError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildPromotionPayload(promotion))
}

func (h *PromotionHandlers) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.promotions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("promotion_service_unavailable", "promotion service unavailable", http.StatusServiceUnavailable))
		return
	}

	promotionID := strings.TrimSpace(chi.URLParam(r, "promotionID"))
	if promotionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "promotion id is required", http.StatusBadRequest))
		return
	}

	cmd, ok := h.decodeUpsert(w, r)
	if !ok {
		return
	}

	promotion, err := h.promotions.Update(ctx, promotionID, cmd)
	if err != nil {
		writePromotionError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildPromotionPayload(promotion))
}

func (h *PromotionHandlers) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.promotions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("promotion_service_unavailable", "promotion service unavailable", http.StatusServiceUnavailable))
		return
	}

	promotionID := strings.TrimSpace(chi.URLParam(r, "promotionID"))
	if promotionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "promotion id is required", http.StatusBadRequest))
		return
	}

	if err := h.promotions.Delete(ctx, promotionID); err != nil {
		writePromotionError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PromotionHandlers) decodeUpsert(w http.ResponseWriter, r *http.Request) (services.UpsertPromotionCommand, bool) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxPromotionBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return services.UpsertPromotionCommand{}, false
	}

	var req upsertPromotionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return services.UpsertPromotionCommand{}, false
	}

	cmd := services.UpsertPromotionCommand{
		Name:            req.Name,
		Description:     req.Description,
		DiscountPercent: req.DiscountPercent,
		Status:          strings.TrimSpace(req.Status),
		ProductIDs:      req.ProductIDs,
	}

	if raw := strings.TrimSpace(req.StartsAt); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "starts_at must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return services.UpsertPromotionCommand{}, false
		}
		cmd.StartsAt = ts
	}
	if raw := strings.TrimSpace(req.EndsAt); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "ends_at must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return services.UpsertPromotionCommand{}, false
		}
		cmd.EndsAt = ts
	}

	return cmd, true
}

func buildPromotionPayload(promotion domain.Promotion) promotionPayload {
	return promotionPayload{
		ID:              strings.TrimSpace(promotion.ID),
		Name:            promotion.Name,
		Description:     promotion.Description,
		DiscountPercent: promotion.DiscountPercent,
		Status:          string(promotion.Status),
		StartsAt:        formatTime(promotion.StartsAt),
		EndsAt:          formatTime(promotion.EndsAt),
		ProductIDs:      promotion.ProductIDs,
		CreatedAt:       formatTime(promotion.CreatedAt),
		UpdatedAt:       formatTime(promotion.UpdatedAt),
	}
}

func writePromotionError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPromotionInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPromotionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("promotion_not_found", "promotion not found", http.StatusNotFound))
	case errors.Is(err, services.ErrConflict):
		httpx.WriteError(ctx, w, httpx.NewError("promotion_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("promotion_service_unavailable", "promotion service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("promotion_error", "failed to process promotion request", http.StatusInternalServerError))
	}
}
