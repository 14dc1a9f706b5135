package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kidiezyllex/street-sneaker-sub000/internal/platform/httpx"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/services"
)

const maxCatalogPageSize = 100

// CatalogHandlers exposes the storefront product surface with
// promotion-resolved prices.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs catalog handlers.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes registers the /products endpoints.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listProducts)
	r.Get("/{productID}", h.getProduct)
}

type productListResponse struct {
	Items         []productPayload `json:"items"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

type productPayload struct {
	ID          string                  `json:"id"`
	Code        string                  `json:"code"`
	Name        string                  `json:"name"`
	Brand       string                  `json:"brand,omitempty"`
	Description string                  `json:"description,omitempty"`
	ImageURLs   []string                `json:"image_urls,omitempty"`
	Status      string                  `json:"status"`
	Variants    []productVariantPayload `json:"variants"`
	CreatedAt   string                  `json:"created_at,omitempty"`
	UpdatedAt   string                  `json:"updated_at,omitempty"`
}

type productVariantPayload struct {
	SKU             string `json:"sku"`
	Color           string `json:"color,omitempty"`
	Size            string `json:"size,omitempty"`
	Stock           int    `json:"stock"`
	Price           int64  `json:"price"`
	OriginalPrice   int64  `json:"original_price"`
	DiscountPercent int    `json:"discount_percent,omitempty"`
	PromotionID     string `json:"promotion_id,omitempty"`
	PromotionName   string `json:"promotion_name,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	pageSize, err := parsePageSize(query.Get("page_size"), 0, maxCatalogPageSize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	listQuery := services.ProductListQuery{
		Status: parseFilterValues(query["status"]),
		Brand:  strings.TrimSpace(query.Get("brand")),
		Search: strings.TrimSpace(query.Get("search")),
		Pagination: services.Pagination{
			PageSize:  pageSize,
			PageToken: strings.TrimSpace(query.Get("page_token")),
		},
	}

	page, err := h.catalog.ListProducts(ctx, listQuery)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]productPayload, 0, len(page.Items))
	for _, priced := range page.Items {
		items = append(items, buildProductPayload(priced))
	}

	writeJSONResponse(w, http.StatusOK, productListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	priced, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildProductPayload(priced))
}

func buildProductPayload(priced services.PricedProduct) productPayload {
	product := priced.Product
	payload := productPayload{
		ID:          strings.TrimSpace(product.ID),
		Code:        strings.TrimSpace(product.Code),
		Name:        strings.TrimSpace(product.Name),
		Brand:       strings.TrimSpace(product.Brand),
		Description: strings.TrimSpace(product.Description),
		ImageURLs:   product.ImageURLs,
		Status:      string(product.Status),
		Variants:    make([]productVariantPayload, 0, len(product.Variants)),
		CreatedAt:   formatTime(product.CreatedAt),
		UpdatedAt:   formatTime(product.UpdatedAt),
	}

	for _, variant := range product.Variants {
		entry := productVariantPayload{
			SKU:           variant.SKU,
			Color:         variant.Color,
			Size:          variant.Size,
			Stock:         variant.Stock,
			Price:         variant.Price,
			OriginalPrice: variant.Price,
			ImageURL:      variant.ImageURL,
		}
		if quote, ok := priced.Quotes[variant.SKU]; ok {
			entry.Price = quote.FinalPrice
			entry.OriginalPrice = quote.OriginalPrice
			if quote.HasDiscount {
				entry.DiscountPercent = quote.DiscountPercent
				entry.PromotionID = quote.PromotionID
				entry.PromotionName = quote.PromotionName
			}
		}
		payload.Variants = append(payload.Variants, entry)
	}

	return payload
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to load products", http.StatusInternalServerError))
	}
}
