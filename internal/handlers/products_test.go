package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/services"
)

type stubCatalogService struct {
	listFunc func(ctx context.Context, query services.ProductListQuery) (domain.CursorPage[services.PricedProduct], error)
	getFunc  func(ctx context.Context, productID string) (services.PricedProduct, error)
}

func (s *stubCatalogService) ListProducts(ctx context.Context, query services.ProductListQuery) (domain.CursorPage[services.PricedProduct], error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, query)
	}
	return domain.CursorPage[services.PricedProduct]{}, nil
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (services.PricedProduct, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, productID)
	}
	return services.PricedProduct{}, services.ErrProductNotFound
}

var _ services.CatalogService = (*stubCatalogService)(nil)

func newCatalogRouter(service services.CatalogService) chi.Router {
	router := chi.NewRouter()
	router.Route("/products", NewCatalogHandlers(service).Routes)
	return router
}

func pricedSneaker() services.PricedProduct {
	return services.PricedProduct{
		Product: domain.Product{
			ID:     "prod-af1",
			Code:   "AF1",
			Name:   "Air Force 1",
			Brand:  "Nike",
			Status: domain.ProductStatusActive,
			Variants: []domain.ProductVariant{
				{SKU: "AF1-WHT-42", Color: "white", Size: "42", Stock: 3, Price: 2500000},
			},
		},
		Quotes: map[string]domain.PriceQuote{
			"AF1-WHT-42": {
				OriginalPrice:   2500000,
				FinalPrice:      2000000,
				DiscountPercent: 20,
				HasDiscount:     true,
				PromotionID:     "promo-spring",
				PromotionName:   "Spring Sale",
			},
		},
	}
}

func TestCatalogHandlersListAnnotatesPrices(t *testing.T) {
	var captured services.ProductListQuery
	service := &stubCatalogService{
		listFunc: func(ctx context.Context, query services.ProductListQuery) (domain.CursorPage[services.PricedProduct], error) {
			captured = query
			return domain.CursorPage[services.PricedProduct]{
				Items:         []services.PricedProduct{pricedSneaker()},
				NextPageToken: "tok-2",
			}, nil
		},
	}

	router := newCatalogRouter(service)
	req := httptest.NewRequest(http.MethodGet, "/products?search=air&brand=Nike&page_size=10", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.Search != "air" || captured.Brand != "Nike" || captured.Pagination.PageSize != 10 {
		t.Fatalf("unexpected query %#v", captured)
	}

	var resp productListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected one product, got %d", len(resp.Items))
	}
	variant := resp.Items[0].Variants[0]
	if variant.Price != 2000000 || variant.OriginalPrice != 2500000 {
		t.Fatalf("expected discounted price 2000000/2500000, got %d/%d", variant.Price, variant.OriginalPrice)
	}
	if variant.PromotionName != "Spring Sale" || variant.DiscountPercent != 20 {
		t.Fatalf("expected promotion annotation, got %#v", variant)
	}
	if resp.NextPageToken != "tok-2" {
		t.Fatalf("expected next page token tok-2, got %q", resp.NextPageToken)
	}
}

func TestCatalogHandlersGetProduct(t *testing.T) {
	service := &stubCatalogService{
		getFunc: func(ctx context.Context, productID string) (services.PricedProduct, error) {
			if productID != "prod-af1" {
				t.Fatalf("unexpected product id %q", productID)
			}
			return pricedSneaker(), nil
		},
	}

	router := newCatalogRouter(service)
	req := httptest.NewRequest(http.MethodGet, "/products/prod-af1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp productPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "prod-af1" || resp.Name != "Air Force 1" {
		t.Fatalf("unexpected payload %#v", resp)
	}
}

func TestCatalogHandlersGetProductNotFound(t *testing.T) {
	router := newCatalogRouter(&stubCatalogService{})
	req := httptest.NewRequest(http.MethodGet, "/products/missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}

	var errBody map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if errBody["error"] != "product_not_found" {
		t.Fatalf("expected product_not_found, got %v", errBody["error"])
	}
}

func TestCatalogHandlersListRejectsBadPageSize(t *testing.T) {
	router := newCatalogRouter(&stubCatalogService{})
	req := httptest.NewRequest(http.MethodGet, "/products?page_size=ten", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
