package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
)

func newTestCatalogService(t *testing.T, products *stubProductRepository, pricing *stubPromotionRepository, now time.Time) CatalogService {
	t.Helper()
	if pricing == nil {
		pricing = &stubPromotionRepository{}
	}
	engine, err := NewPricingEngine(PricingEngineDeps{
		Promotions: pricing,
		Clock:      func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("unexpected error constructing pricing engine: %v", err)
	}

	service, err := NewCatalogService(CatalogServiceDeps{
		Products: products,
		Pricing:  engine,
		Clock:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("unexpected error constructing catalog service: %v", err)
	}
	return service
}

func TestCatalogServiceListProductsAnnotatesQuotes(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	products := &stubProductRepository{
		listFunc: func(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
			return domain.CursorPage[domain.Product]{
				Items:         []domain.Product{sneakerProduct()},
				NextPageToken: "next-token",
			}, nil
		},
	}
	pricing := &stubPromotionRepository{
		listActiveFunc: func(ctx context.Context, at time.Time) ([]domain.Promotion, error) {
			return []domain.Promotion{{
				ID:              "promo-10",
				DiscountPercent: 10,
				Status:          domain.PromotionStatusActive,
				StartsAt:        now.Add(-time.Hour),
				EndsAt:          now.Add(time.Hour),
			}}, nil
		},
	}

	service := newTestCatalogService(t, products, pricing, now)

	page, err := service.ListProducts(context.Background(), ProductListQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 product, got %d", len(page.Items))
	}
	if page.NextPageToken != "next-token" {
		t.Fatalf("expected cursor token passthrough, got %q", page.NextPageToken)
	}

	quotes := page.Items[0].Quotes
	if quotes["AF1-WHT-42"].FinalPrice != 2250000 {
		t.Fatalf("expected discounted quote 2250000, got %d", quotes["AF1-WHT-42"].FinalPrice)
	}
}

func TestCatalogServiceListProductsAppliesDefaultPageSize(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	var captured repositories.ProductListFilter
	products := &stubProductRepository{
		listFunc: func(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
			captured = filter
			return domain.CursorPage[domain.Product]{}, nil
		},
	}

	service := newTestCatalogService(t, products, nil, now)

	if _, err := service.ListProducts(context.Background(), ProductListQuery{Brand: " Nike "}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.Pagination.PageSize != 24 {
		t.Fatalf("expected default page size 24, got %d", captured.Pagination.PageSize)
	}
	if captured.Brand == nil || *captured.Brand != "Nike" {
		t.Fatalf("expected trimmed brand filter, got %v", captured.Brand)
	}
}

func TestCatalogServiceSearchFoldsDiacritics(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	products := &stubProductRepository{
		listFunc: func(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
			return domain.CursorPage[domain.Product]{
				Items: []domain.Product{
					{ID: "p1", Name: "Giày Thể Thao Phố", Status: domain.ProductStatusActive},
					{ID: "p2", Name: "Running Shoe", Status: domain.ProductStatusActive},
				},
			}, nil
		},
	}

	service := newTestCatalogService(t, products, nil, now)

	page, err := service.ListProducts(context.Background(), ProductListQuery{Search: "pho"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 match, got %d", len(page.Items))
	}
	if page.Items[0].Product.ID != "p1" {
		t.Fatalf("expected accent-folded match p1, got %q", page.Items[0].Product.ID)
	}
}

func TestCatalogServiceSearchMatchesSKU(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	products := &stubProductRepository{
		listFunc: func(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
			return domain.CursorPage[domain.Product]{
				Items: []domain.Product{sneakerProduct()},
			}, nil
		},
	}

	service := newTestCatalogService(t, products, nil, now)

	page, err := service.ListProducts(context.Background(), ProductListQuery{Search: "af1-wht"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected SKU match, got %d items", len(page.Items))
	}
}

func TestCatalogServiceGetProduct(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	products := &stubProductRepository{
		findByIDFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			if productID != "prod-af1" {
				t.Fatalf("unexpected product id %q", productID)
			}
			return sneakerProduct(), nil
		},
	}

	service := newTestCatalogService(t, products, nil, now)

	priced, err := service.GetProduct(context.Background(), " prod-af1 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if priced.Product.ID != "prod-af1" {
		t.Fatalf("expected product prod-af1, got %q", priced.Product.ID)
	}
	if len(priced.Quotes) != 2 {
		t.Fatalf("expected quotes for both variants, got %d", len(priced.Quotes))
	}
}

func TestCatalogServiceGetProductNotFound(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	products := &stubProductRepository{
		findByIDFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{}, &repositoryErrorStub{notFound: true}
		},
	}

	service := newTestCatalogService(t, products, nil, now)

	_, err := service.GetProduct(context.Background(), "ghost")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCatalogServiceGetProductRequiresID(t *testing.T) {
	service := newTestCatalogService(t, &stubProductRepository{}, nil, time.Now())

	_, err := service.GetProduct(context.Background(), "   ")
	if !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected ErrCatalogInvalidInput, got %v", err)
	}
}
