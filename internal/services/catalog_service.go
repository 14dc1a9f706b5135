package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
)

// ErrCatalogInvalidInput indicates the caller supplied invalid catalog query parameters.
var ErrCatalogInvalidInput = errors.New("catalog: invalid input")

// CatalogServiceDeps bundles collaborators required to construct a catalog service.
type CatalogServiceDeps struct {
	Products        repositories.ProductRepository
	Pricing         PricingEngine
	DefaultPageSize int
	Clock           func() time.Time
	Logger          func(context.Context, string, map[string]any)
}

type catalogService struct {
	products        repositories.ProductRepository
	pricing         PricingEngine
	defaultPageSize int
	clock           func() time.Time
	logger          func(context.Context, string, map[string]any)
}

var _ CatalogService = (*catalogService)(nil)

// NewCatalogService constructs the storefront catalog reader. Every returned
// product carries promotion-resolved quotes for its variants.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("catalog service: pricing engine is required")
	}

	pageSize := deps.DefaultPageSize
	if pageSize <= 0 {
		pageSize = 24
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &catalogService{
		products:        deps.Products,
		pricing:         deps.Pricing,
		defaultPageSize: pageSize,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *catalogService) ListProducts(ctx context.Context, query ProductListQuery) (domain.CursorPage[PricedProduct], error) {
	pagination := query.Pagination
	if pagination.PageSize <= 0 {
		pagination.PageSize = s.defaultPageSize
	}

	filter := repositories.ProductListFilter{
		Status:     query.Status,
		Search:     strings.TrimSpace(query.Search),
		Pagination: pagination,
	}
	if brand := strings.TrimSpace(query.Brand); brand != "" {
		filter.Brand = &brand
	}

	page, err := s.products.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[PricedProduct]{}, translateRepoError(err, ErrProductNotFound)
	}

	items := page.Items
	if filter.Search != "" {
		items = filterBySearch(items, filter.Search)
	}

	now := s.clock()
	priced := make([]PricedProduct, 0, len(items))
	for _, product := range items {
		quotes, err := s.pricing.QuoteProduct(ctx, product, now)
		if err != nil {
			return domain.CursorPage[PricedProduct]{}, err
		}
		priced = append(priced, PricedProduct{Product: product, Quotes: quotes})
	}

	return domain.CursorPage[PricedProduct]{
		Items:         priced,
		NextPageToken: page.NextPageToken,
	}, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (PricedProduct, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return PricedProduct{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return PricedProduct{}, translateRepoError(err, ErrProductNotFound)
	}

	quotes, err := s.pricing.QuoteProduct(ctx, product, s.clock())
	if err != nil {
		return PricedProduct{}, err
	}
	return PricedProduct{Product: product, Quotes: quotes}, nil
}

// filterBySearch keeps products whose name, code, or brand contains the term
// after accent folding, so "pho" matches "Phố" and search stays usable with
// unaccented input on Vietnamese product names.
func filterBySearch(products []domain.Product, term string) []domain.Product {
	folded := foldForSearch(term)
	if folded == "" {
		return products
	}

	matched := make([]domain.Product, 0, len(products))
	for _, product := range products {
		haystack := foldForSearch(product.Name + " " + product.Code + " " + product.Brand)
		if strings.Contains(haystack, folded) {
			matched = append(matched, product)
			continue
		}
		for _, variant := range product.Variants {
			if strings.Contains(foldForSearch(variant.SKU), folded) {
				matched = append(matched, product)
				break
			}
		}
	}
	return matched
}

var searchFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldForSearch(value string) string {
	folded, _, err := transform.String(searchFolder, value)
	if err != nil {
		folded = value
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
