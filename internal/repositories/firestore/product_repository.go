package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	pfirestore "github.com/kidiezyllex/street-sneaker-sub000/internal/platform/firestore"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
)

const productsCollection = "products"

// ProductRepository persists catalog products with embedded variants.
type ProductRepository struct {
	base *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productsCollection)
	return &ProductRepository{base: base}, nil
}

// Insert stores a new product document. The ID must be unique.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	productID := strings.TrimSpace(product.ID)
	if productID == "" {
		return errors.New("product repository: product id is required")
	}
	docRef, err := r.base.DocumentRef(ctx, productID)
	if err != nil {
		return err
	}
	if _, err := docRef.Create(ctx, encodeProductDocument(product)); err != nil {
		return pfirestore.WrapError("products.insert", err)
	}
	return nil
}

// Update replaces the persisted product state with the provided snapshot.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	productID := strings.TrimSpace(product.ID)
	if productID == "" {
		return errors.New("product repository: product id is required")
	}
	if err := r.base.Set(ctx, productID, encodeProductDocument(product)); err != nil {
		return err
	}
	return nil
}

// FindByID fetches a single product.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, errors.New("product repository: product id is required")
	}
	doc, err := r.base.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return decodeProductDocument(doc.ID, doc.Data, doc.CreateTime, doc.UpdateTime), nil
}

// FindBySKU locates the product owning the given variant SKU.
func (r *ProductRepository) FindBySKU(ctx context.Context, sku string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return domain.Product{}, errors.New("product repository: sku is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("skus", "array-contains", sku).Limit(1)
	})
	if err != nil {
		return domain.Product{}, err
	}
	if len(docs) == 0 {
		return domain.Product{}, pfirestore.NotFoundError("products.find_by_sku")
	}
	doc := docs[0]
	return decodeProductDocument(doc.ID, doc.Data, doc.CreateTime, doc.UpdateTime), nil
}

// List returns products ordered by most recent update using cursor pagination.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Product]{}, errors.New("product repository not initialised")
	}

	limit := filter.Pagination.PageSize
	if limit < 0 {
		limit = 0
	}
	fetchLimit := limit
	if limit > 0 {
		fetchLimit = limit + 1
	}

	var startAfter []any
	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		tokenTime, tokenID, err := decodeListToken(token)
		if err != nil {
			return domain.CursorPage[domain.Product]{}, fmt.Errorf("product repository: invalid page token: %w", err)
		}
		startAfter = []any{tokenTime, tokenID}
	}

	statusFilters := normaliseStatuses(filter.Status)
	var brand string
	if filter.Brand != nil {
		brand = strings.TrimSpace(*filter.Brand)
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if len(statusFilters) == 1 {
			q = q.Where("status", "==", statusFilters[0])
		} else if len(statusFilters) > 1 {
			if len(statusFilters) > 10 {
				statusFilters = statusFilters[:10]
			}
			q = q.Where("status", "in", statusFilters)
		}
		if brand != "" {
			q = q.Where("brand", "==", brand)
		}

		q = q.OrderBy("updatedAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(startAfter) == 2 {
			q = q.StartAfter(startAfter...)
		}
		if fetchLimit > 0 {
			q = q.Limit(fetchLimit)
		}
		return q
	})
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	valueDocs := docs
	nextToken := ""
	if limit > 0 && len(valueDocs) == fetchLimit {
		last := valueDocs[len(valueDocs)-1]
		tokenTime := last.Data.UpdatedAt
		if tokenTime.IsZero() {
			tokenTime = last.UpdateTime
		}
		nextToken = encodeListToken(tokenTime, last.ID)
		valueDocs = valueDocs[:len(valueDocs)-1]
	}

	items := make([]domain.Product, 0, len(valueDocs))
	for _, doc := range valueDocs {
		items = append(items, decodeProductDocument(doc.ID, doc.Data, doc.CreateTime, doc.UpdateTime))
	}

	return domain.CursorPage[domain.Product]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

type productDocument struct {
	Code        string                   `firestore:"code"`
	Name        string                   `firestore:"name"`
	Brand       string                   `firestore:"brand"`
	Description string                   `firestore:"description,omitempty"`
	ImageURLs   []string                 `firestore:"imageUrls,omitempty"`
	Status      string                   `firestore:"status"`
	Variants    []productVariantDocument `firestore:"variants"`
	SKUs        []string                 `firestore:"skus"`
	CreatedAt   time.Time                `firestore:"createdAt"`
	UpdatedAt   time.Time                `firestore:"updatedAt"`
}

type productVariantDocument struct {
	SKU      string `firestore:"sku"`
	Color    string `firestore:"color"`
	Size     string `firestore:"size"`
	Stock    int    `firestore:"stock"`
	Price    int64  `firestore:"price"`
	ImageURL string `firestore:"imageUrl,omitempty"`
}

func encodeProductDocument(product domain.Product) productDocument {
	variants := make([]productVariantDocument, 0, len(product.Variants))
	skus := make([]string, 0, len(product.Variants))
	for _, variant := range product.Variants {
		sku := strings.TrimSpace(variant.SKU)
		variants = append(variants, productVariantDocument{
			SKU:      sku,
			Color:    strings.TrimSpace(variant.Color),
			Size:     strings.TrimSpace(variant.Size),
			Stock:    variant.Stock,
			Price:    variant.Price,
			ImageURL: strings.TrimSpace(variant.ImageURL),
		})
		if sku != "" {
			skus = append(skus, sku)
		}
	}

	return productDocument{
		Code:        strings.TrimSpace(product.Code),
		Name:        strings.TrimSpace(product.Name),
		Brand:       strings.TrimSpace(product.Brand),
		Description: strings.TrimSpace(product.Description),
		ImageURLs:   cloneStrings(product.ImageURLs),
		Status:      strings.TrimSpace(string(product.Status)),
		Variants:    variants,
		SKUs:        skus,
		CreatedAt:   product.CreatedAt.UTC(),
		UpdatedAt:   product.UpdatedAt.UTC(),
	}
}

func decodeProductDocument(id string, doc productDocument, createdAt, updatedAt time.Time) domain.Product {
	variants := make([]domain.ProductVariant, 0, len(doc.Variants))
	for _, variant := range doc.Variants {
		variants = append(variants, domain.ProductVariant{
			SKU:      strings.TrimSpace(variant.SKU),
			Color:    strings.TrimSpace(variant.Color),
			Size:     strings.TrimSpace(variant.Size),
			Stock:    variant.Stock,
			Price:    variant.Price,
			ImageURL: strings.TrimSpace(variant.ImageURL),
		})
	}

	return domain.Product{
		ID:          strings.TrimSpace(id),
		Code:        strings.TrimSpace(doc.Code),
		Name:        strings.TrimSpace(doc.Name),
		Brand:       strings.TrimSpace(doc.Brand),
		Description: strings.TrimSpace(doc.Description),
		ImageURLs:   cloneStrings(doc.ImageURLs),
		Status:      domain.ProductStatus(strings.TrimSpace(doc.Status)),
		Variants:    variants,
		CreatedAt:   chooseTime(doc.CreatedAt, createdAt),
		UpdatedAt:   chooseTime(doc.UpdatedAt, updatedAt),
	}
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)
