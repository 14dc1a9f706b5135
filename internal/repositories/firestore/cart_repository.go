package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	pfirestore "github.com/kidiezyllex/street-sneaker-sub000/internal/platform/firestore"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
)

const cartsCollection = "carts"

// CartRepository persists register carts keyed by session identifier.
type CartRepository struct {
	base *pfirestore.BaseRepository[cartDocument]
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[cartDocument](provider, cartsCollection)
	return &CartRepository{base: base}, nil
}

// UpsertCart persists the full cart state using the session ID as document identifier.
func (r *CartRepository) UpsertCart(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}

	sessionID := strings.TrimSpace(cart.ID)
	if sessionID == "" {
		return domain.Cart{}, errors.New("cart repository: session id is required")
	}

	doc := encodeCartDocument(cart)
	if err := r.base.Set(ctx, sessionID, doc); err != nil {
		return domain.Cart{}, err
	}

	saved := decodeCartDocument(sessionID, doc, doc.CreatedAt, doc.UpdatedAt)
	return saved, nil
}

// GetCart loads the cart for the given register session.
func (r *CartRepository) GetCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Cart{}, errors.New("cart repository: session id is required")
	}

	doc, err := r.base.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	return decodeCartDocument(doc.ID, doc.Data, doc.CreateTime, doc.UpdateTime), nil
}

// DeleteCart removes the cart document for the session. Deleting a missing
// cart is not an error.
func (r *CartRepository) DeleteCart(ctx context.Context, sessionID string) error {
	if r == nil || r.base == nil {
		return errors.New("cart repository not initialised")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return errors.New("cart repository: session id is required")
	}

	return r.base.Delete(ctx, sessionID)
}

type cartDocument struct {
	Items      []cartItemDocument   `firestore:"items"`
	Voucher    *cartVoucherDocument `firestore:"voucher,omitempty"`
	Discount   int64                `firestore:"discount"`
	ItemsCount int                  `firestore:"itemsCount"`
	CreatedAt  time.Time            `firestore:"createdAt"`
	UpdatedAt  time.Time            `firestore:"updatedAt"`
}

type cartItemDocument struct {
	ID            string    `firestore:"id"`
	ProductID     string    `firestore:"productId"`
	SKU           string    `firestore:"sku"`
	Name          string    `firestore:"name"`
	Color         string    `firestore:"color,omitempty"`
	Size          string    `firestore:"size,omitempty"`
	ImageURL      string    `firestore:"imageUrl,omitempty"`
	Quantity      int       `firestore:"quantity"`
	UnitPrice     int64     `firestore:"unitPrice"`
	OriginalPrice int64     `firestore:"originalPrice"`
	PromotionID   string    `firestore:"promotionId,omitempty"`
	AddedAt       time.Time `firestore:"addedAt"`
}

type cartVoucherDocument struct {
	VoucherID string `firestore:"voucherId"`
	Code      string `firestore:"code"`
	Kind      string `firestore:"kind"`
	Value     int64  `firestore:"value"`
	Discount  int64  `firestore:"discount"`
}

func encodeCartDocument(cart domain.Cart) cartDocument {
	now := time.Now().UTC()
	updatedAt := cart.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = now
	}
	createdAt := cart.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = updatedAt
	}

	items := make([]cartItemDocument, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemDocument{
			ID:            strings.TrimSpace(item.ID),
			ProductID:     strings.TrimSpace(item.ProductID),
			SKU:           strings.TrimSpace(item.SKU),
			Name:          strings.TrimSpace(item.Name),
			Color:         strings.TrimSpace(item.Color),
			Size:          strings.TrimSpace(item.Size),
			ImageURL:      strings.TrimSpace(item.ImageURL),
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			OriginalPrice: item.OriginalPrice,
			PromotionID:   strings.TrimSpace(item.PromotionID),
			AddedAt:       item.AddedAt.UTC(),
		})
	}

	doc := cartDocument{
		Items:      items,
		Discount:   cart.Discount,
		ItemsCount: len(items),
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
	if cart.Voucher != nil {
		doc.Voucher = &cartVoucherDocument{
			VoucherID: strings.TrimSpace(cart.Voucher.VoucherID),
			Code:      strings.TrimSpace(cart.Voucher.Code),
			Kind:      strings.TrimSpace(string(cart.Voucher.Kind)),
			Value:     cart.Voucher.Value,
			Discount:  cart.Voucher.Discount,
		}
	}
	return doc
}

func decodeCartDocument(id string, doc cartDocument, createdAt, updatedAt time.Time) domain.Cart {
	items := make([]domain.CartItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, domain.CartItem{
			ID:            strings.TrimSpace(item.ID),
			ProductID:     strings.TrimSpace(item.ProductID),
			SKU:           strings.TrimSpace(item.SKU),
			Name:          strings.TrimSpace(item.Name),
			Color:         strings.TrimSpace(item.Color),
			Size:          strings.TrimSpace(item.Size),
			ImageURL:      strings.TrimSpace(item.ImageURL),
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			OriginalPrice: item.OriginalPrice,
			PromotionID:   strings.TrimSpace(item.PromotionID),
			AddedAt:       item.AddedAt.UTC(),
		})
	}

	cart := domain.Cart{
		ID:        strings.TrimSpace(id),
		Items:     items,
		Discount:  doc.Discount,
		CreatedAt: chooseTime(doc.CreatedAt, createdAt),
		UpdatedAt: chooseTime(doc.UpdatedAt, updatedAt),
	}
	if doc.Voucher != nil {
		cart.Voucher = &domain.AppliedVoucher{
			VoucherID: strings.TrimSpace(doc.Voucher.VoucherID),
			Code:      strings.TrimSpace(doc.Voucher.Code),
			Kind:      domain.VoucherKind(strings.TrimSpace(doc.Voucher.Kind)),
			Value:     doc.Voucher.Value,
			Discount:  doc.Voucher.Discount,
		}
	}
	return cart
}

var _ repositories.CartRepository = (*CartRepository)(nil)
