package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
)

type cartFixture struct {
	carts    *stubCartRepository
	products *stubProductRepository
	vouchers *stubVoucherRepository
	pricing  *stubPromotionRepository
	now      time.Time
}

func newTestCartService(t *testing.T, fx cartFixture) CartService {
	t.Helper()
	if fx.pricing == nil {
		fx.pricing = &stubPromotionRepository{}
	}
	engine, err := NewPricingEngine(PricingEngineDeps{
		Promotions: fx.pricing,
		Clock:      func() time.Time { return fx.now },
	})
	if err != nil {
		t.Fatalf("unexpected error constructing pricing engine: %v", err)
	}

	ids := 0
	service, err := NewCartService(CartServiceDeps{
		Carts:    fx.carts,
		Products: fx.products,
		Vouchers: fx.vouchers,
		Pricing:  engine,
		Clock:    func() time.Time { return fx.now },
		IDGen: func() string {
			ids++
			return "line-" + string(rune('0'+ids))
		},
	})
	if err != nil {
		t.Fatalf("unexpected error constructing cart service: %v", err)
	}
	return service
}

func sneakerProduct() domain.Product {
	return domain.Product{
		ID:     "prod-af1",
		Code:   "AF1",
		Name:   "Air Force 1",
		Brand:  "Nike",
		Status: domain.ProductStatusActive,
		Variants: []domain.ProductVariant{
			{SKU: "AF1-WHT-42", Color: "white", Size: "42", Stock: 3, Price: 2500000},
			{SKU: "AF1-BLK-42", Color: "black", Size: "42", Stock: 0, Price: 2500000},
		},
	}
}

func TestCartServiceGetOrCreateCartLazyCreates(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	var upserted domain.Cart
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{}, &repositoryErrorStub{notFound: true}
		},
		upsertFunc: func(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
			upserted = cart
			return cart, nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: &stubProductRepository{},
		vouchers: &stubVoucherRepository{},
		now:      now,
	})

	cart, err := service.GetOrCreateCart(context.Background(), " pos-1 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.ID != "pos-1" {
		t.Fatalf("expected cart id pos-1, got %q", cart.ID)
	}
	if upserted.ID != "pos-1" {
		t.Fatalf("expected upserted cart keyed by session, got %q", upserted.ID)
	}
	if !upserted.CreatedAt.Equal(now) {
		t.Fatalf("expected created at pinned to clock")
	}
}

func TestCartServiceAddItemSnapshotsPromotionPrice(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	var stored domain.Cart
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{ID: sessionID}, nil
		},
		upsertFunc: func(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
			stored = cart
			return cart, nil
		},
	}
	products := &stubProductRepository{
		findByIDFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return sneakerProduct(), nil
		},
	}
	pricing := &stubPromotionRepository{
		listActiveFunc: func(ctx context.Context, at time.Time) ([]domain.Promotion, error) {
			return []domain.Promotion{{
				ID:              "promo-20",
				Name:            "Mid-year",
				DiscountPercent: 20,
				Status:          domain.PromotionStatusActive,
				StartsAt:        now.Add(-time.Hour),
				EndsAt:          now.Add(time.Hour),
			}}, nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: products,
		vouchers: &stubVoucherRepository{},
		pricing:  pricing,
		now:      now,
	})

	result, err := service.AddItem(context.Background(), AddCartItemCommand{
		SessionID: "pos-1",
		ProductID: "prod-af1",
		SKU:       "AF1-WHT-42",
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Cart.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(result.Cart.Items))
	}
	line := result.Cart.Items[0]
	if line.UnitPrice != 2000000 {
		t.Fatalf("expected discounted unit price 2000000, got %d", line.UnitPrice)
	}
	if line.OriginalPrice != 2500000 {
		t.Fatalf("expected original price 2500000, got %d", line.OriginalPrice)
	}
	if line.PromotionID != "promo-20" {
		t.Fatalf("expected promotion snapshot, got %q", line.PromotionID)
	}
	if stored.Subtotal() != 4000000 {
		t.Fatalf("expected subtotal 4000000, got %d", stored.Subtotal())
	}
}

func TestCartServiceAddItemRejectsOverStock(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	upserts := 0
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{ID: sessionID}, nil
		},
		upsertFunc: func(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
			upserts++
			return cart, nil
		},
	}
	products := &stubProductRepository{
		findByIDFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return sneakerProduct(), nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: products,
		vouchers: &stubVoucherRepository{},
		now:      now,
	})

	_, err := service.AddItem(context.Background(), AddCartItemCommand{
		SessionID: "pos-1",
		ProductID: "prod-af1",
		SKU:       "AF1-WHT-42",
		Quantity:  10,
	})
	if !errors.Is(err, ErrCartCapacityExceeded) {
		t.Fatalf("expected ErrCartCapacityExceeded, got %v", err)
	}
	if upserts != 0 {
		t.Fatalf("expected rejected add to leave the cart untouched, got %d writes", upserts)
	}
}

func TestCartServiceAddItemOutOfStock(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{ID: sessionID}, nil
		},
	}
	products := &stubProductRepository{
		findByIDFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return sneakerProduct(), nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: products,
		vouchers: &stubVoucherRepository{},
		now:      now,
	})

	_, err := service.AddItem(context.Background(), AddCartItemCommand{
		SessionID: "pos-1",
		ProductID: "prod-af1",
		SKU:       "AF1-BLK-42",
		Quantity:  1,
	})
	if !errors.Is(err, ErrCartCapacityExceeded) {
		t.Fatalf("expected ErrCartCapacityExceeded, got %v", err)
	}
}

func TestCartServiceAddItemMergesExistingLine(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{
				ID: sessionID,
				Items: []domain.CartItem{
					{ID: "line-a", ProductID: "prod-af1", SKU: "AF1-WHT-42", Quantity: 1, UnitPrice: 2500000},
				},
			}, nil
		},
	}
	products := &stubProductRepository{
		findByIDFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return sneakerProduct(), nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: products,
		vouchers: &stubVoucherRepository{},
		now:      now,
	})

	result, err := service.AddItem(context.Background(), AddCartItemCommand{
		SessionID: "pos-1",
		ProductID: "prod-af1",
		SKU:       "AF1-WHT-42",
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Cart.Items) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(result.Cart.Items))
	}
	if result.Cart.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", result.Cart.Items[0].Quantity)
	}
	// The existing snapshot price must survive the merge.
	if result.Cart.Items[0].UnitPrice != 2500000 {
		t.Fatalf("expected snapshot price preserved, got %d", result.Cart.Items[0].UnitPrice)
	}
}

func TestCartServiceAddItemKeepsProductsSeparate(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			// A different product already carries the same SKU string.
			return domain.Cart{
				ID: sessionID,
				Items: []domain.CartItem{
					{ID: "line-a", ProductID: "prod-other", SKU: "AF1-WHT-42", Quantity: 1, UnitPrice: 900000},
				},
			}, nil
		},
	}
	products := &stubProductRepository{
		findByIDFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return sneakerProduct(), nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: products,
		vouchers: &stubVoucherRepository{},
		now:      now,
	})

	result, err := service.AddItem(context.Background(), AddCartItemCommand{
		SessionID: "pos-1",
		ProductID: "prod-af1",
		SKU:       "AF1-WHT-42",
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Cart.Items) != 2 {
		t.Fatalf("expected distinct lines per product, got %d", len(result.Cart.Items))
	}
	if result.Cart.Items[0].Quantity != 1 {
		t.Fatalf("expected other product's line untouched, got quantity %d", result.Cart.Items[0].Quantity)
	}
	if result.Cart.Items[1].ProductID != "prod-af1" {
		t.Fatalf("expected new line for prod-af1, got %q", result.Cart.Items[1].ProductID)
	}
}

func TestCartServiceAddItemRejectsWhenLineAtStock(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{
				ID: sessionID,
				Items: []domain.CartItem{
					{ID: "line-a", ProductID: "prod-af1", SKU: "AF1-WHT-42", Quantity: 3, UnitPrice: 2500000},
				},
			}, nil
		},
	}
	products := &stubProductRepository{
		findByIDFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return sneakerProduct(), nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: products,
		vouchers: &stubVoucherRepository{},
		now:      now,
	})

	_, err := service.AddItem(context.Background(), AddCartItemCommand{
		SessionID: "pos-1",
		ProductID: "prod-af1",
		SKU:       "AF1-WHT-42",
		Quantity:  1,
	})
	if !errors.Is(err, ErrCartCapacityExceeded) {
		t.Fatalf("expected ErrCartCapacityExceeded, got %v", err)
	}
}

func TestCartServiceAdjustQuantityToZeroRemovesLine(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{
				ID: sessionID,
				Items: []domain.CartItem{
					{ID: "line-a", ProductID: "prod-af1", SKU: "AF1-WHT-42", Quantity: 2, UnitPrice: 2500000},
				},
			}, nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: &stubProductRepository{},
		vouchers: &stubVoucherRepository{},
		now:      now,
	})

	result, err := service.AdjustQuantity(context.Background(), AdjustCartItemCommand{
		SessionID: "pos-1",
		ItemID:    "line-a",
		Delta:     -2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Cart.Items) != 0 {
		t.Fatalf("expected line removed")
	}
	if len(result.Notices) != 1 || result.Notices[0].Code != CartNoticeItemRemoved {
		t.Fatalf("expected item_removed notice, got %+v", result.Notices)
	}
}

func TestCartServiceAdjustQuantityClampsToStock(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{
				ID: sessionID,
				Items: []domain.CartItem{
					{ID: "line-a", ProductID: "prod-af1", SKU: "AF1-WHT-42", Quantity: 1, UnitPrice: 2500000},
				},
			}, nil
		},
	}
	products := &stubProductRepository{
		findByIDFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return sneakerProduct(), nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: products,
		vouchers: &stubVoucherRepository{},
		now:      now,
	})

	result, err := service.AdjustQuantity(context.Background(), AdjustCartItemCommand{
		SessionID: "pos-1",
		ItemID:    "line-a",
		Delta:     99,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Cart.Items[0].Quantity != 3 {
		t.Fatalf("expected clamp to stock 3, got %d", result.Cart.Items[0].Quantity)
	}
	if len(result.Notices) != 1 || result.Notices[0].Code != CartNoticeQuantityClamped {
		t.Fatalf("expected quantity_clamped notice, got %+v", result.Notices)
	}
}

func TestCartServiceAdjustQuantityUnknownLine(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{ID: sessionID}, nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: &stubProductRepository{},
		vouchers: &stubVoucherRepository{},
		now:      now,
	})

	_, err := service.AdjustQuantity(context.Background(), AdjustCartItemCommand{
		SessionID: "pos-1",
		ItemID:    "ghost",
		Delta:     1,
	})
	if !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected ErrCartItemNotFound, got %v", err)
	}
}

func TestCartServiceApplyVoucherComputesDiscount(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{
				ID: sessionID,
				Items: []domain.CartItem{
					{ID: "line-a", ProductID: "prod-af1", SKU: "AF1-WHT-42", Quantity: 2, UnitPrice: 1000000},
				},
			}, nil
		},
	}
	vouchers := &stubVoucherRepository{
		findByCodeFunc: func(ctx context.Context, code string) (domain.Voucher, error) {
			return testVoucher(now), nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: &stubProductRepository{},
		vouchers: vouchers,
		now:      now,
	})

	result, err := service.ApplyVoucher(context.Background(), ApplyVoucherCommand{SessionID: "pos-1", Code: "SUMMER10"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Cart.Voucher == nil {
		t.Fatalf("expected voucher applied")
	}
	if result.Cart.Discount != 200000 {
		t.Fatalf("expected discount 200000, got %d", result.Cart.Discount)
	}
	if result.Cart.Total() != 1800000 {
		t.Fatalf("expected total 1800000, got %d", result.Cart.Total())
	}
}

func TestCartServiceApplyVoucherBelowMinimum(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{
				ID: sessionID,
				Items: []domain.CartItem{
					{ID: "line-a", SKU: "AF1-WHT-42", Quantity: 1, UnitPrice: 500},
				},
			}, nil
		},
	}
	vouchers := &stubVoucherRepository{
		findByCodeFunc: func(ctx context.Context, code string) (domain.Voucher, error) {
			return testVoucher(now), nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: &stubProductRepository{},
		vouchers: vouchers,
		now:      now,
	})

	_, err := service.ApplyVoucher(context.Background(), ApplyVoucherCommand{SessionID: "pos-1", Code: "SUMMER10"})
	if !errors.Is(err, ErrVoucherBelowMinimum) {
		t.Fatalf("expected ErrVoucherBelowMinimum, got %v", err)
	}
}

func TestCartServiceApplyVoucherRejectionClearsPrevious(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	var stored *domain.Cart
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{
				ID: sessionID,
				Items: []domain.CartItem{
					{ID: "line-a", ProductID: "prod-af1", SKU: "AF1-WHT-42", Quantity: 2, UnitPrice: 1000000},
				},
				Voucher:  &domain.AppliedVoucher{VoucherID: "vch-1", Code: "SUMMER10", Discount: 200000},
				Discount: 200000,
			}, nil
		},
		upsertFunc: func(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
			stored = &cart
			return cart, nil
		},
	}
	vouchers := &stubVoucherRepository{
		findByCodeFunc: func(ctx context.Context, code string) (domain.Voucher, error) {
			return domain.Voucher{}, &repositoryErrorStub{notFound: true}
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: &stubProductRepository{},
		vouchers: vouchers,
		now:      now,
	})

	_, err := service.ApplyVoucher(context.Background(), ApplyVoucherCommand{SessionID: "pos-1", Code: "NOPE"})
	if !errors.Is(err, ErrVoucherNotFound) {
		t.Fatalf("expected ErrVoucherNotFound, got %v", err)
	}
	if stored == nil {
		t.Fatalf("expected the cleared cart persisted")
	}
	if stored.Voucher != nil || stored.Discount != 0 {
		t.Fatalf("expected previous voucher cleared, got voucher=%+v discount=%d", stored.Voucher, stored.Discount)
	}
}

func TestCartServiceApplyVoucherLookupOutageKeepsPrevious(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	upserts := 0
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{
				ID: sessionID,
				Items: []domain.CartItem{
					{ID: "line-a", ProductID: "prod-af1", SKU: "AF1-WHT-42", Quantity: 2, UnitPrice: 1000000},
				},
				Voucher:  &domain.AppliedVoucher{VoucherID: "vch-1", Code: "SUMMER10", Discount: 200000},
				Discount: 200000,
			}, nil
		},
		upsertFunc: func(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
			upserts++
			return cart, nil
		},
	}
	vouchers := &stubVoucherRepository{
		findByCodeFunc: func(ctx context.Context, code string) (domain.Voucher, error) {
			return domain.Voucher{}, &repositoryErrorStub{unavailable: true}
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: &stubProductRepository{},
		vouchers: vouchers,
		now:      now,
	})

	_, err := service.ApplyVoucher(context.Background(), ApplyVoucherCommand{SessionID: "pos-1", Code: "WINTER20"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if upserts != 0 {
		t.Fatalf("expected outage to leave the applied voucher in place, got %d writes", upserts)
	}
}

func TestCartServiceMutationDropsVoucherBelowMinimum(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	voucher := testVoucher(now)
	voucher.MinOrderValue = 1500000

	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{
				ID: sessionID,
				Items: []domain.CartItem{
					{ID: "line-a", ProductID: "prod-af1", SKU: "AF1-WHT-42", Quantity: 2, UnitPrice: 1000000},
					{ID: "line-b", ProductID: "prod-af1", SKU: "AF1-BLK-42", Quantity: 1, UnitPrice: 1000000},
				},
				Voucher: &domain.AppliedVoucher{
					VoucherID: voucher.ID,
					Code:      voucher.Code,
					Kind:      voucher.Kind,
					Value:     voucher.Value,
					Discount:  300000,
				},
				Discount: 300000,
			}, nil
		},
	}
	vouchers := &stubVoucherRepository{
		findByIDFunc: func(ctx context.Context, voucherID string) (domain.Voucher, error) {
			return voucher, nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: &stubProductRepository{},
		vouchers: vouchers,
		now:      now,
	})

	// Dropping two of three lines leaves a 1000000 subtotal, below the
	// voucher's 1500000 minimum.
	result, err := service.AdjustQuantity(context.Background(), AdjustCartItemCommand{
		SessionID: "pos-1",
		ItemID:    "line-a",
		Delta:     -2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Cart.Voucher != nil {
		t.Fatalf("expected voucher dropped")
	}
	if result.Cart.Discount != 0 {
		t.Fatalf("expected discount reset, got %d", result.Cart.Discount)
	}

	var sawRemoved bool
	for _, notice := range result.Notices {
		if notice.Code == CartNoticeVoucherRemoved {
			sawRemoved = true
		}
	}
	if !sawRemoved {
		t.Fatalf("expected voucher_removed notice, got %+v", result.Notices)
	}
}

func TestCartServiceMutationSurfacesVoucherLookupOutage(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	upserts := 0
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{
				ID: sessionID,
				Items: []domain.CartItem{
					{ID: "line-a", ProductID: "prod-af1", SKU: "AF1-WHT-42", Quantity: 2, UnitPrice: 1000000},
				},
				Voucher:  &domain.AppliedVoucher{VoucherID: "vch-1", Code: "SUMMER10", Discount: 200000},
				Discount: 200000,
			}, nil
		},
		upsertFunc: func(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
			upserts++
			return cart, nil
		},
	}
	products := &stubProductRepository{
		findByIDFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return sneakerProduct(), nil
		},
	}
	vouchers := &stubVoucherRepository{
		findByIDFunc: func(ctx context.Context, voucherID string) (domain.Voucher, error) {
			return domain.Voucher{}, &repositoryErrorStub{unavailable: true}
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: products,
		vouchers: vouchers,
		now:      now,
	})

	_, err := service.AdjustQuantity(context.Background(), AdjustCartItemCommand{
		SessionID: "pos-1",
		ItemID:    "line-a",
		Delta:     -1,
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if upserts != 0 {
		t.Fatalf("expected failed revalidation to leave the cart untouched, got %d writes", upserts)
	}
}

func TestCartServiceMutationRecomputesVoucherDiscount(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	voucher := testVoucher(now)
	voucher.MinOrderValue = 0

	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{
				ID: sessionID,
				Items: []domain.CartItem{
					{ID: "line-a", ProductID: "prod-af1", SKU: "AF1-WHT-42", Quantity: 2, UnitPrice: 1000000},
				},
				Voucher: &domain.AppliedVoucher{
					VoucherID: voucher.ID,
					Code:      voucher.Code,
					Kind:      voucher.Kind,
					Value:     voucher.Value,
					Discount:  200000,
				},
				Discount: 200000,
			}, nil
		},
	}
	products := &stubProductRepository{
		findByIDFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			return sneakerProduct(), nil
		},
	}
	vouchers := &stubVoucherRepository{
		findByIDFunc: func(ctx context.Context, voucherID string) (domain.Voucher, error) {
			return voucher, nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: products,
		vouchers: vouchers,
		now:      now,
	})

	result, err := service.AdjustQuantity(context.Background(), AdjustCartItemCommand{
		SessionID: "pos-1",
		ItemID:    "line-a",
		Delta:     -1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Cart.Discount != 100000 {
		t.Fatalf("expected discount recomputed to 100000, got %d", result.Cart.Discount)
	}
}

func TestCartServiceRemoveVoucher(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	carts := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{
				ID:       sessionID,
				Voucher:  &domain.AppliedVoucher{VoucherID: "vch-1", Code: "SUMMER10", Discount: 5000},
				Discount: 5000,
			}, nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: &stubProductRepository{},
		vouchers: &stubVoucherRepository{},
		now:      now,
	})

	result, err := service.RemoveVoucher(context.Background(), "pos-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Cart.Voucher != nil || result.Cart.Discount != 0 {
		t.Fatalf("expected voucher cleared")
	}
}

func TestCartServiceClearCart(t *testing.T) {
	deleted := ""
	carts := &stubCartRepository{
		deleteFunc: func(ctx context.Context, sessionID string) error {
			deleted = sessionID
			return nil
		},
	}

	service := newTestCartService(t, cartFixture{
		carts:    carts,
		products: &stubProductRepository{},
		vouchers: &stubVoucherRepository{},
		now:      time.Now(),
	})

	if err := service.ClearCart(context.Background(), "pos-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "pos-1" {
		t.Fatalf("expected delete for pos-1, got %q", deleted)
	}
}
