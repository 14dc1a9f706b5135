package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
)

var (
	// ErrCartInvalidInput indicates the caller supplied invalid cart parameters.
	ErrCartInvalidInput = errors.New("cart: invalid input")
	// ErrCartItemNotFound indicates the referenced line does not exist in the cart.
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartServiceDeps bundles collaborators required to construct a cart service.
type CartServiceDeps struct {
	Carts    repositories.CartRepository
	Products repositories.ProductRepository
	Vouchers repositories.VoucherRepository
	Pricing  PricingEngine
	Clock    func() time.Time
	IDGen    func() string
	Logger   func(context.Context, string, map[string]any)
}

type cartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	vouchers repositories.VoucherRepository
	pricing  PricingEngine
	clock    func() time.Time
	idGen    func() string
	logger   func(context.Context, string, map[string]any)
}

var _ CartService = (*cartService)(nil)

// NewCartService constructs the register cart ledger. Line mutations snapshot
// the promotion-resolved unit price at add time and re-validate any applied
// voucher against the new subtotal.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service: cart repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("cart service: product repository is required")
	}
	if deps.Vouchers == nil {
		return nil, errors.New("cart service: voucher repository is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("cart service: pricing engine is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGen
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		carts:    deps.Carts,
		products: deps.Products,
		vouchers: deps.Vouchers,
		pricing:  deps.Pricing,
		clock: func() time.Time {
			return clock().UTC()
		},
		idGen:  idGen,
		logger: logger,
	}, nil
}

func (s *cartService) GetOrCreateCart(ctx context.Context, sessionID string) (Cart, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Cart{}, fmt.Errorf("%w: session id is required", ErrCartInvalidInput)
	}

	cart, err := s.carts.GetCart(ctx, sessionID)
	if err == nil {
		return cart, nil
	}

	var repoErr repositories.RepositoryError
	if !errors.As(err, &repoErr) || !repoErr.IsNotFound() {
		return Cart{}, translateRepoError(err, ErrCartNotFound)
	}

	now := s.clock()
	fresh := Cart{ID: sessionID, CreatedAt: now, UpdatedAt: now}
	stored, err := s.carts.UpsertCart(ctx, fresh)
	if err != nil {
		return Cart{}, translateRepoError(err, ErrCartNotFound)
	}
	return stored, nil
}

func (s *cartService) AddItem(ctx context.Context, cmd AddCartItemCommand) (CartMutationResult, error) {
	if cmd.Quantity <= 0 {
		return CartMutationResult{}, fmt.Errorf("%w: quantity must be positive", ErrCartInvalidInput)
	}
	productID := strings.TrimSpace(cmd.ProductID)
	sku := strings.TrimSpace(cmd.SKU)
	if productID == "" || sku == "" {
		return CartMutationResult{}, fmt.Errorf("%w: product id and sku are required", ErrCartInvalidInput)
	}

	cart, err := s.GetOrCreateCart(ctx, cmd.SessionID)
	if err != nil {
		return CartMutationResult{}, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return CartMutationResult{}, translateRepoError(err, ErrProductNotFound)
	}
	if product.Status != domain.ProductStatusActive {
		return CartMutationResult{}, fmt.Errorf("%w: product is not sellable", ErrProductNotFound)
	}
	variant, ok := findVariant(product, sku)
	if !ok {
		return CartMutationResult{}, fmt.Errorf("%w: variant %s", ErrProductNotFound, sku)
	}
	if variant.Stock <= 0 {
		return CartMutationResult{}, fmt.Errorf("%w: %s is out of stock", ErrCartCapacityExceeded, sku)
	}

	now := s.clock()

	existing := findLine(&cart, productID, sku)
	currentQty := 0
	if existing != nil {
		currentQty = existing.Quantity
	}
	// Adds reject outright when the merged quantity would exceed stock;
	// only quantity adjustments clamp.
	requested := currentQty + cmd.Quantity
	if requested > variant.Stock {
		return CartMutationResult{}, fmt.Errorf("%w: only %d of %s available", ErrCartCapacityExceeded, variant.Stock, sku)
	}

	if existing != nil {
		existing.Quantity = requested
	} else {
		quote, err := s.pricing.QuoteVariant(ctx, product, variant, now)
		if err != nil {
			return CartMutationResult{}, err
		}
		imageURL := variant.ImageURL
		if imageURL == "" && len(product.ImageURLs) > 0 {
			imageURL = product.ImageURLs[0]
		}
		cart.Items = append(cart.Items, CartItem{
			ID:            s.idGen(),
			ProductID:     product.ID,
			SKU:           variant.SKU,
			Name:          product.Name,
			Color:         variant.Color,
			Size:          variant.Size,
			ImageURL:      imageURL,
			Quantity:      requested,
			UnitPrice:     quote.FinalPrice,
			OriginalPrice: quote.OriginalPrice,
			PromotionID:   quote.PromotionID,
			AddedAt:       now,
		})
	}

	return s.persistMutation(ctx, cart, nil, now)
}

func (s *cartService) AdjustQuantity(ctx context.Context, cmd AdjustCartItemCommand) (CartMutationResult, error) {
	itemID := strings.TrimSpace(cmd.ItemID)
	if itemID == "" {
		return CartMutationResult{}, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	}

	cart, err := s.requireCart(ctx, cmd.SessionID)
	if err != nil {
		return CartMutationResult{}, err
	}

	index := findLineIndex(cart, itemID)
	if index < 0 {
		return CartMutationResult{}, fmt.Errorf("%w: %s", ErrCartItemNotFound, itemID)
	}

	now := s.clock()
	var notices []CartNotice

	next := cart.Items[index].Quantity + cmd.Delta
	if next <= 0 {
		cart.Items = append(cart.Items[:index], cart.Items[index+1:]...)
		notices = append(notices, CartNotice{
			Code:    CartNoticeItemRemoved,
			Message: "line removed",
		})
		return s.persistMutation(ctx, cart, notices, now)
	}

	line := &cart.Items[index]
	granted := next

	product, err := s.products.FindByID(ctx, line.ProductID)
	if err != nil {
		return CartMutationResult{}, translateRepoError(err, ErrProductNotFound)
	}
	if variant, ok := findVariant(product, line.SKU); ok && granted > variant.Stock {
		granted = variant.Stock
		notices = append(notices, CartNotice{
			Code:    CartNoticeQuantityClamped,
			Message: fmt.Sprintf("only %d of %s available", variant.Stock, line.SKU),
		})
		if granted <= 0 {
			cart.Items = append(cart.Items[:index], cart.Items[index+1:]...)
			notices = append(notices, CartNotice{
				Code:    CartNoticeItemRemoved,
				Message: fmt.Sprintf("%s is out of stock", line.SKU),
			})
			return s.persistMutation(ctx, cart, notices, now)
		}
	}

	line.Quantity = granted
	return s.persistMutation(ctx, cart, notices, now)
}

func (s *cartService) RemoveItem(ctx context.Context, cmd RemoveCartItemCommand) (CartMutationResult, error) {
	itemID := strings.TrimSpace(cmd.ItemID)
	if itemID == "" {
		return CartMutationResult{}, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	}

	cart, err := s.requireCart(ctx, cmd.SessionID)
	if err != nil {
		return CartMutationResult{}, err
	}

	index := findLineIndex(cart, itemID)
	if index < 0 {
		return CartMutationResult{}, fmt.Errorf("%w: %s", ErrCartItemNotFound, itemID)
	}
	cart.Items = append(cart.Items[:index], cart.Items[index+1:]...)

	return s.persistMutation(ctx, cart, nil, s.clock())
}

func (s *cartService) ApplyVoucher(ctx context.Context, cmd ApplyVoucherCommand) (CartMutationResult, error) {
	code := strings.TrimSpace(cmd.Code)
	if code == "" {
		return CartMutationResult{}, fmt.Errorf("%w: code is required", ErrCartInvalidInput)
	}

	cart, err := s.requireCart(ctx, cmd.SessionID)
	if err != nil {
		return CartMutationResult{}, err
	}

	now := s.clock()
	voucher, err := s.vouchers.FindByCode(ctx, code)
	if err != nil {
		reason := translateRepoError(err, ErrVoucherNotFound)
		if errors.Is(reason, ErrUnavailable) {
			return CartMutationResult{}, reason
		}
		return s.rejectVoucher(ctx, cart, now, reason)
	}

	subtotal := cart.Subtotal()
	if err := checkVoucherUsable(voucher, subtotal, now); err != nil {
		return s.rejectVoucher(ctx, cart, now, err)
	}

	discount := VoucherDiscount(voucher, subtotal)
	cart.Voucher = &domain.AppliedVoucher{
		VoucherID: voucher.ID,
		Code:      voucher.Code,
		Kind:      voucher.Kind,
		Value:     voucher.Value,
		Discount:  discount,
	}
	cart.Discount = discount
	cart.UpdatedAt = now

	stored, err := s.carts.UpsertCart(ctx, cart)
	if err != nil {
		return CartMutationResult{}, translateRepoError(err, ErrCartNotFound)
	}
	return CartMutationResult{Cart: stored}, nil
}

func (s *cartService) RemoveVoucher(ctx context.Context, sessionID string) (CartMutationResult, error) {
	cart, err := s.requireCart(ctx, sessionID)
	if err != nil {
		return CartMutationResult{}, err
	}

	cart.Voucher = nil
	cart.Discount = 0
	cart.UpdatedAt = s.clock()

	stored, err := s.carts.UpsertCart(ctx, cart)
	if err != nil {
		return CartMutationResult{}, translateRepoError(err, ErrCartNotFound)
	}
	return CartMutationResult{Cart: stored}, nil
}

func (s *cartService) ClearCart(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrCartInvalidInput)
	}
	if err := s.carts.DeleteCart(ctx, sessionID); err != nil {
		return translateRepoError(err, ErrCartNotFound)
	}
	return nil
}

// rejectVoucher clears any previously applied voucher and discount before
// surfacing the rejection, so a failed apply never leaves a stale discount on
// the cart.
func (s *cartService) rejectVoucher(ctx context.Context, cart Cart, now time.Time, reason error) (CartMutationResult, error) {
	if cart.Voucher == nil && cart.Discount == 0 {
		return CartMutationResult{}, reason
	}
	cart.Voucher = nil
	cart.Discount = 0
	cart.UpdatedAt = now
	if _, err := s.carts.UpsertCart(ctx, cart); err != nil {
		s.logger(ctx, "cart.voucher_clear_failed", map[string]any{
			"session_id": cart.ID,
			"error":      err.Error(),
		})
	}
	return CartMutationResult{}, reason
}

func (s *cartService) requireCart(ctx context.Context, sessionID string) (Cart, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Cart{}, fmt.Errorf("%w: session id is required", ErrCartInvalidInput)
	}
	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return Cart{}, translateRepoError(err, ErrCartNotFound)
	}
	return cart, nil
}

// persistMutation re-validates the applied voucher against the mutated cart,
// dropping it with a notice when it no longer qualifies, then stores the cart.
func (s *cartService) persistMutation(ctx context.Context, cart Cart, notices []CartNotice, now time.Time) (CartMutationResult, error) {
	if cart.Voucher != nil && len(cart.Items) == 0 {
		cart.Voucher = nil
		cart.Discount = 0
		notices = append(notices, CartNotice{
			Code:    CartNoticeVoucherRemoved,
			Message: "voucher removed from empty cart",
		})
	}
	if cart.Voucher != nil {
		subtotal := cart.Subtotal()
		voucher, err := s.vouchers.FindByID(ctx, cart.Voucher.VoucherID)
		if err != nil {
			translated := translateRepoError(err, ErrVoucherNotFound)
			if !errors.Is(translated, ErrVoucherNotFound) {
				// Transient lookup failure: surface it and keep the cart
				// untouched rather than silently dropping the voucher.
				return CartMutationResult{}, translated
			}
		}
		if err != nil || checkVoucherUsable(voucher, subtotal, now) != nil {
			s.logger(ctx, "cart.voucher_dropped", map[string]any{
				"session_id": cart.ID,
				"code":       cart.Voucher.Code,
			})
			cart.Voucher = nil
			cart.Discount = 0
			notices = append(notices, CartNotice{
				Code:    CartNoticeVoucherRemoved,
				Message: "voucher no longer applies to this cart",
			})
		} else {
			discount := VoucherDiscount(voucher, subtotal)
			cart.Voucher.Discount = discount
			cart.Discount = discount
		}
	}

	cart.UpdatedAt = now
	stored, err := s.carts.UpsertCart(ctx, cart)
	if err != nil {
		return CartMutationResult{}, translateRepoError(err, ErrCartNotFound)
	}
	return CartMutationResult{Cart: stored, Notices: notices}, nil
}

func findVariant(product Product, sku string) (ProductVariant, bool) {
	for _, variant := range product.Variants {
		if variant.SKU == sku {
			return variant, true
		}
	}
	return ProductVariant{}, false
}

// findLine matches on the product+variant pairing; the same SKU string under
// a different product is a distinct line.
func findLine(cart *Cart, productID, sku string) *CartItem {
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID && cart.Items[i].SKU == sku {
			return &cart.Items[i]
		}
	}
	return nil
}

func findLineIndex(cart Cart, itemID string) int {
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}
