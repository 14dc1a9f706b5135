package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
)

// ErrPricingInvalidInput indicates the caller supplied an unusable product or variant.
var ErrPricingInvalidInput = errors.New("pricing: invalid input")

// PricingEngineDeps bundles collaborators required to construct a pricing engine.
type PricingEngineDeps struct {
	Promotions repositories.PromotionRepository
	CacheTTL   time.Duration
	Clock      func() time.Time
	Logger     func(context.Context, string, map[string]any)
}

type pricingEngine struct {
	promotions repositories.PromotionRepository
	clock      func() time.Time
	logger     func(context.Context, string, map[string]any)
	cache      *promotionCache
}

var _ PricingEngine = (*pricingEngine)(nil)

// NewPricingEngine constructs the promotion resolver used by the catalog and
// cart surfaces. Active promotions are cached briefly to keep catalog listing
// from re-reading the promotions collection for every product.
func NewPricingEngine(deps PricingEngineDeps) (PricingEngine, error) {
	if deps.Promotions == nil {
		return nil, errors.New("pricing engine: promotion repository is required")
	}

	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	utcClock := func() time.Time { return clock().UTC() }

	return &pricingEngine{
		promotions: deps.Promotions,
		clock:      utcClock,
		logger:     logger,
		cache:      newPromotionCache(ttl, utcClock),
	}, nil
}

func (e *pricingEngine) ActivePromotions(ctx context.Context, at time.Time) ([]Promotion, error) {
	if at.IsZero() {
		at = e.clock()
	}
	at = at.UTC()

	if cached, ok := e.cache.get(at); ok {
		return cached, nil
	}

	promotions, err := e.promotions.ListActive(ctx, at)
	if err != nil {
		e.logger(ctx, "pricing.promotions.list_failed", map[string]any{"error": err.Error()})
		return nil, translateRepoError(err, ErrPromotionNotFound)
	}

	active := make([]Promotion, 0, len(promotions))
	for _, promotion := range promotions {
		if promotionLive(promotion, at) {
			active = append(active, promotion)
		}
	}
	e.cache.put(at, active)
	return active, nil
}

func (e *pricingEngine) QuoteVariant(ctx context.Context, product Product, variant ProductVariant, at time.Time) (PriceQuote, error) {
	if strings.TrimSpace(variant.SKU) == "" {
		return PriceQuote{}, fmt.Errorf("%w: variant sku is required", ErrPricingInvalidInput)
	}
	if variant.Price < 0 {
		return PriceQuote{}, fmt.Errorf("%w: variant price must not be negative", ErrPricingInvalidInput)
	}

	promotions, err := e.ActivePromotions(ctx, at)
	if err != nil {
		return PriceQuote{}, err
	}
	return quoteAgainst(product, variant, promotions), nil
}

func (e *pricingEngine) QuoteProduct(ctx context.Context, product Product, at time.Time) (map[string]PriceQuote, error) {
	if strings.TrimSpace(product.ID) == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrPricingInvalidInput)
	}

	promotions, err := e.ActivePromotions(ctx, at)
	if err != nil {
		return nil, err
	}

	quotes := make(map[string]PriceQuote, len(product.Variants))
	for _, variant := range product.Variants {
		if strings.TrimSpace(variant.SKU) == "" {
			continue
		}
		quotes[variant.SKU] = quoteAgainst(product, variant, promotions)
	}
	return quotes, nil
}

// quoteAgainst picks the winning promotion for the product and prices the
// variant with it. The winner is the eligible promotion with the highest
// discount percent; ties go to the one that started first.
func quoteAgainst(product Product, variant ProductVariant, promotions []Promotion) PriceQuote {
	quote := PriceQuote{
		OriginalPrice: variant.Price,
		FinalPrice:    variant.Price,
	}

	var winner *Promotion
	for i := range promotions {
		promotion := &promotions[i]
		if !promotionCovers(*promotion, product.ID) {
			continue
		}
		if winner == nil {
			winner = promotion
			continue
		}
		if promotion.DiscountPercent > winner.DiscountPercent {
			winner = promotion
			continue
		}
		if promotion.DiscountPercent == winner.DiscountPercent && promotion.StartsAt.Before(winner.StartsAt) {
			winner = promotion
		}
	}
	if winner == nil || winner.DiscountPercent <= 0 {
		return quote
	}

	quote.FinalPrice = domain.DiscountedPrice(variant.Price, winner.DiscountPercent)
	quote.DiscountPercent = winner.DiscountPercent
	quote.HasDiscount = quote.FinalPrice < quote.OriginalPrice
	quote.PromotionID = winner.ID
	quote.PromotionName = winner.Name
	return quote
}

func promotionCovers(promotion Promotion, productID string) bool {
	if len(promotion.ProductIDs) == 0 {
		return true
	}
	for _, id := range promotion.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

func promotionLive(promotion Promotion, at time.Time) bool {
	if promotion.Status != domain.PromotionStatusActive {
		return false
	}
	if at.Before(promotion.StartsAt) {
		return false
	}
	if !promotion.EndsAt.IsZero() && at.After(promotion.EndsAt) {
		return false
	}
	return true
}

// promotionCache memoises the active promotion set per resolution minute so a
// catalog page prices all of its products from one repository read.
type promotionCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   func() time.Time
	key     time.Time
	stored  []Promotion
	expires time.Time
}

func newPromotionCache(ttl time.Duration, clock func() time.Time) *promotionCache {
	return &promotionCache{ttl: ttl, clock: clock}
}

func (c *promotionCache) get(at time.Time) ([]Promotion, bool) {
	key := at.Truncate(time.Minute)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.key.Equal(key) || c.clock().After(c.expires) {
		return nil, false
	}
	out := make([]Promotion, len(c.stored))
	copy(out, c.stored)
	return out, true
}

func (c *promotionCache) put(at time.Time, promotions []Promotion) {
	stored := make([]Promotion, len(promotions))
	copy(stored, promotions)
	sort.SliceStable(stored, func(i, j int) bool { return stored[i].StartsAt.Before(stored[j].StartsAt) })

	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = at.Truncate(time.Minute)
	c.stored = stored
	c.expires = c.clock().Add(c.ttl)
}
