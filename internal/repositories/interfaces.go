package repositories

import (
	"context"
	"time"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Products() ProductRepository
	Promotions() PromotionRepository
	Vouchers() VoucherRepository
	Carts() CartRepository
	Orders() OrderRepository
	Counters() CounterRepository
	Health() HealthRepository
	OrderSettler
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// OrderSettler commits a checkout atomically: stock decrements, the optional
// voucher redemption, and the order insert either all land or none do.
type OrderSettler interface {
	SettleOrder(ctx context.Context, settlement OrderSettlement) error
}

// OrderSettlement describes the writes a checkout must commit together.
type OrderSettlement struct {
	StockAdjustments []StockAdjustment
	VoucherID        string
	Order            domain.Order
}

// StockAdjustment is a signed stock delta against a single variant.
type StockAdjustment struct {
	ProductID string
	SKU       string
	Delta     int
}

// ProductRepository persists catalog products and their variants.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	FindBySKU(ctx context.Context, sku string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[domain.Product], error)
}

// PromotionRepository maintains promotion definitions.
type PromotionRepository interface {
	Insert(ctx context.Context, promotion domain.Promotion) error
	Update(ctx context.Context, promotion domain.Promotion) error
	Delete(ctx context.Context, promotionID string) error
	FindByID(ctx context.Context, promotionID string) (domain.Promotion, error)
	ListActive(ctx context.Context, at time.Time) ([]domain.Promotion, error)
	List(ctx context.Context, filter PromotionListFilter) (domain.CursorPage[domain.Promotion], error)
}

// VoucherRepository maintains voucher definitions and redemption counters.
type VoucherRepository interface {
	Insert(ctx context.Context, voucher domain.Voucher) error
	Update(ctx context.Context, voucher domain.Voucher) error
	Delete(ctx context.Context, voucherID string) error
	FindByID(ctx context.Context, voucherID string) (domain.Voucher, error)
	FindByCode(ctx context.Context, code string) (domain.Voucher, error)
	// Redeem increments the usage counter for the voucher, failing with a
	// conflict error when the voucher has no redemptions left.
	Redeem(ctx context.Context, voucherID string, now time.Time) (domain.Voucher, error)
	List(ctx context.Context, filter VoucherListFilter) (domain.CursorPage[domain.Voucher], error)
}

// CartRepository owns register cart persistence keyed by session.
type CartRepository interface {
	UpsertCart(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	GetCart(ctx context.Context, sessionID string) (domain.Cart, error)
	DeleteCart(ctx context.Context, sessionID string) error
}

// OrderRepository persists completed orders and provides query helpers for admins.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
	// ListInRange returns every order created inside the half-open interval
	// [from, to) ordered by creation time, for analytics aggregation.
	ListInRange(ctx context.Context, from, to time.Time) ([]domain.Order, error)
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
	Configure(ctx context.Context, counterID string, cfg CounterConfig) error
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// Filter DTOs shared across repositories ------------------------------------

type ProductListFilter struct {
	Status     []string
	Brand      *string
	Search     string
	Pagination domain.Pagination
}

type PromotionListFilter struct {
	Status     []string
	Pagination domain.Pagination
}

type VoucherListFilter struct {
	Status     []string
	Pagination domain.Pagination
}

type OrderListFilter struct {
	SessionID     string
	PaymentMethod *string
	DateRange     domain.RangeQuery[time.Time]
	Pagination    domain.Pagination
}

// CounterConfig customises increment behaviour and bounds for a counter.
type CounterConfig struct {
	Step         int64
	MaxValue     *int64
	InitialValue *int64
}
