package services

import (
	"context"
	"time"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination         = domain.Pagination
	SortOrder          = domain.SortOrder
	Product            = domain.Product
	ProductVariant     = domain.ProductVariant
	Promotion          = domain.Promotion
	PriceQuote         = domain.PriceQuote
	Voucher            = domain.Voucher
	VoucherKind        = domain.VoucherKind
	Cart               = domain.Cart
	CartItem           = domain.CartItem
	AppliedVoucher     = domain.AppliedVoucher
	Order              = domain.Order
	OrderItem          = domain.OrderItem
	PaymentMethod      = domain.PaymentMethod
	SystemHealthReport = domain.SystemHealthReport
)

// PricingEngine resolves which promotion applies to a product and quotes
// effective variant prices at a given instant.
type PricingEngine interface {
	QuoteVariant(ctx context.Context, product Product, variant ProductVariant, at time.Time) (PriceQuote, error)
	QuoteProduct(ctx context.Context, product Product, at time.Time) (map[string]PriceQuote, error)
	ActivePromotions(ctx context.Context, at time.Time) ([]Promotion, error)
}

// CatalogService serves the storefront and register product surfaces with
// promotion-aware pricing applied.
type CatalogService interface {
	ListProducts(ctx context.Context, query ProductListQuery) (domain.CursorPage[PricedProduct], error)
	GetProduct(ctx context.Context, productID string) (PricedProduct, error)
}

// PromotionService exposes the public promotion listing and admin lifecycle operations.
type PromotionService interface {
	ListActive(ctx context.Context) ([]Promotion, error)
	Create(ctx context.Context, cmd UpsertPromotionCommand) (Promotion, error)
	Update(ctx context.Context, promotionID string, cmd UpsertPromotionCommand) (Promotion, error)
	Delete(ctx context.Context, promotionID string) error
	Get(ctx context.Context, promotionID string) (Promotion, error)
	List(ctx context.Context, filter PromotionListQuery) (domain.CursorPage[Promotion], error)
}

// VoucherService validates voucher codes against order subtotals and exposes
// admin lifecycle operations. Validation never mutates voucher state; Redeem
// consumes one redemption after a successful checkout.
type VoucherService interface {
	Validate(ctx context.Context, cmd ValidateVoucherCommand) (VoucherValidation, error)
	Redeem(ctx context.Context, voucherID string) (Voucher, error)
	Create(ctx context.Context, cmd UpsertVoucherCommand) (Voucher, error)
	Update(ctx context.Context, voucherID string, cmd UpsertVoucherCommand) (Voucher, error)
	Delete(ctx context.Context, voucherID string) error
	Get(ctx context.Context, voucherID string) (Voucher, error)
	List(ctx context.Context, filter VoucherListQuery) (domain.CursorPage[Voucher], error)
}

// CartService manages register cart state: line mutations, voucher
// application, and the running totals ledger.
type CartService interface {
	GetOrCreateCart(ctx context.Context, sessionID string) (Cart, error)
	AddItem(ctx context.Context, cmd AddCartItemCommand) (CartMutationResult, error)
	AdjustQuantity(ctx context.Context, cmd AdjustCartItemCommand) (CartMutationResult, error)
	RemoveItem(ctx context.Context, cmd RemoveCartItemCommand) (CartMutationResult, error)
	ApplyVoucher(ctx context.Context, cmd ApplyVoucherCommand) (CartMutationResult, error)
	RemoveVoucher(ctx context.Context, sessionID string) (CartMutationResult, error)
	ClearCart(ctx context.Context, sessionID string) error
}

// CheckoutService settles a cart into an immutable order, adjusting stock,
// consuming the applied voucher, and emitting a receipt event.
type CheckoutService interface {
	Checkout(ctx context.Context, cmd CheckoutCommand) (Order, error)
}

// OrderService provides admin read access to completed orders.
type OrderService interface {
	ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
}

// AnalyticsService aggregates completed orders into sales reporting views.
type AnalyticsService interface {
	Summary(ctx context.Context, query AnalyticsRangeQuery) (AnalyticsSummary, error)
	Revenue(ctx context.Context, query RevenueQuery) ([]RevenueBucket, error)
}

// SystemService aggregates utility endpoints such as health checks.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// CounterService issues monotonically increasing sequence numbers with
// domain-specific formatting.
type CounterService interface {
	Next(ctx context.Context, scope, name string, opts CounterGenerationOptions) (CounterValue, error)
	NextOrderNumber(ctx context.Context) (string, error)
}

// ReceiptPublisher accepts completed order receipts for downstream processing.
type ReceiptPublisher interface {
	PublishReceipt(ctx context.Context, message OrderReceiptMessage) (string, error)
}

// Command and DTO definitions ------------------------------------------------

// PricedProduct pairs a catalog product with promotion-resolved quotes keyed by variant SKU.
type PricedProduct struct {
	Product Product
	Quotes  map[string]PriceQuote
}

type ProductListQuery struct {
	Status     []string
	Brand      string
	Search     string
	Pagination Pagination
}

type PromotionListQuery struct {
	Status     []string
	Pagination Pagination
}

type VoucherListQuery struct {
	Status     []string
	Pagination Pagination
}

type OrderListFilter = repositories.OrderListFilter

type UpsertPromotionCommand struct {
	Name            string
	Description     string
	DiscountPercent int
	Status          string
	StartsAt        time.Time
	EndsAt          time.Time
	ProductIDs      []string
}

type UpsertVoucherCommand struct {
	Code          string
	Name          string
	Kind          string
	Value         int64
	MaxDiscount   *int64
	MinOrderValue int64
	Quantity      int
	Status        string
	StartsAt      time.Time
	EndsAt        time.Time
}

type ValidateVoucherCommand struct {
	Code     string
	Subtotal int64
}

// VoucherValidation reports the voucher matched by a code together with the
// discount it would grant against the supplied subtotal.
type VoucherValidation struct {
	Voucher  Voucher
	Discount int64
}

type AddCartItemCommand struct {
	SessionID string
	ProductID string
	SKU       string
	Quantity  int
}

// AdjustCartItemCommand changes a line's quantity by Delta. The resulting
// quantity clamps to stock; zero or below removes the line.
type AdjustCartItemCommand struct {
	SessionID string
	ItemID    string
	Delta     int
}

type RemoveCartItemCommand struct {
	SessionID string
	ItemID    string
}

type ApplyVoucherCommand struct {
	SessionID string
	Code      string
}

// CartNotice surfaces a non-fatal condition produced by a cart mutation, such
// as a quantity clamped to available stock or a voucher dropped after the
// subtotal fell below its minimum.
type CartNotice struct {
	Code    string
	Message string
}

// Notice codes emitted by cart mutations.
const (
	CartNoticeQuantityClamped = "quantity_clamped"
	CartNoticeVoucherRemoved  = "voucher_removed"
	CartNoticeItemRemoved     = "item_removed"
)

// CartMutationResult carries the updated cart plus any notices raised while mutating it.
type CartMutationResult struct {
	Cart    Cart
	Notices []CartNotice
}

type CheckoutCommand struct {
	SessionID     string
	PaymentMethod string
	CashTendered  int64
}

type AnalyticsRangeQuery struct {
	From time.Time
	To   time.Time
}

// AnalyticsSummary aggregates completed orders in a date range.
type AnalyticsSummary struct {
	From            time.Time
	To              time.Time
	OrderCount      int
	GrossRevenue    int64
	DiscountGranted int64
	NetRevenue      int64
	ItemsSold       int
	ByPayment       map[string]PaymentAggregate
	TopProducts     []ProductAggregate
}

// PaymentAggregate summarises orders settled with a single payment method.
type PaymentAggregate struct {
	OrderCount int
	NetRevenue int64
}

// ProductAggregate summarises quantity and revenue contributed by one product.
type ProductAggregate struct {
	ProductID string
	Name      string
	Quantity  int
	Revenue   int64
}

// RevenueInterval selects the bucketing granularity for revenue reports.
type RevenueInterval string

const (
	RevenueIntervalDay   RevenueInterval = "day"
	RevenueIntervalWeek  RevenueInterval = "week"
	RevenueIntervalMonth RevenueInterval = "month"
)

type RevenueQuery struct {
	From     time.Time
	To       time.Time
	Interval RevenueInterval
}

// RevenueBucket accumulates revenue for one reporting interval.
type RevenueBucket struct {
	Start      time.Time
	End        time.Time
	OrderCount int
	NetRevenue int64
}

// CounterGenerationOptions controls how counter values are incremented and formatted.
type CounterGenerationOptions struct {
	Step         int64
	MaxValue     *int64
	InitialValue *int64
	Prefix       string
	PadLength    int
	Formatter    func(now time.Time, value int64) string
}

// CounterValue pairs the raw sequence number with its formatted representation.
type CounterValue struct {
	Value     int64
	Formatted string
}

// OrderReceiptMessage is the payload published to the receipt topic after checkout.
type OrderReceiptMessage struct {
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	SessionID     string    `json:"session_id"`
	Subtotal      int64     `json:"subtotal"`
	Discount      int64     `json:"discount"`
	VoucherCode   string    `json:"voucher_code,omitempty"`
	Total         int64     `json:"total"`
	PaymentMethod string    `json:"payment_method"`
	CompletedAt   time.Time `json:"completed_at"`
}
