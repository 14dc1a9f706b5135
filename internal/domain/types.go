package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// ProductStatus enumerates catalog visibility states for products.
type ProductStatus string

const (
	// ProductStatusActive indicates the product is visible and sellable.
	ProductStatusActive ProductStatus = "active"
	// ProductStatusInactive indicates the product is hidden from the storefront and POS.
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is a catalog entry with per-variant pricing and stock.
type Product struct {
	ID          string
	Code        string
	Name        string
	Brand       string
	Description string
	ImageURLs   []string
	Status      ProductStatus
	Variants    []ProductVariant
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductVariant identifies one sellable colour/size pairing of a product.
type ProductVariant struct {
	SKU      string
	Color    string
	Size     string
	Stock    int
	Price    int64
	ImageURL string
}

// PromotionStatus enumerates lifecycle states for promotional campaigns.
type PromotionStatus string

const (
	// PromotionStatusActive indicates the campaign may apply inside its window.
	PromotionStatusActive PromotionStatus = "active"
	// PromotionStatusInactive indicates the campaign never applies.
	PromotionStatusInactive PromotionStatus = "inactive"
)

// Promotion describes a time-bounded percentage campaign. An empty ProductIDs
// slice means the campaign applies to the whole catalog.
type Promotion struct {
	ID              string
	Name            string
	Description     string
	DiscountPercent int
	Status          PromotionStatus
	StartsAt        time.Time
	EndsAt          time.Time
	ProductIDs      []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PriceQuote is the resolver output for one product variant at one instant.
type PriceQuote struct {
	OriginalPrice   int64
	FinalPrice      int64
	DiscountPercent int
	HasDiscount     bool
	PromotionID     string
	PromotionName   string
}

// VoucherKind distinguishes percentage vouchers from fixed-amount vouchers.
type VoucherKind string

const (
	// VoucherKindPercentage discounts a percentage of the subtotal.
	VoucherKindPercentage VoucherKind = "percentage"
	// VoucherKindFixed discounts a fixed amount.
	VoucherKindFixed VoucherKind = "fixed"
)

// VoucherStatus enumerates redemption states for vouchers.
type VoucherStatus string

const (
	// VoucherStatusActive indicates the voucher may be redeemed inside its window.
	VoucherStatusActive VoucherStatus = "active"
	// VoucherStatusInactive indicates the voucher is disabled.
	VoucherStatusInactive VoucherStatus = "inactive"
)

// Voucher is a redeemable code with a finite quota. Codes match exactly and
// case-sensitively. MaxDiscount is meaningful only for percentage vouchers;
// it stays nil when no cap applies. Invariant: UsedCount <= Quantity.
type Voucher struct {
	ID            string
	Code          string
	Name          string
	Kind          VoucherKind
	Value         int64
	MaxDiscount   *int64
	MinOrderValue int64
	Quantity      int
	UsedCount     int
	Status        VoucherStatus
	StartsAt      time.Time
	EndsAt        time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Remaining reports how many redemptions the voucher still allows.
func (v Voucher) Remaining() int {
	remaining := v.Quantity - v.UsedCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Cart aggregates the mutable POS cart state for one session.
type Cart struct {
	ID        string
	Items     []CartItem
	Voucher   *AppliedVoucher
	Discount  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem stores one product+variant line with the price snapshotted at add
// time. OriginalPrice keeps the pre-promotion price for display; UnitPrice is
// what the line is charged at and is never recomputed from live promotions.
type CartItem struct {
	ID            string
	ProductID     string
	SKU           string
	Name          string
	Color         string
	Size          string
	ImageURL      string
	Quantity      int
	UnitPrice     int64
	OriginalPrice int64
	PromotionID   string
	AddedAt       time.Time
}

// AppliedVoucher captures the voucher snapshot held by a cart together with
// the discount computed against the cart's current subtotal.
type AppliedVoucher struct {
	VoucherID string
	Code      string
	Kind      VoucherKind
	Value     int64
	Discount  int64
}

// Subtotal sums unit price times quantity over all lines.
func (c Cart) Subtotal() int64 {
	var subtotal int64
	for _, item := range c.Items {
		if item.Quantity <= 0 || item.UnitPrice < 0 {
			continue
		}
		subtotal += item.UnitPrice * int64(item.Quantity)
	}
	return subtotal
}

// Total is the subtotal minus the cached voucher discount, floored at zero.
func (c Cart) Total() int64 {
	total := c.Subtotal() - c.Discount
	if total < 0 {
		return 0
	}
	return total
}

// PaymentMethod enumerates settlement methods accepted at checkout.
type PaymentMethod string

const (
	// PaymentMethodCash settles with tendered cash and change due.
	PaymentMethodCash PaymentMethod = "cash"
	// PaymentMethodTransfer settles with a confirmed bank transfer.
	PaymentMethodTransfer PaymentMethod = "transfer"
)

// Order is the immutable record produced by a successful checkout.
type Order struct {
	ID            string
	Number        string
	SessionID     string
	Items         []OrderItem
	Subtotal      int64
	Discount      int64
	VoucherCode   string
	Total         int64
	PaymentMethod PaymentMethod
	CashTendered  int64
	ChangeDue     int64
	CreatedAt     time.Time
}

// OrderItem mirrors a cart line at the moment of checkout.
type OrderItem struct {
	ProductID     string
	SKU           string
	Name          string
	Color         string
	Size          string
	Quantity      int
	UnitPrice     int64
	OriginalPrice int64
	PromotionID   string
	LineTotal     int64
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one dependency is degraded but service remains running.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)

// SystemHealthCheck describes the outcome of an individual dependency probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for health endpoints.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Version     string
	CommitSHA   string
	Environment string
	Uptime      time.Duration
	GeneratedAt time.Time
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}
