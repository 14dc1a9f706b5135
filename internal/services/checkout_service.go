package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/platform/observability"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
)

// ErrCheckoutInvalidInput indicates the caller supplied invalid checkout parameters.
var ErrCheckoutInvalidInput = errors.New("checkout: invalid input")

const receiptPublishTimeout = 10 * time.Second

// CheckoutServiceDeps wires the dependencies required by the checkout service.
type CheckoutServiceDeps struct {
	Carts       repositories.CartRepository
	Settlements repositories.OrderSettler
	Counters    CounterService
	Receipts    ReceiptPublisher
	Metrics     *observability.CheckoutMetrics
	Clock       func() time.Time
	IDGen       func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	carts       repositories.CartRepository
	settlements repositories.OrderSettler
	counters    CounterService
	receipts    ReceiptPublisher
	metrics     *observability.CheckoutMetrics
	clock       func() time.Time
	idGen       func() string
	logger      func(ctx context.Context, event string, fields map[string]any)
}

var _ CheckoutService = (*checkoutService)(nil)

// NewCheckoutService constructs the checkout pipeline: settle the cart into an
// immutable order, decrement stock, consume the voucher, and emit a receipt.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Carts == nil {
		return nil, errors.New("checkout service: cart repository is required")
	}
	if deps.Settlements == nil {
		return nil, errors.New("checkout service: order settler is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("checkout service: counter service is required")
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

	return &checkoutService{
		carts:       deps.Carts,
		settlements: deps.Settlements,
		counters:    deps.Counters,
		receipts:    deps.Receipts,
		metrics:     deps.Metrics,
		clock: func() time.Time {
			return clock().UTC()
		},
		idGen:  idGen,
		logger: logger,
	}, nil
}

func (s *checkoutService) Checkout(ctx context.Context, cmd CheckoutCommand) (Order, error) {
	sessionID := strings.TrimSpace(cmd.SessionID)
	if sessionID == "" {
		return Order{}, fmt.Errorf("%w: session id is required", ErrCheckoutInvalidInput)
	}

	method := domain.PaymentMethod(strings.ToLower(strings.TrimSpace(cmd.PaymentMethod)))
	if method != domain.PaymentMethodCash && method != domain.PaymentMethodTransfer {
		return Order{}, fmt.Errorf("%w: payment method must be cash or transfer", ErrCheckoutInvalidInput)
	}

	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return Order{}, translateRepoError(err, ErrCartNotFound)
	}
	if len(cart.Items) == 0 {
		return Order{}, ErrCheckoutEmptyCart
	}

	subtotal := cart.Subtotal()
	discount := cart.Discount
	if discount > subtotal {
		discount = subtotal
	}
	total := subtotal - discount

	var tendered, change int64
	switch method {
	case domain.PaymentMethodCash:
		if cmd.CashTendered < total {
			return Order{}, fmt.Errorf("%w: total is %d", ErrCheckoutInsufficientPayment, total)
		}
		tendered = cmd.CashTendered
		change = cmd.CashTendered - total
	case domain.PaymentMethodTransfer:
		tendered = total
	}

	number, err := s.counters.NextOrderNumber(ctx)
	if err != nil {
		return Order{}, err
	}

	now := s.clock()
	order := Order{
		ID:            s.idGen(),
		Number:        number,
		SessionID:     sessionID,
		Items:         orderLinesFromCart(cart),
		Subtotal:      subtotal,
		Discount:      discount,
		Total:         total,
		PaymentMethod: method,
		CashTendered:  tendered,
		ChangeDue:     change,
		CreatedAt:     now,
	}
	if cart.Voucher != nil {
		order.VoucherCode = cart.Voucher.Code
	}

	settlement := repositories.OrderSettlement{
		StockAdjustments: make([]repositories.StockAdjustment, 0, len(order.Items)),
		Order:            order,
	}
	for _, line := range order.Items {
		settlement.StockAdjustments = append(settlement.StockAdjustments, repositories.StockAdjustment{
			ProductID: line.ProductID,
			SKU:       line.SKU,
			Delta:     -line.Quantity,
		})
	}
	if cart.Voucher != nil {
		settlement.VoucherID = cart.Voucher.VoucherID
	}

	if err := s.settlements.SettleOrder(ctx, settlement); err != nil {
		var settleErr *repositories.SettlementError
		if errors.As(err, &settleErr) {
			switch settleErr.Code {
			case repositories.SettlementErrorStockShort:
				return Order{}, fmt.Errorf("%w: %s", ErrCartCapacityExceeded, settleErr.SKU)
			case repositories.SettlementErrorVoucherExhausted:
				return Order{}, ErrVoucherExhausted
			case repositories.SettlementErrorNotFound:
				return Order{}, fmt.Errorf("%w: %s", ErrProductNotFound, settleErr.Message)
			}
		}
		return Order{}, translateRepoError(err, ErrProductNotFound)
	}

	if err := s.carts.DeleteCart(ctx, sessionID); err != nil {
		// The order is committed; a stale cart is recoverable.
		s.logger(ctx, "checkout.cart_cleanup_failed", map[string]any{
			"session_id": sessionID,
			"order_id":   order.ID,
			"error":      err.Error(),
		})
	}

	s.metrics.RecordOrder(ctx, string(method), total, discount > 0)
	s.logger(ctx, "checkout.completed", map[string]any{
		"order_id":     order.ID,
		"order_number": order.Number,
		"session_id":   sessionID,
		"total":        total,
	})

	if err := s.publishReceipt(ctx, order); err != nil {
		// The order is committed; the caller learns the receipt never left.
		return order, err
	}

	return order, nil
}

// publishReceipt hands the receipt message to the sink once. Failures surface
// to the caller with the committed order; retries are the sink's problem.
func (s *checkoutService) publishReceipt(ctx context.Context, order Order) error {
	if s.receipts == nil {
		return nil
	}
	message := OrderReceiptMessage{
		OrderID:       order.ID,
		OrderNumber:   order.Number,
		SessionID:     order.SessionID,
		Subtotal:      order.Subtotal,
		Discount:      order.Discount,
		VoucherCode:   order.VoucherCode,
		Total:         order.Total,
		PaymentMethod: string(order.PaymentMethod),
		CompletedAt:   order.CreatedAt,
	}

	ctx, cancel := context.WithTimeout(ctx, receiptPublishTimeout)
	defer cancel()
	if _, err := s.receipts.PublishReceipt(ctx, message); err != nil {
		s.logger(ctx, "checkout.receipt_publish_failed", map[string]any{
			"order_id": message.OrderID,
			"error":    err.Error(),
		})
		return fmt.Errorf("%w: %s", ErrReceiptPublishFailed, err)
	}
	return nil
}

func orderLinesFromCart(cart Cart) []OrderItem {
	items := make([]OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, OrderItem{
			ProductID:     line.ProductID,
			SKU:           line.SKU,
			Name:          line.Name,
			Color:         line.Color,
			Size:          line.Size,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			OriginalPrice: line.OriginalPrice,
			PromotionID:   line.PromotionID,
			LineTotal:     line.UnitPrice * int64(line.Quantity),
		})
	}
	return items
}
