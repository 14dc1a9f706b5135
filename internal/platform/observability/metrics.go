package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("github.com/kidiezyllex/street-sneaker-sub000/internal/platform/observability")

// CheckoutMetrics counts completed checkouts and records order totals.
type CheckoutMetrics struct {
	orders metric.Int64Counter
	totals metric.Int64Histogram
}

// NewCheckoutMetrics registers the checkout instruments on the global meter.
func NewCheckoutMetrics() (*CheckoutMetrics, error) {
	orders, err := meter.Int64Counter(
		"pos.checkout.orders",
		metric.WithDescription("Completed checkout count by payment method"),
	)
	if err != nil {
		return nil, err
	}
	totals, err := meter.Int64Histogram(
		"pos.checkout.order_total",
		metric.WithDescription("Order totals in whole currency units"),
	)
	if err != nil {
		return nil, err
	}
	return &CheckoutMetrics{orders: orders, totals: totals}, nil
}

// RecordOrder records one completed order.
func (m *CheckoutMetrics) RecordOrder(ctx context.Context, paymentMethod string, total int64, discounted bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("payment_method", paymentMethod),
		attribute.Bool("discounted", discounted),
	)
	m.orders.Add(ctx, 1, attrs)
	m.totals.Record(ctx, total, attrs)
}
