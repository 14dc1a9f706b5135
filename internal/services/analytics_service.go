package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
)

// ErrAnalyticsInvalidInput indicates the caller supplied an invalid reporting query.
var ErrAnalyticsInvalidInput = errors.New("analytics: invalid input")

const topProductLimit = 10

// AnalyticsServiceDeps bundles collaborators required to construct an analytics service.
type AnalyticsServiceDeps struct {
	Orders repositories.OrderRepository
	Clock  func() time.Time
	Logger func(context.Context, string, map[string]any)
}

type analyticsService struct {
	orders repositories.OrderRepository
	clock  func() time.Time
	logger func(context.Context, string, map[string]any)
}

var _ AnalyticsService = (*analyticsService)(nil)

// NewAnalyticsService constructs the sales reporting service. Aggregations run
// over the immutable order log, never over live cart state.
func NewAnalyticsService(deps AnalyticsServiceDeps) (AnalyticsService, error) {
	if deps.Orders == nil {
		return nil, errors.New("analytics service: order repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &analyticsService{
		orders: deps.Orders,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *analyticsService) Summary(ctx context.Context, query AnalyticsRangeQuery) (AnalyticsSummary, error) {
	from, to, err := s.normaliseRange(query.From, query.To)
	if err != nil {
		return AnalyticsSummary{}, err
	}

	orders, err := s.orders.ListInRange(ctx, from, to)
	if err != nil {
		return AnalyticsSummary{}, translateRepoError(err, ErrOrderNotFound)
	}

	summary := AnalyticsSummary{
		From:      from,
		To:        to,
		ByPayment: make(map[string]PaymentAggregate),
	}
	productTotals := make(map[string]*ProductAggregate)

	for _, order := range orders {
		summary.OrderCount++
		summary.GrossRevenue += order.Subtotal
		summary.DiscountGranted += order.Discount
		summary.NetRevenue += order.Total

		payment := summary.ByPayment[string(order.PaymentMethod)]
		payment.OrderCount++
		payment.NetRevenue += order.Total
		summary.ByPayment[string(order.PaymentMethod)] = payment

		for _, line := range order.Items {
			summary.ItemsSold += line.Quantity
			aggregate, ok := productTotals[line.ProductID]
			if !ok {
				aggregate = &ProductAggregate{ProductID: line.ProductID, Name: line.Name}
				productTotals[line.ProductID] = aggregate
			}
			aggregate.Quantity += line.Quantity
			aggregate.Revenue += line.LineTotal
		}
	}

	summary.TopProducts = rankProducts(productTotals)
	return summary, nil
}

func (s *analyticsService) Revenue(ctx context.Context, query RevenueQuery) ([]RevenueBucket, error) {
	from, to, err := s.normaliseRange(query.From, query.To)
	if err != nil {
		return nil, err
	}

	interval := query.Interval
	if interval == "" {
		interval = RevenueIntervalDay
	}
	switch interval {
	case RevenueIntervalDay, RevenueIntervalWeek, RevenueIntervalMonth:
	default:
		return nil, fmt.Errorf("%w: unknown interval %q", ErrAnalyticsInvalidInput, interval)
	}

	orders, err := s.orders.ListInRange(ctx, from, to)
	if err != nil {
		return nil, translateRepoError(err, ErrOrderNotFound)
	}

	buckets := buildBuckets(from, to, interval)
	for _, order := range orders {
		for i := range buckets {
			bucket := &buckets[i]
			if !order.CreatedAt.Before(bucket.Start) && order.CreatedAt.Before(bucket.End) {
				bucket.OrderCount++
				bucket.NetRevenue += order.Total
				break
			}
		}
	}
	return buckets, nil
}

// normaliseRange defaults an open range to the trailing 30 days and enforces
// the half-open [from, to) convention.
func (s *analyticsService) normaliseRange(from, to time.Time) (time.Time, time.Time, error) {
	now := s.clock()
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	from = from.UTC()
	to = to.UTC()
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from must be before to", ErrAnalyticsInvalidInput)
	}
	return from, to, nil
}

func buildBuckets(from, to time.Time, interval RevenueInterval) []RevenueBucket {
	var buckets []RevenueBucket
	cursor := bucketStart(from, interval)
	for cursor.Before(to) {
		next := advanceBucket(cursor, interval)
		start := cursor
		if start.Before(from) {
			start = from
		}
		end := next
		if end.After(to) {
			end = to
		}
		buckets = append(buckets, RevenueBucket{Start: start, End: end})
		cursor = next
	}
	return buckets
}

func bucketStart(at time.Time, interval RevenueInterval) time.Time {
	at = at.UTC()
	switch interval {
	case RevenueIntervalWeek:
		day := at.Truncate(24 * time.Hour)
		// ISO weeks start on Monday.
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case RevenueIntervalMonth:
		return time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return at.Truncate(24 * time.Hour)
	}
}

func advanceBucket(at time.Time, interval RevenueInterval) time.Time {
	switch interval {
	case RevenueIntervalWeek:
		return at.AddDate(0, 0, 7)
	case RevenueIntervalMonth:
		return at.AddDate(0, 1, 0)
	default:
		return at.AddDate(0, 0, 1)
	}
}

func rankProducts(totals map[string]*ProductAggregate) []ProductAggregate {
	ranked := make([]ProductAggregate, 0, len(totals))
	for _, aggregate := range totals {
		ranked = append(ranked, *aggregate)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity != ranked[j].Quantity {
			return ranked[i].Quantity > ranked[j].Quantity
		}
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})
	if len(ranked) > topProductLimit {
		ranked = ranked[:topProductLimit]
	}
	return ranked
}
