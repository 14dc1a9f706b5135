package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kidiezyllex/street-sneaker-sub000/internal/platform/httpx"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/services"
)

// AnalyticsHandlers exposes the admin sales reporting endpoints.
type AnalyticsHandlers struct {
	analytics services.AnalyticsService
}

// NewAnalyticsHandlers constructs analytics handlers.
func NewAnalyticsHandlers(analytics services.AnalyticsService) *AnalyticsHandlers {
	return &AnalyticsHandlers{analytics: analytics}
}

// Routes registers the /analytics endpoints.
func (h *AnalyticsHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/summary", h.summary)
	r.Get("/revenue", h.revenue)
}

type analyticsSummaryResponse struct {
	From            string                             `json:"from"`
	To              string                             `json:"to"`
	OrderCount      int                                `json:"order_count"`
	GrossRevenue    int64                              `json:"gross_revenue"`
	DiscountGranted int64                              `json:"discount_granted"`
	NetRevenue      int64                              `json:"net_revenue"`
	ItemsSold       int                                `json:"items_sold"`
	ByPayment       map[string]paymentAggregatePayload `json:"by_payment"`
	TopProducts     []productAggregatePayload          `json:"top_products"`
}

type paymentAggregatePayload struct {
	OrderCount int   `json:"order_count"`
	NetRevenue int64 `json:"net_revenue"`
}

type productAggregatePayload struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
	Revenue   int64  `json:"revenue"`
}

type revenueResponse struct {
	Interval string                 `json:"interval"`
	Buckets  []revenueBucketPayload `json:"buckets"`
}

type revenueBucketPayload struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	OrderCount int    `json:"order_count"`
	NetRevenue int64  `json:"net_revenue"`
}

func (h *AnalyticsHandlers) summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.analytics == nil {
		httpx.WriteError(ctx, w, httpx.NewError("analytics_unavailable", "analytics service unavailable", http.StatusServiceUnavailable))
		return
	}

	rangeQuery, ok := parseAnalyticsRange(w, r)
	if !ok {
		return
	}

	summary, err := h.analytics.Summary(ctx, rangeQuery)
	if err != nil {
		writeAnalyticsError(ctx, w, err)
		return
	}

	payload := analyticsSummaryResponse{
		From:            formatTime(summary.From),
		To:              formatTime(summary.To),
		OrderCount:      summary.OrderCount,
		GrossRevenue:    summary.GrossRevenue,
		DiscountGranted: summary.DiscountGranted,
		NetRevenue:      summary.NetRevenue,
		ItemsSold:       summary.ItemsSold,
		ByPayment:       make(map[string]paymentAggregatePayload, len(summary.ByPayment)),
		TopProducts:     make([]productAggregatePayload, 0, len(summary.TopProducts)),
	}
	for method, aggregate := range summary.ByPayment {
		payload.ByPayment[method] = paymentAggregatePayload{
			OrderCount: aggregate.OrderCount,
			NetRevenue: aggregate.NetRevenue,
		}
	}
	for _, product := range summary.TopProducts {
		payload.TopProducts = append(payload.TopProducts, productAggregatePayload{
			ProductID: product.ProductID,
			Name:      product.Name,
			Quantity:  product.Quantity,
			Revenue:   product.Revenue,
		})
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *AnalyticsHandlers) revenue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.analytics == nil {
		httpx.WriteError(ctx, w, httpx.NewError("analytics_unavailable", "analytics service unavailable", http.StatusServiceUnavailable))
		return
	}

	rangeQuery, ok := parseAnalyticsRange(w, r)
	if !ok {
		return
	}

	interval := services.RevenueIntervalDay
	if raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("interval"))); raw != "" {
		interval = services.RevenueInterval(raw)
	}

	buckets, err := h.analytics.Revenue(ctx, services.RevenueQuery{
		From:     rangeQuery.From,
		To:       rangeQuery.To,
		Interval: interval,
	})
	if err != nil {
		writeAnalyticsError(ctx, w, err)
		return
	}

	payload := revenueResponse{
		Interval: string(interval),
		Buckets:  make([]revenueBucketPayload, 0, len(buckets)),
	}
	for _, bucket := range buckets {
		payload.Buckets = append(payload.Buckets, revenueBucketPayload{
			Start:      formatTime(bucket.Start),
			End:        formatTime(bucket.End),
			OrderCount: bucket.OrderCount,
			NetRevenue: bucket.NetRevenue,
		})
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func parseAnalyticsRange(w http.ResponseWriter, r *http.Request) (services.AnalyticsRangeQuery, bool) {
	ctx := r.Context()
	query := r.URL.Query()

	var rangeQuery services.AnalyticsRangeQuery
	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "from must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return services.AnalyticsRangeQuery{}, false
		}
		rangeQuery.From = ts
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "to must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return services.AnalyticsRangeQuery{}, false
		}
		rangeQuery.To = ts
	}
	return rangeQuery, true
}

func writeAnalyticsError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAnalyticsInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("analytics_unavailable", "analytics service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("analytics_error", "failed to build analytics report", http.StatusInternalServerError))
	}
}
