package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
)

// ErrOrderInvalidInput indicates the caller supplied invalid order query parameters.
var ErrOrderInvalidInput = errors.New("order: invalid input")

// OrderServiceDeps bundles collaborators required to construct an order service.
type OrderServiceDeps struct {
	Repository repositories.OrderRepository
	Logger     func(context.Context, string, map[string]any)
}

type orderService struct {
	repo   repositories.OrderRepository
	logger func(context.Context, string, map[string]any)
}

var _ OrderService = (*orderService)(nil)

// NewOrderService constructs the admin order reader. Orders are immutable once
// written, so the service exposes lookups only.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Repository == nil {
		return nil, errors.New("order service: repository is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{repo: deps.Repository, logger: logger}, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error) {
	if method := filter.PaymentMethod; method != nil {
		normalised := strings.ToLower(strings.TrimSpace(*method))
		if normalised != string(domain.PaymentMethodCash) && normalised != string(domain.PaymentMethodTransfer) {
			return domain.CursorPage[Order]{}, fmt.Errorf("%w: unknown payment method %q", ErrOrderInvalidInput, *method)
		}
		filter.PaymentMethod = &normalised
	}
	if filter.DateRange.From != nil && filter.DateRange.To != nil && filter.DateRange.To.Before(*filter.DateRange.From) {
		return domain.CursorPage[Order]{}, fmt.Errorf("%w: date range is inverted", ErrOrderInvalidInput)
	}
	filter.SessionID = strings.TrimSpace(filter.SessionID)

	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Order]{}, translateRepoError(err, ErrOrderNotFound)
	}
	return page, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, translateRepoError(err, ErrOrderNotFound)
	}
	return order, nil
}
