package services

import (
	"context"
	"time"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
)

// repositoryErrorStub satisfies repositories.RepositoryError for error-path tests.
type repositoryErrorStub struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *repositoryErrorStub) Error() string {
	switch {
	case e.notFound:
		return "stub: not found"
	case e.conflict:
		return "stub: conflict"
	default:
		return "stub: unavailable"
	}
}

func (e *repositoryErrorStub) IsNotFound() bool    { return e.notFound }
func (e *repositoryErrorStub) IsConflict() bool    { return e.conflict }
func (e *repositoryErrorStub) IsUnavailable() bool { return e.unavailable }

type stubProductRepository struct {
	insertFunc    func(ctx context.Context, product domain.Product) error
	updateFunc    func(ctx context.Context, product domain.Product) error
	findByIDFunc  func(ctx context.Context, productID string) (domain.Product, error)
	findBySKUFunc func(ctx context.Context, sku string) (domain.Product, error)
	listFunc      func(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error)
}

func (s *stubProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if s.insertFunc == nil {
		return nil
	}
	return s.insertFunc(ctx, product)
}

func (s *stubProductRepository) Update(ctx context.Context, product domain.Product) error {
	if s.updateFunc == nil {
		return nil
	}
	return s.updateFunc(ctx, product)
}

func (s *stubProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if s.findByIDFunc == nil {
		return domain.Product{}, &repositoryErrorStub{notFound: true}
	}
	return s.findByIDFunc(ctx, productID)
}

func (s *stubProductRepository) FindBySKU(ctx context.Context, sku string) (domain.Product, error) {
	if s.findBySKUFunc == nil {
		return domain.Product{}, &repositoryErrorStub{notFound: true}
	}
	return s.findBySKUFunc(ctx, sku)
}

func (s *stubProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if s.listFunc == nil {
		return domain.CursorPage[domain.Product]{}, nil
	}
	return s.listFunc(ctx, filter)
}

type stubPromotionRepository struct {
	insertFunc     func(ctx context.Context, promotion domain.Promotion) error
	updateFunc     func(ctx context.Context, promotion domain.Promotion) error
	deleteFunc     func(ctx context.Context, promotionID string) error
	findByIDFunc   func(ctx context.Context, promotionID string) (domain.Promotion, error)
	listActiveFunc func(ctx context.Context, at time.Time) ([]domain.Promotion, error)
	listFunc       func(ctx context.Context, filter repositories.PromotionListFilter) (domain.CursorPage[domain.Promotion], error)
}

func (s *stubPromotionRepository) Insert(ctx context.Context, promotion domain.Promotion) error {
	if s.insertFunc == nil {
		return nil
	}
	return s.insertFunc(ctx, promotion)
}

func (s *stubPromotionRepository) Update(ctx context.Context, promotion domain.Promotion) error {
	if s.updateFunc == nil {
		return nil
	}
	return s.updateFunc(ctx, promotion)
}

func (s *stubPromotionRepository) Delete(ctx context.Context, promotionID string) error {
	if s.deleteFunc == nil {
		return nil
	}
	return s.deleteFunc(ctx, promotionID)
}

func (s *stubPromotionRepository) FindByID(ctx context.Context, promotionID string) (domain.Promotion, error) {
	if s.findByIDFunc == nil {
		return domain.Promotion{}, &repositoryErrorStub{notFound: true}
	}
	return s.findByIDFunc(ctx, promotionID)
}

func (s *stubPromotionRepository) ListActive(ctx context.Context, at time.Time) ([]domain.Promotion, error) {
	if s.listActiveFunc == nil {
		return nil, nil
	}
	return s.listActiveFunc(ctx, at)
}

func (s *stubPromotionRepository) List(ctx context.Context, filter repositories.PromotionListFilter) (domain.CursorPage[domain.Promotion], error) {
	if s.listFunc == nil {
		return domain.CursorPage[domain.Promotion]{}, nil
	}
	return s.listFunc(ctx, filter)
}

type stubVoucherRepository struct {
	insertFunc     func(ctx context.Context, voucher domain.Voucher) error
	updateFunc     func(ctx context.Context, voucher domain.Voucher) error
	deleteFunc     func(ctx context.Context, voucherID string) error
	findByIDFunc   func(ctx context.Context, voucherID string) (domain.Voucher, error)
	findByCodeFunc func(ctx context.Context, code string) (domain.Voucher, error)
	redeemFunc     func(ctx context.Context, voucherID string, now time.Time) (domain.Voucher, error)
	listFunc       func(ctx context.Context, filter repositories.VoucherListFilter) (domain.CursorPage[domain.Voucher], error)
}

func (s *stubVoucherRepository) Insert(ctx context.Context, voucher domain.Voucher) error {
	if s.insertFunc == nil {
		return nil
	}
	return s.insertFunc(ctx, voucher)
}

func (s *stubVoucherRepository) Update(ctx context.Context, voucher domain.Voucher) error {
	if s.updateFunc == nil {
		return nil
	}
	return s.updateFunc(ctx, voucher)
}

func (s *stubVoucherRepository) Delete(ctx context.Context, voucherID string) error {
	if s.deleteFunc == nil {
		return nil
	}
	return s.deleteFunc(ctx, voucherID)
}

func (s *stubVoucherRepository) FindByID(ctx context.Context, voucherID string) (domain.Voucher, error) {
	if s.findByIDFunc == nil {
		return domain.Voucher{}, &repositoryErrorStub{notFound: true}
	}
	return s.findByIDFunc(ctx, voucherID)
}

func (s *stubVoucherRepository) FindByCode(ctx context.Context, code string) (domain.Voucher, error) {
	if s.findByCodeFunc == nil {
		return domain.Voucher{}, &repositoryErrorStub{notFound: true}
	}
	return s.findByCodeFunc(ctx, code)
}

func (s *stubVoucherRepository) Redeem(ctx context.Context, voucherID string, now time.Time) (domain.Voucher, error) {
	if s.redeemFunc == nil {
		return domain.Voucher{}, nil
	}
	return s.redeemFunc(ctx, voucherID, now)
}

func (s *stubVoucherRepository) List(ctx context.Context, filter repositories.VoucherListFilter) (domain.CursorPage[domain.Voucher], error) {
	if s.listFunc == nil {
		return domain.CursorPage[domain.Voucher]{}, nil
	}
	return s.listFunc(ctx, filter)
}

type stubCartRepository struct {
	upsertFunc func(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	getFunc    func(ctx context.Context, sessionID string) (domain.Cart, error)
	deleteFunc func(ctx context.Context, sessionID string) error
}

func (s *stubCartRepository) UpsertCart(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if s.upsertFunc == nil {
		return cart, nil
	}
	return s.upsertFunc(ctx, cart)
}

func (s *stubCartRepository) GetCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	if s.getFunc == nil {
		return domain.Cart{}, &repositoryErrorStub{notFound: true}
	}
	return s.getFunc(ctx, sessionID)
}

func (s *stubCartRepository) DeleteCart(ctx context.Context, sessionID string) error {
	if s.deleteFunc == nil {
		return nil
	}
	return s.deleteFunc(ctx, sessionID)
}

type stubOrderRepository struct {
	insertFunc      func(ctx context.Context, order domain.Order) error
	findByIDFunc    func(ctx context.Context, orderID string) (domain.Order, error)
	listFunc        func(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error)
	listInRangeFunc func(ctx context.Context, from, to time.Time) ([]domain.Order, error)
}

func (s *stubOrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFunc == nil {
		return nil
	}
	return s.insertFunc(ctx, order)
}

func (s *stubOrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findByIDFunc == nil {
		return domain.Order{}, &repositoryErrorStub{notFound: true}
	}
	return s.findByIDFunc(ctx, orderID)
}

func (s *stubOrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if s.listFunc == nil {
		return domain.CursorPage[domain.Order]{}, nil
	}
	return s.listFunc(ctx, filter)
}

func (s *stubOrderRepository) ListInRange(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	if s.listInRangeFunc == nil {
		return nil, nil
	}
	return s.listInRangeFunc(ctx, from, to)
}

type stubCounterService struct {
	nextFunc            func(ctx context.Context, scope, name string, opts CounterGenerationOptions) (CounterValue, error)
	nextOrderNumberFunc func(ctx context.Context) (string, error)
}

func (s *stubCounterService) Next(ctx context.Context, scope, name string, opts CounterGenerationOptions) (CounterValue, error) {
	if s.nextFunc == nil {
		return CounterValue{Value: 1, Formatted: "1"}, nil
	}
	return s.nextFunc(ctx, scope, name, opts)
}

func (s *stubCounterService) NextOrderNumber(ctx context.Context) (string, error) {
	if s.nextOrderNumberFunc == nil {
		return "SO-000001", nil
	}
	return s.nextOrderNumberFunc(ctx)
}

type stubReceiptPublisher struct {
	publishFunc func(ctx context.Context, message OrderReceiptMessage) (string, error)
}

func (s *stubReceiptPublisher) PublishReceipt(ctx context.Context, message OrderReceiptMessage) (string, error) {
	if s.publishFunc == nil {
		return "msg-1", nil
	}
	return s.publishFunc(ctx, message)
}

type stubOrderSettler struct {
	settleFunc func(ctx context.Context, settlement repositories.OrderSettlement) error
}

func (s *stubOrderSettler) SettleOrder(ctx context.Context, settlement repositories.OrderSettlement) error {
	if s.settleFunc == nil {
		return nil
	}
	return s.settleFunc(ctx, settlement)
}
