package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	pfirestore "github.com/kidiezyllex/street-sneaker-sub000/internal/platform/firestore"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
)

const ordersCollection = "orders"

// OrderRepository persists completed orders.
type OrderRepository struct {
	base *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection)
	return &OrderRepository{base: base}, nil
}

// Insert stores a new order document. Orders are immutable once written.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	orderID := strings.TrimSpace(order.ID)
	if orderID == "" {
		return errors.New("order repository: order id is required")
	}
	docRef, err := r.base.DocumentRef(ctx, orderID)
	if err != nil {
		return err
	}
	if _, err := docRef.Create(ctx, encodeOrderDocument(order)); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

// FindByID fetches a single order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrderDocument(doc.ID, doc.Data, doc.CreateTime), nil
}

// List returns orders ordered by most recent creation using cursor pagination.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}

	limit := filter.Pagination.PageSize
	if limit < 0 {
		limit = 0
	}
	fetchLimit := limit
	if limit > 0 {
		fetchLimit = limit + 1
	}

	var startAfter []any
	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		tokenTime, tokenID, err := decodeListToken(token)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("order repository: invalid page token: %w", err)
		}
		startAfter = []any{tokenTime, tokenID}
	}

	sessionID := strings.TrimSpace(filter.SessionID)
	var paymentMethod string
	if filter.PaymentMethod != nil {
		paymentMethod = strings.TrimSpace(*filter.PaymentMethod)
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if sessionID != "" {
			q = q.Where("sessionId", "==", sessionID)
		}
		if paymentMethod != "" {
			q = q.Where("paymentMethod", "==", paymentMethod)
		}
		if filter.DateRange.From != nil && !filter.DateRange.From.IsZero() {
			q = q.Where("createdAt", ">=", filter.DateRange.From.UTC())
		}
		if filter.DateRange.To != nil && !filter.DateRange.To.IsZero() {
			q = q.Where("createdAt", "<", filter.DateRange.To.UTC())
		}

		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(startAfter) == 2 {
			q = q.StartAfter(startAfter...)
		}
		if fetchLimit > 0 {
			q = q.Limit(fetchLimit)
		}
		return q
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	valueDocs := docs
	nextToken := ""
	if limit > 0 && len(valueDocs) == fetchLimit {
		last := valueDocs[len(valueDocs)-1]
		tokenTime := last.Data.CreatedAt
		if tokenTime.IsZero() {
			tokenTime = last.CreateTime
		}
		nextToken = encodeListToken(tokenTime, last.ID)
		valueDocs = valueDocs[:len(valueDocs)-1]
	}

	items := make([]domain.Order, 0, len(valueDocs))
	for _, doc := range valueDocs {
		items = append(items, decodeOrderDocument(doc.ID, doc.Data, doc.CreateTime))
	}

	return domain.CursorPage[domain.Order]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

// ListInRange returns every order created inside [from, to) ordered by creation time.
func (r *OrderRepository) ListInRange(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	if !from.Before(to) {
		return nil, errors.New("order repository: range start must precede range end")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("createdAt", ">=", from.UTC()).
			Where("createdAt", "<", to.UTC()).
			OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, decodeOrderDocument(doc.ID, doc.Data, doc.CreateTime))
	}
	return orders, nil
}

type orderDocument struct {
	Number        string              `firestore:"number"`
	SessionID     string              `firestore:"sessionId"`
	Items         []orderItemDocument `firestore:"items"`
	Subtotal      int64               `firestore:"subtotal"`
	Discount      int64               `firestore:"discount"`
	VoucherCode   string              `firestore:"voucherCode,omitempty"`
	Total         int64               `firestore:"total"`
	PaymentMethod string              `firestore:"paymentMethod"`
	CashTendered  int64               `firestore:"cashTendered"`
	ChangeDue     int64               `firestore:"changeDue"`
	CreatedAt     time.Time           `firestore:"createdAt"`
}

type orderItemDocument struct {
	ProductID     string `firestore:"productId"`
	SKU           string `firestore:"sku"`
	Name          string `firestore:"name"`
	Color         string `firestore:"color,omitempty"`
	Size          string `firestore:"size,omitempty"`
	Quantity      int    `firestore:"quantity"`
	UnitPrice     int64  `firestore:"unitPrice"`
	OriginalPrice int64  `firestore:"originalPrice"`
	PromotionID   string `firestore:"promotionId,omitempty"`
	LineTotal     int64  `firestore:"lineTotal"`
}

func encodeOrderDocument(order domain.Order) orderDocument {
	items := make([]orderItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemDocument{
			ProductID:     strings.TrimSpace(item.ProductID),
			SKU:           strings.TrimSpace(item.SKU),
			Name:          strings.TrimSpace(item.Name),
			Color:         strings.TrimSpace(item.Color),
			Size:          strings.TrimSpace(item.Size),
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			OriginalPrice: item.OriginalPrice,
			PromotionID:   strings.TrimSpace(item.PromotionID),
			LineTotal:     item.LineTotal,
		})
	}

	return orderDocument{
		Number:        strings.TrimSpace(order.Number),
		SessionID:     strings.TrimSpace(order.SessionID),
		Items:         items,
		Subtotal:      order.Subtotal,
		Discount:      order.Discount,
		VoucherCode:   strings.TrimSpace(order.VoucherCode),
		Total:         order.Total,
		PaymentMethod: strings.TrimSpace(string(order.PaymentMethod)),
		CashTendered:  order.CashTendered,
		ChangeDue:     order.ChangeDue,
		CreatedAt:     order.CreatedAt.UTC(),
	}
}

func decodeOrderDocument(id string, doc orderDocument, createdAt time.Time) domain.Order {
	items := make([]domain.OrderItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, domain.OrderItem{
			ProductID:     strings.TrimSpace(item.ProductID),
			SKU:           strings.TrimSpace(item.SKU),
			Name:          strings.TrimSpace(item.Name),
			Color:         strings.TrimSpace(item.Color),
			Size:          strings.TrimSpace(item.Size),
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			OriginalPrice: item.OriginalPrice,
			PromotionID:   strings.TrimSpace(item.PromotionID),
			LineTotal:     item.LineTotal,
		})
	}

	return domain.Order{
		ID:            strings.TrimSpace(id),
		Number:        strings.TrimSpace(doc.Number),
		SessionID:     strings.TrimSpace(doc.SessionID),
		Items:         items,
		Subtotal:      doc.Subtotal,
		Discount:      doc.Discount,
		VoucherCode:   strings.TrimSpace(doc.VoucherCode),
		Total:         doc.Total,
		PaymentMethod: domain.PaymentMethod(strings.TrimSpace(doc.PaymentMethod)),
		CashTendered:  doc.CashTendered,
		ChangeDue:     doc.ChangeDue,
		CreatedAt:     chooseTime(doc.CreatedAt, createdAt),
	}
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
