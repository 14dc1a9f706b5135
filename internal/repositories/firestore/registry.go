package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/kidiezyllex/street-sneaker-sub000/internal/platform/firestore"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the repositories.Registry contract.
type Registry struct {
	provider *pfirestore.Provider

	products   *ProductRepository
	promotions *PromotionRepository
	vouchers   *VoucherRepository
	carts      *CartRepository
	orders     *OrderRepository
	counters   *CounterRepository
	health     repositories.HealthRepository
}

// NewRegistry constructs every Firestore repository against the shared provider.
// The health repository is optional; pass nil when readiness probing is wired elsewhere.
func NewRegistry(provider *pfirestore.Provider, health repositories.HealthRepository) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry: firestore provider is required")
	}

	products, err := NewProductRepository(provider)
	if err != nil {
		return nil, err
	}
	promotions, err := NewPromotionRepository(provider)
	if err != nil {
		return nil, err
	}
	vouchers, err := NewVoucherRepository(provider)
	if err != nil {
		return nil, err
	}
	carts, err := NewCartRepository(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	counters, err := NewCounterRepository(provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:   provider,
		products:   products,
		promotions: promotions,
		vouchers:   vouchers,
		carts:      carts,
		orders:     orders,
		counters:   counters,
		health:     health,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// Products returns the product repository.
func (r *Registry) Products() repositories.ProductRepository { return r.products }

// Promotions returns the promotion repository.
func (r *Registry) Promotions() repositories.PromotionRepository { return r.promotions }

// Vouchers returns the voucher repository.
func (r *Registry) Vouchers() repositories.VoucherRepository { return r.vouchers }

// Carts returns the cart repository.
func (r *Registry) Carts() repositories.CartRepository { return r.carts }

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Counters returns the counter repository.
func (r *Registry) Counters() repositories.CounterRepository { return r.counters }

// Health returns the health repository when configured.
func (r *Registry) Health() repositories.HealthRepository { return r.health }

// SettleOrder commits a checkout inside a single Firestore transaction. Every
// read happens before the first write because Firestore rejects reads issued
// after a transactional write, then the stock decrements, the voucher
// redemption, and the order insert land together or not at all.
func (r *Registry) SettleOrder(ctx context.Context, settlement repositories.OrderSettlement) error {
	if r == nil || r.provider == nil {
		return errors.New("registry: firestore provider is required")
	}
	orderID := strings.TrimSpace(settlement.Order.ID)
	if orderID == "" {
		return errors.New("registry: order id is required")
	}

	type variantDelta struct {
		sku   string
		delta int
	}
	productIDs := make([]string, 0, len(settlement.StockAdjustments))
	deltasByProduct := make(map[string][]variantDelta, len(settlement.StockAdjustments))
	for _, adj := range settlement.StockAdjustments {
		productID := strings.TrimSpace(adj.ProductID)
		sku := strings.TrimSpace(adj.SKU)
		if productID == "" || sku == "" {
			return errors.New("registry: stock adjustment requires product id and sku")
		}
		if _, seen := deltasByProduct[productID]; !seen {
			productIDs = append(productIDs, productID)
		}
		deltasByProduct[productID] = append(deltasByProduct[productID], variantDelta{sku: sku, delta: adj.Delta})
	}
	voucherID := strings.TrimSpace(settlement.VoucherID)

	now := settlement.Order.CreatedAt.UTC()
	if settlement.Order.CreatedAt.IsZero() {
		now = time.Now().UTC()
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}

	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		type productState struct {
			ref *firestore.DocumentRef
			doc productDocument
		}
		products := make([]productState, 0, len(productIDs))
		for _, productID := range productIDs {
			ref := client.Collection(productsCollection).Doc(productID)
			snap, err := tx.Get(ref)
			if err != nil {
				wrapped := pfirestore.WrapError("orders.settle", err)
				var repoErr repositories.RepositoryError
				if errors.As(wrapped, &repoErr) && repoErr.IsNotFound() {
					return &repositories.SettlementError{
						Op:      "orders.settle",
						Code:    repositories.SettlementErrorNotFound,
						Message: fmt.Sprintf("product %s not found", productID),
						Err:     wrapped,
					}
				}
				return wrapped
			}
			var doc productDocument
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("registry: decode product %s: %w", productID, err)
			}
			products = append(products, productState{ref: ref, doc: doc})
		}

		var voucherRef *firestore.DocumentRef
		var voucherDoc voucherDocument
		if voucherID != "" {
			voucherRef = client.Collection(vouchersCollection).Doc(voucherID)
			snap, err := tx.Get(voucherRef)
			if err != nil {
				wrapped := pfirestore.WrapError("orders.settle", err)
				var repoErr repositories.RepositoryError
				if errors.As(wrapped, &repoErr) && repoErr.IsNotFound() {
					return &repositories.SettlementError{
						Op:      "orders.settle",
						Code:    repositories.SettlementErrorNotFound,
						Message: fmt.Sprintf("voucher %s not found", voucherID),
						Err:     wrapped,
					}
				}
				return wrapped
			}
			if err := snap.DataTo(&voucherDoc); err != nil {
				return fmt.Errorf("registry: decode voucher %s: %w", voucherID, err)
			}
		}

		for i, productID := range productIDs {
			for _, vd := range deltasByProduct[productID] {
				applied := false
				for j := range products[i].doc.Variants {
					if products[i].doc.Variants[j].SKU != vd.sku {
						continue
					}
					next := products[i].doc.Variants[j].Stock + vd.delta
					if next < 0 {
						return &repositories.SettlementError{
							Op:      "orders.settle",
							Code:    repositories.SettlementErrorStockShort,
							Message: fmt.Sprintf("insufficient stock for %s", vd.sku),
							SKU:     vd.sku,
						}
					}
					products[i].doc.Variants[j].Stock = next
					applied = true
					break
				}
				if !applied {
					return &repositories.SettlementError{
						Op:      "orders.settle",
						Code:    repositories.SettlementErrorNotFound,
						Message: fmt.Sprintf("variant %s not found in product %s", vd.sku, productID),
						SKU:     vd.sku,
					}
				}
			}
		}

		if voucherID != "" {
			if voucherDoc.UsedCount >= voucherDoc.Quantity {
				return &repositories.SettlementError{
					Op:      "orders.settle",
					Code:    repositories.SettlementErrorVoucherExhausted,
					Message: fmt.Sprintf("voucher %s has no redemptions left", voucherID),
				}
			}
			voucherDoc.UsedCount++
			voucherDoc.UpdatedAt = now
		}

		for i := range products {
			products[i].doc.UpdatedAt = now
			if err := tx.Set(products[i].ref, products[i].doc); err != nil {
				return pfirestore.WrapError("orders.settle", err)
			}
		}
		if voucherRef != nil {
			if err := tx.Set(voucherRef, voucherDoc); err != nil {
				return pfirestore.WrapError("orders.settle", err)
			}
		}
		orderRef := client.Collection(ordersCollection).Doc(orderID)
		if err := tx.Create(orderRef, encodeOrderDocument(settlement.Order)); err != nil {
			return pfirestore.WrapError("orders.settle", err)
		}
		return nil
	})
}

var _ repositories.Registry = (*Registry)(nil)
