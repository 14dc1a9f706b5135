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

const vouchersCollection = "vouchers"

// VoucherRepository persists voucher definitions and redemption counters.
type VoucherRepository struct {
	base     *pfirestore.BaseRepository[voucherDocument]
	provider *pfirestore.Provider
}

// NewVoucherRepository constructs a Firestore-backed voucher repository.
func NewVoucherRepository(provider *pfirestore.Provider) (*VoucherRepository, error) {
	if provider == nil {
		return nil, errors.New("voucher repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[voucherDocument](provider, vouchersCollection)
	return &VoucherRepository{base: base, provider: provider}, nil
}

// Insert stores a new voucher document. The ID must be unique.
func (r *VoucherRepository) Insert(ctx context.Context, voucher domain.Voucher) error {
	if r == nil || r.base == nil {
		return errors.New("voucher repository not initialised")
	}
	voucherID := strings.TrimSpace(voucher.ID)
	if voucherID == "" {
		return errors.New("voucher repository: voucher id is required")
	}
	docRef, err := r.base.DocumentRef(ctx, voucherID)
	if err != nil {
		return err
	}
	if _, err := docRef.Create(ctx, encodeVoucherDocument(voucher)); err != nil {
		return pfirestore.WrapError("vouchers.insert", err)
	}
	return nil
}

// Update replaces the persisted voucher state with the provided snapshot.
func (r *VoucherRepository) Update(ctx context.Context, voucher domain.Voucher) error {
	if r == nil || r.base == nil {
		return errors.New("voucher repository not initialised")
	}
	voucherID := strings.TrimSpace(voucher.ID)
	if voucherID == "" {
		return errors.New("voucher repository: voucher id is required")
	}
	if err := r.base.Set(ctx, voucherID, encodeVoucherDocument(voucher)); err != nil {
		return err
	}
	return nil
}

// Delete removes the voucher document.
func (r *VoucherRepository) Delete(ctx context.Context, voucherID string) error {
	if r == nil || r.base == nil {
		return errors.New("voucher repository not initialised")
	}
	voucherID = strings.TrimSpace(voucherID)
	if voucherID == "" {
		return errors.New("voucher repository: voucher id is required")
	}
	return r.base.Delete(ctx, voucherID)
}

// FindByID fetches a single voucher.
func (r *VoucherRepository) FindByID(ctx context.Context, voucherID string) (domain.Voucher, error) {
	if r == nil || r.base == nil {
		return domain.Voucher{}, errors.New("voucher repository not initialised")
	}
	voucherID = strings.TrimSpace(voucherID)
	if voucherID == "" {
		return domain.Voucher{}, errors.New("voucher repository: voucher id is required")
	}
	doc, err := r.base.Get(ctx, voucherID)
	if err != nil {
		return domain.Voucher{}, err
	}
	return decodeVoucherDocument(doc.ID, doc.Data, doc.CreateTime, doc.UpdateTime), nil
}

// FindByCode locates a voucher by its exact code. Lookup is case sensitive.
func (r *VoucherRepository) FindByCode(ctx context.Context, code string) (domain.Voucher, error) {
	if r == nil || r.base == nil {
		return domain.Voucher{}, errors.New("voucher repository not initialised")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Voucher{}, errors.New("voucher repository: code is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("code", "==", code).Limit(1)
	})
	if err != nil {
		return domain.Voucher{}, err
	}
	if len(docs) == 0 {
		return domain.Voucher{}, pfirestore.NotFoundError("vouchers.find_by_code")
	}
	doc := docs[0]
	return decodeVoucherDocument(doc.ID, doc.Data, doc.CreateTime, doc.UpdateTime), nil
}

// Redeem increments the usage counter inside a transaction. The increment is
// rejected with a conflict error once usedCount reaches quantity, so two
// registers racing for the last redemption cannot both succeed.
func (r *VoucherRepository) Redeem(ctx context.Context, voucherID string, now time.Time) (domain.Voucher, error) {
	if r == nil || r.base == nil || r.provider == nil {
		return domain.Voucher{}, errors.New("voucher repository not initialised")
	}
	voucherID = strings.TrimSpace(voucherID)
	if voucherID == "" {
		return domain.Voucher{}, errors.New("voucher repository: voucher id is required")
	}
	now = now.UTC()

	var redeemed domain.Voucher
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef, err := r.base.DocumentRef(ctx, voucherID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(docRef)
		if err != nil {
			return pfirestore.WrapError("vouchers.redeem", err)
		}
		var doc voucherDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("voucher repository: decode document %s: %w", voucherID, err)
		}

		if doc.UsedCount >= doc.Quantity {
			return pfirestore.ConflictError("vouchers.redeem")
		}

		doc.UsedCount++
		doc.UpdatedAt = now
		if err := tx.Set(docRef, doc); err != nil {
			return pfirestore.WrapError("vouchers.redeem", err)
		}
		redeemed = decodeVoucherDocument(voucherID, doc, snap.CreateTime, now)
		return nil
	})
	if err != nil {
		return domain.Voucher{}, err
	}
	return redeemed, nil
}

// List returns vouchers ordered by most recent update using cursor pagination.
func (r *VoucherRepository) List(ctx context.Context, filter repositories.VoucherListFilter) (domain.CursorPage[domain.Voucher], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Voucher]{}, errors.New("voucher repository not initialised")
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
			return domain.CursorPage[domain.Voucher]{}, fmt.Errorf("voucher repository: invalid page token: %w", err)
		}
		startAfter = []any{tokenTime, tokenID}
	}

	statusFilters := normaliseStatuses(filter.Status)

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if len(statusFilters) == 1 {
			q = q.Where("status", "==", statusFilters[0])
		} else if len(statusFilters) > 1 {
			if len(statusFilters) > 10 {
				statusFilters = statusFilters[:10]
			}
			q = q.Where("status", "in", statusFilters)
		}

		q = q.OrderBy("updatedAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(startAfter) == 2 {
			q = q.StartAfter(startAfter...)
		}
		if fetchLimit > 0 {
			q = q.Limit(fetchLimit)
		}
		return q
	})
	if err != nil {
		return domain.CursorPage[domain.Voucher]{}, err
	}

	valueDocs := docs
	nextToken := ""
	if limit > 0 && len(valueDocs) == fetchLimit {
		last := valueDocs[len(valueDocs)-1]
		tokenTime := last.Data.UpdatedAt
		if tokenTime.IsZero() {
			tokenTime = last.UpdateTime
		}
		nextToken = encodeListToken(tokenTime, last.ID)
		valueDocs = valueDocs[:len(valueDocs)-1]
	}

	items := make([]domain.Voucher, 0, len(valueDocs))
	for _, doc := range valueDocs {
		items = append(items, decodeVoucherDocument(doc.ID, doc.Data, doc.CreateTime, doc.UpdateTime))
	}

	return domain.CursorPage[domain.Voucher]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

type voucherDocument struct {
	Code          string    `firestore:"code"`
	Name          string    `firestore:"name"`
	Kind          string    `firestore:"kind"`
	Value         int64     `firestore:"value"`
	MaxDiscount   *int64    `firestore:"maxDiscount,omitempty"`
	MinOrderValue int64     `firestore:"minOrderValue"`
	Quantity      int       `firestore:"quantity"`
	UsedCount     int       `firestore:"usedCount"`
	Status        string    `firestore:"status"`
	StartsAt      time.Time `firestore:"startsAt"`
	EndsAt        time.Time `firestore:"endsAt"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func encodeVoucherDocument(voucher domain.Voucher) voucherDocument {
	doc := voucherDocument{
		Code:          strings.TrimSpace(voucher.Code),
		Name:          strings.TrimSpace(voucher.Name),
		Kind:          strings.TrimSpace(string(voucher.Kind)),
		Value:         voucher.Value,
		MinOrderValue: voucher.MinOrderValue,
		Quantity:      voucher.Quantity,
		UsedCount:     voucher.UsedCount,
		Status:        strings.TrimSpace(string(voucher.Status)),
		StartsAt:      voucher.StartsAt.UTC(),
		EndsAt:        voucher.EndsAt.UTC(),
		CreatedAt:     voucher.CreatedAt.UTC(),
		UpdatedAt:     voucher.UpdatedAt.UTC(),
	}
	if voucher.MaxDiscount != nil {
		capped := *voucher.MaxDiscount
		doc.MaxDiscount = &capped
	}
	return doc
}

func decodeVoucherDocument(id string, doc voucherDocument, createdAt, updatedAt time.Time) domain.Voucher {
	voucher := domain.Voucher{
		ID:            strings.TrimSpace(id),
		Code:          strings.TrimSpace(doc.Code),
		Name:          strings.TrimSpace(doc.Name),
		Kind:          domain.VoucherKind(strings.TrimSpace(doc.Kind)),
		Value:         doc.Value,
		MinOrderValue: doc.MinOrderValue,
		Quantity:      doc.Quantity,
		UsedCount:     doc.UsedCount,
		Status:        domain.VoucherStatus(strings.TrimSpace(doc.Status)),
		StartsAt:      doc.StartsAt.UTC(),
		EndsAt:        doc.EndsAt.UTC(),
		CreatedAt:     chooseTime(doc.CreatedAt, createdAt),
		UpdatedAt:     chooseTime(doc.UpdatedAt, updatedAt),
	}
	if doc.MaxDiscount != nil {
		capped := *doc.MaxDiscount
		voucher.MaxDiscount = &capped
	}
	return voucher
}

var _ repositories.VoucherRepository = (*VoucherRepository)(nil)
