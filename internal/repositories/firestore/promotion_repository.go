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

const promotionsCollection = "promotions"

// PromotionRepository persists promotional campaign definitions.
type PromotionRepository struct {
	base *pfirestore.BaseRepository[promotionDocument]
}

// NewPromotionRepository constructs a Firestore-backed promotion repository.
func NewPromotionRepository(provider *pfirestore.Provider) (*PromotionRepository, error) {
	if provider == nil {
		return nil, errors.New("promotion repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[promotionDocument](provider, promotionsCollection)
	return &PromotionRepository{base: base}, nil
}

// Insert stores a new promotion document. The ID must be unique.
func (r *PromotionRepository) Insert(ctx context.Context, promotion domain.Promotion) error {
	if r == nil || r.base == nil {
		return errors.New("promotion repository not initialised")
	}
	promotionID := strings.TrimSpace(promotion.ID)
	if promotionID == "" {
		return errors.New("promotion repository: promotion id is required")
	}
	docRef, err := r.base.DocumentRef(ctx, promotionID)
	if err != nil {
		return err
	}
	if _, err := docRef.Create(ctx, encodePromotionDocument(promotion)); err != nil {
		return pfirestore.WrapError("promotions.insert", err)
	}
	return nil
}

// Update replaces the persisted promotion state with the provided snapshot.
func (r *PromotionRepository) Update(ctx context.Context, promotion domain.Promotion) error {
	if r == nil || r.base == nil {
		return errors.New("promotion repository not initialised")
	}
	promotionID := strings.TrimSpace(promotion.ID)
	if promotionID == "" {
		return errors.New("promotion repository: promotion id is required")
	}
	if err := r.base.Set(ctx, promotionID, encodePromotionDocument(promotion)); err != nil {
		return err
	}
	return nil
}

// Delete removes the promotion document.
func (r *PromotionRepository) Delete(ctx context.Context, promotionID string) error {
	if r == nil || r.base == nil {
		return errors.New("promotion repository not initialised")
	}
	promotionID = strings.TrimSpace(promotionID)
	if promotionID == "" {
		return errors.New("promotion repository: promotion id is required")
	}
	return r.base.Delete(ctx, promotionID)
}

// FindByID fetches a single promotion.
func (r *PromotionRepository) FindByID(ctx context.Context, promotionID string) (domain.Promotion, error) {
	if r == nil || r.base == nil {
		return domain.Promotion{}, errors.New("promotion repository not initialised")
	}
	promotionID = strings.TrimSpace(promotionID)
	if promotionID == "" {
		return domain.Promotion{}, errors.New("promotion repository: promotion id is required")
	}
	doc, err := r.base.Get(ctx, promotionID)
	if err != nil {
		return domain.Promotion{}, err
	}
	return decodePromotionDocument(doc.ID, doc.Data, doc.CreateTime, doc.UpdateTime), nil
}

// ListActive returns every active promotion whose window has started by the
// given instant. Window end is filtered in memory since Firestore allows range
// predicates on a single field only.
func (r *PromotionRepository) ListActive(ctx context.Context, at time.Time) ([]domain.Promotion, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("promotion repository not initialised")
	}
	at = at.UTC()

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("status", "==", string(domain.PromotionStatusActive)).
			Where("startsAt", "<=", at).
			OrderBy("startsAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	promotions := make([]domain.Promotion, 0, len(docs))
	for _, doc := range docs {
		promotion := decodePromotionDocument(doc.ID, doc.Data, doc.CreateTime, doc.UpdateTime)
		if !promotion.EndsAt.IsZero() && !at.Before(promotion.EndsAt) {
			continue
		}
		promotions = append(promotions, promotion)
	}
	return promotions, nil
}

// List returns promotions ordered by most recent update using cursor pagination.
func (r *PromotionRepository) List(ctx context.Context, filter repositories.PromotionListFilter) (domain.CursorPage[domain.Promotion], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Promotion]{}, errors.New("promotion repository not initialised")
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
			return domain.CursorPage[domain.Promotion]{}, fmt.Errorf("promotion repository: invalid page token: %w", err)
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
		return domain.CursorPage[domain.Promotion]{}, err
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

	items := make([]domain.Promotion, 0, len(valueDocs))
	for _, doc := range valueDocs {
		items = append(items, decodePromotionDocument(doc.ID, doc.Data, doc.CreateTime, doc.UpdateTime))
	}

	return domain.CursorPage[domain.Promotion]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

type promotionDocument struct {
	Name            string    `firestore:"name"`
	Description     string    `firestore:"description,omitempty"`
	DiscountPercent int       `firestore:"discountPercent"`
	Status          string    `firestore:"status"`
	StartsAt        time.Time `firestore:"startsAt"`
	EndsAt          time.Time `firestore:"endsAt"`
	ProductIDs      []string  `firestore:"productIds,omitempty"`
	CreatedAt       time.Time `firestore:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt"`
}

func encodePromotionDocument(promotion domain.Promotion) promotionDocument {
	return promotionDocument{
		Name:            strings.TrimSpace(promotion.Name),
		Description:     strings.TrimSpace(promotion.Description),
		DiscountPercent: promotion.DiscountPercent,
		Status:          strings.TrimSpace(string(promotion.Status)),
		StartsAt:        promotion.StartsAt.UTC(),
		EndsAt:          promotion.EndsAt.UTC(),
		ProductIDs:      cloneStrings(promotion.ProductIDs),
		CreatedAt:       promotion.CreatedAt.UTC(),
		UpdatedAt:       promotion.UpdatedAt.UTC(),
	}
}

func decodePromotionDocument(id string, doc promotionDocument, createdAt, updatedAt time.Time) domain.Promotion {
	return domain.Promotion{
		ID:              strings.TrimSpace(id),
		Name:            strings.TrimSpace(doc.Name),
		Description:     strings.TrimSpace(doc.Description),
		DiscountPercent: doc.DiscountPercent,
		Status:          domain.PromotionStatus(strings.TrimSpace(doc.Status)),
		StartsAt:        doc.StartsAt.UTC(),
		EndsAt:          doc.EndsAt.UTC(),
		ProductIDs:      cloneStrings(doc.ProductIDs),
		CreatedAt:       chooseTime(doc.CreatedAt, createdAt),
		UpdatedAt:       chooseTime(doc.UpdatedAt, updatedAt),
	}
}

var _ repositories.PromotionRepository = (*PromotionRepository)(nil)
