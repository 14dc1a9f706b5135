package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/kidiezyllex/street-sneaker-sub000/internal/domain"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
)

// ErrPromotionInvalidInput indicates the caller supplied invalid promotion data.
var ErrPromotionInvalidInput = errors.New("promotion: invalid input")

// PromotionServiceDeps bundles collaborators required to construct a promotion service.
type PromotionServiceDeps struct {
	Repository repositories.PromotionRepository
	Products   repositories.ProductRepository
	Clock      func() time.Time
	IDGen      func() string
	Logger     func(context.Context, string, map[string]any)
}

type promotionService struct {
	repo      repositories.PromotionRepository
	products  repositories.ProductRepository
	clock     func() time.Time
	idGen     func() string
	logger    func(context.Context, string, map[string]any)
	sanitizer *bluemonday.Policy
}

var _ PromotionService = (*promotionService)(nil)

// NewPromotionService constructs the promotion lifecycle service used by the
// admin surface and the public active-campaign listing.
func NewPromotionService(deps PromotionServiceDeps) (PromotionService, error) {
	if deps.Repository == nil {
		return nil, errors.New("promotion service: repository is required")
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

	return &promotionService{
		repo:     deps.Repository,
		products: deps.Products,
		clock: func() time.Time {
			return clock().UTC()
		},
		idGen:     idGen,
		logger:    logger,
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

func (s *promotionService) ListActive(ctx context.Context) ([]Promotion, error) {
	promotions, err := s.repo.ListActive(ctx, s.clock())
	if err != nil {
		return nil, translateRepoError(err, ErrPromotionNotFound)
	}
	return promotions, nil
}

func (s *promotionService) Create(ctx context.Context, cmd UpsertPromotionCommand) (Promotion, error) {
	promotion, err := s.buildPromotion(ctx, cmd)
	if err != nil {
		return Promotion{}, err
	}

	now := s.clock()
	promotion.ID = s.idGen()
	promotion.CreatedAt = now
	promotion.UpdatedAt = now

	if err := s.repo.Insert(ctx, promotion); err != nil {
		return Promotion{}, translateRepoError(err, ErrPromotionNotFound)
	}

	s.logger(ctx, "promotion.created", map[string]any{
		"promotion_id": promotion.ID,
		"name":         promotion.Name,
		"percent":      promotion.DiscountPercent,
	})
	return promotion, nil
}

func (s *promotionService) Update(ctx context.Context, promotionID string, cmd UpsertPromotionCommand) (Promotion, error) {
	promotionID = strings.TrimSpace(promotionID)
	if promotionID == "" {
		return Promotion{}, fmt.Errorf("%w: promotion id is required", ErrPromotionInvalidInput)
	}

	current, err := s.repo.FindByID(ctx, promotionID)
	if err != nil {
		return Promotion{}, translateRepoError(err, ErrPromotionNotFound)
	}

	updated, err := s.buildPromotion(ctx, cmd)
	if err != nil {
		return Promotion{}, err
	}

	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.clock()

	if err := s.repo.Update(ctx, updated); err != nil {
		return Promotion{}, translateRepoError(err, ErrPromotionNotFound)
	}
	return updated, nil
}

func (s *promotionService) Delete(ctx context.Context, promotionID string) error {
	promotionID = strings.TrimSpace(promotionID)
	if promotionID == "" {
		return fmt.Errorf("%w: promotion id is required", ErrPromotionInvalidInput)
	}
	if err := s.repo.Delete(ctx, promotionID); err != nil {
		return translateRepoError(err, ErrPromotionNotFound)
	}
	return nil
}

func (s *promotionService) Get(ctx context.Context, promotionID string) (Promotion, error) {
	promotionID = strings.TrimSpace(promotionID)
	if promotionID == "" {
		return Promotion{}, fmt.Errorf("%w: promotion id is required", ErrPromotionInvalidInput)
	}
	promotion, err := s.repo.FindByID(ctx, promotionID)
	if err != nil {
		return Promotion{}, translateRepoError(err, ErrPromotionNotFound)
	}
	return promotion, nil
}

func (s *promotionService) List(ctx context.Context, filter PromotionListQuery) (domain.CursorPage[Promotion], error) {
	page, err := s.repo.List(ctx, repositories.PromotionListFilter{
		Status:     filter.Status,
		Pagination: filter.Pagination,
	})
	if err != nil {
		return domain.CursorPage[Promotion]{}, translateRepoError(err, ErrPromotionNotFound)
	}
	return page, nil
}

func (s *promotionService) buildPromotion(ctx context.Context, cmd UpsertPromotionCommand) (Promotion, error) {
	name := strings.TrimSpace(s.sanitizer.Sanitize(cmd.Name))
	if name == "" {
		return Promotion{}, fmt.Errorf("%w: name is required", ErrPromotionInvalidInput)
	}
	description := strings.TrimSpace(s.sanitizer.Sanitize(cmd.Description))

	if cmd.DiscountPercent < 1 || cmd.DiscountPercent > 100 {
		return Promotion{}, fmt.Errorf("%w: discount percent must be between 1 and 100", ErrPromotionInvalidInput)
	}

	status := domain.PromotionStatus(strings.ToLower(strings.TrimSpace(cmd.Status)))
	if status == "" {
		status = domain.PromotionStatusActive
	}
	if status != domain.PromotionStatusActive && status != domain.PromotionStatusInactive {
		return Promotion{}, fmt.Errorf("%w: status must be active or inactive", ErrPromotionInvalidInput)
	}

	if cmd.StartsAt.IsZero() {
		return Promotion{}, fmt.Errorf("%w: starts at is required", ErrPromotionInvalidInput)
	}
	if !cmd.EndsAt.IsZero() && !cmd.EndsAt.After(cmd.StartsAt) {
		return Promotion{}, fmt.Errorf("%w: ends at must be after starts at", ErrPromotionInvalidInput)
	}

	productIDs := make([]string, 0, len(cmd.ProductIDs))
	seen := make(map[string]struct{}, len(cmd.ProductIDs))
	for _, raw := range cmd.ProductIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if s.products != nil {
			if _, err := s.products.FindByID(ctx, id); err != nil {
				return Promotion{}, fmt.Errorf("%w: unknown product %s", ErrPromotionInvalidInput, id)
			}
		}
		productIDs = append(productIDs, id)
	}

	return Promotion{
		Name:            name,
		Description:     description,
		DiscountPercent: cmd.DiscountPercent,
		Status:          status,
		StartsAt:        cmd.StartsAt.UTC(),
		EndsAt:          cmd.EndsAt.UTC(),
		ProductIDs:      productIDs,
	}, nil
}
