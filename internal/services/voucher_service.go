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

// ErrVoucherInvalidInput indicates the caller supplied invalid voucher data.
var ErrVoucherInvalidInput = errors.New("voucher: invalid input")

// VoucherServiceDeps bundles collaborators required to construct a voucher service.
type VoucherServiceDeps struct {
	Repository repositories.VoucherRepository
	Clock      func() time.Time
	IDGen      func() string
	Logger     func(context.Context, string, map[string]any)
}

type voucherService struct {
	repo      repositories.VoucherRepository
	clock     func() time.Time
	idGen     func() string
	logger    func(context.Context, string, map[string]any)
	sanitizer *bluemonday.Policy
}

var _ VoucherService = (*voucherService)(nil)

// NewVoucherService constructs the voucher validator and admin lifecycle service.
func NewVoucherService(deps VoucherServiceDeps) (VoucherService, error) {
	if deps.Repository == nil {
		return nil, errors.New("voucher service: repository is required")
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

	return &voucherService{
		repo: deps.Repository,
		clock: func() time.Time {
			return clock().UTC()
		},
		idGen:     idGen,
		logger:    logger,
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

// Validate matches a code against the voucher book and computes the discount
// it grants for the supplied subtotal. Check order is fixed: unknown code,
// subtotal below minimum, quota exhausted, then validity window.
func (s *voucherService) Validate(ctx context.Context, cmd ValidateVoucherCommand) (VoucherValidation, error) {
	code := strings.TrimSpace(cmd.Code)
	if code == "" {
		return VoucherValidation{}, fmt.Errorf("%w: code is required", ErrVoucherInvalidInput)
	}
	if cmd.Subtotal < 0 {
		return VoucherValidation{}, fmt.Errorf("%w: subtotal must not be negative", ErrVoucherInvalidInput)
	}

	voucher, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return VoucherValidation{}, translateRepoError(err, ErrVoucherNotFound)
	}

	now := s.clock()
	if err := checkVoucherUsable(voucher, cmd.Subtotal, now); err != nil {
		return VoucherValidation{}, err
	}

	return VoucherValidation{
		Voucher:  voucher,
		Discount: VoucherDiscount(voucher, cmd.Subtotal),
	}, nil
}

// VoucherDiscount computes the discount a voucher grants against a subtotal.
// Percentage vouchers are capped by MaxDiscount when set; the result never
// exceeds the subtotal.
func VoucherDiscount(voucher Voucher, subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}

	var discount int64
	switch voucher.Kind {
	case domain.VoucherKindPercentage:
		discount = domain.PercentRound(subtotal, int(voucher.Value))
		if voucher.MaxDiscount != nil && discount > *voucher.MaxDiscount {
			discount = *voucher.MaxDiscount
		}
	case domain.VoucherKindFixed:
		discount = voucher.Value
	default:
		return 0
	}

	if discount < 0 {
		return 0
	}
	if discount > subtotal {
		return subtotal
	}
	return discount
}

// checkVoucherUsable enforces the validation order shared by Validate and the
// cart's re-validation pass.
func checkVoucherUsable(voucher Voucher, subtotal int64, now time.Time) error {
	if subtotal < voucher.MinOrderValue {
		return fmt.Errorf("%w: minimum order value is %d", ErrVoucherBelowMinimum, voucher.MinOrderValue)
	}
	if voucher.Remaining() == 0 {
		return ErrVoucherExhausted
	}
	if voucher.Status != domain.VoucherStatusActive {
		return ErrVoucherExpired
	}
	if now.Before(voucher.StartsAt) {
		return ErrVoucherExpired
	}
	if !voucher.EndsAt.IsZero() && now.After(voucher.EndsAt) {
		return ErrVoucherExpired
	}
	return nil
}

func (s *voucherService) Redeem(ctx context.Context, voucherID string) (Voucher, error) {
	voucherID = strings.TrimSpace(voucherID)
	if voucherID == "" {
		return Voucher{}, fmt.Errorf("%w: voucher id is required", ErrVoucherInvalidInput)
	}

	voucher, err := s.repo.Redeem(ctx, voucherID, s.clock())
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsConflict() {
			return Voucher{}, ErrVoucherExhausted
		}
		return Voucher{}, translateRepoError(err, ErrVoucherNotFound)
	}

	s.logger(ctx, "voucher.redeemed", map[string]any{
		"voucher_id": voucher.ID,
		"code":       voucher.Code,
		"used_count": voucher.UsedCount,
	})
	return voucher, nil
}

func (s *voucherService) Create(ctx context.Context, cmd UpsertVoucherCommand) (Voucher, error) {
	voucher, err := s.buildVoucher(cmd)
	if err != nil {
		return Voucher{}, err
	}

	if existing, err := s.repo.FindByCode(ctx, voucher.Code); err == nil && existing.ID != "" {
		return Voucher{}, fmt.Errorf("%w: code %q already exists", ErrConflict, voucher.Code)
	}

	now := s.clock()
	voucher.ID = s.idGen()
	voucher.CreatedAt = now
	voucher.UpdatedAt = now

	if err := s.repo.Insert(ctx, voucher); err != nil {
		return Voucher{}, translateRepoError(err, ErrVoucherNotFound)
	}
	return voucher, nil
}

func (s *voucherService) Update(ctx context.Context, voucherID string, cmd UpsertVoucherCommand) (Voucher, error) {
	voucherID = strings.TrimSpace(voucherID)
	if voucherID == "" {
		return Voucher{}, fmt.Errorf("%w: voucher id is required", ErrVoucherInvalidInput)
	}

	current, err := s.repo.FindByID(ctx, voucherID)
	if err != nil {
		return Voucher{}, translateRepoError(err, ErrVoucherNotFound)
	}

	updated, err := s.buildVoucher(cmd)
	if err != nil {
		return Voucher{}, err
	}

	updated.ID = current.ID
	updated.UsedCount = current.UsedCount
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.clock()
	if updated.Quantity < updated.UsedCount {
		return Voucher{}, fmt.Errorf("%w: quantity below redeemed count %d", ErrVoucherInvalidInput, updated.UsedCount)
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return Voucher{}, translateRepoError(err, ErrVoucherNotFound)
	}
	return updated, nil
}

func (s *voucherService) Delete(ctx context.Context, voucherID string) error {
	voucherID = strings.TrimSpace(voucherID)
	if voucherID == "" {
		return fmt.Errorf("%w: voucher id is required", ErrVoucherInvalidInput)
	}
	if err := s.repo.Delete(ctx, voucherID); err != nil {
		return translateRepoError(err, ErrVoucherNotFound)
	}
	return nil
}

func (s *voucherService) Get(ctx context.Context, voucherID string) (Voucher, error) {
	voucherID = strings.TrimSpace(voucherID)
	if voucherID == "" {
		return Voucher{}, fmt.Errorf("%w: voucher id is required", ErrVoucherInvalidInput)
	}
	voucher, err := s.repo.FindByID(ctx, voucherID)
	if err != nil {
		return Voucher{}, translateRepoError(err, ErrVoucherNotFound)
	}
	return voucher, nil
}

func (s *voucherService) List(ctx context.Context, filter VoucherListQuery) (domain.CursorPage[Voucher], error) {
	page, err := s.repo.List(ctx, repositories.VoucherListFilter{
		Status:     filter.Status,
		Pagination: filter.Pagination,
	})
	if err != nil {
		return domain.CursorPage[Voucher]{}, translateRepoError(err, ErrVoucherNotFound)
	}
	return page, nil
}

func (s *voucherService) buildVoucher(cmd UpsertVoucherCommand) (Voucher, error) {
	code := strings.ToUpper(strings.TrimSpace(cmd.Code))
	if code == "" {
		return Voucher{}, fmt.Errorf("%w: code is required", ErrVoucherInvalidInput)
	}
	if strings.ContainsAny(code, " \t") {
		return Voucher{}, fmt.Errorf("%w: code must not contain whitespace", ErrVoucherInvalidInput)
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(cmd.Name))
	if name == "" {
		return Voucher{}, fmt.Errorf("%w: name is required", ErrVoucherInvalidInput)
	}

	kind := domain.VoucherKind(strings.ToLower(strings.TrimSpace(cmd.Kind)))
	switch kind {
	case domain.VoucherKindPercentage:
		if cmd.Value <= 0 || cmd.Value > 100 {
			return Voucher{}, fmt.Errorf("%w: percentage value must be between 1 and 100", ErrVoucherInvalidInput)
		}
		if cmd.MaxDiscount != nil && *cmd.MaxDiscount <= 0 {
			return Voucher{}, fmt.Errorf("%w: max discount must be positive", ErrVoucherInvalidInput)
		}
	case domain.VoucherKindFixed:
		if cmd.Value <= 0 {
			return Voucher{}, fmt.Errorf("%w: fixed value must be positive", ErrVoucherInvalidInput)
		}
		if cmd.MaxDiscount != nil {
			return Voucher{}, fmt.Errorf("%w: max discount applies to percentage vouchers only", ErrVoucherInvalidInput)
		}
	default:
		return Voucher{}, fmt.Errorf("%w: kind must be percentage or fixed", ErrVoucherInvalidInput)
	}

	if cmd.MinOrderValue < 0 {
		return Voucher{}, fmt.Errorf("%w: minimum order value must not be negative", ErrVoucherInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return Voucher{}, fmt.Errorf("%w: quantity must be positive", ErrVoucherInvalidInput)
	}

	status := domain.VoucherStatus(strings.ToLower(strings.TrimSpace(cmd.Status)))
	if status == "" {
		status = domain.VoucherStatusActive
	}
	if status != domain.VoucherStatusActive && status != domain.VoucherStatusInactive {
		return Voucher{}, fmt.Errorf("%w: status must be active or inactive", ErrVoucherInvalidInput)
	}

	if cmd.StartsAt.IsZero() {
		return Voucher{}, fmt.Errorf("%w: starts at is required", ErrVoucherInvalidInput)
	}
	if !cmd.EndsAt.IsZero() && !cmd.EndsAt.After(cmd.StartsAt) {
		return Voucher{}, fmt.Errorf("%w: ends at must be after starts at", ErrVoucherInvalidInput)
	}

	var maxDiscount *int64
	if cmd.MaxDiscount != nil {
		value := *cmd.MaxDiscount
		maxDiscount = &value
	}

	return Voucher{
		Code:          code,
		Name:          name,
		Kind:          kind,
		Value:         cmd.Value,
		MaxDiscount:   maxDiscount,
		MinOrderValue: cmd.MinOrderValue,
		Quantity:      cmd.Quantity,
		Status:        status,
		StartsAt:      cmd.StartsAt.UTC(),
		EndsAt:        cmd.EndsAt.UTC(),
	}, nil
}
