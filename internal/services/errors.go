package services

import (
	"errors"

	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
)

// Sentinel errors shared across the service layer. Handlers map these onto
// HTTP status codes; services wrap them with fmt.Errorf("%w: ...") detail.
var (
	// ErrInvalidInput indicates the caller supplied invalid arguments.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable indicates a backend dependency could not fulfil the request.
	ErrUnavailable = errors.New("unavailable")
	// ErrConflict indicates the operation lost a concurrent update race.
	ErrConflict = errors.New("conflict")

	// ErrProductNotFound indicates the requested product or variant does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrPromotionNotFound indicates the requested promotion does not exist.
	ErrPromotionNotFound = errors.New("promotion not found")
	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrCartNotFound indicates no cart exists for the register session.
	ErrCartNotFound = errors.New("cart not found")

	// ErrCartCapacityExceeded indicates the requested quantity exceeds available stock.
	ErrCartCapacityExceeded = errors.New("requested quantity exceeds available stock")

	// ErrVoucherNotFound indicates no voucher matches the supplied code.
	ErrVoucherNotFound = errors.New("voucher not found")
	// ErrVoucherBelowMinimum indicates the cart subtotal is below the voucher's minimum order value.
	ErrVoucherBelowMinimum = errors.New("order subtotal below voucher minimum")
	// ErrVoucherExhausted indicates the voucher has no redemptions left.
	ErrVoucherExhausted = errors.New("voucher exhausted")
	// ErrVoucherExpired indicates the voucher is outside its validity window or disabled.
	ErrVoucherExpired = errors.New("voucher expired")
	// ErrVoucherNotEligible indicates the applied voucher no longer matches the cart.
	ErrVoucherNotEligible = errors.New("voucher not eligible")

	// ErrCheckoutEmptyCart indicates checkout was attempted on an empty cart.
	ErrCheckoutEmptyCart = errors.New("cart is empty")
	// ErrCheckoutInsufficientPayment indicates the tendered cash does not cover the total.
	ErrCheckoutInsufficientPayment = errors.New("tendered amount below order total")
	// ErrReceiptPublishFailed indicates the order settled but the receipt
	// message could not be handed to the sink. Callers receive the committed
	// order alongside this error.
	ErrReceiptPublishFailed = errors.New("receipt publish failed")
)

// translateRepoError maps repository error categories onto the shared
// sentinels, substituting the provided notFound sentinel for missing records.
func translateRepoError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return notFound
		case repoErr.IsConflict():
			return ErrConflict
		case repoErr.IsUnavailable():
			return ErrUnavailable
		}
		return ErrUnavailable
	}
	return ErrUnavailable
}
