package repositories

import "fmt"

// SettlementErrorCode enumerates failure reasons for order settlement.
type SettlementErrorCode string

const (
	// SettlementErrorUnknown represents an unspecified failure.
	SettlementErrorUnknown SettlementErrorCode = "settlement_unknown"
	// SettlementErrorStockShort indicates a variant lacks the quantity being settled.
	SettlementErrorStockShort SettlementErrorCode = "settlement_stock_short"
	// SettlementErrorVoucherExhausted indicates the voucher has no redemptions left.
	SettlementErrorVoucherExhausted SettlementErrorCode = "settlement_voucher_exhausted"
	// SettlementErrorNotFound indicates a referenced product or voucher no longer exists.
	SettlementErrorNotFound SettlementErrorCode = "settlement_not_found"
)

// SettlementError wraps settlement-specific failures with machine readable codes.
type SettlementError struct {
	Op      string
	Code    SettlementErrorCode
	Message string
	SKU     string
	Err     error
}

// Error implements the error interface.
func (e *SettlementError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *SettlementError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewSettlementError constructs a typed settlement error.
func NewSettlementError(code SettlementErrorCode, message string, err error) *SettlementError {
	if message == "" {
		message = string(code)
	}
	return &SettlementError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
