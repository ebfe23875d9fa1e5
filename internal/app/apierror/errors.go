// Package apierror defines the coded errors the gateway surfaces to callers.
// Clients are expected to match on Code, not on message text.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes.
const (
	CodeInvalidAsset       = "INVALID_ASSET"
	CodeSameAsset          = "SAME_ASSET_CONVERSION"
	CodeInvalidAmount      = "INVALID_AMOUNT"
	CodeUnsupportedMethod  = "UNSUPPORTED_METHOD"
	CodeAmountOutOfRange   = "AMOUNT_OUT_OF_RANGE"
	CodePriceFetchFailed   = "PRICE_FETCH_FAILED"
	CodeRateFetchFailed    = "RATE_FETCH_FAILED"
	CodeConversionFailed   = "CONVERSION_CALCULATION_FAILED"
	CodeSettlementFailed   = "SETTLEMENT_EXECUTION_FAILED"
	CodeSettlementNotFound = "SETTLEMENT_NOT_FOUND"
	CodeConversionNotFound = "CONVERSION_NOT_FOUND"
	CodeMerchantNotFound   = "MERCHANT_NOT_FOUND"
	CodeValidation         = "VALIDATION_FAILED"
	CodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Error carries a stable machine code alongside the human-readable message.
type Error struct {
	Code       string
	Message    string
	HTTPStatus int
	cause      error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// New builds an error with an explicit code and HTTP status.
func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: status}
}

// Newf builds an error with a formatted message.
func Newf(code string, status int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), HTTPStatus: status}
}

// Wrap attaches a code and status to an underlying error.
func Wrap(code string, status int, message string, cause error) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: status, cause: cause}
}

// From normalizes any error into an *Error. Unknown errors become
// INTERNAL_ERROR with a 500 status.
func From(err error) *Error {
	var coded *Error
	if errors.As(err, &coded) {
		return coded
	}
	return &Error{Code: CodeInternal, Message: err.Error(), HTTPStatus: http.StatusInternalServerError}
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// InvalidAsset rejects an asset code outside the supported set.
func InvalidAsset(code string) *Error {
	return Newf(CodeInvalidAsset, http.StatusBadRequest, "unsupported asset %q", code)
}

// SameAsset rejects a conversion between identical assets when the reject
// policy is active.
func SameAsset(code string) *Error {
	return Newf(CodeSameAsset, http.StatusBadRequest, "from_asset and to_asset are both %q", code)
}

// InvalidAmount rejects non-positive amounts.
func InvalidAmount(amount float64) *Error {
	return Newf(CodeInvalidAmount, http.StatusBadRequest, "amount must be positive, got %v", amount)
}

// UnsupportedMethod rejects a settlement method outside the configured set.
func UnsupportedMethod(method string) *Error {
	return Newf(CodeUnsupportedMethod, http.StatusBadRequest, "unsupported settlement method %q", method)
}

// AmountOutOfRange rejects amounts outside a method's limits.
func AmountOutOfRange(method string, amount, min, max float64) *Error {
	return Newf(CodeAmountOutOfRange, http.StatusBadRequest,
		"amount %v outside [%v, %v] for method %s", amount, min, max, method)
}

// SettlementNotFound signals an unknown settlement id.
func SettlementNotFound(id string) *Error {
	return Newf(CodeSettlementNotFound, http.StatusNotFound, "settlement %s not found", id)
}

// ConversionNotFound signals an unknown conversion id.
func ConversionNotFound(id string) *Error {
	return Newf(CodeConversionNotFound, http.StatusNotFound, "conversion %s not found", id)
}

// MerchantNotFound signals an unknown merchant id.
func MerchantNotFound(id string) *Error {
	return Newf(CodeMerchantNotFound, http.StatusNotFound, "merchant %s not found", id)
}

// ConversionFailed wraps an unexpected failure inside the conversion engine.
func ConversionFailed(cause error) *Error {
	return Wrap(CodeConversionFailed, http.StatusInternalServerError, "conversion calculation failed", cause)
}

// SettlementFailed wraps a dispatch-time execution failure.
func SettlementFailed(cause error) *Error {
	return Wrap(CodeSettlementFailed, http.StatusUnprocessableEntity, "settlement execution failed", cause)
}

// Validation rejects a malformed request.
func Validation(message string) *Error {
	return New(CodeValidation, message, http.StatusBadRequest)
}
