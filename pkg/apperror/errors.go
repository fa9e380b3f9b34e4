package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Reason is a machine-readable failure kind that the checkout screen switches on
type Reason string

// Validation reasons (detected locally, no remote call was made)
const (
	ReasonMissingDate      Reason = "MissingDate"
	ReasonInvalidDate      Reason = "InvalidDate"
	ReasonEmptyCart        Reason = "EmptyCart"
	ReasonMissingClient    Reason = "MissingClient"
	ReasonInvalidQuantity  Reason = "InvalidQuantity"
	ReasonStockExceeded    Reason = "StockExceeded"
	ReasonOutOfStock       Reason = "OutOfStock"
	ReasonNotInCart        Reason = "NotInCart"
	ReasonProductNotFound  Reason = "ProductNotFound"
	ReasonClientNotFound   Reason = "ClientNotFound"
	ReasonSubmitInProgress Reason = "SubmissionInProgress"
)

// Remote reasons (a call to the pharmacy API failed)
const (
	ReasonSaleCreationFailed     Reason = "SaleCreationFailed"
	ReasonSaleLineCreationFailed Reason = "SaleLineCreationFailed"
	ReasonNetworkError           Reason = "NetworkError"
	ReasonNetworkTimeout         Reason = "NetworkTimeout"
	ReasonCatalogUnavailable     Reason = "CatalogUnavailable"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int            `json:"code"`
	Reason  Reason         `json:"reason,omitempty"`
	Message string         `json:"message"`
	Errors  []FieldError   `json:"errors,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches two AppErrors by reason so callers can use errors.Is against the sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if t.Reason == "" {
		return t.Code == e.Code && t.Message == e.Message
	}
	return t.Reason == e.Reason
}

// WithDetail returns a copy of the error carrying an extra detail entry.
func (e *AppError) WithDetail(key string, value any) *AppError {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// WithCause returns a copy of the error wrapping the underlying cause.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.cause = err
	return &cp
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Message: "Resource not found"}
	ErrUnauthorized   = &AppError{Code: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrForbidden      = &AppError{Code: http.StatusForbidden, Message: "Forbidden"}
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Message: "Bad request"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	ErrInvalidToken   = &AppError{Code: http.StatusUnauthorized, Message: "Invalid token"}
)

// Checkout sentinels, compare with errors.Is
var (
	ErrMissingDate      = NewReasonError(http.StatusUnprocessableEntity, ReasonMissingDate, "A sale date must be selected")
	ErrInvalidDate      = NewReasonError(http.StatusUnprocessableEntity, ReasonInvalidDate, "Sale date must use the YYYY-MM-DD format")
	ErrEmptyCart        = NewReasonError(http.StatusUnprocessableEntity, ReasonEmptyCart, "At least one product must be selected")
	ErrMissingClient    = NewReasonError(http.StatusUnprocessableEntity, ReasonMissingClient, "A client must be selected")
	ErrInvalidQuantity  = NewReasonError(http.StatusUnprocessableEntity, ReasonInvalidQuantity, "Quantity must be a non-negative integer")
	ErrStockExceeded    = NewReasonError(http.StatusUnprocessableEntity, ReasonStockExceeded, "Not enough stock available")
	ErrOutOfStock       = NewReasonError(http.StatusUnprocessableEntity, ReasonOutOfStock, "Product has no stock available")
	ErrNotInCart        = NewReasonError(http.StatusNotFound, ReasonNotInCart, "Product is not in the cart")
	ErrProductNotFound  = NewReasonError(http.StatusNotFound, ReasonProductNotFound, "Product not found")
	ErrClientNotFound   = NewReasonError(http.StatusNotFound, ReasonClientNotFound, "Client not found")
	ErrSubmitInProgress = NewReasonError(http.StatusConflict, ReasonSubmitInProgress, "A submission is already in progress")

	ErrSaleCreationFailed     = NewReasonError(http.StatusBadGateway, ReasonSaleCreationFailed, "Failed to create the sale")
	ErrSaleLineCreationFailed = NewReasonError(http.StatusBadGateway, ReasonSaleLineCreationFailed, "Failed to create a sale line")
	ErrNetwork                = NewReasonError(http.StatusBadGateway, ReasonNetworkError, "Pharmacy API request failed")
	ErrNetworkTimeout         = NewReasonError(http.StatusGatewayTimeout, ReasonNetworkTimeout, "Pharmacy API request timed out")
	ErrCatalogUnavailable     = NewReasonError(http.StatusServiceUnavailable, ReasonCatalogUnavailable, "Catalog has not been loaded yet")
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewReasonError creates an application error tagged with a reason
func NewReasonError(code int, reason Reason, message string) *AppError {
	return &AppError{
		Code:    code,
		Reason:  reason,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: resource + " not found",
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

// NewStockExceededError names the remaining stock of the product.
func NewStockExceededError(productName string, stock int) *AppError {
	e := ErrStockExceeded.WithDetail("stock", stock).WithDetail("product", productName)
	e.Message = fmt.Sprintf("Not enough stock available for %s. Only %d units left.", productName, stock)
	return e
}

// NewOutOfStockError names the product that cannot be added.
func NewOutOfStockError(productName string) *AppError {
	e := ErrOutOfStock.WithDetail("product", productName)
	e.Message = fmt.Sprintf("%s has no stock available", productName)
	return e
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// HasReason reports whether err carries the given reason.
func HasReason(err error, reason Reason) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Reason == reason
	}
	return false
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
	}
}
