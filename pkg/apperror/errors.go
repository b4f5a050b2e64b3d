package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string         `json:"error_code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// WithDetails attaches a structured detail payload for client consumption.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// ---- Ledger Business Logic (LED) ----

// ErrInsufficientFunds is recoverable: the shortfall is surfaced so the
// caller can build a user-facing message or trigger a recharge prompt.
func ErrInsufficientFunds(currentBalance, shortfall int64) *AppError {
	return New("LED_001", "Insufficient balance in account", http.StatusPaymentRequired).
		WithDetails(map[string]any{
			"current_balance": currentBalance,
			"shortfall":       shortfall,
		})
}

func ErrAccountNotFound() *AppError {
	return New("LED_002", "Account not found", http.StatusNotFound)
}

func ErrInvalidAmount() *AppError {
	return New("LED_003", "Amount must be positive", http.StatusBadRequest)
}

// ErrStorageConflict signals transaction commit contention. Expected under
// concurrent debits; the caller retries with bounded backoff.
func ErrStorageConflict(err error) *AppError {
	return Wrap("LED_004", "Storage conflict, retry the operation", http.StatusConflict, err)
}

func ErrDuplicateReference() *AppError {
	return New("LED_005", "Duplicate external reference", http.StatusConflict)
}

func ErrUnknownCostBearer(bearer string) *AppError {
	return New("LED_006", fmt.Sprintf("Unknown cost bearer: %s", bearer), http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrInsufficientScope(scope string) *AppError {
	return New("AUTH_002", fmt.Sprintf("Token lacks required scope: %s", scope), http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a LED_003-style validation error with a custom message.
// Validation errors are fatal for the request and must not be retried.
func Validation(message string) *AppError {
	return New("LED_003", message, http.StatusBadRequest)
}
