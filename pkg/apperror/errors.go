package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
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

// ---- Budget & Ledger (BUD) ----

// ErrWalletNotFound reports a scope with no provisioned wallet. This is a
// configuration fault, never retried.
func ErrWalletNotFound(scope string) *AppError {
	return New("BUD_001", fmt.Sprintf("no wallet provisioned for scope %s", scope), http.StatusInternalServerError)
}

func ErrInvalidAmount() *AppError {
	return New("BUD_002", "Invalid amount", http.StatusBadRequest)
}

// ErrDuplicateReference reports a delta whose reference id was already
// applied to the wallet. Callers treat this as "already done", not a fault.
func ErrDuplicateReference(referenceID string) *AppError {
	return New("BUD_003", fmt.Sprintf("reference %s already applied", referenceID), http.StatusConflict)
}

func ErrWalletExists() *AppError {
	return New("BUD_004", "Wallet already exists for scope", http.StatusConflict)
}

func ErrEntryNotFound(traceID string) *AppError {
	return New("BUD_005", fmt.Sprintf("no ledger entry for trace %s", traceID), http.StatusNotFound)
}

// ErrEntryStateConflict reports a confirm/fail against an entry that is no
// longer in a state accepting that transition.
func ErrEntryStateConflict(traceID string, status string) *AppError {
	return New("BUD_006", fmt.Sprintf("entry %s is %s", traceID, status), http.StatusConflict)
}

func ErrInvalidScopeChain(detail string) *AppError {
	return New("BUD_007", fmt.Sprintf("invalid scope chain: %s", detail), http.StatusBadRequest)
}

func ErrWalletInactive(scope string) *AppError {
	return New("BUD_008", fmt.Sprintf("wallet for scope %s is deactivated", scope), http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrVelocityExceeded() *AppError {
	return New("RATE_001", "Request velocity limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// ErrCacheUnavailable reports that the hot spend cache is unreachable.
// Authorization fails closed on this unless the fail-open override applies;
// it is logged at a distinct severity from ordinary denials.
func ErrCacheUnavailable(err error) *AppError {
	return Wrap("SYS_001", "Spend cache unavailable", http.StatusServiceUnavailable, err)
}

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_002", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_002 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_002", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a BUD_002-style validation error.
func Validation(message string) *AppError {
	return New("BUD_002", message, http.StatusBadRequest)
}
