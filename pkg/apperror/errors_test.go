package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("BUD_002", "Invalid amount", http.StatusBadRequest),
			expected: "[BUD_002] Invalid amount",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_002", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_002] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_002", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("BUD_002", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestBudgetErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"WalletNotFound", ErrWalletNotFound("user"), "BUD_001", 500},
		{"InvalidAmount", ErrInvalidAmount(), "BUD_002", 400},
		{"DuplicateReference", ErrDuplicateReference("T1"), "BUD_003", 409},
		{"WalletExists", ErrWalletExists(), "BUD_004", 409},
		{"EntryNotFound", ErrEntryNotFound("T1"), "BUD_005", 404},
		{"EntryStateConflict", ErrEntryStateConflict("T1", "SETTLED"), "BUD_006", 409},
		{"InvalidScopeChain", ErrInvalidScopeChain("empty"), "BUD_007", 400},
		{"WalletInactive", ErrWalletInactive("tenant"), "BUD_008", 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("dial tcp: connection refused")
	cacheErr := ErrCacheUnavailable(inner)
	assert.Equal(t, "SYS_001", cacheErr.Code)
	assert.Equal(t, 503, cacheErr.HTTPStatus)
	assert.True(t, errors.Is(cacheErr, inner))

	dbErr := ErrDatabaseError(inner)
	assert.Equal(t, "SYS_002", dbErr.Code)
	assert.Equal(t, 500, dbErr.HTTPStatus)
	assert.True(t, errors.Is(dbErr, inner))
}

func TestVelocityError(t *testing.T) {
	err := ErrVelocityExceeded()
	assert.Equal(t, "RATE_001", err.Code)
	assert.Equal(t, 429, err.HTTPStatus)
}

func TestDuplicateReferenceMessage(t *testing.T) {
	err := ErrDuplicateReference("trace-42")
	assert.Contains(t, err.Message, "trace-42")
}
