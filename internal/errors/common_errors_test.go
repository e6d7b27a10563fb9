package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "parsing error type", errType: ErrTypeParsing, expected: "PARSING"},
		{name: "storage error type", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "validation error type", errType: ErrTypeValidation, expected: "VALIDATION"},
		{name: "not found error type", errType: ErrTypeNotFound, expected: "NOT_FOUND"},
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
		{name: "stage order error type", errType: ErrTypeStageOrder, expected: "STAGE_ORDER"},
		{name: "arithmetic error type", errType: ErrTypeArithmetic, expected: "ARITHMETIC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    &AppError{Type: ErrTypeParsing, Message: "bad header"},
			wantMessage: "[PARSING] bad header",
		},
		{
			name:        "error with cause",
			appError:    &AppError{Type: ErrTypeStorage, Message: "open lookup", Cause: fmt.Errorf("no such file")},
			wantMessage: "[STORAGE] open lookup: no such file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_UnwrapAndContext(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("write history", cause).WithContext("entity", "customer")

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "customer", err.Context["entity"])

	var target *AppError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &target))
	assert.Equal(t, ErrTypeStorage, target.Type)
}

func TestAppError_WithContextOnNilMap(t *testing.T) {
	err := &AppError{Type: ErrTypeConfig, Message: "bad"}
	err.WithContext("key", 1)
	assert.Equal(t, 1, err.Context["key"])
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantMsg  string
	}{
		{name: "parsing", err: NewParsingError("p", nil), wantType: ErrTypeParsing, wantMsg: "p"},
		{name: "storage", err: NewStorageError("s", nil), wantType: ErrTypeStorage, wantMsg: "s"},
		{name: "validation", err: NewAppValidationError("v"), wantType: ErrTypeValidation, wantMsg: "v"},
		{name: "not found", err: NewNotFoundError("item lookup"), wantType: ErrTypeNotFound, wantMsg: "item lookup not found"},
		{name: "config", err: NewConfigError("c", nil), wantType: ErrTypeConfig, wantMsg: "c"},
		{name: "stage order", err: NewStageOrderError("o", nil), wantType: ErrTypeStageOrder, wantMsg: "o"},
		{name: "arithmetic", err: NewArithmeticError("a"), wantType: ErrTypeArithmetic, wantMsg: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantMsg, tt.err.Message)
			assert.NotNil(t, tt.err.Context)
		})
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrTypeArithmetic, TypeOf(fmt.Errorf("ctx: %w", NewArithmeticError("zero orders"))))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
	assert.True(t, IsType(NewConfigError("x", nil), ErrTypeConfig))
	assert.False(t, IsType(NewConfigError("x", nil), ErrTypeStorage))
}
