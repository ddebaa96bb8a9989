package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a business failure so transports can map it without string matching.
type ErrorCode string

const (
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeForbidden         ErrorCode = "FORBIDDEN"
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	CodeValidation        ErrorCode = "VALIDATION_ERROR"
	CodeInvalidState      ErrorCode = "INVALID_STATE"
	CodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	CodePaymentRequired   ErrorCode = "PAYMENT_REQUIRED"
	CodeInvalidOTP        ErrorCode = "INVALID_OTP"
	CodeAlreadyExists     ErrorCode = "ALREADY_EXISTS"
	CodeAlreadyConfirmed  ErrorCode = "ALREADY_CONFIRMED"
	CodeConflict          ErrorCode = "CONFLICT"
)

// AppError is a typed business failure carrying the field it should be rendered against.
type AppError struct {
	Code    ErrorCode
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *AppError) Unwrap() error { return e.Err }

// NewNotFoundError reports that the named entity does not exist.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Field:   fieldFor(entity),
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// NewForbiddenError reports an ownership mismatch.
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// NewUnauthorizedError reports a missing or invalid identity.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

// NewValidationError reports malformed input not tied to a single field.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewFieldValidationError reports malformed input for one field.
func NewFieldValidationError(field, message string) *AppError {
	return &AppError{Code: CodeValidation, Field: field, Message: message}
}

// NewInvalidStateError reports an operation that is not valid for the current status.
func NewInvalidStateError(field, message string) *AppError {
	return &AppError{Code: CodeInvalidState, Field: field, Message: message}
}

// NewInvalidTransitionError reports a status change missing from the transition table.
func NewInvalidTransitionError(from, to string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Field:   "status",
		Message: fmt.Sprintf("cannot change status from %s to %s", from, to),
	}
}

// NewPaymentRequiredError reports a status advance blocked by missing settlement.
func NewPaymentRequiredError(message string) *AppError {
	return &AppError{Code: CodePaymentRequired, Field: "payment", Message: message}
}

// NewInvalidOTPError reports a rejected one-time password.
func NewInvalidOTPError() *AppError {
	return &AppError{Code: CodeInvalidOTP, Field: "otp", Message: "the verification code is incorrect"}
}

// NewAlreadyExistsError reports a duplicate where repetition is treated as an error.
func NewAlreadyExistsError(field, message string) *AppError {
	return &AppError{Code: CodeAlreadyExists, Field: field, Message: message}
}

// NewAlreadyConfirmedError reports a settlement that has already been confirmed.
func NewAlreadyConfirmedError(message string) *AppError {
	return &AppError{Code: CodeAlreadyConfirmed, Field: "payment", Message: message}
}

// NewConflictError reports a concurrent modification detected by a guarded update.
func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// AsAppError extracts an *AppError from the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func fieldFor(entity string) string {
	return strings.ToLower(entity)
}
