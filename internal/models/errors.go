package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes shared by the core and the HTTP layer.
const (
	CodeDuplicateEmail   = "DUPLICATE_EMAIL"
	CodeNicknameTaken    = "NICKNAME_TAKEN"
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeInvalidBody      = "INVALID_BODY"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotFound         = "NOT_FOUND"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks. Matching is by Code only.
var (
	ErrDuplicateEmail   = &AppError{Code: CodeDuplicateEmail}
	ErrNicknameTaken    = &AppError{Code: CodeNicknameTaken}
	ErrUserNotFound     = &AppError{Code: CodeUserNotFound}
	ErrInvalidBody      = &AppError{Code: CodeInvalidBody}
	ErrStoreUnavailable = &AppError{Code: CodeStoreUnavailable}
	ErrValidation       = &AppError{Code: CodeValidation}
	ErrUnauthorized     = &AppError{Code: CodeUnauthorized}
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Predefined error constructors
func NewRateLimitedError(resource string) *AppError {
	return &AppError{
		Code:    CodeRateLimited,
		Message: fmt.Sprintf("Too many %s requests, please try again later", resource),
	}
}

func NewDuplicateEmailError(email string) *AppError {
	return &AppError{
		Code:    CodeDuplicateEmail,
		Message: fmt.Sprintf("A user with email %q already exists", email),
	}
}

func NewNicknameTakenError(nickname string) *AppError {
	return &AppError{
		Code:    CodeNicknameTaken,
		Message: fmt.Sprintf("Nickname %q is already in use", nickname),
	}
}

func NewUserNotFoundError(key interface{}) *AppError {
	return &AppError{
		Code:    CodeUserNotFound,
		Message: fmt.Sprintf("User %v not found", key),
	}
}

func NewInvalidBodyError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidBody,
		Message: message,
	}
}

// NewStoreUnavailableError wraps a backing-store failure.
func NewStoreUnavailableError(err error) *AppError {
	return &AppError{
		Code:    CodeStoreUnavailable,
		Message: "Store unavailable",
		Err:     err,
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewFieldValidationError carries per-field messages for form-style input.
func NewFieldValidationError(message string, fields map[string]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Fields:  fields,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error:  appErr.Message,
			Code:   appErr.Code,
			Fields: appErr.Fields,
		}
		// Store failures carry driver text; keep it out of client responses.
		if appErr.Err != nil && appErr.Code != CodeStoreUnavailable && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
