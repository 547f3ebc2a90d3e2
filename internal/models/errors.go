package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorCode identifies a failure class that the HTTP layer maps to a status.
type ErrorCode string

// Error codes understood by the central error handler.
const (
	CodeMalformedID        ErrorCode = "MALFORMED_ID"
	CodeMalformedBody      ErrorCode = "MALFORMED_BODY"
	CodeFieldRequired      ErrorCode = "FIELD_REQUIRED"
	CodeAnswerRequired     ErrorCode = "ANSWER_REQUIRED"
	CodeAnswerTooShort     ErrorCode = "ANSWER_TOO_SHORT"
	CodeAnswerTooLong      ErrorCode = "ANSWER_TOO_LONG"
	CodeUsernameTaken      ErrorCode = "USERNAME_TAKEN"
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeUnknownEndpoint    ErrorCode = "UNKNOWN_ENDPOINT"
	CodeRateLimited        ErrorCode = "RATE_LIMITED"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    ErrorCode
	Message string
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

// Is matches any *AppError carrying the same code, so sentinel values work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrMalformedID        = &AppError{Code: CodeMalformedID, Message: "malformed ID"}
	ErrAnswerRequired     = &AppError{Code: CodeAnswerRequired, Message: "answer is required"}
	ErrAnswerTooShort     = &AppError{Code: CodeAnswerTooShort, Message: "answer is too short"}
	ErrAnswerTooLong      = &AppError{Code: CodeAnswerTooLong, Message: "answer is too long"}
	ErrUsernameTaken      = &AppError{Code: CodeUsernameTaken, Message: "this username is already taken."}
	ErrInvalidCredentials = &AppError{Code: CodeInvalidCredentials, Message: "invalid username or password"}
	ErrUnknownEndpoint    = &AppError{Code: CodeUnknownEndpoint, Message: "unknown endpoint"}
	ErrRateLimited        = &AppError{Code: CodeRateLimited, Message: "rate limit exceeded"}
)

// NewMalformedIDError reports an identifier that does not parse.
func NewMalformedIDError(raw string) *AppError {
	return &AppError{
		Code:    CodeMalformedID,
		Message: "malformed ID",
		Err:     fmt.Errorf("cannot parse %q as an identifier", raw),
	}
}

// NewMalformedBodyError reports a request body that is not valid JSON.
func NewMalformedBodyError(err error) *AppError {
	return &AppError{
		Code:    CodeMalformedBody,
		Message: "malformed request body",
		Err:     err,
	}
}

// NewRequiredFieldError reports a missing request property.
func NewRequiredFieldError(field string) *AppError {
	return &AppError{
		Code:    CodeFieldRequired,
		Message: fmt.Sprintf("property %q is required", field),
	}
}

// NewNotFoundError reports a missing resource, e.g. "prompt not found".
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: resource + " not found",
		Err:     fmt.Errorf("%s with ID %v does not exist", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
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

// AsAppError returns the first *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// RespondWithError creates a standardized error response. Wrapped causes are
// never written to the client.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := AsAppError(err); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  string(appErr.Code),
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
