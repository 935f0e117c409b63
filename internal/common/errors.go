package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// AuthError is returned when the bearer token is missing or invalid (401).
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unauthorized: %s: %v", e.Reason, e.Err)
	}
	return "unauthorized: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// ForbiddenError is returned when the caller's role may not import (403).
type ForbiddenError struct {
	UserID string
	Role   string
}

func (e *ForbiddenError) Error() string {
	if e.Role == "" {
		return "forbidden: no role assigned"
	}
	return fmt.Sprintf("forbidden: role %q may not import employees", e.Role)
}

// UnsupportedFormatError is returned by the format router's unsupported arm.
type UnsupportedFormatError struct {
	FileName string
	MimeType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: name=%q type=%q", e.FileName, e.MimeType)
}

// ParseError is a stage-level failure while turning bytes into rows.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AIExtractionError means the AI response could not be turned into an array of records.
type AIExtractionError struct {
	Reason string
	Err    error
}

func (e *AIExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ai extraction: %s: %v", e.Reason, e.Err)
	}
	return "ai extraction: " + e.Reason
}

func (e *AIExtractionError) Unwrap() error { return e.Err }

// UploadError means the signed PUT to the object store did not succeed.
type UploadError struct {
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload failed: %v", e.Err)
	}
	return fmt.Sprintf("upload failed: %s", e.Status)
}

func (e *UploadError) Unwrap() error { return e.Err }

// CommitBlockedError is returned when a bulk commit still contains invalid rows.
type CommitBlockedError struct {
	Invalid int
}

func (e *CommitBlockedError) Error() string {
	return fmt.Sprintf("commit blocked: %d invalid row(s)", e.Invalid)
}

// HTTPStatus maps an error to the status code returned to callers.
func HTTPStatus(err error) int {
	var (
		authErr      *AuthError
		forbiddenErr *ForbiddenError
		blockedErr   *CommitBlockedError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &authErr), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &forbiddenErr), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &blockedErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode is the machine-readable code placed in error envelopes.
func ErrorCode(err error) string {
	var (
		appErr         *AppError
		unsupportedErr *UnsupportedFormatError
		parseErr       *ParseError
		aiErr          *AIExtractionError
		uploadErr      *UploadError
	)
	switch {
	case errors.As(err, &unsupportedErr):
		return "unsupported_format"
	case errors.As(err, &parseErr):
		return "parse_error"
	case errors.As(err, &aiErr):
		return "ai_extraction_error"
	case errors.As(err, &uploadErr):
		return "upload_error"
	case errors.As(err, &appErr):
		return appErr.Code
	}
	switch HTTPStatus(err) {
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusUnprocessableEntity:
		return "commit_blocked"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadRequest:
		return "invalid_input"
	}
	return "internal"
}
