// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate limited")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// AppError carries everything needed to render an error response.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
	Details    map[string]string
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

func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func ValidationError(details map[string]string) *AppError {
	return NewAppError(
		ErrInvalidInput,
		"Données invalides",
		http.StatusBadRequest,
		"VALIDATION_ERROR",
	).WithDetails(details)
}

func DuplicateError(field, message string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		message,
		http.StatusBadRequest,
		"DUPLICATE",
	).WithDetails(map[string]string{field: message})
}

func ConflictError(message string, details map[string]string) *AppError {
	return NewAppError(
		ErrConflict,
		message,
		http.StatusConflict,
		"CONFLICT",
	).WithDetails(details)
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "Non authentifié"
	}
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "Accès refusé"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func NotFoundError(message string) *AppError {
	return NewAppError(ErrNotFound, message, http.StatusNotFound, "NOT_FOUND")
}

func RateLimitedError(retryAfterSeconds int) *AppError {
	return NewAppError(
		ErrRateLimited,
		fmt.Sprintf(
			"Trop de tentatives. Réessayez dans %d secondes.",
			retryAfterSeconds,
		),
		http.StatusTooManyRequests,
		"RATE_LIMITED",
	).WithDetails(map[string]string{
		"retry_after": strconv.Itoa(retryAfterSeconds),
	})
}

func CSRFError() *AppError {
	return NewAppError(
		ErrForbidden,
		"Jeton CSRF manquant ou invalide",
		http.StatusForbidden,
		"CSRF_INVALID",
	)
}
