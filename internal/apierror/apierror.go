// Package apierror provides standardized error response structures for the API
// and the domain error taxonomy shared by services and handlers.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Message: msg}
}

// FromError builds the envelope for a service error. Persistence and unknown
// errors are replaced by a generic message.
func FromError(err error) *APIError {
	code := Code(err)
	switch code {
	case "PERSISTENCE_FAILURE":
		return &APIError{Message: "Storage temporarily unavailable, the operation was not applied", Code: code}
	case "INTERNAL":
		return &APIError{Message: "Internal server error", Code: code}
	}
	return &APIError{Message: err.Error(), Code: code}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Message: "Validation failed", Code: "VALIDATION_ERROR", Fields: fields}
}

// Domain errors. Services wrap these with fmt.Errorf("%w: ...") so the message
// names the product or batch involved while errors.Is keeps working.
var (
	ErrValidation             = errors.New("validation error")
	ErrNotFound               = errors.New("not found")
	ErrEmptyBasket            = errors.New("no items provided")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInsufficientPayment    = errors.New("insufficient payment")
	ErrConcurrentModification = errors.New("batch modified concurrently")
	ErrExpiredBatch           = errors.New("expired batch not allowed")
	ErrNoBatchFound           = errors.New("no batch found")
	ErrPersistence            = errors.New("persistence failure")
)

var taxonomy = []struct {
	err    error
	status int
	code   string
}{
	{ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{ErrEmptyBasket, http.StatusBadRequest, "EMPTY_BASKET"},
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{ErrNoBatchFound, http.StatusNotFound, "NO_BATCH_FOUND"},
	{ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
	{ErrConcurrentModification, http.StatusConflict, "CONCURRENT_MODIFICATION"},
	{ErrInsufficientPayment, http.StatusUnprocessableEntity, "INSUFFICIENT_PAYMENT"},
	{ErrExpiredBatch, http.StatusUnprocessableEntity, "EXPIRED_BATCH_REJECTED"},
	{ErrPersistence, http.StatusServiceUnavailable, "PERSISTENCE_FAILURE"},
}

// Status maps a service error to its HTTP status code.
func Status(err error) int {
	for _, t := range taxonomy {
		if errors.Is(err, t.err) {
			return t.status
		}
	}
	return http.StatusInternalServerError
}

// Code maps a service error to a stable machine-readable code.
func Code(err error) string {
	for _, t := range taxonomy {
		if errors.Is(err, t.err) {
			return t.code
		}
	}
	return "INTERNAL"
}
