package entity

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCategory classifies failures coming from upstream services.
type ErrorCategory string

const (
	// CategoryTransport covers connection failures and timeouts.
	CategoryTransport ErrorCategory = "transport"
	// CategoryUpstream covers non-2xx responses.
	CategoryUpstream ErrorCategory = "upstream"
	// CategoryService covers a 2xx response carrying an explicit error field.
	CategoryService ErrorCategory = "service"
	// CategoryDecode covers malformed response bodies.
	CategoryDecode ErrorCategory = "decode"
	// CategoryValidation covers bad caller input.
	CategoryValidation ErrorCategory = "validation"
	// CategoryNotFound covers missing resources.
	CategoryNotFound ErrorCategory = "not_found"
)

// ServiceError is an error with a category and the HTTP status it maps to.
type ServiceError struct {
	Category   ErrorCategory
	StatusCode int
	Message    string
	URL        string
	Cause      error
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap returns the underlying cause
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status a REST handler should answer with.
func (e *ServiceError) HTTPStatus() int {
	switch e.Category {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryTransport:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// NewServiceError builds a ServiceError.
func NewServiceError(category ErrorCategory, message string, cause error) *ServiceError {
	return &ServiceError{Category: category, Message: message, Cause: cause}
}

// NewValidationError builds a validation ServiceError.
func NewValidationError(message string) *ServiceError {
	return &ServiceError{Category: CategoryValidation, StatusCode: http.StatusBadRequest, Message: message}
}

// AsServiceError extracts a ServiceError from an error chain.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsCategory reports whether err is a ServiceError of the given category.
func IsCategory(err error, category ErrorCategory) bool {
	se, ok := AsServiceError(err)
	return ok && se.Category == category
}

// PortfolioError records a per-asset problem met during an aggregation cycle.
type PortfolioError struct {
	WalletAddress string `json:"walletAddress"`
	TokenSymbol   string `json:"tokenSymbol"`
	TokenAddress  string `json:"tokenAddress,omitempty" yaml:"tokenAddress,omitempty"`
	IsNative      bool   `json:"isNative"`
	Message       string `json:"message"`
}
