package errors

import (
	"fmt"

	apperrors "github.com/wekeepgrowing/mailshield/pkg/errors"
)

// APIKeyError represents failures while authenticating a public API request
type APIKeyError struct {
	Type    string
	Message string
	Cause   error
}

func (e *APIKeyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s - %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *APIKeyError) Unwrap() error {
	return e.Cause
}

// Code maps the error type onto the shared error codes
func (e *APIKeyError) Code() string {
	switch e.Type {
	case ErrTypeMissingAPIKey, ErrTypeInvalidAPIKey:
		return apperrors.ErrUnauthenticated
	case ErrTypeInsufficientPermission, ErrTypePlanRequired:
		return apperrors.ErrUnauthorized
	case ErrTypeRateLimited:
		return apperrors.ErrRateLimited
	default:
		return apperrors.ErrInternal
	}
}

// API key error types
const (
	ErrTypeMissingAPIKey          = "MISSING_API_KEY"
	ErrTypeInvalidAPIKey          = "INVALID_API_KEY"
	ErrTypeInsufficientPermission = "INSUFFICIENT_PERMISSION"
	ErrTypePlanRequired           = "PLAN_REQUIRED"
	ErrTypeRateLimited            = "RATE_LIMITED"
	ErrTypeKeyStoreUnavailable    = "KEY_STORE_UNAVAILABLE"
)

func NewMissingAPIKeyError() *APIKeyError {
	return &APIKeyError{Type: ErrTypeMissingAPIKey, Message: "Missing or invalid Authorization header"}
}

func NewInvalidAPIKeyError() *APIKeyError {
	return &APIKeyError{Type: ErrTypeInvalidAPIKey, Message: "Invalid or expired API key"}
}

func NewInsufficientPermissionError(required string) *APIKeyError {
	return &APIKeyError{
		Type:    ErrTypeInsufficientPermission,
		Message: fmt.Sprintf("Insufficient permissions: '%s' permission required", required),
	}
}

// NewPlanRequiredError names the plans that unlock the endpoint
func NewPlanRequiredError(current string, required ...string) *APIKeyError {
	return &APIKeyError{
		Type:    ErrTypePlanRequired,
		Message: fmt.Sprintf("API access requires the %s plan (current plan: %s)", joinPlans(required), current),
	}
}

func NewRateLimitedError(limit int) *APIKeyError {
	return &APIKeyError{
		Type:    ErrTypeRateLimited,
		Message: fmt.Sprintf("Rate limit exceeded: %d requests per minute", limit),
	}
}

func NewKeyStoreUnavailableError(cause error) *APIKeyError {
	return &APIKeyError{Type: ErrTypeKeyStoreUnavailable, Message: "Failed to validate API key", Cause: cause}
}

func joinPlans(plans []string) string {
	switch len(plans) {
	case 0:
		return "a paid"
	case 1:
		return plans[0]
	}
	out := plans[0]
	for _, p := range plans[1 : len(plans)-1] {
		out += ", " + p
	}
	return out + " or " + plans[len(plans)-1]
}
