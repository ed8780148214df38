package errors

import (
	apperrors "github.com/wekeepgrowing/mailshield/pkg/errors"
)

var (
	// ErrAccountNotFound indicates that no account matches the owner or id
	ErrAccountNotFound = apperrors.NewAppError(apperrors.ErrNotFound, "account not found", nil)

	// ErrSubscriptionNotFound indicates that the account has no subscription row
	ErrSubscriptionNotFound = apperrors.NewAppError(apperrors.ErrNotFound, "subscription not found", nil)

	// ErrCustomerNotFound indicates that the payment processor has no such customer
	ErrCustomerNotFound = apperrors.NewAppError(apperrors.ErrNotFound, "payment processor customer not found", nil)

	// ErrAccountForbidden indicates that the caller does not own the account
	ErrAccountForbidden = apperrors.NewAppError(apperrors.ErrUnauthorized, "account does not belong to the current user", nil)

	// ErrMissingSubscriptionID indicates that neither the request nor the local row names a processor subscription
	ErrMissingSubscriptionID = apperrors.NewAppError(apperrors.ErrInvalidArgument, "subscriptionId is required", nil)

	// ErrMissingScheduleID indicates that there is no scheduled plan change to cancel
	ErrMissingScheduleID = apperrors.NewAppError(apperrors.ErrInvalidArgument, "scheduleId is required", nil)

	// ErrSubscriptionMismatch indicates that the given processor subscription belongs to another row
	ErrSubscriptionMismatch = apperrors.NewAppError(apperrors.ErrInvalidArgument, "subscriptionId does not match the account subscription", nil)

	// ErrNotLinkedToProcessor indicates that the subscription row has no processor reference
	ErrNotLinkedToProcessor = apperrors.NewAppError(apperrors.ErrConflict, "subscription is not linked to the payment processor", nil)

	// ErrProcessorFailure wraps payment processor call failures
	ErrProcessorFailure = apperrors.NewAppError(apperrors.ErrUpstream, "payment processor request failed", nil)

	// ErrInvalidRequestBody indicates a body that is not valid JSON
	ErrInvalidRequestBody = apperrors.NewAppError(apperrors.ErrInvalidArgument, "invalid request body", nil)

	// ErrFeatureNotInPlan indicates that the plan does not include a dashboard feature
	ErrFeatureNotInPlan = apperrors.NewAppError(apperrors.ErrUnauthorized, "your plan does not include this feature", nil)
)
