// Package services defines the business logic for access control,
// subscriptions, payments, admins, referrals, and monitored messages.
// This file centralizes common service-level error values so that they can
// be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Access-control errors.
var (
	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrAlreadyBanned is returned when a ban is requested for a user who
	// already has a ban row. Callers treating bans as idempotent can ignore it.
	ErrAlreadyBanned = errors.New("user already banned")

	// ErrNotBanned is returned when an unban targets a user without a ban row.
	ErrNotBanned = errors.New("user is not banned")
)

// Subscription and payment errors.
var (
	// ErrUnknownPlan is returned when a subscription operation names a plan
	// outside the configured policy.
	ErrUnknownPlan = errors.New("unknown subscription plan")

	// ErrSubscriptionNotFound indicates the user has no subscription row.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrDuplicatePayment is returned when the external payment id has
	// already been recorded.
	ErrDuplicatePayment = errors.New("payment already recorded")

	// ErrPaymentNotFound indicates that the ledger row being settled does
	// not exist.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrAlreadySettled is returned when settling a payment that is no
	// longer pending.
	ErrAlreadySettled = errors.New("payment already settled")

	// ErrInvalidSettleStatus is returned when a settlement names a status
	// other than completed or failed.
	ErrInvalidSettleStatus = errors.New("settle status must be completed or failed")
)

// Admin errors.
var (
	// ErrUnauthorized is returned when the acting user lacks the privilege
	// the operation requires.
	ErrUnauthorized = errors.New("not authorized")

	// ErrAdminNotFound indicates that the revocation target is not an admin.
	ErrAdminNotFound = errors.New("admin not found")
)

// Referral errors.
var (
	// ErrSelfReferral is returned when a user tries to refer themselves.
	ErrSelfReferral = errors.New("cannot refer yourself")

	// ErrDuplicateReferral is returned when the referred user already has a
	// referral row; a user can be referred at most once.
	ErrDuplicateReferral = errors.New("user already referred")

	// ErrReferralNotFound indicates that no referral row exists for the user.
	ErrReferralNotFound = errors.New("referral not found")

	// ErrReferralAlreadyUsed is returned when the referral reward has
	// already been claimed.
	ErrReferralAlreadyUsed = errors.New("referral reward already claimed")
)

// Message and connection errors.
var (
	// ErrDuplicateMessage is returned when a staging row already exists for
	// the same (owner, chat, message) triple.
	ErrDuplicateMessage = errors.New("message already recorded")

	// ErrMessageNotFound indicates that the requested staging row does not
	// exist (it may already have been dispatched and deleted).
	ErrMessageNotFound = errors.New("message not found")

	// ErrConnectionNotFound indicates an unknown business connection id.
	ErrConnectionNotFound = errors.New("business connection not found")

	// ErrInvalidStatKind is returned when a stats bump names a kind outside
	// {message, edit, delete}.
	ErrInvalidStatKind = errors.New("stat kind must be message, edit or delete")
)
