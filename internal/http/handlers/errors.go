// Error codes carried in the ErrorResponse envelope. The generic set mirrors
// HTTP status semantics; the domain set covers outcomes the status alone
// cannot convey, e.g. a 403 for a banned user versus a plain forbidden, or a
// 409 for a settlement replay versus a duplicate payment row. The bot gateway
// branches on these strings, so they are part of the API contract and must
// stay stable.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeBanned           = "banned"
	ErrCodeLoginRejected    = "login_rejected"
	ErrCodeUnknownPlan      = "unknown_plan"
	ErrCodeAlreadySettled   = "already_settled"
	ErrCodeSelfReferral     = "self_referral"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
