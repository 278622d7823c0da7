// Package middleware contains the shared Gin middleware for the HTTP layer.
//
// This file implements Idempotency-Key handling for the payment settlement
// webhook. Telegram redelivers webhook updates until it sees a 2xx, so the
// same successful-payment notification can arrive more than once; the key
// lets a retried settlement be recognized and served from the ledger instead
// of extending a subscription twice. The middleware validates the header,
// stashes the key for the handler, and flags detected replays so the rate
// limiter waves them through.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey names the request header carrying the settlement
// deduplication key. The gateway sends the Telegram charge id here, which is
// stable across webhook redeliveries.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys stashing idempotency state; read via the accessors below.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: a stored outcome exists for this key
	ctxKeyRateBypass = "rate.bypass" // bool: skip rate limiting for this request
)

// GetIdempotencyKey returns the validated key stashed by IdempotencyValidator.
// Handlers use this instead of reading the header, so they only ever see keys
// that passed validation.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether this request repeats a settlement whose outcome is
// already recorded. The handler then serves the persisted payment state
// rather than settling again.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation. TTL enforcement belongs in
// the lookup, which owns the persistence window.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Defaults to ^[A-Za-z0-9._~\-:]+$,
	// which covers Telegram charge ids.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a still-valid settlement outcome exists
// for (paymentID, key) at the given time. paymentID is the :id path parameter
// of the settle route. Lookup failures should be returned as errors, not as
// exists=false lies, but an error never blocks the request.
type IdempotencyLookup func(ctx context.Context, paymentID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header when present,
// stashes the key, and consults lookup for a prior outcome. Absent header
// means plain processing; a malformed key is rejected with 400 before any
// handler runs; a detected replay sets the replay and rate-bypass flags and
// proceeds, leaving it to the handler to serve the stored result.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			paymentID := c.Param("id")
			now := time.Now().UTC()

			if exists, _ := lookup(c.Request.Context(), paymentID, key, now); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}
