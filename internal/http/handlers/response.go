// Package handlers exposes the guardian backend's HTTP API: login and ban
// enforcement, subscription and payment management, referrals, and the
// staged-message store the bot gateway reads from.
//
// This file holds the response helpers shared by every endpoint. Errors
// always travel in an ErrorResponse envelope with a stable machine-readable
// code (see errors.go), so the gateway can branch on `code` instead of
// parsing messages:
//
//	HTTP/1.1 403 Forbidden
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "banned",
//	  "message": "user is banned"
//	}
//
// Success bodies are endpoint-specific JSON, written via ok():
//
//	HTTP/1.1 200 OK
//	{ "user_id": 123456789, "status": "authenticated" }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mguard/go-guardian-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by all endpoints. RequestID
// echoes the X-Request-ID response header so a client-side failure can be
// matched to server logs. Code is one of the errors.go constants; Message is
// safe to surface to end users.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"not_found"`
	Message   string `json:"message" example:"payment not found"`
}

// fail aborts the request with an ErrorResponse. Server-side failures (5xx)
// are additionally logged through the request-scoped logger; client errors
// are the caller's problem and stay out of the error log.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail exposes fail to the router package, which needs the same envelope for
// its no-route and method-not-allowed handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
