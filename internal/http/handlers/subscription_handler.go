// Subscription HTTP handlers.
//
// This file exposes REST endpoints for the single-subscription-per-user
// model:
//   - GET    /subscriptions/{id}         (status read-model)
//   - POST   /subscriptions/{id}/trial   (one-time trial grant)
//   - PUT    /subscriptions/{id}         (grant/replace a plan)
//   - POST   /subscriptions/{id}/extend  (stack time onto the active plan)
//   - DELETE /subscriptions/{id}         (revoke)
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/services"
)

// SubscriptionService defines the subscription lifecycle operations
// consumed by HTTP handlers.
type SubscriptionService interface {
	// StartTrial grants the trial once; created=false when a row exists.
	StartTrial(ctx context.Context, userID int64) (bool, error)
	// Upsert replaces the user's plan starting now.
	Upsert(ctx context.Context, userID int64, plan domain.Plan, now time.Time) (*domain.Subscription, error)
	// Extend stacks the plan's duration onto an active subscription.
	Extend(ctx context.Context, userID int64, plan domain.Plan, now time.Time) (*domain.Subscription, error)
	// Revoke deactivates the user's subscription.
	Revoke(ctx context.Context, userID int64) error
	// Status returns the non-mutating read-model.
	Status(ctx context.Context, userID int64, now time.Time) (*services.SubscriptionStatus, error)
}

// GrantSubscriptionRequest is the JSON payload for granting or extending
// a plan.
type GrantSubscriptionRequest struct {
	Plan domain.Plan `json:"plan" binding:"required" example:"month"`
}

// TrialResponse reports whether the trial grant created a row.
type TrialResponse struct {
	Created bool `json:"created"`
}

// SubscriptionStatus godoc
// @ID          subscriptionStatus
// @Summary     Subscription status for a user
// @Description Returns the read-model: active flag, plan, days left, end date.
// @Description Users without a subscription row get an inactive status, not 404.
// @Tags        Subscriptions
// @Produce     json
// @Param       id  path  int  true  "User ID"
// @Success     200  {object}  services.SubscriptionStatus
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /subscriptions/{id} [get]
func (h *Handlers) SubscriptionStatus(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	st, err := h.subSvc.Status(c.Request.Context(), id, time.Now().UTC())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, st)
}

// StartTrial godoc
// @ID          startTrial
// @Summary     Grant the one-time trial
// @Description Creates the trial subscription for a brand-new user. A user that
// @Description already has any subscription row keeps it; created is false then.
// @Tags        Subscriptions
// @Produce     json
// @Param       id  path  int  true  "User ID"
// @Success     200  {object}  handlers.TrialResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /subscriptions/{id}/trial [post]
func (h *Handlers) StartTrial(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	created, err := h.subSvc.StartTrial(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, TrialResponse{Created: created})
}

// GrantSubscription godoc
// @ID          grantSubscription
// @Summary     Grant or replace a plan
// @Tags        Subscriptions
// @Accept      json
// @Produce     json
// @Param       id    path  int                                  true  "User ID"
// @Param       body  body  handlers.GrantSubscriptionRequest  true  "Plan"
// @Success     200  {object}  domain.Subscription
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or unknown plan"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /subscriptions/{id} [put]
func (h *Handlers) GrantSubscription(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	var req GrantSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	sub, err := h.subSvc.Upsert(c.Request.Context(), id, req.Plan, time.Now().UTC())
	switch {
	case err == nil:
		ok(c, http.StatusOK, sub)
	case err == services.ErrUnknownPlan:
		fail(c, http.StatusBadRequest, ErrCodeUnknownPlan, "unknown plan")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// ExtendSubscription godoc
// @ID          extendSubscription
// @Summary     Stack plan time onto an active subscription
// @Description Adds the plan's duration to the current end date when the
// @Description subscription is active; otherwise starts a fresh window now.
// @Tags        Subscriptions
// @Accept      json
// @Produce     json
// @Param       id    path  int                                  true  "User ID"
// @Param       body  body  handlers.GrantSubscriptionRequest  true  "Plan"
// @Success     200  {object}  domain.Subscription
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or unknown plan"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /subscriptions/{id}/extend [post]
func (h *Handlers) ExtendSubscription(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	var req GrantSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	sub, err := h.subSvc.Extend(c.Request.Context(), id, req.Plan, time.Now().UTC())
	switch {
	case err == nil:
		ok(c, http.StatusOK, sub)
	case err == services.ErrUnknownPlan:
		fail(c, http.StatusBadRequest, ErrCodeUnknownPlan, "unknown plan")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// RevokeSubscription godoc
// @ID          revokeSubscription
// @Summary     Revoke a subscription
// @Tags        Subscriptions
// @Produce     json
// @Param       id  path  int  true  "User ID"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "No subscription"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /subscriptions/{id} [delete]
func (h *Handlers) RevokeSubscription(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	err := h.subSvc.Revoke(c.Request.Context(), id)
	switch {
	case err == nil:
		noContent(c)
	case err == services.ErrSubscriptionNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no subscription for user")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
