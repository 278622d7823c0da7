// Referral HTTP handlers.
//
// This file exposes REST endpoints for the referral program:
//   - POST /referrals                   (register referrer → referred)
//   - POST /referrals/{id}/use          (claim the reward, once)
//   - GET  /referrals/{id}              (lookup by referred user)
//   - GET  /users/{id}/referrals        (all referrals by one referrer)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/services"
)

// ReferralService defines the referral operations consumed by HTTP
// handlers.
type ReferralService interface {
	// Register records that referredID joined through referrerID.
	Register(ctx context.Context, referrerID, referredID int64) error
	// MarkUsed claims the reward for referredID's referral, exactly once.
	MarkUsed(ctx context.Context, referredID int64) error
	// Get returns the referral row for a referred user.
	Get(ctx context.Context, referredID int64) (*domain.Referral, error)
	// ByReferrer returns all referrals made by one user plus the count.
	ByReferrer(ctx context.Context, referrerID int64) ([]domain.Referral, int64, error)
}

// RegisterReferralRequest is the JSON payload for recording a referral.
type RegisterReferralRequest struct {
	ReferrerID int64 `json:"referrer_id" binding:"required" example:"123456789"`
	ReferredID int64 `json:"referred_id" binding:"required" example:"987654321"`
}

// ReferralsResponse wraps one referrer's rows and their count.
type ReferralsResponse struct {
	Referrals []domain.Referral `json:"referrals"`
	Total     int64             `json:"total"`
}

// RegisterReferral godoc
// @ID          registerReferral
// @Summary     Record a referral
// @Description A user can be referred at most once, and never by themselves.
// @Tags        Referrals
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RegisterReferralRequest  true  "Referral pair"
// @Success     201  {string}  string  "Created"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or self-referral"
// @Failure     409  {object}  handlers.ErrorResponse  "Already referred"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /referrals [post]
func (h *Handlers) RegisterReferral(c *gin.Context) {
	var req RegisterReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	err := h.refSvc.Register(c.Request.Context(), req.ReferrerID, req.ReferredID)
	switch {
	case err == nil:
		c.Status(http.StatusCreated)
	case err == services.ErrSelfReferral:
		fail(c, http.StatusBadRequest, ErrCodeSelfReferral, "self-referral is not allowed")
	case err == services.ErrDuplicateReferral:
		fail(c, http.StatusConflict, ErrCodeConflict, "user already referred")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// UseReferral godoc
// @ID          useReferral
// @Summary     Claim a referral reward
// @Description Flips the used flag exactly once; a second claim conflicts.
// @Tags        Referrals
// @Produce     json
// @Param       id  path  int  true  "Referred user ID"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "No referral"
// @Failure     409  {object}  handlers.ErrorResponse  "Already claimed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /referrals/{id}/use [post]
func (h *Handlers) UseReferral(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	err := h.refSvc.MarkUsed(c.Request.Context(), id)
	switch {
	case err == nil:
		noContent(c)
	case err == services.ErrReferralNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no referral for user")
	case err == services.ErrReferralAlreadyUsed:
		fail(c, http.StatusConflict, ErrCodeConflict, "referral reward already claimed")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// GetReferral godoc
// @ID          getReferral
// @Summary     Lookup a referral by referred user
// @Tags        Referrals
// @Produce     json
// @Param       id  path  int  true  "Referred user ID"
// @Success     200  {object}  domain.Referral
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "No referral"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /referrals/{id} [get]
func (h *Handlers) GetReferral(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	ref, err := h.refSvc.Get(c.Request.Context(), id)
	switch {
	case err == nil:
		ok(c, http.StatusOK, ref)
	case err == services.ErrReferralNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no referral for user")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// ListReferrals godoc
// @ID          listReferrals
// @Summary     Referrals made by one user
// @Tags        Referrals
// @Produce     json
// @Param       id  path  int  true  "Referrer user ID"
// @Success     200  {object}  handlers.ReferralsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id}/referrals [get]
func (h *Handlers) ListReferrals(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	items, total, err := h.refSvc.ByReferrer(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ReferralsResponse{Referrals: items, Total: total})
}
