// Payment HTTP handlers.
//
// This file exposes REST endpoints for the payment ledger:
//   - POST /payments               (record a pending charge)
//   - POST /payments/{id}/settle   (gateway webhook: complete or fail)
//   - GET  /payments/{id}          (single row)
//   - GET  /revenue                (completed totals)
//   - GET  /users/{id}/payments    (per-user history, paginated)
//
// A completed settlement also extends the payer's subscription by the paid
// plan, so the webhook is the single place where money turns into time.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/http/middleware"
	"github.com/mguard/go-guardian-backend/internal/repo"
	"github.com/mguard/go-guardian-backend/internal/services"
)

// PaymentService defines the payment ledger operations consumed by HTTP
// handlers.
type PaymentService interface {
	// Record appends a pending row; duplicate external ids are rejected.
	Record(ctx context.Context, userID int64, plan domain.Plan, amount int64, externalID string) (*domain.PaymentHistory, error)
	// Settle moves a pending row to completed or failed, exactly once.
	Settle(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.PaymentHistory, error)
	// Get returns one ledger row.
	Get(ctx context.Context, id int64) (*domain.PaymentHistory, error)
	// History returns a page of the user's rows plus the total.
	History(ctx context.Context, userID int64, page, pageSize int) ([]domain.PaymentHistory, int64, error)
	// Revenue sums completed payments.
	Revenue(ctx context.Context) (*repo.RevenueSummary, error)
}

// RecordPaymentRequest is the JSON payload for recording a pending charge.
type RecordPaymentRequest struct {
	UserID    int64       `json:"user_id" binding:"required" example:"123456789"`
	Plan      domain.Plan `json:"plan" binding:"required" example:"month"`
	Amount    int64       `json:"amount" binding:"required" example:"250"`
	PaymentID string      `json:"payment_id" binding:"required" example:"ch_3Nv0x2"`
}

// SettlePaymentRequest is the JSON payload of the settlement webhook.
type SettlePaymentRequest struct {
	Status domain.PaymentStatus `json:"status" binding:"required" example:"completed"`
}

// SettlePaymentResponse wraps the settled row and, for completed
// settlements, the subscription it extended.
type SettlePaymentResponse struct {
	Payment      *domain.PaymentHistory `json:"payment"`
	Subscription *domain.Subscription   `json:"subscription,omitempty"`
}

// ListPaymentsResponse wraps a page of ledger rows and pagination
// information.
type ListPaymentsResponse struct {
	Payments   []domain.PaymentHistory `json:"payments"`
	Pagination Pagination              `json:"pagination"`
}

// RecordPayment godoc
// @ID          recordPayment
// @Summary     Record a pending payment
// @Tags        Payments
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RecordPaymentRequest  true  "Payment payload"
// @Success     201  {object}  domain.PaymentHistory
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or unknown plan"
// @Failure     409  {object}  handlers.ErrorResponse  "Duplicate external payment id"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /payments [post]
func (h *Handlers) RecordPayment(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Amount <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "amount must be positive")
		return
	}
	p, err := h.paySvc.Record(c.Request.Context(), req.UserID, req.Plan, req.Amount, req.PaymentID)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, p)
	case err == services.ErrUnknownPlan:
		fail(c, http.StatusBadRequest, ErrCodeUnknownPlan, "unknown plan")
	case err == services.ErrDuplicatePayment:
		fail(c, http.StatusConflict, ErrCodeConflict, "payment id already recorded")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// SettlePayment godoc
// @ID          settlePayment
// @Summary     Settle a pending payment (gateway webhook)
// @Description Moves a pending ledger row to completed or failed. Completed
// @Description settlements extend the payer's subscription by the paid plan.
// @Description Safe to retry with an Idempotency-Key header.
// @Tags        Payments
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                          false  "Retry-safe key"
// @Param       id               path    int                             true   "Payment row ID"
// @Param       body             body    handlers.SettlePaymentRequest true   "Settlement status"
// @Success     200  {object}  handlers.SettlePaymentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Payment not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already settled"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /payments/{id}/settle [post]
func (h *Handlers) SettlePayment(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	var req SettlePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	ctx := c.Request.Context()

	// A replayed webhook (same Idempotency-Key, already settled) serves the
	// current ledger state instead of a conflict.
	if middleware.IsReplay(c) {
		p, err := h.paySvc.Get(ctx, id)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
			return
		}
		ok(c, http.StatusOK, SettlePaymentResponse{Payment: p})
		return
	}

	p, err := h.paySvc.Settle(ctx, id, req.Status)
	switch {
	case err == nil:
	case err == services.ErrInvalidSettleStatus:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be completed or failed")
		return
	case err == services.ErrPaymentNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "payment not found")
		return
	case err == services.ErrAlreadySettled:
		fail(c, http.StatusConflict, ErrCodeAlreadySettled, "payment already settled")
		return
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	middleware.ObserveSettlement(string(p.Status))

	resp := SettlePaymentResponse{Payment: p}
	if p.Status == domain.PaymentCompleted {
		sub, err := h.subSvc.Extend(ctx, p.UserID, p.SubscriptionType, time.Now().UTC())
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
			return
		}
		resp.Subscription = sub
	}

	// Persist the key so a retried webhook replays instead of conflicting.
	if key, okKey := middleware.GetIdempotencyKey(c); okKey {
		if svc, okSvc := h.paySvc.(*services.PaymentService); okSvc && svc.DB != nil {
			_, _ = repo.CreateIdempotency(ctx, svc.DB, c.Param("id"), key, http.StatusOK, h.idemTTL)
		}
	}
	ok(c, http.StatusOK, resp)
}

// GetPayment godoc
// @ID          getPayment
// @Summary     Fetch one ledger row
// @Tags        Payments
// @Produce     json
// @Param       id  path  int  true  "Payment row ID"
// @Success     200  {object}  domain.PaymentHistory
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Payment not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /payments/{id} [get]
func (h *Handlers) GetPayment(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	p, err := h.paySvc.Get(c.Request.Context(), id)
	switch {
	case err == nil:
		ok(c, http.StatusOK, p)
	case err == services.ErrPaymentNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "payment not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// PaymentHistory godoc
// @ID          paymentHistory
// @Summary     Per-user payment history (paginated)
// @Tags        Payments
// @Produce     json
// @Param       id         path   int  true   "User ID"
// @Param       page       query  int  false  "Page number"    minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page" minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListPaymentsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id}/payments [get]
func (h *Handlers) PaymentHistory(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	page, pageSize := clampPagination(c)
	items, total, err := h.paySvc.History(c.Request.Context(), id, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ListPaymentsResponse{
		Payments:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// Revenue godoc
// @ID          revenue
// @Summary     Completed payment totals
// @Tags        Payments
// @Produce     json
// @Success     200  {object}  repo.RevenueSummary
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /revenue [get]
func (h *Handlers) Revenue(c *gin.Context) {
	sum, err := h.paySvc.Revenue(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, sum)
}
