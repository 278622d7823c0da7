// Access-control HTTP handlers.
//
// This file exposes REST endpoints for authentication and lockout state:
//   - POST   /auth/login                (password check + failed-attempt bookkeeping)
//   - GET    /users                     (authenticated users)
//   - GET    /users/{id}/access         (access status for one user)
//   - POST   /bans                      (manual ban)
//   - DELETE /bans/{id}                 (unban)
//   - GET    /bans                      (paginated ban list)
//   - GET    /failed-logins             (per-user attempt report)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/http/middleware"
	"github.com/mguard/go-guardian-backend/internal/repo"
	"github.com/mguard/go-guardian-backend/internal/services"
	"github.com/mguard/go-guardian-backend/internal/utils"
)

// AccessService defines the authentication and lockout operations consumed
// by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AccessService interface {
	// Authenticate checks the supplied password and records success.
	Authenticate(ctx context.Context, userID int64, username, firstName, supplied, expected string) (services.AuthStatus, error)
	// RecordFailedLogin appends a failed attempt and bans at the threshold.
	RecordFailedLogin(ctx context.Context, userID int64, username, firstName string) (*services.FailedLoginResult, error)
	// IsBanned reports whether the user has a ban row.
	IsBanned(ctx context.Context, userID int64) (bool, error)
	// IsAuthenticated reports whether the user is authenticated and not banned.
	IsAuthenticated(ctx context.Context, userID int64) (bool, error)
	// Ban applies a manual ban.
	Ban(ctx context.Context, userID int64, username, firstName, reason string) error
	// Unban lifts a ban.
	Unban(ctx context.Context, userID int64) error
	// ListBanned returns a page of banned users plus the total.
	ListBanned(ctx context.Context, page, pageSize int) ([]domain.BannedUser, int64, error)
	// FailedLoginReport returns per-user attempt aggregates.
	FailedLoginReport(ctx context.Context, limit int) ([]repo.FailedLoginSummary, error)
	// ListAuthenticated returns all authenticated users.
	ListAuthenticated(ctx context.Context) ([]domain.User, error)
}

//
// DTOs
//

// LoginRequest is the JSON payload for a password login attempt.
type LoginRequest struct {
	UserID    int64  `json:"user_id" binding:"required" example:"123456789"`
	Username  string `json:"username" example:"alice"`
	FirstName string `json:"first_name" example:"Alice"`
	Password  string `json:"password" binding:"required"`
}

// LoginResponse reports the outcome of a login attempt. Attempts and
// BannedNow are present only for rejected attempts.
type LoginResponse struct {
	Status    services.AuthStatus `json:"status" example:"authenticated"`
	Attempts  int                 `json:"attempts,omitempty"`
	BannedNow bool                `json:"banned_now,omitempty"`
}

// AccessStatusResponse describes one user's current access state.
type AccessStatusResponse struct {
	UserID        int64 `json:"user_id"`
	Authenticated bool  `json:"authenticated"`
	Banned        bool  `json:"banned"`
}

// BanRequest is the JSON payload for a manual ban.
type BanRequest struct {
	UserID    int64  `json:"user_id" binding:"required" example:"123456789"`
	Username  string `json:"username" example:"alice"`
	FirstName string `json:"first_name" example:"Alice"`
	Reason    string `json:"reason" example:"spam"`
}

// ListBansResponse wraps a page of banned users and pagination information.
type ListBansResponse struct {
	Bans       []domain.BannedUser `json:"bans"`
	Pagination Pagination          `json:"pagination"`
}

//
// Handlers
//

// Login godoc
// @ID          login
// @Summary     Attempt a password login
// @Description Verifies the shared bot password for a user. Rejected attempts are
// @Description counted over a rolling window; reaching the threshold bans the user.
// @Tags        Access
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Banned"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	ctx := c.Request.Context()

	status, err := h.accessSvc.Authenticate(ctx, req.UserID, req.Username, req.FirstName, req.Password, h.botPassword)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	middleware.ObserveLogin(string(status))

	switch status {
	case services.StatusAuthenticated:
		ok(c, http.StatusOK, LoginResponse{Status: status})
	case services.StatusBanned:
		fail(c, http.StatusForbidden, ErrCodeBanned, "user is banned")
	case services.StatusRejected:
		res, err := h.accessSvc.RecordFailedLogin(ctx, req.UserID, req.Username, req.FirstName)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
			return
		}
		ok(c, http.StatusOK, LoginResponse{
			Status:    status,
			Attempts:  res.Attempts,
			BannedNow: res.BannedNow,
		})
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "unknown auth status")
	}
}

// AccessStatus godoc
// @ID          accessStatus
// @Summary     Current access state for a user
// @Tags        Access
// @Produce     json
// @Param       id  path  int  true  "User ID"
// @Success     200  {object}  handlers.AccessStatusResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id}/access [get]
func (h *Handlers) AccessStatus(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	ctx := c.Request.Context()

	banned, err := h.accessSvc.IsBanned(ctx, id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	authed, err := h.accessSvc.IsAuthenticated(ctx, id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, AccessStatusResponse{UserID: id, Authenticated: authed, Banned: banned})
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List authenticated users
// @Description Returns every user that currently holds access (broadcast targets).
// @Tags        Access
// @Produce     json
// @Success     200  {array}   domain.User
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.accessSvc.ListAuthenticated(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, users)
}

// Ban godoc
// @ID          banUser
// @Summary     Ban a user manually
// @Tags        Access
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.BanRequest  true  "Ban payload"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Already banned"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bans [post]
func (h *Handlers) Ban(c *gin.Context) {
	var req BanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	err := h.accessSvc.Ban(c.Request.Context(), req.UserID, req.Username, req.FirstName, req.Reason)
	switch {
	case err == nil:
		noContent(c)
	case err == services.ErrAlreadyBanned:
		fail(c, http.StatusConflict, ErrCodeConflict, "user already banned")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// Unban godoc
// @ID          unbanUser
// @Summary     Lift a ban
// @Tags        Access
// @Produce     json
// @Param       id  path  int  true  "User ID"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not banned"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bans/{id} [delete]
func (h *Handlers) Unban(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	err := h.accessSvc.Unban(c.Request.Context(), id)
	switch {
	case err == nil:
		noContent(c)
	case err == services.ErrNotBanned:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user is not banned")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// ListBans godoc
// @ID          listBans
// @Summary     List banned users (paginated)
// @Tags        Access
// @Produce     json
// @Param       page       query  int  false  "Page number"    minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page" minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListBansResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bans [get]
func (h *Handlers) ListBans(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.accessSvc.ListBanned(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ListBansResponse{
		Bans:       items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// FailedLogins godoc
// @ID          failedLogins
// @Summary     Per-user failed login report
// @Tags        Access
// @Produce     json
// @Param       limit  query  int  false  "Max rows"  minimum(1) maximum(500) default(50)
// @Success     200  {array}   repo.FailedLoginSummary
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /failed-logins [get]
func (h *Handlers) FailedLogins(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 50)
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}
	report, err := h.accessSvc.FailedLoginReport(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, report)
}
