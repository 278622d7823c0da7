// Admin HTTP handlers.
//
// This file exposes REST endpoints for the privilege registry:
//   - POST   /admins        (grant)
//   - DELETE /admins/{id}   (revoke; the super-admin cannot be revoked)
//   - GET    /admins        (list)
//
// The acting admin is identified by the X-Admin-ID header; authorization
// decisions live in the service, not here.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/services"
	"github.com/mguard/go-guardian-backend/internal/utils"
)

// AdminService defines the privilege operations consumed by HTTP handlers.
type AdminService interface {
	// Grant adds an admin; created=false when the row already existed.
	Grant(ctx context.Context, granterID, targetID int64, username, firstName string, isSuper bool) (bool, error)
	// Revoke removes an admin; the super-admin is protected.
	Revoke(ctx context.Context, granterID, targetID int64) error
	// IsAdmin reports whether the user holds a privilege row.
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	// List returns all admins, oldest first.
	List(ctx context.Context) ([]domain.Admin, error)
}

// GrantAdminRequest is the JSON payload for granting admin privileges.
type GrantAdminRequest struct {
	UserID    int64  `json:"user_id" binding:"required" example:"123456789"`
	Username  string `json:"username" example:"alice"`
	FirstName string `json:"first_name" example:"Alice"`
}

// GrantAdminResponse reports whether the grant created a new row.
type GrantAdminResponse struct {
	Created bool `json:"created"`
}

// actorID extracts the acting admin id from the X-Admin-ID header; 0 when
// absent or malformed, which the service rejects as unauthorized.
func actorID(c *gin.Context) int64 {
	id, _ := utils.ParseID(strings.TrimSpace(c.GetHeader("X-Admin-ID")))
	return id
}

// GrantAdmin godoc
// @ID          grantAdmin
// @Summary     Grant admin privileges
// @Tags        Admins
// @Accept      json
// @Produce     json
// @Param       X-Admin-ID  header  string                       true  "Acting admin ID"
// @Param       body        body    handlers.GrantAdminRequest true  "Target user"
// @Success     200  {object}  handlers.GrantAdminResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not allowed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admins [post]
func (h *Handlers) GrantAdmin(c *gin.Context) {
	var req GrantAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	created, err := h.adminSvc.Grant(c.Request.Context(), actorID(c), req.UserID, req.Username, req.FirstName, false)
	switch {
	case err == nil:
		ok(c, http.StatusOK, GrantAdminResponse{Created: created})
	case err == services.ErrUnauthorized:
		fail(c, http.StatusForbidden, ErrCodeForbidden, "granter is not an admin")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// RevokeAdmin godoc
// @ID          revokeAdmin
// @Summary     Revoke admin privileges
// @Description Only the super-admin may revoke, and the super-admin itself is
// @Description protected from revocation.
// @Tags        Admins
// @Produce     json
// @Param       X-Admin-ID  header  string  true  "Acting admin ID"
// @Param       id          path    int     true  "Target user ID"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not allowed"
// @Failure     404  {object}  handlers.ErrorResponse  "Not an admin"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admins/{id} [delete]
func (h *Handlers) RevokeAdmin(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	err := h.adminSvc.Revoke(c.Request.Context(), actorID(c), id)
	switch {
	case err == nil:
		noContent(c)
	case err == services.ErrUnauthorized:
		fail(c, http.StatusForbidden, ErrCodeForbidden, "revocation not allowed")
	case err == services.ErrAdminNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user is not an admin")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// ListAdmins godoc
// @ID          listAdmins
// @Summary     List admins
// @Tags        Admins
// @Produce     json
// @Success     200  {array}   domain.Admin
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admins [get]
func (h *Handlers) ListAdmins(c *gin.Context) {
	admins, err := h.adminSvc.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, admins)
}
