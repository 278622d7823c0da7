// Message-staging HTTP handlers.
//
// This file exposes REST endpoints for the monitored-message staging table,
// per-owner stats, and the business-connection registry:
//   - POST   /messages                                      (record new message)
//   - PUT    /messages                                      (record an edit)
//   - GET    /messages/{owner}/{chat}/{msg}                 (fetch one)
//   - DELETE /messages/{owner}/{chat}/{msg}                 (dispatch + delete)
//   - GET    /owners/{id}/chats/{chat}/messages             (chat backup input)
//   - DELETE /owners/{id}/chats/{chat}/messages             (purge one chat)
//   - GET    /owners/{id}/stats                             (aggregate counters)
//   - POST   /owners/{id}/stats/{kind}                      (manual counter bump)
//   - PUT    /connections                                   (upsert connection)
//   - GET    /connections/{id}                              (resolve owner)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/services"
)

// MessageService defines the staging and stats operations consumed by HTTP
// handlers.
type MessageService interface {
	// Record inserts a staging row for a newly seen message.
	Record(ctx context.Context, in services.MessageInput) (*domain.Message, error)
	// Update overwrites the payload of an existing row (edit event).
	Update(ctx context.Context, in services.MessageInput) error
	// Get fetches one staging row.
	Get(ctx context.Context, ownerID, chatID, messageID int64) (*domain.Message, error)
	// Delete removes a dispatched row.
	Delete(ctx context.Context, ownerID, chatID, messageID int64) error
	// ListChat returns one chat's staged messages in arrival order.
	ListChat(ctx context.Context, ownerID, chatID int64) ([]domain.Message, error)
	// PurgeChat drops all staged rows of one chat.
	PurgeChat(ctx context.Context, ownerID, chatID int64) (int64, error)
	// BumpStats increments one counter of the owner's stats row.
	BumpStats(ctx context.Context, ownerID int64, kind services.StatKind) error
	// Stats returns the owner's aggregate counters.
	Stats(ctx context.Context, ownerID int64) (*domain.Stats, error)
}

// ConnectionService defines the business-connection registry operations
// consumed by HTTP handlers.
type ConnectionService interface {
	// Upsert records a connection event.
	Upsert(ctx context.Context, conn *domain.BusinessConnection) error
	// Resolve returns the connection for an id.
	Resolve(ctx context.Context, connectionID string) (*domain.BusinessConnection, error)
}

// PurgeResponse reports how many staged rows a purge removed.
type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

// tripleID parses the (owner, chat, msg) path triple; on failure it has
// already written a 400 response.
func tripleID(c *gin.Context) (owner, chat, msg int64, ok bool) {
	if owner, ok = pathID(c, "owner"); !ok {
		return
	}
	if chat, ok = pathID(c, "chat"); !ok {
		return
	}
	msg, ok = pathID(c, "msg")
	return
}

// RecordMessage godoc
// @ID          recordMessage
// @Summary     Stage a newly seen message
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Param       body  body  services.MessageInput  true  "Message payload"
// @Success     201  {object}  domain.Message
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Message already staged"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages [post]
func (h *Handlers) RecordMessage(c *gin.Context) {
	var in services.MessageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	m, err := h.msgSvc.Record(c.Request.Context(), in)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, m)
	case err == services.ErrDuplicateMessage:
		fail(c, http.StatusConflict, ErrCodeConflict, "message already staged")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// UpdateMessage godoc
// @ID          updateMessage
// @Summary     Record an edit to a staged message
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Param       body  body  services.MessageInput  true  "Edited payload"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Message not staged"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages [put]
func (h *Handlers) UpdateMessage(c *gin.Context) {
	var in services.MessageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	err := h.msgSvc.Update(c.Request.Context(), in)
	switch {
	case err == nil:
		noContent(c)
	case err == services.ErrMessageNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "message not staged")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// GetMessage godoc
// @ID          getMessage
// @Summary     Fetch one staged message
// @Tags        Messages
// @Produce     json
// @Param       owner  path  int  true  "Owner ID"
// @Param       chat   path  int  true  "Chat ID"
// @Param       msg    path  int  true  "Message ID"
// @Success     200  {object}  domain.Message
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Message not staged"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages/{owner}/{chat}/{msg} [get]
func (h *Handlers) GetMessage(c *gin.Context) {
	owner, chat, msg, okID := tripleID(c)
	if !okID {
		return
	}
	m, err := h.msgSvc.Get(c.Request.Context(), owner, chat, msg)
	switch {
	case err == nil:
		ok(c, http.StatusOK, m)
	case err == services.ErrMessageNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "message not staged")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// DeleteMessage godoc
// @ID          deleteMessage
// @Summary     Remove a dispatched message
// @Description Called after the deletion notification has been sent; the row
// @Description is gone afterwards and the owner's delete counter moves.
// @Tags        Messages
// @Produce     json
// @Param       owner  path  int  true  "Owner ID"
// @Param       chat   path  int  true  "Chat ID"
// @Param       msg    path  int  true  "Message ID"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Message not staged"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages/{owner}/{chat}/{msg} [delete]
func (h *Handlers) DeleteMessage(c *gin.Context) {
	owner, chat, msg, okID := tripleID(c)
	if !okID {
		return
	}
	err := h.msgSvc.Delete(c.Request.Context(), owner, chat, msg)
	switch {
	case err == nil:
		noContent(c)
	case err == services.ErrMessageNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "message not staged")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// ListChatMessages godoc
// @ID          listChatMessages
// @Summary     Staged messages of one chat, in arrival order
// @Tags        Messages
// @Produce     json
// @Param       id    path  int  true  "Owner ID"
// @Param       chat  path  int  true  "Chat ID"
// @Success     200  {array}   domain.Message
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /owners/{id}/chats/{chat}/messages [get]
func (h *Handlers) ListChatMessages(c *gin.Context) {
	owner, okID := pathID(c, "id")
	if !okID {
		return
	}
	chat, okID := pathID(c, "chat")
	if !okID {
		return
	}
	items, err := h.msgSvc.ListChat(c.Request.Context(), owner, chat)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// PurgeChatMessages godoc
// @ID          purgeChatMessages
// @Summary     Drop all staged messages of one chat
// @Tags        Messages
// @Produce     json
// @Param       id    path  int  true  "Owner ID"
// @Param       chat  path  int  true  "Chat ID"
// @Success     200  {object}  handlers.PurgeResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /owners/{id}/chats/{chat}/messages [delete]
func (h *Handlers) PurgeChatMessages(c *gin.Context) {
	owner, okID := pathID(c, "id")
	if !okID {
		return
	}
	chat, okID := pathID(c, "chat")
	if !okID {
		return
	}
	n, err := h.msgSvc.PurgeChat(c.Request.Context(), owner, chat)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, PurgeResponse{Deleted: n})
}

// OwnerStats godoc
// @ID          ownerStats
// @Summary     Aggregate counters for one owner
// @Description Owners without recorded activity get the zero aggregate, not 404.
// @Tags        Stats
// @Produce     json
// @Param       id  path  int  true  "Owner ID"
// @Success     200  {object}  domain.Stats
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /owners/{id}/stats [get]
func (h *Handlers) OwnerStats(c *gin.Context) {
	owner, okID := pathID(c, "id")
	if !okID {
		return
	}
	st, err := h.msgSvc.Stats(c.Request.Context(), owner)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, st)
}

// BumpStat godoc
// @ID          bumpStat
// @Summary     Increment one owner counter
// @Tags        Stats
// @Produce     json
// @Param       id    path  int     true  "Owner ID"
// @Param       kind  path  string  true  "Counter kind"  Enums(message, edit, delete)
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or unknown kind"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /owners/{id}/stats/{kind} [post]
func (h *Handlers) BumpStat(c *gin.Context) {
	owner, okID := pathID(c, "id")
	if !okID {
		return
	}
	err := h.msgSvc.BumpStats(c.Request.Context(), owner, services.StatKind(c.Param("kind")))
	switch {
	case err == nil:
		noContent(c)
	case err == services.ErrInvalidStatKind:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "kind must be message, edit or delete")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// UpsertConnection godoc
// @ID          upsertConnection
// @Summary     Record a business connection event
// @Tags        Connections
// @Accept      json
// @Produce     json
// @Param       body  body  domain.BusinessConnection  true  "Connection payload"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /connections [put]
func (h *Handlers) UpsertConnection(c *gin.Context) {
	var conn domain.BusinessConnection
	if err := c.ShouldBindJSON(&conn); err != nil || conn.ConnectionID == "" || conn.UserID == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "connection_id and user_id required")
		return
	}
	if err := h.connSvc.Upsert(c.Request.Context(), &conn); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// ResolveConnection godoc
// @ID          resolveConnection
// @Summary     Resolve a connection id to its owner
// @Tags        Connections
// @Produce     json
// @Param       id  path  string  true  "Connection ID"
// @Success     200  {object}  domain.BusinessConnection
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown connection"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /connections/{id} [get]
func (h *Handlers) ResolveConnection(c *gin.Context) {
	conn, err := h.connSvc.Resolve(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		ok(c, http.StatusOK, conn)
	case err == services.ErrConnectionNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown connection")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
