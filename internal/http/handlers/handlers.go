// Handler wiring.
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results (including sentinel errors) into HTTP responses.
// Service dependencies are abstract interfaces declared next to the handlers
// that consume them, keeping transport concerns separate from business logic.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mguard/go-guardian-backend/internal/utils"
)

// Handlers groups the HTTP endpoints for access control, subscriptions,
// payments, admins, referrals, and message staging.
type Handlers struct {
	accessSvc AccessService
	subSvc    SubscriptionService
	paySvc    PaymentService
	adminSvc  AdminService
	refSvc    ReferralService
	msgSvc    MessageService
	connSvc   ConnectionService

	// botPassword is the expected shared secret checked by Login.
	botPassword string
	// idemTTL bounds how long a settlement Idempotency-Key stays valid.
	idemTTL time.Duration
}

// New constructs a Handlers instance bound to the given services.
func New(access AccessService, subs SubscriptionService, pay PaymentService,
	admin AdminService, ref ReferralService, msg MessageService, conn ConnectionService,
	botPassword string, idemTTL time.Duration) *Handlers {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &Handlers{
		accessSvc:   access,
		subSvc:      subs,
		paySvc:      pay,
		adminSvc:    admin,
		refSvc:      ref,
		msgSvc:      msg,
		connSvc:     conn,
		botPassword: botPassword,
		idemTTL:     idemTTL,
	}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// newPagination derives the metadata for one result page.
func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// pathID parses the named path parameter as a decimal identifier. On failure
// it writes a 400 response and returns ok=false; callers must return.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a decimal id")
		return 0, false
	}
	return id, true
}
