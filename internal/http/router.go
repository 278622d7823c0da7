// Package httpapi wires the HTTP transport (Gin) to the application services,
// middleware, and route handlers. It owns the cross-cutting concerns of the
// API surface: tracing, correlation IDs, logging with redaction, panic
// recovery, metrics, CORS, security headers, idempotency, and rate limiting.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/mguard/go-guardian-backend/docs"
	"github.com/mguard/go-guardian-backend/internal/config"
	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/http/handlers"
	"github.com/mguard/go-guardian-backend/internal/http/middleware"
	"github.com/mguard/go-guardian-backend/internal/repo"
	"github.com/mguard/go-guardian-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Response compression
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-Admin-ID", // acting admin ids do not belong in logs
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress responses (message listings and stats can be large)
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, paymentID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, paymentID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (disabled by default; see SWAGGER_ENABLED)
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db + policy
	accessSvc := &services.AccessService{
		DB:           db,
		BanThreshold: cfg.Access.BanThreshold,
		Window:       cfg.Access.LoginWindow,
		BanReason:    cfg.Access.BanReason,
	}
	subSvc := &services.SubscriptionService{
		DB: db,
		Policy: services.PlanPolicy{Durations: map[domain.Plan]time.Duration{
			domain.PlanTrial: days(cfg.Plans.TrialDays),
			domain.PlanWeek:  days(cfg.Plans.WeekDays),
			domain.PlanMonth: days(cfg.Plans.MonthDays),
			domain.PlanYear:  days(cfg.Plans.YearDays),
		}},
	}
	paySvc := &services.PaymentService{DB: db}
	adminSvc := &services.AdminService{DB: db, SuperAdminID: cfg.SuperAdminID}
	refSvc := &services.ReferralService{DB: db}
	msgSvc := &services.MessageService{DB: db}
	connSvc := &services.ConnectionService{DB: db}

	h := handlers.New(accessSvc, subSvc, paySvc, adminSvc, refSvc, msgSvc, connSvc,
		cfg.Access.BotPassword, cfg.IdempotencyTTL)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Access control
		api.POST("/auth/login", h.Login)
		api.GET("/users", h.ListUsers)
		api.GET("/users/:id/access", h.AccessStatus)
		api.POST("/bans", h.Ban)
		api.GET("/bans", h.ListBans)
		api.DELETE("/bans/:id", h.Unban)
		api.GET("/failed-logins", h.FailedLogins)

		// Admins
		api.POST("/admins", h.GrantAdmin)
		api.GET("/admins", h.ListAdmins)
		api.DELETE("/admins/:id", h.RevokeAdmin)

		// Subscriptions
		api.GET("/subscriptions/:id", h.SubscriptionStatus)
		api.PUT("/subscriptions/:id", h.GrantSubscription)
		api.DELETE("/subscriptions/:id", h.RevokeSubscription)
		api.POST("/subscriptions/:id/trial", h.StartTrial)
		api.POST("/subscriptions/:id/extend", h.ExtendSubscription)

		// Payments
		api.POST("/payments", h.RecordPayment)
		api.GET("/payments/:id", h.GetPayment)
		api.POST("/payments/:id/settle", h.SettlePayment)
		api.GET("/revenue", h.Revenue)
		api.GET("/users/:id/payments", h.PaymentHistory)

		// Referrals
		api.POST("/referrals", h.RegisterReferral)
		api.GET("/referrals/:id", h.GetReferral)
		api.POST("/referrals/:id/use", h.UseReferral)
		api.GET("/users/:id/referrals", h.ListReferrals)

		// Message staging, stats, connections
		api.POST("/messages", h.RecordMessage)
		api.PUT("/messages", h.UpdateMessage)
		api.GET("/messages/:owner/:chat/:msg", h.GetMessage)
		api.DELETE("/messages/:owner/:chat/:msg", h.DeleteMessage)
		api.GET("/owners/:id/chats/:chat/messages", h.ListChatMessages)
		api.DELETE("/owners/:id/chats/:chat/messages", h.PurgeChatMessages)
		api.GET("/owners/:id/stats", h.OwnerStats)
		api.POST("/owners/:id/stats/:kind", h.BumpStat)
		api.PUT("/connections", h.UpsertConnection)
		api.GET("/connections/:id", h.ResolveConnection)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// days converts a whole-day count from config into a duration.
func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }
