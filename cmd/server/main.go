// Command server runs the guardian backend: the HTTP API over the
// access-control, subscription, payment and message-staging store, plus the
// background maintenance scheduler.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mguard/go-guardian-backend/internal/config"
	"github.com/mguard/go-guardian-backend/internal/domain"
	httpapi "github.com/mguard/go-guardian-backend/internal/http"
	"github.com/mguard/go-guardian-backend/internal/observability"
	"github.com/mguard/go-guardian-backend/internal/repo"
	"github.com/mguard/go-guardian-backend/internal/scheduler"
	"github.com/mguard/go-guardian-backend/internal/services"
	"github.com/mguard/go-guardian-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real env always wins.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("db_driver", cfg.DBDriver).Msg("starting guardian backend")

	// Tracing
	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}

	// Database
	db, err := openDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}
	if cfg.SuperAdminID != 0 {
		if err := repo.SeedSuperAdmin(ctx, db, cfg.SuperAdminID, ""); err != nil {
			log.Fatal().Err(err).Msg("seed super admin")
		}
	}

	// Background maintenance
	accessSvc := &services.AccessService{
		DB:           db,
		BanThreshold: cfg.Access.BanThreshold,
		Window:       cfg.Access.LoginWindow,
		BanReason:    cfg.Access.BanReason,
	}
	subSvc := &services.SubscriptionService{
		DB: db,
		Policy: services.PlanPolicy{Durations: map[domain.Plan]time.Duration{
			domain.PlanTrial: time.Duration(cfg.Plans.TrialDays) * 24 * time.Hour,
			domain.PlanWeek:  time.Duration(cfg.Plans.WeekDays) * 24 * time.Hour,
			domain.PlanMonth: time.Duration(cfg.Plans.MonthDays) * 24 * time.Hour,
			domain.PlanYear:  time.Duration(cfg.Plans.YearDays) * 24 * time.Hour,
		}},
	}
	sched, err := scheduler.New(accessSvc, subSvc, cfg.Cron.CleanupSpec, cfg.Cron.ExpireSpec, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler setup")
	}
	sched.Start()

	// HTTP
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
}

// openDB dispatches on the configured driver.
func openDB(cfg config.Config) (*gorm.DB, error) {
	if cfg.DBDriver == "postgres" {
		return repo.OpenPostgres(cfg.DBDSN)
	}
	return repo.OpenSQLite(cfg.DBPath)
}
