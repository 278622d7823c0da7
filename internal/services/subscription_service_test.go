package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mguard/go-guardian-backend/internal/domain"
)

func newSubSvc(t *testing.T) *SubscriptionService {
	t.Helper()
	dsn := fmt.Sprintf("file:subsvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Subscription{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return &SubscriptionService{DB: db, Policy: DefaultPlanPolicy()}
}

func TestPlanPolicy_EndDate(t *testing.T) {
	p := DefaultPlanPolicy()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	end, err := p.EndDate(domain.PlanMonth, start)
	if err != nil {
		t.Fatalf("EndDate month: %v", err)
	}
	if !end.Equal(start.Add(30 * 24 * time.Hour)) {
		t.Fatalf("unexpected month end: %v", end)
	}

	end, err = p.EndDate(domain.PlanLifetime, start)
	if err != nil {
		t.Fatalf("EndDate lifetime: %v", err)
	}
	if !end.Equal(LifetimeEnd) {
		t.Fatalf("lifetime must use the sentinel, got %v", end)
	}

	if _, err := p.EndDate(domain.Plan("gold"), start); !errors.Is(err, ErrUnknownPlan) {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
}

func TestStartTrial_OncePerUser(t *testing.T) {
	s := newSubSvc(t)
	ctx := context.Background()

	created, err := s.StartTrial(ctx, 1)
	if err != nil || !created {
		t.Fatalf("first trial: created=%v err=%v", created, err)
	}
	created, err = s.StartTrial(ctx, 1)
	if err != nil || created {
		t.Fatalf("second trial: created=%v err=%v", created, err)
	}
}

func TestStartTrial_NeverClobbersPaidPlan(t *testing.T) {
	s := newSubSvc(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.Upsert(ctx, 1, domain.PlanYear, now); err != nil {
		t.Fatalf("grant year: %v", err)
	}
	created, err := s.StartTrial(ctx, 1)
	if err != nil || created {
		t.Fatalf("trial over paid plan: created=%v err=%v", created, err)
	}

	st, err := s.Status(ctx, 1, now)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Plan != domain.PlanYear {
		t.Fatalf("paid plan was clobbered: %+v", st)
	}
}

func TestUpsert_UnknownPlan(t *testing.T) {
	s := newSubSvc(t)
	if _, err := s.Upsert(context.Background(), 1, domain.Plan("gold"), time.Now().UTC()); !errors.Is(err, ErrUnknownPlan) {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
}

func TestUpsert_LifetimeSentinel(t *testing.T) {
	s := newSubSvc(t)
	now := time.Now().UTC()

	sub, err := s.Upsert(context.Background(), 1, domain.PlanLifetime, now)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !sub.EndDate.Equal(LifetimeEnd) || !sub.IsActive {
		t.Fatalf("unexpected lifetime row: %+v", sub)
	}
}

func TestExtend_StacksOnActiveSubscription(t *testing.T) {
	s := newSubSvc(t)
	ctx := context.Background()
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	first, err := s.Upsert(ctx, 1, domain.PlanMonth, now)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}

	// Paying again mid-window adds a full month to the current end.
	later := now.Add(10 * 24 * time.Hour)
	ext, err := s.Extend(ctx, 1, domain.PlanMonth, later)
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	want := first.EndDate.Add(30 * 24 * time.Hour)
	if !ext.EndDate.Equal(want) {
		t.Fatalf("expected stacked end %v, got %v", want, ext.EndDate)
	}
}

func TestExtend_FreshWhenNoActiveSubscription(t *testing.T) {
	s := newSubSvc(t)
	ctx := context.Background()
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	// No row at all: behaves like a fresh grant.
	sub, err := s.Extend(ctx, 1, domain.PlanWeek, now)
	if err != nil {
		t.Fatalf("Extend without row: %v", err)
	}
	if !sub.EndDate.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected end: %v", sub.EndDate)
	}

	// An inactive row does not stack either.
	if err := s.Revoke(ctx, 1); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	later := now.Add(48 * time.Hour)
	sub, err = s.Extend(ctx, 1, domain.PlanWeek, later)
	if err != nil {
		t.Fatalf("Extend over inactive: %v", err)
	}
	if !sub.EndDate.Equal(later.Add(7 * 24 * time.Hour)) {
		t.Fatalf("inactive row stacked: %v", sub.EndDate)
	}
}

func TestExtend_LifetimeResolvesToSentinel(t *testing.T) {
	s := newSubSvc(t)
	now := time.Now().UTC()

	if _, err := s.Upsert(context.Background(), 1, domain.PlanMonth, now); err != nil {
		t.Fatalf("grant: %v", err)
	}
	sub, err := s.Extend(context.Background(), 1, domain.PlanLifetime, now)
	if err != nil {
		t.Fatalf("Extend lifetime: %v", err)
	}
	if !sub.EndDate.Equal(LifetimeEnd) {
		t.Fatalf("expected sentinel end, got %v", sub.EndDate)
	}
}

func TestRevoke_NotFound(t *testing.T) {
	s := newSubSvc(t)
	if err := s.Revoke(context.Background(), 404); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
}

func TestExpire_FlipsOnlyLapsedRows(t *testing.T) {
	s := newSubSvc(t)
	ctx := context.Background()
	now := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)

	if _, err := s.Upsert(ctx, 1, domain.PlanWeek, now.Add(-10*24*time.Hour)); err != nil {
		t.Fatalf("grant lapsed: %v", err)
	}
	if _, err := s.Upsert(ctx, 2, domain.PlanYear, now.Add(-24*time.Hour)); err != nil {
		t.Fatalf("grant valid: %v", err)
	}
	if _, err := s.Upsert(ctx, 3, domain.PlanLifetime, now.Add(-10*365*24*time.Hour)); err != nil {
		t.Fatalf("grant lifetime: %v", err)
	}

	flipped, err := s.Expire(ctx, now)
	if err != nil || flipped != 1 {
		t.Fatalf("Expire: flipped=%d err=%v", flipped, err)
	}

	// Lifetime never lapses thanks to the sentinel.
	st, err := s.Status(ctx, 3, now)
	if err != nil || !st.Active {
		t.Fatalf("lifetime expired: %+v err=%v", st, err)
	}
}

func TestStatus(t *testing.T) {
	s := newSubSvc(t)
	ctx := context.Background()
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	// No row: inactive zero status, not an error.
	st, err := s.Status(ctx, 1, now)
	if err != nil {
		t.Fatalf("Status without row: %v", err)
	}
	if st.Active || st.Plan != "" || st.DaysLeft != 0 {
		t.Fatalf("expected zero status, got %+v", st)
	}

	if _, err := s.Upsert(ctx, 1, domain.PlanMonth, now); err != nil {
		t.Fatalf("grant: %v", err)
	}
	st, err = s.Status(ctx, 1, now.Add(5*24*time.Hour))
	if err != nil {
		t.Fatalf("Status active: %v", err)
	}
	if !st.Active || st.Plan != domain.PlanMonth || st.DaysLeft != 25 || st.EndDate == nil {
		t.Fatalf("unexpected active status: %+v", st)
	}

	// Past the end date the status is inactive even before the expiry job runs.
	st, err = s.Status(ctx, 1, now.Add(31*24*time.Hour))
	if err != nil {
		t.Fatalf("Status lapsed: %v", err)
	}
	if st.Active || st.Plan != domain.PlanMonth {
		t.Fatalf("unexpected lapsed status: %+v", st)
	}
}
