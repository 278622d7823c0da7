// Package services – SubscriptionService
//
// This file implements subscription lifecycle rules: the plan policy that
// maps a plan to a validity window, the single-row-per-user grant,
// extension after payment, revocation, and the scheduled batch expiry.
// Expiry is push-based (a cron job calls Expire) rather than checked
// lazily on reads, so tests and operators get deterministic state.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/repo"
)

// LifetimeEnd is the concrete end date written for lifetime plans. A far
// future timestamp keeps end_date NOT NULL and makes every expiry query
// uniform; it is a sentinel, not an actual expiry.
var LifetimeEnd = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// PlanPolicy maps plans to validity durations. The durations are injected
// from configuration; lifetime is represented by the sentinel, not by a
// duration, and needs no entry.
type PlanPolicy struct {
	Durations map[domain.Plan]time.Duration
}

// DefaultPlanPolicy returns the stock plan durations: trial and week
// 7 days, month 30 days, year 365 days.
func DefaultPlanPolicy() PlanPolicy {
	return PlanPolicy{Durations: map[domain.Plan]time.Duration{
		domain.PlanTrial: 7 * 24 * time.Hour,
		domain.PlanWeek:  7 * 24 * time.Hour,
		domain.PlanMonth: 30 * 24 * time.Hour,
		domain.PlanYear:  365 * 24 * time.Hour,
	}}
}

// EndDate computes the validity end for plan starting at start. Lifetime
// returns the explicit sentinel; unknown plans return ErrUnknownPlan.
func (p PlanPolicy) EndDate(plan domain.Plan, start time.Time) (time.Time, error) {
	if plan == domain.PlanLifetime {
		return LifetimeEnd, nil
	}
	d, ok := p.Durations[plan]
	if !ok {
		return time.Time{}, ErrUnknownPlan
	}
	return start.Add(d), nil
}

// Duration returns the configured validity duration for plan, used when
// extending an already active subscription. Lifetime extends to the
// sentinel regardless of the current end.
func (p PlanPolicy) Duration(plan domain.Plan) (time.Duration, error) {
	d, ok := p.Durations[plan]
	if !ok {
		return 0, ErrUnknownPlan
	}
	return d, nil
}

// SubscriptionStatus is the read-model returned by Status: a snapshot, not
// a mutation (expiry is the scheduler's duty).
type SubscriptionStatus struct {
	Active   bool        `json:"active"`
	Plan     domain.Plan `json:"plan,omitempty"`
	DaysLeft int         `json:"days_left"`
	EndDate  *time.Time  `json:"end_date,omitempty"`
}

// SubscriptionService implements the use-cases around the single
// subscription row per user.
type SubscriptionService struct {
	DB     *gorm.DB
	Policy PlanPolicy
}

// StartTrial gives a brand-new user the trial window once. When the user
// already has a subscription row (any plan, any state) the call is a
// no-op and reports created=false; a trial must never clobber a paid plan.
func (s *SubscriptionService) StartTrial(ctx context.Context, userID int64) (bool, error) {
	now := time.Now().UTC()
	end, err := s.Policy.EndDate(domain.PlanTrial, now)
	if err != nil {
		return false, err
	}
	return repo.InsertSubscriptionIfAbsent(ctx, s.DB, &domain.Subscription{
		UserID:           userID,
		SubscriptionType: domain.PlanTrial,
		StartDate:        now,
		EndDate:          end,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
}

// Upsert grants plan to userID starting at now, overwriting any prior
// subscription (latest grant supersedes). end = now + configured duration;
// lifetime writes the explicit sentinel.
func (s *SubscriptionService) Upsert(ctx context.Context, userID int64, plan domain.Plan, now time.Time) (*domain.Subscription, error) {
	end, err := s.Policy.EndDate(plan, now)
	if err != nil {
		return nil, err
	}
	sub := &domain.Subscription{
		UserID:           userID,
		SubscriptionType: plan,
		StartDate:        now,
		EndDate:          end,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := repo.UpsertSubscription(ctx, s.DB, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Extend lengthens an active subscription by the plan's duration, or
// behaves like Upsert when the user has no active subscription. This is
// the post-payment path: paying while active stacks time instead of
// discarding the remainder.
func (s *SubscriptionService) Extend(ctx context.Context, userID int64, plan domain.Plan, now time.Time) (*domain.Subscription, error) {
	if plan == domain.PlanLifetime {
		return s.Upsert(ctx, userID, plan, now)
	}
	d, err := s.Policy.Duration(plan)
	if err != nil {
		return nil, err
	}

	var out *domain.Subscription
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := repo.GetSubscription(ctx, tx, userID)
		end := now.Add(d)
		switch {
		case err == nil && cur.IsActive:
			end = cur.EndDate.Add(d)
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		sub := &domain.Subscription{
			UserID:           userID,
			SubscriptionType: plan,
			StartDate:        now,
			EndDate:          end,
			IsActive:         true,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := repo.UpsertSubscription(ctx, tx, sub); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Revoke deactivates the user's subscription. Returns
// ErrSubscriptionNotFound when the user has no row.
func (s *SubscriptionService) Revoke(ctx context.Context, userID int64) error {
	err := repo.DeactivateSubscription(ctx, s.DB, userID, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return ErrSubscriptionNotFound
	}
	return err
}

// Expire deactivates every subscription whose end date has passed and
// returns how many were flipped. Idempotent; the scheduler calls this on
// a fixed cadence.
func (s *SubscriptionService) Expire(ctx context.Context, now time.Time) (int64, error) {
	return repo.ExpireSubscriptions(ctx, s.DB, now)
}

// Status reports the user's subscription as of now without mutating it.
// Users without a row get the inactive zero status.
func (s *SubscriptionService) Status(ctx context.Context, userID int64, now time.Time) (*SubscriptionStatus, error) {
	sub, err := repo.GetSubscription(ctx, s.DB, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &SubscriptionStatus{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !sub.IsActive || !sub.EndDate.After(now) {
		return &SubscriptionStatus{Plan: sub.SubscriptionType}, nil
	}
	return &SubscriptionStatus{
		Active:   true,
		Plan:     sub.SubscriptionType,
		DaysLeft: int(sub.EndDate.Sub(now).Hours() / 24),
		EndDate:  &sub.EndDate,
	}, nil
}
