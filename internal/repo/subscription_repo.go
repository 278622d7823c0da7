// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Subscription model. The single-row-per-user invariant is carried by the
// primary key on user_id: every write is an upsert against that key.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mguard/go-guardian-backend/internal/domain"
)

// GetSubscription fetches the user's subscription row, or ErrNotFound.
func GetSubscription(ctx context.Context, db *gorm.DB, userID int64) (*domain.Subscription, error) {
	var s domain.Subscription
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertSubscription writes the user's subscription row, overwriting any
// prior plan and window (latest grant supersedes).
func UpsertSubscription(ctx context.Context, db *gorm.DB, s *domain.Subscription) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"subscription_type": s.SubscriptionType,
				"start_date":        s.StartDate,
				"end_date":          s.EndDate,
				"is_active":         s.IsActive,
				"auto_renew":        s.AutoRenew,
				"updated_at":        s.UpdatedAt,
			}),
		}).
		Create(s).Error
}

// InsertSubscriptionIfAbsent inserts the row only when the user has no
// subscription yet and reports whether it was created. Existing rows are
// left untouched (trial must not clobber a paid plan).
func InsertSubscriptionIfAbsent(ctx context.Context, db *gorm.DB, s *domain.Subscription) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(s)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeactivateSubscription clears the active flag of the user's row,
// returning ErrNotFound when no subscription exists.
func DeactivateSubscription(ctx context.Context, db *gorm.DB, userID int64, now time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"is_active": false, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireSubscriptions flips is_active off for every row whose window has
// closed and reports how many were flipped. The predicate makes the
// operation idempotent: a second run matches nothing.
func ExpireSubscriptions(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("end_date < ? AND is_active = ?", now, true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": now})
	return res.RowsAffected, res.Error
}
