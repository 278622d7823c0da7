// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Referral
// model and the BusinessConnection mapping.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mguard/go-guardian-backend/internal/domain"
)

// CreateReferral inserts a referral row. The unique index on referred_id
// turns a second registration for the same referred user into
// ErrDuplicate, leaving the first row unchanged.
func CreateReferral(ctx context.Context, db *gorm.DB, referrerID, referredID int64, now time.Time) error {
	row := &domain.Referral{
		ReferrerID: referrerID,
		ReferredID: referredID,
		CreatedAt:  now,
	}
	if err := db.WithContext(ctx).Create(row).Error; err != nil {
		if IsDuplicateErr(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetReferral fetches the referral row of a referred user, or ErrNotFound.
func GetReferral(ctx context.Context, db *gorm.DB, referredID int64) (*domain.Referral, error) {
	var r domain.Referral
	if err := db.WithContext(ctx).Where("referred_id = ?", referredID).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// MarkReferralUsed flips the used flag of an unused referral and reports
// how many rows changed (0 means missing or already used; the service
// layer distinguishes the two).
func MarkReferralUsed(ctx context.Context, db *gorm.DB, referredID int64) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Referral{}).
		Where("referred_id = ? AND used = ?", referredID, false).
		Update("used", true)
	return res.RowsAffected, res.Error
}

// CountReferrals returns how many users referrerID has brought in.
func CountReferrals(ctx context.Context, db *gorm.DB, referrerID int64) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Referral{}).
		Where("referrer_id = ?", referrerID).
		Count(&n).Error
	return n, err
}

// ListReferralsByReferrer returns a referrer's rows, newest first.
func ListReferralsByReferrer(ctx context.Context, db *gorm.DB, referrerID int64) ([]domain.Referral, error) {
	var out []domain.Referral
	err := db.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// UpsertBusinessConnection writes the connection mapping; reconnects for
// the same connection id overwrite the previous owner (last write wins,
// matching Telegram reconnect behavior).
func UpsertBusinessConnection(ctx context.Context, db *gorm.DB, c *domain.BusinessConnection) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "connection_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"user_id":      c.UserID,
				"username":     c.Username,
				"first_name":   c.FirstName,
				"connected_at": c.ConnectedAt,
			}),
		}).
		Create(c).Error
}

// GetBusinessConnection resolves a connection id to its mapping row, or
// ErrNotFound.
func GetBusinessConnection(ctx context.Context, db *gorm.DB, connectionID string) (*domain.BusinessConnection, error) {
	var c domain.BusinessConnection
	if err := db.WithContext(ctx).Where("connection_id = ?", connectionID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
