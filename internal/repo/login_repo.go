// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// FailedLogin and BannedUser models.
//
// The repository follows a "thin" approach: it performs persistence and
// simple query composition, leaving the ban-threshold rule to the services
// package, which composes these functions inside one transaction.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mguard/go-guardian-backend/internal/domain"
)

// FailedLoginSummary is the per-user aggregate shown in the admin panel:
// the highest recorded attempt count and the time of the latest attempt.
type FailedLoginSummary struct {
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	Attempts    int       `json:"attempts"`
	LastAttempt time.Time `json:"last_attempt"`
}

// CreateFailedLogin appends a failed-login row carrying the rolling
// attempt count computed by the caller.
func CreateFailedLogin(ctx context.Context, db *gorm.DB, userID int64, username, firstName string, attempts int, at time.Time) error {
	row := &domain.FailedLogin{
		UserID:        userID,
		Username:      username,
		FirstName:     firstName,
		AttemptsCount: attempts,
		AttemptTime:   at,
	}
	return db.WithContext(ctx).Create(row).Error
}

// CountFailedLoginsSince returns the number of failed attempts for userID
// with attempt_time strictly after since.
func CountFailedLoginsSince(ctx context.Context, db *gorm.DB, userID int64, since time.Time) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.FailedLogin{}).
		Where("user_id = ? AND attempt_time > ?", userID, since).
		Count(&n).Error
	return n, err
}

// DeleteFailedLoginsBefore removes every failed-login row with
// attempt_time strictly before cutoff and reports how many were removed.
// Deleting nothing is success, not an error.
func DeleteFailedLoginsBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("attempt_time < ?", cutoff).
		Delete(&domain.FailedLogin{})
	return res.RowsAffected, res.Error
}

// SummarizeFailedLogins returns the most recent per-user aggregates,
// newest last attempt first, capped at limit rows.
func SummarizeFailedLogins(ctx context.Context, db *gorm.DB, limit int) ([]FailedLoginSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []FailedLoginSummary
	err := db.WithContext(ctx).
		Model(&domain.FailedLogin{}).
		Select("user_id, username, first_name, MAX(attempts_count) AS attempts, MAX(attempt_time) AS last_attempt").
		Group("user_id, username, first_name").
		Order("last_attempt DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

// CreateBannedUser inserts a ban row unless one already exists. It reports
// whether the row was created now, which lets the caller apply the ban's
// side effects exactly once even under concurrent duplicate attempts.
func CreateBannedUser(ctx context.Context, db *gorm.DB, userID int64, username, firstName, reason string, at time.Time) (bool, error) {
	row := &domain.BannedUser{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		Reason:    reason,
		BannedAt:  at,
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IsBanned reports whether a ban row exists for userID. O(1) primary-key
// lookup against banned_users.
func IsBanned(ctx context.Context, db *gorm.DB, userID int64) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.BannedUser{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n > 0, err
}

// CountBannedUsers returns the total number of ban rows.
func CountBannedUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.BannedUser{}).Count(&n).Error
	return n, err
}

// ListBannedUsersPage returns a page of ban rows, most recent first.
func ListBannedUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.BannedUser, error) {
	var out []domain.BannedUser
	err := db.WithContext(ctx).
		Order("banned_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeleteBannedUser removes a ban row, returning ErrNotFound when the user
// was not banned. The caller clears the users.is_banned mirror flag.
func DeleteBannedUser(ctx context.Context, db *gorm.DB, userID int64) error {
	res := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.BannedUser{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
