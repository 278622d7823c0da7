// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mguard/go-guardian-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetUser fetches a user by Telegram id, or ErrNotFound if missing.
func GetUser(ctx context.Context, db *gorm.DB, userID int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertAuthenticated marks userID authenticated, refreshing the display
// identity and last_login. Missing users are inserted; existing rows are
// updated in place (the ban flag is intentionally left alone).
func UpsertAuthenticated(ctx context.Context, db *gorm.DB, userID int64, username, firstName string, now time.Time) error {
	u := &domain.User{
		UserID:          userID,
		Username:        username,
		FirstName:       firstName,
		IsAuthenticated: true,
		CreatedAt:       now,
		LastLogin:       &now,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"is_authenticated": true,
				"username":         username,
				"first_name":       firstName,
				"last_login":       now,
			}),
		}).
		Create(u).Error
}

// IsAuthenticated reports whether userID has passed authentication and is
// not banned. Unknown users are simply unauthenticated, not an error.
func IsAuthenticated(ctx context.Context, db *gorm.DB, userID int64) (bool, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Select("is_authenticated").
		Where("user_id = ? AND is_banned = ?", userID, false).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsAuthenticated, nil
}

// SetBanned flips the ban flag on an existing user row. Missing users are
// not an error: the banned_users row is authoritative and the mirror flag
// only applies when the user row exists.
func SetBanned(ctx context.Context, db *gorm.DB, userID int64, banned bool) error {
	return db.WithContext(ctx).
		Model(&domain.User{}).
		Where("user_id = ?", userID).
		Update("is_banned", banned).Error
}

// ListAuthenticated returns all authenticated users, most recent first.
// Used by the broadcast feature.
func ListAuthenticated(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Where("is_authenticated = ?", true).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}
