// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Admin
// model. The authorization rules (who may grant, who may revoke) live in
// services.AdminService; this file is persistence only.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mguard/go-guardian-backend/internal/domain"
)

// IsAdmin reports whether an admin row exists for userID.
func IsAdmin(ctx context.Context, db *gorm.DB, userID int64) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Admin{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n > 0, err
}

// GetAdmin fetches an admin row, or ErrNotFound.
func GetAdmin(ctx context.Context, db *gorm.DB, userID int64) (*domain.Admin, error) {
	var a domain.Admin
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAdmin inserts a privilege row unless one already exists, and
// reports whether the row was created now. Re-granting is a no-op.
func CreateAdmin(ctx context.Context, db *gorm.DB, userID int64, username, firstName string, addedBy int64, isSuper bool, now time.Time) (bool, error) {
	a := &domain.Admin{
		UserID:       userID,
		Username:     username,
		FirstName:    firstName,
		AddedBy:      addedBy,
		IsSuperAdmin: isSuper,
		CreatedAt:    now,
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(a)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteAdmin removes a non-super admin row, returning ErrNotFound when
// nothing matched. The is_super_admin guard makes the seeded super-admin
// unremovable at the persistence layer too.
func DeleteAdmin(ctx context.Context, db *gorm.DB, userID int64) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND is_super_admin = ?", userID, false).
		Delete(&domain.Admin{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAdmins returns every admin ordered by grant time.
func ListAdmins(ctx context.Context, db *gorm.DB) ([]domain.Admin, error) {
	var out []domain.Admin
	err := db.WithContext(ctx).Order("created_at").Find(&out).Error
	return out, err
}
