// Package services – AdminService
//
// This file implements admin privilege rules on top of the admins table.
// The schema does not encode who may grant or revoke; those rules live
// here: only existing admins grant, only the seeded super-admin mints
// super privileges or revokes, and the super-admin row itself can never
// be removed. At most one super-admin exists by convention; the seed is
// the only path that creates one with SuperAdminID's id.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/repo"
)

// AdminService implements grant/revoke/list operations for admins.
// SuperAdminID is the seeded super-admin's Telegram id from configuration.
type AdminService struct {
	DB           *gorm.DB
	SuperAdminID int64
}

// Grant makes targetID an admin on behalf of granterID.
//
// Rules:
//   - granterID must be an existing admin. The seeded super-admin id is
//     accepted even before its row exists, so the very first grant works
//     on a fresh database.
//   - isSuper grants are refused unless granterID is the seeded
//     super-admin; this keeps the one-super-admin convention intact.
//   - Granting an existing admin is a no-op (created=false), never an
//     error.
func (s *AdminService) Grant(ctx context.Context, granterID, targetID int64, username, firstName string, isSuper bool) (bool, error) {
	if isSuper && granterID != s.SuperAdminID {
		return false, ErrUnauthorized
	}
	ok, err := repo.IsAdmin(ctx, s.DB, granterID)
	if err != nil {
		return false, err
	}
	if !ok && granterID != s.SuperAdminID {
		return false, ErrUnauthorized
	}
	return repo.CreateAdmin(ctx, s.DB, targetID, username, firstName, granterID, isSuper, time.Now().UTC())
}

// Revoke removes targetID's admin row on behalf of granterID. Only the
// seeded super-admin may revoke, and the super-admin itself is untouchable
// (revoking it returns ErrUnauthorized, not ErrAdminNotFound).
func (s *AdminService) Revoke(ctx context.Context, granterID, targetID int64) error {
	if granterID != s.SuperAdminID {
		return ErrUnauthorized
	}
	if targetID == s.SuperAdminID {
		return ErrUnauthorized
	}
	err := repo.DeleteAdmin(ctx, s.DB, targetID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrAdminNotFound
	}
	return err
}

// IsAdmin reports whether userID holds an admin row.
func (s *AdminService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	return repo.IsAdmin(ctx, s.DB, userID)
}

// List returns every admin ordered by grant time.
func (s *AdminService) List(ctx context.Context) ([]domain.Admin, error) {
	return repo.ListAdmins(ctx, s.DB)
}
