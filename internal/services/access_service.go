// Package services – AccessService
//
// This file implements the AccessService, which governs bot authentication:
// the password check, the rolling failed-attempt count, and the automatic
// ban once the count reaches the configured threshold. The threshold
// check-and-ban runs inside one transaction so that two concurrent failed
// attempts for the same user cannot both decide "not yet banned" and skip
// the ban, and cannot produce two ban rows.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/repo"
)

// AuthStatus is the tri-state outcome of an authentication check. "Not
// authenticated yet" is expected control flow, not an error.
type AuthStatus string

// Authentication outcomes.
const (
	StatusAuthenticated AuthStatus = "authenticated"
	StatusRejected      AuthStatus = "rejected"
	StatusBanned        AuthStatus = "banned"
)

// FailedLoginResult reports the rolling attempt count after a failed
// attempt and whether this attempt triggered the ban.
type FailedLoginResult struct {
	Attempts  int  `json:"attempts"`
	BannedNow bool `json:"banned_now"`
}

// AccessService implements authentication bookkeeping on top of the users,
// failed_logins and banned_users tables.
//
// Configuration:
//   - BanThreshold: failed attempts within Window that trigger a ban.
//   - Window: the rolling window over which attempts are counted; also the
//     retention horizon of CleanupStaleFailedLogins.
//   - BanReason: reason string written to the ban row.
type AccessService struct {
	DB           *gorm.DB
	BanThreshold int
	Window       time.Duration
	BanReason    string
}

// NewAccessService constructs an AccessService with the default lockout
// policy: three attempts per trailing 24 hours.
func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{
		DB:           db,
		BanThreshold: 3,
		Window:       24 * time.Hour,
		BanReason:    "too many failed login attempts",
	}
}

// Authenticate checks the supplied password for userID and returns one of
// the three statuses. On success, it upserts the user row with
// is_authenticated=true and a fresh last_login. A rejection is not
// recorded here; the caller composes with RecordFailedLogin so that it
// stays in control of the lockout flow.
//
// The comparison is constant-time; a shared bot password is still a
// password.
func (s *AccessService) Authenticate(ctx context.Context, userID int64, username, firstName, supplied, expected string) (AuthStatus, error) {
	banned, err := repo.IsBanned(ctx, s.DB, userID)
	if err != nil {
		return "", err
	}
	if banned {
		return StatusBanned, nil
	}
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) != 1 {
		return StatusRejected, nil
	}
	now := time.Now().UTC()
	if err := repo.UpsertAuthenticated(ctx, s.DB, userID, username, firstName, now); err != nil {
		return "", err
	}
	return StatusAuthenticated, nil
}

// RecordFailedLogin appends a failed attempt and applies the ban when the
// rolling count reaches the threshold.
//
// Semantics:
//   - The count is recomputed over the trailing Window including this
//     attempt, never read from a stored counter, so the cleanup job and
//     the counter can never disagree.
//   - At the threshold, the ban row insert and the users.is_banned flip
//     happen in the same transaction as the attempt insert; a half-banned
//     state is not observable.
//   - BannedNow is true only for the attempt that created the ban row, so
//     concurrent over-threshold attempts report the ban exactly once.
func (s *AccessService) RecordFailedLogin(ctx context.Context, userID int64, username, firstName string) (*FailedLoginResult, error) {
	var out FailedLoginResult
	now := time.Now().UTC()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prior, err := repo.CountFailedLoginsSince(ctx, tx, userID, now.Add(-s.Window))
		if err != nil {
			return err
		}
		out.Attempts = int(prior) + 1

		if err := repo.CreateFailedLogin(ctx, tx, userID, username, firstName, out.Attempts, now); err != nil {
			return err
		}

		if out.Attempts < s.BanThreshold {
			return nil
		}
		created, err := repo.CreateBannedUser(ctx, tx, userID, username, firstName, s.BanReason, now)
		if err != nil {
			return err
		}
		out.BannedNow = created
		if created {
			return repo.SetBanned(ctx, tx, userID, true)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CleanupStaleFailedLogins deletes attempt rows older than the rolling
// window, measured from now. Removing nothing is success; the operation is
// idempotent and safe to run on a timer concurrently with write traffic,
// since it only touches rows strictly outside the current window.
func (s *AccessService) CleanupStaleFailedLogins(ctx context.Context, now time.Time) (int64, error) {
	return repo.DeleteFailedLoginsBefore(ctx, s.DB, now.Add(-s.Window))
}

// IsBanned reports whether userID has a ban row.
func (s *AccessService) IsBanned(ctx context.Context, userID int64) (bool, error) {
	return repo.IsBanned(ctx, s.DB, userID)
}

// IsAuthenticated reports whether userID is authenticated and not banned.
func (s *AccessService) IsAuthenticated(ctx context.Context, userID int64) (bool, error) {
	return repo.IsAuthenticated(ctx, s.DB, userID)
}

// Ban applies a manual ban with the given reason, mirroring the automatic
// path: ban row plus users flag in one transaction. Returns
// ErrAlreadyBanned when a ban row already exists.
func (s *AccessService) Ban(ctx context.Context, userID int64, username, firstName, reason string) error {
	if reason == "" {
		reason = s.BanReason
	}
	now := time.Now().UTC()
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := repo.CreateBannedUser(ctx, tx, userID, username, firstName, reason, now)
		if err != nil {
			return err
		}
		if !created {
			return ErrAlreadyBanned
		}
		return repo.SetBanned(ctx, tx, userID, true)
	})
}

// Unban removes the ban row and clears the users flag. Returns
// ErrNotBanned when the user has no ban row.
func (s *AccessService) Unban(ctx context.Context, userID int64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.DeleteBannedUser(ctx, tx, userID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrNotBanned
			}
			return err
		}
		return repo.SetBanned(ctx, tx, userID, false)
	})
}

// ListBanned returns a page of banned users, newest first, plus the total
// for pagination metadata.
func (s *AccessService) ListBanned(ctx context.Context, page, pageSize int) ([]domain.BannedUser, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := repo.CountBannedUsers(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.BannedUser{}, 0, nil
	}
	items, err := repo.ListBannedUsersPage(ctx, s.DB, (page-1)*pageSize, pageSize)
	return items, total, err
}

// FailedLoginReport returns the per-user attempt aggregates for the admin
// panel, capped at limit rows.
func (s *AccessService) FailedLoginReport(ctx context.Context, limit int) ([]repo.FailedLoginSummary, error) {
	return repo.SummarizeFailedLogins(ctx, s.DB, limit)
}

// ListAuthenticated returns all authenticated users (broadcast targets).
func (s *AccessService) ListAuthenticated(ctx context.Context) ([]domain.User, error) {
	return repo.ListAuthenticated(ctx, s.DB)
}
