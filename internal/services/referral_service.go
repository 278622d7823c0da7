// Package services – ReferralService
//
// This file implements the referral rules: a user can be referred at most
// once, never by themselves, and the referrer's reward is claimed at most
// once. Reward granting itself (extra subscription days, stars, …) is an
// external collaborator's decision; this service only keeps the books.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/repo"
)

// ReferralService implements referral bookkeeping.
type ReferralService struct {
	DB *gorm.DB
}

// Register records that referredID joined through referrerID.
//
// Errors:
//   - ErrSelfReferral when both ids are equal.
//   - ErrDuplicateReferral when referredID already has a referral row; the
//     first registration's row is unchanged.
func (s *ReferralService) Register(ctx context.Context, referrerID, referredID int64) error {
	if referrerID == referredID {
		return ErrSelfReferral
	}
	err := repo.CreateReferral(ctx, s.DB, referrerID, referredID, time.Now().UTC())
	if errors.Is(err, repo.ErrDuplicate) {
		return ErrDuplicateReferral
	}
	return err
}

// MarkUsed flips the reward flag for referredID's referral. The
// conditional update claims the reward exactly once even under concurrent
// calls: the loser of the race sees zero rows changed and gets
// ErrReferralAlreadyUsed.
func (s *ReferralService) MarkUsed(ctx context.Context, referredID int64) error {
	affected, err := repo.MarkReferralUsed(ctx, s.DB, referredID)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	if _, err := repo.GetReferral(ctx, s.DB, referredID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReferralNotFound
		}
		return err
	}
	return ErrReferralAlreadyUsed
}

// Get returns the referral row of a referred user, or ErrReferralNotFound.
func (s *ReferralService) Get(ctx context.Context, referredID int64) (*domain.Referral, error) {
	r, err := repo.GetReferral(ctx, s.DB, referredID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReferralNotFound
	}
	return r, err
}

// ByReferrer returns a referrer's rows, newest first, plus the count.
func (s *ReferralService) ByReferrer(ctx context.Context, referrerID int64) ([]domain.Referral, int64, error) {
	total, err := repo.CountReferrals(ctx, s.DB, referrerID)
	if err != nil {
		return nil, 0, err
	}
	items, err := repo.ListReferralsByReferrer(ctx, s.DB, referrerID)
	return items, total, err
}
