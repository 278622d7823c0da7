// Package services – PaymentService
//
// This file implements the payment ledger rules. A payment is recorded as
// pending when the invoice is issued and settled exactly once by the
// gateway callback. Settlement is one-way: once completed or failed, the
// row never changes again. Activating the purchased subscription is the
// webhook handler's follow-up call into SubscriptionService, not a hidden
// side effect here.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/repo"
)

// PaymentService implements the append-only payment ledger.
type PaymentService struct {
	DB *gorm.DB
}

// Record appends a pending ledger row for an issued invoice.
//
// Errors:
//   - ErrUnknownPlan when plan is not a known plan name.
//   - ErrDuplicatePayment when externalID was already recorded (gateway
//     retry of an invoice we already hold); the first row is unchanged.
func (s *PaymentService) Record(ctx context.Context, userID int64, plan domain.Plan, amount int64, externalID string) (*domain.PaymentHistory, error) {
	if !plan.Valid() {
		return nil, ErrUnknownPlan
	}
	p := &domain.PaymentHistory{
		UserID:           userID,
		SubscriptionType: plan,
		Amount:           amount,
		PaymentID:        externalID,
		Status:           domain.PaymentPending,
	}
	if err := repo.CreatePayment(ctx, s.DB, p); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicatePayment
		}
		return nil, err
	}
	return p, nil
}

// Settle transitions a pending payment to completed or failed and returns
// the settled row.
//
// Errors:
//   - ErrInvalidSettleStatus for any status outside {completed, failed}.
//   - ErrPaymentNotFound when no ledger row has that id.
//   - ErrAlreadySettled when the row is no longer pending; the stored
//     status wins and the caller can fetch it for the replay response.
func (s *PaymentService) Settle(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.PaymentHistory, error) {
	if status != domain.PaymentCompleted && status != domain.PaymentFailed {
		return nil, ErrInvalidSettleStatus
	}

	var out *domain.PaymentHistory
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := repo.SettlePaymentRow(ctx, tx, id, status)
		if err != nil {
			return err
		}
		if affected == 0 {
			// Missing row and settled row both match zero; look to tell apart.
			if _, err := repo.GetPayment(ctx, tx, id); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrPaymentNotFound
				}
				return err
			}
			return ErrAlreadySettled
		}
		out, err = repo.GetPayment(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a ledger row by internal id; ErrPaymentNotFound when absent.
func (s *PaymentService) Get(ctx context.Context, id int64) (*domain.PaymentHistory, error) {
	p, err := repo.GetPayment(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

// History returns a page of the user's ledger, newest first, plus the
// total for pagination metadata.
func (s *PaymentService) History(ctx context.Context, userID int64, page, pageSize int) ([]domain.PaymentHistory, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := repo.CountPayments(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.PaymentHistory{}, 0, nil
	}
	items, err := repo.ListPaymentsPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Revenue sums completed payments across all users (admin panel).
func (s *PaymentService) Revenue(ctx context.Context) (*repo.RevenueSummary, error) {
	return repo.Revenue(ctx, s.DB)
}
