// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// PaymentHistory ledger.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mguard/go-guardian-backend/internal/domain"
)

// RevenueSummary aggregates completed payments for the admin panel.
type RevenueSummary struct {
	TotalStars    int64 `json:"total_stars"`
	TotalPayments int64 `json:"total_payments"`
}

// CreatePayment appends a ledger row. Duplicate external payment ids
// return ErrDuplicate (the gateway retried an invoice we already hold).
func CreatePayment(ctx context.Context, db *gorm.DB, p *domain.PaymentHistory) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		if IsDuplicateErr(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetPayment fetches a ledger row by its internal id, or ErrNotFound.
func GetPayment(ctx context.Context, db *gorm.DB, id int64) (*domain.PaymentHistory, error) {
	var p domain.PaymentHistory
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPaymentByExternalID fetches a ledger row by the gateway charge id.
func GetPaymentByExternalID(ctx context.Context, db *gorm.DB, paymentID string) (*domain.PaymentHistory, error) {
	var p domain.PaymentHistory
	if err := db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SettlePaymentRow transitions a pending row to its final status. The
// WHERE clause keeps the transition one-way: settling an already settled
// row affects zero rows and the caller maps that to AlreadySettled.
func SettlePaymentRow(ctx context.Context, db *gorm.DB, id int64, status domain.PaymentStatus) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.PaymentHistory{}).
		Where("id = ? AND status = ?", id, domain.PaymentPending).
		Update("status", status)
	return res.RowsAffected, res.Error
}

// ListPaymentsPage returns a page of a user's ledger, newest first.
func ListPaymentsPage(ctx context.Context, db *gorm.DB, userID int64, offset, limit int) ([]domain.PaymentHistory, error) {
	var out []domain.PaymentHistory
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountPayments returns the total ledger rows for one user.
func CountPayments(ctx context.Context, db *gorm.DB, userID int64) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.PaymentHistory{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

// Revenue sums completed payments across all users.
func Revenue(ctx context.Context, db *gorm.DB) (*RevenueSummary, error) {
	var out RevenueSummary
	err := db.WithContext(ctx).
		Model(&domain.PaymentHistory{}).
		Select("COALESCE(SUM(amount), 0) AS total_stars, COUNT(*) AS total_payments").
		Where("status = ?", domain.PaymentCompleted).
		Scan(&out).Error
	return &out, err
}
