package domain

import "time"

// Idempotency records the outcome of a previously processed settlement
// request, keyed by (payment_id, key). It lets the payment webhook be
// retried safely: a replay returns the originally produced status without
// settling twice.
type Idempotency struct {
	ID        string    `gorm:"column:id;primaryKey"`
	PaymentID string    `gorm:"column:payment_id;not null;uniqueIndex:ux_idem_payment_key,priority:1"`
	Key       string    `gorm:"column:key;not null;uniqueIndex:ux_idem_payment_key,priority:2"`
	Status    int       `gorm:"column:status;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
