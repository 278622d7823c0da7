// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// staging table and the per-owner Stats aggregate.
//
// Error semantics:
//   - Recording a message that already exists for (owner_id, chat_id,
//     message_id) returns ErrDuplicate; the service layer decides whether
//     that means "skip" or "switch to an explicit update".
//   - Stats increments are a single upsert statement, so two concurrent
//     bumps for the same owner both land (no read-modify-write in Go).
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mguard/go-guardian-backend/internal/domain"
)

// ErrDuplicate indicates that a row with the same unique key already
// exists (message triple, referral target, external payment id).
var ErrDuplicate = errors.New("duplicate")

// IsDuplicateErr detects unique-constraint violations across drivers that
// may not map to gorm.ErrDuplicatedKey.
//
// glebarez/sqlite often returns plain-text errors for UNIQUE violations;
// Postgres reports "duplicate key value violates unique constraint".
func IsDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicate) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}

// CreateMessage inserts a staging row. A second insert with the same
// (owner_id, chat_id, message_id) returns ErrDuplicate and leaves the
// first row unchanged.
func CreateMessage(ctx context.Context, db *gorm.DB, m *domain.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if IsDuplicateErr(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// UpdateMessage overwrites the payload columns of an existing staging row,
// returning ErrNotFound when the triple does not exist. This is the
// explicit edit path; CreateMessage never silently overwrites.
func UpdateMessage(ctx context.Context, db *gorm.DB, m *domain.Message) error {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("owner_id = ? AND chat_id = ? AND message_id = ?", m.OwnerID, m.ChatID, m.MessageID).
		Updates(map[string]interface{}{
			"user_id":    m.UserID,
			"text":       m.Text,
			"media_type": m.MediaType,
			"file_path":  m.FilePath,
			"caption":    m.Caption,
			"links":      m.Links,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetMessage fetches a staging row by its triple, or ErrNotFound.
func GetMessage(ctx context.Context, db *gorm.DB, ownerID, chatID, messageID int64) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).
		Where("owner_id = ? AND chat_id = ? AND message_id = ?", ownerID, chatID, messageID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMessage removes a staging row once the dependent notification has
// fired. Returns ErrNotFound when the triple does not exist.
func DeleteMessage(ctx context.Context, db *gorm.DB, ownerID, chatID, messageID int64) error {
	res := db.WithContext(ctx).
		Where("owner_id = ? AND chat_id = ? AND message_id = ?", ownerID, chatID, messageID).
		Delete(&domain.Message{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListChatMessages returns every staged message of one monitored chat in
// arrival order. Used by the chat backup feature.
func ListChatMessages(ctx context.Context, db *gorm.DB, ownerID, chatID int64) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("owner_id = ? AND chat_id = ?", ownerID, chatID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// PurgeChatMessages removes all staged rows of one monitored chat and
// reports how many were removed. Purging an empty chat is success.
func PurgeChatMessages(ctx context.Context, db *gorm.DB, ownerID, chatID int64) (int64, error) {
	res := db.WithContext(ctx).
		Where("owner_id = ? AND chat_id = ?", ownerID, chatID).
		Delete(&domain.Message{})
	return res.RowsAffected, res.Error
}

// IncrementStat bumps one counter of the owner's stats row, creating the
// row when absent. The whole operation is one INSERT ... ON CONFLICT DO
// UPDATE statement, so concurrent increments for the same owner cannot
// lose updates. column must be one of total_messages, total_edits,
// total_deletes (enforced by the service layer).
func IncrementStat(ctx context.Context, db *gorm.DB, ownerID int64, column string, now time.Time) error {
	seed := &domain.Stats{OwnerID: ownerID, UpdatedAt: now}
	switch column {
	case "total_messages":
		seed.TotalMessages = 1
	case "total_edits":
		seed.TotalEdits = 1
	case "total_deletes":
		seed.TotalDeletes = 1
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "owner_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				column:       gorm.Expr(column + " + 1"),
				"updated_at": now,
			}),
		}).
		Create(seed).Error
}

// GetStats returns the owner's aggregate counters. Owners without a row
// yet get the zero aggregate, not an error.
func GetStats(ctx context.Context, db *gorm.DB, ownerID int64) (*domain.Stats, error) {
	var s domain.Stats
	err := db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.Stats{OwnerID: ownerID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
