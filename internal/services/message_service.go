// Package services – MessageService
//
// This file implements the staging-table rules for monitored messages and
// the per-owner statistics. A staging row lives from the moment a message
// is seen until the deletion/edit notification has been dispatched, at
// which point the dispatcher deletes it. Recording never overwrites
// silently: a duplicate triple is a typed error and the caller chooses
// between skip and an explicit Update.
package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/repo"
)

// StatKind names one message lifecycle event counted in the stats row.
type StatKind string

// Stat kinds.
const (
	StatMessage StatKind = "message"
	StatEdit    StatKind = "edit"
	StatDelete  StatKind = "delete"
)

// column maps a kind to its stats column; "" for unknown kinds.
func (k StatKind) column() string {
	switch k {
	case StatMessage:
		return "total_messages"
	case StatEdit:
		return "total_edits"
	case StatDelete:
		return "total_deletes"
	}
	return ""
}

// MessageInput carries the raw payload handed over by the messaging
// platform client for one monitored message.
type MessageInput struct {
	OwnerID   int64  `json:"owner_id"`
	ChatID    int64  `json:"chat_id"`
	MessageID int64  `json:"message_id"`
	UserID    int64  `json:"user_id"`
	Text      string `json:"text"`
	MediaType string `json:"media_type"`
	FilePath  string `json:"file_path"`
	Caption   string `json:"caption"`
	Links     string `json:"links"`
}

// MessageService implements the staging table and stats use-cases.
type MessageService struct {
	DB *gorm.DB
}

// model converts the input to a persistence row, normalizing user-visible
// text to NFC so that later equality checks (edit detection downstream)
// do not stumble over composed-vs-decomposed Unicode from different
// Telegram clients.
func (in MessageInput) model() *domain.Message {
	return &domain.Message{
		OwnerID:   in.OwnerID,
		ChatID:    in.ChatID,
		MessageID: in.MessageID,
		UserID:    in.UserID,
		Text:      norm.NFC.String(in.Text),
		MediaType: in.MediaType,
		FilePath:  in.FilePath,
		Caption:   norm.NFC.String(in.Caption),
		Links:     in.Links,
	}
}

// Record inserts a staging row for a newly seen message and bumps the
// owner's message counter in the same transaction.
//
// Errors:
//   - ErrDuplicateMessage when the (owner, chat, message) triple already
//     exists; the stored row is unchanged and no counter moves.
func (s *MessageService) Record(ctx context.Context, in MessageInput) (*domain.Message, error) {
	m := in.model()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateMessage(ctx, tx, m); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrDuplicateMessage
			}
			return err
		}
		return repo.IncrementStat(ctx, tx, in.OwnerID, StatMessage.column(), time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Update overwrites the payload of an existing staging row (edit event)
// and bumps the owner's edit counter. ErrMessageNotFound when the triple
// does not exist.
func (s *MessageService) Update(ctx context.Context, in MessageInput) error {
	m := in.model()
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpdateMessage(ctx, tx, m); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrMessageNotFound
			}
			return err
		}
		return repo.IncrementStat(ctx, tx, in.OwnerID, StatEdit.column(), time.Now().UTC())
	})
}

// Get fetches a staging row, or ErrMessageNotFound (the row may already
// have been dispatched and deleted; that is normal).
func (s *MessageService) Get(ctx context.Context, ownerID, chatID, messageID int64) (*domain.Message, error) {
	m, err := repo.GetMessage(ctx, s.DB, ownerID, chatID, messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	return m, err
}

// Delete removes a staging row once its notification has been dispatched
// and bumps the owner's delete counter. ErrMessageNotFound when the triple
// does not exist (already dispatched), in which case no counter moves.
func (s *MessageService) Delete(ctx context.Context, ownerID, chatID, messageID int64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.DeleteMessage(ctx, tx, ownerID, chatID, messageID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrMessageNotFound
			}
			return err
		}
		return repo.IncrementStat(ctx, tx, ownerID, StatDelete.column(), time.Now().UTC())
	})
}

// ListChat returns one monitored chat's staged messages in arrival order
// (chat backup input).
func (s *MessageService) ListChat(ctx context.Context, ownerID, chatID int64) ([]domain.Message, error) {
	return repo.ListChatMessages(ctx, s.DB, ownerID, chatID)
}

// PurgeChat drops every staged row of one monitored chat and returns how
// many were removed. An empty chat is success.
func (s *MessageService) PurgeChat(ctx context.Context, ownerID, chatID int64) (int64, error) {
	return repo.PurgeChatMessages(ctx, s.DB, ownerID, chatID)
}

// BumpStats increments one counter of the owner's stats row, for
// lifecycle events observed outside Record/Update/Delete. The increment
// is a single upsert statement, safe under concurrent bumps for the same
// owner. ErrInvalidStatKind for unknown kinds.
func (s *MessageService) BumpStats(ctx context.Context, ownerID int64, kind StatKind) error {
	col := kind.column()
	if col == "" {
		return ErrInvalidStatKind
	}
	return repo.IncrementStat(ctx, s.DB, ownerID, col, time.Now().UTC())
}

// Stats returns the owner's aggregate counters; owners without activity
// get the zero aggregate.
func (s *MessageService) Stats(ctx context.Context, ownerID int64) (*domain.Stats, error) {
	return repo.GetStats(ctx, s.DB, ownerID)
}
