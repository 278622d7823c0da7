package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mguard/go-guardian-backend/internal/domain"
)

func newMessageDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("message_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func stagedMsg(owner, chat, msg int64, text string) *domain.Message {
	return &domain.Message{
		OwnerID:   owner,
		ChatID:    chat,
		MessageID: msg,
		UserID:    1000 + msg,
		Text:      text,
	}
}

func TestCreateMessage_DuplicateTriple(t *testing.T) {
	db := newMessageDB(t, &domain.Message{})
	ctx := context.Background()

	if err := CreateMessage(ctx, db, stagedMsg(1, 2, 3, "hello")); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if err := CreateMessage(ctx, db, stagedMsg(1, 2, 3, "other")); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// First row unchanged.
	got, err := GetMessage(ctx, db, 1, 2, 3)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if got.Text != "hello" {
		t.Fatalf("expected original text, got %q", got.Text)
	}
	// Same message id for a different owner is a distinct row.
	if err := CreateMessage(ctx, db, stagedMsg(9, 2, 3, "x")); err != nil {
		t.Fatalf("create for other owner: %v", err)
	}
}

func TestCreateMessage_SetsCreatedAt(t *testing.T) {
	db := newMessageDB(t, &domain.Message{})

	m := stagedMsg(1, 1, 1, "t")
	start := time.Now().UTC().Add(-time.Minute)
	if err := CreateMessage(context.Background(), db, m); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if m.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset: %v", m.CreatedAt)
	}
}

func TestUpdateMessage_SuccessAndNotFound(t *testing.T) {
	db := newMessageDB(t, &domain.Message{})
	ctx := context.Background()

	if err := UpdateMessage(ctx, db, stagedMsg(1, 2, 3, "edit")); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := CreateMessage(ctx, db, stagedMsg(1, 2, 3, "old")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	upd := stagedMsg(1, 2, 3, "new")
	upd.Caption = "cap"
	if err := UpdateMessage(ctx, db, upd); err != nil {
		t.Fatalf("UpdateMessage: %v", err)
	}
	got, err := GetMessage(ctx, db, 1, 2, 3)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if got.Text != "new" || got.Caption != "cap" {
		t.Fatalf("unexpected row after update: %+v", got)
	}
}

func TestDeleteMessage(t *testing.T) {
	db := newMessageDB(t, &domain.Message{})
	ctx := context.Background()

	if err := DeleteMessage(ctx, db, 1, 2, 3); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := CreateMessage(ctx, db, stagedMsg(1, 2, 3, "t")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := DeleteMessage(ctx, db, 1, 2, 3); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
	if _, err := GetMessage(ctx, db, 1, 2, 3); err == nil {
		t.Fatalf("expected missing row after delete")
	}
}

func TestListChatMessages_ArrivalOrder(t *testing.T) {
	db := newMessageDB(t, &domain.Message{})
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 3; i++ {
		m := stagedMsg(1, 7, i, "t")
		m.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := CreateMessage(ctx, db, m); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	// Another chat must not leak in.
	if err := CreateMessage(ctx, db, stagedMsg(1, 8, 1, "t")); err != nil {
		t.Fatalf("seed other chat: %v", err)
	}

	list, err := ListChatMessages(ctx, db, 1, 7)
	if err != nil {
		t.Fatalf("ListChatMessages: %v", err)
	}
	if len(list) != 3 || list[0].MessageID != 1 || list[2].MessageID != 3 {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestPurgeChatMessages(t *testing.T) {
	db := newMessageDB(t, &domain.Message{})
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		if err := CreateMessage(ctx, db, stagedMsg(1, 7, i, "t")); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	if err := CreateMessage(ctx, db, stagedMsg(1, 8, 1, "keep")); err != nil {
		t.Fatalf("seed keeper: %v", err)
	}

	n, err := PurgeChatMessages(ctx, db, 1, 7)
	if err != nil || n != 3 {
		t.Fatalf("PurgeChatMessages: n=%d err=%v", n, err)
	}
	// Idempotent: an empty chat purges zero rows without error.
	n, err = PurgeChatMessages(ctx, db, 1, 7)
	if err != nil || n != 0 {
		t.Fatalf("second purge: n=%d err=%v", n, err)
	}
	if _, err := GetMessage(ctx, db, 1, 8, 1); err != nil {
		t.Fatalf("keeper row lost: %v", err)
	}
}

func TestIncrementStat_CreatesThenBumps(t *testing.T) {
	db := newMessageDB(t, &domain.Stats{})
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		if err := IncrementStat(ctx, db, 1, "total_messages", now); err != nil {
			t.Fatalf("bump %d: %v", i, err)
		}
	}
	if err := IncrementStat(ctx, db, 1, "total_edits", now); err != nil {
		t.Fatalf("bump edits: %v", err)
	}

	s, err := GetStats(ctx, db, 1)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if s.TotalMessages != 3 || s.TotalEdits != 1 || s.TotalDeletes != 0 {
		t.Fatalf("unexpected counters: %+v", s)
	}
}

func TestGetStats_ZeroForUnknownOwner(t *testing.T) {
	db := newMessageDB(t, &domain.Stats{})

	s, err := GetStats(context.Background(), db, 99)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if s.OwnerID != 99 || s.TotalMessages != 0 || s.TotalEdits != 0 || s.TotalDeletes != 0 {
		t.Fatalf("expected zero aggregate, got %+v", s)
	}
}

func TestIsDuplicateErr(t *testing.T) {
	if IsDuplicateErr(nil) {
		t.Fatalf("nil is not a duplicate error")
	}
	if !IsDuplicateErr(ErrDuplicate) {
		t.Fatalf("ErrDuplicate must be recognized")
	}
	if !IsDuplicateErr(gorm.ErrDuplicatedKey) {
		t.Fatalf("gorm.ErrDuplicatedKey must be recognized")
	}
	if !IsDuplicateErr(fmt.Errorf("UNIQUE constraint failed: messages.owner_id")) {
		t.Fatalf("sqlite unique violation text must be recognized")
	}
	if IsDuplicateErr(fmt.Errorf("disk I/O error")) {
		t.Fatalf("unrelated error misclassified")
	}
}
