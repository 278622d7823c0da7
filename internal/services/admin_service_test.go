package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/repo"
)

const superID int64 = 1000

func newAdminSvc(t *testing.T) *AdminService {
	t.Helper()
	dsn := fmt.Sprintf("file:adminsvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Admin{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return &AdminService{DB: db, SuperAdminID: superID}
}

func TestGrant_FirstGrantBySuperAdminOnFreshDB(t *testing.T) {
	s := newAdminSvc(t)

	// No admin rows exist yet; the seeded super-admin id is still trusted.
	created, err := s.Grant(context.Background(), superID, 2, "u", "f", false)
	if err != nil || !created {
		t.Fatalf("first grant: created=%v err=%v", created, err)
	}

	ok, err := s.IsAdmin(context.Background(), 2)
	if err != nil || !ok {
		t.Fatalf("IsAdmin: ok=%v err=%v", ok, err)
	}
}

func TestGrant_ByRegularAdmin(t *testing.T) {
	s := newAdminSvc(t)
	ctx := context.Background()

	if _, err := s.Grant(ctx, superID, 2, "u", "f", false); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	created, err := s.Grant(ctx, 2, 3, "u", "f", false)
	if err != nil || !created {
		t.Fatalf("grant by admin: created=%v err=%v", created, err)
	}
}

func TestGrant_ByNonAdmin(t *testing.T) {
	s := newAdminSvc(t)
	if _, err := s.Grant(context.Background(), 555, 2, "u", "f", false); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGrant_SuperPrivilegeReservedToSuperAdmin(t *testing.T) {
	s := newAdminSvc(t)
	ctx := context.Background()

	if _, err := s.Grant(ctx, superID, 2, "u", "f", false); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	// A regular admin cannot mint super privileges.
	if _, err := s.Grant(ctx, 2, 3, "u", "f", true); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	// The super-admin can.
	created, err := s.Grant(ctx, superID, 3, "u", "f", true)
	if err != nil || !created {
		t.Fatalf("super grant: created=%v err=%v", created, err)
	}
}

func TestGrant_ExistingAdminIsNoop(t *testing.T) {
	s := newAdminSvc(t)
	ctx := context.Background()

	if _, err := s.Grant(ctx, superID, 2, "u", "f", false); err != nil {
		t.Fatalf("first grant: %v", err)
	}
	created, err := s.Grant(ctx, superID, 2, "u", "f", false)
	if err != nil || created {
		t.Fatalf("regrant: created=%v err=%v", created, err)
	}
}

func TestRevoke_OnlySuperAdmin(t *testing.T) {
	s := newAdminSvc(t)
	ctx := context.Background()

	if _, err := s.Grant(ctx, superID, 2, "u", "f", false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.Revoke(ctx, 2, 2); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("revoke by regular admin: %v", err)
	}
	if err := s.Revoke(ctx, superID, 2); err != nil {
		t.Fatalf("revoke by super: %v", err)
	}
	ok, err := s.IsAdmin(ctx, 2)
	if err != nil || ok {
		t.Fatalf("still admin after revoke: ok=%v err=%v", ok, err)
	}
}

func TestRevoke_SuperAdminIsUntouchable(t *testing.T) {
	s := newAdminSvc(t)
	if err := s.Revoke(context.Background(), superID, superID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRevoke_MissingAdmin(t *testing.T) {
	s := newAdminSvc(t)
	if err := s.Revoke(context.Background(), superID, 777); !errors.Is(err, ErrAdminNotFound) {
		t.Fatalf("expected ErrAdminNotFound, got %v", err)
	}
}

func TestList_IncludesSeededSuperAdmin(t *testing.T) {
	s := newAdminSvc(t)
	ctx := context.Background()

	if err := repo.SeedSuperAdmin(ctx, s.DB, superID, "boss"); err != nil {
		t.Fatalf("seed super: %v", err)
	}
	if _, err := s.Grant(ctx, superID, 2, "u", "f", false); err != nil {
		t.Fatalf("grant: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 admins, got %d: %+v", len(list), list)
	}
}
