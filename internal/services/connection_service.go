package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/repo"
)

// ConnectionService maintains the business-connection registry that maps
// a platform connection id to its owning user.
type ConnectionService struct {
	DB *gorm.DB
}

// Upsert records a connection event. Reconnects and enable/disable flips
// for a known id overwrite the stored row.
func (s *ConnectionService) Upsert(ctx context.Context, conn *domain.BusinessConnection) error {
	return repo.UpsertBusinessConnection(ctx, s.DB, conn)
}

// Resolve returns the connection for an id, or ErrConnectionNotFound.
func (s *ConnectionService) Resolve(ctx context.Context, connectionID string) (*domain.BusinessConnection, error) {
	c, err := repo.GetBusinessConnection(ctx, s.DB, connectionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConnectionNotFound
	}
	return c, err
}
