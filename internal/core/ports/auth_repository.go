package ports

import (
	"context"
	"time"

	"github.com/netbar/billing-system/internal/core/domain"
)

// AdminRepository defines persistence for operator accounts.
type AdminRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Admin, error)
	Create(ctx context.Context, admin *domain.Admin) (*domain.Admin, error)
}

// TokenRevoker tracks tokens invalidated before their natural expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
