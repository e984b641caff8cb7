package ports

import (
	"context"

	"github.com/netbar/billing-system/internal/core/domain"
)

// Claims is the verified identity carried by a bearer token.
type Claims struct {
	Subject  string
	Role     string
	TokenID  string
	ActorID  int64
	Username string
}

type AuthService interface {
	AdminLogin(ctx context.Context, username, password string) (string, *domain.Admin, error)
	RegisterAdmin(ctx context.Context, username, password, role string) (*domain.Admin, error)
	UserLogin(ctx context.Context, identityCard, password string) (string, *domain.User, error)
	Logout(ctx context.Context, tokenID string) error
}
