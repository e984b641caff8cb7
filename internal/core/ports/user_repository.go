package ports

import (
	"context"
	"time"

	"github.com/netbar/billing-system/internal/core/domain"
)

// UserFilter carries the query parameters for listing users.
type UserFilter struct {
	Name     string // optional: partial match on name, identity card or phone
	Status   string // optional
	PageNum  int    // 1-based
	PageSize int
}

// UserRepository defines persistence operations for customer accounts.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByIdentityCard(ctx context.Context, identityCard string) (*domain.User, error)
	// Update persists profile fields (name, identity card, phone, password).
	Update(ctx context.Context, u *domain.User) error
	// SetStatus moves a user from one status to another. ErrUserOnline when
	// the stored status is no longer from.
	SetStatus(ctx context.Context, id int64, from, to domain.UserStatus) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter UserFilter) ([]*domain.User, int64, error)
	Stats(ctx context.Context) (*domain.UserStats, error)
	ListOnline(ctx context.Context) ([]*domain.User, error)

	// AdjustBalance adds delta to the balance. A negative delta only applies
	// when the balance covers it, otherwise ErrInsufficientBalance.
	AdjustBalance(ctx context.Context, id int64, delta float64) (*domain.User, error)
	// StartSession moves an offline user online at machineID.
	StartSession(ctx context.Context, id, machineID int64, at time.Time) error
	// EndSession moves an online user offline and debits charge.
	EndSession(ctx context.Context, id int64, charge float64, at time.Time) (*domain.User, error)
}
