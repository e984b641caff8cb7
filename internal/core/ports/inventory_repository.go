package ports

import (
	"context"

	"github.com/netbar/billing-system/internal/core/domain"
)

// ZoneRepository defines persistence operations for zones.
type ZoneRepository interface {
	Create(ctx context.Context, z *domain.Zone) error
	FindByID(ctx context.Context, id int64) (*domain.Zone, error)
	FindByName(ctx context.Context, name string) (*domain.Zone, error)
	Update(ctx context.Context, z *domain.Zone) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Zone, error)
}

// MachineFilter narrows machine listings.
type MachineFilter struct {
	ZoneID int64
	Status string
}

// MachineRepository defines persistence operations for workstations.
type MachineRepository interface {
	Create(ctx context.Context, m *domain.Machine) error
	FindByID(ctx context.Context, id int64) (*domain.Machine, error)
	FindByName(ctx context.Context, name string) (*domain.Machine, error)
	// Update persists descriptive fields (name, zone, ip address).
	Update(ctx context.Context, m *domain.Machine) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter MachineFilter) ([]*domain.Machine, error)
	CountByZone(ctx context.Context, zoneID int64) (int64, error)
	Stats(ctx context.Context) (*domain.MachineStats, error)

	// Occupy marks an idle machine as used by userID, else ErrMachineBusy.
	Occupy(ctx context.Context, id, userID int64) error
	// Release returns an occupied machine to idle.
	Release(ctx context.Context, id int64) error
	// SetStatus changes the status when the current one is in from, else ErrMachineBusy.
	SetStatus(ctx context.Context, id int64, status domain.MachineStatus, from ...domain.MachineStatus) error
}

// CommodityRepository defines persistence operations for the sales catalog.
type CommodityRepository interface {
	Create(ctx context.Context, c *domain.Commodity) error
	FindByID(ctx context.Context, id int64) (*domain.Commodity, error)
	Update(ctx context.Context, c *domain.Commodity) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, name string) ([]*domain.Commodity, error)
	// AdjustStock adds delta to stock. A negative delta only applies when
	// enough stock is left, otherwise ErrInsufficientStock.
	AdjustStock(ctx context.Context, id int64, delta int) error
}
