package ports

import (
	"context"
	"time"

	"github.com/netbar/billing-system/internal/core/domain"
)

// --- Users ---

// CreateUserInput carries the fields needed to open a customer account.
type CreateUserInput struct {
	Name         string
	IdentityCard string
	PhoneNumber  string
	Password     string
	Balance      float64
}

// UpdateUserInput carries editable profile fields. Nil pointers are left unchanged.
type UpdateUserInput struct {
	Name         *string
	IdentityCard *string
	PhoneNumber  *string
	Password     *string
	Status       *domain.UserStatus
}

// RechargeInput tops up a prepaid balance.
type RechargeInput struct {
	UserID         int64
	Amount         float64
	IdempotencyKey string
}

type UserService interface {
	Create(ctx context.Context, in CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, id int64, in UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter UserFilter) (*domain.Page[*domain.User], error)
	IdentityCardExists(ctx context.Context, identityCard string) (bool, error)
	Stats(ctx context.Context) (*domain.UserStats, error)
	Recharge(ctx context.Context, in RechargeInput) (*domain.User, error)
}

// --- Sessions ---

// SessionResult describes a finished seat session.
type SessionResult struct {
	User      *domain.User
	MachineID int64
	StartedAt time.Time
	EndedAt   time.Time
	Charge    float64
}

type SessionService interface {
	Start(ctx context.Context, userID, machineID int64) (*domain.User, error)
	Stop(ctx context.Context, userID int64) (*SessionResult, error)
	// Exhausted returns the ids of online users whose accrued charge has
	// reached their balance at instant now.
	Exhausted(ctx context.Context, now time.Time) ([]int64, error)
}

// --- Zones & machines ---

// ZoneInput carries the editable fields of a zone.
type ZoneInput struct {
	Name         string
	Capacity     int
	PricePerHour float64
	Description  string
}

type ZoneService interface {
	Create(ctx context.Context, in ZoneInput) (*domain.Zone, error)
	Get(ctx context.Context, id int64) (*domain.Zone, error)
	Update(ctx context.Context, id int64, in ZoneInput) (*domain.Zone, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Zone, error)
	NameExists(ctx context.Context, name string) (bool, error)
}

// MachineInput carries the editable fields of a machine.
type MachineInput struct {
	Name      string
	ZoneID    int64
	IPAddress string
}

// MachineView is a machine enriched with its zone for display.
type MachineView struct {
	*domain.Machine
	ZoneName     string  `json:"zoneName"`
	PricePerHour float64 `json:"pricePerHour"`
}

type MachineService interface {
	Create(ctx context.Context, in MachineInput) (*domain.Machine, error)
	Get(ctx context.Context, id int64) (*MachineView, error)
	Update(ctx context.Context, id int64, in MachineInput) (*domain.Machine, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter MachineFilter) ([]*MachineView, error)
	UpdateStatus(ctx context.Context, id int64, status domain.MachineStatus) (*domain.Machine, error)
	Stats(ctx context.Context) (*domain.MachineStats, error)
}

// --- Commodities ---

// CommodityInput carries the editable fields of a commodity.
type CommodityInput struct {
	Name  string
	Price float64
	Unit  string
	Stock int
}

type CommodityService interface {
	Create(ctx context.Context, in CommodityInput) (*domain.Commodity, error)
	Get(ctx context.Context, id int64) (*domain.Commodity, error)
	Update(ctx context.Context, id int64, in CommodityInput) (*domain.Commodity, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, name string) ([]*domain.Commodity, error)
}

// --- Orders ---

// OrderLineInput is a requested commodity and quantity. Prices come from the catalog.
type OrderLineInput struct {
	CommodityID int64
	Quantity    int
}

// CreateOrderInput carries all data needed to place an order.
type CreateOrderInput struct {
	UserID         int64
	MachineID      int64
	Lines          []OrderLineInput
	IdempotencyKey string
}

type OrderService interface {
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
	Search(ctx context.Context, filter OrderFilter) (*domain.Page[*domain.Order], error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error)
	PendingCount(ctx context.Context) (int64, error)
	SalesReport(ctx context.Context, from, to time.Time) (*domain.SalesReport, error)
}

// --- Messages ---

type MessageService interface {
	Call(ctx context.Context, userID, machineID int64, content string) (*domain.Message, error)
	Notify(ctx context.Context, machineID int64, content string) (*domain.Message, error)
	Pending(ctx context.Context) ([]*domain.Message, error)
	Handle(ctx context.Context, id int64) (*domain.Message, error)
	Cancel(ctx context.Context, id int64) (*domain.Message, error)
}

// --- Logs ---

type LogService interface {
	List(ctx context.Context, filter LogFilter) (*domain.Page[*domain.LogEntry], error)
}
