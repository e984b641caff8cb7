package ports

import (
	"context"
	"time"

	"github.com/netbar/billing-system/internal/core/domain"
)

// OrderFilter carries all query parameters for searching orders.
type OrderFilter struct {
	Status    string    // optional
	UserID    int64     // optional
	MachineID int64     // optional
	DateFrom  time.Time // optional: order_date >= DateFrom
	DateTo    time.Time // optional: order_date <= DateTo
	PageNum   int       // 1-based
	PageSize  int
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	Search(ctx context.Context, filter OrderFilter) ([]*domain.Order, int64, error)
	CountByStatus(ctx context.Context, status domain.OrderStatus) (int64, error)
	// UpdateStatus moves an order from one status to another, else ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus, at time.Time) error
	SalesReport(ctx context.Context, from, to time.Time, top int) (*domain.SalesReport, error)
}

// MessageRepository defines persistence operations for staff calls.
type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	FindByID(ctx context.Context, id int64) (*domain.Message, error)
	ListPending(ctx context.Context) ([]*domain.Message, error)
	FindPendingByMachine(ctx context.Context, machineID int64) (*domain.Message, error)
	// UpdateStatus moves a message from one status to another, else ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id int64, from, to domain.MessageStatus) error
}

// LogFilter narrows audit log listings.
type LogFilter struct {
	Kind     domain.LogKind
	ActorID  string
	Action   string
	Keyword  string // optional: partial match on details
	PageNum  int
	PageSize int
}

// LogRepository persists the audit trail.
type LogRepository interface {
	Insert(ctx context.Context, entry *domain.LogEntry) error
	List(ctx context.Context, filter LogFilter) ([]*domain.LogEntry, int64, error)
}
