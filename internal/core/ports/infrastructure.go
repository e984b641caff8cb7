package ports

import "context"

// IdempotencyStore guards against replayed mutating requests.
type IdempotencyStore interface {
	// Claim reserves key in scope. It returns false when the key was already claimed.
	Claim(ctx context.Context, scope, key string) (bool, error)
	// Release drops a claim so the request can be retried after a failure.
	Release(ctx context.Context, scope, key string) error
}

// Event subjects published by the services.
const (
	SubjectOrderCreated   = "netbar.order.created"
	SubjectOrderCompleted = "netbar.order.completed"
	SubjectOrderCancelled = "netbar.order.cancelled"
	SubjectMessageCreated = "netbar.message.created"
	SubjectMachineStatus  = "netbar.machine.status"
	SubjectSessionEnded   = "netbar.session.ended"
)

// EventPublisher fans domain events out to other systems (front desk
// displays, kitchen printers). Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close() error
}

// AuditRecorder appends to the audit trail. Implementations never fail the caller.
type AuditRecorder interface {
	UserEvent(ctx context.Context, userID int64, action, details string)
	ManagementEvent(ctx context.Context, actor, action, details string)
}
