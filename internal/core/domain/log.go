package domain

import "time"

// LogKind separates customer activity from operator activity.
type LogKind string

const (
	LogUser       LogKind = "user"
	LogManagement LogKind = "management"
)

// Audit actions.
const (
	ActionLogin         = "Login"
	ActionLogout        = "Logout"
	ActionPurchase      = "Purchase"
	ActionRecharge      = "Recharge"
	ActionCall          = "Call"
	ActionUserCreated   = "User Created"
	ActionUserUpdated   = "User Updated"
	ActionUserDeleted   = "User Deleted"
	ActionZoneCreated   = "Zone Created"
	ActionZoneUpdated   = "Zone Updated"
	ActionZoneDeleted   = "Zone Deleted"
	ActionMachineAdded  = "Computer Added"
	ActionMachineEdited = "Computer Updated"
	ActionMachineRemove = "Computer Removed"
	ActionMachineStatus = "Computer Status"
	ActionCommodity     = "Commodity Changed"
	ActionOrderHandled  = "Order Handled"
	ActionAdminLogin    = "Admin Login"
)

// LogEntry is one audit record.
type LogEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      LogKind   `json:"kind"`
	ActorID   string    `json:"actorId"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}
