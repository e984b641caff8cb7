package domain

import "time"

// MachineStatus represents the availability of a workstation.
type MachineStatus string

const (
	MachineIdle     MachineStatus = "Idle"
	MachineOccupied MachineStatus = "Occupied"
	MachineAbnormal MachineStatus = "Abnormal"
)

// Valid reports whether s is one of the known statuses.
func (s MachineStatus) Valid() bool {
	switch s {
	case MachineIdle, MachineOccupied, MachineAbnormal:
		return true
	}
	return false
}

// Machine is a billable workstation placed in a zone.
type Machine struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	ZoneID        int64         `json:"zoneId"`
	IPAddress     string        `json:"ipAddress,omitempty"`
	Status        MachineStatus `json:"status"`
	CurrentUserID *int64        `json:"currentUserId"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// MachineStats backs the dashboard machine counters.
type MachineStats struct {
	TotalMachines    int64 `json:"totalMachines"`
	OccupiedMachines int64 `json:"occupiedMachines"`
	IdleMachines     int64 `json:"idleMachines"`
	AbnormalMachines int64 `json:"abnormalMachines"`
}
