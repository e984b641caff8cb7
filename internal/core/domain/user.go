package domain

import "time"

const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleUser       = "user"
)

// Admin is an operator account for the management console.
type Admin struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserStatus is the presence state of a customer account.
type UserStatus string

const (
	UserOnline  UserStatus = "Online"
	UserOffline UserStatus = "Offline"
	UserBanned  UserStatus = "Banned"
)

// Valid reports whether s is one of the known statuses.
func (s UserStatus) Valid() bool {
	switch s {
	case UserOnline, UserOffline, UserBanned:
		return true
	}
	return false
}

// User is a customer holding a prepaid balance.
type User struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	IdentityCard        string     `json:"identityCard"`
	PhoneNumber         string     `json:"phoneNumber"`
	PasswordHash        string     `json:"-"`
	Balance             float64    `json:"balance"`
	Status              UserStatus `json:"status"`
	MachineID           *int64     `json:"machineId"`
	LastOnComputerTime  *time.Time `json:"lastOnComputerTime"`
	LastOffComputerTime *time.Time `json:"lastOffComputerTime"`
	RegisterTime        time.Time  `json:"registerTime"`
}

// UserStats backs the dashboard user counters.
type UserStats struct {
	TotalUsers  int64 `json:"totalUsers"`
	OnlineUsers int64 `json:"onlineUsers"`
	BannedUsers int64 `json:"bannedUsers"`
}
