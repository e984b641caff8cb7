package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateRequest   = errors.New("duplicate request")

	ErrAdminNotFound = errors.New("admin not found")
	ErrAdminExists   = errors.New("admin already exists")

	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("identity card already registered")
	ErrUserBanned          = errors.New("user is banned")
	ErrUserOnline          = errors.New("user is online")
	ErrUserOffline         = errors.New("user is not online")
	ErrInsufficientBalance = errors.New("insufficient balance")

	ErrZoneNotFound = errors.New("zone not found")
	ErrZoneExists   = errors.New("zone already exists")
	ErrZoneNotEmpty = errors.New("zone still has machines")
	ErrZoneFull     = errors.New("zone is at capacity")

	ErrMachineNotFound = errors.New("machine not found")
	ErrMachineExists   = errors.New("machine already exists")
	ErrMachineBusy     = errors.New("machine is not available")

	ErrCommodityNotFound = errors.New("commodity not found")
	ErrInsufficientStock = errors.New("insufficient stock")

	ErrOrderNotFound     = errors.New("order not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrPendingCallExists = errors.New("machine already has a pending call")

	ErrInvalidTransition = errors.New("invalid status transition")
)
