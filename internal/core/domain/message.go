package domain

import "time"

// MessageStatus represents the lifecycle of an admin call.
type MessageStatus string

const (
	MessagePending   MessageStatus = "Pending"
	MessageHandled   MessageStatus = "Handled"
	MessageCancelled MessageStatus = "Cancelled"
)

// CanTransitionTo reports whether a message may move from s to next.
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	return s == MessagePending && (next == MessageHandled || next == MessageCancelled)
}

// Message is a call for staff raised by a seated user, or a system notice
// when UserID is nil.
type Message struct {
	ID        int64         `json:"id"`
	Content   string        `json:"content"`
	Time      time.Time     `json:"time"`
	UserID    *int64        `json:"userId"`
	MachineID int64         `json:"machineId"`
	Status    MessageStatus `json:"status"`
}
