package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

const defaultCallContent = "call for staff"

type MessageService struct {
	messages ports.MessageRepository
	users    ports.UserRepository
	machines ports.MachineRepository
	events   ports.EventPublisher
	audit    ports.AuditRecorder
	logger   zerolog.Logger
}

func NewMessageService(
	messages ports.MessageRepository,
	users ports.UserRepository,
	machines ports.MachineRepository,
	events ports.EventPublisher,
	audit ports.AuditRecorder,
	logger zerolog.Logger,
) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		machines: machines,
		events:   events,
		audit:    audit,
		logger:   logger,
	}
}

// Call raises a staff call from a user seated at machineID. A machine holds
// at most one pending call.
func (s *MessageService) Call(ctx context.Context, userID, machineID int64, content string) (*domain.Message, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != domain.UserOnline || user.MachineID == nil || *user.MachineID != machineID {
		return nil, fmt.Errorf("%w: not seated at machine #%d", domain.ErrUserOffline, machineID)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		content = defaultCallContent
	}

	msg, err := s.raise(ctx, &userID, machineID, content)
	if err != nil {
		return nil, err
	}

	s.audit.UserEvent(ctx, userID, domain.ActionCall, fmt.Sprintf("called staff to machine #%d", machineID))
	return msg, nil
}

// Notify raises a system notice (no user) for a machine.
func (s *MessageService) Notify(ctx context.Context, machineID int64, content string) (*domain.Message, error) {
	return s.raise(ctx, nil, machineID, content)
}

func (s *MessageService) raise(ctx context.Context, userID *int64, machineID int64, content string) (*domain.Message, error) {
	if _, err := s.machines.FindByID(ctx, machineID); err != nil {
		return nil, err
	}

	if _, err := s.messages.FindPendingByMachine(ctx, machineID); err == nil {
		return nil, domain.ErrPendingCallExists
	} else if !errors.Is(err, domain.ErrMessageNotFound) {
		return nil, err
	}

	msg := &domain.Message{
		Content:   content,
		Time:      time.Now().UTC(),
		UserID:    userID,
		MachineID: machineID,
		Status:    domain.MessagePending,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	publish(ctx, s.events, s.logger, ports.SubjectMessageCreated, msg)
	return msg, nil
}

func (s *MessageService) Pending(ctx context.Context) ([]*domain.Message, error) {
	return s.messages.ListPending(ctx)
}

func (s *MessageService) Handle(ctx context.Context, id int64) (*domain.Message, error) {
	return s.transition(ctx, id, domain.MessageHandled)
}

func (s *MessageService) Cancel(ctx context.Context, id int64) (*domain.Message, error) {
	return s.transition(ctx, id, domain.MessageCancelled)
}

func (s *MessageService) transition(ctx context.Context, id int64, to domain.MessageStatus) (*domain.Message, error) {
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !msg.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("message %d: %w (from %s to %s)", id, domain.ErrInvalidTransition, msg.Status, to)
	}
	if err := s.messages.UpdateStatus(ctx, id, msg.Status, to); err != nil {
		return nil, err
	}
	msg.Status = to
	return msg, nil
}
