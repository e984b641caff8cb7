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

type MachineService struct {
	machines ports.MachineRepository
	zones    ports.ZoneRepository
	messages ports.MessageService
	events   ports.EventPublisher
	audit    ports.AuditRecorder
	logger   zerolog.Logger
}

func NewMachineService(
	machines ports.MachineRepository,
	zones ports.ZoneRepository,
	messages ports.MessageService,
	events ports.EventPublisher,
	audit ports.AuditRecorder,
	logger zerolog.Logger,
) *MachineService {
	return &MachineService{
		machines: machines,
		zones:    zones,
		messages: messages,
		events:   events,
		audit:    audit,
		logger:   logger,
	}
}

func (s *MachineService) Create(ctx context.Context, in ports.MachineInput) (*domain.Machine, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: machine name is required", domain.ErrInvalidInput)
	}
	if err := s.checkName(ctx, in.Name, 0); err != nil {
		return nil, err
	}
	if err := s.checkCapacity(ctx, in.ZoneID); err != nil {
		return nil, err
	}

	m := &domain.Machine{
		Name:      in.Name,
		ZoneID:    in.ZoneID,
		IPAddress: in.IPAddress,
		Status:    domain.MachineIdle,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.machines.Create(ctx, m); err != nil {
		return nil, err
	}

	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), domain.ActionMachineAdded,
		fmt.Sprintf("added machine #%d: %s", m.ID, m.Name))
	return m, nil
}

func (s *MachineService) Get(ctx context.Context, id int64) (*ports.MachineView, error) {
	m, err := s.machines.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &ports.MachineView{Machine: m}
	zone, err := s.zones.FindByID(ctx, m.ZoneID)
	switch {
	case err == nil:
		view.ZoneName = zone.Name
		view.PricePerHour = zone.PricePerHour
	case !errors.Is(err, domain.ErrZoneNotFound):
		return nil, err
	}
	return view, nil
}

func (s *MachineService) Update(ctx context.Context, id int64, in ports.MachineInput) (*domain.Machine, error) {
	m, err := s.machines.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: machine name is required", domain.ErrInvalidInput)
	}
	if in.Name != m.Name {
		if err := s.checkName(ctx, in.Name, id); err != nil {
			return nil, err
		}
	}
	if in.ZoneID != m.ZoneID {
		if m.Status == domain.MachineOccupied {
			return nil, domain.ErrMachineBusy
		}
		if err := s.checkCapacity(ctx, in.ZoneID); err != nil {
			return nil, err
		}
	}

	m.Name = in.Name
	m.ZoneID = in.ZoneID
	m.IPAddress = in.IPAddress
	if err := s.machines.Update(ctx, m); err != nil {
		return nil, err
	}

	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), domain.ActionMachineEdited,
		fmt.Sprintf("updated machine #%d: %s", m.ID, m.Name))
	return m, nil
}

func (s *MachineService) Delete(ctx context.Context, id int64) error {
	m, err := s.machines.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if m.Status == domain.MachineOccupied {
		return domain.ErrMachineBusy
	}
	if err := s.machines.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), domain.ActionMachineRemove,
		fmt.Sprintf("removed machine #%d: %s", m.ID, m.Name))
	return nil
}

func (s *MachineService) List(ctx context.Context, filter ports.MachineFilter) ([]*ports.MachineView, error) {
	machines, err := s.machines.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	zones, err := s.zones.List(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.Zone, len(zones))
	for _, z := range zones {
		byID[z.ID] = z
	}

	views := make([]*ports.MachineView, 0, len(machines))
	for _, m := range machines {
		v := &ports.MachineView{Machine: m}
		if z, ok := byID[m.ZoneID]; ok {
			v.ZoneName = z.Name
			v.PricePerHour = z.PricePerHour
		}
		views = append(views, v)
	}
	return views, nil
}

// UpdateStatus locks (Abnormal) or unlocks (Idle) a machine. Occupied is
// owned by the session service and cannot be set or overridden here.
func (s *MachineService) UpdateStatus(ctx context.Context, id int64, status domain.MachineStatus) (*domain.Machine, error) {
	var err error
	switch status {
	case domain.MachineAbnormal:
		err = s.machines.SetStatus(ctx, id, status, domain.MachineIdle, domain.MachineAbnormal)
	case domain.MachineIdle:
		err = s.machines.SetStatus(ctx, id, status, domain.MachineAbnormal, domain.MachineIdle)
	default:
		return nil, fmt.Errorf("%w: status %q cannot be set directly", domain.ErrInvalidInput, status)
	}
	if err != nil {
		return nil, err
	}

	m, err := s.machines.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if status == domain.MachineAbnormal && s.messages != nil {
		if _, err := s.messages.Notify(ctx, id, fmt.Sprintf("machine %s marked abnormal", m.Name)); err != nil &&
			!errors.Is(err, domain.ErrPendingCallExists) {
			s.logger.Warn().Err(err).Int64("machine_id", id).Msg("failed to raise abnormal notice")
		}
	}

	publish(ctx, s.events, s.logger, ports.SubjectMachineStatus, map[string]any{
		"machineId": id,
		"status":    status,
	})
	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), domain.ActionMachineStatus,
		fmt.Sprintf("machine #%d set to %s", id, status))
	return m, nil
}

func (s *MachineService) Stats(ctx context.Context) (*domain.MachineStats, error) {
	return s.machines.Stats(ctx)
}

func (s *MachineService) checkName(ctx context.Context, name string, self int64) error {
	other, err := s.machines.FindByName(ctx, name)
	switch {
	case err == nil && other.ID != self:
		return domain.ErrMachineExists
	case err != nil && !errors.Is(err, domain.ErrMachineNotFound):
		return err
	}
	return nil
}

// checkCapacity verifies the zone exists and has room for one more machine.
// A zero capacity means unbounded.
func (s *MachineService) checkCapacity(ctx context.Context, zoneID int64) error {
	zone, err := s.zones.FindByID(ctx, zoneID)
	if err != nil {
		return err
	}
	if zone.Capacity == 0 {
		return nil
	}
	n, err := s.machines.CountByZone(ctx, zoneID)
	if err != nil {
		return err
	}
	if n >= int64(zone.Capacity) {
		return domain.ErrZoneFull
	}
	return nil
}
