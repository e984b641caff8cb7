package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

type ZoneService struct {
	zones    ports.ZoneRepository
	machines ports.MachineRepository
	audit    ports.AuditRecorder
	logger   zerolog.Logger
}

func NewZoneService(zones ports.ZoneRepository, machines ports.MachineRepository, audit ports.AuditRecorder, logger zerolog.Logger) *ZoneService {
	return &ZoneService{zones: zones, machines: machines, audit: audit, logger: logger}
}

func (s *ZoneService) Create(ctx context.Context, in ports.ZoneInput) (*domain.Zone, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateZone(in); err != nil {
		return nil, err
	}

	if _, err := s.zones.FindByName(ctx, in.Name); err == nil {
		return nil, domain.ErrZoneExists
	} else if !errors.Is(err, domain.ErrZoneNotFound) {
		return nil, err
	}

	zone := &domain.Zone{
		Name:         in.Name,
		Capacity:     in.Capacity,
		PricePerHour: domain.RoundMoney(in.PricePerHour),
		Description:  in.Description,
	}
	if err := s.zones.Create(ctx, zone); err != nil {
		return nil, err
	}

	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), domain.ActionZoneCreated,
		fmt.Sprintf("created zone #%d: %s", zone.ID, zone.Name))
	return zone, nil
}

func (s *ZoneService) Get(ctx context.Context, id int64) (*domain.Zone, error) {
	return s.zones.FindByID(ctx, id)
}

func (s *ZoneService) Update(ctx context.Context, id int64, in ports.ZoneInput) (*domain.Zone, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateZone(in); err != nil {
		return nil, err
	}

	zone, err := s.zones.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != zone.Name {
		other, err := s.zones.FindByName(ctx, in.Name)
		switch {
		case err == nil && other.ID != id:
			return nil, domain.ErrZoneExists
		case err != nil && !errors.Is(err, domain.ErrZoneNotFound):
			return nil, err
		}
	}

	if in.Capacity > 0 {
		n, err := s.machines.CountByZone(ctx, id)
		if err != nil {
			return nil, err
		}
		if int64(in.Capacity) < n {
			return nil, fmt.Errorf("%w: zone holds %d machines", domain.ErrZoneFull, n)
		}
	}

	zone.Name = in.Name
	zone.Capacity = in.Capacity
	zone.PricePerHour = domain.RoundMoney(in.PricePerHour)
	zone.Description = in.Description
	if err := s.zones.Update(ctx, zone); err != nil {
		return nil, err
	}

	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), domain.ActionZoneUpdated,
		fmt.Sprintf("updated zone #%d: %s", zone.ID, zone.Name))
	return zone, nil
}

func (s *ZoneService) Delete(ctx context.Context, id int64) error {
	zone, err := s.zones.FindByID(ctx, id)
	if err != nil {
		return err
	}

	n, err := s.machines.CountByZone(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrZoneNotEmpty
	}

	if err := s.zones.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), domain.ActionZoneDeleted,
		fmt.Sprintf("deleted zone #%d: %s", zone.ID, zone.Name))
	return nil
}

func (s *ZoneService) List(ctx context.Context) ([]*domain.Zone, error) {
	return s.zones.List(ctx)
}

func (s *ZoneService) NameExists(ctx context.Context, name string) (bool, error) {
	_, err := s.zones.FindByName(ctx, strings.TrimSpace(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrZoneNotFound) {
		return false, nil
	}
	return false, err
}

func validateZone(in ports.ZoneInput) error {
	if in.Name == "" {
		return fmt.Errorf("%w: zone name is required", domain.ErrInvalidInput)
	}
	if in.Capacity < 0 {
		return fmt.Errorf("%w: capacity cannot be negative", domain.ErrInvalidInput)
	}
	if in.PricePerHour <= 0 {
		return fmt.Errorf("%w: price per hour must be positive", domain.ErrInvalidInput)
	}
	return nil
}
