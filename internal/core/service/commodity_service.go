package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

type CommodityService struct {
	repo  ports.CommodityRepository
	audit ports.AuditRecorder
}

func NewCommodityService(repo ports.CommodityRepository, audit ports.AuditRecorder) *CommodityService {
	return &CommodityService{repo: repo, audit: audit}
}

func (s *CommodityService) Create(ctx context.Context, in ports.CommodityInput) (*domain.Commodity, error) {
	if err := validateCommodity(&in); err != nil {
		return nil, err
	}

	c := &domain.Commodity{Name: in.Name, Price: in.Price, Unit: in.Unit, Stock: in.Stock}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), domain.ActionCommodity,
		fmt.Sprintf("created commodity #%d: %s", c.ID, c.Name))
	return c, nil
}

func (s *CommodityService) Get(ctx context.Context, id int64) (*domain.Commodity, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *CommodityService) Update(ctx context.Context, id int64, in ports.CommodityInput) (*domain.Commodity, error) {
	if err := validateCommodity(&in); err != nil {
		return nil, err
	}

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name, c.Price, c.Unit, c.Stock = in.Name, in.Price, in.Unit, in.Stock
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), domain.ActionCommodity,
		fmt.Sprintf("updated commodity #%d: %s", c.ID, c.Name))
	return c, nil
}

func (s *CommodityService) Delete(ctx context.Context, id int64) error {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), domain.ActionCommodity,
		fmt.Sprintf("deleted commodity #%d: %s", c.ID, c.Name))
	return nil
}

func (s *CommodityService) List(ctx context.Context, name string) ([]*domain.Commodity, error) {
	return s.repo.List(ctx, strings.TrimSpace(name))
}

func validateCommodity(in *ports.CommodityInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Price = domain.RoundMoney(in.Price)
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: commodity name is required", domain.ErrInvalidInput)
	case in.Price <= 0:
		return fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput)
	case in.Unit == "":
		return fmt.Errorf("%w: unit is required", domain.ErrInvalidInput)
	case in.Stock < 0:
		return fmt.Errorf("%w: stock cannot be negative", domain.ErrInvalidInput)
	}
	return nil
}
