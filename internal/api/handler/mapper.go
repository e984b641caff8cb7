package handler

import (
	"math"
	"time"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

// --- Request → Service input ---

func toCreateUserInput(req createUserRequest) ports.CreateUserInput {
	return ports.CreateUserInput{
		Name:         req.Name,
		IdentityCard: req.IdentityCard,
		PhoneNumber:  req.PhoneNumber,
		Password:     req.Password,
		Balance:      req.Balance,
	}
}

func toUpdateUserInput(req updateUserRequest) ports.UpdateUserInput {
	in := ports.UpdateUserInput{
		Name:         req.Name,
		IdentityCard: req.IdentityCard,
		PhoneNumber:  req.PhoneNumber,
		Password:     req.Password,
	}
	if req.Status != nil {
		st := domain.UserStatus(*req.Status)
		in.Status = &st
	}
	return in
}

func toZoneInput(req zoneRequest) ports.ZoneInput {
	return ports.ZoneInput{
		Name:         req.Name,
		Capacity:     req.Capacity,
		PricePerHour: req.PricePerHour,
		Description:  req.Description,
	}
}

func toMachineInput(req machineRequest) ports.MachineInput {
	return ports.MachineInput{
		Name:      req.Name,
		ZoneID:    req.ZoneID,
		IPAddress: req.IPAddress,
	}
}

func toCommodityInput(req commodityRequest) ports.CommodityInput {
	return ports.CommodityInput{
		Name:  req.Name,
		Price: req.Price,
		Unit:  req.Unit,
		Stock: req.Stock,
	}
}

func toCreateOrderInput(req createOrderRequest, key string) ports.CreateOrderInput {
	lines := make([]ports.OrderLineInput, 0, len(req.Commodities))
	for _, l := range req.Commodities {
		lines = append(lines, ports.OrderLineInput{CommodityID: l.CommodityID, Quantity: l.Quantity})
	}
	return ports.CreateOrderInput{
		UserID:         req.UserID,
		MachineID:      req.MachineID,
		Lines:          lines,
		IdempotencyKey: key,
	}
}

// --- Service output → Response ---

func toSessionResponse(r *ports.SessionResult) sessionResponse {
	return sessionResponse{
		User:      r.User,
		MachineID: r.MachineID,
		StartedAt: r.StartedAt.UTC().Format(time.RFC3339),
		EndedAt:   r.EndedAt.UTC().Format(time.RFC3339),
		Minutes:   int64(math.Ceil(r.EndedAt.Sub(r.StartedAt).Minutes())),
		Charge:    r.Charge,
	}
}
