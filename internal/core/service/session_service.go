package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/netbar/billing-system/internal/api/metrics"
	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

// SessionService opens and closes seat sessions and bills seat time.
type SessionService struct {
	users    ports.UserRepository
	machines ports.MachineRepository
	zones    ports.ZoneRepository
	events   ports.EventPublisher
	audit    ports.AuditRecorder
	logger   zerolog.Logger
	now      func() time.Time
}

func NewSessionService(
	users ports.UserRepository,
	machines ports.MachineRepository,
	zones ports.ZoneRepository,
	events ports.EventPublisher,
	audit ports.AuditRecorder,
	logger zerolog.Logger,
) *SessionService {
	return &SessionService{
		users:    users,
		machines: machines,
		zones:    zones,
		events:   events,
		audit:    audit,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start seats an offline, funded user at an idle machine.
func (s *SessionService) Start(ctx context.Context, userID, machineID int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch {
	case user.Status == domain.UserBanned:
		return nil, domain.ErrUserBanned
	case user.Status == domain.UserOnline:
		return nil, domain.ErrUserOnline
	case user.Balance <= 0:
		return nil, domain.ErrInsufficientBalance
	}

	machine, err := s.machines.FindByID(ctx, machineID)
	if err != nil {
		return nil, err
	}
	if machine.Status != domain.MachineIdle {
		return nil, domain.ErrMachineBusy
	}

	if err := s.machines.Occupy(ctx, machineID, userID); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.StartSession(ctx, userID, machineID, now); err != nil {
		cctx, cancel := detached(ctx)
		defer cancel()
		if relErr := s.machines.Release(cctx, machineID); relErr != nil {
			s.logger.Error().Err(relErr).Int64("machine_id", machineID).Msg("failed to release machine after aborted start")
		}
		return nil, fmt.Errorf("start session: %w", err)
	}

	metrics.SessionsStartedTotal.Inc()
	s.logger.Info().Int64("user_id", userID).Int64("machine_id", machineID).Msg("session started")
	s.audit.UserEvent(ctx, userID, domain.ActionLogin, fmt.Sprintf("started session on machine %s", machine.Name))

	user.Status = domain.UserOnline
	user.MachineID = &machineID
	user.LastOnComputerTime = &now
	return user, nil
}

// Stop ends the user's session, bills every started minute at the zone rate
// (capped at the balance) and frees the machine.
func (s *SessionService) Stop(ctx context.Context, userID int64) (*ports.SessionResult, error) {
	return s.stop(ctx, userID, "user")
}

// StopExhausted is Stop invoked by the billing sweeper.
func (s *SessionService) StopExhausted(ctx context.Context, userID int64) (*ports.SessionResult, error) {
	return s.stop(ctx, userID, "balance")
}

func (s *SessionService) stop(ctx context.Context, userID int64, reason string) (*ports.SessionResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != domain.UserOnline || user.MachineID == nil {
		return nil, domain.ErrUserOffline
	}
	machineID := *user.MachineID

	started := s.now()
	if user.LastOnComputerTime != nil {
		started = *user.LastOnComputerTime
	}
	now := s.now()

	price, err := s.priceFor(ctx, machineID, nil)
	if err != nil {
		return nil, err
	}
	charge := math.Min(domain.SessionCharge(started, now, price), domain.RoundMoney(user.Balance))
	if charge < 0 {
		charge = 0
	}

	updated, err := s.users.EndSession(ctx, userID, charge, now)
	if err != nil {
		return nil, fmt.Errorf("stop session: %w", err)
	}
	// The user is already offline; the seat must follow.
	cctx, cancel := detached(ctx)
	defer cancel()
	if err := s.machines.Release(cctx, machineID); err != nil && !errors.Is(err, domain.ErrMachineNotFound) {
		s.logger.Error().Err(err).Int64("machine_id", machineID).Msg("failed to release machine")
	}

	metrics.SessionsEndedTotal.WithLabelValues(reason).Inc()
	metrics.SessionChargeTotal.Add(charge)
	s.logger.Info().
		Int64("user_id", userID).
		Int64("machine_id", machineID).
		Float64("charge", charge).
		Str("reason", reason).
		Msg("session ended")
	s.audit.UserEvent(ctx, userID, domain.ActionLogout,
		fmt.Sprintf("ended session on machine #%d after %s, charged ¥%.2f", machineID, now.Sub(started).Round(time.Minute), charge))

	result := &ports.SessionResult{
		User:      updated,
		MachineID: machineID,
		StartedAt: started,
		EndedAt:   now,
		Charge:    charge,
	}
	publish(ctx, s.events, s.logger, ports.SubjectSessionEnded, map[string]any{
		"userId":    userID,
		"machineId": machineID,
		"charge":    charge,
		"reason":    reason,
	})
	return result, nil
}

// Exhausted lists online users whose accrued charge at now covers their balance.
func (s *SessionService) Exhausted(ctx context.Context, now time.Time) ([]int64, error) {
	online, err := s.users.ListOnline(ctx)
	if err != nil {
		return nil, err
	}
	metrics.ActiveSessions.Set(float64(len(online)))

	prices := make(map[int64]float64)
	var out []int64
	for _, u := range online {
		if u.MachineID == nil || u.LastOnComputerTime == nil {
			continue
		}
		price, err := s.priceFor(ctx, *u.MachineID, prices)
		if err != nil {
			s.logger.Warn().Err(err).Int64("user_id", u.ID).Msg("cannot price session")
			continue
		}
		if domain.SessionCharge(*u.LastOnComputerTime, now, price) >= u.Balance {
			out = append(out, u.ID)
		}
	}
	return out, nil
}

// priceFor resolves the hourly rate of a machine's zone, memoising in cache when given.
func (s *SessionService) priceFor(ctx context.Context, machineID int64, cache map[int64]float64) (float64, error) {
	if p, ok := cache[machineID]; ok {
		return p, nil
	}
	m, err := s.machines.FindByID(ctx, machineID)
	if err != nil {
		return 0, err
	}
	z, err := s.zones.FindByID(ctx, m.ZoneID)
	if err != nil {
		return 0, err
	}
	if cache != nil {
		cache[machineID] = z.PricePerHour
	}
	return z.PricePerHour, nil
}
