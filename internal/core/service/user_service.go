package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/netbar/billing-system/internal/api/metrics"
	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

// MaxRecharge bounds a single top-up.
const MaxRecharge = 10000

type UserService struct {
	repo   ports.UserRepository
	idem   ports.IdempotencyStore
	audit  ports.AuditRecorder
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, idem ports.IdempotencyStore, audit ports.AuditRecorder, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, idem: idem, audit: audit, logger: logger}
}

func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateName(in.Name); err != nil {
		return nil, err
	}
	if in.IdentityCard == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: identity card and password are required", domain.ErrInvalidInput)
	}
	if in.Balance < 0 {
		return nil, fmt.Errorf("%w: balance cannot be negative", domain.ErrInvalidInput)
	}

	if _, err := s.repo.FindByIdentityCard(ctx, in.IdentityCard); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         in.Name,
		IdentityCard: in.IdentityCard,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: string(hash),
		Balance:      domain.RoundMoney(in.Balance),
		Status:       domain.UserOffline,
		RegisterTime: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), domain.ActionUserCreated,
		fmt.Sprintf("created user #%d: %s", user.ID, user.Name))
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) Update(ctx context.Context, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		user.Name = name
	}
	if in.IdentityCard != nil && *in.IdentityCard != user.IdentityCard {
		other, err := s.repo.FindByIdentityCard(ctx, *in.IdentityCard)
		switch {
		case err == nil && other.ID != user.ID:
			return nil, domain.ErrUserExists
		case err != nil && !errors.Is(err, domain.ErrUserNotFound):
			return nil, err
		}
		user.IdentityCard = *in.IdentityCard
	}
	if in.PhoneNumber != nil {
		user.PhoneNumber = *in.PhoneNumber
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if in.Status != nil && *in.Status != user.Status {
		if err := checkStatusChange(user.Status, *in.Status); err != nil {
			return nil, err
		}
		if err := s.repo.SetStatus(ctx, id, user.Status, *in.Status); err != nil {
			return nil, err
		}
		user.Status = *in.Status
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	// Session fields may have moved since the first read.
	if fresh, err := s.repo.FindByID(ctx, id); err == nil {
		user = fresh
	}

	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), domain.ActionUserUpdated,
		fmt.Sprintf("updated user #%d: %s", user.ID, user.Name))
	return user, nil
}

// checkStatusChange allows operators to ban and unban offline users only.
// Online/Offline transitions belong to the session service.
func checkStatusChange(from, to domain.UserStatus) error {
	if !to.Valid() || to == domain.UserOnline {
		return fmt.Errorf("%w: status %q cannot be set directly", domain.ErrInvalidInput, to)
	}
	if from == domain.UserOnline {
		return domain.ErrUserOnline
	}
	return nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Status == domain.UserOnline {
		return domain.ErrUserOnline
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), domain.ActionUserDeleted,
		fmt.Sprintf("deleted user #%d: %s", user.ID, user.Name))
	return nil
}

func (s *UserService) List(ctx context.Context, filter ports.UserFilter) (*domain.Page[*domain.User], error) {
	filter.PageNum, filter.PageSize = domain.NormalizePage(filter.PageNum, filter.PageSize)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := domain.NewPage(items, total, filter.PageNum, filter.PageSize)
	return &page, nil
}

func (s *UserService) IdentityCardExists(ctx context.Context, identityCard string) (bool, error) {
	_, err := s.repo.FindByIdentityCard(ctx, identityCard)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	return false, err
}

func (s *UserService) Stats(ctx context.Context) (*domain.UserStats, error) {
	return s.repo.Stats(ctx)
}

// Recharge tops up a balance. A repeated idempotency key is rejected with
// ErrDuplicateRequest instead of crediting twice.
func (s *UserService) Recharge(ctx context.Context, in ports.RechargeInput) (*domain.User, error) {
	amount := domain.RoundMoney(in.Amount)
	if amount <= 0 || amount > MaxRecharge {
		return nil, fmt.Errorf("%w: amount must be in (0, %d]", domain.ErrInvalidInput, MaxRecharge)
	}

	user, err := s.repo.FindByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user.Status == domain.UserBanned {
		return nil, domain.ErrUserBanned
	}

	release, err := claim(ctx, s.idem, s.logger, "recharge", in.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.AdjustBalance(ctx, in.UserID, amount)
	if err != nil {
		release()
		return nil, fmt.Errorf("recharge: %w", err)
	}

	metrics.RechargesTotal.Inc()
	metrics.RechargeAmountTotal.Add(amount)
	s.logger.Info().Int64("user_id", in.UserID).Float64("amount", amount).Msg("balance recharged")

	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), domain.ActionRecharge,
		fmt.Sprintf("recharged user #%d: ¥%.2f", in.UserID, amount))
	s.audit.UserEvent(ctx, in.UserID, domain.ActionRecharge,
		fmt.Sprintf("balance recharged: ¥%.2f", amount))
	return updated, nil
}

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 20 {
		return fmt.Errorf("%w: name must be 2-20 characters", domain.ErrInvalidInput)
	}
	return nil
}

// claim reserves an idempotency key and returns a func that drops the claim
// when the guarded operation fails. An empty key or an unavailable store
// skips the guard.
func claim(ctx context.Context, store ports.IdempotencyStore, log zerolog.Logger, scope, key string) (func(), error) {
	noop := func() {}
	if key == "" || store == nil {
		return noop, nil
	}

	ok, err := store.Claim(ctx, scope, key)
	if err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("idempotency check failed, processing anyway")
		return noop, nil
	}
	if !ok {
		log.Info().Str("scope", scope).Str("idempotency_key", key).Msg("idempotent replay rejected")
		return nil, domain.ErrDuplicateRequest
	}

	return func() {
		cctx, cancel := detached(ctx)
		defer cancel()
		if err := store.Release(cctx, scope, key); err != nil {
			log.Warn().Err(err).Str("scope", scope).Msg("failed to release idempotency key")
		}
	}, nil
}
