package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

func newTestUserService() (*UserService, *stubUserRepo, *stubLogRepo) {
	repo := newStubUserRepo()
	logs := &stubLogRepo{}
	return NewUserService(repo, &stubIdempotency{}, NewAudit(logs, zerolog.Nop()), zerolog.Nop()), repo, logs
}

func validUserInput() ports.CreateUserInput {
	return ports.CreateUserInput{
		Name:         "Alice",
		IdentityCard: "110101199001011234",
		PhoneNumber:  "13800138000",
		Password:     "secret",
		Balance:      20,
	}
}

func TestUserService_Create(t *testing.T) {
	svc, _, logs := newTestUserService()
	ctx := ports.ContextWithActor(context.Background(), "root")

	u, err := svc.Create(ctx, validUserInput())
	require.NoError(t, err)
	assert.Equal(t, domain.UserOffline, u.Status)
	assert.NotEqual(t, "secret", u.PasswordHash)
	assert.Equal(t, []string{domain.ActionUserCreated}, logs.actions(domain.LogManagement))

	_, err = svc.Create(ctx, validUserInput())
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestUserService_Create_Validation(t *testing.T) {
	svc, _, _ := newTestUserService()

	in := validUserInput()
	in.Name = "A"
	_, err := svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = validUserInput()
	in.Balance = -1
	_, err = svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUserService_BanRules(t *testing.T) {
	svc, repo, _ := newTestUserService()
	online := repo.put(&domain.User{Name: "On", Status: domain.UserOnline})
	offline := repo.put(&domain.User{Name: "Off", Status: domain.UserOffline})
	banned := domain.UserBanned
	setOnline := domain.UserOnline

	_, err := svc.Update(context.Background(), online.ID, ports.UpdateUserInput{Status: &banned})
	assert.ErrorIs(t, err, domain.ErrUserOnline)

	u, err := svc.Update(context.Background(), offline.ID, ports.UpdateUserInput{Status: &banned})
	require.NoError(t, err)
	assert.Equal(t, domain.UserBanned, u.Status)

	_, err = svc.Update(context.Background(), offline.ID, ports.UpdateUserInput{Status: &setOnline})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.ErrorIs(t, svc.Delete(context.Background(), online.ID), domain.ErrUserOnline)
	assert.NoError(t, svc.Delete(context.Background(), offline.ID))
}

func TestUserService_Recharge(t *testing.T) {
	svc, repo, logs := newTestUserService()
	u := repo.put(&domain.User{Name: "Bob", Balance: 5, Status: domain.UserOffline})

	updated, err := svc.Recharge(context.Background(), ports.RechargeInput{UserID: u.ID, Amount: 10.5, IdempotencyKey: "k1"})
	require.NoError(t, err)
	assert.InDelta(t, 15.5, updated.Balance, 0.001)
	assert.Contains(t, logs.actions(domain.LogManagement), domain.ActionRecharge)
	assert.Contains(t, logs.actions(domain.LogUser), domain.ActionRecharge)

	_, err = svc.Recharge(context.Background(), ports.RechargeInput{UserID: u.ID, Amount: 10, IdempotencyKey: "k1"})
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)
	assert.InDelta(t, 15.5, repo.get(u.ID).Balance, 0.001)
}

func TestUserService_Recharge_Rejected(t *testing.T) {
	svc, repo, _ := newTestUserService()
	banned := repo.put(&domain.User{Name: "Ban", Status: domain.UserBanned})
	ok := repo.put(&domain.User{Name: "Ok", Status: domain.UserOffline})

	tests := []struct {
		name   string
		userID int64
		amount float64
		want   error
	}{
		{"zero amount", ok.ID, 0, domain.ErrInvalidInput},
		{"over limit", ok.ID, MaxRecharge + 1, domain.ErrInvalidInput},
		{"banned user", banned.ID, 10, domain.ErrUserBanned},
		{"unknown user", 999, 10, domain.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Recharge(context.Background(), ports.RechargeInput{UserID: tt.userID, Amount: tt.amount})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUserService_ListAndStats(t *testing.T) {
	svc, repo, _ := newTestUserService()
	for _, name := range []string{"Ann", "Ben", "Cat"} {
		repo.put(&domain.User{Name: name, Status: domain.UserOffline})
	}
	repo.put(&domain.User{Name: "Dan", Status: domain.UserBanned})

	page, err := svc.List(context.Background(), ports.UserFilter{PageNum: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Len(t, page.List, 1)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.BannedUsers)

	exists, err := svc.IdentityCardExists(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, exists)
}

// sessionRacingRepo starts a session right after the first read, the way a
// concurrent login would land between Update's read and write.
type sessionRacingRepo struct {
	*stubUserRepo
	machineID int64
	fired     bool
}

func (r *sessionRacingRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := r.stubUserRepo.FindByID(ctx, id)
	if err == nil && !r.fired {
		r.fired = true
		_ = r.stubUserRepo.StartSession(ctx, id, r.machineID, time.Now())
	}
	return u, err
}

func TestUserService_Update_KeepsConcurrentSession(t *testing.T) {
	repo := &sessionRacingRepo{stubUserRepo: newStubUserRepo(), machineID: 7}
	svc := NewUserService(repo, &stubIdempotency{}, NewAudit(&stubLogRepo{}, zerolog.Nop()), zerolog.Nop())
	u := repo.put(&domain.User{Name: "Eve", PhoneNumber: "13800138000", Status: domain.UserOffline})

	phone := "13900139000"
	updated, err := svc.Update(context.Background(), u.ID, ports.UpdateUserInput{PhoneNumber: &phone})
	require.NoError(t, err)

	stored := repo.get(u.ID)
	assert.Equal(t, domain.UserOnline, stored.Status)
	require.NotNil(t, stored.MachineID)
	assert.Equal(t, int64(7), *stored.MachineID)
	assert.Equal(t, phone, stored.PhoneNumber)
	assert.Equal(t, domain.UserOnline, updated.Status)
}

func TestUserService_Update_BanLosesToConcurrentSession(t *testing.T) {
	repo := &sessionRacingRepo{stubUserRepo: newStubUserRepo(), machineID: 3}
	svc := NewUserService(repo, &stubIdempotency{}, NewAudit(&stubLogRepo{}, zerolog.Nop()), zerolog.Nop())
	u := repo.put(&domain.User{Name: "Fay", Status: domain.UserOffline})

	banned := domain.UserBanned
	_, err := svc.Update(context.Background(), u.ID, ports.UpdateUserInput{Status: &banned})
	assert.ErrorIs(t, err, domain.ErrUserOnline)
	assert.Equal(t, domain.UserOnline, repo.get(u.ID).Status)
}
