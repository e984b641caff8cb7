package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

func TestUserHandler_Create(t *testing.T) {
	var got ports.CreateUserInput
	users := &stubUserService{
		createFn: func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
			got = in
			return &domain.User{ID: 1, Name: in.Name, IdentityCard: in.IdentityCard, PasswordHash: "hash"}, nil
		},
	}
	h := NewUserHandler(users, nil)

	body := `{"name":"Li Lei","identityCard":"11010119900307777X","phoneNumber":"13800138000","loginPassword":"secret1","balance":20}`
	c, rec := newContext(http.MethodPost, "/api/users", body, adminClaims)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "secret1", got.Password)
	assert.Equal(t, 20.0, got.Balance)
	assert.NotContains(t, rec.Body.String(), "hash")
}

func TestUserHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"short name", `{"name":"L","identityCard":"110101199003077777","loginPassword":"secret1"}`},
		{"bad identity card", `{"name":"Li Lei","identityCard":"12345","loginPassword":"secret1"}`},
		{"bad phone", `{"name":"Li Lei","identityCard":"110101199003077777","phoneNumber":"12800138000","loginPassword":"secret1"}`},
		{"short password", `{"name":"Li Lei","identityCard":"110101199003077777","loginPassword":"123"}`},
		{"negative balance", `{"name":"Li Lei","identityCard":"110101199003077777","loginPassword":"secret1","balance":-1}`},
	}

	h := NewUserHandler(&stubUserService{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(http.MethodPost, "/api/users", tt.body, adminClaims)
			err := h.Create(c)

			var he *echo.HTTPError
			require.True(t, errors.As(err, &he), "expected HTTPError, got %v", err)
			assert.Equal(t, http.StatusUnprocessableEntity, he.Code)
		})
	}
}

func TestUserHandler_Update_StatusBan(t *testing.T) {
	var got ports.UpdateUserInput
	users := &stubUserService{
		updateFn: func(ctx context.Context, id int64, in ports.UpdateUserInput) (*domain.User, error) {
			got = in
			return &domain.User{ID: id, Status: *in.Status}, nil
		},
	}
	h := NewUserHandler(users, nil)

	c, rec := newContext(http.MethodPut, "/api/users/4", `{"status":"Banned"}`, adminClaims)
	withParams(c, "id", "4")
	require.NoError(t, h.Update(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.Status)
	assert.Equal(t, domain.UserBanned, *got.Status)
	assert.Nil(t, got.Name)
}

func TestUserHandler_List_Paging(t *testing.T) {
	var got ports.UserFilter
	users := &stubUserService{
		listFn: func(ctx context.Context, f ports.UserFilter) (*domain.Page[*domain.User], error) {
			got = f
			page := domain.NewPage([]*domain.User{{ID: 1}}, 11, f.PageNum, f.PageSize)
			return &page, nil
		},
	}
	h := NewUserHandler(users, nil)

	c, rec := newContext(http.MethodGet, "/api/users?name=li&status=Online&pageNum=2&pageSize=10", "", adminClaims)
	require.NoError(t, h.List(c))

	assert.Equal(t, ports.UserFilter{Name: "li", Status: "Online", PageNum: 2, PageSize: 10}, got)

	var page map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.EqualValues(t, 11, page["total"])
	assert.EqualValues(t, 2, page["pages"])
}

func TestUserHandler_List_BadPageNum(t *testing.T) {
	h := NewUserHandler(&stubUserService{}, nil)

	c, _ := newContext(http.MethodGet, "/api/users?pageNum=two", "", adminClaims)
	err := h.List(c)

	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestUserHandler_CheckIdentityCard(t *testing.T) {
	users := &stubUserService{
		existsFn: func(ctx context.Context, idCard string) (bool, error) {
			return idCard == "110101199003077777", nil
		},
	}
	h := NewUserHandler(users, nil)

	c, rec := newContext(http.MethodGet, "/api/users/check/110101199003077777", "", adminClaims)
	withParams(c, "idCard", "110101199003077777")
	require.NoError(t, h.CheckIdentityCard(c))

	assert.JSONEq(t, `{"exists":true}`, rec.Body.String())
}

func TestUserHandler_Recharge(t *testing.T) {
	var got ports.RechargeInput
	users := &stubUserService{
		rechargeFn: func(ctx context.Context, in ports.RechargeInput) (*domain.User, error) {
			got = in
			return &domain.User{ID: in.UserID, Balance: 30}, nil
		},
	}
	h := NewUserHandler(users, nil)

	c, rec := newContext(http.MethodPost, "/api/users/7/recharge", `{"amount":25.5}`, adminClaims)
	c.Request().Header.Set("Idempotency-Key", "k-1")
	withParams(c, "id", "7")
	require.NoError(t, h.Recharge(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ports.RechargeInput{UserID: 7, Amount: 25.5, IdempotencyKey: "k-1"}, got)
}

func TestUserHandler_Recharge_OutOfRange(t *testing.T) {
	h := NewUserHandler(&stubUserService{}, nil)

	for _, body := range []string{`{"amount":0}`, `{"amount":10000.01}`} {
		c, _ := newContext(http.MethodPost, "/api/users/7/recharge", body, adminClaims)
		withParams(c, "id", "7")
		err := h.Recharge(c)

		var he *echo.HTTPError
		require.True(t, errors.As(err, &he), body)
		assert.Equal(t, http.StatusUnprocessableEntity, he.Code, body)
	}
}

func TestUserHandler_StartSession(t *testing.T) {
	sessions := &stubSessionService{
		startFn: func(ctx context.Context, userID, machineID int64) (*domain.User, error) {
			if machineID == 9 {
				return nil, domain.ErrMachineBusy
			}
			return &domain.User{ID: userID, Status: domain.UserOnline, MachineID: &machineID}, nil
		},
	}
	h := NewUserHandler(&stubUserService{}, sessions)

	c, rec := newContext(http.MethodPost, "/api/users/5/start/3", "", userClaims)
	withParams(c, "id", "5", "machineId", "3")
	require.NoError(t, h.StartSession(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, _ = newContext(http.MethodPost, "/api/users/5/start/9", "", userClaims)
	withParams(c, "id", "5", "machineId", "9")
	assert.ErrorIs(t, h.StartSession(c), domain.ErrMachineBusy)
}

func TestUserHandler_StopSession(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	sessions := &stubSessionService{
		stopFn: func(ctx context.Context, userID int64) (*ports.SessionResult, error) {
			return &ports.SessionResult{
				User:      &domain.User{ID: userID, Balance: 3.9},
				MachineID: 3,
				StartedAt: start,
				EndedAt:   start.Add(60*time.Minute + 10*time.Second),
				Charge:    6.1,
			}, nil
		},
	}
	h := NewUserHandler(&stubUserService{}, sessions)

	c, rec := newContext(http.MethodPost, "/api/users/5/stop", "", adminClaims)
	withParams(c, "id", "5")
	require.NoError(t, h.StopSession(c))

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(61), resp.Minutes)
	assert.Equal(t, 6.1, resp.Charge)
	assert.Equal(t, "2024-05-01T10:00:00Z", resp.StartedAt)
}

func TestUserHandler_BadID(t *testing.T) {
	h := NewUserHandler(&stubUserService{}, &stubSessionService{})

	c, _ := newContext(http.MethodPost, "/api/users/abc/stop", "", adminClaims)
	withParams(c, "id", "abc")
	err := h.StopSession(c)

	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusBadRequest, he.Code)
}
