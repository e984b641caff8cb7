package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/netbar/billing-system/internal/api/middleware"
	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

// newContext builds an echo context with the validator installed and, when
// claims is non-nil, the values the Auth middleware would set.
func newContext(method, target, body string, claims *ports.Claims) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		c.Set("role", claims.Role)
		c.Set(middleware.ClaimsKey, *claims)
	}
	return c, rec
}

func withParams(c echo.Context, kv ...string) echo.Context {
	var names, values []string
	for i := 0; i+1 < len(kv); i += 2 {
		names = append(names, kv[i])
		values = append(values, kv[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c
}

var (
	adminClaims = &ports.Claims{Subject: "admin:1", Role: domain.RoleAdmin, ActorID: 1, Username: "alice", TokenID: "tok-1"}
	userClaims  = &ports.Claims{Subject: "user:5", Role: domain.RoleUser, ActorID: 5, Username: "Bob", TokenID: "tok-2"}
)

// --- Service stubs ---

type stubAuthService struct {
	adminLoginFn func(ctx context.Context, username, password string) (string, *domain.Admin, error)
	registerFn   func(ctx context.Context, username, password, role string) (*domain.Admin, error)
	userLoginFn  func(ctx context.Context, identityCard, password string) (string, *domain.User, error)
	logoutFn     func(ctx context.Context, tokenID string) error
}

func (s *stubAuthService) AdminLogin(ctx context.Context, username, password string) (string, *domain.Admin, error) {
	return s.adminLoginFn(ctx, username, password)
}

func (s *stubAuthService) RegisterAdmin(ctx context.Context, username, password, role string) (*domain.Admin, error) {
	return s.registerFn(ctx, username, password, role)
}

func (s *stubAuthService) UserLogin(ctx context.Context, identityCard, password string) (string, *domain.User, error) {
	return s.userLoginFn(ctx, identityCard, password)
}

func (s *stubAuthService) Logout(ctx context.Context, tokenID string) error {
	return s.logoutFn(ctx, tokenID)
}

type stubSessionService struct {
	startFn func(ctx context.Context, userID, machineID int64) (*domain.User, error)
	stopFn  func(ctx context.Context, userID int64) (*ports.SessionResult, error)
}

func (s *stubSessionService) Start(ctx context.Context, userID, machineID int64) (*domain.User, error) {
	return s.startFn(ctx, userID, machineID)
}

func (s *stubSessionService) Stop(ctx context.Context, userID int64) (*ports.SessionResult, error) {
	return s.stopFn(ctx, userID)
}

func (s *stubSessionService) Exhausted(context.Context, time.Time) ([]int64, error) {
	return nil, nil
}

type stubUserService struct {
	createFn   func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error)
	updateFn   func(ctx context.Context, id int64, in ports.UpdateUserInput) (*domain.User, error)
	listFn     func(ctx context.Context, f ports.UserFilter) (*domain.Page[*domain.User], error)
	rechargeFn func(ctx context.Context, in ports.RechargeInput) (*domain.User, error)
	existsFn   func(ctx context.Context, idCard string) (bool, error)
}

func (s *stubUserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}

func (s *stubUserService) Get(_ context.Context, id int64) (*domain.User, error) {
	return &domain.User{ID: id}, nil
}

func (s *stubUserService) Update(ctx context.Context, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubUserService) Delete(context.Context, int64) error { return nil }

func (s *stubUserService) List(ctx context.Context, f ports.UserFilter) (*domain.Page[*domain.User], error) {
	return s.listFn(ctx, f)
}

func (s *stubUserService) IdentityCardExists(ctx context.Context, idCard string) (bool, error) {
	return s.existsFn(ctx, idCard)
}

func (s *stubUserService) Stats(context.Context) (*domain.UserStats, error) {
	return &domain.UserStats{TotalUsers: 3, OnlineUsers: 1}, nil
}

func (s *stubUserService) Recharge(ctx context.Context, in ports.RechargeInput) (*domain.User, error) {
	return s.rechargeFn(ctx, in)
}

type stubMachineService struct {
	listFn   func(ctx context.Context, f ports.MachineFilter) ([]*ports.MachineView, error)
	statusFn func(ctx context.Context, id int64, status domain.MachineStatus) (*domain.Machine, error)
}

func (s *stubMachineService) Create(_ context.Context, in ports.MachineInput) (*domain.Machine, error) {
	return &domain.Machine{ID: 1, Name: in.Name, ZoneID: in.ZoneID, Status: domain.MachineIdle}, nil
}

func (s *stubMachineService) Get(_ context.Context, id int64) (*ports.MachineView, error) {
	return &ports.MachineView{Machine: &domain.Machine{ID: id}}, nil
}

func (s *stubMachineService) Update(_ context.Context, id int64, in ports.MachineInput) (*domain.Machine, error) {
	return &domain.Machine{ID: id, Name: in.Name}, nil
}

func (s *stubMachineService) Delete(context.Context, int64) error { return nil }

func (s *stubMachineService) List(ctx context.Context, f ports.MachineFilter) ([]*ports.MachineView, error) {
	return s.listFn(ctx, f)
}

func (s *stubMachineService) UpdateStatus(ctx context.Context, id int64, status domain.MachineStatus) (*domain.Machine, error) {
	return s.statusFn(ctx, id, status)
}

func (s *stubMachineService) Stats(context.Context) (*domain.MachineStats, error) {
	return &domain.MachineStats{}, nil
}

type stubCommodityService struct {
	items []*domain.Commodity
	err   error
}

func (s *stubCommodityService) Create(_ context.Context, in ports.CommodityInput) (*domain.Commodity, error) {
	return &domain.Commodity{ID: 1, Name: in.Name, Price: in.Price, Unit: in.Unit, Stock: in.Stock}, s.err
}

func (s *stubCommodityService) Get(_ context.Context, id int64) (*domain.Commodity, error) {
	return &domain.Commodity{ID: id}, s.err
}

func (s *stubCommodityService) Update(_ context.Context, id int64, in ports.CommodityInput) (*domain.Commodity, error) {
	return &domain.Commodity{ID: id, Name: in.Name}, s.err
}

func (s *stubCommodityService) Delete(context.Context, int64) error { return s.err }

func (s *stubCommodityService) List(context.Context, string) ([]*domain.Commodity, error) {
	return s.items, s.err
}

type stubOrderService struct {
	createFn func(ctx context.Context, in ports.CreateOrderInput) (*domain.Order, error)
	searchFn func(ctx context.Context, f ports.OrderFilter) (*domain.Page[*domain.Order], error)
	statusFn func(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error)
	reportFn func(ctx context.Context, from, to time.Time) (*domain.SalesReport, error)
	pending  int64
}

func (s *stubOrderService) Create(ctx context.Context, in ports.CreateOrderInput) (*domain.Order, error) {
	return s.createFn(ctx, in)
}

func (s *stubOrderService) Get(_ context.Context, id int64) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}

func (s *stubOrderService) Search(ctx context.Context, f ports.OrderFilter) (*domain.Page[*domain.Order], error) {
	return s.searchFn(ctx, f)
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	return s.statusFn(ctx, id, status)
}

func (s *stubOrderService) PendingCount(context.Context) (int64, error) {
	return s.pending, nil
}

func (s *stubOrderService) SalesReport(ctx context.Context, from, to time.Time) (*domain.SalesReport, error) {
	return s.reportFn(ctx, from, to)
}

type stubMessageService struct {
	callFn  func(ctx context.Context, userID, machineID int64, content string) (*domain.Message, error)
	pending []*domain.Message
}

func (s *stubMessageService) Call(ctx context.Context, userID, machineID int64, content string) (*domain.Message, error) {
	return s.callFn(ctx, userID, machineID, content)
}

func (s *stubMessageService) Notify(_ context.Context, machineID int64, content string) (*domain.Message, error) {
	return &domain.Message{MachineID: machineID, Content: content}, nil
}

func (s *stubMessageService) Pending(context.Context) ([]*domain.Message, error) {
	return s.pending, nil
}

func (s *stubMessageService) Handle(_ context.Context, id int64) (*domain.Message, error) {
	return &domain.Message{ID: id, Status: domain.MessageHandled}, nil
}

func (s *stubMessageService) Cancel(_ context.Context, id int64) (*domain.Message, error) {
	return nil, domain.ErrInvalidTransition
}

type stubLogService struct {
	last ports.LogFilter
}

func (s *stubLogService) List(_ context.Context, f ports.LogFilter) (*domain.Page[*domain.LogEntry], error) {
	s.last = f
	page := domain.NewPage([]*domain.LogEntry{{ID: 1, Kind: f.Kind}}, 1, 1, 10)
	return &page, nil
}
