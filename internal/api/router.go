package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/netbar/billing-system/internal/api/handler"
	"github.com/netbar/billing-system/internal/api/middleware"
	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
	"github.com/netbar/billing-system/internal/infrastructure/http/handlers"
)

// Services bundles the application services the routes delegate to.
type Services struct {
	Auth        ports.AuthService
	Users       ports.UserService
	Sessions    ports.SessionService
	Zones       ports.ZoneService
	Machines    ports.MachineService
	Commodities ports.CommodityService
	Orders      ports.OrderService
	Messages    ports.MessageService
	Logs        ports.LogService
}

// RouterConfig carries the HTTP-facing settings.
type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
	Revoker        ports.TokenRevoker
	Checks         []handlers.DependencyCheck
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig, svc Services, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
	}))
	e.Use(echoprometheus.NewMiddleware("netbar"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(svc.Auth, svc.Sessions)
	userHandler := handler.NewUserHandler(svc.Users, svc.Sessions)
	zoneHandler := handler.NewZoneHandler(svc.Zones)
	machineHandler := handler.NewMachineHandler(svc.Machines)
	commodityHandler := handler.NewCommodityHandler(svc.Commodities)
	orderHandler := handler.NewOrderHandler(svc.Orders)
	messageHandler := handler.NewMessageHandler(svc.Messages)
	logHandler := handler.NewLogHandler(svc.Logs)

	auth := middleware.Auth(cfg.JWTSecret, cfg.Revoker, log)
	staff := middleware.RBAC(domain.RoleAdmin, domain.RoleSuperAdmin)
	anyone := middleware.RBAC(domain.RoleAdmin, domain.RoleSuperAdmin, domain.RoleUser)
	self := middleware.SelfOrRoles("id", domain.RoleAdmin, domain.RoleSuperAdmin)

	// --- Public routes ---
	e.POST("/api/admin/login", authHandler.AdminLogin)
	e.POST("/api/users/login", authHandler.UserLogin)

	api := e.Group("/api", auth)

	// --- Auth ---
	api.POST("/admin/logout", authHandler.Logout, anyone)
	api.POST("/admin/register", authHandler.RegisterAdmin, middleware.RBAC(domain.RoleSuperAdmin))

	// --- Users & sessions ---
	api.GET("/users", userHandler.List, staff)
	api.POST("/users", userHandler.Create, staff)
	api.GET("/users/stats", userHandler.Stats, staff)
	api.GET("/users/check/:idCard", userHandler.CheckIdentityCard, staff)
	api.GET("/users/:id", userHandler.Get, self)
	api.PUT("/users/:id", userHandler.Update, staff)
	api.DELETE("/users/:id", userHandler.Delete, staff)
	api.POST("/users/:id/recharge", userHandler.Recharge, staff)
	api.POST("/users/:id/start/:machineId", userHandler.StartSession, self)
	api.POST("/users/:id/stop", userHandler.StopSession, self)

	// --- Zones ---
	api.GET("/zones", zoneHandler.List, anyone)
	api.POST("/zones", zoneHandler.Create, staff)
	api.GET("/zones/check/:name", zoneHandler.CheckName, staff)
	api.GET("/zones/:id", zoneHandler.Get, anyone)
	api.PUT("/zones/:id", zoneHandler.Update, staff)
	api.DELETE("/zones/:id", zoneHandler.Delete, staff)

	// --- Machines ---
	api.GET("/machines", machineHandler.List, anyone)
	api.POST("/machines", machineHandler.Create, staff)
	api.GET("/machines/stats", machineHandler.Stats, staff)
	api.POST("/machines/status", machineHandler.UpdateStatus, staff)
	api.GET("/machines/:id", machineHandler.Get, anyone)
	api.PUT("/machines/:id", machineHandler.Update, staff)
	api.DELETE("/machines/:id", machineHandler.Delete, staff)

	// --- Commodities ---
	api.GET("/commodities", commodityHandler.List, anyone)
	api.POST("/commodities", commodityHandler.Create, staff)
	api.GET("/commodities/:id", commodityHandler.Get, anyone)
	api.PUT("/commodities/:id", commodityHandler.Update, staff)
	api.DELETE("/commodities/:id", commodityHandler.Delete, staff)

	// --- Orders & reports ---
	api.POST("/orders", orderHandler.Create, anyone)
	api.GET("/orders/search", orderHandler.Search, anyone)
	api.GET("/orders/pending/count", orderHandler.PendingCount, staff)
	api.GET("/orders/:id", orderHandler.Get, staff)
	api.PUT("/orders/:id/status", orderHandler.UpdateStatus, staff)
	api.GET("/reports/sales", orderHandler.SalesReport, staff)

	// --- Messages ---
	api.POST("/messages", messageHandler.Call, anyone)
	api.GET("/messages/pending", messageHandler.Pending, staff)
	api.PUT("/messages/:id/handle", messageHandler.Handle, staff)
	api.PUT("/messages/:id/cancel", messageHandler.Cancel, staff)

	// --- Audit logs ---
	api.GET("/logs/user", logHandler.UserLogs, staff)
	api.GET("/logs/management", logHandler.ManagementLogs, staff)

	// --- Platform (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(cfg.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
