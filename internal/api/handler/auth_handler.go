package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/netbar/billing-system/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	sessions    ports.SessionService
}

func NewAuthHandler(authService ports.AuthService, sessions ports.SessionService) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions}
}

// AdminLogin authenticates an operator and returns a JWT token.
// Credentials are read from the JSON body or, as the console sends them,
// from the query string.
//
// @Summary      Operator login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        username  query     string             false  "Username"
// @Param        password  query     string             false  "Password"
// @Param        body      body      adminLoginRequest  false  "Login credentials"
// @Success      200       {object}  envelope
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Router       /api/admin/login [post]
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req adminLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" {
		if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
	}

	token, admin, err := h.authService.AdminLogin(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, envelope{
		Code:    http.StatusOK,
		Message: "login successful",
		Data:    loginData{Token: token, User: admin},
	})
}

// AdminLogout revokes the caller's token.
//
// @Summary      Operator logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/admin/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), claims.TokenID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// RegisterAdmin creates an operator account.
//
// @Summary      Register an operator
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerAdminRequest  true  "Operator details"
// @Success      201   {object}  domain.Admin
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/admin/register [post]
func (h *AuthHandler) RegisterAdmin(c echo.Context) error {
	var req registerAdminRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	admin, err := h.authService.RegisterAdmin(c.Request().Context(), req.Username, req.Password, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, admin)
}

// UserLogin authenticates a customer at a workstation. When machineId is
// given a seat session is opened on that machine.
//
// @Summary      Customer login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      userLoginRequest  true  "Login credentials"
// @Success      200   {object}  envelope
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/users/login [post]
func (h *AuthHandler) UserLogin(c echo.Context) error {
	var req userLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.Request().Context()
	token, user, err := h.authService.UserLogin(ctx, req.IdentityCard, req.Password)
	if err != nil {
		return err
	}

	if req.MachineID > 0 && h.sessions != nil {
		user, err = h.sessions.Start(ctx, user.ID, req.MachineID)
		if err != nil {
			return err
		}
	}

	return c.JSON(http.StatusOK, envelope{
		Code:    http.StatusOK,
		Message: "login successful",
		Data:    loginData{Token: token, User: user},
	})
}
