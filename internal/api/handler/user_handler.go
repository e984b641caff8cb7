package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/netbar/billing-system/internal/core/ports"
)

// UserHandler serves customer accounts, balances and seat sessions.
type UserHandler struct {
	users    ports.UserService
	sessions ports.SessionService
}

func NewUserHandler(users ports.UserService, sessions ports.SessionService) *UserHandler {
	return &UserHandler{users: users, sessions: sessions}
}

// Create handles POST /api/users.
//
// @Summary      Open a customer account
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "Account details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.users.Create(c.Request().Context(), toCreateUserInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Get handles GET /api/users/:id.
//
// @Summary      Get a customer account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  errorResponse
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update handles PUT /api/users/:id. Setting status to Banned or Offline
// bans or unbans the account.
//
// @Summary      Update a customer account
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  domain.User
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.users.Update(c.Request().Context(), id, toUpdateUserInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /api/users/:id.
//
// @Summary      Delete a customer account
// @Tags         users
// @Security     BearerAuth
// @Param        id   path  int  true  "User id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /api/users.
//
// @Summary      List customer accounts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        name      query     string  false  "Partial name, identity card or phone"
// @Param        status    query     string  false  "Online, Offline or Banned"
// @Param        pageNum   query     int     false  "Page number"
// @Param        pageSize  query     int     false  "Page size"
// @Success      200       {object}  domain.Page[domain.User]
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	pageNum, err := queryInt(c, "pageNum")
	if err != nil {
		return err
	}
	pageSize, err := queryInt(c, "pageSize")
	if err != nil {
		return err
	}

	page, err := h.users.List(c.Request().Context(), ports.UserFilter{
		Name:     c.QueryParam("name"),
		Status:   c.QueryParam("status"),
		PageNum:  pageNum,
		PageSize: pageSize,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// CheckIdentityCard handles GET /api/users/check/:idCard.
//
// @Summary      Check whether an identity card is registered
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        idCard  path      string  true  "Identity card"
// @Success      200     {object}  existsResponse
// @Router       /api/users/check/{idCard} [get]
func (h *UserHandler) CheckIdentityCard(c echo.Context) error {
	exists, err := h.users.IdentityCardExists(c.Request().Context(), c.Param("idCard"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, existsResponse{Exists: exists})
}

// Stats handles GET /api/users/stats.
//
// @Summary      Customer counters for the dashboard
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.UserStats
// @Router       /api/users/stats [get]
func (h *UserHandler) Stats(c echo.Context) error {
	stats, err := h.users.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Recharge handles POST /api/users/:id/recharge.
//
// @Summary      Top up a prepaid balance
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string           false  "Idempotency key to prevent duplicate top-ups"
// @Param        id               path      int              true   "User id"
// @Param        body             body      rechargeRequest  true   "Amount"
// @Success      200              {object}  domain.User
// @Failure      403              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /api/users/{id}/recharge [post]
func (h *UserHandler) Recharge(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req rechargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.users.Recharge(c.Request().Context(), ports.RechargeInput{
		UserID:         id,
		Amount:         req.Amount,
		IdempotencyKey: idempotencyKey(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// StartSession handles POST /api/users/:id/start/:machineId.
//
// @Summary      Seat a customer at a machine
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      int  true  "User id"
// @Param        machineId  path      int  true  "Machine id"
// @Success      200        {object}  domain.User
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Failure      409        {object}  errorResponse
// @Failure      422        {object}  errorResponse
// @Router       /api/users/{id}/start/{machineId} [post]
func (h *UserHandler) StartSession(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	machineID, err := pathID(c, "machineId")
	if err != nil {
		return err
	}

	user, err := h.sessions.Start(c.Request().Context(), id, machineID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// StopSession handles POST /api/users/:id/stop.
//
// @Summary      End a seat session and charge for it
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  sessionResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /api/users/{id}/stop [post]
func (h *UserHandler) StopSession(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	result, err := h.sessions.Stop(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(result))
}
