package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

type MachineHandler struct {
	machines ports.MachineService
}

func NewMachineHandler(machines ports.MachineService) *MachineHandler {
	return &MachineHandler{machines: machines}
}

// List handles GET /api/machines. Each machine carries its zone name and
// hourly price.
//
// @Summary      List machines
// @Tags         machines
// @Produce      json
// @Security     BearerAuth
// @Param        zoneId  query     int     false  "Zone id"
// @Param        status  query     string  false  "Idle, Occupied or Abnormal"
// @Success      200     {object}  dataResponse
// @Failure      422     {object}  errorResponse
// @Router       /api/machines [get]
func (h *MachineHandler) List(c echo.Context) error {
	zoneID, err := queryInt64(c, "zoneId")
	if err != nil {
		return err
	}

	machines, err := h.machines.List(c.Request().Context(), ports.MachineFilter{
		ZoneID: zoneID,
		Status: c.QueryParam("status"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: machines})
}

// Get handles GET /api/machines/:id.
//
// @Summary      Get a machine
// @Tags         machines
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Machine id"
// @Success      200  {object}  ports.MachineView
// @Failure      404  {object}  errorResponse
// @Router       /api/machines/{id} [get]
func (h *MachineHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	view, err := h.machines.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Create handles POST /api/machines.
//
// @Summary      Add a machine to a zone
// @Tags         machines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      machineRequest  true  "Machine details"
// @Success      201   {object}  domain.Machine
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/machines [post]
func (h *MachineHandler) Create(c echo.Context) error {
	var req machineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	m, err := h.machines.Create(c.Request().Context(), toMachineInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

// Update handles PUT /api/machines/:id.
//
// @Summary      Update a machine
// @Tags         machines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int             true  "Machine id"
// @Param        body  body      machineRequest  true  "Machine details"
// @Success      200   {object}  domain.Machine
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/machines/{id} [put]
func (h *MachineHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req machineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	m, err := h.machines.Update(c.Request().Context(), id, toMachineInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /api/machines/:id.
//
// @Summary      Remove a machine
// @Tags         machines
// @Security     BearerAuth
// @Param        id   path  int  true  "Machine id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /api/machines/{id} [delete]
func (h *MachineHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.machines.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateStatus handles POST /api/machines/status: lock (Abnormal) or
// unlock (Idle) a machine.
//
// @Summary      Lock or unlock a machine
// @Tags         machines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      machineStatusRequest  true  "Machine and target status"
// @Success      200   {object}  domain.Machine
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/machines/status [post]
func (h *MachineHandler) UpdateStatus(c echo.Context) error {
	var req machineStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	m, err := h.machines.UpdateStatus(c.Request().Context(), req.MachineID, domain.MachineStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// Stats handles GET /api/machines/stats.
//
// @Summary      Machine counters for the dashboard
// @Tags         machines
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.MachineStats
// @Router       /api/machines/stats [get]
func (h *MachineHandler) Stats(c echo.Context) error {
	stats, err := h.machines.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
