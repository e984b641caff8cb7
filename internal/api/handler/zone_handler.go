package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/netbar/billing-system/internal/core/ports"
)

type ZoneHandler struct {
	zones ports.ZoneService
}

func NewZoneHandler(zones ports.ZoneService) *ZoneHandler {
	return &ZoneHandler{zones: zones}
}

// List handles GET /api/zones.
//
// @Summary      List zones
// @Tags         zones
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Zone
// @Router       /api/zones [get]
func (h *ZoneHandler) List(c echo.Context) error {
	zones, err := h.zones.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, zones)
}

// Get handles GET /api/zones/:id.
//
// @Summary      Get a zone
// @Tags         zones
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Zone id"
// @Success      200  {object}  domain.Zone
// @Failure      404  {object}  errorResponse
// @Router       /api/zones/{id} [get]
func (h *ZoneHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	zone, err := h.zones.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, zone)
}

// Create handles POST /api/zones.
//
// @Summary      Create a zone
// @Tags         zones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      zoneRequest  true  "Zone details"
// @Success      201   {object}  domain.Zone
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/zones [post]
func (h *ZoneHandler) Create(c echo.Context) error {
	var req zoneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	zone, err := h.zones.Create(c.Request().Context(), toZoneInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, zone)
}

// Update handles PUT /api/zones/:id.
//
// @Summary      Update a zone
// @Tags         zones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int          true  "Zone id"
// @Param        body  body      zoneRequest  true  "Zone details"
// @Success      200   {object}  domain.Zone
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/zones/{id} [put]
func (h *ZoneHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req zoneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	zone, err := h.zones.Update(c.Request().Context(), id, toZoneInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, zone)
}

// Delete handles DELETE /api/zones/:id. Zones that still hold machines are kept.
//
// @Summary      Delete a zone
// @Tags         zones
// @Security     BearerAuth
// @Param        id   path  int  true  "Zone id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /api/zones/{id} [delete]
func (h *ZoneHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.zones.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// CheckName handles GET /api/zones/check/:name.
//
// @Summary      Check whether a zone name is taken
// @Tags         zones
// @Produce      json
// @Security     BearerAuth
// @Param        name  path      string  true  "Zone name"
// @Success      200   {object}  existsResponse
// @Router       /api/zones/check/{name} [get]
func (h *ZoneHandler) CheckName(c echo.Context) error {
	exists, err := h.zones.NameExists(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, existsResponse{Exists: exists})
}
