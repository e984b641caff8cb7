package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/netbar/billing-system/internal/core/ports"
)

type CommodityHandler struct {
	commodities ports.CommodityService
}

func NewCommodityHandler(commodities ports.CommodityService) *CommodityHandler {
	return &CommodityHandler{commodities: commodities}
}

// List handles GET /api/commodities and returns a bare array.
//
// @Summary      List the sales catalog
// @Tags         commodities
// @Produce      json
// @Security     BearerAuth
// @Param        name  query    string  false  "Partial name"
// @Success      200   {array}  domain.Commodity
// @Router       /api/commodities [get]
func (h *CommodityHandler) List(c echo.Context) error {
	items, err := h.commodities.List(c.Request().Context(), c.QueryParam("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /api/commodities/:id.
//
// @Summary      Get a commodity
// @Tags         commodities
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Commodity id"
// @Success      200  {object}  domain.Commodity
// @Failure      404  {object}  errorResponse
// @Router       /api/commodities/{id} [get]
func (h *CommodityHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.commodities.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// Create handles POST /api/commodities.
//
// @Summary      Add a commodity
// @Tags         commodities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      commodityRequest  true  "Commodity details"
// @Success      201   {object}  domain.Commodity
// @Failure      422   {object}  errorResponse
// @Router       /api/commodities [post]
func (h *CommodityHandler) Create(c echo.Context) error {
	var req commodityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	item, err := h.commodities.Create(c.Request().Context(), toCommodityInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

// Update handles PUT /api/commodities/:id.
//
// @Summary      Update a commodity
// @Tags         commodities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int               true  "Commodity id"
// @Param        body  body      commodityRequest  true  "Commodity details"
// @Success      200   {object}  domain.Commodity
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/commodities/{id} [put]
func (h *CommodityHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req commodityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	item, err := h.commodities.Update(c.Request().Context(), id, toCommodityInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// Delete handles DELETE /api/commodities/:id.
//
// @Summary      Remove a commodity
// @Tags         commodities
// @Security     BearerAuth
// @Param        id   path  int  true  "Commodity id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/commodities/{id} [delete]
func (h *CommodityHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.commodities.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
