package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

// OrderHandler serves the counter order workflow and sales reports.
type OrderHandler struct {
	orders ports.OrderService
}

func NewOrderHandler(orders ports.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create handles POST /api/orders. Line prices and the total are taken from
// the catalog; client supplied values are ignored.
//
// @Summary      Place an order from a seat
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string              false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createOrderRequest  true   "Order details"
// @Success      201              {object}  domain.Order
// @Failure      400              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if claims.Role == domain.RoleUser && req.UserID != claims.ActorID {
		return domain.ErrForbidden
	}

	order, err := h.orders.Create(c.Request().Context(), toCreateOrderInput(req, idempotencyKey(c)))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, order)
}

// Get handles GET /api/orders/:id.
//
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Order id"
// @Success      200  {object}  domain.Order
// @Failure      404  {object}  errorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.orders.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// Search handles GET /api/orders/search. Customers only ever see their own
// orders, whatever userId they send.
//
// @Summary      Search orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status     query     string  false  "Pending, Completed or Cancelled"
// @Param        userId     query     int     false  "User id"
// @Param        machineId  query     int     false  "Machine id"
// @Param        startDate  query     string  false  "Start date (YYYY-MM-DD or RFC 3339)"
// @Param        endDate    query     string  false  "End date (YYYY-MM-DD or RFC 3339)"
// @Param        pageNum    query     int     false  "Page number"
// @Param        pageSize   query     int     false  "Page size"
// @Success      200        {object}  domain.Page[domain.Order]
// @Failure      400        {object}  errorResponse
// @Failure      422        {object}  errorResponse
// @Router       /api/orders/search [get]
func (h *OrderHandler) Search(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	filter, err := orderFilterFrom(c)
	if err != nil {
		return err
	}
	if claims.Role == domain.RoleUser {
		filter.UserID = claims.ActorID
	}

	page, err := h.orders.Search(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// UpdateStatus handles PUT /api/orders/:id/status?status=. Only pending
// orders move; cancelling refunds the customer and restocks.
//
// @Summary      Complete or cancel an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      int     true  "Order id"
// @Param        status  query     string  true  "Completed or Cancelled"
// @Success      200     {object}  domain.Order
// @Failure      404     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Router       /api/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	status := c.QueryParam("status")
	if status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}

	order, err := h.orders.UpdateStatus(c.Request().Context(), id, domain.OrderStatus(status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// PendingCount handles GET /api/orders/pending/count, polled by the console badge.
//
// @Summary      Number of pending orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  countResponse
// @Router       /api/orders/pending/count [get]
func (h *OrderHandler) PendingCount(c echo.Context) error {
	n, err := h.orders.PendingCount(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}

// SalesReport handles GET /api/reports/sales.
//
// @Summary      Revenue per day and best sellers over completed orders
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        startDate  query     string  false  "Start date (defaults to 7 days ago)"
// @Param        endDate    query     string  false  "End date (defaults to now)"
// @Success      200        {object}  domain.SalesReport
// @Failure      400        {object}  errorResponse
// @Failure      422        {object}  errorResponse
// @Router       /api/reports/sales [get]
func (h *OrderHandler) SalesReport(c echo.Context) error {
	from, err := queryTime(c, "startDate", false)
	if err != nil {
		return err
	}
	to, err := queryTime(c, "endDate", true)
	if err != nil {
		return err
	}

	report, err := h.orders.SalesReport(c.Request().Context(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func orderFilterFrom(c echo.Context) (ports.OrderFilter, error) {
	var (
		f   ports.OrderFilter
		err error
	)
	f.Status = c.QueryParam("status")
	if f.UserID, err = queryInt64(c, "userId"); err != nil {
		return f, err
	}
	if f.MachineID, err = queryInt64(c, "machineId"); err != nil {
		return f, err
	}
	if f.DateFrom, err = queryTime(c, "startDate", false); err != nil {
		return f, err
	}
	if f.DateTo, err = queryTime(c, "endDate", true); err != nil {
		return f, err
	}
	if f.PageNum, err = queryInt(c, "pageNum"); err != nil {
		return f, err
	}
	if f.PageSize, err = queryInt(c, "pageSize"); err != nil {
		return f, err
	}
	return f, nil
}
