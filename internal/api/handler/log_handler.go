package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

type LogHandler struct {
	logs ports.LogService
}

func NewLogHandler(logs ports.LogService) *LogHandler {
	return &LogHandler{logs: logs}
}

// UserLogs handles GET /api/logs/user.
//
// @Summary      Customer activity log
// @Tags         logs
// @Produce      json
// @Security     BearerAuth
// @Param        actorId   query     string  false  "User id"
// @Param        action    query     string  false  "Action"
// @Param        keyword   query     string  false  "Partial match on details"
// @Param        pageNum   query     int     false  "Page number"
// @Param        pageSize  query     int     false  "Page size"
// @Success      200       {object}  domain.Page[domain.LogEntry]
// @Router       /api/logs/user [get]
func (h *LogHandler) UserLogs(c echo.Context) error {
	return h.list(c, domain.LogUser)
}

// ManagementLogs handles GET /api/logs/management.
//
// @Summary      Operator activity log
// @Tags         logs
// @Produce      json
// @Security     BearerAuth
// @Param        actorId   query     string  false  "Operator username"
// @Param        action    query     string  false  "Action"
// @Param        keyword   query     string  false  "Partial match on details"
// @Param        pageNum   query     int     false  "Page number"
// @Param        pageSize  query     int     false  "Page size"
// @Success      200       {object}  domain.Page[domain.LogEntry]
// @Router       /api/logs/management [get]
func (h *LogHandler) ManagementLogs(c echo.Context) error {
	return h.list(c, domain.LogManagement)
}

func (h *LogHandler) list(c echo.Context, kind domain.LogKind) error {
	pageNum, err := queryInt(c, "pageNum")
	if err != nil {
		return err
	}
	pageSize, err := queryInt(c, "pageSize")
	if err != nil {
		return err
	}

	page, err := h.logs.List(c.Request().Context(), ports.LogFilter{
		Kind:     kind,
		ActorID:  c.QueryParam("actorId"),
		Action:   c.QueryParam("action"),
		Keyword:  c.QueryParam("keyword"),
		PageNum:  pageNum,
		PageSize: pageSize,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}
