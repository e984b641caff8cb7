package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

type MessageHandler struct {
	messages ports.MessageService
}

func NewMessageHandler(messages ports.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Call handles POST /api/messages: a seated customer calls for staff.
//
// @Summary      Call for staff
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      callRequest  true  "Call details"
// @Success      201   {object}  domain.Message
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/messages [post]
func (h *MessageHandler) Call(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req callRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if claims.Role == domain.RoleUser && req.UserID != claims.ActorID {
		return domain.ErrForbidden
	}

	msg, err := h.messages.Call(c.Request().Context(), req.UserID, req.MachineID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

// Pending handles GET /api/messages/pending, oldest first.
//
// @Summary      Pending staff calls and system notices
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Message
// @Router       /api/messages/pending [get]
func (h *MessageHandler) Pending(c echo.Context) error {
	msgs, err := h.messages.Pending(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msgs)
}

// Handle handles PUT /api/messages/:id/handle.
//
// @Summary      Mark a call as handled
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Message id"
// @Success      200  {object}  domain.Message
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /api/messages/{id}/handle [put]
func (h *MessageHandler) Handle(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	msg, err := h.messages.Handle(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msg)
}

// Cancel handles PUT /api/messages/:id/cancel.
//
// @Summary      Cancel a call
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Message id"
// @Success      200  {object}  domain.Message
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /api/messages/{id}/cancel [put]
func (h *MessageHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	msg, err := h.messages.Cancel(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msg)
}
