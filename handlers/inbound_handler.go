package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/survey-campaign-bot/internal/conversation"
	"github.com/onurcolak/survey-campaign-bot/internal/domain"
	"github.com/onurcolak/survey-campaign-bot/pkg/response"
	"github.com/onurcolak/survey-campaign-bot/pkg/validator"
)

type inboundRouter interface {
	Enqueue(ctx context.Context, msg domain.InboundMessage, done func(conversation.Outcome))
}

// InboundHandler receives message events pushed by the transport gateway.
type InboundHandler struct {
	router inboundRouter
}

func NewInboundHandler(router inboundRouter) *InboundHandler {
	return &InboundHandler{router: router}
}

// Receive godoc
// @Summary Receive an inbound message
// @Description Queues an inbound text event for the conversation engine
// @Tags inbound
// @Accept json
// @Produce json
// @Param x-gateway-inbound-key header string true "Gateway shared key"
// @Param request body domain.InboundMessage true "Inbound event"
// @Success 202 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Router /webhooks/inbound [post]
func (h *InboundHandler) Receive(c echo.Context) error {
	var msg domain.InboundMessage
	if err := c.Bind(&msg); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&msg); err != nil {
		return validator.HandleValidationError(c, err)
	}

	h.router.Enqueue(context.WithoutCancel(c.Request().Context()), msg, nil)

	return c.JSON(http.StatusAccepted, response.SuccessResponse{
		Success: true,
		Message: "Event accepted",
	})
}
