package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/survey-campaign-bot/internal/conversation"
	"github.com/onurcolak/survey-campaign-bot/internal/domain"
	"github.com/onurcolak/survey-campaign-bot/internal/service"
	"github.com/onurcolak/survey-campaign-bot/pkg/response"
)

type workflowService interface {
	StartWorkflow(ctx context.Context) (conversation.CampaignResult, error)
	SendReminder(ctx context.Context, number, firstName, link string) (bool, error)
	ActiveClients() domain.ActiveSnapshot
	GetResponses(ctx context.Context, number string) ([]domain.Answer, error)
}

type WorkflowHandler struct {
	service workflowService
}

func NewWorkflowHandler(svc workflowService) *WorkflowHandler {
	return &WorkflowHandler{service: svc}
}

type StartWorkflowClient struct {
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	Number    string `json:"number"`
}

type StartWorkflowResponse struct {
	Message string                `json:"message"`
	Success int                   `json:"success"`
	Total   int                   `json:"total"`
	Clients []StartWorkflowClient `json:"clients,omitempty"`
}

type ReminderRequest struct {
	Number    string `json:"numero" validate:"required"`
	FirstName string `json:"prenom" validate:"required"`
	Link      string `json:"link" validate:"required"`
}

type ReminderClient struct {
	FirstName string `json:"prenom"`
	Number    string `json:"numero"`
}

type ReminderResponse struct {
	Message string         `json:"message"`
	Client  ReminderClient `json:"client"`
}

var reminderRequiredFields = []string{"numero", "prenom", "link"}

// StartWorkflow godoc
// @Summary Start the survey workflow
// @Description Greets every client who has not responded yet, pacing sends between contacts
// @Tags workflow
// @Produce json
// @Success 200 {object} StartWorkflowResponse
// @Failure 500 {object} response.FailureResponse
// @Router /start-workflow [post]
func (h *WorkflowHandler) StartWorkflow(c echo.Context) error {
	// The campaign keeps going if the caller disconnects.
	ctx := context.WithoutCancel(c.Request().Context())

	result, err := h.service.StartWorkflow(ctx)
	if err != nil {
		return response.Failure(c, http.StatusInternalServerError, "Failed to start workflow", err)
	}

	if result.Total == 0 {
		return c.JSON(http.StatusOK, StartWorkflowResponse{
			Message: "No pending clients found",
		})
	}

	clients := make([]StartWorkflowClient, 0, len(result.Results))
	for _, r := range result.Results {
		clients = append(clients, StartWorkflowClient{
			Name:      r.Client.LastName,
			FirstName: r.Client.FirstName,
			Number:    r.Client.Number,
		})
	}

	return c.JSON(http.StatusOK, StartWorkflowResponse{
		Message: fmt.Sprintf("Workflow started for %d/%d clients", result.SuccessCount, result.Total),
		Success: result.SuccessCount,
		Total:   result.Total,
		Clients: clients,
	})
}

// SendReminder godoc
// @Summary Start the workflow for one client
// @Description Uses the stored client record when the number is known, otherwise the request data
// @Tags workflow
// @Accept json
// @Produce json
// @Param request body ReminderRequest true "Client to remind"
// @Success 200 {object} ReminderResponse
// @Failure 400 {object} response.MissingFieldsResponse
// @Failure 500 {object} response.FailureResponse
// @Router /send-whatsapp-reminder [post]
func (h *WorkflowHandler) SendReminder(c echo.Context) error {
	var req ReminderRequest
	if err := c.Bind(&req); err != nil {
		return response.MissingFields(c, "Missing data", reminderRequiredFields)
	}

	if err := c.Validate(&req); err != nil {
		return response.MissingFields(c, "Missing data", reminderRequiredFields)
	}

	ok, err := h.service.SendReminder(c.Request().Context(), req.Number, req.FirstName, req.Link)
	if err != nil {
		if errors.Is(err, service.ErrInvalidNumber) {
			return response.Failure(c, http.StatusBadRequest, "Invalid phone number", err)
		}
		return response.Failure(c, http.StatusInternalServerError, "Failed to send initial message", err)
	}

	if !ok {
		return response.Failure(c, http.StatusInternalServerError, "Failed to send initial message", nil)
	}

	return c.JSON(http.StatusOK, ReminderResponse{
		Message: "WhatsApp workflow started successfully",
		Client: ReminderClient{
			FirstName: req.FirstName,
			Number:    req.Number,
		},
	})
}

// ActiveClients godoc
// @Summary List active conversations
// @Description Returns every contact currently in the workflow and their question progress
// @Tags workflow
// @Produce json
// @Success 200 {object} domain.ActiveSnapshot
// @Router /active-clients [get]
func (h *WorkflowHandler) ActiveClients(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.ActiveClients())
}

// GetResponses godoc
// @Summary List stored answers of a contact
// @Tags workflow
// @Produce json
// @Param numero path string true "Phone number"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/responses/{numero} [get]
func (h *WorkflowHandler) GetResponses(c echo.Context) error {
	answers, err := h.service.GetResponses(c.Request().Context(), c.Param("numero"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidNumber) {
			return response.BadRequest(c, err)
		}
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, answers)
}
