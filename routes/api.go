package routes

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/onurcolak/survey-campaign-bot/environments"
	"github.com/onurcolak/survey-campaign-bot/handlers"
	"github.com/onurcolak/survey-campaign-bot/internal/middlewares"
)

// RegisterRoutes registers all API routes with middleware
func RegisterRoutes(
	e *echo.Echo,
	healthHandler *handlers.HealthHandler,
	workflowHandler *handlers.WorkflowHandler,
	inboundHandler *handlers.InboundHandler,
	schedulerHandler *handlers.SchedulerHandler,
	cfg *environments.Config,
) {
	e.GET("/health", healthHandler.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Workflow control surface
	e.POST("/start-workflow", workflowHandler.StartWorkflow)
	e.POST("/send-whatsapp-reminder", workflowHandler.SendReminder)
	e.GET("/active-clients", workflowHandler.ActiveClients)

	// Inbound events pushed by the transport gateway
	webhooks := e.Group("/webhooks", middlewares.InboundKeyAuth(cfg.Gateway.InboundKey))
	webhooks.POST("/inbound", inboundHandler.Receive)

	v1 := e.Group("/api/v1")
	v1.GET("/responses/:numero", workflowHandler.GetResponses)

	schedulerGroup := v1.Group("/scheduler")
	schedulerGroup.POST("/start", schedulerHandler.StartScheduler)
	schedulerGroup.POST("/stop", schedulerHandler.StopScheduler)
	schedulerGroup.GET("/status", schedulerHandler.GetSchedulerStatus)
}
