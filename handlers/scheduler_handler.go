package handlers

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/survey-campaign-bot/internal/scheduler"
	"github.com/onurcolak/survey-campaign-bot/pkg/response"
)

type timerScheduler interface {
	Start(ctx context.Context) error
	Stop() error
	IsRunning() bool
	GetStatus() scheduler.SchedulerStatus
}

// SchedulerHandler exposes the conversation timer queue. Stopping it
// pauses every pending escalation and completion check; they fire once
// it is started again.
type SchedulerHandler struct {
	scheduler timerScheduler
	ctx       context.Context
}

func NewSchedulerHandler(sched timerScheduler, ctx context.Context) *SchedulerHandler {
	return &SchedulerHandler{
		scheduler: sched,
		ctx:       ctx,
	}
}

// StartScheduler godoc
// @Summary Start the timer scheduler
// @Tags scheduler
// @Produce json
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/scheduler/start [post]
func (h *SchedulerHandler) StartScheduler(c echo.Context) error {
	if h.scheduler.IsRunning() {
		return response.OkWithMessage(c, "Scheduler is already running", h.scheduler.GetStatus())
	}

	if err := h.scheduler.Start(h.ctx); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Scheduler started successfully", h.scheduler.GetStatus())
}

// StopScheduler godoc
// @Summary Pause the timer scheduler
// @Tags scheduler
// @Produce json
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/scheduler/stop [post]
func (h *SchedulerHandler) StopScheduler(c echo.Context) error {
	if !h.scheduler.IsRunning() {
		return response.OkWithMessage(c, "Scheduler is already stopped", h.scheduler.GetStatus())
	}

	if err := h.scheduler.Stop(); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Scheduler stopped successfully", h.scheduler.GetStatus())
}

// GetSchedulerStatus godoc
// @Summary Get timer scheduler status
// @Description Returns pending, fired and cancelled conversation timers
// @Tags scheduler
// @Produce json
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/scheduler/status [get]
func (h *SchedulerHandler) GetSchedulerStatus(c echo.Context) error {
	return response.Ok(c, h.scheduler.GetStatus())
}
