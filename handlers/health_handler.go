package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type dbPinger interface {
	PingContext(ctx context.Context) error
}

type cachePinger interface {
	Ping(ctx context.Context) error
}

type gatewayStatus interface {
	SessionStatus(ctx context.Context) (string, error)
}

// HealthHandler handles health checks.
type HealthHandler struct {
	db           dbPinger
	redis        cachePinger
	gateway      gatewayStatus
	checkTimeout time.Duration
}

// NewHealthHandler builds the handler. redis and gateway may be nil.
func NewHealthHandler(db dbPinger, redis cachePinger, gateway gatewayStatus) *HealthHandler {
	return &HealthHandler{
		db:           db,
		redis:        redis,
		gateway:      gateway,
		checkTimeout: 2 * time.Second,
	}
}

// Health returns overall status and component statuses.
// @Summary Health check
// @Description Returns overall status with database, Redis and gateway connectivity results
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.checkTimeout)
	defer cancel()

	overallStatus := "ok"

	dbStatus := "up"
	if h.db == nil {
		dbStatus = "down"
		overallStatus = "down"
	} else if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "down"
		overallStatus = "down"
	}

	redisStatus := "disabled"
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			redisStatus = "down"
			if overallStatus == "ok" {
				overallStatus = "degraded"
			}
		} else {
			redisStatus = "up"
		}
	}

	gatewayState := "unknown"
	if h.gateway != nil {
		state, err := h.gateway.SessionStatus(ctx)
		if err != nil {
			gatewayState = "down"
			if overallStatus == "ok" {
				overallStatus = "degraded"
			}
		} else {
			gatewayState = state
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().Format(time.RFC3339),
		"components": map[string]any{
			"database": map[string]any{
				"status": dbStatus,
			},
			"redis": map[string]any{
				"status": redisStatus,
			},
			"gateway": map[string]any{
				"status": gatewayState,
			},
		},
	})
}
