package handlers

import (
	"errors"
	"net/http"

	"cputempwidget/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK      = "ok"
	statusStarted = "started"
	statusStopped = "stopped"

	errStartMonitor   = "failed to start monitor"
	errGetSettings    = "failed to load settings"
	errUpdateSettings = "failed to update settings"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// SettingsRequest is the PUT /widget/settings payload. All fields are
// optional; omitted fields keep their current value.
type SettingsRequest struct {
	// Warning threshold in Celsius (clamped to 40..100)
	ThresholdC *float64 `json:"threshold_c,omitempty" example:"70"`
	// Poll interval in seconds (minimum 0.1)
	PollIntervalSec *float64 `json:"poll_interval_s,omitempty" example:"1"`
	PositionX       *int     `json:"position_x,omitempty"`
	PositionY       *int     `json:"position_y,omitempty"`
	// Reset the widget back to the center of the primary screen
	ResetPosition  bool    `json:"reset_position,omitempty"`
	PositionLocked *bool   `json:"position_locked,omitempty"`
	AlwaysOnTop    *bool   `json:"always_on_top,omitempty"`
	// Percent, clamped to 30..90
	Transparency *int `json:"transparency,omitempty" example:"60"`
	// One of: small, medium, large
	TextSize      *string `json:"text_size,omitempty" example:"medium"`
	WidgetVisible *bool   `json:"widget_visible,omitempty"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Latest monitor snapshot
// @Tags         widget
// @Produce      json
// @Success      200  {object}  models.Snapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/widget/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitor.Snapshot())
}

// @Summary      Get widget settings
// @Tags         widget
// @Produce      json
// @Success      200  {object}  models.WidgetSettings
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/widget/settings [get]
// @Security     BearerAuth
func (h *Handler) getSettings(c *gin.Context) {
	st, err := h.services.Settings.Get(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetSettings, "settings_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Update widget settings
// @Description  Partial update; threshold and interval changes reconfigure the monitor before its next tick
// @Tags         widget
// @Accept       json
// @Produce      json
// @Param        body  body   SettingsRequest  true  "Settings payload"
// @Success      200   {object}  models.WidgetSettings
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/widget/settings [put]
// @Security     BearerAuth
func (h *Handler) updateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	st, err := h.services.Settings.Update(c.Request.Context(), service.SettingsParams{
		ThresholdC:      req.ThresholdC,
		PollIntervalSec: req.PollIntervalSec,
		PositionX:       req.PositionX,
		PositionY:       req.PositionY,
		ResetPosition:   req.ResetPosition,
		PositionLocked:  req.PositionLocked,
		AlwaysOnTop:     req.AlwaysOnTop,
		Transparency:    req.Transparency,
		TextSize:        req.TextSize,
		WidgetVisible:   req.WidgetVisible,
	})
	if err != nil {
		if h.log != nil {
			h.log.Errorw("settings_update_failed", "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Start the temperature monitor
// @Tags         widget
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/widget/monitor/start [post]
// @Security     BearerAuth
func (h *Handler) startMonitor(c *gin.Context) {
	if err := h.services.Monitor.Start(c.Request.Context()); err != nil {
		if errors.Is(err, service.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errStartMonitor, "monitor_start_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": statusStarted,
		"state":  h.services.Monitor.Snapshot(),
	})
}

// @Summary      Stop the temperature monitor
// @Description  Idempotent; stopping a stopped monitor is a no-op
// @Tags         widget
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/widget/monitor/stop [post]
// @Security     BearerAuth
func (h *Handler) stopMonitor(c *gin.Context) {
	h.services.Monitor.Stop()
	c.JSON(http.StatusOK, gin.H{
		"status": statusStopped,
		"state":  h.services.Monitor.Snapshot(),
	})
}
