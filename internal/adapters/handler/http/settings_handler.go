package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/services"
)

type SettingsHandler struct {
	svc *services.UserService
}

func NewSettingsHandler(svc *services.UserService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

type settingsPayload struct {
	Timezone         string  `json:"timezone"`
	ReminderTime     *string `json:"reminder_time"`
	RemindersEnabled bool    `json:"reminders_enabled"`
	TelegramChatID   *int64  `json:"telegram_chat_id"`
}

func toPayload(s domain.UserSettings) settingsPayload {
	return settingsPayload{
		Timezone:         s.Timezone,
		ReminderTime:     s.ReminderTime,
		RemindersEnabled: s.RemindersEnabled,
		TelegramChatID:   s.TelegramChatID,
	}
}

func (h *SettingsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/settings", h.Get)
	r.PUT("/settings", h.Update)
}

func (h *SettingsHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	settings, err := h.svc.GetSettings(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPayload(settings))
}

// Update godoc
// @Summary  Change timezone and reminder settings
// @Tags     settings
// @Accept   json
// @Produce  json
// @Param    body body settingsPayload true "settings"
// @Success  200 {object} settingsPayload
// @Failure  400 {object} map[string]string
// @Security BearerAuth
// @Router   /settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req settingsPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	settings, err := h.svc.UpdateSettings(c.Request.Context(), userID, domain.UserSettings{
		Timezone:         req.Timezone,
		ReminderTime:     req.ReminderTime,
		RemindersEnabled: req.RemindersEnabled,
		TelegramChatID:   req.TelegramChatID,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPayload(settings))
}
