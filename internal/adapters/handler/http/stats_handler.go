package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/services"
)

type StatsHandler struct {
	svc *services.StatsService
}

func NewStatsHandler(svc *services.StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	stats := r.Group("/stats")
	{
		stats.GET("", h.GetUserStats)
		stats.GET("/habits/:id", h.GetHabitStats)
	}
}

// GetUserStats godoc
// @Summary  Streaks and completion counts for every habit
// @Tags     stats
// @Produce  json
// @Success  200 {object} domain.UserStats
// @Security BearerAuth
// @Router   /stats [get]
func (h *StatsHandler) GetUserStats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	stats, err := h.svc.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetHabitStats godoc
// @Summary  Streaks and completion counts for one habit
// @Tags     stats
// @Produce  json
// @Param    id path string true "habit id"
// @Success  200 {object} domain.HabitStatsView
// @Failure  403,404 {object} map[string]string
// @Security BearerAuth
// @Router   /stats/habits/{id} [get]
func (h *StatsHandler) GetHabitStats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	stats, err := h.svc.GetHabitStats(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
