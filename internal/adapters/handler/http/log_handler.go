package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/services"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

type LogHandler struct {
	svc *services.LogService
}

func NewLogHandler(svc *services.LogService) *LogHandler {
	return &LogHandler{
		svc: svc,
	}
}

type markRequest struct {
	HabitID string `json:"habit_id" binding:"required"`
	// Date is YYYY-MM-DD; empty means the user's today.
	Date   string `json:"date"`
	Status string `json:"status" binding:"required"`
}

func (h *LogHandler) RegisterRoutes(router *gin.RouterGroup) {
	logs := router.Group("/logs")
	{
		logs.POST("", h.Mark)
		logs.GET("", h.ListByHabit)
		logs.GET("/sync", h.Sync)
		logs.DELETE("/:id", h.Delete)
	}
}

// Mark godoc
// @Summary  Mark a habit on a day
// @Tags     logs
// @Accept   json
// @Produce  json
// @Param    body body markRequest true "mark"
// @Success  200 {object} domain.HabitLog
// @Failure  400,403,404,422 {object} map[string]string
// @Security BearerAuth
// @Router   /logs [post]
func (h *LogHandler) Mark(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	status, err := streak.ParseStatus(req.Status)
	if err != nil {
		handleError(c, err)
		return
	}

	input := services.MarkInput{
		HabitID: req.HabitID,
		UserID:  userID,
		Status:  status,
	}
	if req.Date != "" {
		d, err := streak.ParseDate(req.Date)
		if err != nil {
			badRequest(c, "invalid date format, expected YYYY-MM-DD")
			return
		}
		input.Date = &d
	}

	entry, err := h.svc.Mark(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// ListByHabit godoc
// @Summary  List the marks of a habit
// @Tags     logs
// @Produce  json
// @Param    habit_id query string true  "habit id"
// @Param    from     query string false "YYYY-MM-DD"
// @Param    to       query string false "YYYY-MM-DD"
// @Success  200 {array} domain.HabitLog
// @Security BearerAuth
// @Router   /logs [get]
func (h *LogHandler) ListByHabit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	habitID := c.Query("habit_id")
	if habitID == "" {
		badRequest(c, "habit_id is required")
		return
	}

	from, ok := parseDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		return
	}

	var fromDate, toDate streak.Date
	if from != nil {
		fromDate = *from
	}
	if to != nil {
		toDate = *to
	}

	list, err := h.svc.List(c.Request.Context(), habitID, userID, fromDate, toDate)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *LogHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *LogHandler) Sync(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(c, "invalid date format (use RFC3339)")
			return
		}
		since = parsed
	}

	changes, err := h.svc.GetDelta(c.Request.Context(), userID, since)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes":   changes,
		"timestamp": time.Now().UTC(),
	})
}
