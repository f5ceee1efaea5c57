package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/services"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

type HabitHandler struct {
	svc *services.HabitService
}

func NewHabitHandler(svc *services.HabitService) *HabitHandler {
	return &HabitHandler{
		svc: svc,
	}
}

type createHabitRequest struct {
	Title        string `json:"title" binding:"required"`
	Schedule     string `json:"schedule"`
	WeeklyTarget int    `json:"weekly_target"`
}

// updateHabitRequest leaves fields unchanged when they are empty.
type updateHabitRequest struct {
	Title        string `json:"title"`
	Schedule     string `json:"schedule"`
	WeeklyTarget int    `json:"weekly_target"`
	Version      int    `json:"version"`
}

// parseSchedule defaults to daily when kind is empty.
func parseSchedule(kind string, target int) (streak.Schedule, error) {
	if kind == "" {
		kind = streak.ScheduleDaily.String()
	}
	k, err := streak.ParseScheduleKind(kind)
	if err != nil {
		return streak.Schedule{}, err
	}
	if k == streak.ScheduleDaily {
		return streak.Daily(), nil
	}
	return streak.Weekly(target), nil
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.POST("", h.Create)
		habits.GET("", h.List)
		habits.GET("/sync", h.Sync)
		habits.GET("/:id", h.Get)
		habits.PUT("/:id", h.Update)
		habits.POST("/:id/pause", h.Pause)
		habits.POST("/:id/resume", h.Resume)
		habits.DELETE("/:id", h.Delete)
	}
}

// Create godoc
// @Summary  Create a habit
// @Tags     habits
// @Accept   json
// @Produce  json
// @Param    body body createHabitRequest true "habit"
// @Success  201 {object} domain.Habit
// @Failure  400 {object} map[string]string
// @Security BearerAuth
// @Router   /habits [post]
func (h *HabitHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	schedule, err := parseSchedule(req.Schedule, req.WeeklyTarget)
	if err != nil {
		handleError(c, err)
		return
	}

	habit, err := h.svc.Create(c.Request.Context(), services.CreateHabitInput{
		UserID:   userID,
		Title:    req.Title,
		Schedule: schedule,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, habit)
}

// List godoc
// @Summary  List habits
// @Tags     habits
// @Produce  json
// @Param    active query bool false "only active habits"
// @Success  200 {array} domain.Habit
// @Security BearerAuth
// @Router   /habits [get]
func (h *HabitHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	list, err := h.svc.List(c.Request.Context(), userID, c.Query("active") == "true")
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *HabitHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	habit, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Sync(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var lastSync time.Time
	if raw := c.Query("last_sync"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(c, "invalid last_sync format, use RFC3339")
			return
		}
		lastSync = parsed
	}

	deltas, err := h.svc.GetDelta(c.Request.Context(), userID, lastSync)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes":   deltas,
		"timestamp": time.Now().UTC(),
	})
}

// Update godoc
// @Summary  Rename or reschedule a habit
// @Tags     habits
// @Accept   json
// @Produce  json
// @Param    id   path string             true "habit id"
// @Param    body body updateHabitRequest true "changes"
// @Success  200 {object} domain.Habit
// @Failure  400,404,409 {object} map[string]string
// @Security BearerAuth
// @Router   /habits/{id} [put]
func (h *HabitHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req updateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	input := services.UpdateHabitInput{
		ID:      c.Param("id"),
		UserID:  userID,
		Title:   req.Title,
		Version: req.Version,
	}
	if req.Schedule != "" {
		schedule, err := parseSchedule(req.Schedule, req.WeeklyTarget)
		if err != nil {
			handleError(c, err)
			return
		}
		input.Schedule = &schedule
	}

	habit, err := h.svc.Update(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Pause(c *gin.Context) {
	h.setActive(c, false)
}

func (h *HabitHandler) Resume(c *gin.Context) {
	h.setActive(c, true)
}

func (h *HabitHandler) setActive(c *gin.Context, active bool) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	habit, err := h.svc.SetActive(c.Request.Context(), c.Param("id"), userID, active)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Delete(c *gin.Context) {
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
