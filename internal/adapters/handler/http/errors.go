package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/services"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

// handleError maps domain errors to responses. Anything unknown is a 500
// and is logged with the request.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized access"})

	case errors.Is(err, domain.ErrHabitNotFound),
		errors.Is(err, domain.ErrLogNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})

	case errors.Is(err, domain.ErrHabitConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "version conflict",
			"message": "data has been modified elsewhere, please sync",
		})

	case errors.Is(err, domain.ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})

	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})

	case errors.Is(err, domain.ErrHabitInactive):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrHabitTitleEmpty),
		errors.Is(err, domain.ErrHabitTitleTooLong),
		errors.Is(err, domain.ErrInvalidSchedule),
		errors.Is(err, domain.ErrInvalidLog),
		errors.Is(err, domain.ErrFutureDate),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrInvalidTimezone),
		errors.Is(err, domain.ErrInvalidReminder),
		errors.Is(err, domain.ErrReminderTimeNeeded),
		errors.Is(err, services.ErrInvalidRange),
		errors.Is(err, streak.ErrUnknownStatus),
		errors.Is(err, streak.ErrUnknownSchedule),
		errors.Is(err, streak.ErrInvalidWeeklyTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		_ = c.Error(err)
		log.WithError(err).WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("[HTTP] Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// requireUser reads the authenticated user id or answers 401.
func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return userID, ok
}

func parseDateQuery(c *gin.Context, name string) (*streak.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := streak.ParseDate(raw)
	if err != nil {
		badRequest(c, "invalid "+name+" format, expected YYYY-MM-DD")
		return nil, false
	}
	return &d, true
}
