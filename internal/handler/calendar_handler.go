package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-plan-api/internal/models"
	"github.com/noah-isme/lesson-plan-api/pkg/response"
)

type academicCalendar interface {
	Weeks() []models.WeekRange
	WeekOf(t time.Time) (int, bool)
}

// CalendarHandler exposes the academic week calendar.
type CalendarHandler struct {
	calendar academicCalendar
	now      func() time.Time
}

// NewCalendarHandler constructs the calendar handler.
func NewCalendarHandler(calendar academicCalendar) *CalendarHandler {
	return &CalendarHandler{calendar: calendar, now: time.Now}
}

// Weeks godoc
// @Summary List academic weeks
// @Description Returns the Sunday to Thursday dates of every week and the current week, if any.
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /weeks [get]
func (h *CalendarHandler) Weeks(c *gin.Context) {
	payload := gin.H{"weeks": h.calendar.Weeks()}
	if current, ok := h.calendar.WeekOf(h.now()); ok {
		payload["current"] = current
	}
	response.JSON(c, http.StatusOK, payload, nil)
}
