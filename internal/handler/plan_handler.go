package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-plan-api/internal/dto"
	"github.com/noah-isme/lesson-plan-api/internal/middleware"
	"github.com/noah-isme/lesson-plan-api/internal/models"
	"github.com/noah-isme/lesson-plan-api/internal/service"
	appErrors "github.com/noah-isme/lesson-plan-api/pkg/errors"
	"github.com/noah-isme/lesson-plan-api/pkg/response"
)

type planService interface {
	GetPlan(ctx context.Context, week int, section models.Section, filter service.RowFilter, actor models.UserInfo) (*models.WeeklyPlan, error)
	SavePlan(ctx context.Context, req dto.SavePlanRequest, actor models.UserInfo) ([]models.SessionRow, error)
	SaveRow(ctx context.Context, req dto.SaveRowRequest, actor models.UserInfo) (*models.SessionRow, error)
	SaveRows(ctx context.Context, req dto.SaveRowsRequest, actor models.UserInfo) ([]models.SessionRow, error)
	SaveNotes(ctx context.Context, req dto.SaveNotesRequest, actor models.UserInfo) error
	AllClasses(ctx context.Context, section models.Section, actor models.UserInfo) ([]string, error)
}

type weekCalendar interface {
	Week(week int) (models.WeekRange, error)
}

// PlanHandler serves weekly plan reads and edits.
type PlanHandler struct {
	service  planService
	calendar weekCalendar
}

// NewPlanHandler constructs the plan handler. calendar may be nil.
func NewPlanHandler(svc planService, calendar weekCalendar) *PlanHandler {
	return &PlanHandler{service: svc, calendar: calendar}
}

// Get godoc
// @Summary Get weekly plan
// @Description Returns the rows and class notes of a week. Teachers only receive their own rows.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param week path int true "Week number (1-48)"
// @Param section query string false "boys or girls, defaults to the login section"
// @Param teacher query string false "Filter by teacher"
// @Param class query string false "Filter by class"
// @Param subject query string false "Filter by subject"
// @Param day query string false "Filter by day"
// @Param period query int false "Filter by period"
// @Param sort query bool false "Sort by class, day and period instead of stored order"
// @Success 200 {object} response.Envelope{data=dto.PlanResponse}
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /plans/{week} [get]
func (h *PlanHandler) Get(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	week, err := weekParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.PlanQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid plan query"))
		return
	}
	section, err := sectionQuery(c, user)
	if err != nil {
		response.Error(c, err)
		return
	}

	filter := service.RowFilter{Teacher: query.Teacher, Class: query.Class, Subject: query.Subject, Period: query.Period, Sort: query.Sort}
	if strings.TrimSpace(query.Day) != "" {
		day, err := models.ParseDay(query.Day)
		if err != nil {
			response.Error(c, appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "invalid plan query"), map[string]string{"day": err.Error()}))
			return
		}
		filter.Day = day
	}

	plan, err := h.service.GetPlan(c.Request.Context(), week, section, filter, user)
	if err != nil {
		response.Error(c, err)
		return
	}

	res := dto.PlanResponse{Week: plan.Week, Section: plan.Section, PlanData: plan.Rows, ClassNotes: plan.ClassNotes}
	if h.calendar != nil {
		if dates, err := h.calendar.Week(week); err == nil {
			res.Dates = &dates
		}
	}
	middleware.SetMeta(c, "rows", len(plan.Rows))
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

// SavePlan godoc
// @Summary Replace weekly plan
// @Description Replaces every row of a week. Administrators only; duplicate sessions are rejected.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SavePlanRequest true "Plan payload"
// @Success 200 {object} response.Envelope{data=dto.SavePlanResponse}
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /save-plan [post]
func (h *PlanHandler) SavePlan(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SavePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid plan payload"))
		return
	}
	req.Section = sectionOrDefault(req.Section, user)

	rows, err := h.service.SavePlan(c.Request.Context(), req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SavePlanResponse{Success: true, Rows: len(rows), Data: rows}, nil)
}

// SaveRow godoc
// @Summary Update one session
// @Description Merges the submitted fields into the row matching the id, or the composite key for legacy payloads.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SaveRowRequest true "Row payload"
// @Success 200 {object} response.Envelope{data=dto.SaveRowResponse}
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /save-row [post]
func (h *PlanHandler) SaveRow(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SaveRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid row payload"))
		return
	}
	req.Section = sectionOrDefault(req.Section, user)

	row, err := h.service.SaveRow(c.Request.Context(), req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SaveRowResponse{Success: true, UpdatedData: *row}, nil)
}

// SaveRows godoc
// @Summary Update several sessions
// @Description Applies every row update or none of them.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SaveRowsRequest true "Rows payload"
// @Success 200 {object} response.Envelope{data=dto.SaveRowsResponse}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /save-rows [post]
func (h *PlanHandler) SaveRows(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SaveRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid rows payload"))
		return
	}
	req.Section = sectionOrDefault(req.Section, user)

	rows, err := h.service.SaveRows(c.Request.Context(), req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SaveRowsResponse{Success: true, UpdatedData: rows}, nil)
}

// SaveNotes godoc
// @Summary Save class notes
// @Description Stores the note of one class for a week.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SaveNotesRequest true "Notes payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /save-notes [post]
func (h *PlanHandler) SaveNotes(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SaveNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid notes payload"))
		return
	}
	req.Section = sectionOrDefault(req.Section, user)

	if err := h.service.SaveNotes(c.Request.Context(), req, user); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"success": true}, nil)
}

// AllClasses godoc
// @Summary List classes
// @Description Lists the distinct classes of a section in display order.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param section query string false "boys or girls, defaults to the login section"
// @Success 200 {object} response.Envelope{data=dto.ClassesResponse}
// @Failure 400 {object} response.Envelope
// @Router /all-classes [get]
func (h *PlanHandler) AllClasses(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	section, err := sectionQuery(c, user)
	if err != nil {
		response.Error(c, err)
		return
	}

	classes, err := h.service.AllClasses(c.Request.Context(), section, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ClassesResponse{Section: section, Classes: classes}, nil)
}
