package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-plan-api/internal/dto"
	"github.com/noah-isme/lesson-plan-api/internal/models"
	"github.com/noah-isme/lesson-plan-api/internal/service"
	"github.com/noah-isme/lesson-plan-api/pkg/response"
)

type lessonGenerator interface {
	Generate(ctx context.Context, req dto.AILessonRequest, actor models.UserInfo) (*dto.AILessonPlan, error)
	GenerateDocument(ctx context.Context, req dto.AILessonRequest, actor models.UserInfo) (*service.Document, error)
}

// LessonHandler exposes AI lesson drafting.
type LessonHandler struct {
	generator lessonGenerator
}

// NewLessonHandler constructs the lesson handler.
func NewLessonHandler(generator lessonGenerator) *LessonHandler {
	return &LessonHandler{generator: generator}
}

// Plan godoc
// @Summary Draft a lesson plan
// @Description Drafts a structured lesson plan with the configured language model.
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AILessonRequest true "Session to plan"
// @Success 200 {object} response.Envelope{data=dto.AILessonPlan}
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /generate-ai-lesson-plan [post]
func (h *LessonHandler) Plan(c *gin.Context) {
	user, req, ok := h.bind(c)
	if !ok {
		return
	}
	plan, err := h.generator.Generate(c.Request.Context(), req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Document godoc
// @Summary Draft a lesson plan as Word
// @Tags AI
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.wordprocessingml.document
// @Security BearerAuth
// @Param payload body dto.AILessonRequest true "Session to plan"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /generate-ai-lesson-docx [post]
func (h *LessonHandler) Document(c *gin.Context) {
	user, req, ok := h.bind(c)
	if !ok {
		return
	}
	doc, err := h.generator.GenerateDocument(c.Request.Context(), req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, doc.Filename, doc.ContentType, doc.Payload)
}

func (h *LessonHandler) bind(c *gin.Context) (models.UserInfo, dto.AILessonRequest, bool) {
	var req dto.AILessonRequest
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return user, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid lesson request"))
		return user, req, false
	}
	req.Section = sectionOrDefault(req.Section, user)
	return user, req, true
}
