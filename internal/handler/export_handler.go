package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-plan-api/internal/dto"
	"github.com/noah-isme/lesson-plan-api/internal/models"
	"github.com/noah-isme/lesson-plan-api/internal/service"
	"github.com/noah-isme/lesson-plan-api/pkg/response"
)

type exportService interface {
	ClassDocument(ctx context.Context, req dto.ClassDocumentRequest, actor models.UserInfo) (*service.Document, error)
	ClassPDF(ctx context.Context, req dto.ClassDocumentRequest, actor models.UserInfo) (*service.Document, error)
	Workbook(ctx context.Context, req dto.WorkbookRequest, actor models.UserInfo) (*service.Document, error)
	FullReportByClass(ctx context.Context, req dto.ClassReportRequest, actor models.UserInfo) (*service.Document, error)
	CSV(ctx context.Context, req dto.WorkbookRequest, actor models.UserInfo) (*service.Document, error)
}

// ExportHandler streams generated documents.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the export handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Word godoc
// @Summary Word plan of a class
// @Tags Exports
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.wordprocessingml.document
// @Security BearerAuth
// @Param payload body dto.ClassDocumentRequest true "Class and week"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /generate-word [post]
func (h *ExportHandler) Word(c *gin.Context) {
	h.classDocument(c, h.service.ClassDocument)
}

// PDF godoc
// @Summary PDF plan of a class
// @Tags Exports
// @Accept json
// @Produce application/pdf
// @Security BearerAuth
// @Param payload body dto.ClassDocumentRequest true "Class and week"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /generate-pdf [post]
func (h *ExportHandler) PDF(c *gin.Context) {
	h.classDocument(c, h.service.ClassPDF)
}

func (h *ExportHandler) classDocument(c *gin.Context, render func(context.Context, dto.ClassDocumentRequest, models.UserInfo) (*service.Document, error)) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ClassDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid export payload"))
		return
	}
	req.Section = sectionOrDefault(req.Section, user)

	doc, err := render(c.Request.Context(), req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, doc.Filename, doc.ContentType, doc.Payload)
}

// Workbook godoc
// @Summary Excel workbook of a week
// @Description One sheet per class; teacher, class and subject narrow the rows.
// @Tags Exports
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param payload body dto.WorkbookRequest true "Week and filters"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /generate-excel-workbook [post]
func (h *ExportHandler) Workbook(c *gin.Context) {
	h.weekDocument(c, h.service.Workbook)
}

// CSV godoc
// @Summary CSV export of a week
// @Tags Exports
// @Accept json
// @Produce text/csv
// @Security BearerAuth
// @Param payload body dto.WorkbookRequest true "Week and filters"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /generate-csv [post]
func (h *ExportHandler) CSV(c *gin.Context) {
	h.weekDocument(c, h.service.CSV)
}

func (h *ExportHandler) weekDocument(c *gin.Context, render func(context.Context, dto.WorkbookRequest, models.UserInfo) (*service.Document, error)) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.WorkbookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid export payload"))
		return
	}
	req.Section = sectionOrDefault(req.Section, user)

	doc, err := render(c.Request.Context(), req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, doc.Filename, doc.ContentType, doc.Payload)
}

// FullReportByClass godoc
// @Summary Full report of a class
// @Description Every saved week of one class on a single sheet.
// @Tags Exports
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param payload body dto.ClassReportRequest true "Class"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /full-report-by-class [post]
func (h *ExportHandler) FullReportByClass(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ClassReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid export payload"))
		return
	}
	req.Section = sectionOrDefault(req.Section, user)

	doc, err := h.service.FullReportByClass(c.Request.Context(), req, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, doc.Filename, doc.ContentType, doc.Payload)
}
