package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lesson-plan-api/internal/dto"
	"github.com/noah-isme/lesson-plan-api/internal/models"
	appErrors "github.com/noah-isme/lesson-plan-api/pkg/errors"
	"github.com/noah-isme/lesson-plan-api/pkg/export"
	"github.com/noah-isme/lesson-plan-api/pkg/validation"
)

// Content types of generated documents.
const (
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

type planReader interface {
	GetPlan(ctx context.Context, week int, section models.Section, filter RowFilter, actor models.UserInfo) (*models.WeeklyPlan, error)
	ClassHistory(ctx context.Context, section models.Section, class string, actor models.UserInfo) ([]ClassWeek, error)
	Ordering() ClassOrdering
}

// Document is a generated file ready to be streamed.
type Document struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService builds Word, Excel, PDF and CSV documents from stored plans.
type ExportService struct {
	plans      planReader
	calendar   *CalendarService
	validator  *validation.Validator
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	xlsx       *export.XLSXExporter
	docx       *export.DOCXExporter
	metrics    *MetricsService
	logger     *zap.Logger
	schoolName string
}

// NewExportService constructs the export service.
func NewExportService(plans planReader, calendar *CalendarService, validate *validation.Validator, metrics *MetricsService, logger *zap.Logger, schoolName string) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &ExportService{
		plans:      plans,
		calendar:   calendar,
		validator:  validate,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		xlsx:       export.NewXLSXExporter(),
		docx:       export.NewDOCXExporter(),
		metrics:    metrics,
		logger:     logger,
		schoolName: schoolName,
	}
}

// ClassDocument renders the Word plan of one class for one week.
func (s *ExportService) ClassDocument(ctx context.Context, req dto.ClassDocumentRequest, actor models.UserInfo) (*Document, error) {
	report, err := s.classReport(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	payload, err := s.docx.Render(*report)
	if err != nil {
		return nil, s.renderError("docx", err)
	}
	return s.document("docx", classFilename(int(req.Week), req.Section, req.Classe, "docx"), ContentTypeDOCX, payload), nil
}

// ClassPDF renders the same class plan as ClassDocument in PDF form.
func (s *ExportService) ClassPDF(ctx context.Context, req dto.ClassDocumentRequest, actor models.UserInfo) (*Document, error) {
	report, err := s.classReport(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(*report)
	if err != nil {
		return nil, s.renderError("pdf", err)
	}
	return s.document("pdf", classFilename(int(req.Week), req.Section, req.Classe, "pdf"), ContentTypePDF, payload), nil
}

func (s *ExportService) classReport(ctx context.Context, req dto.ClassDocumentRequest, actor models.UserInfo) (*export.Report, error) {
	req.Classe = strings.TrimSpace(req.Classe)
	if err := s.validator.Struct(req, "invalid export payload"); err != nil {
		return nil, err
	}
	plan, err := s.plans.GetPlan(ctx, int(req.Week), req.Section, RowFilter{Class: req.Classe, Sort: true}, actor)
	if err != nil {
		return nil, err
	}
	if len(plan.Rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no sessions for class %s in week %d", req.Classe, req.Week))
	}

	labels := labelsFor(actor.Language)
	table := s.weekTable(labels, plan.Rows, false)
	section := export.Section{Heading: fmt.Sprintf("%s: %s", labels.Class, req.Classe), Table: &table}
	if note := noteFor(plan.ClassNotes, req.Classe); note != "" {
		section.Paragraphs = []string{fmt.Sprintf("%s: %s", labels.Notes, note)}
	}
	return &export.Report{
		Title:     s.title(labels.PlanTitle),
		Subtitle:  s.weekSubtitle(labels, int(req.Week), req.Section),
		Landscape: true,
		Sections:  []export.Section{section},
	}, nil
}

// Workbook renders a week as an Excel workbook with one sheet per class.
func (s *ExportService) Workbook(ctx context.Context, req dto.WorkbookRequest, actor models.UserInfo) (*Document, error) {
	if err := s.validator.Struct(req, "invalid export payload"); err != nil {
		return nil, err
	}
	plan, err := s.plans.GetPlan(ctx, int(req.Week), req.Section, RowFilter{Teacher: req.Teacher, Class: req.Classe, Subject: req.Subject, Sort: true}, actor)
	if err != nil {
		return nil, err
	}
	if len(plan.Rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no sessions to export for week %d", req.Week))
	}

	labels := labelsFor(actor.Language)
	classes, groups := s.plans.Ordering().GroupByClass(plan.Rows)
	sections := make([]export.Section, 0, len(classes))
	for _, class := range classes {
		table := s.weekTable(labels, groups[class], true)
		section := export.Section{Heading: class, Table: &table}
		if note := noteFor(plan.ClassNotes, class); note != "" {
			section.Paragraphs = []string{fmt.Sprintf("%s: %s", labels.Notes, note)}
		}
		sections = append(sections, section)
	}

	payload, err := s.xlsx.Render(export.Report{Title: s.title(labels.PlanTitle), Sections: sections})
	if err != nil {
		return nil, s.renderError("xlsx", err)
	}
	filename := fmt.Sprintf("plan_S%d_%s.xlsx", req.Week, req.Section)
	return s.document("xlsx", filename, ContentTypeXLSX, payload), nil
}

// FullReportByClass renders every week of one class on a single sheet.
func (s *ExportService) FullReportByClass(ctx context.Context, req dto.ClassReportRequest, actor models.UserInfo) (*Document, error) {
	req.Classe = strings.TrimSpace(req.Classe)
	if err := s.validator.Struct(req, "invalid export payload"); err != nil {
		return nil, err
	}
	history, err := s.plans.ClassHistory(ctx, req.Section, req.Classe, actor)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no sessions recorded for class "+req.Classe)
	}

	labels := labelsFor(actor.Language)
	table := export.Dataset{
		Headers: []string{labels.Week, labels.Dates, labels.Teacher, labels.Day, labels.Period, labels.Subject, labels.Lesson, labels.Classwork, labels.Support, labels.Homework, labels.Notes},
		Widths:  []float64{0.6, 1.4, 1.2, 1, 0.6, 1.2, 2, 2, 1.5, 2, 1.5},
	}
	for _, week := range history {
		dates := ""
		if week.Dates.Start != "" {
			dates = week.Dates.Start + " / " + week.Dates.End
		}
		for _, row := range week.Rows {
			table.Rows = append(table.Rows, map[string]string{
				labels.Week:      strconv.Itoa(week.Week),
				labels.Dates:     dates,
				labels.Teacher:   row.Teacher,
				labels.Day:       labels.day(row.Day),
				labels.Period:    strconv.Itoa(row.Period),
				labels.Subject:   row.Subject,
				labels.Lesson:    row.Lesson,
				labels.Classwork: row.Classwork,
				labels.Support:   row.Support,
				labels.Homework:  row.Homework,
				labels.Notes:     week.Notes,
			})
		}
	}

	payload, err := s.xlsx.Render(export.Report{
		Title:    s.title(labels.ReportTitle),
		Sections: []export.Section{{Heading: req.Classe, Table: &table}},
	})
	if err != nil {
		return nil, s.renderError("xlsx", err)
	}
	filename := fmt.Sprintf("rapport_%s_%s.xlsx", sanitizeFilename(req.Classe), req.Section)
	return s.document("xlsx", filename, ContentTypeXLSX, payload), nil
}

// CSV renders the filtered rows of a week as a flat CSV file.
func (s *ExportService) CSV(ctx context.Context, req dto.WorkbookRequest, actor models.UserInfo) (*Document, error) {
	if err := s.validator.Struct(req, "invalid export payload"); err != nil {
		return nil, err
	}
	plan, err := s.plans.GetPlan(ctx, int(req.Week), req.Section, RowFilter{Teacher: req.Teacher, Class: req.Classe, Subject: req.Subject, Sort: true}, actor)
	if err != nil {
		return nil, err
	}

	labels := labelsFor(actor.Language)
	payload, err := s.csv.Render(s.weekTable(labels, plan.Rows, true))
	if err != nil {
		return nil, s.renderError("csv", err)
	}
	filename := fmt.Sprintf("plan_S%d_%s.csv", req.Week, req.Section)
	return s.document("csv", filename, ContentTypeCSV, payload), nil
}

func (s *ExportService) weekTable(labels exportLabels, rows []models.SessionRow, withClass bool) export.Dataset {
	headers := []string{labels.Teacher, labels.Day, labels.Period}
	widths := []float64{1.2, 1, 0.6}
	if withClass {
		headers = append(headers, labels.Class)
		widths = append(widths, 0.8)
	}
	headers = append(headers, labels.Subject, labels.Lesson, labels.Classwork, labels.Support, labels.Homework, labels.UpdatedAt)
	widths = append(widths, 1.2, 2, 2, 1.5, 2, 1.2)

	data := export.Dataset{Headers: headers, Widths: widths, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		updated := ""
		if row.UpdatedAt != nil {
			updated = row.UpdatedAt.UTC().Format(time.RFC3339)
		}
		record := map[string]string{
			labels.Teacher:   row.Teacher,
			labels.Day:       labels.day(row.Day),
			labels.Period:    strconv.Itoa(row.Period),
			labels.Subject:   row.Subject,
			labels.Lesson:    row.Lesson,
			labels.Classwork: row.Classwork,
			labels.Support:   row.Support,
			labels.Homework:  row.Homework,
			labels.UpdatedAt: updated,
		}
		if withClass {
			record[labels.Class] = row.Class
		}
		data.Rows = append(data.Rows, record)
	}
	return data
}

func (s *ExportService) title(base string) string {
	if s.schoolName == "" {
		return base
	}
	return s.schoolName + " - " + base
}

func (s *ExportService) weekSubtitle(labels exportLabels, week int, section models.Section) string {
	subtitle := fmt.Sprintf("%s %d - %s", labels.Week, week, labels.section(section))
	if s.calendar != nil {
		if r, err := s.calendar.Week(week); err == nil {
			subtitle += fmt.Sprintf(" (%s / %s)", r.Start, r.End)
		}
	}
	return subtitle
}

func (s *ExportService) document(format, filename, contentType string, payload []byte) *Document {
	s.metrics.RecordExport(format)
	s.logger.Debug("document generated", zap.String("format", format), zap.String("filename", filename), zap.Int("bytes", len(payload)))
	return &Document{Filename: filename, ContentType: contentType, Payload: payload}
}

func (s *ExportService) renderError(format string, err error) error {
	s.logger.Error("document rendering failed", zap.String("format", format), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate "+format+" document")
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeFilename(name string) string {
	cleaned := strings.Trim(unsafeFilenameChars.ReplaceAllString(name, "_"), "_")
	if cleaned == "" {
		return "document"
	}
	return cleaned
}

func classFilename(week int, section models.Section, class, ext string) string {
	return fmt.Sprintf("plan_S%d_%s_%s.%s", week, section, sanitizeFilename(class), ext)
}
