package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lesson-plan-api/internal/dto"
	"github.com/noah-isme/lesson-plan-api/internal/models"
	appErrors "github.com/noah-isme/lesson-plan-api/pkg/errors"
	"github.com/noah-isme/lesson-plan-api/pkg/export"
	"github.com/noah-isme/lesson-plan-api/pkg/validation"
)

const maxCompletionBody = 1 << 20

// LessonGeneratorConfig points the generator at an OpenAI-compatible chat completion endpoint.
type LessonGeneratorConfig struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// LessonGeneratorService drafts lesson plans through an external language model.
type LessonGeneratorService struct {
	cfg       LessonGeneratorConfig
	client    *http.Client
	plans     planReader
	docx      *export.DOCXExporter
	validator *validation.Validator
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewLessonGeneratorService constructs the generator. client may be nil.
func NewLessonGeneratorService(cfg LessonGeneratorConfig, client *http.Client, plans planReader, validate *validation.Validator, metrics *MetricsService, logger *zap.Logger) *LessonGeneratorService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &LessonGeneratorService{
		cfg:       cfg,
		client:    client,
		plans:     plans,
		docx:      export.NewDOCXExporter(),
		validator: validate,
		metrics:   metrics,
		logger:    logger,
	}
}

// Enabled reports whether generation is configured.
func (s *LessonGeneratorService) Enabled() bool {
	return s.cfg.Enabled && s.cfg.Endpoint != "" && s.cfg.APIKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate drafts a structured lesson plan for the requested session.
func (s *LessonGeneratorService) Generate(ctx context.Context, req dto.AILessonRequest, actor models.UserInfo) (*dto.AILessonPlan, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "AI lesson generation is not configured")
	}
	if err := s.validator.Struct(req, "invalid lesson request"); err != nil {
		return nil, err
	}
	req, err := s.fillFromRow(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	if req.Class == "" || req.Subject == "" || req.Lesson == "" {
		return nil, appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "invalid lesson request"), map[string]string{
			"lesson": "classe, subject and lesson are required unless week and rowId point to a stored session",
		})
	}
	if req.Language == "" {
		req.Language = actor.Language
	}
	if req.Minutes == 0 {
		req.Minutes = 45
	}

	body, err := json.Marshal(chatRequest{
		Model:          s.cfg.Model,
		Messages:       []chatMessage{{Role: "system", Content: systemPrompt(req.Language)}, {Role: "user", Content: userPrompt(req)}},
		Temperature:    0.4,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode AI request")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build AI request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	start := time.Now()
	resp, err := s.client.Do(httpReq)
	if err != nil {
		s.metrics.RecordAIGeneration("transport_error")
		s.logger.Warn("AI request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "AI service unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCompletionBody))
	if err != nil {
		s.metrics.RecordAIGeneration("transport_error")
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to read AI response")
	}

	var completion chatResponse
	decodeErr := json.Unmarshal(raw, &completion)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.metrics.RecordAIGeneration("upstream_status")
		msg := fmt.Sprintf("AI service returned status %d", resp.StatusCode)
		if decodeErr == nil && completion.Error != nil && completion.Error.Message != "" {
			msg += ": " + completion.Error.Message
		}
		s.logger.Warn("AI request rejected", zap.Int("status", resp.StatusCode))
		return nil, appErrors.Clone(appErrors.ErrUpstream, msg)
	}
	if decodeErr != nil || len(completion.Choices) == 0 {
		s.metrics.RecordAIGeneration("bad_response")
		return nil, appErrors.Clone(appErrors.ErrUpstream, "AI service returned an unexpected payload")
	}

	plan, err := parseLessonPlan(completion.Choices[0].Message.Content)
	if err != nil {
		s.metrics.RecordAIGeneration("bad_response")
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "AI service returned an unreadable lesson plan")
	}
	if plan.Class == "" {
		plan.Class = req.Class
	}
	if plan.Subject == "" {
		plan.Subject = req.Subject
	}
	if plan.Title == "" {
		plan.Title = req.Lesson
	}

	s.metrics.RecordAIGeneration("success")
	s.logger.Info("AI lesson generated",
		zap.String("user", actor.Username),
		zap.String("class", req.Class),
		zap.String("subject", req.Subject),
		zap.Duration("elapsed", time.Since(start)),
	)
	return plan, nil
}

// GenerateDocument drafts a lesson plan and renders it as a Word document.
func (s *LessonGeneratorService) GenerateDocument(ctx context.Context, req dto.AILessonRequest, actor models.UserInfo) (*Document, error) {
	plan, err := s.Generate(ctx, req, actor)
	if err != nil {
		return nil, err
	}

	labels := labelsFor(actor.Language)
	report := export.Report{
		Title:    plan.Title,
		Subtitle: fmt.Sprintf("%s: %s - %s: %s", labels.Class, plan.Class, labels.Subject, plan.Subject),
		Sections: []export.Section{
			{Heading: "Objectives", Bullets: plan.Objectives},
			{Heading: "Materials", Bullets: plan.Materials},
			{Heading: "Activities", Bullets: plan.Activities},
			{Heading: "Assessment", Paragraphs: nonEmpty(plan.Assessment)},
			{Heading: labels.Homework, Paragraphs: nonEmpty(plan.Homework)},
		},
	}
	if plan.Differentiation != "" {
		report.Sections = append(report.Sections, export.Section{Heading: "Differentiation", Paragraphs: []string{plan.Differentiation}})
	}

	payload, err := s.docx.Render(report)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate docx document")
	}
	s.metrics.RecordExport("ai_docx")
	filename := fmt.Sprintf("lesson_%s_%s.docx", sanitizeFilename(plan.Class), sanitizeFilename(plan.Subject))
	return &Document{Filename: filename, ContentType: ContentTypeDOCX, Payload: payload}, nil
}

// fillFromRow completes the request with the stored session it refers to.
func (s *LessonGeneratorService) fillFromRow(ctx context.Context, req dto.AILessonRequest, actor models.UserInfo) (dto.AILessonRequest, error) {
	if req.Week == 0 || req.RowID == "" || s.plans == nil {
		return req, nil
	}
	section := req.Section
	if section == "" {
		section = actor.Section
	}
	plan, err := s.plans.GetPlan(ctx, int(req.Week), section, RowFilter{}, actor)
	if err != nil {
		return req, err
	}
	for _, row := range plan.Rows {
		if row.ID != req.RowID {
			continue
		}
		req.Class = firstNonEmpty(req.Class, row.Class)
		req.Subject = firstNonEmpty(req.Subject, row.Subject)
		req.Lesson = firstNonEmpty(req.Lesson, row.Lesson)
		req.Teacher = firstNonEmpty(req.Teacher, row.Teacher)
		if req.Day == "" {
			req.Day = row.Day
		}
		if req.Period == 0 {
			req.Period = row.Period
		}
		return req, nil
	}
	return req, appErrors.Clone(appErrors.ErrNotFound, "no row with id "+req.RowID)
}

func systemPrompt(lang models.Language) string {
	language := "French"
	switch lang {
	case models.LanguageArabic:
		language = "Arabic"
	case models.LanguageEnglish:
		language = "English"
	}
	return "You are an experienced teacher preparing a lesson plan for an IB school. " +
		"Answer in " + language + " with a single JSON object using the keys " +
		`"title", "class", "subject", "objectives" (array), "materials" (array), "activities" (array), ` +
		`"assessment", "homework" and "differentiation". Do not add any text outside the JSON object.`
}

func userPrompt(req dto.AILessonRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Class: %s\nSubject: %s\nLesson topic: %s\nDuration: %d minutes\n", req.Class, req.Subject, req.Lesson, req.Minutes)
	if req.Teacher != "" {
		fmt.Fprintf(&b, "Teacher: %s\n", req.Teacher)
	}
	if req.Day != "" && req.Period > 0 {
		fmt.Fprintf(&b, "Scheduled: %s, period %d\n", req.Day, req.Period)
	}
	return b.String()
}

func parseLessonPlan(content string) (*dto.AILessonPlan, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start >= 0 && end > start {
		content = content[start : end+1]
	}

	var plan dto.AILessonPlan
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		return nil, fmt.Errorf("decode lesson plan: %w", err)
	}
	if len(plan.Objectives) == 0 && len(plan.Activities) == 0 {
		return nil, fmt.Errorf("lesson plan has neither objectives nor activities")
	}
	return &plan, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return []string{s}
}
