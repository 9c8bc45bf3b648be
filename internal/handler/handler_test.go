package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-plan-api/internal/dto"
	"github.com/noah-isme/lesson-plan-api/internal/models"
	"github.com/noah-isme/lesson-plan-api/internal/service"
	appErrors "github.com/noah-isme/lesson-plan-api/pkg/errors"
	"github.com/noah-isme/lesson-plan-api/pkg/middleware/requestid"
)

var testYearStart = time.Date(2025, time.August, 31, 0, 0, 0, 0, time.UTC)

type authServiceMock struct {
	lastReq models.LoginRequest
	err     error
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.LoginResponse{Success: true, Username: req.Username, Role: models.RoleTeacher, Section: models.SectionBoys, AccessToken: "good-token"}, nil
}

type exportServiceMock struct {
	lastClass    dto.ClassDocumentRequest
	lastWorkbook dto.WorkbookRequest
	err          error
}

func (m *exportServiceMock) doc(ext, contentType string) (*service.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &service.Document{Filename: "plan." + ext, ContentType: contentType, Payload: []byte("payload-" + ext)}, nil
}

func (m *exportServiceMock) ClassDocument(ctx context.Context, req dto.ClassDocumentRequest, actor models.UserInfo) (*service.Document, error) {
	m.lastClass = req
	return m.doc("docx", service.ContentTypeDOCX)
}

func (m *exportServiceMock) ClassPDF(ctx context.Context, req dto.ClassDocumentRequest, actor models.UserInfo) (*service.Document, error) {
	m.lastClass = req
	return m.doc("pdf", service.ContentTypePDF)
}

func (m *exportServiceMock) Workbook(ctx context.Context, req dto.WorkbookRequest, actor models.UserInfo) (*service.Document, error) {
	m.lastWorkbook = req
	return m.doc("xlsx", service.ContentTypeXLSX)
}

func (m *exportServiceMock) FullReportByClass(ctx context.Context, req dto.ClassReportRequest, actor models.UserInfo) (*service.Document, error) {
	return m.doc("xlsx", service.ContentTypeXLSX)
}

func (m *exportServiceMock) CSV(ctx context.Context, req dto.WorkbookRequest, actor models.UserInfo) (*service.Document, error) {
	m.lastWorkbook = req
	return m.doc("csv", service.ContentTypeCSV)
}

type lessonGeneratorMock struct {
	lastReq dto.AILessonRequest
	err     error
}

func (m *lessonGeneratorMock) Generate(ctx context.Context, req dto.AILessonRequest, actor models.UserInfo) (*dto.AILessonPlan, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.AILessonPlan{Title: "Fractions", Objectives: []string{"compare"}}, nil
}

func (m *lessonGeneratorMock) GenerateDocument(ctx context.Context, req dto.AILessonRequest, actor models.UserInfo) (*service.Document, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &service.Document{Filename: "lesson.docx", ContentType: service.ContentTypeDOCX, Payload: []byte("docx")}, nil
}

type pingerStub struct{ err error }

func (p pingerStub) Ping(context.Context) error { return p.err }

type invalidatorStub struct{ patterns []string }

func (s *invalidatorStub) Invalidate(_ context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func TestAuthHandlerLogin(t *testing.T) {
	mockSvc := &authServiceMock{}
	handler := NewAuthHandler(mockSvc)

	c, w := newContext(http.MethodPost, "/login", `{"username":"Abas","password":"pw","section":"boys"}`, nil)
	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Abas", mockSvc.lastReq.Username)
	assert.NotEmpty(t, mockSvc.lastReq.IP)
	var res models.LoginResponse
	decodeData(t, w, &res)
	assert.True(t, res.Success)
	assert.Equal(t, "good-token", res.AccessToken)
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	handler := NewAuthHandler(&authServiceMock{err: appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")})

	c, w := newContext(http.MethodPost, "/login", `{"username":"Abas","password":"bad"}`, nil)
	handler.Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, decodeError(t, w).Code)

	c, w = newContext(http.MethodPost, "/login", `not json`, nil)
	handler.Login(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	handler := NewAuthHandler(&authServiceMock{})

	c, w := newContext(http.MethodGet, "/me", "", teacherClaims)
	handler.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	var info models.UserInfo
	decodeData(t, w, &info)
	assert.Equal(t, "Nour", info.Username)
	assert.Equal(t, models.LanguageEnglish, info.Language)
}

func TestExportHandlerStreamsDocuments(t *testing.T) {
	mockSvc := &exportServiceMock{}
	handler := NewExportHandler(mockSvc)

	c, w := newContext(http.MethodPost, "/generate-word", `{"week":5,"classe":"PEI1"}`, teacherClaims)
	handler.Word(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ContentTypeDOCX, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="plan.docx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "payload-docx", w.Body.String())
	assert.Equal(t, models.SectionGirls, mockSvc.lastClass.Section)

	c, w = newContext(http.MethodPost, "/generate-excel-workbook", `{"week":5,"section":"boys","teacher":"Abas"}`, adminClaims)
	handler.Workbook(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Abas", mockSvc.lastWorkbook.Teacher)

	for _, call := range []func(*gin.Context){handler.PDF, handler.CSV, handler.FullReportByClass} {
		c, w = newContext(http.MethodPost, "/export", `{"week":5,"classe":"PEI1"}`, adminClaims)
		call(c)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestExportHandlerErrors(t *testing.T) {
	handler := NewExportHandler(&exportServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "no sessions")})

	c, w := newContext(http.MethodPost, "/generate-word", `{"week":5,"classe":"PEI9"}`, adminClaims)
	handler.Word(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/json"))

	c, w = newContext(http.MethodPost, "/generate-word", `{"week":5,"section":"staff"}`, adminClaims)
	handler.Word(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLessonHandler(t *testing.T) {
	mockGen := &lessonGeneratorMock{}
	handler := NewLessonHandler(mockGen)

	c, w := newContext(http.MethodPost, "/generate-ai-lesson-plan", `{"classe":"PEI1","subject":"Math","lesson":"Fractions","day":""}`, teacherClaims)
	handler.Plan(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PEI1", mockGen.lastReq.Class)
	assert.Equal(t, models.SectionGirls, mockGen.lastReq.Section)
	var plan dto.AILessonPlan
	decodeData(t, w, &plan)
	assert.Equal(t, "Fractions", plan.Title)

	c, w = newContext(http.MethodPost, "/generate-ai-lesson-docx", `{"classe":"PEI1"}`, teacherClaims)
	handler.Document(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ContentTypeDOCX, w.Header().Get("Content-Type"))
}

func TestLessonHandlerUpstreamError(t *testing.T) {
	handler := NewLessonHandler(&lessonGeneratorMock{err: appErrors.Clone(appErrors.ErrUpstream, "AI service returned status 500")})

	c, w := newContext(http.MethodPost, "/generate-ai-lesson-plan", `{"classe":"PEI1"}`, adminClaims)
	handler.Plan(c)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decodeError(t, w).Message, "500")
}

func TestCalendarHandlerWeeks(t *testing.T) {
	handler := NewCalendarHandler(service.NewCalendarService(testYearStart, 48))
	handler.now = func() time.Time { return time.Date(2025, time.September, 30, 10, 0, 0, 0, time.UTC) }

	c, w := newContext(http.MethodGet, "/weeks", "", adminClaims)
	handler.Weeks(c)
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Weeks   []models.WeekRange `json:"weeks"`
		Current int                `json:"current"`
	}
	decodeData(t, w, &res)
	assert.Len(t, res.Weeks, 48)
	assert.Equal(t, 5, res.Current)
}

func TestMetricsHandlerReady(t *testing.T) {
	handler := NewMetricsHandler(nil, nil, map[string]Pinger{"database": pingerStub{}}, nil)
	c, w := newContext(http.MethodGet, "/ready", "", nil)
	handler.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"database":"up"}}`, w.Body.String())

	handler = NewMetricsHandler(nil, nil, map[string]Pinger{"database": pingerStub{err: errors.New("connection refused")}}, nil)
	c, w = newContext(http.MethodGet, "/ready", "", nil)
	handler.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsHandlerAdminEndpoints(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordExport("docx")
	cache := &invalidatorStub{}
	handler := NewMetricsHandler(metrics, cache, nil, nil)

	c, w := newContext(http.MethodGet, "/admin/metrics", "", adminClaims)
	handler.Snapshot(c)
	require.Equal(t, http.StatusOK, w.Code)
	var snapshot models.SystemMetrics
	decodeData(t, w, &snapshot)
	assert.EqualValues(t, 1, snapshot.DocumentsExported)

	c, w = newContext(http.MethodPost, "/admin/cache/flush", "", adminClaims)
	handler.FlushCache(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, []string{"plans:*"}, cache.patterns)

	c, w = newContext(http.MethodGet, "/metrics", "", nil)
	handler.Prometheus(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "documents_exported_total")
}

type tokenStub struct{}

func (tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "admin":
		return adminClaims, nil
	case "teacher":
		return teacherClaims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newTestRouter(plans *planServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	RegisterRoutes(r, "/api", Routes{
		Auth:     NewAuthHandler(&authServiceMock{}),
		Plans:    NewPlanHandler(plans, nil),
		Calendar: NewCalendarHandler(service.NewCalendarService(testYearStart, 48)),
		Exports:  NewExportHandler(&exportServiceMock{}),
		Lessons:  NewLessonHandler(&lessonGeneratorMock{}),
		Metrics:  NewMetricsHandler(service.NewMetricsService(), nil, nil, nil),
		Tokens:   tokenStub{},
	})
	return r
}

func serve(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRouterProtectsAPI(t *testing.T) {
	r := newTestRouter(&planServiceMock{plan: models.EmptyPlan(3, models.SectionBoys)})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/api/login", "", `{"username":"Abas","password":"pw"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/plans/3", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/plans/3", "teacher", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/api/save-plan", "teacher", `{"week":3,"data":[]}`).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/api/save-plan", "admin", `{"week":3,"data":[]}`).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/api/admin/metrics", "teacher", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/admin/metrics", "admin", "").Code)
}

func TestRouterEmptyPlanEnvelope(t *testing.T) {
	r := newTestRouter(&planServiceMock{plan: models.EmptyPlan(12, models.SectionBoys)})

	w := serve(r, http.MethodGet, "/api/plans/12", "admin", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"planData":[]`)
	assert.Contains(t, w.Body.String(), `"classNotes":{}`)
	assert.Contains(t, w.Body.String(), `"request_id"`)
}
