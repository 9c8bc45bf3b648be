package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-plan-api/internal/dto"
	"github.com/noah-isme/lesson-plan-api/internal/models"
	appErrors "github.com/noah-isme/lesson-plan-api/pkg/errors"
)

const draftedLesson = "```json\n{\"title\":\"Les fractions\",\"objectives\":[\"Comparer des fractions\"],\"activities\":[\"Travail en binôme\"],\"assessment\":\"Quiz\",\"homework\":\"Ex. 4\"}\n```"

func completionServer(t *testing.T, status int, body interface{}, captured *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if captured != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completionBody(content string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{{"message": map[string]string{"role": "assistant", "content": content}}},
	}
}

func newTestGenerator(endpoint string, plans planReader) *LessonGeneratorService {
	return NewLessonGeneratorService(LessonGeneratorConfig{Enabled: true, Endpoint: endpoint, APIKey: "test-key", Model: "gpt-test"}, nil, plans, nil, nil, nil)
}

func TestGenerateLessonSuccess(t *testing.T) {
	var captured chatRequest
	srv := completionServer(t, http.StatusOK, completionBody(draftedLesson), &captured)
	svc := newTestGenerator(srv.URL, nil)

	plan, err := svc.Generate(context.Background(), dto.AILessonRequest{Class: "PEI1", Subject: "Math", Lesson: "Fractions"}, teacherNour)
	require.NoError(t, err)
	assert.Equal(t, "Les fractions", plan.Title)
	assert.Equal(t, "PEI1", plan.Class)
	assert.Equal(t, "Math", plan.Subject)
	assert.Equal(t, []string{"Comparer des fractions"}, plan.Objectives)

	assert.Equal(t, "gpt-test", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Contains(t, captured.Messages[0].Content, "English")
	assert.Contains(t, captured.Messages[1].Content, "Duration: 45 minutes")
}

func TestGenerateLessonFillsFromStoredRow(t *testing.T) {
	plans := newTestPlanService(newMemoryPlanRepo(), nil)
	lesson := row("Abas", "DP1", models.Monday, 2, "Physics")
	lesson.Lesson = "Newton's laws"
	stored := seedPlan(t, plans, 3, models.SectionBoys, lesson)

	var captured chatRequest
	srv := completionServer(t, http.StatusOK, completionBody(draftedLesson), &captured)
	svc := newTestGenerator(srv.URL, plans)

	plan, err := svc.Generate(context.Background(), dto.AILessonRequest{Week: 3, RowID: stored[0].ID}, teacherAbas)
	require.NoError(t, err)
	assert.Equal(t, "DP1", plan.Class)
	assert.Contains(t, captured.Messages[1].Content, "Lesson topic: Newton's laws")
	assert.Contains(t, captured.Messages[1].Content, "Scheduled: Monday, period 2")

	_, err = svc.Generate(context.Background(), dto.AILessonRequest{Week: 3, RowID: "unknown"}, teacherAbas)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestGenerateLessonRequiresTopic(t *testing.T) {
	svc := newTestGenerator("http://127.0.0.1:1", nil)

	_, err := svc.Generate(context.Background(), dto.AILessonRequest{Class: "PEI1"}, adminUser)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestGenerateLessonDisabled(t *testing.T) {
	svc := NewLessonGeneratorService(LessonGeneratorConfig{Enabled: true, Endpoint: "http://localhost"}, nil, nil, nil, nil, nil)
	assert.False(t, svc.Enabled())

	_, err := svc.Generate(context.Background(), dto.AILessonRequest{Class: "PEI1", Subject: "Math", Lesson: "Fractions"}, adminUser)
	assert.ErrorIs(t, err, appErrors.ErrUnavailable)
}

func TestGenerateLessonUpstreamFailures(t *testing.T) {
	req := dto.AILessonRequest{Class: "PEI1", Subject: "Math", Lesson: "Fractions"}

	rejected := completionServer(t, http.StatusTooManyRequests, map[string]interface{}{"error": map[string]string{"message": "quota exceeded"}}, nil)
	_, err := newTestGenerator(rejected.URL, nil).Generate(context.Background(), req, adminUser)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.Contains(t, appErr.Message, "quota exceeded")

	garbled := completionServer(t, http.StatusOK, completionBody("I cannot help with that."), nil)
	_, err = newTestGenerator(garbled.URL, nil).Generate(context.Background(), req, adminUser)
	assert.ErrorIs(t, err, appErrors.ErrUpstream)

	empty := completionServer(t, http.StatusOK, map[string]interface{}{"choices": []interface{}{}}, nil)
	_, err = newTestGenerator(empty.URL, nil).Generate(context.Background(), req, adminUser)
	assert.ErrorIs(t, err, appErrors.ErrUpstream)

	_, err = newTestGenerator("http://127.0.0.1:1", nil).Generate(context.Background(), req, adminUser)
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
}

func TestGenerateLessonDocument(t *testing.T) {
	srv := completionServer(t, http.StatusOK, completionBody(draftedLesson), nil)
	svc := newTestGenerator(srv.URL, nil)

	doc, err := svc.GenerateDocument(context.Background(), dto.AILessonRequest{Class: "PEI1", Subject: "Math", Lesson: "Fractions"}, adminUser)
	require.NoError(t, err)
	assert.Equal(t, "lesson_PEI1_Math.docx", doc.Filename)
	assert.Equal(t, ContentTypeDOCX, doc.ContentType)
	body := readZipPart(t, doc.Payload, "word/document.xml")
	assert.Contains(t, body, "Comparer des fractions")
	assert.Contains(t, body, "Travail en binôme")
}

func TestParseLessonPlan(t *testing.T) {
	plan, err := parseLessonPlan("Here it is: {\"objectives\":[\"a\"]} hope it helps")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, plan.Objectives)

	_, err = parseLessonPlan("{\"title\":\"only a title\"}")
	assert.Error(t, err)
}
