package dto

import "github.com/noah-isme/lesson-plan-api/internal/models"

// AILessonRequest describes the session an AI lesson plan is drafted for.
// When Week and RowID are set the stored row fills in missing fields.
type AILessonRequest struct {
	Week     models.Week     `json:"week"`
	Section  models.Section  `json:"section"`
	RowID    string          `json:"rowId"`
	Class    string          `json:"classe"`
	Subject  string          `json:"subject"`
	Lesson   string          `json:"lesson"`
	Teacher  string          `json:"teacher"`
	Day      models.Day      `json:"day"`
	Period   int             `json:"period"`
	Minutes  int             `json:"minutes" validate:"omitempty,min=10,max=240"`
	Language models.Language `json:"language"`
}

// AILessonPlan is the structured plan returned by the generator.
type AILessonPlan struct {
	Title           string   `json:"title"`
	Class           string   `json:"class"`
	Subject         string   `json:"subject"`
	Objectives      []string `json:"objectives"`
	Materials       []string `json:"materials"`
	Activities      []string `json:"activities"`
	Assessment      string   `json:"assessment"`
	Homework        string   `json:"homework"`
	Differentiation string   `json:"differentiation,omitempty"`
}
