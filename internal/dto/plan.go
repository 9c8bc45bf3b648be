package dto

import "github.com/noah-isme/lesson-plan-api/internal/models"

// PlanQuery captures the optional row filters of GET /plans/:week.
type PlanQuery struct {
	Section string `form:"section"`
	Teacher string `form:"teacher"`
	Class   string `form:"class"`
	Subject string `form:"subject"`
	Day     string `form:"day"`
	Period  int    `form:"period" validate:"min=0"`
	Sort    bool   `form:"sort"`
}

// PlanResponse is the body of GET /plans/:week.
type PlanResponse struct {
	Week       int                 `json:"week"`
	Section    models.Section      `json:"section"`
	Dates      *models.WeekRange   `json:"dates,omitempty"`
	PlanData   []models.SessionRow `json:"planData"`
	ClassNotes map[string]string   `json:"classNotes"`
}

// SavePlanRequest replaces the whole row list of a week.
type SavePlanRequest struct {
	Week    models.Week         `json:"week" validate:"required"`
	Section models.Section      `json:"section"`
	Data    []models.SessionRow `json:"data" validate:"dive"`
}

// SavePlanResponse reports the stored rows with their assigned ids.
type SavePlanResponse struct {
	Success bool                `json:"success"`
	Rows    int                 `json:"rows"`
	Data    []models.SessionRow `json:"data"`
}

// SaveRowRequest updates a single row located by id or composite key.
type SaveRowRequest struct {
	Week    models.Week     `json:"week" validate:"required"`
	Section models.Section  `json:"section"`
	Data    models.RowPatch `json:"data"`
}

// SaveRowResponse echoes the merged row.
type SaveRowResponse struct {
	Success     bool              `json:"success"`
	UpdatedData models.SessionRow `json:"updatedData"`
}

// SaveRowsRequest updates several rows atomically.
type SaveRowsRequest struct {
	Week    models.Week       `json:"week" validate:"required"`
	Section models.Section    `json:"section"`
	Data    []models.RowPatch `json:"data" validate:"required,min=1"`
}

// SaveRowsResponse echoes the merged rows in request order.
type SaveRowsResponse struct {
	Success     bool                `json:"success"`
	UpdatedData []models.SessionRow `json:"updatedData"`
}

// SaveNotesRequest sets the note attached to one class for a week.
type SaveNotesRequest struct {
	Week    models.Week    `json:"week" validate:"required"`
	Classe  string         `json:"classe" validate:"required"`
	Notes   string         `json:"notes"`
	Section models.Section `json:"section"`
}

// ClassesResponse lists the classes of a section in display order.
type ClassesResponse struct {
	Section models.Section `json:"section"`
	Classes []string       `json:"classes"`
}
