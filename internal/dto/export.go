package dto

import "github.com/noah-isme/lesson-plan-api/internal/models"

// ClassDocumentRequest asks for the Word or PDF document of one class in a week.
type ClassDocumentRequest struct {
	Week    models.Week    `json:"week" validate:"required"`
	Classe  string         `json:"classe" validate:"required"`
	Section models.Section `json:"section"`
}

// WorkbookRequest asks for a spreadsheet of a week, one sheet per class.
// Teacher and Class narrow the exported rows.
type WorkbookRequest struct {
	Week    models.Week    `json:"week" validate:"required"`
	Section models.Section `json:"section"`
	Teacher string         `json:"teacher"`
	Classe  string         `json:"classe"`
	Subject string         `json:"subject"`
}

// ClassReportRequest asks for every week of one class.
type ClassReportRequest struct {
	Classe  string         `json:"classe" validate:"required"`
	Section models.Section `json:"section"`
}
