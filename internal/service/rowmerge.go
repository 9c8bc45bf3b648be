package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/lesson-plan-api/internal/models"
	appErrors "github.com/noah-isme/lesson-plan-api/pkg/errors"
)

// LocateRow returns the index of the row a patch targets. A known id wins;
// otherwise all five composite-key fields must be present and match exactly
// one row, ignoring case and surrounding whitespace.
func LocateRow(rows []models.SessionRow, patch models.RowPatch) (int, error) {
	if id := strings.TrimSpace(patch.ID); id != "" {
		for i := range rows {
			if rows[i].ID == id {
				return i, nil
			}
		}
		if !patch.HasKey() {
			return -1, appErrors.Clone(appErrors.ErrNotFound, "no row with id "+id)
		}
	}
	if !patch.HasKey() {
		return -1, appErrors.WithFields(
			appErrors.Clone(appErrors.ErrValidation, "row must carry an id or its teacher, class, day, period and subject"),
			map[string]string{"data": "missing row identity"},
		)
	}

	want := patch.Key().Normalized()
	match := -1
	for i := range rows {
		if rows[i].Key().Normalized() != want {
			continue
		}
		if match >= 0 {
			return -1, appErrors.Clone(appErrors.ErrConflict, "several rows share "+patch.Key().String()+"; update by id instead")
		}
		match = i
	}
	if match < 0 {
		return -1, appErrors.Clone(appErrors.ErrNotFound, "no row matches "+patch.Key().String())
	}
	return match, nil
}

// MergeRow copies every submitted field onto existing and stamps the update time.
// The stored id is kept; rows saved before ids existed get a fresh one.
func MergeRow(existing models.SessionRow, patch models.RowPatch, now time.Time) models.SessionRow {
	merged := existing
	if patch.Teacher != nil {
		merged.Teacher = *patch.Teacher
	}
	if patch.Day != nil {
		merged.Day = *patch.Day
	}
	if patch.Period != nil {
		merged.Period = *patch.Period
	}
	if patch.Class != nil {
		merged.Class = *patch.Class
	}
	if patch.Subject != nil {
		merged.Subject = *patch.Subject
	}
	if patch.Lesson != nil {
		merged.Lesson = *patch.Lesson
	}
	if patch.Classwork != nil {
		merged.Classwork = *patch.Classwork
	}
	if patch.Support != nil {
		merged.Support = *patch.Support
	}
	if patch.Homework != nil {
		merged.Homework = *patch.Homework
	}
	if merged.ID == "" {
		merged.ID = uuid.NewString()
	}
	ts := now.UTC()
	merged.UpdatedAt = &ts
	return merged
}

// AssignRowIDs gives every row without an id, or with an id already used
// earlier in the list, a new one.
func AssignRowIDs(rows []models.SessionRow) []models.SessionRow {
	seen := make(map[string]struct{}, len(rows))
	for i := range rows {
		id := strings.TrimSpace(rows[i].ID)
		if _, dup := seen[id]; id == "" || dup {
			id = uuid.NewString()
		}
		rows[i].ID = id
		seen[id] = struct{}{}
	}
	return rows
}

// DuplicateKeys lists composite keys used by more than one row, in order of first repetition.
func DuplicateKeys(rows []models.SessionRow) []models.RowKey {
	counts := make(map[models.RowKey]int, len(rows))
	var dups []models.RowKey
	for _, row := range rows {
		key := row.Key().Normalized()
		counts[key]++
		if counts[key] == 2 {
			dups = append(dups, row.Key())
		}
	}
	return dups
}

func keyCollides(rows []models.SessionRow, idx int) bool {
	key := rows[idx].Key().Normalized()
	for i := range rows {
		if i != idx && rows[i].Key().Normalized() == key {
			return true
		}
	}
	return false
}
