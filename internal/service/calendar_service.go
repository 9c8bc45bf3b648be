package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/lesson-plan-api/internal/models"
	appErrors "github.com/noah-isme/lesson-plan-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// CalendarService maps academic week numbers to their Sunday–Thursday dates.
type CalendarService struct {
	start time.Time
	weeks int
}

// NewCalendarService constructs the calendar from the first Sunday of the year.
func NewCalendarService(start time.Time, weeks int) *CalendarService {
	if weeks <= 0 {
		weeks = 48
	}
	y, m, d := start.Date()
	return &CalendarService{start: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), weeks: weeks}
}

// WeekCount returns the number of academic weeks.
func (s *CalendarService) WeekCount() int {
	return s.weeks
}

// ValidateWeek rejects week numbers outside 1..WeekCount.
func (s *CalendarService) ValidateWeek(week int) error {
	if week < 1 || week > s.weeks {
		return appErrors.WithFields(
			appErrors.Clone(appErrors.ErrValidation, "invalid week"),
			map[string]string{"week": fmt.Sprintf("week must be between 1 and %d", s.weeks)},
		)
	}
	return nil
}

// Week returns the date range of a week.
func (s *CalendarService) Week(week int) (models.WeekRange, error) {
	if err := s.ValidateWeek(week); err != nil {
		return models.WeekRange{}, err
	}
	begin := s.start.AddDate(0, 0, 7*(week-1))
	return models.WeekRange{
		Week:  week,
		Start: begin.Format(dateLayout),
		End:   begin.AddDate(0, 0, 4).Format(dateLayout),
	}, nil
}

// Weeks lists every week of the academic year.
func (s *CalendarService) Weeks() []models.WeekRange {
	out := make([]models.WeekRange, 0, s.weeks)
	for w := 1; w <= s.weeks; w++ {
		r, _ := s.Week(w)
		out = append(out, r)
	}
	return out
}

// WeekOf returns the week whose Sunday-to-Saturday span contains t, or false outside the year.
func (s *CalendarService) WeekOf(t time.Time) (int, bool) {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if day.Before(s.start) {
		return 0, false
	}
	week := int(day.Sub(s.start).Hours()/24)/7 + 1
	if week > s.weeks {
		return 0, false
	}
	return week, true
}
