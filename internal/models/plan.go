package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Section is one of the two school divisions holding separate plans.
type Section string

const (
	SectionBoys  Section = "boys"
	SectionGirls Section = "girls"
)

// Sections lists every valid section.
var Sections = []Section{SectionBoys, SectionGirls}

// ParseSection accepts canonical names and the legacy French ones.
func ParseSection(raw string) (Section, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "boys", "garcons", "garçons":
		return SectionBoys, nil
	case "girls", "filles":
		return SectionGirls, nil
	}
	return "", fmt.Errorf("unknown section %q", raw)
}

// Valid reports whether s is a known section.
func (s Section) Valid() bool {
	return s == SectionBoys || s == SectionGirls
}

// UnmarshalJSON normalises legacy spellings.
func (s *Section) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("section must be a string")
	}
	if strings.TrimSpace(raw) == "" {
		*s = ""
		return nil
	}
	parsed, err := ParseSection(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Day is a school day; the week runs Sunday to Thursday.
type Day string

const (
	Sunday    Day = "Sunday"
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
)

// Days lists school days in calendar order.
var Days = []Day{Sunday, Monday, Tuesday, Wednesday, Thursday}

var dayAliases = map[string]Day{
	"sunday": Sunday, "dimanche": Sunday, "الأحد": Sunday,
	"monday": Monday, "lundi": Monday, "الاثنين": Monday,
	"tuesday": Tuesday, "mardi": Tuesday, "الثلاثاء": Tuesday,
	"wednesday": Wednesday, "mercredi": Wednesday, "الأربعاء": Wednesday,
	"thursday": Thursday, "jeudi": Thursday, "الخميس": Thursday,
}

// ParseDay accepts English, French and Arabic day names in any case.
func ParseDay(raw string) (Day, error) {
	if d, ok := dayAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("unknown day %q", raw)
}

// Order returns the position of d in the school week, 99 when unknown.
func (d Day) Order() int {
	for i, day := range Days {
		if day == d {
			return i + 1
		}
	}
	return 99
}

// UnmarshalJSON normalises localized day names.
func (d *Day) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("day must be a string")
	}
	if strings.TrimSpace(raw) == "" {
		*d = ""
		return nil
	}
	parsed, err := ParseDay(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// RowKey is the natural identity of a session inside a week.
type RowKey struct {
	Teacher string
	Class   string
	Day     Day
	Period  int
	Subject string
}

// Normalized lowercases and trims the string parts so comparisons ignore case.
func (k RowKey) Normalized() RowKey {
	return RowKey{
		Teacher: strings.ToLower(strings.TrimSpace(k.Teacher)),
		Class:   strings.ToLower(strings.TrimSpace(k.Class)),
		Day:     k.Day,
		Period:  k.Period,
		Subject: strings.ToLower(strings.TrimSpace(k.Subject)),
	}
}

func (k RowKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%d/%s", k.Teacher, k.Class, k.Day, k.Period, k.Subject)
}

// SessionRow is one scheduled class period inside a weekly plan.
type SessionRow struct {
	ID        string     `json:"id"`
	Teacher   string     `json:"teacher" validate:"required"`
	Day       Day        `json:"day" validate:"required"`
	Period    int        `json:"period" validate:"min=1"`
	Class     string     `json:"class" validate:"required"`
	Subject   string     `json:"subject" validate:"required"`
	Lesson    string     `json:"lesson"`
	Classwork string     `json:"classwork"`
	Support   string     `json:"support"`
	Homework  string     `json:"homework"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// TrimKeys strips surrounding spaces from the text key fields.
func (r *SessionRow) TrimKeys() {
	r.Teacher = strings.TrimSpace(r.Teacher)
	r.Class = strings.TrimSpace(r.Class)
	r.Subject = strings.TrimSpace(r.Subject)
}

// Key returns the composite identity of the row.
func (r SessionRow) Key() RowKey {
	return RowKey{Teacher: r.Teacher, Class: r.Class, Day: r.Day, Period: r.Period, Subject: r.Subject}
}

// UnmarshalJSON decodes a row whose column names may use any casing or the
// legacy French headers.
func (r *SessionRow) UnmarshalJSON(data []byte) error {
	var row SessionRow
	err := decodeRowFields(data, func(field string, raw json.RawMessage) error {
		switch field {
		case fieldID:
			return decodeText(raw, &row.ID)
		case fieldTeacher:
			return decodeText(raw, &row.Teacher)
		case fieldDay:
			return decodeDay(raw, &row.Day)
		case fieldPeriod:
			return decodePeriod(raw, &row.Period)
		case fieldClass:
			return decodeText(raw, &row.Class)
		case fieldSubject:
			return decodeText(raw, &row.Subject)
		case fieldLesson:
			return decodeText(raw, &row.Lesson)
		case fieldClasswork:
			return decodeText(raw, &row.Classwork)
		case fieldSupport:
			return decodeText(raw, &row.Support)
		case fieldHomework:
			return decodeText(raw, &row.Homework)
		case fieldUpdatedAt:
			return decodeTime(raw, &row.UpdatedAt)
		}
		return nil
	})
	if err != nil {
		return err
	}
	row.TrimKeys()
	*r = row
	return nil
}

// RowPatch carries the fields submitted for a single row update. Nil fields
// were absent from the payload and keep their stored value.
type RowPatch struct {
	ID        string
	Teacher   *string
	Day       *Day
	Period    *int
	Class     *string
	Subject   *string
	Lesson    *string
	Classwork *string
	Support   *string
	Homework  *string
}

// HasKey reports whether all five composite-key fields were submitted.
func (p RowPatch) HasKey() bool {
	return p.Teacher != nil && p.Day != nil && p.Period != nil && p.Class != nil && p.Subject != nil
}

// Key returns the composite key; callers check HasKey first.
func (p RowPatch) Key() RowKey {
	var k RowKey
	if p.Teacher != nil {
		k.Teacher = *p.Teacher
	}
	if p.Day != nil {
		k.Day = *p.Day
	}
	if p.Period != nil {
		k.Period = *p.Period
	}
	if p.Class != nil {
		k.Class = *p.Class
	}
	if p.Subject != nil {
		k.Subject = *p.Subject
	}
	return k
}

// UnmarshalJSON decodes a partial row using the same column aliases as SessionRow.
func (p *RowPatch) UnmarshalJSON(data []byte) error {
	var patch RowPatch
	err := decodeRowFields(data, func(field string, raw json.RawMessage) error {
		switch field {
		case fieldID:
			return decodeText(raw, &patch.ID)
		case fieldTeacher:
			return decodeTextPtr(raw, &patch.Teacher)
		case fieldDay:
			var d Day
			if err := decodeDay(raw, &d); err != nil {
				return err
			}
			patch.Day = &d
		case fieldPeriod:
			var n int
			if err := decodePeriod(raw, &n); err != nil {
				return err
			}
			patch.Period = &n
		case fieldClass:
			return decodeTextPtr(raw, &patch.Class)
		case fieldSubject:
			return decodeTextPtr(raw, &patch.Subject)
		case fieldLesson:
			return decodeTextPtr(raw, &patch.Lesson)
		case fieldClasswork:
			return decodeTextPtr(raw, &patch.Classwork)
		case fieldSupport:
			return decodeTextPtr(raw, &patch.Support)
		case fieldHomework:
			return decodeTextPtr(raw, &patch.Homework)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, field := range []*string{patch.Teacher, patch.Class, patch.Subject} {
		if field != nil {
			*field = strings.TrimSpace(*field)
		}
	}
	*p = patch
	return nil
}

// WeeklyPlan is the document stored per (week, section).
type WeeklyPlan struct {
	Week       int               `json:"week"`
	Section    Section           `json:"section"`
	Rows       []SessionRow      `json:"planData"`
	ClassNotes map[string]string `json:"classNotes"`
	UpdatedAt  *time.Time        `json:"updatedAt,omitempty"`
}

// EmptyPlan returns the plan served for a (week, section) never saved.
func EmptyPlan(week int, section Section) *WeeklyPlan {
	return &WeeklyPlan{Week: week, Section: section, Rows: []SessionRow{}, ClassNotes: map[string]string{}}
}

// WeekRange is the Sunday–Thursday span of an academic week.
type WeekRange struct {
	Week  int    `json:"week"`
	Start string `json:"start"`
	End   string `json:"end"`
}

const (
	fieldID        = "id"
	fieldTeacher   = "teacher"
	fieldDay       = "day"
	fieldPeriod    = "period"
	fieldClass     = "class"
	fieldSubject   = "subject"
	fieldLesson    = "lesson"
	fieldClasswork = "classwork"
	fieldSupport   = "support"
	fieldHomework  = "homework"
	fieldUpdatedAt = "updatedAt"
)

var columnAliases = map[string]string{
	"id":                fieldID,
	"_id":               fieldID,
	"teacher":           fieldTeacher,
	"enseignant":        fieldTeacher,
	"day":               fieldDay,
	"jour":              fieldDay,
	"period":            fieldPeriod,
	"période":           fieldPeriod,
	"periode":           fieldPeriod,
	"class":             fieldClass,
	"classe":            fieldClass,
	"subject":           fieldSubject,
	"matière":           fieldSubject,
	"matiere":           fieldSubject,
	"lesson":            fieldLesson,
	"leçon":             fieldLesson,
	"lecon":             fieldLesson,
	"classwork":         fieldClasswork,
	"travaux de classe": fieldClasswork,
	"support":           fieldSupport,
	"homework":          fieldHomework,
	"devoirs":           fieldHomework,
	"updatedat":         fieldUpdatedAt,
	"updated_at":        fieldUpdatedAt,
}

// CanonicalColumn maps a loosely spelled column header to its field name.
func CanonicalColumn(header string) (string, bool) {
	field, ok := columnAliases[strings.ToLower(strings.TrimSpace(header))]
	return field, ok
}

func decodeRowFields(data []byte, set func(field string, raw json.RawMessage) error) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return fmt.Errorf("row must be an object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("row must be an object")
	}
	seen := make(map[string]string, len(fields))
	for header, raw := range fields {
		field, ok := CanonicalColumn(header)
		if !ok {
			continue
		}
		if prev, dup := seen[field]; dup {
			first, second := prev, header
			if second < first {
				first, second = second, first
			}
			return fmt.Errorf("columns %q and %q both set %s", first, second, field)
		}
		seen[field] = header
		if err := set(field, raw); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	return nil
}

func decodeText(raw json.RawMessage, dst *string) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*dst = ""
	case string:
		*dst = t
	case float64:
		*dst = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		*dst = strconv.FormatBool(t)
	default:
		return fmt.Errorf("expected text")
	}
	return nil
}

func decodeTextPtr(raw json.RawMessage, dst **string) error {
	var s string
	if err := decodeText(raw, &s); err != nil {
		return err
	}
	*dst = &s
	return nil
}

func decodeDay(raw json.RawMessage, dst *Day) error {
	var s string
	if err := decodeText(raw, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*dst = ""
		return nil
	}
	d, err := ParseDay(s)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func decodePeriod(raw json.RawMessage, dst *int) error {
	var s string
	if err := decodeText(raw, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*dst = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("period must be a whole number")
	}
	*dst = n
	return nil
}

// Week is an academic week number. It decodes from a JSON number or a numeric
// string, the form week pickers submit.
type Week int

// UnmarshalJSON accepts 5 and "5".
func (w *Week) UnmarshalJSON(data []byte) error {
	var n int
	if err := decodePeriod(data, &n); err != nil {
		return fmt.Errorf("week must be a whole number")
	}
	*w = Week(n)
	return nil
}

func decodeTime(raw json.RawMessage, dst **time.Time) error {
	var s string
	if err := decodeText(raw, &s); err != nil {
		return err
	}
	if s == "" {
		*dst = nil
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("updatedAt must be an RFC3339 timestamp")
	}
	*dst = &ts
	return nil
}
