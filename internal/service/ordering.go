package service

import (
	"sort"
	"strings"

	"github.com/noah-isme/lesson-plan-api/internal/models"
)

// RowFilter narrows a plan to the rows matching every non-empty field.
// Sort asks for display order instead of stored order.
type RowFilter struct {
	Teacher string
	Class   string
	Subject string
	Period  int
	Day     models.Day
	Sort    bool
}

// Matches reports whether row satisfies the filter.
func (f RowFilter) Matches(row models.SessionRow) bool {
	if f.Teacher != "" && !equalFold(row.Teacher, f.Teacher) {
		return false
	}
	if f.Class != "" && !equalFold(row.Class, f.Class) {
		return false
	}
	if f.Subject != "" && !equalFold(row.Subject, f.Subject) {
		return false
	}
	if f.Period > 0 && row.Period != f.Period {
		return false
	}
	if f.Day != "" && row.Day != f.Day {
		return false
	}
	return true
}

// FilterRows returns the rows matching f, preserving order.
func FilterRows(rows []models.SessionRow, f RowFilter) []models.SessionRow {
	out := make([]models.SessionRow, 0, len(rows))
	for _, row := range rows {
		if f.Matches(row) {
			out = append(out, row)
		}
	}
	return out
}

// ClassOrdering ranks classes by a fixed list; classes outside it follow in alphabetical order.
type ClassOrdering struct {
	rank map[string]int
}

// NewClassOrdering builds an ordering from the configured class list.
func NewClassOrdering(order []string) ClassOrdering {
	rank := make(map[string]int, len(order))
	for i, class := range order {
		key := normalizeClass(class)
		if _, exists := rank[key]; !exists {
			rank[key] = i
		}
	}
	return ClassOrdering{rank: rank}
}

// Compare returns -1, 0 or 1 as a sorts before, equal to or after b.
func (o ClassOrdering) Compare(a, b string) int {
	ra, knownA := o.rank[normalizeClass(a)]
	rb, knownB := o.rank[normalizeClass(b)]
	switch {
	case knownA && knownB:
		return compareInts(ra, rb)
	case knownA:
		return -1
	case knownB:
		return 1
	}
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// SortRows orders rows by class, then school day, then period.
func (o ClassOrdering) SortRows(rows []models.SessionRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := o.Compare(rows[i].Class, rows[j].Class); c != 0 {
			return c < 0
		}
		if di, dj := rows[i].Day.Order(), rows[j].Day.Order(); di != dj {
			return di < dj
		}
		return rows[i].Period < rows[j].Period
	})
}

// SortClasses returns the distinct classes in display order.
func (o ClassOrdering) SortClasses(classes []string) []string {
	seen := make(map[string]struct{}, len(classes))
	out := make([]string, 0, len(classes))
	for _, class := range classes {
		class = strings.TrimSpace(class)
		if class == "" {
			continue
		}
		if _, dup := seen[class]; dup {
			continue
		}
		seen[class] = struct{}{}
		out = append(out, class)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return o.Compare(out[i], out[j]) < 0
	})
	return out
}

// GroupByClass splits rows per class, returning the classes in display order.
func (o ClassOrdering) GroupByClass(rows []models.SessionRow) ([]string, map[string][]models.SessionRow) {
	groups := make(map[string][]models.SessionRow)
	classes := make([]string, 0)
	for _, row := range rows {
		class := strings.TrimSpace(row.Class)
		if _, ok := groups[class]; !ok {
			classes = append(classes, class)
		}
		groups[class] = append(groups[class], row)
	}
	classes = o.SortClasses(classes)
	for _, class := range classes {
		o.SortRows(groups[class])
	}
	return classes, groups
}

func normalizeClass(class string) string {
	return strings.ToUpper(strings.TrimSpace(class))
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
