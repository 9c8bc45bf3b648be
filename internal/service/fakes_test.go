package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/lesson-plan-api/internal/models"
	appErrors "github.com/noah-isme/lesson-plan-api/pkg/errors"
)

type planKey struct {
	week    int
	section models.Section
}

// memoryPlanRepo stores plans as JSON so reads never alias stored slices.
type memoryPlanRepo struct {
	mu       sync.Mutex
	plans    map[planKey][]byte
	getCalls int
	failWith error
}

func newMemoryPlanRepo() *memoryPlanRepo {
	return &memoryPlanRepo{plans: make(map[planKey][]byte)}
}

func (m *memoryPlanRepo) load(key planKey) (*models.WeeklyPlan, bool) {
	raw, ok := m.plans[key]
	if !ok {
		return nil, false
	}
	var plan models.WeeklyPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		panic(err)
	}
	if plan.ClassNotes == nil {
		plan.ClassNotes = map[string]string{}
	}
	if plan.Rows == nil {
		plan.Rows = []models.SessionRow{}
	}
	return &plan, true
}

func (m *memoryPlanRepo) store(plan *models.WeeklyPlan) {
	raw, err := json.Marshal(plan)
	if err != nil {
		panic(err)
	}
	m.plans[planKey{plan.Week, plan.Section}] = raw
}

func (m *memoryPlanRepo) Get(_ context.Context, week int, section models.Section) (*models.WeeklyPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.failWith != nil {
		return nil, m.failWith
	}
	plan, ok := m.load(planKey{week, section})
	if !ok {
		return nil, sql.ErrNoRows
	}
	return plan, nil
}

func (m *memoryPlanRepo) Upsert(_ context.Context, week int, section models.Section, rows []models.SessionRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.load(planKey{week, section})
	if !ok {
		plan = models.EmptyPlan(week, section)
	}
	plan.Rows = rows
	now := time.Now().UTC()
	plan.UpdatedAt = &now
	m.store(plan)
	return nil
}

func (m *memoryPlanRepo) UpdateRows(_ context.Context, week int, section models.Section, fn func(rows []models.SessionRow) ([]models.SessionRow, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.load(planKey{week, section})
	if !ok {
		return sql.ErrNoRows
	}
	rows, err := fn(plan.Rows)
	if err != nil {
		return err
	}
	plan.Rows = rows
	m.store(plan)
	return nil
}

func (m *memoryPlanRepo) UpsertNote(_ context.Context, week int, section models.Section, class, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.load(planKey{week, section})
	if !ok {
		plan = models.EmptyPlan(week, section)
	}
	plan.ClassNotes[class] = notes
	m.store(plan)
	return nil
}

func (m *memoryPlanRepo) DistinctClasses(_ context.Context, section models.Section) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for key := range m.plans {
		if key.section != section {
			continue
		}
		plan, _ := m.load(key)
		for _, row := range plan.Rows {
			if _, ok := seen[row.Class]; !ok && row.Class != "" {
				seen[row.Class] = struct{}{}
				out = append(out, row.Class)
			}
		}
	}
	return out, nil
}

func (m *memoryPlanRepo) ListByClass(_ context.Context, section models.Section, class string) ([]models.WeeklyPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WeeklyPlan
	for week := 1; week <= 48; week++ {
		plan, ok := m.load(planKey{week, section})
		if !ok {
			continue
		}
		for _, row := range plan.Rows {
			if strings.EqualFold(row.Class, class) {
				out = append(out, *plan)
				break
			}
		}
	}
	return out, nil
}

// memoryCache is a CacheRepository backed by a map of JSON payloads.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	evicted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
		c.evicted = append(c.evicted, key)
	}
	return nil
}

func (c *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

var (
	adminUser   = models.UserInfo{Username: "Mohamed", Role: models.RoleAdmin, Section: models.SectionBoys, Sections: models.Sections, Language: models.LanguageFrench}
	teacherAbas = models.UserInfo{Username: "Abas", Role: models.RoleTeacher, Section: models.SectionBoys, Sections: []models.Section{models.SectionBoys}, Language: models.LanguageFrench}
	teacherNour = models.UserInfo{Username: "Nour", Role: models.RoleTeacher, Section: models.SectionGirls, Sections: []models.Section{models.SectionGirls}, Language: models.LanguageEnglish}
)

func row(teacher, class string, day models.Day, period int, subject string) models.SessionRow {
	return models.SessionRow{Teacher: teacher, Class: class, Day: day, Period: period, Subject: subject}
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func dayPtr(d models.Day) *models.Day { return &d }

func keyPatch(r models.SessionRow) models.RowPatch {
	return models.RowPatch{
		Teacher: strPtr(r.Teacher),
		Class:   strPtr(r.Class),
		Day:     dayPtr(r.Day),
		Period:  intPtr(r.Period),
		Subject: strPtr(r.Subject),
	}
}

func describe(rows []models.SessionRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = fmt.Sprintf("%s/%s/%d", r.Class, r.Day, r.Period)
	}
	return out
}
