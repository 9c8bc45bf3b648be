package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lesson-plan-api/internal/dto"
	"github.com/noah-isme/lesson-plan-api/internal/models"
	appErrors "github.com/noah-isme/lesson-plan-api/pkg/errors"
	"github.com/noah-isme/lesson-plan-api/pkg/validation"
)

type planRepository interface {
	Get(ctx context.Context, week int, section models.Section) (*models.WeeklyPlan, error)
	Upsert(ctx context.Context, week int, section models.Section, rows []models.SessionRow) error
	UpdateRows(ctx context.Context, week int, section models.Section, fn func(rows []models.SessionRow) ([]models.SessionRow, error)) error
	UpsertNote(ctx context.Context, week int, section models.Section, class, notes string) error
	DistinctClasses(ctx context.Context, section models.Section) ([]string, error)
	ListByClass(ctx context.Context, section models.Section, class string) ([]models.WeeklyPlan, error)
}

// ClassWeek holds the rows and note of one class for one week.
type ClassWeek struct {
	Week  int
	Dates models.WeekRange
	Rows  []models.SessionRow
	Notes string
}

// PlanService implements weekly plan reads and edits.
type PlanService struct {
	repo      planRepository
	cache     *CacheService
	calendar  *CalendarService
	ordering  ClassOrdering
	validator *validation.Validator
	metrics   *MetricsService
	logger    *zap.Logger
	cacheTTL  time.Duration
	now       func() time.Time
}

// PlanServiceConfig tunes caching and class ordering.
type PlanServiceConfig struct {
	CacheTTL   time.Duration
	ClassOrder []string
}

// NewPlanService constructs the plan service.
func NewPlanService(repo planRepository, cache *CacheService, calendar *CalendarService, validate *validation.Validator, metrics *MetricsService, logger *zap.Logger, cfg PlanServiceConfig) *PlanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	if calendar == nil {
		calendar = NewCalendarService(time.Now(), 48)
	}
	return &PlanService{
		repo:      repo,
		cache:     cache,
		calendar:  calendar,
		ordering:  NewClassOrdering(cfg.ClassOrder),
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cacheTTL:  cfg.CacheTTL,
		now:       time.Now,
	}
}

// Ordering exposes the configured class ordering.
func (s *PlanService) Ordering() ClassOrdering {
	return s.ordering
}

func planCacheKey(week int, section models.Section) string {
	return fmt.Sprintf("plans:%s:%d", section, week)
}

func classesCacheKey(section models.Section) string {
	return fmt.Sprintf("plans:%s:classes", section)
}

// GetPlan returns the rows and notes of a week in stored order. Teachers only
// see their own rows. A week never saved yields an empty plan.
func (s *PlanService) GetPlan(ctx context.Context, week int, section models.Section, filter RowFilter, actor models.UserInfo) (*models.WeeklyPlan, error) {
	if err := s.authorize(week, section, actor); err != nil {
		return nil, err
	}

	plan, err := s.loadPlan(ctx, week, section)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		filter.Teacher = actor.Username
	}
	rows := FilterRows(plan.Rows, filter)
	if filter.Sort {
		s.ordering.SortRows(rows)
	}

	notes := make(map[string]string, len(plan.ClassNotes))
	for class, note := range plan.ClassNotes {
		notes[class] = note
	}
	return &models.WeeklyPlan{Week: week, Section: section, Rows: rows, ClassNotes: notes, UpdatedAt: plan.UpdatedAt}, nil
}

func (s *PlanService) loadPlan(ctx context.Context, week int, section models.Section) (*models.WeeklyPlan, error) {
	key := planCacheKey(week, section)
	var cached models.WeeklyPlan
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		if cached.Rows == nil {
			cached.Rows = []models.SessionRow{}
		}
		if cached.ClassNotes == nil {
			cached.ClassNotes = map[string]string{}
		}
		return &cached, nil
	}

	start := time.Now()
	plan, err := s.repo.Get(ctx, week, section)
	s.metrics.ObserveDBQuery("plans_get", time.Since(start))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load plan")
		}
		plan = models.EmptyPlan(week, section)
	}

	_ = s.cache.Set(ctx, key, plan, s.cacheTTL)
	return plan, nil
}

// SavePlan replaces the row list of a week. Only admins may do this; the
// payload must not contain two rows with the same composite key.
func (s *PlanService) SavePlan(ctx context.Context, req dto.SavePlanRequest, actor models.UserInfo) ([]models.SessionRow, error) {
	rows := make([]models.SessionRow, len(req.Data))
	copy(rows, req.Data)
	for i := range rows {
		rows[i].TrimKeys()
	}
	req.Data = rows
	if err := s.validator.Struct(req, "invalid plan payload"); err != nil {
		return nil, err
	}
	if err := s.authorize(int(req.Week), req.Section, actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can replace a whole plan")
	}

	if dups := DuplicateKeys(rows); len(dups) > 0 {
		fields := make(map[string]string, len(dups))
		for i, key := range dups {
			fields[fmt.Sprintf("duplicate[%d]", i)] = key.String()
		}
		return nil, appErrors.WithFields(appErrors.Clone(appErrors.ErrConflict, "plan contains duplicate sessions"), fields)
	}
	rows = AssignRowIDs(rows)

	start := time.Now()
	err := s.repo.Upsert(ctx, int(req.Week), req.Section, rows)
	s.metrics.ObserveDBQuery("plans_upsert", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save plan")
	}

	s.invalidate(ctx, int(req.Week), req.Section, true)
	s.metrics.RecordPlanWrite("save_plan", req.Section)
	s.logger.Info("plan saved",
		zap.Int("week", int(req.Week)),
		zap.String("section", string(req.Section)),
		zap.Int("rows", len(rows)),
		zap.String("user", actor.Username),
	)
	return rows, nil
}

// SaveRow merges one row update into the stored plan.
func (s *PlanService) SaveRow(ctx context.Context, req dto.SaveRowRequest, actor models.UserInfo) (*models.SessionRow, error) {
	if err := s.validator.Struct(req, "invalid row payload"); err != nil {
		return nil, err
	}
	updated, err := s.saveRows(ctx, int(req.Week), req.Section, []models.RowPatch{req.Data}, actor, "save_row")
	if err != nil {
		return nil, err
	}
	return &updated[0], nil
}

// SaveRows merges several row updates atomically: either all apply or none.
func (s *PlanService) SaveRows(ctx context.Context, req dto.SaveRowsRequest, actor models.UserInfo) ([]models.SessionRow, error) {
	if err := s.validator.Struct(req, "invalid rows payload"); err != nil {
		return nil, err
	}
	return s.saveRows(ctx, int(req.Week), req.Section, req.Data, actor, "save_rows")
}

func (s *PlanService) saveRows(ctx context.Context, week int, section models.Section, patches []models.RowPatch, actor models.UserInfo, operation string) ([]models.SessionRow, error) {
	if err := s.authorize(week, section, actor); err != nil {
		return nil, err
	}
	for _, patch := range patches {
		if !actor.IsAdmin() && patch.Teacher != nil && !equalFold(*patch.Teacher, actor.Username) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "teachers can only edit their own sessions")
		}
	}

	now := s.now()
	updated := make([]models.SessionRow, 0, len(patches))
	start := time.Now()
	err := s.repo.UpdateRows(ctx, week, section, func(rows []models.SessionRow) ([]models.SessionRow, error) {
		for _, patch := range patches {
			idx, err := LocateRow(rows, patch)
			if err != nil {
				return nil, err
			}
			if !actor.IsAdmin() && !equalFold(rows[idx].Teacher, actor.Username) {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "teachers can only edit their own sessions")
			}
			merged := MergeRow(rows[idx], patch, now)
			if err := s.validator.Struct(merged, "invalid row after update"); err != nil {
				return nil, err
			}
			rows[idx] = merged
			if keyCollides(rows, idx) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "another session already uses "+merged.Key().String())
			}
			updated = append(updated, merged)
		}
		return rows, nil
	})
	s.metrics.ObserveDBQuery("plans_update_rows", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no plan saved for week %d", week))
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update plan rows")
	}

	s.invalidate(ctx, week, section, true)
	s.metrics.RecordPlanWrite(operation, section)
	s.logger.Info("plan rows updated",
		zap.Int("week", week),
		zap.String("section", string(section)),
		zap.Int("rows", len(updated)),
		zap.String("user", actor.Username),
	)
	return updated, nil
}

// SaveNotes stores the note of one class for a week, creating the plan if needed.
func (s *PlanService) SaveNotes(ctx context.Context, req dto.SaveNotesRequest, actor models.UserInfo) error {
	req.Classe = strings.TrimSpace(req.Classe)
	if err := s.validator.Struct(req, "invalid notes payload"); err != nil {
		return err
	}
	if err := s.authorize(int(req.Week), req.Section, actor); err != nil {
		return err
	}

	start := time.Now()
	err := s.repo.UpsertNote(ctx, int(req.Week), req.Section, req.Classe, req.Notes)
	s.metrics.ObserveDBQuery("plans_upsert_note", time.Since(start))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save notes")
	}

	s.invalidate(ctx, int(req.Week), req.Section, false)
	s.metrics.RecordPlanWrite("save_notes", req.Section)
	return nil
}

// AllClasses lists the distinct classes of a section in display order.
func (s *PlanService) AllClasses(ctx context.Context, section models.Section, actor models.UserInfo) ([]string, error) {
	if err := s.authorizeSection(section, actor); err != nil {
		return nil, err
	}

	key := classesCacheKey(section)
	var cached []string
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	start := time.Now()
	classes, err := s.repo.DistinctClasses(ctx, section)
	s.metrics.ObserveDBQuery("plans_distinct_classes", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	classes = s.ordering.SortClasses(classes)

	_ = s.cache.Set(ctx, key, classes, s.cacheTTL)
	return classes, nil
}

// ClassHistory returns, week by week, the rows of one class visible to actor.
func (s *PlanService) ClassHistory(ctx context.Context, section models.Section, class string, actor models.UserInfo) ([]ClassWeek, error) {
	class = strings.TrimSpace(class)
	if class == "" {
		return nil, appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "class is required"), map[string]string{"classe": "classe is a required field"})
	}
	if err := s.authorizeSection(section, actor); err != nil {
		return nil, err
	}

	start := time.Now()
	plans, err := s.repo.ListByClass(ctx, section, class)
	s.metrics.ObserveDBQuery("plans_list_by_class", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class history")
	}

	filter := RowFilter{Class: class}
	if !actor.IsAdmin() {
		filter.Teacher = actor.Username
	}
	history := make([]ClassWeek, 0, len(plans))
	for _, plan := range plans {
		rows := FilterRows(plan.Rows, filter)
		if len(rows) == 0 {
			continue
		}
		s.ordering.SortRows(rows)
		dates, _ := s.calendar.Week(plan.Week)
		history = append(history, ClassWeek{Week: plan.Week, Dates: dates, Rows: rows, Notes: noteFor(plan.ClassNotes, class)})
	}
	return history, nil
}

func noteFor(notes map[string]string, class string) string {
	if note, ok := notes[class]; ok {
		return note
	}
	for key, note := range notes {
		if equalFold(key, class) {
			return note
		}
	}
	return ""
}

func (s *PlanService) authorize(week int, section models.Section, actor models.UserInfo) error {
	if err := s.calendar.ValidateWeek(week); err != nil {
		return err
	}
	return s.authorizeSection(section, actor)
}

func (s *PlanService) authorizeSection(section models.Section, actor models.UserInfo) error {
	if !section.Valid() {
		return appErrors.WithFields(
			appErrors.Clone(appErrors.ErrValidation, "invalid section"),
			map[string]string{"section": "section must be one of boys, girls"},
		)
	}
	if actor.IsAdmin() {
		return nil
	}
	for _, allowed := range actor.Sections {
		if allowed == section {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "user is not registered in section "+string(section))
}

func (s *PlanService) invalidate(ctx context.Context, week int, section models.Section, classes bool) {
	keys := []string{planCacheKey(week, section)}
	if classes {
		keys = append(keys, classesCacheKey(section))
	}
	_ = s.cache.Evict(ctx, keys...)
}
