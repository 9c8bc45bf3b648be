package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/lesson-plan-api/internal/models"
)

// PlanRepository persists weekly plan documents, one per (week, section).
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository constructs the repository.
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

type planRecord struct {
	Week       int            `db:"week"`
	Section    string         `db:"section"`
	Data       types.JSONText `db:"data"`
	ClassNotes types.JSONText `db:"class_notes"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (r planRecord) toModel() (*models.WeeklyPlan, error) {
	plan := models.EmptyPlan(r.Week, models.Section(r.Section))
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &plan.Rows); err != nil {
			return nil, fmt.Errorf("decode plan rows: %w", err)
		}
	}
	if len(r.ClassNotes) > 0 {
		if err := json.Unmarshal(r.ClassNotes, &plan.ClassNotes); err != nil {
			return nil, fmt.Errorf("decode class notes: %w", err)
		}
	}
	if plan.Rows == nil {
		plan.Rows = []models.SessionRow{}
	}
	if plan.ClassNotes == nil {
		plan.ClassNotes = map[string]string{}
	}
	updated := r.UpdatedAt
	plan.UpdatedAt = &updated
	return plan, nil
}

func encodeRows(rows []models.SessionRow) (types.JSONText, error) {
	if rows == nil {
		rows = []models.SessionRow{}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode plan rows: %w", err)
	}
	return types.JSONText(payload), nil
}

const selectPlanColumns = `SELECT week, section, data, class_notes, updated_at FROM weekly_plans`

// Get loads the plan for a week and section. sql.ErrNoRows is returned when it was never saved.
func (r *PlanRepository) Get(ctx context.Context, week int, section models.Section) (*models.WeeklyPlan, error) {
	query := selectPlanColumns + ` WHERE week = $1 AND section = $2`
	var record planRecord
	if err := r.db.GetContext(ctx, &record, query, week, string(section)); err != nil {
		return nil, err
	}
	return record.toModel()
}

// Upsert replaces the row list of a plan, creating the document when absent. Notes are left untouched.
func (r *PlanRepository) Upsert(ctx context.Context, week int, section models.Section, rows []models.SessionRow) error {
	data, err := encodeRows(rows)
	if err != nil {
		return err
	}
	const query = `INSERT INTO weekly_plans (week, section, data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (week, section) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, week, string(section), data, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert weekly plan: %w", err)
	}
	return nil
}

// UpdateRows locks the plan row, applies fn and writes the result back in one
// transaction. sql.ErrNoRows is returned when the plan does not exist; errors
// returned by fn are passed through unchanged and nothing is written.
func (r *PlanRepository) UpdateRows(ctx context.Context, week int, section models.Section, fn func(rows []models.SessionRow) ([]models.SessionRow, error)) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin plan transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var data types.JSONText
	const selectQuery = `SELECT data FROM weekly_plans WHERE week = $1 AND section = $2 FOR UPDATE`
	if err = tx.GetContext(ctx, &data, selectQuery, week, string(section)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock weekly plan: %w", err)
	}

	var rows []models.SessionRow
	if len(data) > 0 {
		if err = json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("decode plan rows: %w", err)
		}
	}

	updated, err := fn(rows)
	if err != nil {
		return err
	}

	payload, err := encodeRows(updated)
	if err != nil {
		return err
	}
	const updateQuery = `UPDATE weekly_plans SET data = $1, updated_at = $2 WHERE week = $3 AND section = $4`
	if _, err = tx.ExecContext(ctx, updateQuery, payload, time.Now().UTC(), week, string(section)); err != nil {
		return fmt.Errorf("update weekly plan rows: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit weekly plan: %w", err)
	}
	return nil
}

// UpsertNote sets the note of one class, creating the plan when absent.
func (r *PlanRepository) UpsertNote(ctx context.Context, week int, section models.Section, class, notes string) error {
	const query = `INSERT INTO weekly_plans (week, section, class_notes, created_at, updated_at)
VALUES ($1, $2, jsonb_build_object($3::text, $4::text), $5, $5)
ON CONFLICT (week, section) DO UPDATE SET class_notes = weekly_plans.class_notes || EXCLUDED.class_notes, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, week, string(section), class, notes, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert class note: %w", err)
	}
	return nil
}

// DistinctClasses returns every class identifier used by a section across all weeks.
func (r *PlanRepository) DistinctClasses(ctx context.Context, section models.Section) ([]string, error) {
	const query = `SELECT DISTINCT elem->>'class' AS class
FROM weekly_plans, jsonb_array_elements(data) AS elem
WHERE section = $1 AND COALESCE(elem->>'class', '') <> ''`
	var classes []string
	if err := r.db.SelectContext(ctx, &classes, query, string(section)); err != nil {
		return nil, fmt.Errorf("list distinct classes: %w", err)
	}
	return classes, nil
}

// ListByClass returns every plan of a section holding at least one row of the class, ordered by week.
func (r *PlanRepository) ListByClass(ctx context.Context, section models.Section, class string) ([]models.WeeklyPlan, error) {
	query := selectPlanColumns + ` WHERE section = $1
AND EXISTS (SELECT 1 FROM jsonb_array_elements(data) AS elem WHERE lower(elem->>'class') = lower($2))
ORDER BY week`
	var records []planRecord
	if err := r.db.SelectContext(ctx, &records, query, string(section), class); err != nil {
		return nil, fmt.Errorf("list plans by class: %w", err)
	}
	plans := make([]models.WeeklyPlan, 0, len(records))
	for _, record := range records {
		plan, err := record.toModel()
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	return plans, nil
}

// Ping checks database connectivity.
func (r *PlanRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
