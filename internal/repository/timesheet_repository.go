package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clockwise-hq/timetrack-api/internal/models"
)

const timesheetColumns = "id, employee_id, pay_period_id, status, submitted_at, approved_at, approved_by, rejection_reason, created_at, updated_at"

// TimesheetRepository handles persistence for timesheets.
type TimesheetRepository struct {
	db *sqlx.DB
}

// NewTimesheetRepository instantiates a timesheet repository.
func NewTimesheetRepository(db *sqlx.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

// List returns timesheets matching the filter.
func (r *TimesheetRepository) List(ctx context.Context, filter models.TimesheetFilter) ([]models.Timesheet, error) {
	base := "FROM timesheets WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.PayPeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("pay_period_id = $%d", len(args)+1))
		args = append(args, filter.PayPeriodID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC", timesheetColumns, base)

	var sheets []models.Timesheet
	if err := r.db.SelectContext(ctx, &sheets, query, args...); err != nil {
		return nil, fmt.Errorf("list timesheets: %w", err)
	}
	return sheets, nil
}

// FindByID loads a timesheet by identifier.
func (r *TimesheetRepository) FindByID(ctx context.Context, id string) (*models.Timesheet, error) {
	query := fmt.Sprintf("SELECT %s FROM timesheets WHERE id = $1", timesheetColumns)
	var sheet models.Timesheet
	if err := r.db.GetContext(ctx, &sheet, query, id); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// FindByEmployeeAndPeriod loads the unique timesheet for the pair.
func (r *TimesheetRepository) FindByEmployeeAndPeriod(ctx context.Context, employeeID, payPeriodID string) (*models.Timesheet, error) {
	query := fmt.Sprintf("SELECT %s FROM timesheets WHERE employee_id = $1 AND pay_period_id = $2 LIMIT 1", timesheetColumns)
	var sheet models.Timesheet
	if err := r.db.GetContext(ctx, &sheet, query, employeeID, payPeriodID); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// GetOrCreate returns the timesheet for the pair, inserting a draft if
// none exists yet. The unique index on (employee_id, pay_period_id) makes
// this safe under concurrent calls: losers of the insert race fall
// through to the reselect.
func (r *TimesheetRepository) GetOrCreate(ctx context.Context, employeeID, payPeriodID string) (*models.Timesheet, error) {
	now := time.Now().UTC()
	const insert = `INSERT INTO timesheets (id, employee_id, pay_period_id, status, created_at, updated_at) VALUES ($1, $2, $3, 'draft', $4, $4) ON CONFLICT (employee_id, pay_period_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), employeeID, payPeriodID, now); err != nil {
		return nil, fmt.Errorf("create draft timesheet: %w", err)
	}
	return r.FindByEmployeeAndPeriod(ctx, employeeID, payPeriodID)
}

// MarkSubmitted moves a draft or rejected timesheet to submitted,
// clearing any previous rejection reason. Returns rows changed.
func (r *TimesheetRepository) MarkSubmitted(ctx context.Context, id string, at time.Time) (int64, error) {
	const query = `UPDATE timesheets SET status = 'submitted', submitted_at = $2, rejection_reason = NULL, updated_at = $2 WHERE id = $1 AND status IN ('draft', 'rejected')`
	return r.exec(ctx, query, id, at)
}

// MarkApproved moves a submitted timesheet to approved. Returns rows changed.
func (r *TimesheetRepository) MarkApproved(ctx context.Context, id, approverID string, at time.Time) (int64, error) {
	const query = `UPDATE timesheets SET status = 'approved', approved_at = $3, approved_by = $2, updated_at = $3 WHERE id = $1 AND status = 'submitted'`
	return r.exec(ctx, query, id, approverID, at)
}

// MarkRejected moves a submitted timesheet to rejected with a reason and
// clears any approval fields. Returns rows changed.
func (r *TimesheetRepository) MarkRejected(ctx context.Context, id, reason string, at time.Time) (int64, error) {
	const query = `UPDATE timesheets SET status = 'rejected', rejection_reason = $2, approved_at = NULL, approved_by = NULL, updated_at = $3 WHERE id = $1 AND status = 'submitted'`
	return r.exec(ctx, query, id, reason, at)
}

// MarkReopened returns a submitted or approved timesheet to draft,
// clearing all workflow fields. Returns rows changed.
func (r *TimesheetRepository) MarkReopened(ctx context.Context, id string, at time.Time) (int64, error) {
	const query = `UPDATE timesheets SET status = 'draft', submitted_at = NULL, approved_at = NULL, approved_by = NULL, rejection_reason = NULL, updated_at = $2 WHERE id = $1 AND status IN ('submitted', 'approved')`
	return r.exec(ctx, query, id, at)
}

// DeleteDraft removes a draft or rejected timesheet; entries cascade.
// Returns rows changed.
func (r *TimesheetRepository) DeleteDraft(ctx context.Context, id string) (int64, error) {
	const query = `DELETE FROM timesheets WHERE id = $1 AND status IN ('draft', 'rejected')`
	return r.exec(ctx, query, id)
}

// CountEntries returns the combined number of time and PTO entries.
func (r *TimesheetRepository) CountEntries(ctx context.Context, id string) (int, error) {
	const query = `SELECT (SELECT COUNT(*) FROM time_entries WHERE timesheet_id = $1) + (SELECT COUNT(*) FROM pto_entries WHERE timesheet_id = $1)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count timesheet entries: %w", err)
	}
	return count, nil
}

func (r *TimesheetRepository) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update timesheet: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("timesheet rows affected: %w", err)
	}
	return affected, nil
}
