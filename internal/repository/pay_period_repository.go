package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clockwise-hq/timetrack-api/internal/models"
)

const payPeriodColumns = "id, pay_group, start_date, end_date, payroll_run_date, status, created_at, updated_at"

// PayPeriodRepository handles persistence for pay periods.
type PayPeriodRepository struct {
	db *sqlx.DB
}

// NewPayPeriodRepository instantiates a pay-period repository.
func NewPayPeriodRepository(db *sqlx.DB) *PayPeriodRepository {
	return &PayPeriodRepository{db: db}
}

// List returns pay periods matching the filter, newest first.
func (r *PayPeriodRepository) List(ctx context.Context, filter models.PayPeriodFilter) ([]models.PayPeriod, error) {
	base := "FROM pay_periods WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.PayGroup != "" {
		conditions = append(conditions, fmt.Sprintf("pay_group = $%d", len(args)+1))
		args = append(args, filter.PayGroup)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY start_date DESC LIMIT %d", payPeriodColumns, base, limit)

	var periods []models.PayPeriod
	if err := r.db.SelectContext(ctx, &periods, query, args...); err != nil {
		return nil, fmt.Errorf("list pay periods: %w", err)
	}
	return periods, nil
}

// FindByID loads a pay period by identifier.
func (r *PayPeriodRepository) FindByID(ctx context.Context, id string) (*models.PayPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM pay_periods WHERE id = $1", payPeriodColumns)
	var period models.PayPeriod
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindOpenContaining returns the open period of a group whose inclusive
// date range contains the given date.
func (r *PayPeriodRepository) FindOpenContaining(ctx context.Context, group models.PayGroup, date time.Time) (*models.PayPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM pay_periods WHERE pay_group = $1 AND status = 'open' AND start_date <= $2 AND end_date >= $2 LIMIT 1`, payPeriodColumns)
	var period models.PayPeriod
	if err := r.db.GetContext(ctx, &period, query, group, models.DateOnly(date)); err != nil {
		return nil, err
	}
	return &period, nil
}

// ExistsOverlapping checks whether any period of the group intersects the
// inclusive range, optionally excluding one period by id.
func (r *PayPeriodRepository) ExistsOverlapping(ctx context.Context, group models.PayGroup, start, end time.Time, excludeID string) (bool, error) {
	base := "SELECT 1 FROM pay_periods WHERE pay_group = $1 AND start_date <= $3 AND end_date >= $2"
	args := []interface{}{group, models.DateOnly(start), models.DateOnly(end)}
	if excludeID != "" {
		base += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check pay period overlap: %w", err)
	}
	return true, nil
}

// Create inserts a single pay period.
func (r *PayPeriodRepository) Create(ctx context.Context, period *models.PayPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if period.CreatedAt.IsZero() {
		period.CreatedAt = now
	}
	period.UpdatedAt = now

	const query = `INSERT INTO pay_periods (id, pay_group, start_date, end_date, payroll_run_date, status, created_at, updated_at) VALUES (:id, :pay_group, :start_date, :end_date, :payroll_run_date, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create pay period: %w", err)
	}
	return nil
}

// CreateBatch inserts a generated schedule atomically. If any insert hits
// a constraint the whole batch rolls back.
func (r *PayPeriodRepository) CreateBatch(ctx context.Context, periods []models.PayPeriod) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO pay_periods (id, pay_group, start_date, end_date, payroll_run_date, status, created_at, updated_at) VALUES (:id, :pay_group, :start_date, :end_date, :payroll_run_date, :status, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range periods {
		if periods[i].ID == "" {
			periods[i].ID = uuid.NewString()
		}
		periods[i].CreatedAt = now
		periods[i].UpdatedAt = now
		if _, err = tx.NamedExecContext(ctx, query, periods[i]); err != nil {
			return fmt.Errorf("insert generated pay period: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit batch tx: %w", err)
	}
	return nil
}

// Update modifies the dates and payroll run date of a period.
func (r *PayPeriodRepository) Update(ctx context.Context, period *models.PayPeriod) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE pay_periods SET start_date = :start_date, end_date = :end_date, payroll_run_date = :payroll_run_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("update pay period: %w", err)
	}
	return nil
}

// UpdateStatus advances a period from one status to another. Returns the
// number of rows changed so callers can detect a stale transition.
func (r *PayPeriodRepository) UpdateStatus(ctx context.Context, id string, from, to models.PayPeriodStatus) (int64, error) {
	const query = `UPDATE pay_periods SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("update pay period status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pay period status rows affected: %w", err)
	}
	return affected, nil
}

// CountTimesheets returns the number of timesheets bound to the period.
func (r *PayPeriodRepository) CountTimesheets(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM timesheets WHERE pay_period_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count period timesheets: %w", err)
	}
	return count, nil
}
