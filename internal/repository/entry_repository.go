package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clockwise-hq/timetrack-api/internal/models"
)

const (
	timeEntryColumns = "id, timesheet_id, work_date, hours, is_overtime, client_id, location_id, job_code_id, service_type_id, notes, created_at, updated_at"
	ptoEntryColumns  = "id, timesheet_id, pto_date, hours, pto_type, notes, created_at, updated_at"
)

// EntryRepository handles persistence for time and PTO entries.
type EntryRepository struct {
	db *sqlx.DB
}

// NewEntryRepository instantiates an entry repository.
func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// ListTimeEntries returns all work entries of a timesheet ordered by date.
func (r *EntryRepository) ListTimeEntries(ctx context.Context, timesheetID string) ([]models.TimeEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM time_entries WHERE timesheet_id = $1 ORDER BY work_date", timeEntryColumns)
	var entries []models.TimeEntry
	if err := r.db.SelectContext(ctx, &entries, query, timesheetID); err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	return entries, nil
}

// FindTimeEntryByID loads a work entry by identifier.
func (r *EntryRepository) FindTimeEntryByID(ctx context.Context, id string) (*models.TimeEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM time_entries WHERE id = $1", timeEntryColumns)
	var entry models.TimeEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateTimeEntry inserts a work entry.
func (r *EntryRepository) CreateTimeEntry(ctx context.Context, entry *models.TimeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	const query = `INSERT INTO time_entries (id, timesheet_id, work_date, hours, is_overtime, client_id, location_id, job_code_id, service_type_id, notes, created_at, updated_at) VALUES (:id, :timesheet_id, :work_date, :hours, :is_overtime, :client_id, :location_id, :job_code_id, :service_type_id, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create time entry: %w", err)
	}
	return nil
}

// UpdateTimeEntry modifies an existing work entry.
func (r *EntryRepository) UpdateTimeEntry(ctx context.Context, entry *models.TimeEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE time_entries SET work_date = :work_date, hours = :hours, is_overtime = :is_overtime, client_id = :client_id, location_id = :location_id, job_code_id = :job_code_id, service_type_id = :service_type_id, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update time entry: %w", err)
	}
	return nil
}

// DeleteTimeEntry removes a work entry permanently.
func (r *EntryRepository) DeleteTimeEntry(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete time entry: %w", err)
	}
	return nil
}

// ListPTOEntries returns all PTO entries of a timesheet ordered by date.
func (r *EntryRepository) ListPTOEntries(ctx context.Context, timesheetID string) ([]models.PTOEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM pto_entries WHERE timesheet_id = $1 ORDER BY pto_date", ptoEntryColumns)
	var entries []models.PTOEntry
	if err := r.db.SelectContext(ctx, &entries, query, timesheetID); err != nil {
		return nil, fmt.Errorf("list pto entries: %w", err)
	}
	return entries, nil
}

// FindPTOEntryByID loads a PTO entry by identifier.
func (r *EntryRepository) FindPTOEntryByID(ctx context.Context, id string) (*models.PTOEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM pto_entries WHERE id = $1", ptoEntryColumns)
	var entry models.PTOEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreatePTOEntry inserts a PTO entry.
func (r *EntryRepository) CreatePTOEntry(ctx context.Context, entry *models.PTOEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	const query = `INSERT INTO pto_entries (id, timesheet_id, pto_date, hours, pto_type, notes, created_at, updated_at) VALUES (:id, :timesheet_id, :pto_date, :hours, :pto_type, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create pto entry: %w", err)
	}
	return nil
}

// UpdatePTOEntry modifies an existing PTO entry.
func (r *EntryRepository) UpdatePTOEntry(ctx context.Context, entry *models.PTOEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE pto_entries SET pto_date = :pto_date, hours = :hours, pto_type = :pto_type, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update pto entry: %w", err)
	}
	return nil
}

// DeletePTOEntry removes a PTO entry permanently.
func (r *EntryRepository) DeletePTOEntry(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pto_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete pto entry: %w", err)
	}
	return nil
}

// ListEntryRecords returns denormalized entry rows for a pay period,
// combining work and PTO entries for downstream aggregation.
func (r *EntryRepository) ListEntryRecords(ctx context.Context, payPeriodID string) ([]models.EntryRecord, error) {
	const query = `
SELECT t.id AS timesheet_id, t.status AS timesheet_status,
       e.id AS employee_id, e.first_name || ' ' || e.last_name AS employee_name, e.pay_group, e.hourly_rate,
       te.work_date, te.hours, FALSE AS is_pto, te.is_overtime, NULL AS pto_type,
       c.name AS client_name, jc.code AS job_code, st.name AS service_type
FROM time_entries te
JOIN timesheets t ON t.id = te.timesheet_id
JOIN employees e ON e.id = t.employee_id
LEFT JOIN clients c ON c.id = te.client_id
LEFT JOIN job_codes jc ON jc.id = te.job_code_id
LEFT JOIN service_types st ON st.id = te.service_type_id
WHERE t.pay_period_id = $1
UNION ALL
SELECT t.id, t.status,
       e.id, e.first_name || ' ' || e.last_name, e.pay_group, e.hourly_rate,
       pe.pto_date, pe.hours, TRUE, FALSE, pe.pto_type,
       NULL, NULL, NULL
FROM pto_entries pe
JOIN timesheets t ON t.id = pe.timesheet_id
JOIN employees e ON e.id = t.employee_id
WHERE t.pay_period_id = $1
ORDER BY 7`
	var records []models.EntryRecord
	if err := r.db.SelectContext(ctx, &records, query, payPeriodID); err != nil {
		return nil, fmt.Errorf("list entry records: %w", err)
	}
	return records, nil
}
