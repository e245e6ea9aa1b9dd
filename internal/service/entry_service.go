package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	appErrors "github.com/clockwise-hq/timetrack-api/pkg/errors"
)

type entryRepository interface {
	ListTimeEntries(ctx context.Context, timesheetID string) ([]models.TimeEntry, error)
	FindTimeEntryByID(ctx context.Context, id string) (*models.TimeEntry, error)
	CreateTimeEntry(ctx context.Context, entry *models.TimeEntry) error
	UpdateTimeEntry(ctx context.Context, entry *models.TimeEntry) error
	DeleteTimeEntry(ctx context.Context, id string) error
	ListPTOEntries(ctx context.Context, timesheetID string) ([]models.PTOEntry, error)
	FindPTOEntryByID(ctx context.Context, id string) (*models.PTOEntry, error)
	CreatePTOEntry(ctx context.Context, entry *models.PTOEntry) error
	UpdatePTOEntry(ctx context.Context, entry *models.PTOEntry) error
	DeletePTOEntry(ctx context.Context, id string) error
}

type timesheetFinder interface {
	FindByID(ctx context.Context, id string) (*models.Timesheet, error)
}

type periodFinder interface {
	FindByID(ctx context.Context, id string) (*models.PayPeriod, error)
}

// TimeEntryRequest is the payload for creating or replacing a work entry.
type TimeEntryRequest struct {
	WorkDate      time.Time       `json:"work_date" validate:"required"`
	Hours         decimal.Decimal `json:"hours" validate:"required"`
	IsOvertime    bool            `json:"is_overtime"`
	ClientID      *string         `json:"client_id"`
	LocationID    *string         `json:"location_id"`
	JobCodeID     *string         `json:"job_code_id"`
	ServiceTypeID *string         `json:"service_type_id"`
	Notes         *string         `json:"notes"`
}

// PTOEntryRequest is the payload for creating or replacing a PTO entry.
type PTOEntryRequest struct {
	PTODate time.Time       `json:"pto_date" validate:"required"`
	Hours   decimal.Decimal `json:"hours" validate:"required"`
	Type    models.PTOType  `json:"type" validate:"required,oneof=vacation sick holiday personal"`
	Notes   *string         `json:"notes"`
}

// EntryService guards every entry mutation behind the same gate: the
// owning timesheet must be editable, the date must fall inside the pay
// period and not in the future, and hours must be a sane day's worth.
type EntryService struct {
	repo      entryRepository
	sheets    timesheetFinder
	periods   periodFinder
	maxDaily  decimal.Decimal
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEntryService creates a new entry service instance. maxDailyHours
// bounds a single entry; zero falls back to 24.
func NewEntryService(repo entryRepository, sheets timesheetFinder, periods periodFinder, maxDailyHours int, validate *validator.Validate, logger *zap.Logger) *EntryService {
	if maxDailyHours <= 0 || maxDailyHours > 24 {
		maxDailyHours = 24
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryService{
		repo:      repo,
		sheets:    sheets,
		periods:   periods,
		maxDaily:  decimal.NewFromInt(int64(maxDailyHours)),
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// ListTimeEntries returns the work entries of a timesheet the actor may see.
func (s *EntryService) ListTimeEntries(ctx context.Context, actor Actor, timesheetID string) ([]models.TimeEntry, error) {
	if _, err := s.visibleSheet(ctx, actor, timesheetID); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListTimeEntries(ctx, timesheetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time entries")
	}
	return entries, nil
}

// CreateTimeEntry adds a work entry to an editable timesheet.
func (s *EntryService) CreateTimeEntry(ctx context.Context, actor Actor, timesheetID string, req TimeEntryRequest) (*models.TimeEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry payload")
	}
	if err := s.gate(ctx, actor, timesheetID, req.WorkDate, req.Hours); err != nil {
		return nil, err
	}

	entry := &models.TimeEntry{
		TimesheetID:   timesheetID,
		WorkDate:      models.DateOnly(req.WorkDate),
		Hours:         req.Hours,
		IsOvertime:    req.IsOvertime,
		ClientID:      req.ClientID,
		LocationID:    req.LocationID,
		JobCodeID:     req.JobCodeID,
		ServiceTypeID: req.ServiceTypeID,
		Notes:         req.Notes,
	}
	if err := s.repo.CreateTimeEntry(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create time entry")
	}
	return entry, nil
}

// UpdateTimeEntry replaces a work entry's fields, re-running the gate.
func (s *EntryService) UpdateTimeEntry(ctx context.Context, actor Actor, entryID string, req TimeEntryRequest) (*models.TimeEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry payload")
	}

	entry, err := s.repo.FindTimeEntryByID(ctx, entryID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time entry")
	}
	if err := s.gate(ctx, actor, entry.TimesheetID, req.WorkDate, req.Hours); err != nil {
		return nil, err
	}

	entry.WorkDate = models.DateOnly(req.WorkDate)
	entry.Hours = req.Hours
	entry.IsOvertime = req.IsOvertime
	entry.ClientID = req.ClientID
	entry.LocationID = req.LocationID
	entry.JobCodeID = req.JobCodeID
	entry.ServiceTypeID = req.ServiceTypeID
	entry.Notes = req.Notes

	if err := s.repo.UpdateTimeEntry(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update time entry")
	}
	return entry, nil
}

// DeleteTimeEntry removes a work entry from an editable timesheet.
func (s *EntryService) DeleteTimeEntry(ctx context.Context, actor Actor, entryID string) error {
	entry, err := s.repo.FindTimeEntryByID(ctx, entryID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "time entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time entry")
	}
	if _, err := s.editableSheet(ctx, actor, entry.TimesheetID); err != nil {
		return err
	}
	if err := s.repo.DeleteTimeEntry(ctx, entryID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete time entry")
	}
	return nil
}

// ListPTOEntries returns the PTO entries of a timesheet the actor may see.
func (s *EntryService) ListPTOEntries(ctx context.Context, actor Actor, timesheetID string) ([]models.PTOEntry, error) {
	if _, err := s.visibleSheet(ctx, actor, timesheetID); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListPTOEntries(ctx, timesheetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pto entries")
	}
	return entries, nil
}

// CreatePTOEntry adds a PTO entry to an editable timesheet.
func (s *EntryService) CreatePTOEntry(ctx context.Context, actor Actor, timesheetID string, req PTOEntryRequest) (*models.PTOEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pto payload")
	}
	if err := s.gate(ctx, actor, timesheetID, req.PTODate, req.Hours); err != nil {
		return nil, err
	}

	entry := &models.PTOEntry{
		TimesheetID: timesheetID,
		PTODate:     models.DateOnly(req.PTODate),
		Hours:       req.Hours,
		Type:        req.Type,
		Notes:       req.Notes,
	}
	if err := s.repo.CreatePTOEntry(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pto entry")
	}
	return entry, nil
}

// UpdatePTOEntry replaces a PTO entry's fields, re-running the gate.
func (s *EntryService) UpdatePTOEntry(ctx context.Context, actor Actor, entryID string, req PTOEntryRequest) (*models.PTOEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pto payload")
	}

	entry, err := s.repo.FindPTOEntryByID(ctx, entryID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pto entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pto entry")
	}
	if err := s.gate(ctx, actor, entry.TimesheetID, req.PTODate, req.Hours); err != nil {
		return nil, err
	}

	entry.PTODate = models.DateOnly(req.PTODate)
	entry.Hours = req.Hours
	entry.Type = req.Type
	entry.Notes = req.Notes

	if err := s.repo.UpdatePTOEntry(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update pto entry")
	}
	return entry, nil
}

// DeletePTOEntry removes a PTO entry from an editable timesheet.
func (s *EntryService) DeletePTOEntry(ctx context.Context, actor Actor, entryID string) error {
	entry, err := s.repo.FindPTOEntryByID(ctx, entryID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "pto entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pto entry")
	}
	if _, err := s.editableSheet(ctx, actor, entry.TimesheetID); err != nil {
		return err
	}
	if err := s.repo.DeletePTOEntry(ctx, entryID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete pto entry")
	}
	return nil
}

// gate runs the shared mutation checks in a fixed order: ownership, then
// timesheet editability, then the date window, then hours bounds.
func (s *EntryService) gate(ctx context.Context, actor Actor, timesheetID string, date time.Time, hours decimal.Decimal) error {
	sheet, err := s.editableSheet(ctx, actor, timesheetID)
	if err != nil {
		return err
	}

	period, err := s.periods.FindByID(ctx, sheet.PayPeriodID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pay period")
	}

	today := models.DateOnly(s.now().UTC())
	windowEnd := models.DateOnly(period.EndDate)
	if today.Before(windowEnd) {
		windowEnd = today
	}
	d := models.DateOnly(date)
	if d.Before(models.DateOnly(period.StartDate)) || d.After(windowEnd) {
		msg := fmt.Sprintf("date must be between %s and %s",
			models.DateOnly(period.StartDate).Format("2006-01-02"), windowEnd.Format("2006-01-02"))
		return appErrors.Clone(appErrors.ErrDateOutOfRange, msg)
	}

	if hours.LessThanOrEqual(decimal.Zero) || hours.GreaterThan(s.maxDaily) {
		return appErrors.Clone(appErrors.ErrValidation, "hours must be greater than 0 and at most "+s.maxDaily.String())
	}
	return nil
}

// editableSheet loads a timesheet and checks the actor owns it and it is
// still open for edits.
func (s *EntryService) editableSheet(ctx context.Context, actor Actor, timesheetID string) (*models.Timesheet, error) {
	sheet, err := s.loadSheet(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if sheet.EmployeeID != actor.ID {
		return nil, appErrors.ErrForbidden
	}
	if !sheet.Status.Editable() {
		return nil, appErrors.ErrTimesheetReadOnly
	}
	return sheet, nil
}

func (s *EntryService) visibleSheet(ctx context.Context, actor Actor, timesheetID string) (*models.Timesheet, error) {
	sheet, err := s.loadSheet(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if sheet.EmployeeID != actor.ID && !actor.CanReview() {
		return nil, appErrors.ErrForbidden
	}
	return sheet, nil
}

func (s *EntryService) loadSheet(ctx context.Context, timesheetID string) (*models.Timesheet, error) {
	sheet, err := s.sheets.FindByID(ctx, timesheetID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timesheet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timesheet")
	}
	return sheet, nil
}
