package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	appErrors "github.com/clockwise-hq/timetrack-api/pkg/errors"
)

// Actor is the authenticated principal a workflow operation runs as.
type Actor struct {
	ID        string
	Email     string
	PayGroup  models.PayGroup
	IsManager bool
	IsAdmin   bool
}

// CanReview reports whether the actor may approve, reject, or reopen
// other employees' timesheets.
func (a Actor) CanReview() bool {
	return a.IsManager || a.IsAdmin
}

type timesheetRepository interface {
	List(ctx context.Context, filter models.TimesheetFilter) ([]models.Timesheet, error)
	FindByID(ctx context.Context, id string) (*models.Timesheet, error)
	FindByEmployeeAndPeriod(ctx context.Context, employeeID, payPeriodID string) (*models.Timesheet, error)
	GetOrCreate(ctx context.Context, employeeID, payPeriodID string) (*models.Timesheet, error)
	MarkSubmitted(ctx context.Context, id string, at time.Time) (int64, error)
	MarkApproved(ctx context.Context, id, approverID string, at time.Time) (int64, error)
	MarkRejected(ctx context.Context, id, reason string, at time.Time) (int64, error)
	MarkReopened(ctx context.Context, id string, at time.Time) (int64, error)
	DeleteDraft(ctx context.Context, id string) (int64, error)
	CountEntries(ctx context.Context, id string) (int, error)
}

type currentPeriodFinder interface {
	Current(ctx context.Context, group models.PayGroup, at time.Time) (*models.PayPeriod, error)
}

// TimesheetNotifier receives workflow events for asynchronous delivery.
type TimesheetNotifier interface {
	TimesheetSubmitted(sheet *models.Timesheet, actor Actor)
	TimesheetApproved(sheet *models.Timesheet, actor Actor)
	TimesheetRejected(sheet *models.Timesheet, actor Actor, reason string)
}

// ReportInvalidator drops cached report payloads when timesheet state
// changes make them stale.
type ReportInvalidator interface {
	InvalidatePeriod(ctx context.Context, payPeriodID string)
}

// RejectTimesheetRequest carries the mandatory rejection reason.
type RejectTimesheetRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// TimesheetService drives the approval workflow. Transitions are
// authorization-checked first, then applied as compare-and-swap updates
// keyed on the expected current status so concurrent conflicting calls
// lose with an invalid-transition error instead of clobbering state.
type TimesheetService struct {
	repo        timesheetRepository
	periods     currentPeriodFinder
	notifier    TimesheetNotifier
	invalidator ReportInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTimesheetService creates a new timesheet service instance. Notifier
// and invalidator may be nil.
func NewTimesheetService(repo timesheetRepository, periods currentPeriodFinder, notifier TimesheetNotifier, invalidator ReportInvalidator, validate *validator.Validate, logger *zap.Logger) *TimesheetService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimesheetService{
		repo:        repo,
		periods:     periods,
		notifier:    notifier,
		invalidator: invalidator,
		validator:   validate,
		logger:      logger,
	}
}

// SetMetrics attaches transition counters. Optional.
func (s *TimesheetService) SetMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// canTransition is the single authorization predicate for workflow
// actions. It answers "may this actor attempt this action on this sheet"
// and deliberately ignores the sheet's current status; status gating
// happens in the conditional update.
func canTransition(action models.TimesheetAction, actor Actor, sheet *models.Timesheet) bool {
	switch action {
	case models.ActionSubmit:
		return actor.ID == sheet.EmployeeID
	case models.ActionApprove, models.ActionReject, models.ActionReopen, models.ActionDelete:
		return actor.CanReview()
	}
	return false
}

// GetOrCreateCurrent returns the actor's timesheet for their group's
// current pay period, creating a draft lazily. Concurrent calls for the
// same employee and period converge on one row.
func (s *TimesheetService) GetOrCreateCurrent(ctx context.Context, actor Actor) (*models.Timesheet, *models.PayPeriod, error) {
	period, err := s.periods.Current(ctx, actor.PayGroup, time.Now().UTC())
	if err != nil {
		return nil, nil, err
	}

	sheet, err := s.repo.GetOrCreate(ctx, actor.ID, period.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open current timesheet")
	}
	return sheet, period, nil
}

// Get loads a timesheet the actor is allowed to see.
func (s *TimesheetService) Get(ctx context.Context, actor Actor, id string) (*models.Timesheet, error) {
	sheet, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if sheet.EmployeeID != actor.ID && !actor.CanReview() {
		return nil, appErrors.ErrForbidden
	}
	return sheet, nil
}

// List returns timesheets visible to the actor. Non-reviewers only ever
// see their own.
func (s *TimesheetService) List(ctx context.Context, actor Actor, filter models.TimesheetFilter) ([]models.Timesheet, error) {
	if !actor.CanReview() {
		filter.EmployeeID = actor.ID
	}
	sheets, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timesheets")
	}
	return sheets, nil
}

// Submit moves the actor's own draft or rejected timesheet to submitted.
// A timesheet without a single entry cannot be submitted.
func (s *TimesheetService) Submit(ctx context.Context, actor Actor, id string) (*models.Timesheet, error) {
	sheet, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(models.ActionSubmit, actor, sheet) {
		return nil, appErrors.ErrForbidden
	}

	count, err := s.repo.CountEntries(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count entries")
	}
	if count == 0 {
		return nil, appErrors.ErrEmptyTimesheet
	}

	now := time.Now().UTC()
	affected, err := s.repo.MarkSubmitted(ctx, id, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit timesheet")
	}
	if affected == 0 {
		s.observeConflict(models.ActionSubmit)
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only draft or rejected timesheets can be submitted")
	}

	sheet.Status = models.TimesheetSubmitted
	sheet.SubmittedAt = &now
	sheet.RejectionReason = nil
	s.afterTransition(ctx, models.ActionSubmit, sheet)
	if s.notifier != nil {
		s.notifier.TimesheetSubmitted(sheet, actor)
	}
	return sheet, nil
}

// Approve moves a submitted timesheet to approved, recording the reviewer.
func (s *TimesheetService) Approve(ctx context.Context, actor Actor, id string) (*models.Timesheet, error) {
	sheet, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(models.ActionApprove, actor, sheet) {
		return nil, appErrors.ErrForbidden
	}

	now := time.Now().UTC()
	affected, err := s.repo.MarkApproved(ctx, id, actor.ID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve timesheet")
	}
	if affected == 0 {
		s.observeConflict(models.ActionApprove)
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only submitted timesheets can be approved")
	}

	sheet.Status = models.TimesheetApproved
	sheet.ApprovedAt = &now
	sheet.ApprovedBy = &actor.ID
	s.afterTransition(ctx, models.ActionApprove, sheet)
	if s.notifier != nil {
		s.notifier.TimesheetApproved(sheet, actor)
	}
	return sheet, nil
}

// Reject moves a submitted timesheet back to the employee with a reason.
func (s *TimesheetService) Reject(ctx context.Context, actor Actor, id string, req RejectTimesheetRequest) (*models.Timesheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rejection reason is required")
	}

	sheet, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(models.ActionReject, actor, sheet) {
		return nil, appErrors.ErrForbidden
	}

	now := time.Now().UTC()
	affected, err := s.repo.MarkRejected(ctx, id, req.Reason, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject timesheet")
	}
	if affected == 0 {
		s.observeConflict(models.ActionReject)
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only submitted timesheets can be rejected")
	}

	sheet.Status = models.TimesheetRejected
	sheet.RejectionReason = &req.Reason
	sheet.ApprovedAt = nil
	sheet.ApprovedBy = nil
	s.afterTransition(ctx, models.ActionReject, sheet)
	if s.notifier != nil {
		s.notifier.TimesheetRejected(sheet, actor, req.Reason)
	}
	return sheet, nil
}

// Reopen returns a submitted or approved timesheet to draft, clearing
// every workflow field so the employee can edit again.
func (s *TimesheetService) Reopen(ctx context.Context, actor Actor, id string) (*models.Timesheet, error) {
	sheet, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(models.ActionReopen, actor, sheet) {
		return nil, appErrors.ErrForbidden
	}

	now := time.Now().UTC()
	affected, err := s.repo.MarkReopened(ctx, id, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reopen timesheet")
	}
	if affected == 0 {
		s.observeConflict(models.ActionReopen)
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only submitted or approved timesheets can be reopened")
	}

	sheet.Status = models.TimesheetDraft
	sheet.SubmittedAt = nil
	sheet.ApprovedAt = nil
	sheet.ApprovedBy = nil
	sheet.RejectionReason = nil
	s.afterTransition(ctx, models.ActionReopen, sheet)
	return sheet, nil
}

// Delete removes a draft or rejected timesheet along with its entries.
func (s *TimesheetService) Delete(ctx context.Context, actor Actor, id string) error {
	sheet, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !canTransition(models.ActionDelete, actor, sheet) {
		return appErrors.ErrForbidden
	}

	affected, err := s.repo.DeleteDraft(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timesheet")
	}
	if affected == 0 {
		s.observeConflict(models.ActionDelete)
		return appErrors.Clone(appErrors.ErrInvalidTransition, "only draft or rejected timesheets can be deleted")
	}

	s.afterTransition(ctx, models.ActionDelete, sheet)
	return nil
}

func (s *TimesheetService) find(ctx context.Context, id string) (*models.Timesheet, error) {
	sheet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timesheet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timesheet")
	}
	return sheet, nil
}

func (s *TimesheetService) afterTransition(ctx context.Context, action models.TimesheetAction, sheet *models.Timesheet) {
	if s.invalidator != nil {
		s.invalidator.InvalidatePeriod(ctx, sheet.PayPeriodID)
	}
	if s.metrics != nil {
		s.metrics.ObserveTransition(string(action), true)
	}
}

func (s *TimesheetService) observeConflict(action models.TimesheetAction) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(string(action), false)
	}
}
