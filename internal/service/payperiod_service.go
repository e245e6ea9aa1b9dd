package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	"github.com/clockwise-hq/timetrack-api/internal/repository"
	appErrors "github.com/clockwise-hq/timetrack-api/pkg/errors"
)

const periodLengthDays = 14

type payPeriodRepository interface {
	List(ctx context.Context, filter models.PayPeriodFilter) ([]models.PayPeriod, error)
	FindByID(ctx context.Context, id string) (*models.PayPeriod, error)
	FindOpenContaining(ctx context.Context, group models.PayGroup, date time.Time) (*models.PayPeriod, error)
	ExistsOverlapping(ctx context.Context, group models.PayGroup, start, end time.Time, excludeID string) (bool, error)
	Create(ctx context.Context, period *models.PayPeriod) error
	CreateBatch(ctx context.Context, periods []models.PayPeriod) error
	UpdateStatus(ctx context.Context, id string, from, to models.PayPeriodStatus) (int64, error)
	Update(ctx context.Context, period *models.PayPeriod) error
}

// CreatePayPeriodRequest describes payload for creating a single period.
type CreatePayPeriodRequest struct {
	PayGroup       models.PayGroup `json:"pay_group" validate:"required,oneof=A B"`
	StartDate      time.Time       `json:"start_date" validate:"required"`
	EndDate        time.Time       `json:"end_date" validate:"required"`
	PayrollRunDate *time.Time      `json:"payroll_run_date"`
}

// GenerateScheduleRequest describes payload for bulk schedule generation.
type GenerateScheduleRequest struct {
	StartDate time.Time `json:"start_date" validate:"required"`
	Weeks     int       `json:"weeks" validate:"required"`
}

// UpdatePayPeriodRequest updates the mutable fields of a period.
type UpdatePayPeriodRequest struct {
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	PayrollRunDate *time.Time `json:"payroll_run_date"`
}

// PayPeriodService orchestrates pay-period generation and lifecycle.
type PayPeriodService struct {
	repo      payPeriodRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPayPeriodService creates a new pay-period service instance.
func NewPayPeriodService(repo payPeriodRepository, validate *validator.Validate, logger *zap.Logger) *PayPeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayPeriodService{repo: repo, validator: validate, logger: logger}
}

// BuildSchedule produces the staggered biweekly schedule for both groups
// without persisting anything. Group A periods start at startDate; group B
// periods are each offset seven days later. weeks is the total span and
// must be even and at least two, yielding weeks/2 periods per group.
func BuildSchedule(startDate time.Time, weeks int) ([]models.PayPeriod, error) {
	if weeks < 2 || weeks%2 != 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "weeks must be an even number of at least 2")
	}

	count := weeks / 2
	anchor := models.DateOnly(startDate)
	periods := make([]models.PayPeriod, 0, count*2)

	for _, group := range []models.PayGroup{models.PayGroupA, models.PayGroupB} {
		start := anchor
		if group == models.PayGroupB {
			start = anchor.AddDate(0, 0, 7)
		}
		for i := 0; i < count; i++ {
			periods = append(periods, models.PayPeriod{
				PayGroup:  group,
				StartDate: start,
				EndDate:   start.AddDate(0, 0, periodLengthDays-1),
				Status:    models.PayPeriodOpen,
			})
			start = start.AddDate(0, 0, periodLengthDays)
		}
	}

	return periods, nil
}

// List returns pay periods matching the filter.
func (s *PayPeriodService) List(ctx context.Context, filter models.PayPeriodFilter) ([]models.PayPeriod, error) {
	periods, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pay periods")
	}
	return periods, nil
}

// Get returns a pay period by ID.
func (s *PayPeriodService) Get(ctx context.Context, id string) (*models.PayPeriod, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pay period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pay period")
	}
	return period, nil
}

// Current returns the open period of a group containing the given date.
// Absence is an operator-configuration problem, reported as not found.
func (s *PayPeriodService) Current(ctx context.Context, group models.PayGroup, at time.Time) (*models.PayPeriod, error) {
	if !group.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown pay group")
	}
	period, err := s.repo.FindOpenContaining(ctx, group, at)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no open pay period configured for this group")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current pay period")
	}
	return period, nil
}

// Create persists a single manually defined period. Irregular lengths are
// allowed; only same-group overlap is rejected.
func (s *PayPeriodService) Create(ctx context.Context, req CreatePayPeriodRequest) (*models.PayPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pay period payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}

	exists, err := s.repo.ExistsOverlapping(ctx, req.PayGroup, req.StartDate, req.EndDate, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check period overlap")
	}
	if exists {
		return nil, appErrors.ErrPeriodOverlap
	}

	period := &models.PayPeriod{
		PayGroup:       req.PayGroup,
		StartDate:      models.DateOnly(req.StartDate),
		EndDate:        models.DateOnly(req.EndDate),
		PayrollRunDate: req.PayrollRunDate,
		Status:         models.PayPeriodOpen,
	}

	if err := s.repo.Create(ctx, period); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.ErrPeriodOverlap
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pay period")
	}
	return period, nil
}

// Generate builds a schedule and persists it atomically. Any collision
// with existing periods rejects the whole batch.
func (s *PayPeriodService) Generate(ctx context.Context, req GenerateScheduleRequest) ([]models.PayPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}

	periods, err := BuildSchedule(req.StartDate, req.Weeks)
	if err != nil {
		return nil, err
	}

	for i := range periods {
		exists, err := s.repo.ExistsOverlapping(ctx, periods[i].PayGroup, periods[i].StartDate, periods[i].EndDate, "")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check period overlap")
		}
		if exists {
			return nil, appErrors.ErrPeriodOverlap
		}
	}

	if err := s.repo.CreateBatch(ctx, periods); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.ErrPeriodOverlap
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist generated schedule")
	}

	s.logger.Info("generated pay period schedule",
		zap.Time("start_date", req.StartDate),
		zap.Int("weeks", req.Weeks),
		zap.Int("periods", len(periods)))
	return periods, nil
}

// Update modifies period dates, re-validating overlap against siblings.
func (s *PayPeriodService) Update(ctx context.Context, id string, req UpdatePayPeriodRequest) (*models.PayPeriod, error) {
	period, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.StartDate != nil {
		period.StartDate = models.DateOnly(*req.StartDate)
	}
	if req.EndDate != nil {
		period.EndDate = models.DateOnly(*req.EndDate)
	}
	if req.PayrollRunDate != nil {
		period.PayrollRunDate = req.PayrollRunDate
	}
	if period.EndDate.Before(period.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}

	exists, err := s.repo.ExistsOverlapping(ctx, period.PayGroup, period.StartDate, period.EndDate, period.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check period overlap")
	}
	if exists {
		return nil, appErrors.ErrPeriodOverlap
	}

	if err := s.repo.Update(ctx, period); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.ErrPeriodOverlap
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update pay period")
	}
	return period, nil
}

// Close moves an open period to closed.
func (s *PayPeriodService) Close(ctx context.Context, id string) (*models.PayPeriod, error) {
	return s.transition(ctx, id, models.PayPeriodOpen, models.PayPeriodClosed)
}

// MarkProcessed annotates a closed period as processed by payroll.
func (s *PayPeriodService) MarkProcessed(ctx context.Context, id string) (*models.PayPeriod, error) {
	return s.transition(ctx, id, models.PayPeriodClosed, models.PayPeriodProcessed)
}

func (s *PayPeriodService) transition(ctx context.Context, id string, from, to models.PayPeriodStatus) (*models.PayPeriod, error) {
	period, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	affected, err := s.repo.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update pay period status")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "pay period is not "+string(from))
	}

	period.Status = to
	return period, nil
}
