package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	"github.com/clockwise-hq/timetrack-api/internal/repository"
	appErrors "github.com/clockwise-hq/timetrack-api/pkg/errors"
)

type employeeRepositoryFull interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error)
	Create(ctx context.Context, emp *models.Employee) error
	Update(ctx context.Context, emp *models.Employee) error
}

// CreateEmployeeRequest describes payload for creating an employee.
type CreateEmployeeRequest struct {
	Email      string           `json:"email" validate:"required,email"`
	Password   string           `json:"password" validate:"required,min=8"`
	FirstName  string           `json:"first_name" validate:"required"`
	LastName   string           `json:"last_name" validate:"required"`
	HireDate   time.Time        `json:"hire_date" validate:"required"`
	PayGroup   models.PayGroup  `json:"pay_group" validate:"required,oneof=A B"`
	HourlyRate *decimal.Decimal `json:"hourly_rate"`
	IsManager  bool             `json:"is_manager"`
	IsAdmin    bool             `json:"is_admin"`
}

// UpdateEmployeeRequest updates mutable fields on an employee.
type UpdateEmployeeRequest struct {
	Email      *string          `json:"email" validate:"omitempty,email"`
	FirstName  *string          `json:"first_name"`
	LastName   *string          `json:"last_name"`
	HireDate   *time.Time       `json:"hire_date"`
	PayGroup   *models.PayGroup `json:"pay_group" validate:"omitempty,oneof=A B"`
	HourlyRate *decimal.Decimal `json:"hourly_rate"`
	IsManager  *bool            `json:"is_manager"`
	IsAdmin    *bool            `json:"is_admin"`
	IsActive   *bool            `json:"is_active"`
}

// EmployeeService orchestrates employee administration.
type EmployeeService struct {
	repo      employeeRepositoryFull
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEmployeeService creates a new employee service instance.
func NewEmployeeService(repo employeeRepositoryFull, validate *validator.Validate, logger *zap.Logger) *EmployeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated employees.
func (s *EmployeeService) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error) {
	employees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	pagination := &models.Pagination{
		Page:       page,
		PageSize:   size,
		TotalCount: total,
	}
	return employees, pagination, nil
}

// Get returns an employee by ID.
func (s *EmployeeService) Get(ctx context.Context, id string) (*models.Employee, error) {
	emp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return emp, nil
}

// Create adds a new employee with a hashed password.
func (s *EmployeeService) Create(ctx context.Context, req CreateEmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	emp := &models.Employee{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		HireDate:     models.DateOnly(req.HireDate),
		PayGroup:     req.PayGroup,
		HourlyRate:   req.HourlyRate,
		IsManager:    req.IsManager,
		IsAdmin:      req.IsAdmin,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, emp); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create employee")
	}
	return emp, nil
}

// Update modifies an employee record.
func (s *EmployeeService) Update(ctx context.Context, id string, req UpdateEmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}

	emp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		emp.Email = *req.Email
	}
	if req.FirstName != nil {
		emp.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		emp.LastName = *req.LastName
	}
	if req.HireDate != nil {
		emp.HireDate = models.DateOnly(*req.HireDate)
	}
	if req.PayGroup != nil {
		emp.PayGroup = *req.PayGroup
	}
	if req.HourlyRate != nil {
		emp.HourlyRate = req.HourlyRate
	}
	if req.IsManager != nil {
		emp.IsManager = *req.IsManager
	}
	if req.IsAdmin != nil {
		emp.IsAdmin = *req.IsAdmin
	}
	if req.IsActive != nil {
		emp.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, emp); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update employee")
	}
	return emp, nil
}

// Deactivate disables an employee account without deleting history.
func (s *EmployeeService) Deactivate(ctx context.Context, id string) (*models.Employee, error) {
	inactive := false
	return s.Update(ctx, id, UpdateEmployeeRequest{IsActive: &inactive})
}
