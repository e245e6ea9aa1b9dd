package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	"github.com/clockwise-hq/timetrack-api/internal/repository"
	appErrors "github.com/clockwise-hq/timetrack-api/pkg/errors"
)

type lookupRepository interface {
	ListClients(ctx context.Context, activeOnly bool) ([]models.Client, error)
	CreateClient(ctx context.Context, c *models.Client) error
	UpdateClient(ctx context.Context, c *models.Client) error
	ListLocations(ctx context.Context, activeOnly bool) ([]models.Location, error)
	CreateLocation(ctx context.Context, l *models.Location) error
	UpdateLocation(ctx context.Context, l *models.Location) error
	ListJobCodes(ctx context.Context, activeOnly bool) ([]models.JobCode, error)
	CreateJobCode(ctx context.Context, jc *models.JobCode) error
	UpdateJobCode(ctx context.Context, jc *models.JobCode) error
	ListServiceTypes(ctx context.Context, activeOnly bool) ([]models.ServiceType, error)
	CreateServiceType(ctx context.Context, st *models.ServiceType) error
	UpdateServiceType(ctx context.Context, st *models.ServiceType) error
}

// ClientRequest is the payload for creating or updating a client.
type ClientRequest struct {
	Name     string `json:"name" validate:"required"`
	Code     string `json:"code" validate:"required"`
	IsActive *bool  `json:"is_active"`
}

// LocationRequest is the payload for creating or updating a location.
type LocationRequest struct {
	Name     string  `json:"name" validate:"required"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"is_active"`
}

// JobCodeRequest is the payload for creating or updating a job code.
type JobCodeRequest struct {
	Code        string `json:"code" validate:"required"`
	Description string `json:"description" validate:"required"`
	IsActive    *bool  `json:"is_active"`
}

// ServiceTypeRequest is the payload for creating or updating a service type.
type ServiceTypeRequest struct {
	Name     string `json:"name" validate:"required"`
	IsActive *bool  `json:"is_active"`
}

// LookupService administers the reference data entries point at.
type LookupService struct {
	repo      lookupRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLookupService creates a new lookup service instance.
func NewLookupService(repo lookupRepository, validate *validator.Validate, logger *zap.Logger) *LookupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{repo: repo, validator: validate, logger: logger}
}

// ListClients returns clients.
func (s *LookupService) ListClients(ctx context.Context, activeOnly bool) ([]models.Client, error) {
	clients, err := s.repo.ListClients(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clients")
	}
	return clients, nil
}

// CreateClient adds a client.
func (s *LookupService) CreateClient(ctx context.Context, req ClientRequest) (*models.Client, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid client payload")
	}
	c := &models.Client{Name: req.Name, Code: req.Code, IsActive: true}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if err := s.repo.CreateClient(ctx, c); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "client code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create client")
	}
	return c, nil
}

// UpdateClient modifies a client.
func (s *LookupService) UpdateClient(ctx context.Context, id string, req ClientRequest) (*models.Client, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid client payload")
	}
	c := &models.Client{ID: id, Name: req.Name, Code: req.Code, IsActive: true}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateClient(ctx, c); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "client code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update client")
	}
	return c, nil
}

// ListLocations returns locations.
func (s *LookupService) ListLocations(ctx context.Context, activeOnly bool) ([]models.Location, error) {
	locations, err := s.repo.ListLocations(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locations")
	}
	return locations, nil
}

// CreateLocation adds a location.
func (s *LookupService) CreateLocation(ctx context.Context, req LocationRequest) (*models.Location, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid location payload")
	}
	l := &models.Location{Name: req.Name, Address: req.Address, IsActive: true}
	if req.IsActive != nil {
		l.IsActive = *req.IsActive
	}
	if err := s.repo.CreateLocation(ctx, l); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create location")
	}
	return l, nil
}

// UpdateLocation modifies a location.
func (s *LookupService) UpdateLocation(ctx context.Context, id string, req LocationRequest) (*models.Location, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid location payload")
	}
	l := &models.Location{ID: id, Name: req.Name, Address: req.Address, IsActive: true}
	if req.IsActive != nil {
		l.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateLocation(ctx, l); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update location")
	}
	return l, nil
}

// ListJobCodes returns job codes.
func (s *LookupService) ListJobCodes(ctx context.Context, activeOnly bool) ([]models.JobCode, error) {
	codes, err := s.repo.ListJobCodes(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list job codes")
	}
	return codes, nil
}

// CreateJobCode adds a job code.
func (s *LookupService) CreateJobCode(ctx context.Context, req JobCodeRequest) (*models.JobCode, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job code payload")
	}
	jc := &models.JobCode{Code: req.Code, Description: req.Description, IsActive: true}
	if req.IsActive != nil {
		jc.IsActive = *req.IsActive
	}
	if err := s.repo.CreateJobCode(ctx, jc); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "job code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create job code")
	}
	return jc, nil
}

// UpdateJobCode modifies a job code.
func (s *LookupService) UpdateJobCode(ctx context.Context, id string, req JobCodeRequest) (*models.JobCode, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job code payload")
	}
	jc := &models.JobCode{ID: id, Code: req.Code, Description: req.Description, IsActive: true}
	if req.IsActive != nil {
		jc.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateJobCode(ctx, jc); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "job code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update job code")
	}
	return jc, nil
}

// ListServiceTypes returns service types.
func (s *LookupService) ListServiceTypes(ctx context.Context, activeOnly bool) ([]models.ServiceType, error) {
	types, err := s.repo.ListServiceTypes(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list service types")
	}
	return types, nil
}

// CreateServiceType adds a service type.
func (s *LookupService) CreateServiceType(ctx context.Context, req ServiceTypeRequest) (*models.ServiceType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid service type payload")
	}
	st := &models.ServiceType{Name: req.Name, IsActive: true}
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	if err := s.repo.CreateServiceType(ctx, st); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create service type")
	}
	return st, nil
}

// UpdateServiceType modifies a service type.
func (s *LookupService) UpdateServiceType(ctx context.Context, id string, req ServiceTypeRequest) (*models.ServiceType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid service type payload")
	}
	st := &models.ServiceType{ID: id, Name: req.Name, IsActive: true}
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateServiceType(ctx, st); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update service type")
	}
	return st, nil
}
