package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clockwise-hq/timetrack-api/internal/models"
)

// LookupRepository handles persistence for the reference tables entries
// point at: clients, locations, job codes, and service types.
type LookupRepository struct {
	db *sqlx.DB
}

// NewLookupRepository instantiates a lookup repository.
func NewLookupRepository(db *sqlx.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// ListClients returns clients, optionally only active ones.
func (r *LookupRepository) ListClients(ctx context.Context, activeOnly bool) ([]models.Client, error) {
	query := `SELECT id, name, code, is_active, created_at, updated_at FROM clients`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`
	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, query); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// CreateClient inserts a client.
func (r *LookupRepository) CreateClient(ctx context.Context, c *models.Client) error {
	stampNew(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	const query = `INSERT INTO clients (id, name, code, is_active, created_at, updated_at) VALUES (:id, :name, :code, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// UpdateClient modifies a client.
func (r *LookupRepository) UpdateClient(ctx context.Context, c *models.Client) error {
	c.UpdatedAt = time.Now().UTC()
	const query = `UPDATE clients SET name = :name, code = :code, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return nil
}

// ListLocations returns locations, optionally only active ones.
func (r *LookupRepository) ListLocations(ctx context.Context, activeOnly bool) ([]models.Location, error) {
	query := `SELECT id, name, address, is_active, created_at, updated_at FROM locations`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`
	var locations []models.Location
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

// CreateLocation inserts a location.
func (r *LookupRepository) CreateLocation(ctx context.Context, l *models.Location) error {
	stampNew(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	const query = `INSERT INTO locations (id, name, address, is_active, created_at, updated_at) VALUES (:id, :name, :address, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, l); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

// UpdateLocation modifies a location.
func (r *LookupRepository) UpdateLocation(ctx context.Context, l *models.Location) error {
	l.UpdatedAt = time.Now().UTC()
	const query = `UPDATE locations SET name = :name, address = :address, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, l); err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}

// ListJobCodes returns job codes, optionally only active ones.
func (r *LookupRepository) ListJobCodes(ctx context.Context, activeOnly bool) ([]models.JobCode, error) {
	query := `SELECT id, code, description, is_active, created_at, updated_at FROM job_codes`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY code`
	var codes []models.JobCode
	if err := r.db.SelectContext(ctx, &codes, query); err != nil {
		return nil, fmt.Errorf("list job codes: %w", err)
	}
	return codes, nil
}

// CreateJobCode inserts a job code.
func (r *LookupRepository) CreateJobCode(ctx context.Context, jc *models.JobCode) error {
	stampNew(&jc.ID, &jc.CreatedAt, &jc.UpdatedAt)
	const query = `INSERT INTO job_codes (id, code, description, is_active, created_at, updated_at) VALUES (:id, :code, :description, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, jc); err != nil {
		return fmt.Errorf("create job code: %w", err)
	}
	return nil
}

// UpdateJobCode modifies a job code.
func (r *LookupRepository) UpdateJobCode(ctx context.Context, jc *models.JobCode) error {
	jc.UpdatedAt = time.Now().UTC()
	const query = `UPDATE job_codes SET code = :code, description = :description, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, jc); err != nil {
		return fmt.Errorf("update job code: %w", err)
	}
	return nil
}

// ListServiceTypes returns service types, optionally only active ones.
func (r *LookupRepository) ListServiceTypes(ctx context.Context, activeOnly bool) ([]models.ServiceType, error) {
	query := `SELECT id, name, is_active, created_at, updated_at FROM service_types`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`
	var types []models.ServiceType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list service types: %w", err)
	}
	return types, nil
}

// CreateServiceType inserts a service type.
func (r *LookupRepository) CreateServiceType(ctx context.Context, st *models.ServiceType) error {
	stampNew(&st.ID, &st.CreatedAt, &st.UpdatedAt)
	const query = `INSERT INTO service_types (id, name, is_active, created_at, updated_at) VALUES (:id, :name, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, st); err != nil {
		return fmt.Errorf("create service type: %w", err)
	}
	return nil
}

// UpdateServiceType modifies a service type.
func (r *LookupRepository) UpdateServiceType(ctx context.Context, st *models.ServiceType) error {
	st.UpdatedAt = time.Now().UTC()
	const query = `UPDATE service_types SET name = :name, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, st); err != nil {
		return fmt.Errorf("update service type: %w", err)
	}
	return nil
}

func stampNew(id *string, createdAt, updatedAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	now := time.Now().UTC()
	*createdAt = now
	*updatedAt = now
}
