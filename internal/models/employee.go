package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayGroup identifies the staggered biweekly cohort an employee belongs to.
type PayGroup string

const (
	PayGroupA PayGroup = "A"
	PayGroupB PayGroup = "B"
)

// Valid reports whether the group is one of the two known cohorts.
func (g PayGroup) Valid() bool {
	return g == PayGroupA || g == PayGroupB
}

// Employee represents a worker account stored in the employees table.
type Employee struct {
	ID           string           `db:"id" json:"id"`
	Email        string           `db:"email" json:"email"`
	PasswordHash string           `db:"password_hash" json:"-"`
	FirstName    string           `db:"first_name" json:"first_name"`
	LastName     string           `db:"last_name" json:"last_name"`
	HireDate     time.Time        `db:"hire_date" json:"hire_date"`
	PayGroup     PayGroup         `db:"pay_group" json:"pay_group"`
	HourlyRate   *decimal.Decimal `db:"hourly_rate" json:"hourly_rate,omitempty"`
	IsManager    bool             `db:"is_manager" json:"is_manager"`
	IsAdmin      bool             `db:"is_admin" json:"is_admin"`
	IsActive     bool             `db:"is_active" json:"is_active"`
	LastLogin    *time.Time       `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name for display and notifications.
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// EmployeeFilter captures filtering criteria for listing employees.
type EmployeeFilter struct {
	PayGroup   PayGroup
	ActiveOnly bool
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
