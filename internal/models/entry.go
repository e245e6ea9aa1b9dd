package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeEntry is a single day of billable or internal work on a timesheet.
type TimeEntry struct {
	ID            string          `db:"id" json:"id"`
	TimesheetID   string          `db:"timesheet_id" json:"timesheet_id"`
	WorkDate      time.Time       `db:"work_date" json:"work_date"`
	Hours         decimal.Decimal `db:"hours" json:"hours"`
	IsOvertime    bool            `db:"is_overtime" json:"is_overtime"`
	ClientID      *string         `db:"client_id" json:"client_id,omitempty"`
	LocationID    *string         `db:"location_id" json:"location_id,omitempty"`
	JobCodeID     *string         `db:"job_code_id" json:"job_code_id,omitempty"`
	ServiceTypeID *string         `db:"service_type_id" json:"service_type_id,omitempty"`
	Notes         *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// PTOType classifies paid-time-off entries.
type PTOType string

const (
	PTOVacation PTOType = "vacation"
	PTOSick     PTOType = "sick"
	PTOHoliday  PTOType = "holiday"
	PTOPersonal PTOType = "personal"
)

// Valid reports whether the PTO type is a known category.
func (t PTOType) Valid() bool {
	switch t {
	case PTOVacation, PTOSick, PTOHoliday, PTOPersonal:
		return true
	}
	return false
}

// PTOEntry is a single day of paid time off on a timesheet.
type PTOEntry struct {
	ID          string          `db:"id" json:"id"`
	TimesheetID string          `db:"timesheet_id" json:"timesheet_id"`
	PTODate     time.Time       `db:"pto_date" json:"pto_date"`
	Hours       decimal.Decimal `db:"hours" json:"hours"`
	Type        PTOType         `db:"pto_type" json:"type"`
	Notes       *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
