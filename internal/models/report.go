package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnassignedBucket is the aggregation key used when an entry has no
// client, job code, or other grouping dimension set.
const UnassignedBucket = "unassigned"

// EntryRecord is a denormalized entry row used by reporting queries. It
// joins time and PTO entries with their timesheet, employee, and lookup
// names so reducers never have to touch the database again.
type EntryRecord struct {
	TimesheetID     string           `db:"timesheet_id" json:"timesheet_id"`
	TimesheetStatus TimesheetStatus  `db:"timesheet_status" json:"timesheet_status"`
	EmployeeID      string           `db:"employee_id" json:"employee_id"`
	EmployeeName    string           `db:"employee_name" json:"employee_name"`
	PayGroup        PayGroup         `db:"pay_group" json:"pay_group"`
	WorkDate        time.Time        `db:"work_date" json:"work_date"`
	Hours           decimal.Decimal  `db:"hours" json:"hours"`
	IsPTO           bool             `db:"is_pto" json:"is_pto"`
	IsOvertime      bool             `db:"is_overtime" json:"is_overtime"`
	PTOType         *PTOType         `db:"pto_type" json:"pto_type,omitempty"`
	ClientName      *string          `db:"client_name" json:"client_name,omitempty"`
	JobCode         *string          `db:"job_code" json:"job_code,omitempty"`
	ServiceType     *string          `db:"service_type" json:"service_type,omitempty"`
	HourlyRate      *decimal.Decimal `db:"hourly_rate" json:"hourly_rate,omitempty"`
}

// HoursSummary is the total of worked and PTO hours over a set of entries.
type HoursSummary struct {
	WorkedHours decimal.Decimal `json:"worked_hours"`
	PTOHours    decimal.Decimal `json:"pto_hours"`
	TotalHours  decimal.Decimal `json:"total_hours"`
}

// GroupedHours is one bucket of an hours breakdown.
type GroupedHours struct {
	Key   string          `json:"key"`
	Hours decimal.Decimal `json:"hours"`
}

// PayrollRow is one employee's line in the payroll export for a period.
type PayrollRow struct {
	EmployeeID    string                      `json:"employee_id"`
	EmployeeName  string                      `json:"employee_name"`
	PayGroup      PayGroup                    `json:"pay_group"`
	RegularHours  decimal.Decimal             `json:"regular_hours"`
	OvertimeHours decimal.Decimal             `json:"overtime_hours"`
	PTOHours      map[PTOType]decimal.Decimal `json:"pto_hours"`
	TotalHours    decimal.Decimal             `json:"total_hours"`
}

// PeriodReport is the full aggregation output for one pay period.
type PeriodReport struct {
	PayPeriod   *PayPeriod     `json:"pay_period"`
	Summary     HoursSummary   `json:"summary"`
	ByEmployee  []GroupedHours `json:"by_employee"`
	ByClient    []GroupedHours `json:"by_client"`
	ByJobCode   []GroupedHours `json:"by_job_code"`
	Payroll     []PayrollRow   `json:"payroll"`
	GeneratedAt time.Time      `json:"generated_at"`
}
