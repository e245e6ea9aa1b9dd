package models

import "time"

// TimesheetStatus is the approval state of a timesheet.
type TimesheetStatus string

const (
	TimesheetDraft     TimesheetStatus = "draft"
	TimesheetSubmitted TimesheetStatus = "submitted"
	TimesheetApproved  TimesheetStatus = "approved"
	TimesheetRejected  TimesheetStatus = "rejected"
)

// Editable reports whether entries may be mutated in this status.
func (s TimesheetStatus) Editable() bool {
	return s == TimesheetDraft || s == TimesheetRejected
}

// TimesheetAction names a lifecycle transition on a timesheet.
type TimesheetAction string

const (
	ActionSubmit  TimesheetAction = "submit"
	ActionApprove TimesheetAction = "approve"
	ActionReject  TimesheetAction = "reject"
	ActionReopen  TimesheetAction = "reopen"
	ActionDelete  TimesheetAction = "delete"
)

// Timesheet is the per-employee, per-pay-period approval aggregate.
// At most one row exists per (employee_id, pay_period_id); the pair is a
// unique index in storage, not just application logic.
type Timesheet struct {
	ID              string          `db:"id" json:"id"`
	EmployeeID      string          `db:"employee_id" json:"employee_id"`
	PayPeriodID     string          `db:"pay_period_id" json:"pay_period_id"`
	Status          TimesheetStatus `db:"status" json:"status"`
	SubmittedAt     *time.Time      `db:"submitted_at" json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	ApprovedBy      *string         `db:"approved_by" json:"approved_by,omitempty"`
	RejectionReason *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// TimesheetFilter defines filters supported by timesheet listing.
type TimesheetFilter struct {
	EmployeeID  string
	PayPeriodID string
	Status      TimesheetStatus
}
