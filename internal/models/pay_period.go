package models

import "time"

// PayPeriodStatus tracks the administrative lifecycle of a pay period.
type PayPeriodStatus string

const (
	PayPeriodOpen      PayPeriodStatus = "open"
	PayPeriodClosed    PayPeriodStatus = "closed"
	PayPeriodProcessed PayPeriodStatus = "processed"
)

// PayPeriod is a biweekly calendar window timesheets bind to.
// Start and end dates are inclusive.
type PayPeriod struct {
	ID             string          `db:"id" json:"id"`
	PayGroup       PayGroup        `db:"pay_group" json:"pay_group"`
	StartDate      time.Time       `db:"start_date" json:"start_date"`
	EndDate        time.Time       `db:"end_date" json:"end_date"`
	PayrollRunDate *time.Time      `db:"payroll_run_date" json:"payroll_run_date,omitempty"`
	Status         PayPeriodStatus `db:"status" json:"status"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// Contains reports whether the given date falls inside [StartDate, EndDate].
func (p *PayPeriod) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(p.StartDate)) && !d.After(DateOnly(p.EndDate))
}

// Overlaps reports whether two inclusive date ranges intersect.
func (p *PayPeriod) Overlaps(start, end time.Time) bool {
	return !DateOnly(p.EndDate).Before(DateOnly(start)) && !DateOnly(p.StartDate).After(DateOnly(end))
}

// PayPeriodFilter defines filters supported by pay-period listing.
type PayPeriodFilter struct {
	PayGroup PayGroup
	Status   PayPeriodStatus
	Limit    int
}

// DateOnly truncates a timestamp to a UTC calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
