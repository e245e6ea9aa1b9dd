package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	appErrors "github.com/clockwise-hq/timetrack-api/pkg/errors"
	"github.com/clockwise-hq/timetrack-api/pkg/export"
)

// ReportFormat selects the rendering of a report payload.
type ReportFormat string

const (
	FormatJSON ReportFormat = "json"
	FormatCSV  ReportFormat = "csv"
	FormatXLSX ReportFormat = "xlsx"
	FormatPDF  ReportFormat = "pdf"
)

type entryRecordLister interface {
	ListEntryRecords(ctx context.Context, payPeriodID string) ([]models.EntryRecord, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ReportService aggregates entry data into period reports and renders
// them as JSON, CSV, XLSX, or PDF. Aggregation itself is pure; callers
// decide which timesheet statuses feed it, except payroll which always
// restricts itself to approved sheets.
type ReportService struct {
	entries  entryRecordLister
	periods  periodFinder
	cache    reportCache
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewReportService creates a new report service instance. cache may be
// nil to disable caching.
func NewReportService(entries entryRecordLister, periods periodFinder, cache reportCache, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ReportService{entries: entries, periods: periods, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// SetMetrics attaches cache lookup counters. Optional.
func (s *ReportService) SetMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// SummarizeHours totals worked and PTO hours over a set of entry records.
func SummarizeHours(records []models.EntryRecord) models.HoursSummary {
	var summary models.HoursSummary
	for _, r := range records {
		if r.IsPTO {
			summary.PTOHours = summary.PTOHours.Add(r.Hours)
		} else {
			summary.WorkedHours = summary.WorkedHours.Add(r.Hours)
		}
	}
	summary.TotalHours = summary.WorkedHours.Add(summary.PTOHours)
	return summary
}

// GroupHours buckets entry hours by the given key function. Records whose
// key is empty land in the "unassigned" bucket. Buckets come back sorted
// by key for stable output.
func GroupHours(records []models.EntryRecord, keyOf func(models.EntryRecord) string) []models.GroupedHours {
	totals := make(map[string]decimal.Decimal)
	for _, r := range records {
		key := keyOf(r)
		if key == "" {
			key = models.UnassignedBucket
		}
		totals[key] = totals[key].Add(r.Hours)
	}

	groups := make([]models.GroupedHours, 0, len(totals))
	for key, hours := range totals {
		groups = append(groups, models.GroupedHours{Key: key, Hours: hours})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// BuildPayrollRows produces one payroll line per employee from approved
// timesheets only. Regular hours are worked hours minus those flagged as
// overtime; PTO hours are broken out per type.
func BuildPayrollRows(records []models.EntryRecord) []models.PayrollRow {
	byEmployee := make(map[string]*models.PayrollRow)
	for _, r := range records {
		if r.TimesheetStatus != models.TimesheetApproved {
			continue
		}
		row, ok := byEmployee[r.EmployeeID]
		if !ok {
			row = &models.PayrollRow{
				EmployeeID:   r.EmployeeID,
				EmployeeName: r.EmployeeName,
				PayGroup:     r.PayGroup,
				PTOHours:     make(map[models.PTOType]decimal.Decimal),
			}
			byEmployee[r.EmployeeID] = row
		}

		switch {
		case r.IsPTO:
			ptoType := models.PTOPersonal
			if r.PTOType != nil {
				ptoType = *r.PTOType
			}
			row.PTOHours[ptoType] = row.PTOHours[ptoType].Add(r.Hours)
		case r.IsOvertime:
			row.OvertimeHours = row.OvertimeHours.Add(r.Hours)
		default:
			row.RegularHours = row.RegularHours.Add(r.Hours)
		}
		row.TotalHours = row.TotalHours.Add(r.Hours)
	}

	rows := make([]models.PayrollRow, 0, len(byEmployee))
	for _, row := range byEmployee {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].EmployeeName < rows[j].EmployeeName })
	return rows
}

// PeriodReport assembles the full aggregation output for one pay period,
// serving from cache when possible.
func (s *ReportService) PeriodReport(ctx context.Context, payPeriodID string) (*models.PeriodReport, error) {
	cacheKey := reportCacheKey(payPeriodID)
	if s.cache != nil {
		var cached models.PeriodReport
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.metrics.RecordCacheLookup(true)
			return &cached, nil
		}
		s.metrics.RecordCacheLookup(false)
	}

	period, err := s.periods.FindByID(ctx, payPeriodID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "pay period not found")
	}

	records, err := s.entries.ListEntryRecords(ctx, payPeriodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entries for report")
	}

	report := &models.PeriodReport{
		PayPeriod: period,
		Summary:   SummarizeHours(records),
		ByEmployee: GroupHours(records, func(r models.EntryRecord) string {
			return r.EmployeeName
		}),
		ByClient: GroupHours(records, func(r models.EntryRecord) string {
			if r.IsPTO || r.ClientName == nil {
				return ""
			}
			return *r.ClientName
		}),
		ByJobCode: GroupHours(records, func(r models.EntryRecord) string {
			if r.IsPTO || r.JobCode == nil {
				return ""
			}
			return *r.JobCode
		}),
		Payroll:     BuildPayrollRows(records),
		GeneratedAt: time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache period report", zap.String("pay_period_id", payPeriodID), zap.Error(err))
		}
	}
	return report, nil
}

// Render produces the report in the requested format. JSON callers should
// use PeriodReport directly; Render covers the file exports.
func (s *ReportService) Render(ctx context.Context, payPeriodID string, format ReportFormat) ([]byte, string, error) {
	report, err := s.PeriodReport(ctx, payPeriodID)
	if err != nil {
		return nil, "", err
	}

	dataset := payrollDataset(report)
	title := fmt.Sprintf("Payroll %s %s", report.PayPeriod.PayGroup, report.PayPeriod.StartDate.Format("2006-01-02"))

	switch format {
	case FormatCSV:
		payload, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return payload, "text/csv", nil
	case FormatXLSX:
		payload, err := export.NewXLSXExporter().Render(dataset, "Payroll")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render xlsx report")
		}
		return payload, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	case FormatPDF:
		payload, err := export.NewPDFExporter().Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
}

// InvalidatePeriod drops every cached payload for a pay period. Called by
// the timesheet workflow after each transition.
func (s *ReportService) InvalidatePeriod(ctx context.Context, payPeriodID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, reportCacheKey(payPeriodID)+"*"); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.String("pay_period_id", payPeriodID), zap.Error(err))
	}
}

func reportCacheKey(payPeriodID string) string {
	return "reports:period:" + payPeriodID
}

func payrollDataset(report *models.PeriodReport) export.Dataset {
	headers := []string{
		"Employee", "Pay Group", "Period Start", "Period End",
		"Regular Hours", "Overtime Hours",
		"Vacation Hours", "Sick Hours", "Holiday Hours", "Personal Hours",
		"Total Hours",
	}

	rows := make([]map[string]string, 0, len(report.Payroll))
	for _, row := range report.Payroll {
		rows = append(rows, map[string]string{
			"Employee":       row.EmployeeName,
			"Pay Group":      string(row.PayGroup),
			"Period Start":   report.PayPeriod.StartDate.Format("2006-01-02"),
			"Period End":     report.PayPeriod.EndDate.Format("2006-01-02"),
			"Regular Hours":  row.RegularHours.StringFixed(2),
			"Overtime Hours": row.OvertimeHours.StringFixed(2),
			"Vacation Hours": row.PTOHours[models.PTOVacation].StringFixed(2),
			"Sick Hours":     row.PTOHours[models.PTOSick].StringFixed(2),
			"Holiday Hours":  row.PTOHours[models.PTOHoliday].StringFixed(2),
			"Personal Hours": row.PTOHours[models.PTOPersonal].StringFixed(2),
			"Total Hours":    row.TotalHours.StringFixed(2),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
