package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	appErrors "github.com/clockwise-hq/timetrack-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func ptoPtr(t models.PTOType) *models.PTOType { return &t }

func sampleRecords() []models.EntryRecord {
	return []models.EntryRecord{
		{
			TimesheetID: "ts-1", TimesheetStatus: models.TimesheetApproved,
			EmployeeID: "emp-1", EmployeeName: "Ada Lovelace", PayGroup: models.PayGroupA,
			WorkDate: date(2025, 1, 6), Hours: hours("8"), ClientName: strPtr("Acme Corp"), JobCode: strPtr("DEV"),
		},
		{
			TimesheetID: "ts-1", TimesheetStatus: models.TimesheetApproved,
			EmployeeID: "emp-1", EmployeeName: "Ada Lovelace", PayGroup: models.PayGroupA,
			WorkDate: date(2025, 1, 7), Hours: hours("2"), IsOvertime: true, ClientName: strPtr("Acme Corp"), JobCode: strPtr("DEV"),
		},
		{
			TimesheetID: "ts-1", TimesheetStatus: models.TimesheetApproved,
			EmployeeID: "emp-1", EmployeeName: "Ada Lovelace", PayGroup: models.PayGroupA,
			WorkDate: date(2025, 1, 8), Hours: hours("8"), IsPTO: true, PTOType: ptoPtr(models.PTOVacation),
		},
		{
			TimesheetID: "ts-2", TimesheetStatus: models.TimesheetApproved,
			EmployeeID: "emp-2", EmployeeName: "Grace Hopper", PayGroup: models.PayGroupA,
			WorkDate: date(2025, 1, 6), Hours: hours("7.5"),
		},
		{
			TimesheetID: "ts-3", TimesheetStatus: models.TimesheetSubmitted,
			EmployeeID: "emp-3", EmployeeName: "Alan Turing", PayGroup: models.PayGroupA,
			WorkDate: date(2025, 1, 6), Hours: hours("8"), ClientName: strPtr("Globex"),
		},
	}
}

func TestSummarizeHours(t *testing.T) {
	summary := SummarizeHours(sampleRecords())
	assert.True(t, summary.WorkedHours.Equal(hours("25.5")), "worked %s", summary.WorkedHours)
	assert.True(t, summary.PTOHours.Equal(hours("8")))
	assert.True(t, summary.TotalHours.Equal(hours("33.5")))
}

func TestGroupHoursByClient(t *testing.T) {
	groups := GroupHours(sampleRecords(), func(r models.EntryRecord) string {
		if r.IsPTO || r.ClientName == nil {
			return ""
		}
		return *r.ClientName
	})

	require.Len(t, groups, 3)
	// Sorted by key, with keyless records in the unassigned bucket.
	assert.Equal(t, "Acme Corp", groups[0].Key)
	assert.True(t, groups[0].Hours.Equal(hours("10")))
	assert.Equal(t, "Globex", groups[1].Key)
	assert.Equal(t, models.UnassignedBucket, groups[2].Key)
	assert.True(t, groups[2].Hours.Equal(hours("15.5")))
}

func TestBuildPayrollRows(t *testing.T) {
	rows := BuildPayrollRows(sampleRecords())

	// Only approved timesheets feed payroll; the submitted one is skipped.
	require.Len(t, rows, 2)
	assert.Equal(t, "Ada Lovelace", rows[0].EmployeeName)
	assert.Equal(t, "Grace Hopper", rows[1].EmployeeName)

	ada := rows[0]
	assert.True(t, ada.RegularHours.Equal(hours("8")))
	assert.True(t, ada.OvertimeHours.Equal(hours("2")))
	assert.True(t, ada.PTOHours[models.PTOVacation].Equal(hours("8")))
	assert.True(t, ada.TotalHours.Equal(hours("18")))

	grace := rows[1]
	assert.True(t, grace.RegularHours.Equal(hours("7.5")))
	assert.True(t, grace.OvertimeHours.IsZero())
	assert.Empty(t, grace.PTOHours)
}

type mockEntryRecords struct {
	records []models.EntryRecord
	calls   int
}

func (m *mockEntryRecords) ListEntryRecords(ctx context.Context, payPeriodID string) ([]models.EntryRecord, error) {
	m.calls++
	return m.records, nil
}

type mapCache struct {
	data    map[string][]byte
	deleted []string
}

func (c *mapCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.data == nil {
		c.data = make(map[string][]byte)
	}
	c.data[key] = raw
	return nil
}

func (c *mapCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.deleted = append(c.deleted, pattern)
	for key := range c.data {
		delete(c.data, key)
	}
	return nil
}

func TestPeriodReportUsesCache(t *testing.T) {
	entries := &mockEntryRecords{records: sampleRecords()}
	periods := &mockPeriodByID{
		periods: map[string]*models.PayPeriod{
			"p1": {ID: "p1", PayGroup: models.PayGroupA, StartDate: date(2025, 1, 6), EndDate: date(2025, 1, 19)},
		},
	}
	cache := &mapCache{}
	svc := NewReportService(entries, periods, cache, time.Minute, nil)

	report, err := svc.PeriodReport(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, report.Payroll, 2)
	assert.Equal(t, 1, entries.calls)

	// Second read is served from the cache.
	cached, err := svc.PeriodReport(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, entries.calls)
	assert.True(t, cached.Summary.TotalHours.Equal(report.Summary.TotalHours))

	// Invalidation forces a rebuild.
	svc.InvalidatePeriod(context.Background(), "p1")
	_, err = svc.PeriodReport(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, entries.calls)
}

func TestPeriodReportUnknownPeriod(t *testing.T) {
	svc := NewReportService(&mockEntryRecords{}, &mockPeriodByID{}, nil, time.Minute, nil)

	_, err := svc.PeriodReport(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	periods := &mockPeriodByID{
		periods: map[string]*models.PayPeriod{
			"p1": {ID: "p1", PayGroup: models.PayGroupA, StartDate: date(2025, 1, 6), EndDate: date(2025, 1, 19)},
		},
	}
	svc := NewReportService(&mockEntryRecords{}, periods, nil, time.Minute, nil)

	_, _, err := svc.Render(context.Background(), "p1", ReportFormat("yaml"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRenderCSV(t *testing.T) {
	periods := &mockPeriodByID{
		periods: map[string]*models.PayPeriod{
			"p1": {ID: "p1", PayGroup: models.PayGroupA, StartDate: date(2025, 1, 6), EndDate: date(2025, 1, 19)},
		},
	}
	svc := NewReportService(&mockEntryRecords{records: sampleRecords()}, periods, nil, time.Minute, nil)

	payload, contentType, err := svc.Render(context.Background(), "p1", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "Ada Lovelace")
	assert.NotContains(t, string(payload), "Alan Turing", "unapproved sheets stay out of payroll")
}
