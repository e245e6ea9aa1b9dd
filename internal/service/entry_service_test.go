package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	appErrors "github.com/clockwise-hq/timetrack-api/pkg/errors"
)

type mockEntryRepo struct {
	timeEntries map[string]*models.TimeEntry
	ptoEntries  map[string]*models.PTOEntry
	deleted     []string
}

func (m *mockEntryRepo) ListTimeEntries(ctx context.Context, timesheetID string) ([]models.TimeEntry, error) {
	var out []models.TimeEntry
	for _, e := range m.timeEntries {
		if e.TimesheetID == timesheetID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEntryRepo) FindTimeEntryByID(ctx context.Context, id string) (*models.TimeEntry, error) {
	if e, ok := m.timeEntries[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEntryRepo) CreateTimeEntry(ctx context.Context, entry *models.TimeEntry) error {
	if m.timeEntries == nil {
		m.timeEntries = make(map[string]*models.TimeEntry)
	}
	entry.ID = "te-new"
	cp := *entry
	m.timeEntries[entry.ID] = &cp
	return nil
}

func (m *mockEntryRepo) UpdateTimeEntry(ctx context.Context, entry *models.TimeEntry) error {
	cp := *entry
	m.timeEntries[entry.ID] = &cp
	return nil
}

func (m *mockEntryRepo) DeleteTimeEntry(ctx context.Context, id string) error {
	delete(m.timeEntries, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockEntryRepo) ListPTOEntries(ctx context.Context, timesheetID string) ([]models.PTOEntry, error) {
	var out []models.PTOEntry
	for _, e := range m.ptoEntries {
		if e.TimesheetID == timesheetID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEntryRepo) FindPTOEntryByID(ctx context.Context, id string) (*models.PTOEntry, error) {
	if e, ok := m.ptoEntries[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEntryRepo) CreatePTOEntry(ctx context.Context, entry *models.PTOEntry) error {
	if m.ptoEntries == nil {
		m.ptoEntries = make(map[string]*models.PTOEntry)
	}
	entry.ID = "pto-new"
	cp := *entry
	m.ptoEntries[entry.ID] = &cp
	return nil
}

func (m *mockEntryRepo) UpdatePTOEntry(ctx context.Context, entry *models.PTOEntry) error {
	cp := *entry
	m.ptoEntries[entry.ID] = &cp
	return nil
}

func (m *mockEntryRepo) DeletePTOEntry(ctx context.Context, id string) error {
	delete(m.ptoEntries, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockSheetFinder struct {
	sheets map[string]*models.Timesheet
}

func (m *mockSheetFinder) FindByID(ctx context.Context, id string) (*models.Timesheet, error) {
	if s, ok := m.sheets[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type mockPeriodByID struct {
	periods map[string]*models.PayPeriod
}

func (m *mockPeriodByID) FindByID(ctx context.Context, id string) (*models.PayPeriod, error) {
	if p, ok := m.periods[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

// newEntryFixture pins the clock at 2025-01-15 inside a period running
// 2025-01-06 through 2025-01-19.
func newEntryFixture(status models.TimesheetStatus) (*EntryService, *mockEntryRepo) {
	repo := &mockEntryRepo{}
	sheets := &mockSheetFinder{
		sheets: map[string]*models.Timesheet{
			"ts-1": {ID: "ts-1", EmployeeID: owner.ID, PayPeriodID: "p1", Status: status},
		},
	}
	periods := &mockPeriodByID{
		periods: map[string]*models.PayPeriod{
			"p1": {ID: "p1", PayGroup: models.PayGroupA, StartDate: date(2025, 1, 6), EndDate: date(2025, 1, 19), Status: models.PayPeriodOpen},
		},
	}
	svc := NewEntryService(repo, sheets, periods, 16, nil, nil)
	svc.now = func() time.Time { return date(2025, 1, 15) }
	return svc, repo
}

func hours(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestCreateTimeEntry(t *testing.T) {
	svc, repo := newEntryFixture(models.TimesheetDraft)

	entry, err := svc.CreateTimeEntry(context.Background(), owner, "ts-1", TimeEntryRequest{
		WorkDate: date(2025, 1, 10),
		Hours:    hours("7.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ts-1", entry.TimesheetID)
	assert.True(t, entry.Hours.Equal(hours("7.5")))
	assert.Len(t, repo.timeEntries, 1)
}

func TestCreateTimeEntryOnRejectedSheet(t *testing.T) {
	svc, _ := newEntryFixture(models.TimesheetRejected)

	_, err := svc.CreateTimeEntry(context.Background(), owner, "ts-1", TimeEntryRequest{
		WorkDate: date(2025, 1, 10),
		Hours:    hours("8"),
	})
	require.NoError(t, err, "rejected timesheets stay editable")
}

func TestCreateTimeEntryForbiddenForOthers(t *testing.T) {
	svc, _ := newEntryFixture(models.TimesheetDraft)

	// Even reviewers may not write into someone else's timesheet.
	for _, actor := range []Actor{coworker, manager} {
		_, err := svc.CreateTimeEntry(context.Background(), actor, "ts-1", TimeEntryRequest{
			WorkDate: date(2025, 1, 10),
			Hours:    hours("8"),
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	}
}

func TestCreateTimeEntryReadOnlySheet(t *testing.T) {
	for _, status := range []models.TimesheetStatus{models.TimesheetSubmitted, models.TimesheetApproved} {
		svc, _ := newEntryFixture(status)

		_, err := svc.CreateTimeEntry(context.Background(), owner, "ts-1", TimeEntryRequest{
			WorkDate: date(2025, 1, 10),
			Hours:    hours("8"),
		})
		require.Error(t, err, "status %s", status)
		assert.Equal(t, appErrors.ErrTimesheetReadOnly.Code, appErrors.FromError(err).Code)
	}
}

func TestCreateTimeEntryDateWindow(t *testing.T) {
	svc, _ := newEntryFixture(models.TimesheetDraft)
	ctx := context.Background()

	cases := []struct {
		name string
		day  time.Time
		ok   bool
	}{
		{"first day of period", date(2025, 1, 6), true},
		{"today", date(2025, 1, 15), true},
		{"day before period", date(2025, 1, 5), false},
		{"tomorrow", date(2025, 1, 16), false},
		{"inside period but future", date(2025, 1, 19), false},
	}
	for _, tc := range cases {
		_, err := svc.CreateTimeEntry(ctx, owner, "ts-1", TimeEntryRequest{WorkDate: tc.day, Hours: hours("8")})
		if tc.ok {
			assert.NoError(t, err, tc.name)
		} else {
			require.Error(t, err, tc.name)
			assert.Equal(t, appErrors.ErrDateOutOfRange.Code, appErrors.FromError(err).Code, tc.name)
		}
	}
}

func TestCreateTimeEntryWindowClampedToPeriodEnd(t *testing.T) {
	svc, _ := newEntryFixture(models.TimesheetDraft)
	svc.now = func() time.Time { return date(2025, 2, 1) }

	// Period already over: its own end is the boundary, not today.
	_, err := svc.CreateTimeEntry(context.Background(), owner, "ts-1", TimeEntryRequest{
		WorkDate: date(2025, 1, 19),
		Hours:    hours("8"),
	})
	assert.NoError(t, err)

	_, err = svc.CreateTimeEntry(context.Background(), owner, "ts-1", TimeEntryRequest{
		WorkDate: date(2025, 1, 20),
		Hours:    hours("8"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDateOutOfRange.Code, appErrors.FromError(err).Code)
}

func TestCreateTimeEntryHoursBounds(t *testing.T) {
	svc, _ := newEntryFixture(models.TimesheetDraft)
	ctx := context.Background()

	for _, h := range []string{"-1", "16.5", "24"} {
		_, err := svc.CreateTimeEntry(ctx, owner, "ts-1", TimeEntryRequest{
			WorkDate: date(2025, 1, 10),
			Hours:    hours(h),
		})
		require.Error(t, err, "hours %s", h)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}

	_, err := svc.CreateTimeEntry(ctx, owner, "ts-1", TimeEntryRequest{
		WorkDate: date(2025, 1, 10),
		Hours:    hours("16"),
	})
	assert.NoError(t, err, "max daily hours itself is allowed")
}

func TestUpdateTimeEntryOnSubmittedSheet(t *testing.T) {
	svc, repo := newEntryFixture(models.TimesheetSubmitted)
	repo.timeEntries = map[string]*models.TimeEntry{
		"te-1": {ID: "te-1", TimesheetID: "ts-1", WorkDate: date(2025, 1, 10), Hours: hours("8")},
	}

	_, err := svc.UpdateTimeEntry(context.Background(), owner, "te-1", TimeEntryRequest{
		WorkDate: date(2025, 1, 10),
		Hours:    hours("6"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTimesheetReadOnly.Code, appErrors.FromError(err).Code)

	err = svc.DeleteTimeEntry(context.Background(), owner, "te-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTimesheetReadOnly.Code, appErrors.FromError(err).Code)
}

func TestCreatePTOEntry(t *testing.T) {
	svc, repo := newEntryFixture(models.TimesheetDraft)

	entry, err := svc.CreatePTOEntry(context.Background(), owner, "ts-1", PTOEntryRequest{
		PTODate: date(2025, 1, 13),
		Hours:   hours("8"),
		Type:    models.PTOVacation,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PTOVacation, entry.Type)
	assert.Len(t, repo.ptoEntries, 1)
}

func TestCreatePTOEntryRejectsUnknownType(t *testing.T) {
	svc, _ := newEntryFixture(models.TimesheetDraft)

	_, err := svc.CreatePTOEntry(context.Background(), owner, "ts-1", PTOEntryRequest{
		PTODate: date(2025, 1, 13),
		Hours:   hours("8"),
		Type:    models.PTOType("sabbatical"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestListTimeEntriesVisibility(t *testing.T) {
	svc, repo := newEntryFixture(models.TimesheetSubmitted)
	repo.timeEntries = map[string]*models.TimeEntry{
		"te-1": {ID: "te-1", TimesheetID: "ts-1", WorkDate: date(2025, 1, 10), Hours: hours("8")},
	}

	entries, err := svc.ListTimeEntries(context.Background(), manager, "ts-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = svc.ListTimeEntries(context.Background(), coworker, "ts-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
