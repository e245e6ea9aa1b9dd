package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	appErrors "github.com/clockwise-hq/timetrack-api/pkg/errors"
)

// mockTimesheetRepo mirrors the conditional updates the real repository
// performs in SQL: a transition only sticks when the sheet is in an
// allowed source status.
type mockTimesheetRepo struct {
	sheets       map[string]*models.Timesheet
	entryCounts  map[string]int
	createdCount int
}

func (m *mockTimesheetRepo) List(ctx context.Context, filter models.TimesheetFilter) ([]models.Timesheet, error) {
	var out []models.Timesheet
	for _, s := range m.sheets {
		if filter.EmployeeID != "" && s.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockTimesheetRepo) FindByID(ctx context.Context, id string) (*models.Timesheet, error) {
	if s, ok := m.sheets[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTimesheetRepo) FindByEmployeeAndPeriod(ctx context.Context, employeeID, payPeriodID string) (*models.Timesheet, error) {
	for _, s := range m.sheets {
		if s.EmployeeID == employeeID && s.PayPeriodID == payPeriodID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockTimesheetRepo) GetOrCreate(ctx context.Context, employeeID, payPeriodID string) (*models.Timesheet, error) {
	if existing, err := m.FindByEmployeeAndPeriod(ctx, employeeID, payPeriodID); err == nil {
		return existing, nil
	}
	if m.sheets == nil {
		m.sheets = make(map[string]*models.Timesheet)
	}
	m.createdCount++
	sheet := &models.Timesheet{
		ID:          "ts-new",
		EmployeeID:  employeeID,
		PayPeriodID: payPeriodID,
		Status:      models.TimesheetDraft,
	}
	m.sheets[sheet.ID] = sheet
	cp := *sheet
	return &cp, nil
}

func (m *mockTimesheetRepo) markIf(id string, allowed []models.TimesheetStatus, to models.TimesheetStatus) int64 {
	s, ok := m.sheets[id]
	if !ok {
		return 0
	}
	for _, status := range allowed {
		if s.Status == status {
			s.Status = to
			return 1
		}
	}
	return 0
}

func (m *mockTimesheetRepo) MarkSubmitted(ctx context.Context, id string, at time.Time) (int64, error) {
	return m.markIf(id, []models.TimesheetStatus{models.TimesheetDraft, models.TimesheetRejected}, models.TimesheetSubmitted), nil
}

func (m *mockTimesheetRepo) MarkApproved(ctx context.Context, id, approverID string, at time.Time) (int64, error) {
	return m.markIf(id, []models.TimesheetStatus{models.TimesheetSubmitted}, models.TimesheetApproved), nil
}

func (m *mockTimesheetRepo) MarkRejected(ctx context.Context, id, reason string, at time.Time) (int64, error) {
	return m.markIf(id, []models.TimesheetStatus{models.TimesheetSubmitted}, models.TimesheetRejected), nil
}

func (m *mockTimesheetRepo) MarkReopened(ctx context.Context, id string, at time.Time) (int64, error) {
	return m.markIf(id, []models.TimesheetStatus{models.TimesheetSubmitted, models.TimesheetApproved}, models.TimesheetDraft), nil
}

func (m *mockTimesheetRepo) DeleteDraft(ctx context.Context, id string) (int64, error) {
	s, ok := m.sheets[id]
	if !ok || (s.Status != models.TimesheetDraft && s.Status != models.TimesheetRejected) {
		return 0, nil
	}
	delete(m.sheets, id)
	return 1, nil
}

func (m *mockTimesheetRepo) CountEntries(ctx context.Context, id string) (int, error) {
	return m.entryCounts[id], nil
}

type mockPeriodCurrent struct {
	period *models.PayPeriod
}

func (m *mockPeriodCurrent) Current(ctx context.Context, group models.PayGroup, at time.Time) (*models.PayPeriod, error) {
	if m.period == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no open pay period configured for this group")
	}
	return m.period, nil
}

type mockNotifier struct {
	submitted []string
	approved  []string
	rejected  []string
}

func (m *mockNotifier) TimesheetSubmitted(sheet *models.Timesheet, actor Actor) {
	m.submitted = append(m.submitted, sheet.ID)
}

func (m *mockNotifier) TimesheetApproved(sheet *models.Timesheet, actor Actor) {
	m.approved = append(m.approved, sheet.ID)
}

func (m *mockNotifier) TimesheetRejected(sheet *models.Timesheet, actor Actor, reason string) {
	m.rejected = append(m.rejected, sheet.ID+":"+reason)
}

type mockInvalidator struct {
	invalidated []string
}

func (m *mockInvalidator) InvalidatePeriod(ctx context.Context, payPeriodID string) {
	m.invalidated = append(m.invalidated, payPeriodID)
}

var (
	owner    = Actor{ID: "emp-1", PayGroup: models.PayGroupA}
	coworker = Actor{ID: "emp-2", PayGroup: models.PayGroupA}
	manager  = Actor{ID: "mgr-1", IsManager: true}
)

func newWorkflowFixture(status models.TimesheetStatus, entries int) (*TimesheetService, *mockTimesheetRepo, *mockNotifier, *mockInvalidator) {
	repo := &mockTimesheetRepo{
		sheets: map[string]*models.Timesheet{
			"ts-1": {ID: "ts-1", EmployeeID: owner.ID, PayPeriodID: "p1", Status: status},
		},
		entryCounts: map[string]int{"ts-1": entries},
	}
	notifier := &mockNotifier{}
	invalidator := &mockInvalidator{}
	svc := NewTimesheetService(repo, &mockPeriodCurrent{}, notifier, invalidator, nil, nil)
	return svc, repo, notifier, invalidator
}

func TestTimesheetGetOrCreateCurrent(t *testing.T) {
	repo := &mockTimesheetRepo{}
	periods := &mockPeriodCurrent{period: &models.PayPeriod{ID: "p1", PayGroup: models.PayGroupA}}
	svc := NewTimesheetService(repo, periods, nil, nil, nil, nil)

	sheet, period, err := svc.GetOrCreateCurrent(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, "p1", period.ID)
	assert.Equal(t, models.TimesheetDraft, sheet.Status)
	assert.Equal(t, 1, repo.createdCount)

	// Second call reuses the row.
	again, _, err := svc.GetOrCreateCurrent(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, sheet.ID, again.ID)
	assert.Equal(t, 1, repo.createdCount)
}

func TestTimesheetGetOrCreateCurrentNoPeriod(t *testing.T) {
	svc := NewTimesheetService(&mockTimesheetRepo{}, &mockPeriodCurrent{}, nil, nil, nil, nil)

	_, _, err := svc.GetOrCreateCurrent(context.Background(), owner)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimesheetSubmit(t *testing.T) {
	svc, repo, notifier, invalidator := newWorkflowFixture(models.TimesheetDraft, 3)

	sheet, err := svc.Submit(context.Background(), owner, "ts-1")
	require.NoError(t, err)
	assert.Equal(t, models.TimesheetSubmitted, sheet.Status)
	assert.NotNil(t, sheet.SubmittedAt)
	assert.Equal(t, models.TimesheetSubmitted, repo.sheets["ts-1"].Status)
	assert.Equal(t, []string{"ts-1"}, notifier.submitted)
	assert.Equal(t, []string{"p1"}, invalidator.invalidated)
}

func TestTimesheetSubmitRequiresEntries(t *testing.T) {
	svc, repo, _, _ := newWorkflowFixture(models.TimesheetDraft, 0)

	_, err := svc.Submit(context.Background(), owner, "ts-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptyTimesheet.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.TimesheetDraft, repo.sheets["ts-1"].Status)
}

func TestTimesheetSubmitByNonOwner(t *testing.T) {
	svc, _, _, _ := newWorkflowFixture(models.TimesheetDraft, 3)

	for _, actor := range []Actor{coworker, manager} {
		_, err := svc.Submit(context.Background(), actor, "ts-1")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	}
}

func TestTimesheetApprove(t *testing.T) {
	svc, repo, notifier, _ := newWorkflowFixture(models.TimesheetSubmitted, 3)

	sheet, err := svc.Approve(context.Background(), manager, "ts-1")
	require.NoError(t, err)
	assert.Equal(t, models.TimesheetApproved, sheet.Status)
	require.NotNil(t, sheet.ApprovedBy)
	assert.Equal(t, manager.ID, *sheet.ApprovedBy)
	assert.Equal(t, models.TimesheetApproved, repo.sheets["ts-1"].Status)
	assert.Equal(t, []string{"ts-1"}, notifier.approved)
}

func TestTimesheetApproveByEmployee(t *testing.T) {
	svc, _, _, _ := newWorkflowFixture(models.TimesheetSubmitted, 3)

	_, err := svc.Approve(context.Background(), owner, "ts-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestTimesheetRejectRequiresReason(t *testing.T) {
	svc, _, _, _ := newWorkflowFixture(models.TimesheetSubmitted, 3)

	_, err := svc.Reject(context.Background(), manager, "ts-1", RejectTimesheetRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimesheetRejectAndResubmit(t *testing.T) {
	svc, repo, notifier, _ := newWorkflowFixture(models.TimesheetSubmitted, 3)

	sheet, err := svc.Reject(context.Background(), manager, "ts-1", RejectTimesheetRequest{Reason: "missing Friday hours"})
	require.NoError(t, err)
	assert.Equal(t, models.TimesheetRejected, sheet.Status)
	require.NotNil(t, sheet.RejectionReason)
	assert.Equal(t, "missing Friday hours", *sheet.RejectionReason)
	assert.Nil(t, sheet.ApprovedAt)
	assert.Equal(t, []string{"ts-1:missing Friday hours"}, notifier.rejected)

	// The employee can fix and resubmit, which clears the reason.
	resubmitted, err := svc.Submit(context.Background(), owner, "ts-1")
	require.NoError(t, err)
	assert.Equal(t, models.TimesheetSubmitted, resubmitted.Status)
	assert.Nil(t, resubmitted.RejectionReason)
	assert.Equal(t, models.TimesheetSubmitted, repo.sheets["ts-1"].Status)
}

func TestTimesheetReopenClearsWorkflowFields(t *testing.T) {
	svc, repo, _, _ := newWorkflowFixture(models.TimesheetApproved, 3)
	approvedBy := manager.ID
	now := time.Now().UTC()
	repo.sheets["ts-1"].SubmittedAt = &now
	repo.sheets["ts-1"].ApprovedAt = &now
	repo.sheets["ts-1"].ApprovedBy = &approvedBy

	sheet, err := svc.Reopen(context.Background(), manager, "ts-1")
	require.NoError(t, err)
	assert.Equal(t, models.TimesheetDraft, sheet.Status)
	assert.Nil(t, sheet.SubmittedAt)
	assert.Nil(t, sheet.ApprovedAt)
	assert.Nil(t, sheet.ApprovedBy)
	assert.Nil(t, sheet.RejectionReason)
}

func TestTimesheetDelete(t *testing.T) {
	svc, repo, _, _ := newWorkflowFixture(models.TimesheetDraft, 1)

	require.NoError(t, svc.Delete(context.Background(), manager, "ts-1"))
	assert.Empty(t, repo.sheets)
}

func TestTimesheetDeleteByEmployee(t *testing.T) {
	svc, _, _, _ := newWorkflowFixture(models.TimesheetDraft, 1)

	err := svc.Delete(context.Background(), owner, "ts-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

// TestTimesheetTransitionTable exhausts every status and action pair and
// checks exactly the allowed combinations go through.
func TestTimesheetTransitionTable(t *testing.T) {
	type key struct {
		status models.TimesheetStatus
		action models.TimesheetAction
	}
	allowed := map[key]bool{
		{models.TimesheetDraft, models.ActionSubmit}:      true,
		{models.TimesheetRejected, models.ActionSubmit}:   true,
		{models.TimesheetSubmitted, models.ActionApprove}: true,
		{models.TimesheetSubmitted, models.ActionReject}:  true,
		{models.TimesheetSubmitted, models.ActionReopen}:  true,
		{models.TimesheetApproved, models.ActionReopen}:   true,
		{models.TimesheetDraft, models.ActionDelete}:      true,
		{models.TimesheetRejected, models.ActionDelete}:   true,
	}

	statuses := []models.TimesheetStatus{
		models.TimesheetDraft,
		models.TimesheetSubmitted,
		models.TimesheetApproved,
		models.TimesheetRejected,
	}
	actions := []models.TimesheetAction{
		models.ActionSubmit,
		models.ActionApprove,
		models.ActionReject,
		models.ActionReopen,
		models.ActionDelete,
	}

	for _, status := range statuses {
		for _, action := range actions {
			svc, _, _, _ := newWorkflowFixture(status, 3)
			ctx := context.Background()

			var err error
			switch action {
			case models.ActionSubmit:
				_, err = svc.Submit(ctx, owner, "ts-1")
			case models.ActionApprove:
				_, err = svc.Approve(ctx, manager, "ts-1")
			case models.ActionReject:
				_, err = svc.Reject(ctx, manager, "ts-1", RejectTimesheetRequest{Reason: "needs work"})
			case models.ActionReopen:
				_, err = svc.Reopen(ctx, manager, "ts-1")
			case models.ActionDelete:
				err = svc.Delete(ctx, manager, "ts-1")
			}

			if allowed[key{status, action}] {
				assert.NoError(t, err, "%s from %s should be allowed", action, status)
			} else {
				require.Error(t, err, "%s from %s should be rejected", action, status)
				assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code,
					"%s from %s", action, status)
			}
		}
	}
}
