package service

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	appErrors "github.com/clockwise-hq/timetrack-api/pkg/errors"
)

type mockPayPeriodRepo struct {
	periods     map[string]*models.PayPeriod
	overlapping bool
	overlapErr  error
	created     []models.PayPeriod
	batches     [][]models.PayPeriod
	statusRows  int64
	statusCalls []string
	listResult  []models.PayPeriod
	openByGroup map[models.PayGroup]*models.PayPeriod
}

func (m *mockPayPeriodRepo) List(ctx context.Context, filter models.PayPeriodFilter) ([]models.PayPeriod, error) {
	return m.listResult, nil
}

func (m *mockPayPeriodRepo) FindByID(ctx context.Context, id string) (*models.PayPeriod, error) {
	if p, ok := m.periods[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPayPeriodRepo) FindOpenContaining(ctx context.Context, group models.PayGroup, date time.Time) (*models.PayPeriod, error) {
	if p, ok := m.openByGroup[group]; ok && p.Contains(date) {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPayPeriodRepo) ExistsOverlapping(ctx context.Context, group models.PayGroup, start, end time.Time, excludeID string) (bool, error) {
	return m.overlapping, m.overlapErr
}

func (m *mockPayPeriodRepo) Create(ctx context.Context, period *models.PayPeriod) error {
	period.ID = "generated"
	m.created = append(m.created, *period)
	return nil
}

func (m *mockPayPeriodRepo) CreateBatch(ctx context.Context, periods []models.PayPeriod) error {
	m.batches = append(m.batches, periods)
	return nil
}

func (m *mockPayPeriodRepo) UpdateStatus(ctx context.Context, id string, from, to models.PayPeriodStatus) (int64, error) {
	m.statusCalls = append(m.statusCalls, id+":"+string(from)+">"+string(to))
	return m.statusRows, nil
}

func (m *mockPayPeriodRepo) Update(ctx context.Context, period *models.PayPeriod) error {
	cp := *period
	m.periods[period.ID] = &cp
	return nil
}

func date(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildScheduleStaggered(t *testing.T) {
	periods, err := BuildSchedule(date(2025, 1, 6), 8)
	require.NoError(t, err)
	require.Len(t, periods, 8)

	var groupA, groupB []models.PayPeriod
	for _, p := range periods {
		switch p.PayGroup {
		case models.PayGroupA:
			groupA = append(groupA, p)
		case models.PayGroupB:
			groupB = append(groupB, p)
		}
	}
	require.Len(t, groupA, 4)
	require.Len(t, groupB, 4)

	wantA := [][2]time.Time{
		{date(2025, 1, 6), date(2025, 1, 19)},
		{date(2025, 1, 20), date(2025, 2, 2)},
		{date(2025, 2, 3), date(2025, 2, 16)},
		{date(2025, 2, 17), date(2025, 3, 2)},
	}
	for i, p := range groupA {
		assert.True(t, p.StartDate.Equal(wantA[i][0]), "group A period %d start", i)
		assert.True(t, p.EndDate.Equal(wantA[i][1]), "group A period %d end", i)
		assert.Equal(t, models.PayPeriodOpen, p.Status)
	}

	// Group B mirrors group A shifted one week later.
	for i, p := range groupB {
		assert.True(t, p.StartDate.Equal(groupA[i].StartDate.AddDate(0, 0, 7)))
		assert.True(t, p.EndDate.Equal(groupA[i].EndDate.AddDate(0, 0, 7)))
	}
}

func TestBuildScheduleBackToBack(t *testing.T) {
	periods, err := BuildSchedule(date(2025, 3, 3), 6)
	require.NoError(t, err)

	byGroup := map[models.PayGroup][]models.PayPeriod{}
	for _, p := range periods {
		byGroup[p.PayGroup] = append(byGroup[p.PayGroup], p)
	}
	for group, ps := range byGroup {
		for i := 1; i < len(ps); i++ {
			gap := ps[i].StartDate.Sub(ps[i-1].EndDate)
			assert.Equal(t, 24*time.Hour, gap, "group %s has a gap or overlap", group)
		}
	}
}

func TestBuildScheduleRejectsBadWeeks(t *testing.T) {
	for _, weeks := range []int{0, 1, 3, 7, -4} {
		_, err := BuildSchedule(date(2025, 1, 6), weeks)
		require.Error(t, err, "weeks=%d", weeks)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestBuildScheduleTruncatesTime(t *testing.T) {
	periods, err := BuildSchedule(time.Date(2025, 1, 6, 15, 42, 7, 0, time.UTC), 2)
	require.NoError(t, err)
	assert.True(t, periods[0].StartDate.Equal(date(2025, 1, 6)))
}

func TestPayPeriodServiceGenerate(t *testing.T) {
	repo := &mockPayPeriodRepo{}
	svc := NewPayPeriodService(repo, nil, nil)

	periods, err := svc.Generate(context.Background(), GenerateScheduleRequest{
		StartDate: date(2025, 1, 6),
		Weeks:     4,
	})
	require.NoError(t, err)
	assert.Len(t, periods, 4)
	require.Len(t, repo.batches, 1)
	assert.Len(t, repo.batches[0], 4)
}

func TestPayPeriodServiceGenerateRejectsOverlap(t *testing.T) {
	repo := &mockPayPeriodRepo{overlapping: true}
	svc := NewPayPeriodService(repo, nil, nil)

	_, err := svc.Generate(context.Background(), GenerateScheduleRequest{
		StartDate: date(2025, 1, 6),
		Weeks:     4,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPeriodOverlap.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.batches, "nothing may be persisted on overlap")
}

func TestPayPeriodServiceCreateRejectsReversedDates(t *testing.T) {
	repo := &mockPayPeriodRepo{}
	svc := NewPayPeriodService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreatePayPeriodRequest{
		PayGroup:  models.PayGroupA,
		StartDate: date(2025, 1, 19),
		EndDate:   date(2025, 1, 6),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestPayPeriodServiceCreateAllowsIrregularLength(t *testing.T) {
	repo := &mockPayPeriodRepo{}
	svc := NewPayPeriodService(repo, nil, nil)

	period, err := svc.Create(context.Background(), CreatePayPeriodRequest{
		PayGroup:  models.PayGroupB,
		StartDate: date(2025, 1, 6),
		EndDate:   date(2025, 1, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PayPeriodOpen, period.Status)
	assert.Len(t, repo.created, 1)
}

func TestPayPeriodServiceCurrent(t *testing.T) {
	open := &models.PayPeriod{
		ID:        "p1",
		PayGroup:  models.PayGroupA,
		StartDate: date(2025, 1, 6),
		EndDate:   date(2025, 1, 19),
		Status:    models.PayPeriodOpen,
	}
	repo := &mockPayPeriodRepo{openByGroup: map[models.PayGroup]*models.PayPeriod{models.PayGroupA: open}}
	svc := NewPayPeriodService(repo, nil, nil)

	period, err := svc.Current(context.Background(), models.PayGroupA, date(2025, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, "p1", period.ID)

	_, err = svc.Current(context.Background(), models.PayGroupB, date(2025, 1, 10))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Current(context.Background(), models.PayGroup("C"), date(2025, 1, 10))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPayPeriodServiceCloseAndProcess(t *testing.T) {
	repo := &mockPayPeriodRepo{
		periods: map[string]*models.PayPeriod{
			"p1": {ID: "p1", PayGroup: models.PayGroupA, Status: models.PayPeriodOpen},
		},
		statusRows: 1,
	}
	svc := NewPayPeriodService(repo, nil, nil)

	period, err := svc.Close(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PayPeriodClosed, period.Status)

	period, err = svc.MarkProcessed(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PayPeriodProcessed, period.Status)

	assert.Equal(t, []string{"p1:open>closed", "p1:closed>processed"}, repo.statusCalls)
}

func TestPayPeriodServiceCloseConflict(t *testing.T) {
	repo := &mockPayPeriodRepo{
		periods: map[string]*models.PayPeriod{
			"p1": {ID: "p1", PayGroup: models.PayGroupA, Status: models.PayPeriodClosed},
		},
		statusRows: 0,
	}
	svc := NewPayPeriodService(repo, nil, nil)

	_, err := svc.Close(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

// overlapOracleRepo computes overlap from what was actually stored so the
// randomized test below can compare the service against an independent
// bookkeeping of accepted intervals.
type overlapOracleRepo struct {
	mockPayPeriodRepo
	stored []models.PayPeriod
}

func (m *overlapOracleRepo) ExistsOverlapping(ctx context.Context, group models.PayGroup, start, end time.Time, excludeID string) (bool, error) {
	for _, p := range m.stored {
		if p.PayGroup != group || p.ID == excludeID {
			continue
		}
		if !start.After(p.EndDate) && !end.Before(p.StartDate) {
			return true, nil
		}
	}
	return false, nil
}

func (m *overlapOracleRepo) Create(ctx context.Context, period *models.PayPeriod) error {
	period.ID = fmt.Sprintf("p-%d", len(m.stored))
	m.stored = append(m.stored, *period)
	return nil
}

func TestPayPeriodServiceCreateOverlapProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	repo := &overlapOracleRepo{}
	svc := NewPayPeriodService(repo, nil, nil)

	type interval struct{ start, end time.Time }
	var accepted []interval
	anchor := date(2025, 1, 1)

	for i := 0; i < 200; i++ {
		start := anchor.AddDate(0, 0, rng.Intn(365))
		end := start.AddDate(0, 0, 1+rng.Intn(29))

		wantOverlap := false
		for _, iv := range accepted {
			if !start.After(iv.end) && !end.Before(iv.start) {
				wantOverlap = true
				break
			}
		}

		_, err := svc.Create(context.Background(), CreatePayPeriodRequest{
			PayGroup:  models.PayGroupA,
			StartDate: start,
			EndDate:   end,
		})
		if wantOverlap {
			require.Error(t, err, "iteration %d: [%s, %s] intersects an accepted interval", i, start.Format("2006-01-02"), end.Format("2006-01-02"))
			assert.Equal(t, appErrors.ErrPeriodOverlap.Code, appErrors.FromError(err).Code)
		} else {
			require.NoError(t, err, "iteration %d: [%s, %s] is free", i, start.Format("2006-01-02"), end.Format("2006-01-02"))
			accepted = append(accepted, interval{start: start, end: end})
		}
	}
	assert.Equal(t, len(accepted), len(repo.stored))
}

func TestPayPeriodServiceUpdateRejectsOverlap(t *testing.T) {
	repo := &mockPayPeriodRepo{
		periods: map[string]*models.PayPeriod{
			"p1": {ID: "p1", PayGroup: models.PayGroupA, StartDate: date(2025, 1, 6), EndDate: date(2025, 1, 19)},
		},
		overlapping: true,
	}
	svc := NewPayPeriodService(repo, nil, nil)

	newEnd := date(2025, 1, 25)
	_, err := svc.Update(context.Background(), "p1", UpdatePayPeriodRequest{EndDate: &newEnd})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPeriodOverlap.Code, appErrors.FromError(err).Code)
}
