package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	"github.com/clockwise-hq/timetrack-api/internal/service"
)

type payPeriodRepoStub struct {
	periods []models.PayPeriod
	current *models.PayPeriod
}

func (s *payPeriodRepoStub) List(ctx context.Context, filter models.PayPeriodFilter) ([]models.PayPeriod, error) {
	return s.periods, nil
}

func (s *payPeriodRepoStub) FindByID(ctx context.Context, id string) (*models.PayPeriod, error) {
	for i := range s.periods {
		if s.periods[i].ID == id {
			return &s.periods[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *payPeriodRepoStub) FindOpenContaining(ctx context.Context, group models.PayGroup, date time.Time) (*models.PayPeriod, error) {
	if s.current == nil {
		return nil, sql.ErrNoRows
	}
	return s.current, nil
}

func (s *payPeriodRepoStub) ExistsOverlapping(ctx context.Context, group models.PayGroup, start, end time.Time, excludeID string) (bool, error) {
	return false, nil
}

func (s *payPeriodRepoStub) Create(ctx context.Context, period *models.PayPeriod) error {
	period.ID = "p-new"
	s.periods = append(s.periods, *period)
	return nil
}

func (s *payPeriodRepoStub) CreateBatch(ctx context.Context, periods []models.PayPeriod) error {
	s.periods = append(s.periods, periods...)
	return nil
}

func (s *payPeriodRepoStub) UpdateStatus(ctx context.Context, id string, from, to models.PayPeriodStatus) (int64, error) {
	return 1, nil
}

func (s *payPeriodRepoStub) Update(ctx context.Context, period *models.PayPeriod) error {
	return nil
}

func newPayPeriodRequest(method, target string, body []byte) (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	return w, c
}

func TestPayPeriodHandlerList(t *testing.T) {
	repo := &payPeriodRepoStub{
		periods: []models.PayPeriod{{ID: "p1", PayGroup: models.PayGroupA, Status: models.PayPeriodOpen}},
	}
	h := NewPayPeriodHandler(service.NewPayPeriodService(repo, nil, nil))

	w, c := newPayPeriodRequest(http.MethodGet, "/pay-periods?group=A", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "p1")
}

func TestPayPeriodHandlerCurrentRejectsBadDate(t *testing.T) {
	h := NewPayPeriodHandler(service.NewPayPeriodService(&payPeriodRepoStub{}, nil, nil))

	w, c := newPayPeriodRequest(http.MethodGet, "/pay-periods/current?group=A&at=yesterday", nil)
	h.Current(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPayPeriodHandlerCreateInvalidBody(t *testing.T) {
	h := NewPayPeriodHandler(service.NewPayPeriodService(&payPeriodRepoStub{}, nil, nil))

	w, c := newPayPeriodRequest(http.MethodPost, "/pay-periods", []byte(`{"pay_group":`))
	h.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPayPeriodHandlerGenerate(t *testing.T) {
	repo := &payPeriodRepoStub{}
	h := NewPayPeriodHandler(service.NewPayPeriodService(repo, nil, nil))

	w, c := newPayPeriodRequest(http.MethodPost, "/pay-periods/generate", []byte(`{"start_date":"2025-01-06T00:00:00Z","weeks":4}`))
	h.Generate(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, repo.periods, 4)
}

func TestPayPeriodHandlerGenerateOddWeeks(t *testing.T) {
	h := NewPayPeriodHandler(service.NewPayPeriodService(&payPeriodRepoStub{}, nil, nil))

	w, c := newPayPeriodRequest(http.MethodPost, "/pay-periods/generate", []byte(`{"start_date":"2025-01-06T00:00:00Z","weeks":3}`))
	h.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
