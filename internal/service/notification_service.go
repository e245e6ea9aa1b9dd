package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	"github.com/clockwise-hq/timetrack-api/pkg/jobs"
)

// Mailer delivers a rendered notification. Implementations must be safe
// for concurrent use by the worker pool.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes notifications to the log instead of delivering them.
// Used until a real mail provider is wired in.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer constructs a log-only mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the notification payload.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("notification", zap.String("to", to), zap.String("subject", subject), zap.String("body", body))
	return nil
}

type employeeFinder interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

type emailPayload struct {
	EmployeeID string
	Subject    string
	Body       string
}

// NotificationService turns workflow events into queued notification
// jobs so transitions never block on delivery.
type NotificationService struct {
	queue     *jobs.Queue
	employees employeeFinder
	mailer    Mailer
	logger    *zap.Logger
}

// NewNotificationService wires a worker queue around the mailer.
func NewNotificationService(employees employeeFinder, mailer Mailer, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{employees: employees, mailer: mailer, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.handleEmailJob, cfg)
	return s
}

// Start launches the notification workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the notification workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// TimesheetSubmitted notifies reviewers that a timesheet awaits review.
func (s *NotificationService) TimesheetSubmitted(sheet *models.Timesheet, actor Actor) {
	s.enqueue(emailPayload{
		EmployeeID: sheet.EmployeeID,
		Subject:    "Timesheet submitted",
		Body:       fmt.Sprintf("Timesheet %s was submitted for review.", sheet.ID),
	})
}

// TimesheetApproved notifies the owner their timesheet was approved.
func (s *NotificationService) TimesheetApproved(sheet *models.Timesheet, actor Actor) {
	s.enqueue(emailPayload{
		EmployeeID: sheet.EmployeeID,
		Subject:    "Timesheet approved",
		Body:       fmt.Sprintf("Timesheet %s was approved by %s.", sheet.ID, actor.Email),
	})
}

// TimesheetRejected notifies the owner with the rejection reason.
func (s *NotificationService) TimesheetRejected(sheet *models.Timesheet, actor Actor, reason string) {
	s.enqueue(emailPayload{
		EmployeeID: sheet.EmployeeID,
		Subject:    "Timesheet rejected",
		Body:       fmt.Sprintf("Timesheet %s was rejected: %s", sheet.ID, reason),
	})
}

func (s *NotificationService) enqueue(payload emailPayload) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    "notify.email",
		Payload: payload,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue notification", zap.String("employee_id", payload.EmployeeID), zap.Error(err))
	}
}

func (s *NotificationService) handleEmailJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(emailPayload)
	if !ok {
		return fmt.Errorf("unexpected notification payload type %T", job.Payload)
	}

	emp, err := s.employees.FindByID(ctx, payload.EmployeeID)
	if err != nil {
		return fmt.Errorf("load notification recipient: %w", err)
	}
	return s.mailer.Send(ctx, emp.Email, payload.Subject, payload.Body)
}
