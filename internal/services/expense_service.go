package services

import (
	"context"
	"log/slog"

	"ledger/internal/core"
	"ledger/internal/metrics"
	"ledger/internal/ports"
)

// EventPublisher announces stored expenses to downstream consumers.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, e core.Expense) error
}

// Recorder receives create and publish outcomes. *metrics.Metrics implements it.
type Recorder interface {
	ExpenseCreated()
	EventPublished(result string)
}

// Invalidator is told whenever a write may have changed cached reads.
type Invalidator interface {
	Invalidate()
}

// ExpenseService persists expenses and then publishes an expense.created
// event. Publishing is best effort: once the row is committed the create
// succeeds regardless of the broker.
type ExpenseService struct {
	writer      ports.ExpenseWriter
	publisher   EventPublisher
	invalidator Invalidator
	recorder    Recorder
	logger      *slog.Logger
}

// Option configures optional collaborators of ExpenseService.
type Option func(*ExpenseService)

func WithPublisher(p EventPublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

func WithInvalidator(i Invalidator) Option {
	return func(s *ExpenseService) { s.invalidator = i }
}

func WithRecorder(r Recorder) Option {
	return func(s *ExpenseService) { s.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *ExpenseService) { s.logger = l }
}

func NewExpenseService(writer ports.ExpenseWriter, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		writer:   writer,
		recorder: nopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateExpense implements ports.ExpenseWriter
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	id, err := s.writer.CreateExpense(ctx, e)
	if err != nil {
		return 0, err
	}
	e.ID = id

	s.recorder.ExpenseCreated()
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}

	// The row is committed; a client disconnect must not drop the event.
	s.publish(context.WithoutCancel(ctx), e)

	return id, nil
}

func (s *ExpenseService) publish(ctx context.Context, e core.Expense) {
	if s.publisher == nil {
		s.recorder.EventPublished(metrics.ResultSkipped)
		return
	}

	if err := s.publisher.PublishExpenseCreated(ctx, e); err != nil {
		s.recorder.EventPublished(metrics.ResultError)
		s.logger.ErrorContext(ctx, "Failed to publish expense.created",
			"component", "expense",
			"expense_id", e.ID,
			"error", err)
		return
	}
	s.recorder.EventPublished(metrics.ResultOK)
}

type nopRecorder struct{}

func (nopRecorder) ExpenseCreated()       {}
func (nopRecorder) EventPublished(string) {}

var _ Recorder = (*metrics.Metrics)(nil)
