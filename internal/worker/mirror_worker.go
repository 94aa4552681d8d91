package worker

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/amqp"
	"ledger/internal/log"
	"ledger/internal/metrics"
	"ledger/internal/sheets"
)

// Consumer delivers expense.created messages to a handler until ctx ends.
// *amqp.Client implements it.
type Consumer interface {
	ConsumeExpenseCreated(ctx context.Context, handler amqp.Handler) error
}

// Recorder counts mirror outcomes. *metrics.Metrics implements it.
type Recorder interface {
	MirrorAppended(result string)
}

var (
	_ Consumer = (*amqp.Client)(nil)
	_ Recorder = (*metrics.Metrics)(nil)
)

// MirrorWorker copies newly created expenses into the sheets mirror.
type MirrorWorker struct {
	appender sheets.RowAppender
	recorder Recorder
	logger   *log.Logger
}

func NewMirrorWorker(appender sheets.RowAppender, recorder Recorder, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		appender: appender,
		recorder: recorder,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Run consumes until ctx is cancelled. Cancellation is a clean stop and
// returns nil.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Mirror worker started")

	err := consumer.ConsumeExpenseCreated(ctx, w.HandleExpenseCreated)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume expense.created: %w", err)
	}

	w.logger.InfoContext(ctx, "Mirror worker stopped")
	return nil
}

// HandleExpenseCreated appends the expense carried by msg. A returned error
// makes the consumer requeue the message.
func (w *MirrorWorker) HandleExpenseCreated(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	e := msg.Expense()
	fields := log.NewFields().WithOperation(log.OpAppend).WithExpense(e)

	if err := w.appender.AppendExpense(ctx, e); err != nil {
		w.record(metrics.ResultError)
		w.logger.ErrorContext(ctx, "Failed to mirror expense", fields.WithError(err).ToSlice()...)
		return err
	}

	w.record(metrics.ResultOK)
	w.logger.InfoContext(ctx, "Expense mirrored", fields.ToSlice()...)
	return nil
}

func (w *MirrorWorker) record(result string) {
	if w.recorder != nil {
		w.recorder.MirrorAppended(result)
	}
}
