package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/trainops/tmc-api/internal/models"
	"github.com/trainops/tmc-api/pkg/config"
	"github.com/trainops/tmc-api/pkg/jobs"
)

// TransitionEvent is the domain event emitted once per accepted transition.
// Delivery and formatting are the consumer's concern.
type TransitionEvent struct {
	RecordID  string                `json:"record_id"`
	FromState models.LifecycleState `json:"from_state"`
	ToState   models.LifecycleState `json:"to_state"`
	Actor     string                `json:"actor"`
}

// Notifier fans out transition events. Implementations must never block the
// review path; failures are logged, not surfaced.
type Notifier interface {
	NotifyTransition(ctx context.Context, event TransitionEvent)
}

// NotifierFunc adapts a plain function.
type NotifierFunc func(ctx context.Context, event TransitionEvent)

// NotifyTransition implements Notifier.
func (f NotifierFunc) NotifyTransition(ctx context.Context, event TransitionEvent) {
	f(ctx, event)
}

// TransitionHandler consumes one delivered event.
type TransitionHandler func(ctx context.Context, event TransitionEvent) error

// QueueNotifier dispatches transition events through the background worker
// queue so the notification channel (mail, chat, webhook) never slows down or
// fails a review submission.
type QueueNotifier struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewQueueNotifier builds the notifier with the provided delivery handler. A
// nil handler falls back to structured logging of every event.
func NewQueueNotifier(cfg config.NotifierConfig, handler TransitionHandler, logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if handler == nil {
		handler = func(ctx context.Context, event TransitionEvent) error {
			logger.Info("demo transition",
				zap.String("record_id", event.RecordID),
				zap.String("from_state", string(event.FromState)),
				zap.String("to_state", string(event.ToState)),
				zap.String("actor", event.Actor),
			)
			return nil
		}
	}

	n := &QueueNotifier{logger: logger}
	n.queue = jobs.NewQueue("demo-transitions", func(ctx context.Context, job jobs.Job) error {
		event, ok := job.Payload.(TransitionEvent)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return handler(ctx, event)
	}, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return n
}

// Start launches the worker pool.
func (n *QueueNotifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the worker pool.
func (n *QueueNotifier) Stop() {
	n.queue.Stop()
}

// NotifyTransition enqueues the event for asynchronous delivery.
func (n *QueueNotifier) NotifyTransition(ctx context.Context, event TransitionEvent) {
	job := jobs.Job{
		ID:       fmt.Sprintf("%s-%d", event.RecordID, time.Now().UnixNano()),
		Type:     "demo.transition",
		Payload:  event,
		Enqueued: time.Now().UTC(),
	}
	if err := n.queue.Enqueue(job); err != nil {
		n.logger.Warn("failed to enqueue transition event",
			zap.String("record_id", event.RecordID), zap.Error(err))
	}
}
