package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/config"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/metrics"
)

const defaultRetryBackoff = 250 * time.Millisecond

// Handler reacts to one decoded outbox row. Handlers must be idempotent: the
// dispatcher replays rows whose MarkPublished update was lost.
type Handler func(ctx context.Context, event models.OutboxEvent) error

type outboxRepository interface {
	FetchUnpublished(limit int) ([]models.OutboxEvent, error)
	MarkPublished(id int64) error
	MarkFailed(id int64, err error) error
}

// Params bundle the dependencies required to build a Dispatcher.
type Params struct {
	Repo    outboxRepository
	Logger  *logger.Logger
	Metrics *metrics.PaymentMetrics
	Config  config.OutboxConfig
}

// Dispatcher drains outbox_events and fans each row out to its registered
// handler, retrying transient failures before marking the row failed.
type Dispatcher struct {
	repo         outboxRepository
	logg         *logger.Logger
	metrics      *metrics.PaymentMetrics
	handlers     map[enums.OutboxEventType][]Handler
	batchSize    int
	pollInterval time.Duration
	maxAttempts  int
	backoff      time.Duration
}

// New constructs a Dispatcher with no handlers registered.
func New(params Params) (*Dispatcher, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("outbox repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	batchSize := params.Config.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	pollInterval := time.Duration(params.Config.PollIntervalMS) * time.Millisecond
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	maxAttempts := params.Config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Dispatcher{
		repo:         params.Repo,
		logg:         params.Logger,
		metrics:      params.Metrics,
		handlers:     make(map[enums.OutboxEventType][]Handler),
		batchSize:    batchSize,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		backoff:      defaultRetryBackoff,
	}, nil
}

// Register appends a handler for the given event type.
func (d *Dispatcher) Register(eventType enums.OutboxEventType, handler Handler) {
	if handler == nil {
		return
	}
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// Run polls the outbox until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		if _, err := d.RunOnce(ctx); err != nil {
			d.logg.Error(ctx, "outbox dispatch pass failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce drains at most one batch and returns how many rows were published.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	rows, err := d.repo.FetchUnpublished(d.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch unpublished events: %w", err)
	}

	published := 0
	var errs []error
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := d.dispatch(ctx, row); err != nil {
			errs = append(errs, fmt.Errorf("event %d (%s): %w", row.ID, row.EventType, err))
			continue
		}
		published++
	}
	return published, multierr.Combine(errs...)
}

func (d *Dispatcher) dispatch(ctx context.Context, row models.OutboxEvent) error {
	handlers := d.handlers[row.EventType]
	if len(handlers) == 0 {
		// Nothing consumes this event type yet; mark it published so the
		// backlog does not grow unbounded.
		d.logg.Warn(ctx, fmt.Sprintf("no handler for outbox event type %q, skipping row %d", row.EventType, row.ID))
		return d.repo.MarkPublished(row.ID)
	}

	backoff := retry.WithMaxRetries(uint64(d.maxAttempts-1), retry.NewConstant(d.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var handlerErrs []error
		for _, handler := range handlers {
			if err := handler(ctx, row); err != nil {
				handlerErrs = append(handlerErrs, err)
			}
		}
		if combined := multierr.Combine(handlerErrs...); combined != nil {
			return retry.RetryableError(combined)
		}
		return nil
	})
	if err != nil {
		d.metrics.IncDispatchFailure(string(row.EventType))
		if markErr := d.repo.MarkFailed(row.ID, err); markErr != nil {
			return multierr.Append(err, markErr)
		}
		return err
	}

	if err := d.repo.MarkPublished(row.ID); err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	d.metrics.IncDispatchSuccess(string(row.EventType))
	fields := map[string]any{
		"event_id":   row.ID,
		"event_type": row.EventType,
	}
	d.logg.Info(d.logg.WithFields(ctx, fields), "outbox event dispatched")
	return nil
}
