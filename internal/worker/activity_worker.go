package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"chapterhub/internal/amqp"
	"chapterhub/internal/cache"
)

const (
	seenMessages   = 4096
	seenMessageTTL = time.Hour
	stopTimeout    = 30 * time.Second
)

// Consumer delivers task status messages until ctx ends. *amqp.Client
// satisfies it.
type Consumer interface {
	RunConsumer(ctx context.Context, handler amqp.TaskStatusHandler) error
}

// Exporter is a background loop started and stopped with the worker.
type Exporter interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ActivityWorker consumes task activity and writes notifications. It can
// also run the periodic budget export alongside the consumer.
type ActivityWorker struct {
	consumer Consumer
	handle   amqp.TaskStatusHandler
	exporter Exporter
	logger   *slog.Logger

	// Redelivered messages that were already handled are acknowledged
	// without creating a second notification.
	seen *cache.LRUCache[struct{}]
}

// NewActivityWorker wires a consumer to handle. exporter may be nil.
func NewActivityWorker(consumer Consumer, handle amqp.TaskStatusHandler, exporter Exporter, logger *slog.Logger) *ActivityWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityWorker{
		consumer: consumer,
		handle:   handle,
		exporter: exporter,
		logger:   logger,
		seen:     cache.NewLRUCache[struct{}](seenMessages, seenMessageTTL),
	}
}

// HandleTaskStatusChanged runs the handler once per message id. A handler
// error leaves the id unrecorded so the requeued delivery is retried.
func (w *ActivityWorker) HandleTaskStatusChanged(ctx context.Context, msg *amqp.TaskStatusChangedMessage) error {
	if msg.MessageID != "" {
		if _, dup := w.seen.Get(msg.MessageID); dup {
			w.logger.InfoContext(ctx, "Skipping duplicate task status message",
				"message_id", msg.MessageID,
				"task_id", msg.TaskID)
			return nil
		}
	}

	if err := w.handle(ctx, msg); err != nil {
		return err
	}

	if msg.MessageID != "" {
		w.seen.Set(msg.MessageID, struct{}{})
	}
	return nil
}

// Run blocks until ctx is cancelled or the consumer fails for good. The
// exporter, when set, is stopped before Run returns.
func (w *ActivityWorker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if w.exporter != nil {
		if err := w.exporter.Start(gctx); err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
			defer cancel()
			return w.exporter.Stop(stopCtx)
		})
	}

	g.Go(func() error {
		return w.consumer.RunConsumer(gctx, w.HandleTaskStatusChanged)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		w.logger.Info("Activity worker stopped")
		return nil
	}
	return err
}
