// Package worker hosts the background side of the ledger: it consumes
// rollover-refresh messages and runs the scheduled daily close-out that
// persists ending rollovers for finished days.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"perdiem/internal/amqp"
	"perdiem/internal/log"
)

// RefreshConsumer delivers rollover refresh messages until the context is
// cancelled.
type RefreshConsumer interface {
	ConsumeRolloverRefresh(ctx context.Context, handler func(*amqp.RolloverRefreshMessage) error) error
}

// Refresher recomputes closed-day balances.
type Refresher interface {
	RefreshUser(ctx context.Context, userID string) error
	CloseOutAll(ctx context.Context) error
}

type Worker struct {
	consumer  RefreshConsumer
	refresher Refresher
	schedule  string
	logger    *log.Logger

	// closeOutTimeout bounds a single scheduled pass.
	closeOutTimeout time.Duration
}

func New(consumer RefreshConsumer, refresher Refresher, schedule string, logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Worker{
		consumer:        consumer,
		refresher:       refresher,
		schedule:        schedule,
		logger:          logger.WithComponent(log.ComponentWorker),
		closeOutTimeout: 10 * time.Minute,
	}
}

// RunConsumer blocks consuming refresh messages until ctx is cancelled.
// Each message triggers a full recompute for its user; the from_date is
// informational since the walk always restarts at the budget start.
func (w *Worker) RunConsumer(ctx context.Context) error {
	if w.consumer == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return w.consumer.ConsumeRolloverRefresh(ctx, func(msg *amqp.RolloverRefreshMessage) error {
		w.logger.InfoContext(ctx, "Refresh requested",
			log.FieldUserID, msg.UserID,
			log.FieldDate, msg.FromDate,
			log.FieldOperation, log.OpRefresh)
		return w.refresher.RefreshUser(ctx, msg.UserID)
	})
}

// RunScheduler runs the periodic close-out on the configured cron schedule
// until ctx is cancelled.
func (w *Worker) RunScheduler(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(w.schedule, func() {
		passCtx, cancel := context.WithTimeout(ctx, w.closeOutTimeout)
		defer cancel()

		w.logger.InfoContext(passCtx, "Close-out pass starting", log.FieldOperation, log.OpCloseDay)
		if err := w.refresher.CloseOutAll(passCtx); err != nil {
			w.logger.ErrorContext(passCtx, "Close-out pass failed", log.FieldError, err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule close-out (%q): %w", w.schedule, err)
	}

	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		w.logger.Warn("Close-out pass did not finish before shutdown deadline")
	}
	return ctx.Err()
}
