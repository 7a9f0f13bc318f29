package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pushrelay/push-relay/internal/domain"
	"github.com/pushrelay/push-relay/internal/queue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const minWorkerConcurrency = 1

// DispatchSender is the dispatch port the worker drives; satisfied by Dispatcher.
type DispatchSender interface {
	Send(ctx context.Context, req *domain.NotificationRequest) (*domain.DispatchResult, error)
}

// Worker consumes queued dispatch requests and funnels them through the
// dispatcher. This is the fire-and-forget path: callers enqueue and move on,
// delivery outcomes surface only in logs and metrics.
type Worker struct {
	consumer    queue.Consumer
	dispatcher  DispatchSender
	logger      *zap.Logger
	concurrency int
}

func NewWorker(
	consumer queue.Consumer,
	dispatcher DispatchSender,
	concurrency int,
	logger *zap.Logger,
) (*Worker, error) {
	if consumer == nil {
		return nil, fmt.Errorf("queue consumer is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Worker{
		consumer:    consumer,
		dispatcher:  dispatcher,
		logger:      logger,
		concurrency: concurrency,
	}, nil
}

// Start consumes the dispatch queue until context cancellation.
func (w *Worker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			w.logger.Info("dispatch worker started", zap.Int("workerId", workerID))

			err := w.consumer.Consume(groupCtx, queue.DispatchQueue, w.processMessage)
			if err != nil {
				w.logger.Error("dispatch worker stopped with error",
					zap.Int("workerId", workerID),
					zap.Error(err),
				)
				return err
			}

			w.logger.Info("dispatch worker stopped", zap.Int("workerId", workerID))
			return nil
		})
	}

	return g.Wait()
}

func (w *Worker) processMessage(ctx context.Context, msg queue.DispatchMessage) error {
	req := &domain.NotificationRequest{
		CorrelationID: msg.CorrelationID,
		Title:         msg.Title,
		Body:          msg.Body,
		Tokens:        msg.Tokens,
		Data:          msg.Data,
	}

	result, err := w.dispatcher.Send(ctx, req)
	if err != nil {
		// Malformed requests can never succeed; drop instead of requeueing.
		if errors.Is(err, domain.ErrValidation) {
			w.logger.Warn("dropping invalid dispatch message",
				zap.String("messageId", msg.MessageID),
				zap.Error(err),
			)
			return nil
		}
		return fmt.Errorf("dispatch failed: %w", err)
	}

	w.logger.Info("async dispatch completed",
		zap.String("messageId", msg.MessageID),
		zap.Int("delivered", result.Delivered()),
		zap.Int("failed", result.Failed()),
	)
	return nil
}
