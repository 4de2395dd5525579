package workerpool

import (
	"context"
	"errors"
	"time"

	"jeeforces/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// JobHandler processes one stream message. A returned error leaves the message
// pending; once it has been idle for the retry delay a worker claims it again.
type JobHandler func(ctx context.Context, msg redis.XMessage) error

const (
	readBlock  = 5 * time.Second
	claimBatch = 10
)

type Worker struct {
	id         string
	quit       chan struct{}
	done       chan struct{}
	stream     Stream
	handler    JobHandler
	retryAfter time.Duration
}

func NewWorker(id string, stream Stream, handler JobHandler, retryAfter time.Duration) *Worker {
	return &Worker{
		id:         id,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		stream:     stream,
		handler:    handler,
		retryAfter: retryAfter,
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		var lastClaim time.Time
		for {
			select {
			case <-w.quit:
				return
			case <-ctx.Done():
				return
			default:
			}

			// Claim on the first pass too, so jobs left by a crashed instance are picked up.
			if time.Since(lastClaim) >= w.retryAfter {
				lastClaim = time.Now()
				w.reclaim(ctx)
			}

			msgs, err := w.stream.Read(ctx, w.id, 1, readBlock)
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					logger.Log.Error("Redis operation failed",
						zap.String("worker_id", w.id),
						zap.Error(err))
					time.Sleep(time.Second)
				}
				continue
			}
			for _, msg := range msgs {
				w.processJob(ctx, msg)
			}
		}
	}()
}

func (w *Worker) reclaim(ctx context.Context) {
	msgs, err := w.stream.ClaimIdle(ctx, w.id, w.retryAfter, claimBatch)
	if err != nil {
		if ctx.Err() == nil {
			logger.Log.Error("Failed to claim pending jobs",
				zap.String("worker_id", w.id),
				zap.Error(err))
		}
		return
	}
	if len(msgs) > 0 {
		logger.Log.Info("Retrying pending jobs",
			zap.String("worker_id", w.id),
			zap.Int("count", len(msgs)))
	}
	for _, msg := range msgs {
		w.processJob(ctx, msg)
	}
}

func (w *Worker) processJob(ctx context.Context, msg redis.XMessage) {
	logger.Log.Info("Processing job",
		zap.String("worker_id", w.id),
		zap.String("job_id", msg.ID))

	if err := w.handler(ctx, msg); err != nil {
		logger.Log.Error("Job failed",
			zap.String("worker_id", w.id),
			zap.String("job_id", msg.ID),
			zap.Error(err))
		return
	}

	if err := w.stream.Ack(ctx, msg.ID); err != nil {
		logger.Log.Error("Failed to acknowledge job",
			zap.String("worker_id", w.id),
			zap.Error(err))
	}
}

// Stop signals the worker and waits for its current job to finish.
func (w *Worker) Stop() {
	logger.Log.Info("Closing worker",
		zap.String("worker_id", w.id))
	close(w.quit)
	<-w.done
}
