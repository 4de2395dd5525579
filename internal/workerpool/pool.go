package workerpool

import (
	"context"
	"fmt"
	"time"

	"jeeforces/internal/logger"
	"jeeforces/internal/services"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RatingApplier persists decoded rating jobs.
type RatingApplier interface {
	ApplyRatingJob(ctx context.Context, job services.RatingJob) (bool, error)
}

// NewRatingHandler decodes rating jobs and applies them. Malformed messages are
// logged and dropped so they do not block the group.
func NewRatingHandler(applier RatingApplier) JobHandler {
	return func(ctx context.Context, msg redis.XMessage) error {
		job, err := services.ParseRatingJob(msg.Values)
		if err != nil {
			logger.Log.Error("Invalid rating job",
				zap.String("job_id", msg.ID),
				zap.Any("values", msg.Values),
				zap.Error(err))
			return nil
		}

		applied, err := applier.ApplyRatingJob(ctx, job)
		if err != nil {
			return err
		}
		logger.Log.Info("Rating job processed",
			zap.String("job_id", msg.ID),
			zap.String("user_id", job.UserID.Hex()),
			zap.String("contest_id", job.ContestID.Hex()),
			zap.Int("rating", job.Rating),
			zap.Bool("applied", applied))
		return nil
	}
}

type WorkerPool struct {
	workers    []*Worker
	numWorkers int
	stream     Stream
	handler    JobHandler
	retryAfter time.Duration
}

// NewWorkerPool builds numWorkers consumers of stream. Failed jobs are retried
// once they have been pending for retryAfter.
func NewWorkerPool(numWorkers int, stream Stream, handler JobHandler, retryAfter time.Duration) *WorkerPool {
	return &WorkerPool{
		workers:    make([]*Worker, 0, numWorkers),
		numWorkers: numWorkers,
		stream:     stream,
		handler:    handler,
		retryAfter: retryAfter,
	}
}

func (p *WorkerPool) Start(ctx context.Context) error {
	if err := p.stream.CreateGroup(ctx); err != nil {
		return err
	}

	// Consumer names must be unique across instances sharing the group.
	instance := uuid.NewString()[:8]
	for i := 0; i < p.numWorkers; i++ {
		worker := NewWorker(
			fmt.Sprintf("RatingWorker-%s-%d", instance, i+1),
			p.stream,
			p.handler,
			p.retryAfter,
		)

		worker.Start(ctx)
		p.workers = append(p.workers, worker)

		logger.Log.Info("Starting rating worker",
			zap.String("worker_id", worker.id))
	}

	logger.Log.Info("Rating worker pool started",
		zap.Int("num_workers", p.numWorkers),
		zap.Duration("retry_after", p.retryAfter))

	return nil
}

// Stop terminates all workers in the pool
func (p *WorkerPool) Stop() {
	for _, worker := range p.workers {
		worker.Stop()
	}
}
