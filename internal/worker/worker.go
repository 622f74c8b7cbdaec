package worker

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tsukisama9292/judgemicro/internal/judge"
	"github.com/tsukisama9292/judgemicro/internal/metrics"
	"github.com/tsukisama9292/judgemicro/internal/queue"
)

// Worker drains the submission queue into the orchestrator.
type Worker struct {
	id      int
	judge   *judge.Judge
	manager *queue.Manager
	logger  *zerolog.Logger
}

func NewWorker(id int, j *judge.Judge, manager *queue.Manager, logger *zerolog.Logger) *Worker {
	return &Worker{
		id:      id,
		judge:   j,
		manager: manager,
		logger:  logger,
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.logger.Info().Int("worker_id", w.id).Msg("worker started")
	for {
		select {
		case job := <-w.manager.NextJob():
			metrics.ActiveWorkers.Inc()
			w.processJob(job)
			w.manager.UpdateQueueMetric()
			metrics.ActiveWorkers.Dec()
		case <-ctx.Done():
			w.logger.Info().Int("worker_id", w.id).Msg("worker stopping")
			return
		}
	}
}

func (w *Worker) processJob(job *queue.Job) {
	w.logger.Info().Int("worker_id", w.id).Str("job_id", job.ID).Msg("processing job")

	verdict, err := w.judge.Evaluate(job.Ctx, job.Submission)
	if err != nil {
		// the only error path is caller cancellation
		job.Err <- err
		return
	}
	job.Result <- verdict
}
