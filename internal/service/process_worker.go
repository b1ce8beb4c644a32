package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
	appErrors "github.com/noah-isme/siapptn-tryout-api/pkg/errors"
	"github.com/noah-isme/siapptn-tryout-api/pkg/jobs"
)

// ProcessJobType tags queued ranking runs.
const ProcessJobType = "ranking.process"

type processRequest struct {
	TryoutID    string
	RequestedBy string
}

type rankingProcessor interface {
	Process(ctx context.Context, tryoutID string) (*models.ProcessResult, error)
}

// ProcessWorker runs ranking jobs on a background queue.
type ProcessWorker struct {
	processor rankingProcessor
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
	newID     func() string
}

// NewProcessWorker builds the worker and its queue. Call Start before Submit.
func NewProcessWorker(processor rankingProcessor, cfg jobs.QueueConfig, metrics *MetricsService, logger *zap.Logger) *ProcessWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &ProcessWorker{
		processor: processor,
		metrics:   metrics,
		logger:    logger,
		newID:     func() string { return uuid.NewString() },
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	w.queue = jobs.NewQueue("ranking", w.handle, cfg)
	return w
}

// Start launches the queue workers; they stop when ctx is cancelled or Stop is called.
func (w *ProcessWorker) Start(ctx context.Context) {
	w.queue.Start(ctx)
}

// Stop waits for in-flight jobs to return.
func (w *ProcessWorker) Stop() {
	w.queue.Stop()
}

// Submit queues a ranking run for the tryout and returns the job id. requestedBy is
// the operator subject when auth is enabled and may be empty.
func (w *ProcessWorker) Submit(ctx context.Context, tryoutID, requestedBy string) (string, error) {
	id := w.newID()
	err := w.queue.Enqueue(jobs.Job{ID: id, Type: ProcessJobType, Payload: processRequest{TryoutID: tryoutID, RequestedBy: requestedBy}})
	if err != nil {
		w.logger.Warn("ranking job rejected", zap.String("tryout_id", tryoutID), zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrQueueRejected.Code, appErrors.ErrQueueRejected.Status, appErrors.ErrQueueRejected.Message)
	}
	w.metrics.IncJobsEnqueued()
	w.logger.Info("ranking job queued", zap.String("job_id", id), zap.String("tryout_id", tryoutID), zap.String("requested_by", requestedBy))
	return id, nil
}

// Status reports the progress of a submitted job.
func (w *ProcessWorker) Status(jobID string) (*jobs.State, error) {
	st, ok := w.queue.State(jobID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	return &st, nil
}

func (w *ProcessWorker) handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(processRequest)
	if !ok || req.TryoutID == "" {
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	result, err := w.processor.Process(ctx, req.TryoutID)
	if err != nil {
		return err
	}
	w.logger.Info("ranking job finished",
		zap.String("job_id", job.ID),
		zap.String("tryout_id", req.TryoutID),
		zap.String("requested_by", req.RequestedBy),
		zap.Int("ranked", result.Ranked),
	)
	return nil
}
