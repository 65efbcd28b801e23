package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/carterlud/aibudgetplanner/extractor"
	"github.com/carterlud/aibudgetplanner/metrics"
	"github.com/carterlud/aibudgetplanner/models"
	"github.com/carterlud/aibudgetplanner/queue"
	"github.com/carterlud/aibudgetplanner/statement"
)

// Importer parses statement text and persists its transactions
type Importer interface {
	Import(ctx context.Context, text string) (*statement.Result, error)
}

// Worker represents a processing node that consumes statement jobs
type Worker struct {
	ID           string
	Queue        *queue.PDFJobQueue
	Extractor    extractor.TextExtractor
	Importer     Importer
	PollInterval time.Duration
	Processing   bool
	mu           sync.Mutex
	done         chan struct{}
	logger       *slog.Logger
}

// NewWorker creates a new worker instance
func NewWorker(id string, q *queue.PDFJobQueue, ext extractor.TextExtractor, importer Importer, pollInterval time.Duration, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Worker{
		ID:           id,
		Queue:        q,
		Extractor:    ext,
		Importer:     importer,
		PollInterval: pollInterval,
		done:         make(chan struct{}),
		logger:       logger.With("worker", id),
	}
}

// Start begins processing jobs until ctx is cancelled. A job already being
// processed when ctx ends is finished first.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("worker starting")

	go func() {
		defer close(w.done)
		for {
			if ctx.Err() != nil {
				w.logger.Info("worker stopped")
				return
			}
			if !w.RunOnce(context.WithoutCancel(ctx)) {
				select {
				case <-ctx.Done():
				case <-time.After(w.PollInterval):
				}
			}
		}
	}()
}

// Done is closed once the worker loop has exited
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// IsProcessing reports whether the worker is busy with a job
func (w *Worker) IsProcessing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Processing
}

func (w *Worker) setProcessing(v bool) {
	w.mu.Lock()
	w.Processing = v
	w.mu.Unlock()
}

// RunOnce processes at most one pending job. It reports whether a job was taken.
func (w *Worker) RunOnce(ctx context.Context) bool {
	job, err := w.Queue.DequeueJob(w.ID)
	if err != nil {
		if !errors.Is(err, queue.ErrNoPendingJobs) {
			w.logger.Error("failed to dequeue job", "error", err)
		}
		return false
	}
	metrics.JobsQueued.Set(float64(w.Queue.PendingCount()))

	w.setProcessing(true)
	defer w.setProcessing(false)

	w.logger.Info("processing job", "job_id", job.ID, "file", job.FileName)

	started := time.Now()
	result, err := w.processBankStatement(ctx, job)
	transactions := 0
	if result != nil {
		transactions = len(result.Transactions)
	}
	metrics.RecordImport("job", err, transactions, time.Since(started))

	if err != nil {
		w.logger.Warn("job failed", "job_id", job.ID, "error", err)
		if ferr := w.Queue.FailJob(job.ID, err.Error()); ferr != nil {
			w.logger.Error("failed to record job failure", "job_id", job.ID, "error", ferr)
		}
		return true
	}

	ids := make([]int64, 0, len(result.Transactions))
	for _, t := range result.Transactions {
		ids = append(ids, t.ID)
	}
	jobResult := models.JobResult{
		PeriodStart:    result.Period.Start,
		PeriodEnd:      result.Period.End,
		Cards:          result.Cards,
		TransactionIDs: ids,
	}
	if err := w.Queue.CompleteJob(job.ID, jobResult); err != nil {
		w.logger.Error("failed to record job completion", "job_id", job.ID, "error", err)
		return true
	}
	w.logger.Info("job completed", "job_id", job.ID, "transactions", len(ids), "period", result.Period.String())
	return true
}

// processBankStatement extracts the statement text and imports it
func (w *Worker) processBankStatement(ctx context.Context, job *models.PDFJob) (*statement.Result, error) {
	text, err := w.Extractor.ExtractText(ctx, job.SourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	return w.Importer.Import(ctx, text)
}
