package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carterlud/aibudgetplanner/models"
)

// ErrNoPendingJobs is returned by DequeueJob when the queue is empty.
var ErrNoPendingJobs = errors.New("no pending jobs available")

// ErrJobNotFound is returned for an unknown job ID.
var ErrJobNotFound = errors.New("job not found")

// PDFJobQueue manages the queue of uploaded statements waiting to be imported
type PDFJobQueue struct {
	mu             sync.RWMutex
	pendingJobs    []*models.PDFJob
	processingJobs map[string]*models.PDFJob
	completedJobs  map[string]*models.PDFJob
	failedJobs     map[string]*models.PDFJob
	jobsByID       map[string]*models.PDFJob
	dataDir        string
	jobUpdateChan  chan *models.PDFJob
	logger         *slog.Logger
}

// NewPDFJobQueue creates a queue that persists job state as JSON under dataDir
func NewPDFJobQueue(dataDir string, logger *slog.Logger) (*PDFJobQueue, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PDFJobQueue{
		pendingJobs:    make([]*models.PDFJob, 0),
		processingJobs: make(map[string]*models.PDFJob),
		completedJobs:  make(map[string]*models.PDFJob),
		failedJobs:     make(map[string]*models.PDFJob),
		jobsByID:       make(map[string]*models.PDFJob),
		dataDir:        dataDir,
		jobUpdateChan:  make(chan *models.PDFJob, 100),
		logger:         logger,
	}, nil
}

// EnqueueJob adds an uploaded statement to the queue
func (q *PDFJobQueue) EnqueueJob(sourceFile, fileName string) (*models.PDFJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if fileName == "" {
		fileName = filepath.Base(sourceFile)
	}
	now := time.Now()
	job := &models.PDFJob{
		ID:         uuid.New().String(),
		SourceFile: sourceFile,
		FileName:   fileName,
		Status:     models.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// On disk before any worker can see it
	if err := q.persistJob(job); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}
	q.pendingJobs = append(q.pendingJobs, job)
	q.jobsByID[job.ID] = job
	q.notify(job)

	q.logger.Info("job enqueued", "job_id", job.ID, "file", fileName)
	return job.Clone(), nil
}

// DequeueJob gets the next pending job and marks it as processing
func (q *PDFJobQueue) DequeueJob(workerID string) (*models.PDFJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pendingJobs) == 0 {
		return nil, ErrNoPendingJobs
	}

	// FIFO
	job := q.pendingJobs[0]
	q.pendingJobs = q.pendingJobs[1:]

	now := time.Now()
	job.Status = models.StatusProcessing
	job.StartedAt = now
	job.UpdatedAt = now
	job.ProcessingNode = workerID
	q.processingJobs[job.ID] = job

	if err := q.persistJob(job); err != nil {
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}
	q.notify(job)

	return job.Clone(), nil
}

// CompleteJob marks a job as completed and records what was imported
func (q *PDFJobQueue) CompleteJob(jobID string, result models.JobResult) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, exists := q.processingJobs[jobID]
	if !exists {
		return fmt.Errorf("job %s not in processing queue: %w", jobID, ErrJobNotFound)
	}

	now := time.Now()
	job.Status = models.StatusCompleted
	job.CompletedAt = now
	job.UpdatedAt = now
	job.PeriodStart = &result.PeriodStart
	job.PeriodEnd = &result.PeriodEnd
	job.Cards = result.Cards
	job.TransactionIDs = result.TransactionIDs

	delete(q.processingJobs, jobID)
	q.completedJobs[jobID] = job
	q.notify(job)

	return q.persistJob(job)
}

// FailJob marks a job as failed
func (q *PDFJobQueue) FailJob(jobID string, errorMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, exists := q.processingJobs[jobID]
	if !exists {
		return fmt.Errorf("job %s not in processing queue: %w", jobID, ErrJobNotFound)
	}

	now := time.Now()
	job.Status = models.StatusFailed
	job.ErrorMessage = errorMsg
	job.CompletedAt = now
	job.UpdatedAt = now

	delete(q.processingJobs, jobID)
	q.failedJobs[jobID] = job
	q.notify(job)

	return q.persistJob(job)
}

// notify publishes a snapshot of job without blocking the caller.
// Must be called with q.mu held.
func (q *PDFJobQueue) notify(job *models.PDFJob) {
	select {
	case q.jobUpdateChan <- job.Clone():
	default:
		q.logger.Warn("job update dropped, channel full", "job_id", job.ID, "status", job.Status)
	}
}

// GetJob retrieves a job by ID
func (q *PDFJobQueue) GetJob(jobID string) (*models.PDFJob, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	job, exists := q.jobsByID[jobID]
	if !exists {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrJobNotFound)
	}

	return job.Clone(), nil
}

// persistJob saves job data to disk
func (q *PDFJobQueue) persistJob(job *models.PDFJob) error {
	jobPath := filepath.Join(q.dataDir, job.ID+".json")

	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal job data: %w", err)
	}

	if err := os.WriteFile(jobPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write job file: %w", err)
	}

	return nil
}

// LoadJobs loads all persisted jobs from disk. Jobs that were processing when
// the service stopped go back to the pending queue.
func (q *PDFJobQueue) LoadJobs() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	files, err := os.ReadDir(q.dataDir)
	if err != nil {
		return fmt.Errorf("failed to read data directory: %w", err)
	}

	var pending []*models.PDFJob
	for _, file := range files {
		if filepath.Ext(file.Name()) != ".json" {
			continue
		}

		jobPath := filepath.Join(q.dataDir, file.Name())
		data, err := os.ReadFile(jobPath)
		if err != nil {
			q.logger.Warn("failed to read job file", "path", jobPath, "error", err)
			continue
		}

		job := &models.PDFJob{}
		if err := json.Unmarshal(data, job); err != nil {
			q.logger.Warn("failed to unmarshal job data", "path", jobPath, "error", err)
			continue
		}
		if _, seen := q.jobsByID[job.ID]; seen {
			continue
		}

		q.jobsByID[job.ID] = job

		switch job.Status {
		case models.StatusPending:
			pending = append(pending, job)
		case models.StatusProcessing:
			job.Status = models.StatusPending
			job.ProcessingNode = ""
			pending = append(pending, job)
		case models.StatusCompleted:
			q.completedJobs[job.ID] = job
		case models.StatusFailed:
			q.failedJobs[job.ID] = job
		}
	}

	// Directory order is by name, which is a random uuid; restore FIFO by creation time
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	q.pendingJobs = append(q.pendingJobs, pending...)

	q.logger.Info("loaded jobs from disk", "jobs", len(q.jobsByID), "pending", len(q.pendingJobs))
	return nil
}

// PendingCount returns the number of jobs waiting for a worker
func (q *PDFJobQueue) PendingCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.pendingJobs)
}

// GetPendingJobs returns a copy of the pending jobs in queue order
func (q *PDFJobQueue) GetPendingJobs() []*models.PDFJob {
	q.mu.RLock()
	defer q.mu.RUnlock()

	jobs := make([]*models.PDFJob, 0, len(q.pendingJobs))
	for _, job := range q.pendingJobs {
		jobs = append(jobs, job.Clone())
	}
	return jobs
}

// GetProcessingJobs returns a copy of the processing jobs
func (q *PDFJobQueue) GetProcessingJobs() []*models.PDFJob {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return snapshot(q.processingJobs)
}

// GetCompletedJobs returns a copy of the completed jobs
func (q *PDFJobQueue) GetCompletedJobs() []*models.PDFJob {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return snapshot(q.completedJobs)
}

// GetFailedJobs returns a copy of the failed jobs
func (q *PDFJobQueue) GetFailedJobs() []*models.PDFJob {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return snapshot(q.failedJobs)
}

// GetAllJobs returns a copy of all jobs
func (q *PDFJobQueue) GetAllJobs() []*models.PDFJob {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return snapshot(q.jobsByID)
}

// snapshot copies jobs ordered by creation time.
func snapshot(m map[string]*models.PDFJob) []*models.PDFJob {
	jobs := make([]*models.PDFJob, 0, len(m))
	for _, job := range m {
		jobs = append(jobs, job.Clone())
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs
}

// GetJobUpdateChannel returns the job update channel
func (q *PDFJobQueue) GetJobUpdateChannel() <-chan *models.PDFJob {
	return q.jobUpdateChan
}
