package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carterlud/aibudgetplanner/budget"
	"github.com/carterlud/aibudgetplanner/extractor"
	"github.com/carterlud/aibudgetplanner/metrics"
	"github.com/carterlud/aibudgetplanner/models"
	"github.com/carterlud/aibudgetplanner/queue"
	"github.com/carterlud/aibudgetplanner/statement"
	"github.com/carterlud/aibudgetplanner/storage"
	"github.com/carterlud/aibudgetplanner/worker"
)

// Options configures a Server
type Options struct {
	HTTPAddr       string
	UploadDir      string
	MaxUploadBytes int64
	NumWorkers     int
	PollInterval   time.Duration
}

// Server handles HTTP requests for statement imports, jobs and budgets
type Server struct {
	queue      *queue.PDFJobQueue
	workers    []*worker.Worker
	store      storage.Store
	budget     *budget.Service
	extractor  extractor.TextExtractor
	importer   *statement.Importer
	opts       Options
	wsManager  *models.WebSocketManager
	upgrader   websocket.Upgrader
	httpServer *http.Server
	updatesWG  sync.WaitGroup
	logger     *slog.Logger
}

// NewServer creates a new server instance
func NewServer(q *queue.PDFJobQueue, store storage.Store, budgetSvc *budget.Service, ext extractor.TextExtractor, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.UploadDir == "" {
		opts.UploadDir = ".uploads"
	}

	importer := statement.NewImporter(store, logger)
	s := &Server{
		queue:     q,
		store:     store,
		budget:    budgetSvc,
		extractor: ext,
		importer:  importer,
		opts:      opts,
		workers:   make([]*worker.Worker, opts.NumWorkers),
		wsManager: models.NewWebSocketManager(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}

	for i := 0; i < opts.NumWorkers; i++ {
		workerID := fmt.Sprintf("worker-%d", i+1)
		s.workers[i] = worker.NewWorker(workerID, q, ext, importer, opts.PollInterval, logger)
	}

	return s
}

// corsMiddleware allows the browser frontend to call the API from any origin
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/upload_statement", corsMiddleware(http.HandlerFunc(s.handleUploadStatement)))
	mux.Handle("/jobs", corsMiddleware(http.HandlerFunc(s.handleJobs)))
	mux.Handle("/jobs/", corsMiddleware(http.HandlerFunc(s.handleJobDetails)))
	mux.Handle("/upload_divider", corsMiddleware(http.HandlerFunc(s.handleUploadDivider)))
	mux.Handle("/assign_divider", corsMiddleware(http.HandlerFunc(s.handleAssignDivider)))
	mux.Handle("/dividers", corsMiddleware(http.HandlerFunc(s.handleDividers)))
	mux.Handle("/transactions", corsMiddleware(http.HandlerFunc(s.handleTransactions)))
	mux.Handle("/ws", http.HandlerFunc(s.handleWebSocket))
	mux.Handle("/health", http.HandlerFunc(s.handleHealth))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// Start runs the HTTP listener, the job update fan-out and the workers.
// Everything stops when ctx is cancelled; call Shutdown to wait for it.
func (s *Server) Start(ctx context.Context) error {
	s.wsManager.Start()

	s.updatesWG.Add(1)
	go s.forwardJobUpdates(ctx)

	for _, w := range s.workers {
		w.Start(ctx)
	}

	s.httpServer = &http.Server{
		Addr:              s.opts.HTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.opts.HTTPAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Surface bind failures to the caller
	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Shutdown stops the HTTP server and waits for workers to finish their
// current job. ctx must already be cancelled for the workers to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	for _, w := range s.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.updatesWG.Wait()
	s.wsManager.Stop()
	return err
}

// forwardJobUpdates drains the queue's update channel into websocket broadcasts
func (s *Server) forwardJobUpdates(ctx context.Context) {
	defer s.updatesWG.Done()
	updates := s.queue.GetJobUpdateChannel()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-updates:
			metrics.JobsQueued.Set(float64(s.queue.PendingCount()))
			s.wsManager.BroadcastJobUpdate(job)
		}
	}
}
