package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/carterlud/aibudgetplanner/budget"
	"github.com/carterlud/aibudgetplanner/extractor"
	"github.com/carterlud/aibudgetplanner/metrics"
	"github.com/carterlud/aibudgetplanner/models"
	"github.com/carterlud/aibudgetplanner/queue"
	"github.com/carterlud/aibudgetplanner/statement"
	"github.com/carterlud/aibudgetplanner/storage"
)

// uploadFields are the multipart field names accepted for a statement file
var uploadFields = []string{"file", "pdfFile"}

// statementResponse is returned by a synchronous statement upload
type statementResponse struct {
	Period       statement.StatementPeriod `json:"period"`
	Cards        []string                  `json:"cards"`
	Transactions []models.Transaction      `json:"transactions"`
	Total        string                    `json:"total"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// saveUpload stores the uploaded statement under the upload directory and
// returns its path and original file name.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request) (string, string, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", "", http.StatusRequestEntityTooLarge, errors.New("file too large")
		}
		return "", "", http.StatusBadRequest, errors.New("invalid multipart form")
	}

	var (
		file   multipart.File
		header *multipart.FileHeader
		err    error
	)
	for _, field := range uploadFields {
		file, header, err = r.FormFile(field)
		if err == nil {
			break
		}
	}
	if err != nil {
		return "", "", http.StatusBadRequest, errors.New("missing statement file")
	}
	defer file.Close()

	if err := os.MkdirAll(s.opts.UploadDir, 0755); err != nil {
		return "", "", http.StatusInternalServerError, fmt.Errorf("failed to create upload directory: %w", err)
	}

	fileName := filepath.Base(header.Filename)
	filePath := filepath.Join(s.opts.UploadDir, uuid.NewString()+"_"+fileName)
	dst, err := os.Create(filePath)
	if err != nil {
		return "", "", http.StatusInternalServerError, fmt.Errorf("failed to save file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(filePath)
		return "", "", http.StatusInternalServerError, fmt.Errorf("failed to save file data: %w", err)
	}
	return filePath, fileName, http.StatusOK, nil
}

// importStatus maps an import failure to an HTTP status
func importStatus(err error) int {
	var persistErr *statement.PersistenceError
	switch {
	case errors.As(err, &persistErr):
		return http.StatusInternalServerError
	case errors.Is(err, extractor.ErrNoText),
		errors.Is(err, statement.ErrMissingStatementPeriod),
		errors.Is(err, statement.ErrAmbiguousStatementPeriod),
		errors.Is(err, statement.ErrInvalidPeriod),
		errors.Is(err, statement.ErrInvalidDate),
		errors.Is(err, statement.ErrDateOutsidePeriod):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// handleUploadStatement imports a statement synchronously
func (s *Server) handleUploadStatement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filePath, fileName, status, err := s.saveUpload(w, r)
	if err != nil {
		s.logger.Warn("statement upload rejected", "error", err)
		http.Error(w, err.Error(), status)
		return
	}
	defer os.Remove(filePath)

	started := time.Now()
	result, err := s.importFile(r, filePath)
	transactions := 0
	if result != nil {
		transactions = len(result.Transactions)
	}
	metrics.RecordImport("upload", err, transactions, time.Since(started))
	if err != nil {
		s.logger.Warn("statement import failed", "file", fileName, "error", err)
		http.Error(w, err.Error(), importStatus(err))
		return
	}

	total, err := models.Total(result.Transactions)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, statementResponse{
		Period:       result.Period,
		Cards:        result.Cards,
		Transactions: result.Transactions,
		Total:        total.StringFixed(2),
	})
}

func (s *Server) importFile(r *http.Request, filePath string) (*statement.Result, error) {
	text, err := s.extractor.ExtractText(r.Context(), filePath)
	if err != nil {
		return nil, err
	}
	return s.importer.Import(r.Context(), text)
}

// handleJobs handles HTTP requests for job listing and creation
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		filePath, fileName, status, err := s.saveUpload(w, r)
		if err != nil {
			http.Error(w, err.Error(), status)
			return
		}

		job, err := s.queue.EnqueueJob(filePath, fileName)
		if err != nil {
			s.logger.Error("failed to enqueue job", "file", fileName, "error", err)
			http.Error(w, "Failed to enqueue job", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, job)
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" {
		var jobs []*models.PDFJob

		switch models.JobStatus(status) {
		case models.StatusPending:
			jobs = s.queue.GetPendingJobs()
		case models.StatusProcessing:
			jobs = s.queue.GetProcessingJobs()
		case models.StatusCompleted:
			jobs = s.queue.GetCompletedJobs()
		case models.StatusFailed:
			jobs = s.queue.GetFailedJobs()
		default:
			http.Error(w, "Invalid status parameter", http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, jobs)
		return
	}

	writeJSON(w, http.StatusOK, s.queue.GetAllJobs())
}

// handleJobDetails handles HTTP requests for specific jobs
func (s *Server) handleJobDetails(w http.ResponseWriter, r *http.Request) {
	jobID := filepath.Base(r.URL.Path)

	job, err := s.queue.GetJob(jobID)
	if errors.Is(err, queue.ErrJobNotFound) {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// handleUploadDivider creates or updates a budget divider by name
func (s *Server) handleUploadDivider(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	maxBudget := 0
	if raw := strings.TrimSpace(r.FormValue("max_budget")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "max_budget must be an integer", http.StatusBadRequest)
			return
		}
		maxBudget = n
	}

	d, err := s.budget.UpsertDivider(r.Context(), r.FormValue("name"), r.FormValue("description"), maxBudget)
	if errors.Is(err, budget.ErrInvalidDivider) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.logger.Error("failed to save divider", "error", err)
		http.Error(w, "Failed to save divider", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleDividers lists budget dividers
func (s *Server) handleDividers(w http.ResponseWriter, r *http.Request) {
	dividers, err := s.budget.Dividers(r.Context())
	if err != nil {
		s.logger.Error("failed to list dividers", "error", err)
		http.Error(w, "Failed to list dividers", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dividers)
}

// handleAssignDivider attaches a divider to one stored transaction
func (s *Server) handleAssignDivider(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	transactionID, err := strconv.ParseInt(r.FormValue("transaction_id"), 10, 64)
	if err != nil {
		http.Error(w, "transaction_id must be an integer", http.StatusBadRequest)
		return
	}

	t, err := s.budget.AssignDivider(r.Context(), transactionID, r.FormValue("divider"))
	if errors.Is(err, budget.ErrUnknownDivider) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), storeErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleTransactions lists stored transactions, optionally by card and date range
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	card := query.Get("card")
	start, end := query.Get("start"), query.Get("end")

	var (
		transactions []models.Transaction
		err          error
	)
	switch {
	case card == "" && (start != "" || end != ""):
		http.Error(w, "card is required with a date range", http.StatusBadRequest)
		return
	case card == "":
		transactions, err = s.store.Transactions(r.Context())
	case start == "" && end == "":
		transactions, err = s.store.TransactionsByCard(r.Context(), card)
	default:
		from, ferr := civil.ParseDate(start)
		to, terr := civil.ParseDate(end)
		if ferr != nil || terr != nil {
			http.Error(w, "start and end must both be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		transactions, err = s.store.TransactionsByCardAndRange(r.Context(), card, from, to)
	}
	if err != nil {
		s.logger.Error("failed to query transactions", "card", card, "error", err)
		http.Error(w, "Failed to query transactions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	busy := 0
	for _, wk := range s.workers {
		if wk.IsProcessing() {
			busy++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"workers":           len(s.workers),
		"busy_workers":      busy,
		"pending_jobs":      s.queue.PendingCount(),
		"websocket_clients": s.wsManager.ClientCount(),
	})
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade to websocket", "error", err)
		return
	}

	// Written before registering so it never races a broadcast on the same conn
	initialData, err := json.Marshal(map[string]any{
		"type": "initial_jobs",
		"jobs": s.queue.GetAllJobs(),
	})
	if err == nil {
		conn.WriteMessage(websocket.TextMessage, initialData)
	}

	s.wsManager.RegisterClient(conn)

	// Client messages are ignored; reading detects disconnects
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.wsManager.UnregisterClient(conn)
				return
			}
		}
	}()
}

// storeErrorStatus maps storage lookups to HTTP statuses
func storeErrorStatus(err error) int {
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
