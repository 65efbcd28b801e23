// Package metrics holds the prometheus collectors for statement imports.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/carterlud/aibudgetplanner/extractor"
	"github.com/carterlud/aibudgetplanner/statement"
)

// Import outcomes used as the "result" label.
const (
	ResultImported     = "imported"
	ResultParseError   = "parse_error"
	ResultPersistError = "persist_error"
	ResultExtractError = "extract_error"
)

var (
	StatementsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statements_processed_total",
		Help: "Statements processed, by source and result.",
	}, []string{"source", "result"})

	TransactionsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_parsed_total",
		Help: "Transactions parsed out of imported statements.",
	})

	ImportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "statement_import_duration_seconds",
		Help:    "Time spent extracting, parsing and persisting one statement.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	JobsQueued = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "statement_jobs_pending",
		Help: "Statement jobs waiting for a worker.",
	})
)

// ResultFor maps an import error to its result label.
func ResultFor(err error) string {
	var persistErr *statement.PersistenceError
	switch {
	case err == nil:
		return ResultImported
	case errors.As(err, &persistErr):
		return ResultPersistError
	case errors.Is(err, extractor.ErrNoText):
		return ResultExtractError
	default:
		return ResultParseError
	}
}

// RecordImport updates the import collectors for one statement.
func RecordImport(source string, err error, transactions int, elapsed time.Duration) {
	StatementsProcessed.WithLabelValues(source, ResultFor(err)).Inc()
	ImportDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if err == nil {
		TransactionsParsed.Add(float64(transactions))
	}
}
