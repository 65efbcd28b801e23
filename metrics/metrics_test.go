package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/carterlud/aibudgetplanner/extractor"
	"github.com/carterlud/aibudgetplanner/statement"
)

func TestResultFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, ResultImported},
		{"persist", &statement.PersistenceError{Err: errors.New("disk full")}, ResultPersistError},
		{"extract", fmt.Errorf("file.pdf: %w", extractor.ErrNoText), ResultExtractError},
		{"parse", statement.ErrMissingStatementPeriod, ResultParseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResultFor(tt.err); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecordImport(t *testing.T) {
	before := testutil.ToFloat64(TransactionsParsed)
	RecordImport("test", nil, 3, time.Millisecond)
	RecordImport("test", statement.ErrInvalidDate, 5, time.Millisecond)

	if got := testutil.ToFloat64(TransactionsParsed) - before; got != 3 {
		t.Errorf("got %v parsed transactions, want 3", got)
	}
	if got := testutil.ToFloat64(StatementsProcessed.WithLabelValues("test", ResultParseError)); got != 1 {
		t.Errorf("got %v parse errors, want 1", got)
	}
}
