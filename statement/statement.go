// Package statement turns the text of a card statement into dated,
// card-attributed transactions.
//
// The pipeline is ExtractPeriod -> SplitByCard -> ParseLine/ResolveYear ->
// Assemble. Parse runs it without side effects; Importer also hands the
// result to a Persister.
package statement

import (
	"context"
	"log/slog"

	"github.com/carterlud/aibudgetplanner/models"
)

// Result is the outcome of parsing one statement.
type Result struct {
	Period       StatementPeriod      `json:"period"`
	Cards        []string             `json:"cards"`
	Transactions []models.Transaction `json:"transactions"`
}

// Parse runs the full pipeline over text. Nothing is returned unless the
// statement period can be established.
func Parse(text string) (*Result, error) {
	return parse(text, slog.Default())
}

func parse(text string, logger *slog.Logger) (*Result, error) {
	period, err := ExtractPeriod(text)
	if err != nil {
		return nil, err
	}

	sections := SplitByCard(text)
	transactions, err := Assemble(sections, period, logger)
	if err != nil {
		return nil, err
	}

	cards := make([]string, 0, sections.Len())
	for _, key := range sections.Keys() {
		cards = append(cards, CardSuffix(key))
	}

	return &Result{
		Period:       period,
		Cards:        cards,
		Transactions: transactions,
	}, nil
}

// Persister stores transactions, inserting those with a zero ID, and returns
// the IDs in input order.
type Persister interface {
	PersistTransactions(ctx context.Context, transactions []models.Transaction) ([]int64, error)
}

// Importer parses statements and persists the transactions they contain.
type Importer struct {
	store  Persister
	logger *slog.Logger
}

// NewImporter creates an Importer backed by store. A nil logger uses slog.Default.
func NewImporter(store Persister, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, logger: logger}
}

// Import parses text and persists its transactions in one batch. The returned
// transactions carry the IDs the store assigned.
func (i *Importer) Import(ctx context.Context, text string) (*Result, error) {
	result, err := parse(text, i.logger)
	if err != nil {
		return nil, err
	}
	if len(result.Transactions) == 0 {
		i.logger.Info("statement has no transactions", "period", result.Period.String())
		return result, nil
	}

	ids, err := i.store.PersistTransactions(ctx, result.Transactions)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	for idx := range result.Transactions {
		if idx < len(ids) {
			result.Transactions[idx].ID = ids[idx]
		}
	}

	i.logger.Info("statement imported",
		"period", result.Period.String(),
		"cards", len(result.Cards),
		"transactions", len(result.Transactions),
	)
	return result, nil
}
