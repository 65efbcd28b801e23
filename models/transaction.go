package models

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Transaction is one card charge or credit taken from a statement.
// An ID of 0 means the transaction has not been persisted yet.
type Transaction struct {
	ID              int64      `json:"id"`
	CardNumber      string     `json:"card_number"` // last four digits
	Start           civil.Date `json:"start"`
	End             civil.Date `json:"end"`
	Amount          string     `json:"amount"` // as printed, e.g. "-$45.67"
	Vendor          string     `json:"vendor"`
	BudgetDividerID *int64     `json:"budget_divider_id,omitempty"`
}

// Value parses Amount into a decimal, dropping the currency sign.
func (t Transaction) Value() (decimal.Decimal, error) {
	raw := strings.Replace(t.Amount, "$", "", 1)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", t.Amount, err)
	}
	return d, nil
}

// Total sums the amounts of transactions.
func Total(transactions []Transaction) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range transactions {
		v, err := t.Value()
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	return total, nil
}
