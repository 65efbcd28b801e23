package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/carterlud/aibudgetplanner/models"
	"github.com/carterlud/aibudgetplanner/storage"
)

const transactionColumns = `id, card_number, start, "end", amount, vendor, budget_divider_id`

// PersistTransaction inserts or updates a single transaction.
func (s *Store) PersistTransaction(ctx context.Context, t *models.Transaction) (int64, error) {
	return persistTransaction(ctx, s.db, t)
}

// PersistTransactions persists all transactions in one database transaction.
func (s *Store) PersistTransactions(ctx context.Context, transactions []models.Transaction) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(transactions))
	for i := range transactions {
		id, err := persistTransaction(ctx, tx, &transactions[i])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return ids, nil
}

func persistTransaction(ctx context.Context, db execer, t *models.Transaction) (int64, error) {
	var divider sql.NullInt64
	if t.BudgetDividerID != nil {
		divider = sql.NullInt64{Int64: *t.BudgetDividerID, Valid: true}
	}

	if t.ID == 0 {
		res, err := db.ExecContext(ctx,
			`INSERT INTO transactions (card_number, start, "end", amount, vendor, budget_divider_id) VALUES (?, ?, ?, ?, ?, ?)`,
			t.CardNumber, t.Start.String(), t.End.String(), t.Amount, t.Vendor, divider,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to read transaction id: %w", err)
		}
		return id, nil
	}

	res, err := db.ExecContext(ctx,
		`UPDATE transactions SET card_number = ?, start = ?, "end" = ?, amount = ?, vendor = ?, budget_divider_id = ? WHERE id = ?`,
		t.CardNumber, t.Start.String(), t.End.String(), t.Amount, t.Vendor, divider, t.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("transaction %d: %w", t.ID, storage.ErrNotFound)
	}
	return t.ID, nil
}

// Transaction returns one transaction by ID.
func (s *Store) Transaction(ctx context.Context, id int64) (*models.Transaction, error) {
	found, err := queryTransactions(ctx, s.db, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	return &found[0], nil
}

// Transactions returns every stored transaction.
func (s *Store) Transactions(ctx context.Context) ([]models.Transaction, error) {
	return queryTransactions(ctx, s.db, `SELECT `+transactionColumns+` FROM transactions ORDER BY id`)
}

// TransactionsByCard returns the transactions of one card.
func (s *Store) TransactionsByCard(ctx context.Context, cardNumber string) ([]models.Transaction, error) {
	return queryTransactions(ctx, s.db,
		`SELECT `+transactionColumns+` FROM transactions WHERE card_number = ? ORDER BY id`,
		cardNumber,
	)
}

// TransactionsByCardAndRange returns the transactions of one card within [start, end].
func (s *Store) TransactionsByCardAndRange(ctx context.Context, cardNumber string, start, end civil.Date) ([]models.Transaction, error) {
	return queryTransactions(ctx, s.db,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE card_number = ? AND start BETWEEN ? AND ? AND "end" BETWEEN ? AND ?
		 ORDER BY id`,
		cardNumber, start.String(), end.String(), start.String(), end.String(),
	)
}

func queryTransactions(ctx context.Context, db execer, query string, args ...any) ([]models.Transaction, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var (
			t          models.Transaction
			start, end string
			divider    sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.CardNumber, &start, &end, &t.Amount, &t.Vendor, &divider); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if t.Start, err = civil.ParseDate(start); err != nil {
			return nil, fmt.Errorf("transaction %d start: %w", t.ID, err)
		}
		if t.End, err = civil.ParseDate(end); err != nil {
			return nil, fmt.Errorf("transaction %d end: %w", t.ID, err)
		}
		if divider.Valid {
			id := divider.Int64
			t.BudgetDividerID = &id
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}
