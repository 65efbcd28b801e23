// Package postgres provides a PostgreSQL implementation of storage.Store on pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carterlud/aibudgetplanner/models"
	"github.com/carterlud/aibudgetplanner/storage"
)

var _ storage.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS budget_dividers (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL UNIQUE,
    description VARCHAR(255) NOT NULL DEFAULT '',
    max_budget INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    card_number VARCHAR(4) NOT NULL CHECK (length(card_number) = 4),
    start DATE NOT NULL,
    "end" DATE NOT NULL,
    amount VARCHAR(20) NOT NULL,
    vendor VARCHAR(255) NOT NULL,
    budget_divider_id BIGINT REFERENCES budget_dividers(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_card_number ON transactions(card_number);
`

const transactionColumns = `id, card_number, start, "end", amount, vendor, budget_divider_id`

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements storage.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and ensures the schema exists.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func toTime(d civil.Date) time.Time {
	return d.In(time.UTC)
}

// PersistTransaction inserts or updates a single transaction.
func (s *Store) PersistTransaction(ctx context.Context, t *models.Transaction) (int64, error) {
	return persistTransaction(ctx, s.pool, t)
}

// PersistTransactions persists all transactions in one database transaction.
func (s *Store) PersistTransactions(ctx context.Context, transactions []models.Transaction) ([]int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ids := make([]int64, 0, len(transactions))
	for i := range transactions {
		id, err := persistTransaction(ctx, tx, &transactions[i])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return ids, nil
}

func persistTransaction(ctx context.Context, q querier, t *models.Transaction) (int64, error) {
	if t.ID == 0 {
		var id int64
		err := q.QueryRow(ctx,
			`INSERT INTO transactions (card_number, start, "end", amount, vendor, budget_divider_id)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			t.CardNumber, toTime(t.Start), toTime(t.End), t.Amount, t.Vendor, t.BudgetDividerID,
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction: %w", err)
		}
		return id, nil
	}

	tag, err := q.Exec(ctx,
		`UPDATE transactions SET card_number = $1, start = $2, "end" = $3, amount = $4, vendor = $5, budget_divider_id = $6
		 WHERE id = $7`,
		t.CardNumber, toTime(t.Start), toTime(t.End), t.Amount, t.Vendor, t.BudgetDividerID, t.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("transaction %d: %w", t.ID, storage.ErrNotFound)
	}
	return t.ID, nil
}

// Transaction returns one transaction by ID.
func (s *Store) Transaction(ctx context.Context, id int64) (*models.Transaction, error) {
	found, err := queryTransactions(ctx, s.pool, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
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
	return queryTransactions(ctx, s.pool, `SELECT `+transactionColumns+` FROM transactions ORDER BY id`)
}

// TransactionsByCard returns the transactions of one card.
func (s *Store) TransactionsByCard(ctx context.Context, cardNumber string) ([]models.Transaction, error) {
	return queryTransactions(ctx, s.pool,
		`SELECT `+transactionColumns+` FROM transactions WHERE card_number = $1 ORDER BY id`,
		cardNumber,
	)
}

// TransactionsByCardAndRange returns the transactions of one card within [start, end].
func (s *Store) TransactionsByCardAndRange(ctx context.Context, cardNumber string, start, end civil.Date) ([]models.Transaction, error) {
	return queryTransactions(ctx, s.pool,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE card_number = $1 AND start BETWEEN $2 AND $3 AND "end" BETWEEN $2 AND $3
		 ORDER BY id`,
		cardNumber, toTime(start), toTime(end),
	)
}

func queryTransactions(ctx context.Context, q querier, sql string, args ...any) ([]models.Transaction, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var (
			t          models.Transaction
			start, end time.Time
		)
		if err := rows.Scan(&t.ID, &t.CardNumber, &start, &end, &t.Amount, &t.Vendor, &t.BudgetDividerID); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Start = civil.DateOf(start)
		t.End = civil.DateOf(end)
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

// PersistDivider inserts or updates a budget divider.
func (s *Store) PersistDivider(ctx context.Context, d *models.Divider) (int64, error) {
	if d.ID == 0 {
		var id int64
		err := s.pool.QueryRow(ctx,
			"INSERT INTO budget_dividers (name, description, max_budget) VALUES ($1, $2, $3) RETURNING id",
			d.Name, d.Description, d.MaxBudget,
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to insert divider: %w", err)
		}
		return id, nil
	}

	tag, err := s.pool.Exec(ctx,
		"UPDATE budget_dividers SET name = $1, description = $2, max_budget = $3 WHERE id = $4",
		d.Name, d.Description, d.MaxBudget, d.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update divider: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("divider %d: %w", d.ID, storage.ErrNotFound)
	}
	return d.ID, nil
}

// Divider returns one divider by ID.
func (s *Store) Divider(ctx context.Context, id int64) (*models.Divider, error) {
	d := &models.Divider{}
	err := s.pool.QueryRow(ctx,
		"SELECT id, name, description, max_budget FROM budget_dividers WHERE id = $1", id,
	).Scan(&d.ID, &d.Name, &d.Description, &d.MaxBudget)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("divider %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get divider: %w", err)
	}
	return d, nil
}

// DividerIDByName looks up a divider ID by its name.
func (s *Store) DividerIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx, "SELECT id FROM budget_dividers WHERE name = $1 LIMIT 1", name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up divider: %w", err)
	}
	return id, true, nil
}

// Dividers returns all dividers.
func (s *Store) Dividers(ctx context.Context) ([]models.Divider, error) {
	return s.queryDividers(ctx, "SELECT id, name, description, max_budget FROM budget_dividers ORDER BY id")
}

// DividersByIDs returns the dividers with the given IDs.
func (s *Store) DividersByIDs(ctx context.Context, ids []int64) ([]models.Divider, error) {
	return s.queryDividers(ctx,
		"SELECT id, name, description, max_budget FROM budget_dividers WHERE id = ANY($1) ORDER BY id",
		ids,
	)
}

func (s *Store) queryDividers(ctx context.Context, sql string, args ...any) ([]models.Divider, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividers: %w", err)
	}
	dividers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Divider, error) {
		var d models.Divider
		err := row.Scan(&d.ID, &d.Name, &d.Description, &d.MaxBudget)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan dividers: %w", err)
	}
	return dividers, nil
}
