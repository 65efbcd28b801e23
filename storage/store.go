// Package storage defines how transactions and budget dividers are persisted.
package storage

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"

	"github.com/carterlud/aibudgetplanner/models"
)

// ErrNotFound is returned when an update or lookup targets a row that does not exist.
var ErrNotFound = errors.New("not found")

// TransactionStore persists statement transactions.
type TransactionStore interface {
	// PersistTransaction inserts t when t.ID is 0 and updates it otherwise.
	// It returns the row ID.
	PersistTransaction(ctx context.Context, t *models.Transaction) (int64, error)

	// PersistTransactions persists every transaction inside one database
	// transaction and returns the IDs in input order.
	PersistTransactions(ctx context.Context, transactions []models.Transaction) ([]int64, error)

	// Transaction returns the transaction with the given ID or ErrNotFound.
	Transaction(ctx context.Context, id int64) (*models.Transaction, error)

	// Transactions returns all stored transactions ordered by ID.
	Transactions(ctx context.Context) ([]models.Transaction, error)

	// TransactionsByCard returns the transactions of one card suffix.
	TransactionsByCard(ctx context.Context, cardNumber string) ([]models.Transaction, error)

	// TransactionsByCardAndRange returns the transactions of one card whose
	// start and end dates both fall within [start, end].
	TransactionsByCardAndRange(ctx context.Context, cardNumber string, start, end civil.Date) ([]models.Transaction, error)
}

// DividerStore persists budget dividers.
type DividerStore interface {
	// PersistDivider inserts d when d.ID is 0 and updates it otherwise.
	PersistDivider(ctx context.Context, d *models.Divider) (int64, error)

	// Divider returns the divider with the given ID or ErrNotFound.
	Divider(ctx context.Context, id int64) (*models.Divider, error)

	// DividerIDByName returns the ID of the divider called name, if any.
	DividerIDByName(ctx context.Context, name string) (int64, bool, error)

	// Dividers returns all dividers ordered by ID.
	Dividers(ctx context.Context) ([]models.Divider, error)

	// DividersByIDs returns the dividers whose IDs are listed.
	DividersByIDs(ctx context.Context, ids []int64) ([]models.Divider, error)
}

// Store is the full persistence backend.
type Store interface {
	TransactionStore
	DividerStore

	// Close releases any resources held by the store.
	Close() error
}
