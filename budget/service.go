// Package budget manages budget dividers and attaches them to transactions.
package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/carterlud/aibudgetplanner/models"
	"github.com/carterlud/aibudgetplanner/storage"
)

var (
	// ErrInvalidDivider is returned for a divider without a name or with a negative budget.
	ErrInvalidDivider = errors.New("invalid divider")
	// ErrUnknownDivider is returned when a divider name has no stored divider.
	ErrUnknownDivider = errors.New("unknown divider")
)

// Store is the persistence the service needs.
type Store interface {
	storage.TransactionStore
	storage.DividerStore
}

// Service creates dividers and assigns them to stored transactions.
type Service struct {
	store  Store
	cache  *DividerCache
	logger *slog.Logger
}

// NewService creates a Service. cache may be nil.
func NewService(store Store, cache *DividerCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: cache, logger: logger}
}

// UpsertDivider creates the divider called name, or updates it when one
// already exists.
func (s *Service) UpsertDivider(ctx context.Context, name, description string, maxBudget int) (*models.Divider, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDivider)
	}
	if maxBudget < 0 {
		return nil, fmt.Errorf("%w: max budget %d is negative", ErrInvalidDivider, maxBudget)
	}

	d := &models.Divider{Name: name, Description: description, MaxBudget: maxBudget}
	id, found, err := s.LookupDividerID(ctx, name)
	if err != nil {
		return nil, err
	}
	if found {
		d.ID = id
	}

	id, err = s.store.PersistDivider(ctx, d)
	if errors.Is(err, storage.ErrNotFound) {
		// stale cache entry; the divider was removed behind our back
		s.cache.Forget(ctx, name)
		d.ID = 0
		id, err = s.store.PersistDivider(ctx, d)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to persist divider %q: %w", name, err)
	}
	d.ID = id
	s.cache.Set(ctx, name, id)

	s.logger.Info("divider saved", "name", name, "id", id, "updated", found)
	return d, nil
}

// LookupDividerID returns the id of the divider called name, if any.
func (s *Service) LookupDividerID(ctx context.Context, name string) (int64, bool, error) {
	if id, ok := s.cache.Get(ctx, name); ok {
		return id, true, nil
	}
	id, found, err := s.store.DividerIDByName(ctx, name)
	if err != nil {
		return 0, false, err
	}
	if found {
		s.cache.Set(ctx, name, id)
	}
	return id, found, nil
}

// Dividers lists every divider.
func (s *Service) Dividers(ctx context.Context) ([]models.Divider, error) {
	return s.store.Dividers(ctx)
}

// AssignDivider attaches the divider called dividerName to a stored transaction.
func (s *Service) AssignDivider(ctx context.Context, transactionID int64, dividerName string) (*models.Transaction, error) {
	dividerID, err := s.requireDivider(ctx, dividerName)
	if err != nil {
		return nil, err
	}

	t, err := s.store.Transaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	t.BudgetDividerID = &dividerID
	if _, err := s.store.PersistTransaction(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// AssignFunc picks a divider name for a transaction. Returning false leaves
// the transaction untouched.
type AssignFunc func(t models.Transaction) (dividerName string, ok bool)

// EnrichRange runs assign over the transactions of card within [start, end]
// and re-persists those it labels, all in one batch.
func (s *Service) EnrichRange(ctx context.Context, card string, start, end civil.Date, assign AssignFunc) ([]models.Transaction, error) {
	found, err := s.store.TransactionsByCardAndRange(ctx, card, start, end)
	if err != nil {
		return nil, err
	}

	updated := make([]models.Transaction, 0, len(found))
	for _, t := range found {
		name, ok := assign(t)
		if !ok {
			continue
		}
		dividerID, err := s.requireDivider(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		t.BudgetDividerID = &dividerID
		updated = append(updated, t)
	}
	if len(updated) == 0 {
		return updated, nil
	}

	if _, err := s.store.PersistTransactions(ctx, updated); err != nil {
		return nil, err
	}
	s.logger.Info("transactions enriched", "card", card, "start", start.String(), "end", end.String(), "updated", len(updated))
	return updated, nil
}

func (s *Service) requireDivider(ctx context.Context, name string) (int64, error) {
	id, found, err := s.LookupDividerID(ctx, name)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDivider, name)
	}
	return id, nil
}
