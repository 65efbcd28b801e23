package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterlud/aibudgetplanner/models"
	"github.com/carterlud/aibudgetplanner/storage"
)

// PersistDivider inserts or updates a budget divider.
func (s *Store) PersistDivider(ctx context.Context, d *models.Divider) (int64, error) {
	if d.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			"INSERT INTO budget_dividers (name, description, max_budget) VALUES (?, ?, ?)",
			d.Name, d.Description, d.MaxBudget,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert divider: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to read divider id: %w", err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE budget_dividers SET name = ?, description = ?, max_budget = ? WHERE id = ?",
		d.Name, d.Description, d.MaxBudget, d.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update divider: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("divider %d: %w", d.ID, storage.ErrNotFound)
	}
	return d.ID, nil
}

// Divider returns one divider by ID.
func (s *Store) Divider(ctx context.Context, id int64) (*models.Divider, error) {
	d := &models.Divider{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, max_budget FROM budget_dividers WHERE id = ?", id,
	).Scan(&d.ID, &d.Name, &d.Description, &d.MaxBudget)
	if errors.Is(err, sql.ErrNoRows) {
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
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM budget_dividers WHERE name = ? LIMIT 1", name,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
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
	if len(ids) == 0 {
		return []models.Divider{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.queryDividers(ctx,
		"SELECT id, name, description, max_budget FROM budget_dividers WHERE id IN ("+placeholders+") ORDER BY id",
		args...,
	)
}

func (s *Store) queryDividers(ctx context.Context, query string, args ...any) ([]models.Divider, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividers: %w", err)
	}
	defer rows.Close()

	dividers := []models.Divider{}
	for rows.Next() {
		var d models.Divider
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.MaxBudget); err != nil {
			return nil, fmt.Errorf("failed to scan divider: %w", err)
		}
		dividers = append(dividers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dividers: %w", err)
	}
	return dividers, nil
}
