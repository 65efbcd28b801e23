package budget

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/carterlud/aibudgetplanner/models"
	"github.com/carterlud/aibudgetplanner/storage/sqlite"
)

func newTestService(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "budget.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewService(store, nil, nil), store
}

func TestUpsertDivider(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.UpsertDivider(ctx, "Groceries", "food", 400)
	if err != nil {
		t.Fatalf("UpsertDivider failed: %v", err)
	}
	updated, err := svc.UpsertDivider(ctx, " Groceries ", "food and drink", 500)
	if err != nil {
		t.Fatalf("UpsertDivider failed: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("update created a new divider: %d != %d", updated.ID, created.ID)
	}

	all, err := svc.Dividers(ctx)
	if err != nil {
		t.Fatalf("Dividers failed: %v", err)
	}
	if len(all) != 1 || all[0].MaxBudget != 500 || all[0].Description != "food and drink" {
		t.Errorf("got %+v", all)
	}

	tests := []struct {
		name      string
		divider   string
		maxBudget int
	}{
		{"empty name", "  ", 10},
		{"negative budget", "Rent", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.UpsertDivider(ctx, tt.divider, "", tt.maxBudget); !errors.Is(err, ErrInvalidDivider) {
				t.Errorf("got %v, want ErrInvalidDivider", err)
			}
		})
	}
}

func TestLookupDividerID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, found, err := svc.LookupDividerID(ctx, "Travel"); err != nil || found {
		t.Fatalf("got found=%v err=%v for missing divider", found, err)
	}

	d, err := svc.UpsertDivider(ctx, "Travel", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	id, found, err := svc.LookupDividerID(ctx, "Travel")
	if err != nil || !found || id != d.ID {
		t.Errorf("got id=%d found=%v err=%v, want %d", id, found, err, d.ID)
	}
}

func TestAssignDivider(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	ids, err := store.PersistTransactions(ctx, []models.Transaction{
		{CardNumber: "7890", Start: civil.Date{Year: 2024, Month: time.January, Day: 2}, End: civil.Date{Year: 2024, Month: time.January, Day: 3}, Amount: "$9.99", Vendor: "NETFLIX"},
	})
	if err != nil {
		t.Fatal(err)
	}
	d, err := svc.UpsertDivider(ctx, "Streaming", "", 20)
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.AssignDivider(ctx, ids[0], "Streaming")
	if err != nil {
		t.Fatalf("AssignDivider failed: %v", err)
	}
	if got.BudgetDividerID == nil || *got.BudgetDividerID != d.ID {
		t.Errorf("divider not assigned: %+v", got)
	}

	stored, _ := store.Transaction(ctx, ids[0])
	if stored.BudgetDividerID == nil || *stored.BudgetDividerID != d.ID {
		t.Errorf("divider not persisted: %+v", stored)
	}

	if _, err := svc.AssignDivider(ctx, ids[0], "Nope"); !errors.Is(err, ErrUnknownDivider) {
		t.Errorf("got %v, want ErrUnknownDivider", err)
	}
}

func TestEnrichRange(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	day := func(m time.Month, d int) civil.Date { return civil.Date{Year: 2024, Month: m, Day: d} }
	_, err := store.PersistTransactions(ctx, []models.Transaction{
		{CardNumber: "7890", Start: day(time.January, 2), End: day(time.January, 2), Amount: "$9.99", Vendor: "NETFLIX"},
		{CardNumber: "7890", Start: day(time.January, 5), End: day(time.January, 6), Amount: "$52.10", Vendor: "SAFEWAY"},
		{CardNumber: "7890", Start: day(time.March, 1), End: day(time.March, 1), Amount: "$9.99", Vendor: "NETFLIX"},
		{CardNumber: "3210", Start: day(time.January, 3), End: day(time.January, 3), Amount: "$9.99", Vendor: "NETFLIX"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpsertDivider(ctx, "Streaming", "", 20); err != nil {
		t.Fatal(err)
	}

	assign := func(t models.Transaction) (string, bool) {
		if strings.Contains(t.Vendor, "NETFLIX") {
			return "Streaming", true
		}
		return "", false
	}
	updated, err := svc.EnrichRange(ctx, "7890", day(time.January, 1), day(time.January, 31), assign)
	if err != nil {
		t.Fatalf("EnrichRange failed: %v", err)
	}
	if len(updated) != 1 || updated[0].Vendor != "NETFLIX" {
		t.Fatalf("got %+v", updated)
	}

	all, _ := store.Transactions(ctx)
	labeled := 0
	for _, tx := range all {
		if tx.BudgetDividerID != nil {
			labeled++
		}
	}
	if labeled != 1 {
		t.Errorf("got %d labeled transactions, want 1", labeled)
	}

	unknown := func(models.Transaction) (string, bool) { return "Missing", true }
	if _, err := svc.EnrichRange(ctx, "7890", day(time.January, 1), day(time.January, 31), unknown); !errors.Is(err, ErrUnknownDivider) {
		t.Errorf("got %v, want ErrUnknownDivider", err)
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *DividerCache
	ctx := context.Background()
	c.Set(ctx, "x", 1)
	c.Forget(ctx, "x")
	if _, ok := c.Get(ctx, "x"); ok {
		t.Error("nil cache returned a hit")
	}
	if _, ok := NewDividerCache(nil, time.Minute).Get(ctx, "x"); ok {
		t.Error("cache without client returned a hit")
	}
}
