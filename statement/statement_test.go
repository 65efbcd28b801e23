package statement

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/carterlud/aibudgetplanner/models"
)

const sampleStatement = `ACME BANK VISA
Account summary
STATEMENT PERIOD: Dec 20, 2023 to Jan 19, 2024
DEC 21 DEC 21 $99.99 BEFORE ANY CARD
1234 56XX XXXX 7890
TRANS POST AMOUNT DESCRIPTION
DEC 22 DEC 23-$45.67NETFLIX
DEC 28 DEC 29 $12.00 GROCER
9876 54XX XXXX 3210
JAN 5 JAN 6 $3.50 BUS
1234 56XX XXXX 7890
JAN 10 JAN 11 -$20.00 REFUND
Page 2 of 2
`

func TestParseEndToEnd(t *testing.T) {
	text := "STATEMENT PERIOD: Dec 20, 2023 to Jan 19, 2024\n" +
		"1234 56XX XXXX 7890\n" +
		"DEC 22 DEC 23-$45.67NETFLIX\n"

	result, err := Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(result.Transactions))
	}

	want := models.Transaction{
		CardNumber: "7890",
		Start:      civil.Date{Year: 2023, Month: time.December, Day: 22},
		End:        civil.Date{Year: 2023, Month: time.December, Day: 23},
		Amount:     "-$45.67",
		Vendor:     "NETFLIX",
	}
	if !reflect.DeepEqual(result.Transactions[0], want) {
		t.Errorf("got %+v, want %+v", result.Transactions[0], want)
	}
}

func TestParseOrderingAndPeriodInvariant(t *testing.T) {
	result, err := Parse(sampleStatement)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(result.Cards, []string{"7890", "3210"}) {
		t.Errorf("cards: got %v", result.Cards)
	}

	var vendors []string
	for _, txn := range result.Transactions {
		vendors = append(vendors, txn.Vendor)
		if txn.End.Before(txn.Start) {
			t.Errorf("%s: end %s before start %s", txn.Vendor, txn.End, txn.Start)
		}
		if !result.Period.Contains(txn.Start) || !result.Period.Contains(txn.End) {
			t.Errorf("%s: %s..%s outside %s", txn.Vendor, txn.Start, txn.End, result.Period)
		}
	}
	wantVendors := []string{"NETFLIX", " GROCER", " REFUND", " BUS"}
	if !reflect.DeepEqual(vendors, wantVendors) {
		t.Errorf("vendors: got %q, want %q", vendors, wantVendors)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	first, err := Parse(sampleStatement)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Parse(sampleStatement)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("parsing the same text twice gave different results")
	}
}

func TestParseWithoutCards(t *testing.T) {
	result, err := Parse("STATEMENT PERIOD: Mar 1, 2024 to Mar 31, 2024\nMAR 15 MAR 16 $1.00 X\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Transactions) != 0 || len(result.Cards) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestParseMissingPeriod(t *testing.T) {
	_, err := Parse("1234 56XX XXXX 7890\nDEC 22 DEC 23-$45.67NETFLIX\n")
	if !errors.Is(err, ErrMissingStatementPeriod) {
		t.Errorf("got %v, want ErrMissingStatementPeriod", err)
	}
}

type fakePersister struct {
	calls  int
	got    []models.Transaction
	nextID int64
	err    error
}

func (f *fakePersister) PersistTransactions(ctx context.Context, transactions []models.Transaction) ([]int64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.got = append(f.got, transactions...)
	ids := make([]int64, len(transactions))
	for i := range transactions {
		f.nextID++
		ids[i] = f.nextID
	}
	return ids, nil
}

func TestImporterAssignsIDs(t *testing.T) {
	store := &fakePersister{nextID: 100}
	result, err := NewImporter(store, nil).Import(context.Background(), sampleStatement)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.calls != 1 {
		t.Errorf("persist called %d times, want 1", store.calls)
	}
	for i, txn := range result.Transactions {
		if want := int64(101 + i); txn.ID != want {
			t.Errorf("[%d] ID = %d, want %d", i, txn.ID, want)
		}
		if store.got[i].ID != 0 {
			t.Errorf("[%d] store received ID %d, want 0", i, store.got[i].ID)
		}
	}
}

func TestImporterPersistenceError(t *testing.T) {
	storeErr := errors.New("disk full")
	store := &fakePersister{err: storeErr}

	_, err := NewImporter(store, nil).Import(context.Background(), sampleStatement)
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("got %v, want *PersistenceError", err)
	}
	if !errors.Is(err, storeErr) {
		t.Error("persistence error does not unwrap to the store error")
	}
}

func TestImporterDoesNotPersistUnparsableStatement(t *testing.T) {
	store := &fakePersister{}
	_, err := NewImporter(store, nil).Import(context.Background(), "1234 56XX XXXX 7890\nDEC 22 DEC 23 $1.00 X")
	if !errors.Is(err, ErrMissingStatementPeriod) {
		t.Fatalf("got %v, want ErrMissingStatementPeriod", err)
	}
	if store.calls != 0 {
		t.Errorf("persist called %d times, want 0", store.calls)
	}
}
