package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/carterlud/aibudgetplanner/extractor"
	"github.com/carterlud/aibudgetplanner/models"
	"github.com/carterlud/aibudgetplanner/queue"
	"github.com/carterlud/aibudgetplanner/statement"
	"github.com/carterlud/aibudgetplanner/storage/sqlite"
)

const statementText = `STATEMENT PERIOD: Dec 20, 2023 to Jan 19, 2024
1234 56XX XXXX 7890
DEC 22 DEC 23 -$45.67 NETFLIX
JAN 3 JAN 4 $12.00 GROCER
`

type fixture struct {
	dir    string
	queue  *queue.PDFJobQueue
	store  *sqlite.Store
	worker *Worker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	q, err := queue.NewPDFJobQueue(filepath.Join(dir, "jobs"), nil)
	if err != nil {
		t.Fatal(err)
	}
	store, err := sqlite.New(filepath.Join(dir, "budget.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	w := NewWorker("worker-1", q, extractor.New(nil), statement.NewImporter(store, nil), 10*time.Millisecond, nil)
	return &fixture{dir: dir, queue: q, store: store, worker: w}
}

func (f *fixture) enqueue(t *testing.T, name, content string) *models.PDFJob {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	job, err := f.queue.EnqueueJob(path, name)
	if err != nil {
		t.Fatal(err)
	}
	return job
}

func TestRunOnceCompletesJob(t *testing.T) {
	f := newFixture(t)
	job := f.enqueue(t, "statement.txt", statementText)

	if !f.worker.RunOnce(context.Background()) {
		t.Fatal("RunOnce did not take the job")
	}

	done, err := f.queue.GetJob(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != models.StatusCompleted {
		t.Fatalf("got status %s (%s), want completed", done.Status, done.ErrorMessage)
	}
	if len(done.TransactionIDs) != 2 || len(done.Cards) != 1 || done.Cards[0] != "7890" {
		t.Errorf("unexpected result: %+v", done)
	}
	if done.PeriodStart.String() != "2023-12-20" || done.PeriodEnd.String() != "2024-01-19" {
		t.Errorf("got period %s..%s", done.PeriodStart, done.PeriodEnd)
	}

	stored, _ := f.store.Transactions(context.Background())
	if len(stored) != 2 || stored[1].Start.Year != 2024 {
		t.Errorf("stored transactions: %+v", stored)
	}
	if f.worker.IsProcessing() {
		t.Error("worker still marked processing")
	}
}

func TestRunOnceFailsUnparsableStatement(t *testing.T) {
	f := newFixture(t)
	job := f.enqueue(t, "statement.txt", "1234 56XX XXXX 7890\nDEC 22 DEC 23 $1.00 X\n")

	f.worker.RunOnce(context.Background())

	failed, _ := f.queue.GetJob(job.ID)
	if failed.Status != models.StatusFailed || failed.ErrorMessage == "" {
		t.Errorf("got %+v, want failed job with message", failed)
	}
	stored, _ := f.store.Transactions(context.Background())
	if len(stored) != 0 {
		t.Errorf("persisted %d transactions from a failed statement", len(stored))
	}
}

func TestRunOnceEmptyQueue(t *testing.T) {
	f := newFixture(t)
	if f.worker.RunOnce(context.Background()) {
		t.Error("RunOnce reported work on an empty queue")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	job := f.enqueue(t, "statement.txt", statementText)

	ctx, cancel := context.WithCancel(context.Background())
	f.worker.Start(ctx)

	deadline := time.After(5 * time.Second)
	for {
		got, _ := f.queue.GetJob(job.ID)
		if got.Status == models.StatusCompleted {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job not completed, status %s", got.Status)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-f.worker.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
