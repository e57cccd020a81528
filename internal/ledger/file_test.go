package ledger_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/formative-labs/readquiz/internal/ledger"
)

func rec(user, topic string, attempt int, score float64) ledger.Record {
	return ledger.Record{
		ID:          fmt.Sprintf("%s-%s-%d-%d", user, topic, attempt, time.Now().UnixNano()),
		UserID:      user,
		Topic:       topic,
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Attempt:     attempt,
		Score:       score,
		UserAnswers: map[int][]string{0: {"A"}},
		Breakdown:   map[string]any{"q0_answer": []string{"A"}, "q0_correct": []string{"A"}},
	}
}

func TestFileLedgerCountEmptyStore(t *testing.T) {
	l := ledger.NewFileLedger(t.TempDir())
	n, err := l.CountAttempts(context.Background(), "u1", "t1")
	if err != nil {
		t.Fatalf("count on missing file: %v", err)
	}
	if n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
}

func TestFileLedgerAppendThenCount(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewFileLedger(t.TempDir())

	for i := 1; i <= 2; i++ {
		if err := l.Append(ctx, rec("u1", "t1", i, 50)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		n, err := l.CountAttempts(ctx, "u1", "t1")
		if err != nil {
			t.Fatal(err)
		}
		if n != i {
			t.Fatalf("after %d appends count = %d", i, n)
		}
	}

	// Other identities stay at zero.
	for _, pair := range [][2]string{{"u2", "t1"}, {"u1", "t2"}} {
		n, err := l.CountAttempts(ctx, pair[0], pair[1])
		if err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Fatalf("count(%s,%s) = %d, want 0", pair[0], pair[1], n)
		}
	}
}

func TestFileLedgerWhitespaceInsensitiveMatch(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewFileLedger(t.TempDir())
	if err := l.Append(ctx, rec(" u1 ", "t1", 1, 100)); err != nil {
		t.Fatal(err)
	}
	n, err := l.CountAttempts(ctx, "u1", "t1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestFileLedgerSkipsMalformedLines(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	l := ledger.NewFileLedger(dir)
	if err := l.Append(ctx, rec("u1", "t1", 1, 0)); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "t1", "submissions.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{not json\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if err := l.Append(ctx, rec("u1", "t1", 2, 100)); err != nil {
		t.Fatal(err)
	}
	n, err := l.CountAttempts(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("corrupt line must not fail the read: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
}

func TestFileLedgerPerTopicFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	l := ledger.NewFileLedger(dir)
	if err := l.Append(ctx, rec("u1", "t1", 1, 0)); err != nil {
		t.Fatal(err)
	}
	if err := l.Append(ctx, rec("u1", "t2", 1, 0)); err != nil {
		t.Fatal(err)
	}
	for _, topic := range []string{"t1", "t2"} {
		if _, err := os.Stat(filepath.Join(dir, topic, "submissions.jsonl")); err != nil {
			t.Fatalf("missing per-topic log for %s: %v", topic, err)
		}
	}
}

func TestFileLedgerRejectsBadTopicName(t *testing.T) {
	l := ledger.NewFileLedger(t.TempDir())
	if err := l.Append(context.Background(), rec("u1", "../evil", 1, 0)); err == nil {
		t.Fatal("append with traversal topic must fail")
	}
}

func TestFileLedgerSnapshot(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewFileLedger(t.TempDir())
	if err := l.Append(ctx, rec("u1", "t1", 1, 40)); err != nil {
		t.Fatal(err)
	}
	if err := l.Append(ctx, rec("u2", "t2", 1, 80)); err != nil {
		t.Fatal(err)
	}
	recs, err := l.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("snapshot has %d records, want 2", len(recs))
	}
	for _, r := range recs {
		if r.UserID == "" || r.Topic == "" || r.Attempt != 1 {
			t.Fatalf("round-tripped record lost identity: %+v", r)
		}
	}
}
