package ledger_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"

	"github.com/formative-labs/readquiz/internal/ledger"
)

// fakeSheets emulates the small slice of the Sheets values API the ledger
// uses: Get for the header probe and the count scan, Update for the header
// row, and append for data rows.
type fakeSheets struct {
	mu         sync.Mutex
	header     []interface{}
	rows       [][]interface{}
	failGets   int // fail this many GETs with a 400 before recovering
	headerPuts int
	appends    int
}

func (f *fakeSheets) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		path, _ := url.PathUnescape(r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			if f.failGets > 0 {
				f.failGets--
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":{"code":400,"message":"transient outage","status":"INVALID_ARGUMENT"}}`)
				return
			}
			resp := map[string]interface{}{"range": path}
			if strings.Contains(path, "A1:F1") {
				if f.header != nil {
					resp["values"] = [][]interface{}{f.header}
				}
			} else if len(f.rows) > 0 {
				resp["values"] = f.rows
			}
			_ = json.NewEncoder(w).Encode(resp)
		case http.MethodPut:
			f.headerPuts++
			var vr struct {
				Values [][]interface{} `json:"values"`
			}
			_ = json.NewDecoder(r.Body).Decode(&vr)
			if len(vr.Values) > 0 {
				f.header = vr.Values[0]
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{})
		case http.MethodPost:
			f.appends++
			var vr struct {
				Values [][]interface{} `json:"values"`
			}
			_ = json.NewDecoder(r.Body).Decode(&vr)
			f.rows = append(f.rows, vr.Values...)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{})
		default:
			http.NotFound(w, r)
		}
	})
}

func newSheetsFixture(t *testing.T, f *fakeSheets) *ledger.SheetsLedger {
	t.Helper()
	ts := httptest.NewServer(f.handler())
	t.Cleanup(ts.Close)
	l, err := ledger.NewSheetsLedger(context.Background(), "", "sheet-1", "Submissions",
		option.WithEndpoint(ts.URL), option.WithHTTPClient(ts.Client()))
	if err != nil {
		t.Fatalf("new sheets ledger: %v", err)
	}
	return l
}

func TestSheetsLedgerAppendWritesHeaderOnce(t *testing.T) {
	ctx := context.Background()
	f := &fakeSheets{}
	l := newSheetsFixture(t, f)

	for i := 1; i <= 2; i++ {
		if err := l.Append(ctx, rec("u1", "t1", i, 50)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headerPuts != 1 {
		t.Fatalf("header written %d times, want 1", f.headerPuts)
	}
	if f.appends != 2 {
		t.Fatalf("appends = %d, want 2", f.appends)
	}
	if got, _ := f.header[0].(string); got != "User ID" {
		t.Fatalf("header[0] = %q, want \"User ID\"", got)
	}
}

func TestSheetsLedgerHeaderSkippedWhenPresent(t *testing.T) {
	f := &fakeSheets{header: []interface{}{"User ID", "Attempt", "Topic", "Score", "Timestamp", "User Answers"}}
	l := newSheetsFixture(t, f)

	if err := l.Append(context.Background(), rec("u1", "t1", 1, 100)); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headerPuts != 0 {
		t.Fatalf("header rewritten %d times on a populated sheet", f.headerPuts)
	}
}

func TestSheetsLedgerHeaderRetriesAfterFailure(t *testing.T) {
	ctx := context.Background()
	f := &fakeSheets{failGets: 1}
	l := newSheetsFixture(t, f)

	err := l.Append(ctx, rec("u1", "t1", 1, 50))
	if err == nil {
		t.Fatal("append during outage succeeded")
	}
	if !strings.Contains(err.Error(), "transient outage") {
		t.Fatalf("append error = %v, want remote cause surfaced", err)
	}

	// The remote recovered. The header check must run again instead of
	// replaying the cached failure.
	if err := l.Append(ctx, rec("u1", "t1", 1, 50)); err != nil {
		t.Fatalf("append after recovery: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headerPuts != 1 {
		t.Fatalf("header written %d times after recovery, want 1", f.headerPuts)
	}
	if f.appends != 1 {
		t.Fatalf("appends = %d, want 1", f.appends)
	}
}

func TestSheetsLedgerCountAttempts(t *testing.T) {
	ctx := context.Background()
	f := &fakeSheets{rows: [][]interface{}{
		{"u1", 1, "t1", 50, "2026-03-01T12:00:00Z", "{}"},
		{" u1 ", 2, "t1 ", 0, "2026-03-01T12:05:00Z", "{}"}, // trims still match
		{"u2", 1, "t1", 100, "2026-03-01T12:06:00Z", "{}"},
		{"u1", 1, "t2", 100, "2026-03-01T12:07:00Z", "{}"},
		{"short"}, // malformed row is skipped
	}}
	l := newSheetsFixture(t, f)

	for _, tc := range []struct {
		user, topic string
		want        int
	}{
		{"u1", "t1", 2},
		{"u2", "t1", 1},
		{"u1", "t2", 1},
		{"u3", "t1", 0},
	} {
		n, err := l.CountAttempts(ctx, tc.user, tc.topic)
		if err != nil {
			t.Fatalf("count(%s,%s): %v", tc.user, tc.topic, err)
		}
		if n != tc.want {
			t.Fatalf("count(%s,%s) = %d, want %d", tc.user, tc.topic, n, tc.want)
		}
	}
}

func TestSheetsLedgerCountErrorPropagates(t *testing.T) {
	f := &fakeSheets{failGets: 1}
	l := newSheetsFixture(t, f)

	// An outage must never read as "no prior attempts".
	if _, err := l.CountAttempts(context.Background(), "u1", "t1"); err == nil {
		t.Fatal("count during outage returned nil error")
	}
}

func TestSheetsLedgerRowLayout(t *testing.T) {
	f := &fakeSheets{}
	l := newSheetsFixture(t, f)

	if err := l.Append(context.Background(), rec("u1", "t1", 1, 62.5)); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(f.rows))
	}
	row := f.rows[0]
	if len(row) != 6 {
		t.Fatalf("row has %d cells, want 6", len(row))
	}
	if u, _ := row[0].(string); u != "u1" {
		t.Fatalf("row[0] = %v, want u1", row[0])
	}
	if tp, _ := row[2].(string); tp != "t1" {
		t.Fatalf("row[2] = %v, want t1", row[2])
	}
	if ts, _ := row[4].(string); ts != "2026-03-01T12:00:00Z" {
		t.Fatalf("row[4] = %v, want RFC3339 timestamp", row[4])
	}
	answers, _ := row[5].(string)
	var decoded map[int][]string
	if err := json.Unmarshal([]byte(answers), &decoded); err != nil {
		t.Fatalf("row[5] not JSON: %v", err)
	}
	if got := decoded[0]; len(got) != 1 || got[0] != "A" {
		t.Fatalf("row[5] answers = %v", decoded)
	}
}
