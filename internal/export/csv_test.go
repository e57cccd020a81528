package export_test

import (
	"strings"
	"testing"
	"time"

	"github.com/formative-labs/readquiz/internal/export"
	"github.com/formative-labs/readquiz/internal/ledger"
)

func TestWriteAttemptsCSV(t *testing.T) {
	recs := []ledger.Record{
		{UserID: "+201", Topic: "ai", Attempt: 1, Score: 60, Timestamp: time.Now()},
		{UserID: "+201", Topic: "ai", Attempt: 2, Score: 80, Timestamp: time.Now()},
		{UserID: "+202", Topic: "ai", Attempt: 1, Score: 100, Timestamp: time.Now()},
	}

	var sb strings.Builder
	if err := export.WriteAttemptsCSV(&sb, recs); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines: %q", len(lines), sb.String())
	}
	if lines[0] != "User ID,Topic,Attempt,Score" {
		t.Fatalf("header: %q", lines[0])
	}
	if lines[1] != "+201,ai,1,60" {
		t.Fatalf("row: %q", lines[1])
	}
}
