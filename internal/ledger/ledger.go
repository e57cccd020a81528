package ledger

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Record is one completed submission. Records are facts: once appended they
// are never mutated or deleted.
type Record struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Topic       string           `json:"topic"`
	Timestamp   time.Time        `json:"timestamp"`
	Attempt     int              `json:"attempt"`
	Score       float64          `json:"score"`
	UserAnswers map[int][]string `json:"user_answers"`
	// Breakdown holds the flattened q<i>_answer / q<i>_correct entries.
	// It is merged into the top level of the encoded record so exports and
	// spreadsheets see flat columns.
	Breakdown map[string]any `json:"-"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, 7+len(r.Breakdown))
	obj["id"] = r.ID
	obj["user_id"] = r.UserID
	obj["topic"] = r.Topic
	obj["timestamp"] = r.Timestamp.Format(time.RFC3339)
	obj["attempt"] = r.Attempt
	obj["score"] = r.Score
	obj["user_answers"] = r.UserAnswers
	for k, v := range r.Breakdown {
		obj[k] = v
	}
	return json.Marshal(obj)
}

// Ledger is the durable append-only attempt history. The orchestrator is
// written against these two operations and does not know which backend is
// active. CountAttempts is a pure read and returns 0, not an error, when no
// storage exists yet. Append either lands the record durably or fails loudly;
// attempt gating depends on there being no silent partial writes.
type Ledger interface {
	CountAttempts(ctx context.Context, userID, topic string) (int, error)
	Append(ctx context.Context, rec Record) error
}

// Snapshotter is implemented by backends that can enumerate their records
// for the offline-analytics export. The sheets backend does not implement
// it; the spreadsheet is itself the export.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]Record, error)
}

func sameKey(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
