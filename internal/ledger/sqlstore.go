package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SQLLedger stores records in the append-only attempt_log table created by
// internal/db. Works against sqlite and postgres; both accept $N placeholders.
type SQLLedger struct{ db *sql.DB }

func NewSQLLedger(db *sql.DB) *SQLLedger { return &SQLLedger{db: db} }

func (l *SQLLedger) CountAttempts(ctx context.Context, userID, topic string) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempt_log WHERE user_id=$1 AND topic=$2`,
		strings.TrimSpace(userID), strings.TrimSpace(topic)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ledger: count attempts: %w", err)
	}
	return n, nil
}

func (l *SQLLedger) Append(ctx context.Context, rec Record) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ledger: encode record: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO attempt_log (id, user_id, topic, attempt, score, ts, record)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rec.ID, strings.TrimSpace(rec.UserID), strings.TrimSpace(rec.Topic),
		rec.Attempt, rec.Score, rec.Timestamp.Format(time.RFC3339), string(buf))
	if err != nil {
		return fmt.Errorf("ledger: insert attempt: %w", err)
	}
	return nil
}

func (l *SQLLedger) Snapshot(ctx context.Context) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT user_id, topic, attempt, score, ts, record FROM attempt_log ORDER BY ts`)
	if err != nil {
		return nil, fmt.Errorf("ledger: snapshot: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			ts, raw string
		)
		if err := rows.Scan(&rec.UserID, &rec.Topic, &rec.Attempt, &rec.Score, &ts, &raw); err != nil {
			return nil, err
		}
		// Prefer the full stored record; the scalar columns are the fallback
		// if an old row's JSON does not decode.
		var full Record
		if err := json.Unmarshal([]byte(raw), &full); err == nil {
			rec = full
		} else if t, perr := time.Parse(time.RFC3339, ts); perr == nil {
			rec.Timestamp = t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: snapshot: %w", err)
	}
	return out, nil
}
