package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileLedger persists records as newline-delimited JSON, one file per topic:
// <dir>/<topic>/submissions.jsonl. Per-topic partitioning is the deployment
// convention for this backend; do not mix with per-deployment files.
type FileLedger struct{ dir string }

func NewFileLedger(dir string) *FileLedger {
	if dir == "" {
		dir = "./data"
	}
	return &FileLedger{dir: dir}
}

func (l *FileLedger) path(topic string) (string, error) {
	if topic == "" || topic == "." || topic == ".." || topic != filepath.Base(filepath.Clean(topic)) {
		return "", fmt.Errorf("ledger: bad topic name %q", topic)
	}
	return filepath.Join(l.dir, topic, "submissions.jsonl"), nil
}

// CountAttempts scans the topic's log and counts records for the user.
// A missing file means zero attempts. Individually malformed lines are
// skipped; a failed read of the file itself is an error, never a zero.
func (l *FileLedger) CountAttempts(ctx context.Context, userID, topic string) (int, error) {
	path, err := l.path(topic)
	if err != nil {
		return 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	defer f.Close()

	count := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			continue // corrupt line, not a backend failure
		}
		if sameKey(rec.UserID, userID) && sameKey(rec.Topic, topic) {
			count++
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("ledger: read %s: %w", path, err)
	}
	return count, nil
}

// Append writes one encoded record plus newline in a single write to an
// O_APPEND file and syncs before returning, so a success is durable and
// visible to subsequent counts.
func (l *FileLedger) Append(ctx context.Context, rec Record) error {
	path, err := l.path(rec.Topic)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ledger: mkdir: %w", err)
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ledger: encode record: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ledger: open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("ledger: write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("ledger: sync %s: %w", path, err)
	}
	return nil
}

// Snapshot reads every topic log under the data dir.
func (l *FileLedger) Snapshot(ctx context.Context) ([]Record, error) {
	matches, err := filepath.Glob(filepath.Join(l.dir, "*", "submissions.jsonl"))
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, path := range matches {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("ledger: open %s: %w", path, err)
		}
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			var rec Record
			if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
				continue
			}
			out = append(out, rec)
		}
		err = sc.Err()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("ledger: read %s: %w", path, err)
		}
	}
	return out, nil
}
