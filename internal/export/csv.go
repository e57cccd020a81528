package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/formative-labs/readquiz/internal/ledger"
)

// WriteAttemptsCSV writes the tabular export consumed by the offline
// improvement analysis: User ID, Topic, Attempt, Score, one row per attempt.
func WriteAttemptsCSV(w io.Writer, recs []ledger.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"User ID", "Topic", "Attempt", "Score"}); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			r.UserID,
			r.Topic,
			strconv.Itoa(r.Attempt),
			strconv.FormatFloat(r.Score, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
