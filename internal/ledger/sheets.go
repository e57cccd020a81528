package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var sheetHeader = []interface{}{"User ID", "Attempt", "Topic", "Score", "Timestamp", "User Answers"}

// SheetsLedger appends one row per attempt to a Google spreadsheet tab.
// The spreadsheet doubles as the tabular export consumed by the offline
// analysis, which is why the row layout is the export layout.
//
// Remote failures surface as errors. Counting must never fall back to zero
// on an outage: that would let a user walk past the attempt cap.
type SheetsLedger struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string

	headerMu   sync.Mutex
	headerDone bool
}

// NewSheetsLedger builds a ledger over the given spreadsheet. When opts are
// given they replace the credentials file entirely, which lets tests point
// the client at a local server.
func NewSheetsLedger(ctx context.Context, credentialsFile, spreadsheetID, tab string, opts ...option.ClientOption) (*SheetsLedger, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheets ledger: spreadsheet id required")
	}
	if tab == "" {
		tab = "Submissions"
	}
	if len(opts) == 0 {
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("sheets ledger: read credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("sheets ledger: parse credentials: %w", err)
		}
		opts = []option.ClientOption{option.WithCredentials(creds)}
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets ledger: new service: %w", err)
	}
	return &SheetsLedger{svc: svc, spreadsheetID: spreadsheetID, tab: tab}, nil
}

// ensureHeader writes the header row if the sheet is empty. The done flag is
// only set on success, so a transient remote failure here is retried on the
// next append instead of sticking for the process lifetime.
func (l *SheetsLedger) ensureHeader(ctx context.Context) error {
	l.headerMu.Lock()
	defer l.headerMu.Unlock()
	if l.headerDone {
		return nil
	}
	resp, err := l.svc.Spreadsheets.Values.
		Get(l.spreadsheetID, l.tab+"!A1:F1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets ledger: read header: %w", err)
	}
	if len(resp.Values) == 0 {
		_, err = l.svc.Spreadsheets.Values.
			Update(l.spreadsheetID, l.tab+"!A1", &sheets.ValueRange{
				Values: [][]interface{}{sheetHeader},
			}).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("sheets ledger: write header: %w", err)
		}
	}
	l.headerDone = true
	return nil
}

func (l *SheetsLedger) CountAttempts(ctx context.Context, userID, topic string) (int, error) {
	resp, err := l.svc.Spreadsheets.Values.
		Get(l.spreadsheetID, l.tab+"!A2:C").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("ledger: read spreadsheet: %w", err)
	}
	count := 0
	for _, row := range resp.Values {
		if len(row) < 3 {
			continue
		}
		u, _ := row[0].(string)
		t, _ := row[2].(string)
		if sameKey(u, userID) && sameKey(t, topic) {
			count++
		}
	}
	return count, nil
}

func (l *SheetsLedger) Append(ctx context.Context, rec Record) error {
	if err := l.ensureHeader(ctx); err != nil {
		return err
	}
	answers, err := json.Marshal(rec.UserAnswers)
	if err != nil {
		return fmt.Errorf("ledger: encode answers: %w", err)
	}
	row := []interface{}{
		rec.UserID,
		rec.Attempt,
		rec.Topic,
		rec.Score,
		rec.Timestamp.Format(time.RFC3339),
		string(answers),
	}
	_, err = l.svc.Spreadsheets.Values.
		Append(l.spreadsheetID, l.tab+"!A1", &sheets.ValueRange{
			Values: [][]interface{}{row},
		}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("ledger: append to spreadsheet: %w", err)
	}
	return nil
}
