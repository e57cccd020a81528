package config

import (
	"os"
	"strings"
	"time"
)

// LedgerBackend selects where attempt records are persisted. The choice is
// made once at startup; the orchestrator never sees which backend is active.
type LedgerBackend string

const (
	LedgerFile   LedgerBackend = "file"
	LedgerSQL    LedgerBackend = "sql"
	LedgerSheets LedgerBackend = "sheets"
)

type Config struct {
	HTTPAddr string
	DataDir  string

	CORSOrigins []string

	Ledger   LedgerBackend
	DBDriver string
	DBDSN    string

	SheetsSpreadsheetID   string
	SheetsCredentialsFile string
	SheetsTab             string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	FeedbackWait  time.Duration

	AuthSecret    string
	AdminUser     string
	AdminPassHash string // bcrypt
}

func FromEnv() Config {
	cfg := Config{
		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),
		DataDir:     envOr("DATA_DIR", "./data"),
		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		SheetsSpreadsheetID:   os.Getenv("SHEETS_SPREADSHEET_ID"),
		SheetsCredentialsFile: os.Getenv("SHEETS_CREDENTIALS_FILE"),
		SheetsTab:             envOr("SHEETS_TAB", "Submissions"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		FeedbackWait:  durOr("FEEDBACK_TIMEOUT", 45*time.Second),

		AuthSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:  envOr("ADMIN_USER", "admin"),
		// No default: a published hash is no credential at all. The export
		// route stays unmounted until an operator sets one.
		AdminPassHash: os.Getenv("ADMIN_PASS_HASH"),
	}

	// Backend is an explicit setting when given; otherwise the presence of
	// spreadsheet credentials selects the remote ledger, local file else.
	switch b := LedgerBackend(os.Getenv("LEDGER_BACKEND")); b {
	case LedgerFile, LedgerSQL, LedgerSheets:
		cfg.Ledger = b
	default:
		if cfg.SheetsSpreadsheetID != "" && cfg.SheetsCredentialsFile != "" {
			cfg.Ledger = LedgerSheets
		} else {
			cfg.Ledger = LedgerFile
		}
	}
	return cfg
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func durOr(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
