package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/formative-labs/readquiz/internal/api/http"
	"github.com/formative-labs/readquiz/internal/auth"
	"github.com/formative-labs/readquiz/internal/config"
	"github.com/formative-labs/readquiz/internal/content"
	"github.com/formative-labs/readquiz/internal/db"
	"github.com/formative-labs/readquiz/internal/feedback"
	"github.com/formative-labs/readquiz/internal/ledger"
	"github.com/formative-labs/readquiz/internal/quiz"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// --- Ledger backend, chosen once per deployment ---
	var lg ledger.Ledger
	switch cfg.Ledger {
	case config.LedgerSQL:
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		lg = ledger.NewSQLLedger(dbh)
	case config.LedgerSheets:
		sl, err := ledger.NewSheetsLedger(ctx, cfg.SheetsCredentialsFile, cfg.SheetsSpreadsheetID, cfg.SheetsTab)
		if err != nil {
			log.Fatalf("sheets ledger: %v", err)
		}
		lg = sl
	default:
		lg = ledger.NewFileLedger(cfg.DataDir)
	}

	// --- Feedback generator (best-effort; absent without an API key) ---
	var gen feedback.Generator
	if cfg.OpenAIAPIKey != "" {
		g, err := feedback.NewOpenAIGenerator(feedback.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		if err != nil {
			log.Fatalf("feedback generator: %v", err)
		}
		gen = g
	} else {
		log.Printf("OPENAI_API_KEY not set; formative feedback disabled")
	}

	cs := content.NewStore(cfg.DataDir)
	svc := quiz.NewService(cs, lg, gen, quiz.WithFeedbackTimeout(cfg.FeedbackWait))
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute)) // feedback calls are slow
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/session", auth.SessionHandler(authSvc))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Get("/topics/{topic}", api.GetTopicHandler(cs))
		pr.Post("/topics/{topic}/submissions", api.SubmitHandler(svc))
	})

	if cfg.AdminPassHash != "" {
		r.Group(func(ar chi.Router) {
			ar.Use(auth.AdminOnly(cfg.AdminUser, cfg.AdminPassHash))
			ar.Get("/export/attempts.csv", api.ExportAttemptsHandler(lg))
		})
	} else {
		log.Printf("ADMIN_PASS_HASH not set; attempts export disabled")
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (ledger=%s, data=%s)", cfg.HTTPAddr, cfg.Ledger, cfg.DataDir)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
