package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/formative-labs/readquiz/internal/auth"
	"github.com/formative-labs/readquiz/internal/content"
	"github.com/formative-labs/readquiz/internal/export"
	"github.com/formative-labs/readquiz/internal/ledger"
	"github.com/formative-labs/readquiz/internal/quiz"
	"github.com/formative-labs/readquiz/internal/scoring"
)

// GetTopicHandler serves a topic's article and questions. The answer key
// never leaves the server.
func GetTopicHandler(cs *content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "topic")
		article, err := cs.LoadArticle(name)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, content.ErrNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		qs, err := cs.LoadQuestions(name)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, content.ErrNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		resp := struct {
			Topic     string             `json:"topic"`
			Article   string             `json:"article"`
			Questions []content.Question `json:"questions"`
		}{Topic: name, Article: article, Questions: qs}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// SubmitHandler runs the submission orchestrator. The user id comes from the
// session token, not the body; a blocked attempt is a 200 with blocked:true.
func SubmitHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answers      scoring.UserAnswers `json:"answers"`
			NumQuestions int                 `json:"num_questions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sub := quiz.Submission{
			UserID:       auth.SubjectFromContext(r.Context()),
			Topic:        chi.URLParam(r, "topic"),
			Answers:      req.Answers,
			NumQuestions: req.NumQuestions,
		}
		res, err := svc.Submit(r.Context(), sub)
		if err != nil {
			switch {
			case errors.Is(err, quiz.ErrEmptySubmission):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, content.ErrNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			default:
				// Ledger trouble must look like failure, never like a first
				// attempt that went through.
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}

// ExportAttemptsHandler streams the attempts CSV for the offline analysis.
// Backends without a local snapshot (the spreadsheet one) answer 501; the
// spreadsheet itself is the export there.
func ExportAttemptsHandler(lg ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := lg.(ledger.Snapshotter)
		if !ok {
			http.Error(w, "export not supported by this ledger backend", http.StatusNotImplemented)
			return
		}
		recs, err := snap.Snapshot(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="attempts.csv"`)
		if err := export.WriteAttemptsCSV(w, recs); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
