package quiz

import "github.com/formative-labs/readquiz/internal/scoring"

// Submission is the payload the UI layer hands to the orchestrator.
// The attempt number is deliberately absent: attempt state comes from the
// ledger, never from the client.
type Submission struct {
	UserID       string              `json:"user_id"`
	Topic        string              `json:"topic"`
	Answers      scoring.UserAnswers `json:"answers"`
	NumQuestions int                 `json:"num_questions"`
}

// Result tells the caller what to show. Blocked is a normal terminal state,
// not an error: score and feedback are absent and nothing was persisted.
type Result struct {
	Feedback *string  `json:"feedback,omitempty"`
	Attempt  int      `json:"attempt"`
	Score    *float64 `json:"score,omitempty"`
	Blocked  bool     `json:"blocked"`
}
