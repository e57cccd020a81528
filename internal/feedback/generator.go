package feedback

import (
	"context"

	"github.com/formative-labs/readquiz/internal/content"
	"github.com/formative-labs/readquiz/internal/scoring"
)

// Generator produces narrative formative feedback for a student's first
// imperfect attempt. Implementations may be slow (seconds) and may fail;
// callers treat feedback as best-effort and never let a failure block
// scoring or persistence.
type Generator interface {
	Generate(ctx context.Context, article string, key content.AnswerKey, user scoring.UserAnswers) (string, error)
}
