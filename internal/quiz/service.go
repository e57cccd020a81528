package quiz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/formative-labs/readquiz/internal/content"
	"github.com/formative-labs/readquiz/internal/feedback"
	"github.com/formative-labs/readquiz/internal/ledger"
	"github.com/formative-labs/readquiz/internal/scoring"
)

// maxAttempts is the per-(user,topic) cap. Submissions past the cap are
// blocked before scoring or persistence.
const maxAttempts = 2

var ErrEmptySubmission = errors.New("user_id and topic are required")

// Service is the submission orchestrator. It derives the attempt number from
// the ledger, applies the gating policy, scores, conditionally generates
// feedback, and appends the record.
//
// Count-then-append for one (user, topic) pair is serialized by a per-key
// mutex, so two near-simultaneous submissions from the same user cannot both
// be admitted under the same attempt number within one process. Across
// processes sharing a backend the read-then-append sequence is still not
// atomic; deployments that run multiple gateways need external serialization.
type Service struct {
	content  *content.Store
	ledger   ledger.Ledger
	feedback feedback.Generator

	feedbackWait time.Duration
	now          func() time.Time

	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

type Option func(*Service)

// WithClock overrides the timestamp source. Tests use this.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithFeedbackTimeout bounds the feedback call. Zero means no bound.
func WithFeedbackTimeout(d time.Duration) Option {
	return func(s *Service) { s.feedbackWait = d }
}

func NewService(cs *content.Store, lg ledger.Ledger, gen feedback.Generator, opts ...Option) *Service {
	s := &Service{
		content:      cs,
		ledger:       lg,
		feedback:     gen,
		feedbackWait: 45 * time.Second,
		now:          time.Now,
		keys:         map[string]*sync.Mutex{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// lock serializes submissions per (user, topic). The feedback call happens
// inside this section; that is fine, the lock is never shared across keys.
func (s *Service) lock(userID, topic string) func() {
	key := userID + "\x00" + topic
	s.mu.Lock()
	m, ok := s.keys[key]
	if !ok {
		m = &sync.Mutex{}
		s.keys[key] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	userID := strings.TrimSpace(sub.UserID)
	topic := strings.TrimSpace(sub.Topic)
	if userID == "" || topic == "" {
		return Result{}, ErrEmptySubmission
	}

	unlock := s.lock(userID, topic)
	defer unlock()

	prior, err := s.ledger.CountAttempts(ctx, userID, topic)
	if err != nil {
		return Result{}, fmt.Errorf("count attempts: %w", err)
	}
	attempt := prior + 1

	if prior >= maxAttempts {
		return Result{Blocked: true, Attempt: attempt}, nil
	}

	top, err := s.content.LoadTopic(topic)
	if err != nil {
		return Result{}, err
	}

	score := scoring.Score(sub.Answers, top.Key)
	flat := scoring.Flatten(sub.Answers, top.Key)

	// Feedback only on a first imperfect attempt. Attempt 2 never gets
	// feedback, whatever the score. A generation failure degrades to "no
	// feedback" and must not stop the record from being written.
	var fb *string
	if prior == 0 && score < 100 && s.feedback != nil {
		fctx := ctx
		if s.feedbackWait > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(ctx, s.feedbackWait)
			defer cancel()
		}
		text, ferr := s.feedback.Generate(fctx, top.Article, top.Key, sub.Answers)
		if ferr != nil {
			log.Printf("feedback generation failed (user=%s topic=%s): %v", userID, topic, ferr)
		} else {
			fb = &text
		}
	}

	rec := ledger.Record{
		ID:          uuid.NewString(),
		UserID:      userID,
		Topic:       topic,
		Timestamp:   s.now(),
		Attempt:     attempt,
		Score:       score,
		UserAnswers: sub.Answers,
		Breakdown:   flat,
	}
	if err := s.ledger.Append(ctx, rec); err != nil {
		return Result{}, fmt.Errorf("record attempt: %w", err)
	}

	return Result{Feedback: fb, Attempt: attempt, Score: &score}, nil
}
