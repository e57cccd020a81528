package feedback

import (
	"context"
	"fmt"
	"sync"

	"github.com/formative-labs/readquiz/internal/content"
	"github.com/formative-labs/readquiz/internal/scoring"
)

// MockResponse is a canned response for the Mock generator.
type MockResponse struct {
	Text string
	Err  error
}

// Call records one Generate invocation.
type Call struct {
	Article string
	Key     content.AnswerKey
	User    scoring.UserAnswers
}

// Mock is a deterministic Generator for tests. It returns canned responses
// in FIFO order and records all calls.
type Mock struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Call
}

func NewMock(responses ...MockResponse) *Mock {
	return &Mock{responses: responses}
}

func (m *Mock) Generate(_ context.Context, article string, key content.AnswerKey, user scoring.UserAnswers) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, Call{Article: article, Key: key, User: user})

	if len(m.responses) == 0 {
		return "", fmt.Errorf("mock generator: no responses queued")
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	if resp.Err != nil {
		return "", resp.Err
	}
	return resp.Text, nil
}

func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
