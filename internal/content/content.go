package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Store reads topic content from a data directory laid out as
// <dir>/<topic>/article.txt, questions.json, answers.json.
// Content is static; every load reads fresh from disk.
type Store struct{ dir string }

func NewStore(dir string) *Store {
	if dir == "" {
		dir = "./data"
	}
	return &Store{dir: dir}
}

type Question struct {
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
}

// AnswerKey maps a question index to the set of acceptable options.
// JSON object keys are decoded from strings; a scalar value is treated
// as a singleton set.
type AnswerKey map[int][]string

func (k *AnswerKey) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(AnswerKey, len(raw))
	for ks, v := range raw {
		idx, err := strconv.Atoi(strings.TrimSpace(ks))
		if err != nil || idx < 0 {
			return fmt.Errorf("answer key: bad question index %q", ks)
		}
		var list []string
		if err := json.Unmarshal(v, &list); err != nil {
			var s string
			if err2 := json.Unmarshal(v, &s); err2 != nil {
				return fmt.Errorf("answer key: question %d: %w", idx, err)
			}
			list = []string{s}
		}
		out[idx] = list
	}
	*k = out
	return nil
}

type Topic struct {
	Name      string     `json:"name"`
	Article   string     `json:"article"`
	Questions []Question `json:"questions"`
	Key       AnswerKey  `json:"-"`
}

var ErrNotFound = errors.New("topic not found")

func (s *Store) topicDir(topic string) (string, error) {
	if topic == "" || topic == "." || topic == ".." || topic != filepath.Base(filepath.Clean(topic)) {
		return "", fmt.Errorf("%w: bad topic name %q", ErrNotFound, topic)
	}
	return filepath.Join(s.dir, topic), nil
}

func (s *Store) LoadArticle(topic string) (string, error) {
	dir, err := s.topicDir(topic)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(filepath.Join(dir, "article.txt"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, topic)
		}
		return "", err
	}
	return string(b), nil
}

func (s *Store) LoadQuestions(topic string) ([]Question, error) {
	dir, err := s.topicDir(topic)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(filepath.Join(dir, "questions.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, topic)
		}
		return nil, err
	}
	var qs []Question
	if err := json.Unmarshal(b, &qs); err != nil {
		return nil, fmt.Errorf("questions for %s: %w", topic, err)
	}
	return qs, nil
}

func (s *Store) LoadAnswerKey(topic string) (AnswerKey, error) {
	dir, err := s.topicDir(topic)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(filepath.Join(dir, "answers.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, topic)
		}
		return nil, err
	}
	var key AnswerKey
	if err := json.Unmarshal(b, &key); err != nil {
		return nil, fmt.Errorf("answer key for %s: %w", topic, err)
	}
	return key, nil
}

// LoadTopic bundles article, questions and answer key. A missing topic is a
// deployment mistake, reported as ErrNotFound for each missing piece.
func (s *Store) LoadTopic(topic string) (Topic, error) {
	article, err := s.LoadArticle(topic)
	if err != nil {
		return Topic{}, err
	}
	qs, err := s.LoadQuestions(topic)
	if err != nil {
		return Topic{}, err
	}
	key, err := s.LoadAnswerKey(topic)
	if err != nil {
		return Topic{}, err
	}
	return Topic{Name: topic, Article: article, Questions: qs, Key: key}, nil
}
