package scoring

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/formative-labs/readquiz/internal/content"
)

// UserAnswers maps a question index to the options the user selected.
// Decoding is lenient: indices that do not parse are dropped, which the
// scorer then treats as an empty selection. Values may be a list or a
// single option.
type UserAnswers map[int][]string

func (u *UserAnswers) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(UserAnswers, len(raw))
	for ks, v := range raw {
		idx, err := strconv.Atoi(strings.TrimSpace(ks))
		if err != nil || idx < 0 {
			continue
		}
		var list []string
		if err := json.Unmarshal(v, &list); err != nil {
			var s string
			if err2 := json.Unmarshal(v, &s); err2 != nil {
				continue
			}
			list = []string{s}
		}
		out[idx] = list
	}
	*u = out
	return nil
}

// Score returns 100 * matches / total, where a question matches only when
// the user's selected-option set exactly equals the correct-option set.
// No partial credit. An empty key scores 0, never a division error.
func Score(user UserAnswers, key content.AnswerKey) float64 {
	total := len(key)
	if total == 0 {
		return 0
	}
	matches := 0
	for idx, correct := range key {
		if setEqual(toSet(user[idx]), toSet(correct)) {
			matches++
		}
	}
	return 100 * float64(matches) / float64(total)
}

// Flatten produces the per-question breakdown persisted alongside a record:
// a q<i>_answer entry for every answered index and a q<i>_correct entry for
// every keyed index. Indices present on only one side are kept as-is.
func Flatten(user UserAnswers, key content.AnswerKey) map[string]any {
	flat := make(map[string]any, len(user)+len(key))
	for idx, ans := range user {
		flat[fmt.Sprintf("q%d_answer", idx)] = ans
	}
	for idx, correct := range key {
		flat[fmt.Sprintf("q%d_correct", idx)] = correct
	}
	return flat
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
