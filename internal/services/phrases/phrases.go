// Package phrases stores question/answer pairs taught at runtime.
package phrases

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Directive is the keyword that starts a teach message
const Directive = "учись"

// Length bounds, counted in characters
const (
	MinQuestionLen = 2
	MaxQuestionLen = 100
	MinAnswerLen   = 2
	MaxAnswerLen   = 200
)

var directivePattern = regexp.MustCompile(`(?is)^` + Directive + `\s+(.+?)\s*->\s*(.+)`)

// TeachStatus describes how a teach directive was handled
type TeachStatus int

const (
	TeachLearned TeachStatus = iota
	TeachFormatError
	TeachTooShort
	TeachTooLong
)

// TeachResult is the outcome of a teach directive
type TeachResult struct {
	Status   TeachStatus
	Question string
	Answer   string
}

// Store maps lower-cased questions to the answers taught for them.
// Store is not safe for concurrent use.
type Store struct {
	entries map[string][]string
}

// NewStore creates an empty phrase store
func NewStore() *Store {
	return &Store{entries: make(map[string][]string)}
}

// IsDirective reports whether text starts with the teach keyword
func IsDirective(text string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(text)), Directive)
}

// ParseDirective splits a teach message into question and answer
func ParseDirective(text string) (question, answer string, ok bool) {
	m := directivePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// Teach parses and applies a teach directive
func (s *Store) Teach(text string) TeachResult {
	question, answer, ok := ParseDirective(text)
	if !ok {
		return TeachResult{Status: TeachFormatError}
	}

	res := TeachResult{Question: question, Answer: answer}
	qLen := utf8.RuneCountInString(question)
	aLen := utf8.RuneCountInString(answer)
	switch {
	case qLen < MinQuestionLen || aLen < MinAnswerLen:
		res.Status = TeachTooShort
	case qLen > MaxQuestionLen || aLen > MaxAnswerLen:
		res.Status = TeachTooLong
	default:
		s.Add(question, answer)
		res.Status = TeachLearned
	}
	return res
}

// Add appends an answer for the question without validation
func (s *Store) Add(question, answer string) {
	key := normalize(question)
	if key == "" {
		return
	}
	s.entries[key] = append(s.entries[key], answer)
}

// Lookup returns the answers taught for text, matched case-insensitively
func (s *Store) Lookup(text string) ([]string, bool) {
	answers, ok := s.entries[normalize(text)]
	if !ok || len(answers) == 0 {
		return nil, false
	}
	return answers, true
}

// Questions returns the number of distinct questions
func (s *Store) Questions() int {
	return len(s.entries)
}

// Answers returns the total number of taught answers
func (s *Store) Answers() int {
	total := 0
	for _, answers := range s.entries {
		total += len(answers)
	}
	return total
}

// Snapshot returns a deep copy of all entries
func (s *Store) Snapshot() map[string][]string {
	out := make(map[string][]string, len(s.entries))
	for k, v := range s.entries {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Restore replaces the contents of the store.
// Keys are normalized and empty keys or answers are dropped.
func (s *Store) Restore(entries map[string][]string) {
	s.entries = make(map[string][]string, len(entries))

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, answer := range entries[k] {
			if answer == "" {
				continue
			}
			s.Add(k, answer)
		}
	}
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
