// Package patterns holds the static, ordered rule set used to answer
// common phrases.
package patterns

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// Candidate is one possible reply of a rule
type Candidate struct {
	Text   string
	Weight float64
	// Render, when set, builds the reply text at reply time
	Render func(now time.Time) string
}

// Reply returns the text of the candidate
func (c Candidate) Reply(now time.Time) string {
	if c.Render != nil {
		return c.Render(now)
	}
	return c.Text
}

// Rule pairs a matcher with weighted candidates
type Rule struct {
	Name       string
	Pattern    *regexp.Regexp
	Candidates []Candidate
}

// RuleSet is an immutable ordered list of rules
type RuleSet struct {
	rules []Rule
}

// NewRuleSet validates rules and keeps their order
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	for i, r := range rules {
		if r.Pattern == nil {
			return nil, fmt.Errorf("rule %d (%s): nil pattern", i, r.Name)
		}
		if len(r.Candidates) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no candidates", i, r.Name)
		}
		for _, c := range r.Candidates {
			if c.Weight <= 0 {
				return nil, fmt.Errorf("rule %d (%s): weight must be positive, got %v", i, r.Name, c.Weight)
			}
		}
	}
	return &RuleSet{rules: append([]Rule(nil), rules...)}, nil
}

// Len returns the number of rules
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Match returns the first rule, in declared order, matching the lower-cased text
func (s *RuleSet) Match(text string) (*Rule, bool) {
	lower := strings.ToLower(text)
	for i := range s.rules {
		if s.rules[i].Pattern.MatchString(lower) {
			return &s.rules[i], true
		}
	}
	return nil, false
}

// Pick makes a weighted random choice among candidates.
// Weights are relative and need not sum to 1.
func Pick(rng *rand.Rand, candidates []Candidate) Candidate {
	var total float64
	for _, c := range candidates {
		total += c.Weight
	}

	x := rng.Float64() * total
	for _, c := range candidates {
		if x < c.Weight {
			return c
		}
		x -= c.Weight
	}
	return candidates[len(candidates)-1]
}
