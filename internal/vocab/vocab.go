// Package vocab matches text against a fixed, ordered vocabulary.
package vocab

import (
	"sort"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Matcher finds vocabulary terms inside text by case-insensitive substring match.
type Matcher struct {
	terms   []string
	matcher *ahocorasick.Matcher
}

// New builds a matcher over terms. Term order is preserved in results.
func New(terms ...string) *Matcher {
	lowered := make([]string, len(terms))
	for i, term := range terms {
		lowered[i] = strings.ToLower(term)
	}
	return &Matcher{
		terms:   lowered,
		matcher: ahocorasick.NewStringMatcher(lowered),
	}
}

// Terms returns the vocabulary in declaration order.
func (m *Matcher) Terms() []string {
	out := make([]string, len(m.terms))
	copy(out, m.terms)
	return out
}

// Find returns every term present in text, in vocabulary order.
func (m *Matcher) Find(text string) []string {
	if m == nil || len(m.terms) == 0 || text == "" {
		return nil
	}

	hits := m.matcher.MatchThreadSafe([]byte(strings.ToLower(text)))
	if len(hits) == 0 {
		return nil
	}
	sort.Ints(hits)

	found := make([]string, 0, len(hits))
	last := -1
	for _, idx := range hits {
		if idx == last {
			continue
		}
		last = idx
		found = append(found, m.terms[idx])
	}
	return found
}

// Contains reports whether any term is present in text.
func (m *Matcher) Contains(text string) bool {
	if m == nil || len(m.terms) == 0 || text == "" {
		return false
	}
	return len(m.matcher.MatchThreadSafe([]byte(strings.ToLower(text)))) > 0
}

// Count returns how many times each term occurs across texts.
// A term counts once per text.
func (m *Matcher) Count(texts []string) map[string]int {
	counts := make(map[string]int, len(m.terms))
	for _, text := range texts {
		for _, term := range m.Find(text) {
			counts[term]++
		}
	}
	return counts
}
