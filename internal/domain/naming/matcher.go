package naming

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	DefaultMaxDistance = 3

	minFuzzyKeyLength = 4
	minContainedToken = 3
)

// Candidate is one official name the matcher can resolve to.
type Candidate struct {
	ID   int64
	Name string
}

// Resolution describes how a name was matched.
type Resolution struct {
	ID       int64
	Key      string
	Exact    bool
	Distance int
}

// Matcher resolves loosely-typed names against a fixed candidate set.
// Exact canonical keys win; otherwise a single unambiguous fuzzy
// candidate is accepted.
type Matcher struct {
	maxDistance int
	entries     []entry
	byKey       map[string]int64
}

type entry struct {
	id     int64
	key    string
	tokens []string
}

type Option func(*Matcher)

// WithMaxDistance caps the edit distance accepted by the fuzzy fallback.
func WithMaxDistance(d int) Option {
	return func(m *Matcher) {
		if d >= 0 {
			m.maxDistance = d
		}
	}
}

func NewMatcher(candidates []Candidate, opts ...Option) *Matcher {
	m := &Matcher{
		maxDistance: DefaultMaxDistance,
		entries:     make([]entry, 0, len(candidates)),
		byKey:       make(map[string]int64, len(candidates)),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, c := range candidates {
		key := Canonicalize(c.Name)
		if key == "" {
			continue
		}
		// First candidate wins a key collision so resolution stays stable
		// in roster order.
		if _, exists := m.byKey[key]; !exists {
			m.byKey[key] = c.ID
		}
		m.entries = append(m.entries, entry{id: c.ID, key: key, tokens: strings.Fields(key)})
	}

	return m
}

// ResolveExact only accepts identical canonical keys.
func (m *Matcher) ResolveExact(name string) (int64, bool) {
	key := Canonicalize(name)
	if key == "" {
		return 0, false
	}
	id, ok := m.byKey[key]
	return id, ok
}

func (m *Matcher) Resolve(name string) (Resolution, bool) {
	key := Canonicalize(name)
	if key == "" {
		return Resolution{}, false
	}
	if id, ok := m.byKey[key]; ok {
		return Resolution{ID: id, Key: key, Exact: true}, true
	}

	return m.fuzzy(key)
}

type score struct {
	class int
	value int
}

func (s score) less(o score) bool {
	if s.class != o.class {
		return s.class < o.class
	}
	return s.value < o.value
}

func (m *Matcher) fuzzy(key string) (Resolution, bool) {
	tokens := strings.Fields(key)

	var (
		best      score
		bestID    int64
		bestDist  int
		found     bool
		ambiguous bool
	)
	for _, e := range m.entries {
		s, dist, ok := m.compare(key, tokens, e)
		if !ok {
			continue
		}
		switch {
		case !found || s.less(best):
			best, bestID, bestDist, found, ambiguous = s, e.id, dist, true, false
		case s == best && e.id != bestID:
			ambiguous = true
		}
	}

	if !found || ambiguous {
		return Resolution{}, false
	}
	return Resolution{ID: bestID, Key: key, Distance: bestDist}, true
}

func (m *Matcher) compare(key string, tokens []string, e entry) (score, int, bool) {
	if contains(tokens, e.tokens) || contains(e.tokens, tokens) {
		extra := len(tokens) - len(e.tokens)
		if extra < 0 {
			extra = -extra
		}
		return score{class: 1, value: extra}, 0, true
	}

	shorter := min(len(key), len(e.key))
	if shorter < minFuzzyKeyLength || m.maxDistance == 0 {
		return score{}, 0, false
	}
	limit := min(m.maxDistance, max(1, shorter/5))
	dist := Distance(key, e.key)
	if dist > limit {
		return score{}, 0, false
	}
	return score{class: 2, value: dist}, dist, true
}

// contains reports whether every token of needle appears in haystack.
func contains(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) >= len(haystack) {
		return false
	}
	set := make(map[string]struct{}, len(haystack))
	for _, t := range haystack {
		set[t] = struct{}{}
	}
	for _, t := range needle {
		if len(t) < minContainedToken {
			return false
		}
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

// Distance is the Levenshtein distance between two canonical keys.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}
