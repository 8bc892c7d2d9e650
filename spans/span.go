// Package spans provides the labeled token span type and the algorithms that convert tag sequences
// to spans and back.
package spans

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Span is a half-open token range [Start, End) with an optional Type ("" when untyped).
type Span struct {
	Start int
	End   int
	Type  string
}

// New returns the span [start, end) of the given type.
func New(start, end int, spanType string) Span {
	return Span{Start: start, End: end, Type: spanType}
}

// Len returns the number of tokens covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Validate checks that 0 <= Start < End <= n.
func (s Span) Validate(n int) error {
	if s.Start < 0 || s.Start >= s.End || s.End > n {
		return errors.Errorf("invalid span %s for a sequence of %d tokens", s, n)
	}
	return nil
}

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Intersects reports whether s and other share at least one token.
func (s Span) Intersects(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Compare orders spans by Start, then End, then Type.
func Compare(a, b Span) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	if c := cmp.Compare(a.End, b.End); c != 0 {
		return c
	}
	return cmp.Compare(a.Type, b.Type)
}

// comparePosition orders spans by Start, then End only.
func comparePosition(a, b Span) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.End, b.End)
}

// String implements fmt.Stringer, e.g. "[0..2) org".
func (s Span) String() string {
	if s.Type == "" {
		return fmt.Sprintf("[%d..%d)", s.Start, s.End)
	}
	return fmt.Sprintf("[%d..%d) %s", s.Start, s.End, s.Type)
}

// CoveredText returns the tokens covered by the span joined by a single space.
func (s Span) CoveredText(tokens []string) string {
	return strings.Join(tokens[s.Start:s.End], " ")
}

// ToStrings returns the covered text of each span.
func ToStrings(spans []Span, tokens []string) []string {
	texts := make([]string, len(spans))
	for ii, s := range spans {
		texts[ii] = s.CoveredText(tokens)
	}
	return texts
}

// Probs returns, for each span, the product of the per-token probabilities over its range.
func Probs(spans []Span, tokenProbs []float64) []float64 {
	probs := make([]float64, len(spans))
	for ii, s := range spans {
		p := 1.0
		for _, tokenProb := range tokenProbs[s.Start:s.End] {
			p *= tokenProb
		}
		probs[ii] = p
	}
	return probs
}
