// Package namefind implements a maximum-entropy name finder: a beam-search decoder over
// "<type>-start", "<type>-continue" and "other" outcomes, its training data format and its
// default adaptive context generator.
package namefind

import (
	"slices"
	"strings"

	"github.com/gomlx/go-seqtag/spans"
	"github.com/pkg/errors"
)

// NameSample is a sentence with its names.
type NameSample struct {
	Sentence []string
	Names    []spans.Span

	// AdditionalContext holds optional extra features per token: it's either empty or has one
	// entry per token of Sentence.
	AdditionalContext [][]string

	// ClearAdaptiveData marks the first sentence of a new document.
	ClearAdaptiveData bool
}

// NewNameSample creates a NameSample and validates its names, which are sorted by position and must
// not overlap.
func NewNameSample(sentence []string, names []spans.Span, additionalContext [][]string, clearAdaptiveData bool) (*NameSample, error) {
	for _, name := range names {
		if err := name.Validate(len(sentence)); err != nil {
			return nil, errors.WithMessagef(err, "namefind: invalid name in %q", strings.Join(sentence, " "))
		}
	}
	if len(additionalContext) > 0 && len(additionalContext) != len(sentence) {
		return nil, errors.Errorf("namefind: %d additional contexts for a sentence of %d tokens",
			len(additionalContext), len(sentence))
	}
	names = slices.Clone(names)
	slices.SortStableFunc(names, spans.Compare)
	for ii := 1; ii < len(names); ii++ {
		if names[ii-1].Intersects(names[ii]) {
			return nil, errors.Errorf("namefind: names %s and %s overlap in %q",
				names[ii-1], names[ii], strings.Join(sentence, " "))
		}
	}
	return &NameSample{
		Sentence:          sentence,
		Names:             names,
		AdditionalContext: additionalContext,
		ClearAdaptiveData: clearAdaptiveData,
	}, nil
}

// Len returns the number of tokens.
func (s *NameSample) Len() int { return len(s.Sentence) }

// Spans returns the names.
func (s *NameSample) Spans() []spans.Span { return s.Names }

// Equal reports whether other has the same sentence and names.
func (s *NameSample) Equal(other *NameSample) bool {
	return slices.Equal(s.Sentence, other.Sentence) && slices.Equal(s.Names, other.Names)
}

// String returns the sample in the training format, e.g.
// "<START:person> Pierre Vinken <END> , 61 years old".
func (s *NameSample) String() string {
	var sb strings.Builder
	next := 0
	for ii, token := range s.Sentence {
		for next < len(s.Names) && s.Names[next].Start == ii {
			writeSeparator(&sb)
			sb.WriteString("<START")
			if s.Names[next].Type != "" {
				sb.WriteByte(':')
				sb.WriteString(s.Names[next].Type)
			}
			sb.WriteByte('>')
			next++
		}
		writeSeparator(&sb)
		sb.WriteString(token)
		for _, name := range s.Names {
			if name.End == ii+1 {
				sb.WriteString(" <END>")
			}
		}
	}
	return sb.String()
}

func writeSeparator(sb *strings.Builder) {
	if sb.Len() > 0 {
		sb.WriteByte(' ')
	}
}
