// Package postag implements a maximum-entropy part-of-speech tagger, optionally restricted by a tag
// dictionary.
package postag

import (
	"iter"
	"slices"
	"strings"

	"github.com/gomlx/go-seqtag/spans"
	"github.com/pkg/errors"
)

// POSSample is a sentence with the POS tag of each token.
type POSSample struct {
	Sentence []string
	Tags     []string
}

// NewPOSSample creates a POSSample, checking there is one tag per token.
func NewPOSSample(sentence, tags []string) (*POSSample, error) {
	if len(sentence) != len(tags) {
		return nil, errors.Errorf("postag: %d tokens but %d tags", len(sentence), len(tags))
	}
	return &POSSample{Sentence: sentence, Tags: tags}, nil
}

// ParsePOSSample parses a sentence in the "word_TAG word_TAG" format. The tag follows the last "_"
// of each token.
func ParsePOSSample(line string) (*POSSample, error) {
	fields := strings.Fields(line)
	sample := &POSSample{Sentence: make([]string, len(fields)), Tags: make([]string, len(fields))}
	for ii, field := range fields {
		split := strings.LastIndexByte(field, '_')
		if split <= 0 || split == len(field)-1 {
			return nil, errors.Errorf("postag: token #%d %q is not in the word_TAG format", ii, field)
		}
		sample.Sentence[ii], sample.Tags[ii] = field[:split], field[split+1:]
	}
	return sample, nil
}

// Len returns the number of tokens.
func (s *POSSample) Len() int { return len(s.Sentence) }

// Spans returns one single-token span per tagged token, typed by its tag, so the F-Measure of POS
// samples is the tagging accuracy. Untagged tokens (empty tag) have no span.
func (s *POSSample) Spans() []spans.Span {
	tokens := make([]spans.Span, 0, len(s.Tags))
	for ii, tag := range s.Tags {
		if tag != "" {
			tokens = append(tokens, spans.New(ii, ii+1, tag))
		}
	}
	return tokens
}

// Equal reports whether other has the same sentence and tags.
func (s *POSSample) Equal(other *POSSample) bool {
	return slices.Equal(s.Sentence, other.Sentence) && slices.Equal(s.Tags, other.Tags)
}

// String returns the sample in the "word_TAG" format. Untagged tokens are written without "_".
func (s *POSSample) String() string {
	var sb strings.Builder
	for ii, token := range s.Sentence {
		if ii > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(token)
		if s.Tags[ii] != "" {
			sb.WriteString("_" + s.Tags[ii])
		}
	}
	return sb.String()
}

// Samples parses one sample per non-empty line.
func Samples(lines iter.Seq2[string, error]) iter.Seq2[*POSSample, error] {
	return func(yield func(*POSSample, error) bool) {
		lineNum := 0
		for line, err := range lines {
			lineNum++
			if err != nil {
				yield(nil, err)
				return
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			sample, err := ParsePOSSample(line)
			if err != nil {
				yield(nil, errors.WithMessagef(err, "line %d", lineNum))
				return
			}
			if !yield(sample, nil) {
				return
			}
		}
	}
}
