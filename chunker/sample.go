// Package chunker implements a maximum-entropy phrase chunker: it tags POS-tagged sentences with
// "B-<phrase>", "I-<phrase>" and "O" labels, from which non-recursive phrases are extracted.
package chunker

import (
	"iter"
	"slices"
	"strings"

	"github.com/gomlx/go-seqtag/spans"
	"github.com/gomlx/go-seqtag/tagger/scheme"
	"github.com/pkg/errors"
)

// ChunkSample is a sentence with its POS tags and chunk labels, one per token.
type ChunkSample struct {
	Sentence []string
	Tags     []string
	Chunks   []string
}

// NewChunkSample creates a ChunkSample, checking that sentence, tags and chunks have the same length.
func NewChunkSample(sentence, tags, chunks []string) (*ChunkSample, error) {
	if len(sentence) != len(tags) || len(sentence) != len(chunks) {
		return nil, errors.Errorf("chunker: sentence (%d tokens), tags (%d) and chunks (%d) must have the same length",
			len(sentence), len(tags), len(chunks))
	}
	return &ChunkSample{Sentence: sentence, Tags: tags, Chunks: chunks}, nil
}

// Len returns the number of tokens.
func (s *ChunkSample) Len() int { return len(s.Sentence) }

// Spans returns the phrases.
func (s *ChunkSample) Spans() []spans.Span { return s.PhrasesAsSpans() }

// PhrasesAsSpans returns the phrases encoded by the chunk labels, typed by phrase type.
func (s *ChunkSample) PhrasesAsSpans() []spans.Span {
	return spans.ExtractLabels(scheme.BIO{}, s.Chunks)
}

// Equal reports whether other has the same sentence, tags and chunks.
func (s *ChunkSample) Equal(other *ChunkSample) bool {
	return slices.Equal(s.Sentence, other.Sentence) && slices.Equal(s.Tags, other.Tags) &&
		slices.Equal(s.Chunks, other.Chunks)
}

// NicePrint returns the sentence with bracketed phrases, e.g.
// " [NP Forecasts_NNS ] [PP for_IN ] ._.".
func (s *ChunkSample) NicePrint() string {
	phrases := s.PhrasesAsSpans()
	var sb strings.Builder
	sb.WriteByte(' ')
	for ii, token := range s.Sentence {
		if ii > 0 {
			sb.WriteByte(' ')
		}
		for _, phrase := range phrases {
			if phrase.End == ii {
				sb.WriteString("] ")
			}
			if phrase.Start == ii {
				sb.WriteString("[" + phrase.Type + " ")
			}
		}
		sb.WriteString(token + "_" + s.Tags[ii])
	}
	for _, phrase := range phrases {
		if phrase.End == len(s.Sentence) {
			sb.WriteString(" ]")
		}
	}
	return sb.String()
}

// String returns one "token tag chunk" line per token, the CoNLL-2000 format read by Samples.
func (s *ChunkSample) String() string {
	var sb strings.Builder
	for ii, token := range s.Sentence {
		sb.WriteString(token + " " + s.Tags[ii] + " " + s.Chunks[ii] + "\n")
	}
	return sb.String()
}

// Samples reads samples in the CoNLL-2000 format: one "token tag chunk" line per token, with
// sentences separated by empty lines.
func Samples(lines iter.Seq2[string, error]) iter.Seq2[*ChunkSample, error] {
	return func(yield func(*ChunkSample, error) bool) {
		var sentence, tags, chunks []string
		lineNum := 0
		flush := func() bool {
			if len(sentence) == 0 {
				return true
			}
			sample := &ChunkSample{Sentence: sentence, Tags: tags, Chunks: chunks}
			sentence, tags, chunks = nil, nil, nil
			return yield(sample, nil)
		}
		for line, err := range lines {
			lineNum++
			if err != nil {
				yield(nil, err)
				return
			}
			fields := strings.Fields(line)
			if len(fields) == 0 {
				if !flush() {
					return
				}
				continue
			}
			if len(fields) != 3 {
				yield(nil, errors.Errorf("chunker: line %d: expected \"token tag chunk\", got %q", lineNum, line))
				return
			}
			sentence = append(sentence, fields[0])
			tags = append(tags, fields[1])
			chunks = append(chunks, fields[2])
		}
		flush()
	}
}
