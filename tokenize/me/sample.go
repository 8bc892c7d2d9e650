// Package me implements a trainable maximum-entropy tokenizer.
//
// Text is first split on whitespace. Each whitespace separated chunk is then tagged character by
// character with the untyped "start" and "continue" outcomes of the name scheme, decoded with beam
// search: a "start" begins a new token, so the tokens are the spans of the tag sequence.
package me

import (
	"iter"
	"slices"
	"strings"
	"unicode"

	"github.com/gomlx/go-seqtag/spans"
	"github.com/gomlx/go-seqtag/tokenize"
	"github.com/pkg/errors"
)

// SplitTag marks, in the sample format, a token boundary not given by whitespace.
const SplitTag = "<SPLIT>"

// TokenSample is a text with the byte span of each of its tokens.
type TokenSample struct {
	Text   string
	Tokens []tokenize.Span
}

// NewTokenSample creates a TokenSample. Tokens must be non-empty, sorted, non-overlapping,
// within text and must not contain whitespace.
func NewTokenSample(text string, tokens []tokenize.Span) (*TokenSample, error) {
	end := 0
	for ii, token := range tokens {
		if token.Start < end || token.End <= token.Start || token.End > len(text) {
			return nil, errors.Errorf("tokenize: invalid token #%d [%d, %d) in text of %d bytes",
				ii, token.Start, token.End, len(text))
		}
		if strings.ContainsFunc(text[token.Start:token.End], unicode.IsSpace) {
			return nil, errors.Errorf("tokenize: token #%d %q contains whitespace", ii, text[token.Start:token.End])
		}
		end = token.End
	}
	return &TokenSample{Text: text, Tokens: tokens}, nil
}

// ParseTokenSample parses a line where tokens are separated by whitespace or by SplitTag.
// The text of the sample joins the whitespace separated fields with a single space.
func ParseTokenSample(line string) (*TokenSample, error) {
	var sb strings.Builder
	var tokens []tokenize.Span
	for ii, field := range strings.Fields(line) {
		if ii > 0 {
			sb.WriteByte(' ')
		}
		for part := range strings.SplitSeq(field, SplitTag) {
			if part == "" {
				return nil, errors.Errorf("tokenize: empty token around %s in %q", SplitTag, field)
			}
			start := sb.Len()
			sb.WriteString(part)
			tokens = append(tokens, tokenize.Span{Start: start, End: sb.Len()})
		}
	}
	return &TokenSample{Text: sb.String(), Tokens: tokens}, nil
}

// Len returns the length of the text in bytes: tokens are byte spans of the text, so a prediction
// for the same text has the same length.
func (s *TokenSample) Len() int { return len(s.Text) }

// Spans returns the byte span of each token, untyped.
func (s *TokenSample) Spans() []spans.Span {
	tokenSpans := make([]spans.Span, len(s.Tokens))
	for ii, token := range s.Tokens {
		tokenSpans[ii] = spans.New(token.Start, token.End, "")
	}
	return tokenSpans
}

// Equal reports whether other has the same text and tokens.
func (s *TokenSample) Equal(other *TokenSample) bool {
	return s.Text == other.Text && slices.Equal(s.Tokens, other.Tokens)
}

// TokenStrings returns the text of each token.
func (s *TokenSample) TokenStrings() []string {
	tokens := make([]string, len(s.Tokens))
	for ii, token := range s.Tokens {
		tokens[ii] = s.Text[token.Start:token.End]
	}
	return tokens
}

// String returns the sample in the format read by ParseTokenSample: tokens separated by whitespace
// in the text are separated by a space, adjacent tokens by SplitTag.
func (s *TokenSample) String() string {
	var sb strings.Builder
	for ii, token := range s.Tokens {
		if ii > 0 {
			if s.Tokens[ii-1].End == token.Start {
				sb.WriteString(SplitTag)
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(s.Text[token.Start:token.End])
	}
	return sb.String()
}

// Samples parses one sample per non-empty line.
func Samples(lines iter.Seq2[string, error]) iter.Seq2[*TokenSample, error] {
	return func(yield func(*TokenSample, error) bool) {
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
			sample, err := ParseTokenSample(line)
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
