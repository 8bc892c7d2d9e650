package me

import (
	"context"
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gomlx/go-seqtag/eval"
	"github.com/gomlx/go-seqtag/models/maxent"
	"github.com/gomlx/go-seqtag/spans"
	"github.com/gomlx/go-seqtag/tagger/api"
	"github.com/gomlx/go-seqtag/tagger/beam"
	"github.com/gomlx/go-seqtag/tagger/features"
	"github.com/gomlx/go-seqtag/tagger/scheme"
	"github.com/gomlx/go-seqtag/tagger/validator"
	"github.com/gomlx/go-seqtag/tokenize"
	"k8s.io/klog/v2"
)

// Outcomes of a character: it starts a new token or continues the current one.
var (
	StartOutcome    = scheme.Name{}.Label(api.RoleStart, "")
	ContinueOutcome = scheme.Name{}.Label(api.RoleContinue, "")
)

// Abbreviations is a set of abbreviations, e.g. "Mr.", whose final period is not split.
type Abbreviations map[string]struct{}

// LoadAbbreviations reads one abbreviation per non-empty line.
func LoadAbbreviations(lines iter.Seq2[string, error]) (Abbreviations, error) {
	abbreviations := make(Abbreviations)
	for line, err := range lines {
		if err != nil {
			return nil, err
		}
		if line = strings.TrimSpace(line); line != "" {
			abbreviations[line] = struct{}{}
		}
	}
	return abbreviations, nil
}

// Contains reports whether word is an abbreviation. A nil set contains nothing.
func (a Abbreviations) Contains(word string) bool {
	_, found := a[word]
	return found
}

// Options configure the tokenizer. Training and tokenizing must use the same options.
type Options struct {
	// AlphaNumericOptimization keeps chunks made only of letters and digits as one token, without
	// consulting the model.
	AlphaNumericOptimization bool

	// Abbreviations adds features marking known abbreviations. It may be nil.
	Abbreviations Abbreviations
}

// ContextGenerator generates the features of a character of a whitespace separated chunk: the
// chunk prefix and suffix around it, the surrounding characters and their classes, the previous
// outcome and whether the chunk or its prefix is a known abbreviation.
// It's not safe for concurrent use.
type ContextGenerator struct {
	abbreviations Abbreviations
	builder       features.Builder
}

var _ api.ContextGenerator = (*ContextGenerator)(nil)

// NewContextGenerator creates a ContextGenerator. abbreviations may be nil.
func NewContextGenerator(abbreviations Abbreviations) *ContextGenerator {
	return &ContextGenerator{abbreviations: abbreviations}
}

// Context implements api.ContextGenerator. chars holds the characters of one chunk.
func (cg *ContextGenerator) Context(index int, chars, priorOutcomes []string, _ [][]string) []string {
	b := &cg.builder
	b.Reset()
	prefix := strings.Join(chars[:index], "")
	b.Add("p", prefix)
	b.Add("s", strings.Join(chars[index:], ""))
	if index > 0 {
		addChar(b, "p1", chars[index-1])
		b.Add("p1f1", chars[index-1], chars[index])
	}
	if index > 1 {
		addChar(b, "p2", chars[index-2])
	}
	addChar(b, "f1", chars[index])
	if index+1 < len(chars) {
		addChar(b, "f2", chars[index+1])
	}
	b.Add("po", features.PreviousOutcome(priorOutcomes, index))
	if cg.abbreviations.Contains(strings.Join(chars, "")) {
		b.AddRaw("abb")
	}
	if index > 0 && cg.abbreviations.Contains(prefix) {
		b.AddRaw("pabb")
	}
	return b.Features()
}

// addChar adds the character c and its class features under name.
func addChar(b *features.Builder, name, c string) {
	b.Add(name, c)
	r, _ := utf8.DecodeRuneInString(c)
	switch {
	case unicode.IsLetter(r):
		b.AddRaw(name + "_alpha")
		if unicode.IsUpper(r) {
			b.AddRaw(name + "_caps")
		}
	case unicode.IsDigit(r):
		b.AddRaw(name + "_num")
	case unicode.IsSpace(r):
		b.AddRaw(name + "_ws")
	case r == '.' || r == '?' || r == '!':
		b.AddRaw(name + "_eos")
	case r == '`' || r == '"' || r == '\'':
		b.AddRaw(name + "_quote")
	case r == '[' || r == '{' || r == '(':
		b.AddRaw(name + "_lp")
	case r == ']' || r == '}' || r == ')':
		b.AddRaw(name + "_rp")
	}
}

// chunk is a whitespace separated part of a text, split in characters.
type chunk struct {
	span    tokenize.Span
	chars   []string
	offsets []int // byte offset of each character in the text
}

// chunksOf splits text on whitespace.
func chunksOf(text string) []chunk {
	_, chunkSpans := tokenize.Whitespace{}.TokenizeWithSpans(text)
	chunks := make([]chunk, len(chunkSpans))
	for ii, span := range chunkSpans {
		c := chunk{span: span}
		for pos, r := range text[span.Start:span.End] {
			c.chars = append(c.chars, string(r))
			c.offsets = append(c.offsets, span.Start+pos)
		}
		chunks[ii] = c
	}
	return chunks
}

// whole reports whether c is kept as one token without consulting the model.
func (c *chunk) whole(opts Options) bool {
	if len(c.chars) < 2 {
		return true
	}
	if !opts.AlphaNumericOptimization {
		return false
	}
	for _, ch := range c.chars {
		r, _ := utf8.DecodeRuneInString(ch)
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Tokenizer splits text into tokens with a maxent model. It's not safe for concurrent use.
type Tokenizer struct {
	decoder *beam.Decoder
	cg      api.ContextGenerator
	opts    Options
}

var (
	_ tokenize.Tokenizer           = (*Tokenizer)(nil)
	_ eval.Predictor[*TokenSample] = (*Tokenizer)(nil)
)

// New creates a Tokenizer for model. beamSize values < 1 are treated as 1.
func New(model api.Classifier, opts Options, beamSize int) *Tokenizer {
	return &Tokenizer{
		decoder: beam.New(model, scheme.Name{}, beamSize).WithValidator(validator.BIO{}),
		cg:      NewContextGenerator(opts.Abbreviations),
		opts:    opts,
	}
}

// Spans returns the byte span of each token of text.
//
// A chunk for which no valid outcome sequence exists (e.g. a model that never saw a split) is kept
// as one token.
func (t *Tokenizer) Spans(text string) []tokenize.Span {
	var tokens []tokenize.Span
	for _, c := range chunksOf(text) {
		if c.whole(t.opts) {
			tokens = append(tokens, c.span)
			continue
		}
		seq := t.decoder.BestSequence(c.chars, nil, t.cg)
		if seq == nil {
			klog.V(2).Infof("tokenize: no valid split of %q", text[c.span.Start:c.span.End])
			tokens = append(tokens, c.span)
			continue
		}
		for _, span := range spans.Extract(seq.Outcomes) {
			end := c.span.End
			if span.End < len(c.offsets) {
				end = c.offsets[span.End]
			}
			tokens = append(tokens, tokenize.Span{Start: c.offsets[span.Start], End: end})
		}
	}
	return tokens
}

// TokenizeWithSpans implements tokenize.Tokenizer.
func (t *Tokenizer) TokenizeWithSpans(text string) ([]string, []tokenize.Span) {
	tokenSpans := t.Spans(text)
	tokens := make([]string, len(tokenSpans))
	for ii, span := range tokenSpans {
		tokens[ii] = text[span.Start:span.End]
	}
	return tokens, tokenSpans
}

// Predict implements eval.Predictor.
func (t *Tokenizer) Predict(reference *TokenSample) (*TokenSample, error) {
	return NewTokenSample(reference.Text, t.Spans(reference.Text))
}

// Events converts samples into one training event per character of each chunk the model decides
// on, except the first character of the chunk, which always starts a token.
func Events(samples iter.Seq2[*TokenSample, error], opts Options) iter.Seq2[maxent.Event, error] {
	return func(yield func(maxent.Event, error) bool) {
		cg := NewContextGenerator(opts.Abbreviations)
		for sample, err := range samples {
			if err != nil {
				yield(maxent.Event{}, err)
				return
			}
			starts := make(map[int]bool, len(sample.Tokens))
			for _, token := range sample.Tokens {
				starts[token.Start] = true
			}
			for _, c := range chunksOf(sample.Text) {
				if c.whole(opts) {
					continue
				}
				outcomes := make([]string, len(c.chars))
				for ii, offset := range c.offsets {
					outcomes[ii] = ContinueOutcome
					if ii == 0 || starts[offset] {
						outcomes[ii] = StartOutcome
					}
				}
				for ii := 1; ii < len(c.chars); ii++ {
					event := maxent.Event{Outcome: outcomes[ii], Context: cg.Context(ii, c.chars, outcomes, nil)}
					if !yield(event, nil) {
						return
					}
				}
			}
		}
	}
}

// Train trains a tokenizer model on samples.
func Train(ctx context.Context, samples iter.Seq2[*TokenSample, error], opts Options, params maxent.Params) (*maxent.Model, error) {
	return maxent.TrainGIS(ctx, Events(samples, opts), params)
}
