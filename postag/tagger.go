package postag

import (
	"context"
	"iter"
	"slices"

	"github.com/gomlx/go-seqtag/eval"
	"github.com/gomlx/go-seqtag/models/maxent"
	"github.com/gomlx/go-seqtag/tagger/api"
	"github.com/gomlx/go-seqtag/tagger/beam"
	"github.com/gomlx/go-seqtag/tagger/features"
	"github.com/gomlx/go-seqtag/tagger/scheme"
	"github.com/gomlx/go-seqtag/tagger/validator"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"k8s.io/klog/v2"
)

// maxAffix is the longest prefix and suffix used as features.
const maxAffix = 4

// ContextGenerator generates POS tagger features: the lower-cased word, its prefixes, suffixes and
// token class, the surrounding words and the two previous tags. It's not safe for concurrent use.
type ContextGenerator struct {
	lower   cases.Caser
	builder features.Builder
}

var _ api.ContextGenerator = (*ContextGenerator)(nil)

// NewContextGenerator creates a ContextGenerator.
func NewContextGenerator() *ContextGenerator {
	return &ContextGenerator{lower: cases.Lower(language.Und)}
}

// Context implements api.ContextGenerator.
func (cg *ContextGenerator) Context(index int, tokens, priorOutcomes []string, _ [][]string) []string {
	b := &cg.builder
	b.Reset()
	b.AddRaw("def")
	word := cg.lower.String(tokens[index])
	b.Add("w", word)
	b.Add("wc", features.TokenClass(tokens[index]))
	runes := []rune(word)
	for n := 1; n <= min(maxAffix, len(runes)); n++ {
		b.Add("pre", string(runes[:n]))
		b.Add("suf", string(runes[len(runes)-n:]))
	}
	b.Add("p1w", cg.lower.String(features.At(tokens, index-1)))
	b.Add("p2w", cg.lower.String(features.At(tokens, index-2)))
	b.Add("n1w", cg.lower.String(features.At(tokens, index+1)))
	b.Add("n2w", cg.lower.String(features.At(tokens, index+2)))
	t1 := features.PreviousOutcome(priorOutcomes, index)
	t2 := features.PreviousOutcome(priorOutcomes, index-1)
	b.Add("t", t1)
	b.Add("t2", t2, t1)
	return b.Features()
}

// Tagger assigns POS tags to sentences. It's not safe for concurrent use.
type Tagger struct {
	decoder *beam.Decoder
	cg      api.ContextGenerator
	best    *beam.Sequence
}

var _ eval.Predictor[*POSSample] = (*Tagger)(nil)

// NewTagger creates a Tagger for model. dict restricts the tags of known words, it may be nil.
// beamSize values < 1 are treated as 1.
func NewTagger(model api.Classifier, dict *Dictionary, beamSize int) *Tagger {
	decoder := beam.New(model, scheme.Plain{}, beamSize)
	if dict != nil {
		decoder.WithValidator(validator.Dictionary{Lookup: dict})
	}
	return &Tagger{decoder: decoder, cg: NewContextGenerator()}
}

// Tag returns the tag of each token, or nil if the dictionary rules out every tag sequence.
func (t *Tagger) Tag(tokens []string) []string {
	t.best = t.decoder.BestSequence(tokens, nil, t.cg)
	if t.best == nil {
		return nil
	}
	return t.best.Labels()
}

// TopTags returns up to n alternative tag sequences, best first.
func (t *Tagger) TopTags(n int, tokens []string) [][]string {
	sequences := t.decoder.TopSequences(n, tokens, nil, t.cg)
	tags := make([][]string, len(sequences))
	for ii, seq := range sequences {
		tags[ii] = seq.Labels()
	}
	return tags
}

// Probs returns the probability of each tag of the last tagged sentence.
func (t *Tagger) Probs() []float64 {
	if t.best == nil {
		return nil
	}
	return t.best.Probs
}

// Predict implements eval.Predictor. If the dictionary rules out every tag sequence, the prediction
// has an empty tag for every token, so it contributes no spans.
func (t *Tagger) Predict(reference *POSSample) (*POSSample, error) {
	tags := t.Tag(reference.Sentence)
	if tags == nil {
		klog.V(1).Infof("postag: no valid tag sequence for %q", reference.String())
		tags = make([]string, len(reference.Sentence))
	}
	return NewPOSSample(reference.Sentence, tags)
}

// Events converts samples into one training event per token.
func Events(samples iter.Seq2[*POSSample, error]) iter.Seq2[maxent.Event, error] {
	return func(yield func(maxent.Event, error) bool) {
		cg := NewContextGenerator()
		for sample, err := range samples {
			if err != nil {
				yield(maxent.Event{}, err)
				return
			}
			for ii := range sample.Sentence {
				event := maxent.Event{Outcome: sample.Tags[ii], Context: cg.Context(ii, sample.Sentence, sample.Tags, nil)}
				if !yield(event, nil) {
					return
				}
			}
		}
	}
}

// Train trains a POS tagger model on samples.
func Train(ctx context.Context, samples iter.Seq2[*POSSample, error], params maxent.Params) (*maxent.Model, error) {
	return maxent.TrainGIS(ctx, Events(samples), params)
}

// BuildDictionary collects the tags seen for each word of samples.
func BuildDictionary(samples iter.Seq2[*POSSample, error], caseSensitive bool) (*Dictionary, error) {
	d := NewDictionary(caseSensitive)
	for sample, err := range samples {
		if err != nil {
			return nil, err
		}
		for ii, word := range sample.Sentence {
			tags := d.Tags(word)
			if !slices.Contains(tags, sample.Tags[ii]) {
				d.Put(word, append(tags, sample.Tags[ii])...)
			}
		}
	}
	return d, nil
}
