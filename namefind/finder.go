package namefind

import (
	"github.com/gomlx/go-seqtag/eval"
	"github.com/gomlx/go-seqtag/spans"
	"github.com/gomlx/go-seqtag/tagger/api"
	"github.com/gomlx/go-seqtag/tagger/beam"
	"github.com/gomlx/go-seqtag/tagger/scheme"
	"github.com/gomlx/go-seqtag/tagger/validator"
)

// Finder finds names in tokenized sentences.
//
// It owns its context generator and the probabilities of the last decoded sentence, so it's not safe
// for concurrent use: create one Finder per goroutine, they can share the model.
type Finder struct {
	decoder *beam.Decoder
	cg      api.ContextGenerator
	best    *beam.Sequence
}

var _ eval.Predictor[*NameSample] = (*Finder)(nil)

// NewFinder creates a Finder for model with the default ContextGenerator.
// beamSize values < 1 are treated as 1.
func NewFinder(model api.Classifier, beamSize int) *Finder {
	return &Finder{
		decoder: beam.New(model, scheme.Name{}, beamSize).WithValidator(validator.BIO{}),
		cg:      NewContextGenerator(),
	}
}

// WithContextGenerator replaces the context generator, which must match the one the model was
// trained with. It returns the Finder itself, to allow cascading configuration calls.
func (f *Finder) WithContextGenerator(cg api.ContextGenerator) *Finder {
	f.cg = cg
	return f
}

// Find returns the names in tokens, sorted by position.
// additional holds optional extra context per token, it may be nil.
//
// If no valid tag sequence exists, it returns no names. After a successful decode the adaptive data
// of the context generator is updated with the decoded outcomes.
func (f *Finder) Find(tokens []string, additional [][]string) []spans.Span {
	f.best = f.decoder.BestSequence(tokens, additional, f.cg)
	if f.best == nil {
		return nil
	}
	if adaptive, ok := f.cg.(api.AdaptiveContextGenerator); ok {
		adaptive.UpdateAdaptiveData(tokens, f.best.Labels())
	}
	return spans.Extract(f.best.Outcomes)
}

// Probs returns the probability of each outcome of the last decoded sentence, or nil if the last
// call to Find didn't decode a sequence.
func (f *Finder) Probs() []float64 {
	if f.best == nil {
		return nil
	}
	return f.best.Probs
}

// SpanProbs returns, for each of the names returned by the last call to Find, the product of the
// probabilities of its outcomes.
func (f *Finder) SpanProbs(names []spans.Span) []float64 {
	return spans.Probs(names, f.Probs())
}

// ClearAdaptiveData forgets the adaptive data collected by previous calls to Find.
// It should be called between documents.
func (f *Finder) ClearAdaptiveData() {
	if adaptive, ok := f.cg.(api.AdaptiveContextGenerator); ok {
		adaptive.ClearAdaptiveData()
	}
}

// Predict implements eval.Predictor: it finds the names of the reference sentence, clearing the
// adaptive data first if the reference starts a new document.
func (f *Finder) Predict(reference *NameSample) (*NameSample, error) {
	if reference.ClearAdaptiveData {
		f.ClearAdaptiveData()
	}
	names := f.Find(reference.Sentence, reference.AdditionalContext)
	return NewNameSample(reference.Sentence, names, reference.AdditionalContext, reference.ClearAdaptiveData)
}

// FindAll runs every finder on tokens and merges their names, dropping overlapping ones so that
// among intersecting names the one starting (then ending) first is kept.
func FindAll(finders []*Finder, tokens []string, additional [][]string) []spans.Span {
	names, _ := FindAllWithProbs(finders, tokens, additional)
	return names
}

// FindAllWithProbs is like FindAll, but also returns the probability of each kept name, as given by
// the finder that found it.
func FindAllWithProbs(finders []*Finder, tokens []string, additional [][]string) ([]spans.Span, []float64) {
	var names []spans.Span
	probs := make(map[spans.Span]float64)
	for _, f := range finders {
		found := f.Find(tokens, additional)
		for ii, p := range f.SpanProbs(found) {
			if _, dup := probs[found[ii]]; !dup {
				probs[found[ii]] = p
				names = append(names, found[ii])
			}
		}
	}
	names = spans.DropOverlapping(names)
	kept := make([]float64, len(names))
	for ii, name := range names {
		kept[ii] = probs[name]
	}
	return names, kept
}
