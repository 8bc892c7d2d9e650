package namefind

import (
	"context"
	"iter"

	"github.com/gomlx/go-seqtag/models/maxent"
	"github.com/gomlx/go-seqtag/spans"
	"github.com/gomlx/go-seqtag/tagger/api"
	"github.com/gomlx/go-seqtag/tagger/scheme"
)

// Events converts samples into training events, one per token, with the contexts generated by cg.
//
// The outcomes of a sentence are its names encoded as "<type>-start", "<type>-continue" and
// "other" labels. Adaptive data is updated after each sentence and cleared at document boundaries,
// as the Finder does at decoding time.
func Events(samples iter.Seq2[*NameSample, error], cg api.ContextGenerator) iter.Seq2[maxent.Event, error] {
	adaptive, _ := cg.(api.AdaptiveContextGenerator)
	return func(yield func(maxent.Event, error) bool) {
		for sample, err := range samples {
			if err != nil {
				yield(maxent.Event{}, err)
				return
			}
			if adaptive != nil && sample.ClearAdaptiveData {
				adaptive.ClearAdaptiveData()
			}
			outcomes := spans.Encode(scheme.Name{}, sample.Names, sample.Len())
			for ii := range sample.Sentence {
				event := maxent.Event{
					Outcome: outcomes[ii],
					Context: cg.Context(ii, sample.Sentence, outcomes, sample.AdditionalContext),
				}
				if !yield(event, nil) {
					return
				}
			}
			if adaptive != nil {
				adaptive.UpdateAdaptiveData(sample.Sentence, outcomes)
			}
		}
	}
}

// Train trains a name finder model on samples with the default ContextGenerator.
func Train(ctx context.Context, samples iter.Seq2[*NameSample, error], params maxent.Params) (*maxent.Model, error) {
	return maxent.TrainGIS(ctx, Events(samples, NewContextGenerator()), params)
}
