package chunker

import (
	"context"
	"iter"

	"github.com/gomlx/go-seqtag/eval"
	"github.com/gomlx/go-seqtag/models/maxent"
	"github.com/gomlx/go-seqtag/spans"
	"github.com/gomlx/go-seqtag/tagger/api"
	"github.com/gomlx/go-seqtag/tagger/beam"
	"github.com/gomlx/go-seqtag/tagger/features"
	"github.com/gomlx/go-seqtag/tagger/scheme"
	"github.com/gomlx/go-seqtag/tagger/validator"
)

// ContextGenerator generates chunker features from the tokens, their POS tags (passed as the
// single entry of each token's additional context) and the previous chunk labels.
type ContextGenerator struct {
	builder features.Builder
}

var _ api.ContextGenerator = (*ContextGenerator)(nil)

func tagAt(additional [][]string, index int) string {
	switch {
	case index < 0:
		return features.BeginOfSentence
	case index >= len(additional) || len(additional[index]) == 0:
		return features.EndOfSentence
	}
	return additional[index][0]
}

// Context implements api.ContextGenerator.
func (cg *ContextGenerator) Context(index int, tokens, priorOutcomes []string, additional [][]string) []string {
	b := &cg.builder
	b.Reset()
	b.AddRaw("def")
	w2, w1, w0 := features.At(tokens, index-2), features.At(tokens, index-1), tokens[index]
	wn1, wn2 := features.At(tokens, index+1), features.At(tokens, index+2)
	t2, t1, t0 := tagAt(additional, index-2), tagAt(additional, index-1), tagAt(additional, index)
	tn1, tn2 := tagAt(additional, index+1), tagAt(additional, index+2)
	p2, p1 := features.PreviousOutcome(priorOutcomes, index-1), features.PreviousOutcome(priorOutcomes, index)

	b.Add("w_2", w2)
	b.Add("w_1", w1)
	b.Add("w0", w0)
	b.Add("w1", wn1)
	b.Add("w2", wn2)
	b.Add("t_2", t2)
	b.Add("t_1", t1)
	b.Add("t0", t0)
	b.Add("t1", tn1)
	b.Add("t2", tn2)
	b.Add("p_2", p2)
	b.Add("p_1", p1)
	b.Add("t_2t_1", t2, t1)
	b.Add("t_1t0", t1, t0)
	b.Add("t0t1", t0, tn1)
	b.Add("t1t2", tn1, tn2)
	b.Add("p_2p_1", p2, p1)
	b.Add("p_1t0", p1, t0)
	b.Add("p_1w0", p1, w0)
	b.Add("w_1w0", w1, w0)
	b.Add("w0w1", w0, wn1)
	return b.Features()
}

// tagsAsContext wraps each POS tag as the additional context of its token.
func tagsAsContext(tags []string) [][]string {
	additional := make([][]string, len(tags))
	for ii := range tags {
		additional[ii] = tags[ii : ii+1]
	}
	return additional
}

// Chunker tags POS-tagged sentences with chunk labels. It's not safe for concurrent use.
type Chunker struct {
	decoder *beam.Decoder
	cg      api.ContextGenerator
	best    *beam.Sequence
}

var _ eval.Predictor[*ChunkSample] = (*Chunker)(nil)

// New creates a Chunker for model. beamSize values < 1 are treated as 1.
func New(model api.Classifier, beamSize int) *Chunker {
	return &Chunker{
		decoder: beam.New(model, scheme.BIO{}, beamSize).WithValidator(validator.BIO{}),
		cg:      &ContextGenerator{},
	}
}

// Chunk returns the chunk label of each token. If no valid label sequence exists, every token is
// labeled "O".
func (c *Chunker) Chunk(tokens, tags []string) []string {
	c.best = c.decoder.BestSequence(tokens, tagsAsContext(tags), c.cg)
	if c.best == nil {
		return spans.Encode(scheme.BIO{}, nil, len(tokens))
	}
	return c.best.Labels()
}

// ChunkAsSpans returns the phrases of the sentence.
func (c *Chunker) ChunkAsSpans(tokens, tags []string) []spans.Span {
	return spans.ExtractLabels(scheme.BIO{}, c.Chunk(tokens, tags))
}

// TopChunks returns up to n alternative label sequences, best first.
func (c *Chunker) TopChunks(n int, tokens, tags []string) [][]string {
	sequences := c.decoder.TopSequences(n, tokens, tagsAsContext(tags), c.cg)
	chunks := make([][]string, len(sequences))
	for ii, seq := range sequences {
		chunks[ii] = seq.Labels()
	}
	return chunks
}

// Probs returns the probability of each label of the last chunked sentence, or nil if it couldn't
// be decoded.
func (c *Chunker) Probs() []float64 {
	if c.best == nil {
		return nil
	}
	return c.best.Probs
}

// Predict implements eval.Predictor.
func (c *Chunker) Predict(reference *ChunkSample) (*ChunkSample, error) {
	return NewChunkSample(reference.Sentence, reference.Tags, c.Chunk(reference.Sentence, reference.Tags))
}

// Events converts samples into one training event per token.
func Events(samples iter.Seq2[*ChunkSample, error]) iter.Seq2[maxent.Event, error] {
	return func(yield func(maxent.Event, error) bool) {
		cg := &ContextGenerator{}
		for sample, err := range samples {
			if err != nil {
				yield(maxent.Event{}, err)
				return
			}
			additional := tagsAsContext(sample.Tags)
			for ii := range sample.Sentence {
				event := maxent.Event{
					Outcome: sample.Chunks[ii],
					Context: cg.Context(ii, sample.Sentence, sample.Chunks, additional),
				}
				if !yield(event, nil) {
					return
				}
			}
		}
	}
}

// Train trains a chunker model on samples.
func Train(ctx context.Context, samples iter.Seq2[*ChunkSample, error], params maxent.Params) (*maxent.Model, error) {
	return maxent.TrainGIS(ctx, Events(samples), params)
}
