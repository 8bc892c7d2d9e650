// Package maxent implements a maximum-entropy classifier, its GIS trainer and a Parquet model store.
//
// A Model scores an outcome by summing the weights of the (predicate, outcome) pairs active in a
// context, and normalizes the exponentiated sums into a probability distribution:
//
//	p(outcome | context) = exp(Σ weight(predicate, outcome)) / Z(context)
//
// Only pairs observed during training carry a weight.
package maxent

import (
	"math"

	"github.com/gomlx/go-seqtag/tagger/api"
)

// Model is a trained maximum-entropy classifier. It's immutable and safe for concurrent use.
type Model struct {
	outcomes   []string
	predicates map[string]int
	params     []parameters

	// digest of the serialized model, set by Save and Load.
	digest string
}

var _ api.Classifier = (*Model)(nil)

// parameters of one predicate: the weight of each outcome seen with it.
type parameters struct {
	outcomes []int
	weights  []float64
}

// Outcomes returns the outcome labels, in the order of Eval's result.
func (m *Model) Outcomes() []string {
	return m.outcomes
}

// NumPredicates returns the number of predicates the model has weights for.
func (m *Model) NumPredicates() int {
	return len(m.params)
}

// Digest returns the BLAKE3 hex digest of the model file it was saved to or loaded from,
// or "" for a model that was never serialized.
func (m *Model) Digest() string {
	return m.digest
}

// Eval returns the probability of each outcome given the context predicates.
// Unknown predicates are ignored: a context without known predicates yields the uniform distribution.
func (m *Model) Eval(context []string) []float64 {
	sums := make([]float64, len(m.outcomes))
	for _, predicate := range context {
		if idx, found := m.predicates[predicate]; found {
			m.params[idx].accumulate(sums)
		}
	}
	return normalize(sums)
}

// evalIndices is Eval on predicate indices, used by the trainer.
func (m *Model) evalIndices(context []int, sums []float64) []float64 {
	clear(sums)
	for _, idx := range context {
		m.params[idx].accumulate(sums)
	}
	return normalize(sums)
}

func (p *parameters) accumulate(sums []float64) {
	for ii, outcome := range p.outcomes {
		sums[outcome] += p.weights[ii]
	}
}

// normalize converts sums in-place into probabilities, exp(sum)/Z.
func normalize(sums []float64) []float64 {
	if len(sums) == 0 {
		return sums
	}
	maxSum := sums[0]
	for _, s := range sums[1:] {
		maxSum = max(maxSum, s)
	}
	var z float64
	for ii, s := range sums {
		sums[ii] = math.Exp(s - maxSum)
		z += sums[ii]
	}
	for ii := range sums {
		sums[ii] /= z
	}
	return sums
}

// BestOutcome returns the label with the highest probability in probs, as returned by Eval.
func (m *Model) BestOutcome(probs []float64) string {
	best := 0
	for ii, p := range probs {
		if p > probs[best] {
			best = ii
		}
	}
	return m.outcomes[best]
}
