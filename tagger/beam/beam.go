// Package beam implements a best-first beam search decoder over tag sequences.
//
// At each token position every live hypothesis is extended with every outcome the
// SequenceValidator accepts, scored with the classifier probability, and only the
// highest scoring hypotheses are kept. Scores are sums of natural log probabilities.
//
// Hypotheses are kept in an arena and refer to their parent by index, so extending a hypothesis
// never copies nor mutates its history.
//
// Example:
//
//	decoder := beam.New(model, scheme.Name{}, beam.DefaultSize).WithValidator(validator.BIO{})
//	seq := decoder.BestSequence(tokens, nil, contextGenerator)
//	if seq == nil {
//		// No valid tag sequence exists for these tokens.
//	}
package beam

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/gomlx/go-seqtag/tagger/api"
	"github.com/gomlx/go-seqtag/tagger/validator"
	"k8s.io/klog/v2"
)

// DefaultSize is the default beam width.
const DefaultSize = 3

// Decoder searches the best tag sequences for token sequences.
//
// A Decoder is immutable once configured and can be shared by concurrent searches, provided each
// search uses its own ContextGenerator (and the Classifier and SequenceValidator are read-only, as
// required by their interfaces).
type Decoder struct {
	model     api.Classifier
	outcomes  []api.Outcome
	validator api.SequenceValidator
	size      int
}

// New creates a Decoder for the given model. The model outcome labels are parsed once with s.
// size is the beam width, values < 1 are treated as 1.
//
// By default, all outcomes are valid at every position, see WithValidator.
func New(model api.Classifier, s api.Scheme, size int) *Decoder {
	labels := model.Outcomes()
	outcomes := make([]api.Outcome, len(labels))
	for ii, label := range labels {
		outcomes[ii] = s.Parse(label)
	}
	return &Decoder{
		model:     model,
		outcomes:  outcomes,
		validator: validator.Any{},
		size:      max(size, 1),
	}
}

// WithValidator sets the validator used to prune invalid tag sequences.
// It returns the Decoder itself, to allow cascading configuration calls.
func (d *Decoder) WithValidator(v api.SequenceValidator) *Decoder {
	if v == nil {
		v = validator.Any{}
	}
	d.validator = v
	return d
}

// Size returns the beam width.
func (d *Decoder) Size() int {
	return d.size
}

// Outcomes returns the parsed outcome alphabet of the model, in the model order.
func (d *Decoder) Outcomes() []api.Outcome {
	return d.outcomes
}

// Sequence is a complete tag sequence found by the Decoder.
type Sequence struct {
	// Outcomes holds one outcome per token.
	Outcomes []api.Outcome

	// Probs holds, for each token, the probability of its outcome as returned by the classifier
	// during the search.
	Probs []float64

	// Score is the sum of the natural logs of Probs.
	Score float64
}

// Labels returns the outcome labels of the sequence.
func (s *Sequence) Labels() []string {
	labels := make([]string, len(s.Outcomes))
	for ii, o := range s.Outcomes {
		labels[ii] = o.Label
	}
	return labels
}

// String implements fmt.Stringer.
func (s *Sequence) String() string {
	return fmt.Sprintf("%.4f %v", s.Score, s.Labels())
}

// BestSequence returns the highest scoring tag sequence for tokens, or nil if at some position the
// validator rejects every extension of every live hypothesis.
//
// additional is passed unchanged to the context generator, it may be nil.
// The context generator is only used for the duration of the call.
func (d *Decoder) BestSequence(tokens []string, additional [][]string, cg api.ContextGenerator) *Sequence {
	top := d.TopSequences(1, tokens, additional, cg)
	if len(top) == 0 {
		return nil
	}
	return top[0]
}

// TopSequences returns up to n tag sequences for tokens, ordered by decreasing score.
// At most Size() sequences are returned, and none if no valid sequence was found.
func (d *Decoder) TopSequences(n int, tokens []string, additional [][]string, cg api.ContextGenerator) []*Sequence {
	s := newSearch(d, tokens, additional, cg)
	if !s.run() {
		klog.V(2).Infof("beam: no valid tag sequence for %d tokens", len(tokens))
		return nil
	}
	n = min(n, len(s.beam))
	sequences := make([]*Sequence, n)
	for ii := range n {
		sequences[ii] = s.sequence(s.beam[ii])
	}
	return sequences
}

// rootIdx refers to the empty hypothesis, the one the search starts from.
const rootIdx = -1

// hypothesis is one extension step: the parent hypothesis extended by outcome.
type hypothesis struct {
	parent  int
	outcome int
	prob    float64
	score   float64
}

// search holds the state of one decoding call: it's never shared.
type search struct {
	*Decoder
	tokens     []string
	additional [][]string
	cg         api.ContextGenerator

	arena []hypothesis
	beam  []int

	// Scratch buffers with the history of the hypothesis being extended.
	labels  []string
	history []api.Outcome
}

func newSearch(d *Decoder, tokens []string, additional [][]string, cg api.ContextGenerator) *search {
	return &search{
		Decoder:    d,
		tokens:     tokens,
		additional: additional,
		cg:         cg,
		arena:      make([]hypothesis, 0, len(tokens)*d.size*len(d.outcomes)),
		beam:       []int{rootIdx},
		labels:     make([]string, len(tokens)),
		history:    make([]api.Outcome, len(tokens)),
	}
}

func (s *search) score(idx int) float64 {
	if idx == rootIdx {
		return 0
	}
	return s.arena[idx].score
}

// loadHistory fills the scratch buffers with the outcomes of hypothesis idx, which has length position.
func (s *search) loadHistory(idx, position int) {
	for pos := position - 1; idx != rootIdx; pos-- {
		h := &s.arena[idx]
		s.history[pos] = s.outcomes[h.outcome]
		s.labels[pos] = s.history[pos].Label
		idx = h.parent
	}
}

// run advances the beam over all tokens. It returns false if the beam became empty.
func (s *search) run() bool {
	candidates := make([]int, 0, s.size*len(s.outcomes))
	for position := range s.tokens {
		candidates = candidates[:0]
		for _, parent := range s.beam {
			s.loadHistory(parent, position)
			context := s.cg.Context(position, s.tokens, s.labels[:position], s.additional)
			probs := s.model.Eval(context)
			if len(probs) != len(s.outcomes) {
				panic(fmt.Sprintf("beam: classifier returned %d probabilities for %d outcomes", len(probs), len(s.outcomes)))
			}
			parentScore := s.score(parent)
			for outcomeIdx, outcome := range s.outcomes {
				if !s.validator.ValidSequence(position, s.tokens, s.history[:position], outcome) {
					continue
				}
				s.arena = append(s.arena, hypothesis{
					parent:  parent,
					outcome: outcomeIdx,
					prob:    probs[outcomeIdx],
					score:   parentScore + math.Log(probs[outcomeIdx]),
				})
				candidates = append(candidates, len(s.arena)-1)
			}
		}
		if len(candidates) == 0 {
			klog.V(2).Infof("beam: all extensions rejected at position %d", position)
			s.beam = s.beam[:0]
			return false
		}
		// Stable: on ties, the earlier created hypothesis wins.
		slices.SortStableFunc(candidates, func(a, b int) int {
			return cmp.Compare(s.arena[b].score, s.arena[a].score)
		})
		s.beam = append(s.beam[:0], candidates[:min(s.size, len(candidates))]...)
	}
	return true
}

// sequence materializes the complete hypothesis idx.
func (s *search) sequence(idx int) *Sequence {
	n := len(s.tokens)
	seq := &Sequence{
		Outcomes: make([]api.Outcome, n),
		Probs:    make([]float64, n),
		Score:    s.score(idx),
	}
	for pos := n - 1; idx != rootIdx; pos-- {
		h := &s.arena[idx]
		seq.Outcomes[pos] = s.outcomes[h.outcome]
		seq.Probs[pos] = h.prob
		idx = h.parent
	}
	return seq
}
