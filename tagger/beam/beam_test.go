package beam

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/gomlx/go-seqtag/tagger/api"
	"github.com/gomlx/go-seqtag/tagger/scheme"
	"github.com/gomlx/go-seqtag/tagger/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// historyContext emits the position and the previous outcome label as features.
type historyContext struct{}

func (historyContext) Context(index int, _ []string, prior []string, _ [][]string) []string {
	prev := "*"
	if index > 0 {
		prev = prior[index-1]
	}
	return []string{"pos=" + strconv.Itoa(index), "prev=" + prev}
}

// funcClassifier scores outcomes with fn(position, previous label).
type funcClassifier struct {
	labels []string
	fn     func(position int, prev string) []float64
}

func (c *funcClassifier) Outcomes() []string { return c.labels }

func (c *funcClassifier) Eval(context []string) []float64 {
	position, _ := strconv.Atoi(strings.TrimPrefix(context[0], "pos="))
	return c.fn(position, strings.TrimPrefix(context[1], "prev="))
}

// pseudoRandom returns a deterministic, history dependent distribution over n outcomes.
func pseudoRandom(labels []string) func(int, string) []float64 {
	return func(position int, prev string) []float64 {
		prevIdx := len(labels)
		for ii, l := range labels {
			if l == prev {
				prevIdx = ii
			}
		}
		weights := make([]float64, len(labels))
		var total float64
		for o := range labels {
			weights[o] = float64(1 + (position*7+prevIdx*3+o*5+position*o)%11)
			total += weights[o]
		}
		for o := range weights {
			weights[o] /= total
		}
		return weights
	}
}

func tokensOf(n int) []string {
	tokens := make([]string, n)
	for ii := range tokens {
		tokens[ii] = "t" + strconv.Itoa(ii)
	}
	return tokens
}

func TestBestSequenceLength(t *testing.T) {
	labels := []string{"person-start", "person-continue", "other"}
	model := &funcClassifier{labels: labels, fn: pseudoRandom(labels)}
	for _, size := range []int{1, 2, 3, 10} {
		d := New(model, scheme.Name{}, size).WithValidator(validator.BIO{})
		for n := range 7 {
			seq := d.BestSequence(tokensOf(n), nil, historyContext{})
			require.NotNil(t, seq)
			assert.Len(t, seq.Outcomes, n)
			assert.Len(t, seq.Probs, n)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	labels := []string{"a", "b"}
	model := &funcClassifier{labels: labels, fn: pseudoRandom(labels)}
	seq := New(model, scheme.Plain{}, 3).BestSequence(nil, nil, historyContext{})
	require.NotNil(t, seq)
	assert.Empty(t, seq.Outcomes)
	assert.Equal(t, 0.0, seq.Score)
}

func TestBeamBeatsGreedy(t *testing.T) {
	labels := []string{"A", "B"}
	model := &funcClassifier{labels: labels, fn: func(position int, prev string) []float64 {
		switch {
		case position == 0:
			return []float64{0.6, 0.4}
		case prev == "A":
			return []float64{0.5, 0.5}
		default:
			return []float64{0.9, 0.1}
		}
	}}
	tokens := tokensOf(2)

	greedy := New(model, scheme.Plain{}, 1).BestSequence(tokens, nil, historyContext{})
	require.NotNil(t, greedy)
	assert.Equal(t, []string{"A", "A"}, greedy.Labels())
	assert.InDelta(t, math.Log(0.3), greedy.Score, 1e-12)

	wide := New(model, scheme.Plain{}, 2).BestSequence(tokens, nil, historyContext{})
	require.NotNil(t, wide)
	assert.Equal(t, []string{"B", "A"}, wide.Labels())
	assert.InDelta(t, math.Log(0.36), wide.Score, 1e-12)
}

// bruteForceBest enumerates every valid sequence and returns the best score.
func bruteForceBest(labels []string, fn func(int, string) []float64, n int, v api.SequenceValidator) float64 {
	s := scheme.Name{}
	best := math.Inf(-1)
	var walk func(history []api.Outcome, score float64)
	walk = func(history []api.Outcome, score float64) {
		position := len(history)
		if position == n {
			best = max(best, score)
			return
		}
		prev := "*"
		if position > 0 {
			prev = history[position-1].Label
		}
		probs := fn(position, prev)
		for o, label := range labels {
			candidate := s.Parse(label)
			if !v.ValidSequence(position, tokensOf(n), history, candidate) {
				continue
			}
			walk(append(append([]api.Outcome{}, history...), candidate), score+math.Log(probs[o]))
		}
	}
	walk(nil, 0)
	return best
}

func TestWiderBeamNeverWorseThanExhaustive(t *testing.T) {
	labels := []string{"org-start", "org-continue", "person-start", "person-continue", "other"}
	fn := pseudoRandom(labels)
	model := &funcClassifier{labels: labels, fn: fn}
	const n = 4
	want := bruteForceBest(labels, fn, n, validator.BIO{})

	// A beam wider than the whole search space is exhaustive.
	exhaustive := New(model, scheme.Name{}, 1000).WithValidator(validator.BIO{}).
		BestSequence(tokensOf(n), nil, historyContext{})
	require.NotNil(t, exhaustive)
	assert.InDelta(t, want, exhaustive.Score, 1e-9)

	for size := 1; size <= 6; size++ {
		seq := New(model, scheme.Name{}, size).WithValidator(validator.BIO{}).
			BestSequence(tokensOf(n), nil, historyContext{})
		require.NotNil(t, seq)
		assert.LessOrEqual(t, seq.Score, exhaustive.Score+1e-12, "beam size %d", size)
	}
}

func TestProbsMatchScoring(t *testing.T) {
	labels := []string{"org-start", "org-continue", "other"}
	fn := pseudoRandom(labels)
	model := &funcClassifier{labels: labels, fn: fn}
	seq := New(model, scheme.Name{}, 3).WithValidator(validator.BIO{}).
		BestSequence(tokensOf(5), nil, historyContext{})
	require.NotNil(t, seq)

	var logSum float64
	for ii, p := range seq.Probs {
		prev := "*"
		if ii > 0 {
			prev = seq.Outcomes[ii-1].Label
		}
		probs := fn(ii, prev)
		outcomeIdx := -1
		for o, label := range labels {
			if label == seq.Outcomes[ii].Label {
				outcomeIdx = o
			}
		}
		require.GreaterOrEqual(t, outcomeIdx, 0)
		assert.Equal(t, probs[outcomeIdx], p)
		logSum += math.Log(p)
	}
	assert.Equal(t, logSum, seq.Score)
}

func TestValidatorIsApplied(t *testing.T) {
	labels := []string{"org-continue", "org-start", "other"}
	// The classifier always prefers the continuation outcome.
	model := &funcClassifier{labels: labels, fn: func(int, string) []float64 {
		return []float64{0.8, 0.1, 0.1}
	}}
	seq := New(model, scheme.Name{}, 3).WithValidator(validator.BIO{}).
		BestSequence(tokensOf(3), nil, historyContext{})
	require.NotNil(t, seq)
	assert.Equal(t, "org-start", seq.Outcomes[0].Label)
	assert.Equal(t, "org-continue", seq.Outcomes[1].Label)
	assert.Equal(t, "org-continue", seq.Outcomes[2].Label)
}

func TestDecodeFailure(t *testing.T) {
	labels := []string{"a", "b"}
	model := &funcClassifier{labels: labels, fn: pseudoRandom(labels)}
	rejectSecond := api.SequenceValidatorFunc(func(index int, _ []string, _ []api.Outcome, _ api.Outcome) bool {
		return index != 1
	})
	d := New(model, scheme.Plain{}, 3).WithValidator(rejectSecond)
	assert.Nil(t, d.BestSequence(tokensOf(3), nil, historyContext{}))
	assert.Empty(t, d.TopSequences(3, tokensOf(3), nil, historyContext{}))
	// A single token never reaches the rejected position.
	assert.NotNil(t, d.BestSequence(tokensOf(1), nil, historyContext{}))
}

func TestTopSequences(t *testing.T) {
	labels := []string{"a", "b", "c"}
	model := &funcClassifier{labels: labels, fn: pseudoRandom(labels)}
	d := New(model, scheme.Plain{}, 4)
	top := d.TopSequences(10, tokensOf(3), nil, historyContext{})
	require.Len(t, top, 4)
	for ii := 1; ii < len(top); ii++ {
		assert.GreaterOrEqual(t, top[ii-1].Score, top[ii].Score)
	}
	assert.Equal(t, d.BestSequence(tokensOf(3), nil, historyContext{}).Labels(), top[0].Labels())
	assert.Len(t, d.TopSequences(2, tokensOf(3), nil, historyContext{}), 2)
}

func TestTiesKeepFirstOutcome(t *testing.T) {
	labels := []string{"x", "y"}
	model := &funcClassifier{labels: labels, fn: func(int, string) []float64 {
		return []float64{0.5, 0.5}
	}}
	for range 3 {
		seq := New(model, scheme.Plain{}, 1).BestSequence(tokensOf(3), nil, historyContext{})
		require.NotNil(t, seq)
		assert.Equal(t, []string{"x", "x", "x"}, seq.Labels())
	}
}
