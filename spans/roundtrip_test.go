package spans_test

import (
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/gomlx/go-seqtag/spans"
	"github.com/gomlx/go-seqtag/tagger/api"
	"github.com/gomlx/go-seqtag/tagger/beam"
	"github.com/gomlx/go-seqtag/tagger/scheme"
	"github.com/gomlx/go-seqtag/tagger/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// previousLabelContext emits the token and the previous outcome label as features.
type previousLabelContext struct{}

func (previousLabelContext) Context(index int, tokens []string, prior []string, _ [][]string) []string {
	prev := "*"
	if index > 0 {
		prev = prior[index-1]
	}
	return []string{"w=" + tokens[index], "prev=" + prev}
}

// hashedModel returns a fixed distribution per context, seeded by a hash of the context.
type hashedModel struct {
	labels []string
}

func (m hashedModel) Outcomes() []string { return m.labels }

func (m hashedModel) Eval(context []string) []float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.Join(context, "|")))
	rng := rand.New(rand.NewPCG(h.Sum64(), 17))
	probs := make([]float64, len(m.labels))
	var total float64
	for ii := range probs {
		probs[ii] = 0.05 + rng.Float64()
		total += probs[ii]
	}
	for ii := range probs {
		probs[ii] /= total
	}
	return probs
}

func TestDecodedSequenceRoundTrip(t *testing.T) {
	sentences := []string{
		"Pierre Vinken , 61 years old , will join the board as a nonexecutive director Nov. 29 .",
		"Mr. Vinken is chairman of Elsevier N.V. , the Dutch publishing group .",
		"Rudolph Agnew , 55 years old and former chairman of Consolidated Gold Fields PLC , was named a director .",
		"United 's directors voted",
		"a",
	}
	testCases := []struct {
		desc   string
		scheme api.Scheme
		labels []string
	}{
		{"name", scheme.Name{}, []string{"person-start", "person-continue", "org-start", "org-continue", "other"}},
		{"bio", scheme.BIO{}, []string{"B-NP", "I-NP", "B-VP", "I-VP", "B-PP", "O"}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			model := hashedModel{labels: tc.labels}
			var continues int
			for _, size := range []int{1, 3, 10} {
				decoder := beam.New(model, tc.scheme, size).WithValidator(validator.BIO{})
				for _, sentence := range sentences {
					tokens := strings.Fields(sentence)
					for _, seq := range decoder.TopSequences(3, tokens, nil, previousLabelContext{}) {
						require.Len(t, seq.Outcomes, len(tokens))
						for _, o := range seq.Outcomes {
							if o.Role == api.RoleContinue {
								continues++
							}
						}
						got := spans.Encode(tc.scheme, spans.Extract(seq.Outcomes), len(tokens))
						assert.Equal(t, seq.Labels(), got, "size=%d sentence=%q", size, sentence)
					}
				}
			}
			assert.Positive(t, continues, "no decoded sequence extended a span")
		})
	}
}
