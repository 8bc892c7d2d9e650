package spans

import (
	"testing"

	"github.com/gomlx/go-seqtag/tagger/api"
	"github.com/gomlx/go-seqtag/tagger/scheme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanBasics(t *testing.T) {
	s := New(1, 3, "org")
	assert.Equal(t, 2, s.Len())
	assert.NoError(t, s.Validate(3))
	assert.Error(t, s.Validate(2))
	assert.Error(t, New(2, 2, "").Validate(5))
	assert.Error(t, New(-1, 2, "").Validate(5))

	assert.True(t, New(0, 5, "").Contains(s))
	assert.False(t, s.Contains(New(0, 5, "")))
	assert.True(t, s.Intersects(New(2, 4, "")))
	assert.False(t, s.Intersects(New(3, 4, "")))
	assert.False(t, New(3, 4, "").Intersects(s))

	assert.Equal(t, "[1..3) org", s.String())
	assert.Equal(t, "[1..3)", New(1, 3, "").String())

	assert.Negative(t, Compare(New(0, 2, ""), New(1, 2, "")))
	assert.Negative(t, Compare(New(0, 1, ""), New(0, 2, "")))
	assert.Zero(t, Compare(New(0, 1, "a"), New(0, 1, "a")))
}

func TestExtractScenario(t *testing.T) {
	tokens := []string{"United", "'s", "directors", "voted"}
	got := ExtractLabels(scheme.Name{}, []string{"org-start", "org-continue", "other", "other"})
	require.Equal(t, []Span{New(0, 2, "org")}, got)
	assert.Equal(t, []string{"United 's"}, ToStrings(got, tokens))
}

func TestExtract(t *testing.T) {
	name := scheme.Name{}
	testCases := []struct {
		desc   string
		labels []string
		want   []Span
	}{
		{"empty", nil, nil},
		{"all other", []string{"other", "other", "other"}, nil},
		{"single start", []string{"person-start"}, []Span{New(0, 1, "person")}},
		{"start closed by start", []string{"person-start", "org-start", "other"},
			[]Span{New(0, 1, "person"), New(1, 2, "org")}},
		{"open span at the end", []string{"other", "person-start", "person-continue"},
			[]Span{New(1, 3, "person")}},
		{"dangling continue ignored", []string{"other", "person-continue", "other"}, nil},
		{"untyped", []string{"start", "continue", "other", "start"},
			[]Span{New(0, 2, ""), New(3, 4, "")}},
		{"legacy cont suffix", []string{"loc-start", "loc-cont"}, []Span{New(0, 2, "loc")}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractLabels(name, tc.labels))
		})
	}
}

func TestExtractChunks(t *testing.T) {
	chunks := []string{"B-NP", "B-PP", "B-NP", "I-NP", "I-NP", "B-VP", "B-ADVP", "O"}
	want := []Span{
		New(0, 1, "NP"),
		New(1, 2, "PP"),
		New(2, 5, "NP"),
		New(5, 6, "VP"),
		New(6, 7, "ADVP"),
	}
	assert.Equal(t, want, ExtractLabels(scheme.BIO{}, chunks))
}

func TestEncodeRoundTrip(t *testing.T) {
	name := scheme.Name{}
	sequences := [][]string{
		{"org-start", "org-continue", "other", "other"},
		{"person-start", "org-start", "org-continue", "org-continue"},
		{"other", "other"},
		{"start", "continue", "start"},
		{},
	}
	for _, labels := range sequences {
		got := Encode(name, ExtractLabels(name, labels), len(labels))
		assert.Equal(t, labels, got)
	}
	assert.Equal(t, []string{"B-NP", "I-NP", "O"}, Encode(scheme.BIO{}, []Span{New(0, 2, "NP")}, 3))
}

func TestDropOverlapping(t *testing.T) {
	input := []Span{
		New(5, 7, "a"),
		New(0, 3, "b"),
		New(1, 2, "c"), // Contained in [0, 3).
		New(2, 4, "d"), // Intersects [0, 3).
		New(0, 3, "e"), // Identical range, later in the input.
		New(3, 5, "f"),
		New(6, 9, "g"),
	}
	want := []Span{New(0, 3, "b"), New(3, 5, "f"), New(5, 7, "a")}
	got := DropOverlapping(input)
	assert.Equal(t, want, got)
	assert.Equal(t, New(5, 7, "a"), input[0], "input must not be modified")

	// Idempotent.
	assert.Equal(t, got, DropOverlapping(got))
	assert.Empty(t, DropOverlapping(nil))
}

func TestDropOverlappingPrefersEarliest(t *testing.T) {
	// A longer span that starts later loses against a shorter one that starts earlier.
	got := DropOverlapping([]Span{New(1, 6, "long"), New(0, 2, "short")})
	assert.Equal(t, []Span{New(0, 2, "short")}, got)
}

func TestProbs(t *testing.T) {
	probs := Probs([]Span{New(0, 2, ""), New(3, 4, "")}, []float64{0.5, 0.5, 0.9, 0.8})
	assert.InDeltaSlice(t, []float64{0.25, 0.8}, probs, 1e-12)
}

func TestExtractOutcomes(t *testing.T) {
	outcomes := []api.Outcome{
		{Label: "x", Role: api.RoleStart, Type: "t"},
		{Label: "y", Role: api.RoleContinue, Type: "t"},
	}
	assert.Equal(t, []Span{New(0, 2, "t")}, Extract(outcomes))
}
